package archive

import (
	"errors"
	"slices"
	"testing"

	"github.com/spf13/afero"

	"github.com/justestif/go-spotify-recently-played/internal/spotify"
	"github.com/justestif/go-spotify-recently-played/internal/store"
)

func play(name, playedAt string) spotify.PlayEvent {
	return spotify.PlayEvent{
		PlayedAt: playedAt,
		Track:    spotify.Track{Name: name, Album: spotify.Album{Name: "Album"}},
	}
}

func names(events []spotify.PlayEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Track.Name
	}
	return out
}

func newTestArchiver(t *testing.T) (*Archiver, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return New(store.New(fs), "/archive"), fs
}

func TestAppendCreatesArchive(t *testing.T) {
	a, fs := newTestArchiver(t)

	events := []spotify.PlayEvent{
		play("a", "2024-01-01T10:00:00Z"),
		play("b", "2024-01-01T11:00:00Z"),
	}

	arc, err := a.Append("2024-01-01", events)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if got := names(arc.Items); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Append() items = %v, want [a b]", got)
	}

	if ok, _ := afero.Exists(fs, "/archive/2024-01-01.json"); !ok {
		t.Error("archive file was not written")
	}

	loaded, err := a.Load("2024-01-01")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := names(loaded.Items); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Load() items = %v, want [a b]", got)
	}
}

func TestAppendTwiceDuplicates(t *testing.T) {
	a, _ := newTestArchiver(t)

	events := []spotify.PlayEvent{
		play("a", "2024-01-01T10:00:00Z"),
		play("b", "2024-01-01T11:00:00Z"),
	}

	for i := 0; i < 2; i++ {
		if _, err := a.Append("2024-01-01", events); err != nil {
			t.Fatalf("Append() #%d error = %v", i+1, err)
		}
	}

	loaded, err := a.Load("2024-01-01")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// No deduplication: the second call appends the same plays again.
	want := []string{"a", "b", "a", "b"}
	if got := names(loaded.Items); !slices.Equal(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
}

func TestAppendKeepsDatesSeparate(t *testing.T) {
	a, _ := newTestArchiver(t)

	if _, err := a.Append("2024-01-01", []spotify.PlayEvent{play("jan1", "2024-01-01T10:00:00Z")}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Append("2024-01-02", []spotify.PlayEvent{play("jan2", "2024-01-02T10:00:00Z")}); err != nil {
		t.Fatal(err)
	}

	for date, want := range map[string]string{"2024-01-01": "jan1", "2024-01-02": "jan2"} {
		arc, err := a.Load(date)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", date, err)
		}
		if len(arc.Items) != 1 || arc.Items[0].Track.Name != want {
			t.Errorf("Load(%s) = %v, want [%s]", date, names(arc.Items), want)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"missing items", `{}`, ErrInvalidArchive},
		{"null items", `{"items":null}`, ErrInvalidArchive},
		{"items is an object", `{"items":{"a":1}}`, ErrInvalidArchive},
		{"items is a string", `{"items":"nope"}`, ErrInvalidArchive},
		{"not json", `items: []`, ErrInvalidArchive},
		{"malformed event", `{"items":[{"played_at":"soon","track":{"name":"x","album":{"name":"y"}}}]}`, ErrInvalidArchive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, fs := newTestArchiver(t)
			if err := afero.WriteFile(fs, a.Path("2024-01-01"), []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			if _, err := a.Load("2024-01-01"); !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadNotFound(t *testing.T) {
	a, _ := newTestArchiver(t)
	if _, err := a.Load("1999-12-31"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestLoadEmptyItems(t *testing.T) {
	a, fs := newTestArchiver(t)
	if err := afero.WriteFile(fs, a.Path("2024-01-01"), []byte(`{"items": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	arc, err := a.Load("2024-01-01")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(arc.Items) != 0 {
		t.Errorf("got %d items, want 0", len(arc.Items))
	}
}

func TestAppendToInvalidArchiveFails(t *testing.T) {
	a, fs := newTestArchiver(t)
	original := []byte(`{"items":"broken"}`)
	if err := afero.WriteFile(fs, a.Path("2024-01-01"), original, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Append("2024-01-01", []spotify.PlayEvent{play("a", "2024-01-01T10:00:00Z")}); !errors.Is(err, ErrInvalidArchive) {
		t.Fatalf("Append() error = %v, want ErrInvalidArchive", err)
	}

	data, err := afero.ReadFile(fs, a.Path("2024-01-01"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(original) {
		t.Errorf("archive rewritten to %s", data)
	}
}

func TestReplace(t *testing.T) {
	a, _ := newTestArchiver(t)

	if _, err := a.Append("2024-01-01", []spotify.PlayEvent{
		play("a", "2024-01-01T10:00:00Z"),
		play("b", "2024-01-01T11:00:00Z"),
		play("c", "2024-01-01T12:00:00Z"),
	}); err != nil {
		t.Fatal(err)
	}

	if err := a.Replace("2024-01-01", []spotify.PlayEvent{play("c", "2024-01-01T12:00:00Z")}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	arc, err := a.Load("2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if got := names(arc.Items); !slices.Equal(got, []string{"c"}) {
		t.Errorf("items = %v, want [c]", got)
	}
}
