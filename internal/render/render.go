// Package render turns the most recent plays into an HTML table and writes
// it to the output file.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/justestif/go-spotify-recently-played/internal/spotify"
	"github.com/justestif/go-spotify-recently-played/internal/store"
	webfs "github.com/justestif/go-spotify-recently-played/web"
)

// DefaultCount is how many plays the table shows.
const DefaultCount = 10

// ErrMissingArtwork is returned when a track's album has no image of
// exactly spotify.ArtworkWidth pixels.
var ErrMissingArtwork = errors.New("album has no 64px artwork")

// Renderer renders plays into a shared output file.
type Renderer struct {
	templates   *Templates
	templatesFS fs.FS
	docs        *store.Documents
	output      string
	count       int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCount sets how many plays the table shows.
func WithCount(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.count = n
		}
	}
}

// WithTemplates uses templates from templatesFS instead of the embedded ones.
func WithTemplates(templatesFS fs.FS) Option {
	return func(r *Renderer) {
		r.templatesFS = templatesFS
	}
}

// New creates a Renderer that writes to output.
func New(docs *store.Documents, output string, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		docs:   docs,
		output: output,
		count:  DefaultCount,
	}
	for _, opt := range opts {
		opt(r)
	}

	templatesFS := r.templatesFS
	if templatesFS == nil {
		sub, err := fs.Sub(webfs.TemplatesFS, "templates")
		if err != nil {
			return nil, fmt.Errorf("creating templates filesystem: %w", err)
		}
		templatesFS = sub
	}

	templates, err := NewTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	r.templates = templates

	return r, nil
}

// Output returns the path of the rendered file.
func (r *Renderer) Output() string {
	return r.output
}

// Recent reverses events, which are stored oldest first, and returns at
// most n of them, most recent first.
func Recent(events []spotify.PlayEvent, n int) []spotify.PlayEvent {
	reversed := slices.Clone(events)
	slices.Reverse(reversed)
	if len(reversed) > n {
		reversed = reversed[:n]
	}
	return reversed
}

// Table renders rows, most recent first, as an HTML table.
func (r *Renderer) Table(rows []spotify.PlayEvent) ([]byte, error) {
	data := TableData{Rows: make([]Row, len(rows))}
	for i, e := range rows {
		img, ok := e.Track.Album.Artwork(spotify.ArtworkWidth)
		if !ok {
			return nil, fmt.Errorf("%w: %q by %s", ErrMissingArtwork, e.Track.Name, e.Track.ArtistNames())
		}
		data.Rows[i] = Row{
			ArtworkURL: img.URL,
			Track:      e.Track.Name,
			Artists:    e.Track.ArtistNames(),
			Album:      e.Track.Album.Name,
			AlbumURL:   e.Track.Album.URL(),
		}
	}

	var buf bytes.Buffer
	if err := r.templates.Execute(&buf, tableTemplate, data); err != nil {
		return nil, fmt.Errorf("rendering table: %w", err)
	}
	return buf.Bytes(), nil
}

// Publish renders the most recent plays of events, which are stored oldest
// first, and overwrites the output file. It returns the rendered plays,
// most recent first. Nothing is written if rendering fails.
func (r *Renderer) Publish(events []spotify.PlayEvent) ([]spotify.PlayEvent, error) {
	rows := Recent(events, r.count)

	html, err := r.Table(rows)
	if err != nil {
		return nil, err
	}

	if err := r.docs.WriteRaw(r.output, html); err != nil {
		return nil, fmt.Errorf("writing %s: %w", r.output, err)
	}
	return rows, nil
}
