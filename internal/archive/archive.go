// Package archive keeps one append-only JSON document of play events per
// calendar date.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/justestif/go-spotify-recently-played/internal/spotify"
	"github.com/justestif/go-spotify-recently-played/internal/store"
)

// Common errors.
var (
	// ErrNotFound is returned when no archive exists for a date.
	ErrNotFound = errors.New("archive not found")

	// ErrInvalidArchive is returned when an archive document has no items
	// array or holds events that fail validation.
	ErrInvalidArchive = errors.New("invalid archive")
)

// Archive is the persisted document of one date: { "items": [...] }.
type Archive struct {
	Date  string              `json:"-"`
	Items []spotify.PlayEvent `json:"items"`
}

// document mirrors Archive but keeps items raw so a missing or non-array
// field can be told apart from an empty one.
type document struct {
	Items json.RawMessage `json:"items"`
}

// Archiver reads and writes per-date archives under a directory.
type Archiver struct {
	docs *store.Documents
	dir  string
}

// New creates an Archiver storing documents in dir.
func New(docs *store.Documents, dir string) *Archiver {
	return &Archiver{docs: docs, dir: dir}
}

// Path returns the file path of the archive for date.
func (a *Archiver) Path(date string) string {
	return filepath.Join(a.dir, date+".json")
}

// Load reads and validates the archive for date.
// Returns ErrNotFound if it does not exist and ErrInvalidArchive if its
// items field is missing, not an array or holds malformed events.
func (a *Archiver) Load(date string) (*Archive, error) {
	path := a.Path(date)

	var doc document
	found, err := a.docs.Read(path, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if len(doc.Items) == 0 || doc.Items[0] != '[' {
		return nil, fmt.Errorf("%w: %s: items is not an array", ErrInvalidArchive, path)
	}

	var items []spotify.PlayEvent
	if err := json.Unmarshal(doc.Items, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, path, err)
	}
	for i, item := range items {
		if err := spotify.Validate(item); err != nil {
			return nil, fmt.Errorf("%w: %s: item %d: %v", ErrInvalidArchive, path, i, err)
		}
	}

	return &Archive{Date: date, Items: items}, nil
}

// Append adds events to the tail of the archive for date, creating it if
// absent, and persists it once. Events are not deduplicated.
func (a *Archiver) Append(date string, events []spotify.PlayEvent) (*Archive, error) {
	arc, err := a.Load(date)
	switch {
	case errors.Is(err, ErrNotFound):
		arc = &Archive{Date: date}
	case err != nil:
		return nil, err
	}

	arc.Items = append(arc.Items, events...)

	if err := a.write(arc); err != nil {
		return nil, err
	}
	return arc, nil
}

// Replace overwrites the archive for date with exactly events.
func (a *Archiver) Replace(date string, events []spotify.PlayEvent) error {
	return a.write(&Archive{Date: date, Items: events})
}

func (a *Archiver) write(arc *Archive) error {
	if arc.Items == nil {
		arc.Items = []spotify.PlayEvent{}
	}
	if err := a.docs.Write(a.Path(arc.Date), arc); err != nil {
		return fmt.Errorf("writing archive %s: %w", arc.Date, err)
	}
	return nil
}
