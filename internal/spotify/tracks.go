package spotify

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports whether a play event can be archived: it needs a
// parseable played_at. Track and album gaps, common for local files, are
// left for the renderer to reject.
func Validate(e PlayEvent) error {
	if e.PlayedAt == "" {
		return errors.New("missing played_at")
	}
	if _, err := e.Time(); err != nil {
		return fmt.Errorf("parsing played_at %q: %w", e.PlayedAt, err)
	}
	return nil
}

// ArtistNames returns the track's artist names joined by ", ".
func (t Track) ArtistNames() string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// Date returns the calendar date portion of PlayedAt, everything before the
// "T" separator, exactly as the API reported it.
func (e PlayEvent) Date() string {
	date, _, _ := strings.Cut(e.PlayedAt, "T")
	return date
}
