package spotify

import (
	"time"

	"github.com/zmb3/spotify/v2"
)

// ArtworkWidth is the album image variant shown in the rendered table.
const ArtworkWidth = 64

// PlayEvent is one play of a track, as reported by the recently-played
// endpoint. PlayedAt keeps the API's own RFC 3339 string so that the date
// prefix is never re-derived in another timezone.
type PlayEvent struct {
	PlayedAt string `json:"played_at"`
	Track    Track  `json:"track"`
}

// Time parses PlayedAt.
func (e PlayEvent) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.PlayedAt)
}

// Track is the subset of the Spotify track object this program keeps.
type Track struct {
	ID      spotify.ID             `json:"id,omitempty"`
	Name    string                 `json:"name"`
	Artists []spotify.SimpleArtist `json:"artists"`
	Album   Album                  `json:"album"`
}

// Album is the subset of the Spotify album object this program keeps.
type Album struct {
	Name         string            `json:"name"`
	Images       []spotify.Image   `json:"images"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// Artwork returns the image whose reported width is exactly width.
func (a Album) Artwork(width int) (spotify.Image, bool) {
	for _, img := range a.Images {
		if int(img.Width) == width {
			return img, true
		}
	}
	return spotify.Image{}, false
}

// URL returns the album's open.spotify.com link.
func (a Album) URL() string {
	return a.ExternalURLs["spotify"]
}

// Cursors are the pagination tokens of a recently-played page.
type Cursors struct {
	After  string `json:"after"`
	Before string `json:"before"`
}

// RecentlyPlayed is one page of the recently-played endpoint.
type RecentlyPlayed struct {
	Items   []PlayEvent `json:"items"`
	Cursors *Cursors    `json:"cursors"`
	Limit   int         `json:"limit"`
	Next    string      `json:"next"`
}

// After returns the cursor to resume from, or "" if the page carried none.
func (r *RecentlyPlayed) After() string {
	if r == nil || r.Cursors == nil {
		return ""
	}
	return r.Cursors.After
}

// errorResponse is the JSON body Spotify returns with non-2xx statuses.
type errorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}
