// Package history orders and groups play events by calendar date.
package history

import (
	"slices"

	"github.com/justestif/go-spotify-recently-played/internal/spotify"
)

// DateGroup is the plays of one calendar date, oldest first.
type DateGroup struct {
	Date   string
	Events []spotify.PlayEvent
}

// Sort returns a copy of events ordered oldest first. Events with equal
// timestamps keep their input order. Unparseable timestamps sort first.
func Sort(events []spotify.PlayEvent) []spotify.PlayEvent {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b spotify.PlayEvent) int {
		ta, _ := a.Time()
		tb, _ := b.Time()
		return ta.Compare(tb)
	})
	return sorted
}

// Partition sorts events oldest first and groups them by the date prefix of
// their played_at value. Groups come back in ascending date order, and no
// timezone conversion is applied.
func Partition(events []spotify.PlayEvent) []DateGroup {
	var groups []DateGroup
	index := make(map[string]int)

	for _, e := range Sort(events) {
		date := e.Date()
		i, ok := index[date]
		if !ok {
			i = len(groups)
			index[date] = i
			groups = append(groups, DateGroup{Date: date})
		}
		groups[i].Events = append(groups[i].Events, e)
	}

	return groups
}

// Dates returns the date of each group, in order.
func Dates(groups []DateGroup) []string {
	dates := make([]string, len(groups))
	for i, g := range groups {
		dates[i] = g.Date
	}
	return dates
}
