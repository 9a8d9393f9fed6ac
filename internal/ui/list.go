package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/madc0w/playlister/internal/models"
)

var (
	_ list.Item = trackItem{}
)

// trackItem wraps [models.TrackRequest] to implement [list.Item].
type trackItem struct {
	track models.TrackRequest
}

func (i trackItem) FilterValue() string { return i.track.Query() }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	if i.track.Year != nil {
		return fmt.Sprintf("%s • %d", i.track.Artist, *i.track.Year)
	}
	return i.track.Artist
}

func trackItems(tracks []models.TrackRequest) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}

// tracksFrom reads the (possibly edited) track list back out of l.
func tracksFrom(l list.Model) []models.TrackRequest {
	items := l.Items()
	tracks := make([]models.TrackRequest, 0, len(items))
	for _, it := range items {
		if ti, ok := it.(trackItem); ok {
			tracks = append(tracks, ti.track)
		}
	}
	return tracks
}
