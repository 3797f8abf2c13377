package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
)

var _ list.DefaultItem = trackItem{}

// trackItem wraps a merged [models.Track] to implement [list.DefaultItem].
type trackItem struct {
	position int
	track    models.Track
	from     string
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return fmt.Sprintf("%d. %s", i.position, i.track.Name) }
func (i trackItem) Description() string {
	desc := i.track.PrimaryArtist()
	if i.track.Album.Name != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album.Name)
	}
	return fmt.Sprintf("%s • %s • %s", desc, shared.FormatDuration(i.track.DurationMS), i.from)
}

// trackItems converts the merged list of s, labelling which participant each track came from.
func trackItems(s *models.Session) []list.Item {
	merged := s.Merged()
	items := make([]list.Item, len(merged))
	for i, track := range merged {
		from := "first"
		if i >= len(s.User1Tracks) {
			from = "second"
		}
		items[i] = trackItem{position: i + 1, track: track, from: from}
	}
	return items
}
