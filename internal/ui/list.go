package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

var (
	_ list.Item = historyItem{}
)

// historyItem wraps a [models.Snapshot] seen during the session to implement [list.Item].
type historyItem struct {
	snapshot models.Snapshot
	seen     time.Time
}

func (i historyItem) FilterValue() string { return i.snapshot.TitleOr("") + " " + i.snapshot.Artist }
func (i historyItem) Title() string       { return i.snapshot.TitleOr(unknownTitle) }
func (i historyItem) Description() string {
	desc := i.seen.Format("15:04")
	if i.snapshot.Artist != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.snapshot.Artist)
	}
	if i.snapshot.TimeTotal > 0 {
		desc = fmt.Sprintf("%s • %s", desc, shared.FormatDuration(i.snapshot.TimeTotal))
	}
	return desc
}
