package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/songsaver/internal/tasks"
)

var (
	_ list.Item = resultItem{}
)

// resultItem wraps [tasks.TrackResult] to implement [list.Item].
type resultItem struct {
	result tasks.TrackResult
}

func (i resultItem) FilterValue() string { return i.result.Track.Title }

func (i resultItem) Title() string {
	mark := styles.ok.Render("✓")
	if !i.result.Outcome.OK {
		mark = styles.err.Render("✗")
	}
	return fmt.Sprintf("%s %02d. %s", mark, i.result.Index, i.result.Track.Title)
}

func (i resultItem) Description() string {
	if i.result.Outcome.OK {
		desc := i.result.Outcome.Path
		if i.result.Outcome.Track != nil && i.result.Outcome.Track.Lyrics {
			desc = fmt.Sprintf("%s • lyrics", desc)
		}
		return desc
	}
	if i.result.Outcome.Err != nil {
		return fmt.Sprintf("%s • %v", i.result.Outcome.Status, i.result.Outcome.Err)
	}
	return string(i.result.Outcome.Status)
}

func resultItems(results []tasks.TrackResult) []list.Item {
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = resultItem{result: r}
	}
	return items
}
