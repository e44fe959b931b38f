package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/learnx/internal/formatter"
	"github.com/desertthunder/learnx/internal/player"
)

var _ list.Item = slideItem{}

// slideItem wraps [player.Slide] to implement [list.Item].
type slideItem struct {
	number int
	slide  player.Slide
}

func (i slideItem) FilterValue() string { return i.slide.Title }
func (i slideItem) Title() string       { return fmt.Sprintf("%d. %s", i.number, i.slide.Title) }
func (i slideItem) Description() string {
	return formatter.Truncate(firstLine(formatter.HTMLToText(i.slide.Markup)), 60)
}

func slideItems(slides []player.Slide) []list.Item {
	items := make([]list.Item, len(slides))
	for i, s := range slides {
		items[i] = slideItem{number: i + 1, slide: s}
	}
	return items
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
