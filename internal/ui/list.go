package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tubetune/internal/quality"
)

var (
	_ list.Item = qualityItem{}
)

// qualityItem wraps a quality label to implement [list.Item].
type qualityItem struct {
	label string
}

func (i qualityItem) FilterValue() string { return i.label }
func (i qualityItem) Title() string       { return i.label }
func (i qualityItem) Description() string {
	l := quality.LevelFor(i.label)
	return fmt.Sprintf("%s • rank %d", l, l.Rank())
}

// qualityItems lists every configurable label, highest resolution first.
func qualityItems() []list.Item {
	labels := quality.Labels()
	items := make([]list.Item, 0, len(labels))
	for i := len(labels) - 1; i >= 0; i-- {
		items = append(items, qualityItem{label: labels[i]})
	}
	return items
}
