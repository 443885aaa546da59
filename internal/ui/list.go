package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/setsvm/novi/internal/models"
)

var _ list.Item = contentItem{}

// contentItem wraps [models.ContentItem] to implement [list.Item].
type contentItem struct {
	item models.ContentItem
}

func (i contentItem) FilterValue() string { return i.item.Title + " " + i.item.Subject }
func (i contentItem) Title() string       { return i.item.Title }
func (i contentItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.item.ContentType.Label(), i.item.Subject)
	if i.item.Grade != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.item.Grade)
	}
	return desc
}

// listItems converts content into [list.Item] values, preserving order.
func listItems(items models.ContentList) []list.Item {
	out := make([]list.Item, len(items))
	for i, item := range items {
		out[i] = contentItem{item: item}
	}
	return out
}
