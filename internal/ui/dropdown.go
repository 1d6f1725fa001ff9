package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jshelley/sidechat/internal/suggest"
)

// Dropdown renders a suggestion list above the input surface. It holds no
// selection logic of its own; the active engine owns the items and index.
type Dropdown struct {
	width int
	items []suggest.Item
	index int
	open  bool
}

// NewDropdown creates a new dropdown
func NewDropdown() *Dropdown {
	return &Dropdown{}
}

// SetWidth sets the dropdown width
func (d *Dropdown) SetWidth(width int) {
	d.width = width
}

// Sync updates the dropdown from an engine result.
func (d *Dropdown) Sync(res suggest.Result) {
	d.open = res.Open
	d.items = res.Items
	d.index = res.Index
}

// Close hides the dropdown.
func (d *Dropdown) Close() {
	d.open = false
	d.items = nil
	d.index = -1
}

// IsOpen reports whether the dropdown is showing.
func (d *Dropdown) IsOpen() bool {
	return d.open
}

// View renders the dropdown. Returns "" when closed.
func (d *Dropdown) View() string {
	if !d.open || len(d.items) == 0 {
		return ""
	}

	// Window the list around the selection so long lists stay short.
	start := 0
	if d.index >= DropdownMaxItems {
		start = d.index - DropdownMaxItems + 1
	}
	end := start + DropdownMaxItems
	if end > len(d.items) {
		end = len(d.items)
	}

	innerWidth := d.width - BorderSize
	if innerWidth < 10 {
		innerWidth = 10
	}

	var rows []string
	for i := start; i < end; i++ {
		item := d.items[i]
		label := runewidth.Truncate(item.Label, innerWidth-2, "…")
		if item.Detail != "" {
			room := innerWidth - 2 - runewidth.StringWidth(label) - 2
			if room > 3 {
				label += "  " + DropdownDetailStyle.Render(runewidth.Truncate(item.Detail, room, "…"))
			}
		}

		style := DropdownItemStyle
		if i == d.index {
			style = DropdownSelectedStyle
		}
		// Width pads the row so the selection highlight spans it fully.
		rows = append(rows, style.Width(innerWidth).Render(label))
	}

	return DropdownStyle.Width(d.width).Render(strings.Join(rows, "\n"))
}
