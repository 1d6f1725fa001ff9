package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Header represents the top bar: app name, the focused view's display name,
// and the active agent with its mode/model when there is a real choice.
type Header struct {
	width     int
	viewName  string
	agentName string
	modeName  string // empty when the mode menu has one option
	modelName string // empty when the model menu has one option
}

// NewHeader creates a new header
func NewHeader() *Header {
	return &Header{}
}

// SetWidth sets the header width
func (h *Header) SetWidth(width int) {
	h.width = width
}

// SetView sets the focused view's display name
func (h *Header) SetView(name string) {
	h.viewName = name
}

// SetAgent sets the active agent's name
func (h *Header) SetAgent(name string) {
	h.agentName = name
}

// SetOptions sets the mode/model labels. Pass empty strings for menus with a
// single option; those render nothing.
func (h *Header) SetOptions(mode, model string) {
	h.modeName = mode
	h.modelName = model
}

// View renders the header
func (h *Header) View() string {
	left := "Sidechat"
	if h.viewName != "" {
		left += " — " + h.viewName
	}

	var rightParts []string
	if h.agentName != "" {
		rightParts = append(rightParts, h.agentName)
	}
	if h.modeName != "" {
		rightParts = append(rightParts, h.modeName)
	}
	if h.modelName != "" {
		rightParts = append(rightParts, h.modelName)
	}
	right := strings.Join(rightParts, " · ")

	inner := h.width - 2 // header padding
	gap := inner - runewidth.StringWidth(left) - runewidth.StringWidth(right)
	if gap < 1 {
		left = runewidth.Truncate(left, inner-runewidth.StringWidth(right)-1, "…")
		gap = 1
	}

	content := left + strings.Repeat(" ", gap) + HeaderAgentStyle.Render(right)
	return HeaderStyle.Width(h.width).Render(content)
}
