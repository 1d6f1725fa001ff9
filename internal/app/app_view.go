package app

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/jshelley/sidechat/internal/config"
	"github.com/jshelley/sidechat/internal/ui"
)

// View renders the app. This is the core Bubble Tea view function.
func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion

	if m.width == 0 || m.height == 0 {
		v.SetContent("Loading...")
		return v
	}

	v.SetContent(m.RenderToString())
	return v
}

// RenderToString renders the current view as a string.
// This is useful for demos and testing.
func (m *Model) RenderToString() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	m.updateFooterContext()

	header := m.header.View()
	footer := m.footer.View()

	dockedView := m.docked.Chat().View()

	var panels string
	if len(m.floating) == 0 {
		panels = dockedView
	} else {
		var windows []string
		for _, fv := range m.floating {
			if fv.IsCollapsed() {
				windows = append(windows, fv.Chat().CollapsedView())
			} else {
				windows = append(windows, fv.Chat().View())
			}
		}
		column := lipgloss.JoinVertical(lipgloss.Left, windows...)
		panels = lipgloss.JoinHorizontal(lipgloss.Top, dockedView, column)
	}

	body := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		panels,
		m.input.View(),
		footer,
	)

	// Overlay modal if visible
	if m.modal.IsVisible() {
		return m.modal.View(m.width, m.height)
	}

	return body
}

// updateFooterContext updates the footer with current context for conditional bindings
func (m *Model) updateFooterContext() {
	v := m.focusedView()
	hasFocused := v != nil
	sending := v != nil && v.sending
	submitOnEnter := m.config.GetSubmitKey() == config.SubmitKeyEnter
	m.footer.SetContext(hasFocused, sending, m.input.DropdownOpen(), submitOnEnter)
}

// updateSizes updates component sizes based on terminal dimensions
func (m *Model) updateSizes() {
	m.header.SetWidth(m.width)
	m.footer.SetWidth(m.width)
	m.input.SetWidth(m.width)

	contentHeight := m.height - ui.HeaderHeight - ui.FooterHeight - ui.InputTotalHeight
	if contentHeight < 3 {
		contentHeight = 3
	}

	if len(m.floating) == 0 {
		m.docked.Chat().SetSize(m.width, contentHeight)
		return
	}

	dockedWidth := m.width / 2
	floatWidth := m.width - dockedWidth
	m.docked.Chat().SetSize(dockedWidth, contentHeight)

	expanded := 0
	for _, fv := range m.floating {
		if !fv.IsCollapsed() {
			expanded++
		}
	}
	collapsed := len(m.floating) - expanded

	remaining := contentHeight - collapsed*collapsedBarHeight
	perWindow := contentHeight
	if expanded > 0 {
		perWindow = remaining / expanded
	}
	if perWindow < 4 {
		perWindow = 4
	}

	for _, fv := range m.floating {
		fv.Chat().SetSize(floatWidth, perWindow)
	}
}

// collapsedBarHeight is the height of a collapsed window's title bar.
const collapsedBarHeight = 3

// displayNameList returns "name, name 2, ..." for flash messages.
func (m *Model) displayNameList(ids []string) string {
	names := m.registry.DisplayNames()
	var parts []string
	for _, id := range ids {
		if n, ok := names[id]; ok {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, ", ")
}

// broadcastTargets lists every view except the focused one.
func (m *Model) broadcastTargets() []ui.BroadcastTarget {
	names := m.registry.DisplayNames()
	focused := m.registry.FocusedID()

	var targets []ui.BroadcastTarget
	for _, v := range m.registry.List() {
		if v.ViewID() == focused {
			continue
		}
		targets = append(targets, ui.BroadcastTarget{
			ViewID: v.ViewID(),
			Name:   names[v.ViewID()],
		})
	}
	return targets
}
