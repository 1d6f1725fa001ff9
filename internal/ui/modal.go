package ui

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	huh "charm.land/huh/v2"
	"charm.land/lipgloss/v2"

	"github.com/jshelley/sidechat/internal/config"
)

// ModalState is a discriminated union interface for modal-specific state.
// Each modal type implements this interface with its own state struct,
// ensuring type-safe access to modal-specific fields.
type ModalState interface {
	modalState() // marker method to restrict implementations
	Title() string
	Help() string
	Render() string
	Update(msg tea.Msg) (ModalState, tea.Cmd)
}

// Modal represents a popup dialog with type-safe state management.
// The State field is nil when no modal is visible.
type Modal struct {
	State ModalState
	error string
}

// NewModal creates a new modal
func NewModal() *Modal {
	return &Modal{}
}

// Show displays a modal with the given state
func (m *Modal) Show(state ModalState) {
	m.State = state
	m.error = ""
}

// Hide hides the modal
func (m *Modal) Hide() {
	m.State = nil
	m.error = ""
}

// IsVisible returns whether the modal is visible
func (m *Modal) IsVisible() bool {
	return m.State != nil
}

// SetError sets an error message
func (m *Modal) SetError(err string) {
	m.error = err
}

// GetError returns the current error message
func (m *Modal) GetError() string {
	return m.error
}

// Update handles messages by delegating to the current state
func (m *Modal) Update(msg tea.Msg) (*Modal, tea.Cmd) {
	if m.State == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.State, cmd = m.State.Update(msg)
	return m, cmd
}

// View renders the modal
func (m *Modal) View(screenWidth, screenHeight int) string {
	if m.State == nil {
		return ""
	}

	content := m.State.Render()

	if m.error != "" {
		content += "\n" + StatusErrorStyle.Render(m.error)
	}

	modal := ModalStyle.Render(content)

	return lipgloss.Place(
		screenWidth, screenHeight,
		lipgloss.Center, lipgloss.Center,
		modal,
	)
}

// =============================================================================
// InstancePickerState - State for the launcher's instance picker
// =============================================================================

// PickerEntry is one window in the instance picker.
type PickerEntry struct {
	ViewID string
	Name   string
	Detail string // e.g. message count or agent name
}

type InstancePickerState struct {
	Entries       []PickerEntry
	SelectedIndex int
}

func (*InstancePickerState) modalState() {}

func (s *InstancePickerState) Title() string { return "Chat Windows" }

func (s *InstancePickerState) Help() string {
	return "↑/↓ navigate  Enter: focus  x: close window  Esc: cancel"
}

func (s *InstancePickerState) Render() string {
	title := ModalTitleStyle.Render(s.Title())

	var list string
	for i, entry := range s.Entries {
		style := ListItemStyle
		prefix := "  "
		if i == s.SelectedIndex {
			style = ListSelectedStyle
			prefix = "> "
		}
		line := entry.Name
		if entry.Detail != "" {
			line += "  " + DropdownDetailStyle.Render(entry.Detail)
		}
		list += style.Render(prefix+line) + "\n"
	}

	help := ModalHelpStyle.Render(s.Help())

	return lipgloss.JoinVertical(lipgloss.Left, title, list, help)
}

func (s *InstancePickerState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case "up", "k":
			if s.SelectedIndex > 0 {
				s.SelectedIndex--
			}
		case "down", "j":
			if s.SelectedIndex < len(s.Entries)-1 {
				s.SelectedIndex++
			}
		}
	}
	return s, nil
}

// Selected returns the highlighted entry
func (s *InstancePickerState) Selected() (PickerEntry, bool) {
	if len(s.Entries) == 0 || s.SelectedIndex >= len(s.Entries) {
		return PickerEntry{}, false
	}
	return s.Entries[s.SelectedIndex], true
}

// RemoveSelected drops the highlighted entry and returns it. The caller
// closes the underlying window and dismisses the picker when one entry
// remains.
func (s *InstancePickerState) RemoveSelected() (PickerEntry, bool) {
	entry, ok := s.Selected()
	if !ok {
		return PickerEntry{}, false
	}
	s.Entries = append(s.Entries[:s.SelectedIndex], s.Entries[s.SelectedIndex+1:]...)
	if s.SelectedIndex >= len(s.Entries) && s.SelectedIndex > 0 {
		s.SelectedIndex--
	}
	return entry, true
}

// NewInstancePickerState creates a new InstancePickerState
func NewInstancePickerState(entries []PickerEntry) *InstancePickerState {
	return &InstancePickerState{Entries: entries}
}

// =============================================================================
// BroadcastState - State for the broadcast target picker
// =============================================================================

// BroadcastTarget is one candidate view for a draft broadcast.
type BroadcastTarget struct {
	ViewID   string
	Name     string
	Selected bool
}

type BroadcastState struct {
	Targets       []BroadcastTarget
	SelectedIndex int
}

func (*BroadcastState) modalState() {}

func (s *BroadcastState) Title() string { return "Broadcast Draft" }

func (s *BroadcastState) Help() string {
	return "↑/↓ navigate  Space: toggle  Enter: broadcast  Esc: cancel"
}

func (s *BroadcastState) Render() string {
	title := ModalTitleStyle.Render(s.Title())

	description := lipgloss.NewStyle().
		Foreground(ColorTextMuted).
		MarginBottom(1).
		Render("Copy the current draft to:")

	var list string
	for i, target := range s.Targets {
		style := ListItemStyle
		prefix := "  "
		if i == s.SelectedIndex {
			style = ListSelectedStyle
			prefix = "> "
		}
		checkbox := "[ ]"
		if target.Selected {
			checkbox = "[x]"
		}
		list += style.Render(prefix+checkbox+" "+target.Name) + "\n"
	}

	selected := 0
	for _, t := range s.Targets {
		if t.Selected {
			selected++
		}
	}
	count := lipgloss.NewStyle().
		Foreground(ColorSecondary).
		MarginTop(1).
		Render(fmt.Sprintf("%d window(s) selected", selected))

	help := ModalHelpStyle.Render(s.Help())

	return lipgloss.JoinVertical(lipgloss.Left, title, description, list, count, help)
}

func (s *BroadcastState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case "up", "k":
			if s.SelectedIndex > 0 {
				s.SelectedIndex--
			}
		case "down", "j":
			if s.SelectedIndex < len(s.Targets)-1 {
				s.SelectedIndex++
			}
		case "space":
			if s.SelectedIndex < len(s.Targets) {
				s.Targets[s.SelectedIndex].Selected = !s.Targets[s.SelectedIndex].Selected
			}
		}
	}
	return s, nil
}

// SelectedIDs returns the view IDs of the chosen targets
func (s *BroadcastState) SelectedIDs() []string {
	var ids []string
	for _, t := range s.Targets {
		if t.Selected {
			ids = append(ids, t.ViewID)
		}
	}
	return ids
}

// NewBroadcastState creates a new BroadcastState
func NewBroadcastState(targets []BroadcastTarget) *BroadcastState {
	return &BroadcastState{Targets: targets}
}

// =============================================================================
// OptionPickerState - State for single-choice pickers (agent, mode, model)
// =============================================================================

type OptionPickerState struct {
	title         string
	Options       []string
	SelectedIndex int
	CurrentIndex  int
}

func (*OptionPickerState) modalState() {}

func (s *OptionPickerState) Title() string { return s.title }

func (s *OptionPickerState) Help() string {
	return "↑/↓ to select, Enter to apply, Esc to cancel"
}

func (s *OptionPickerState) Render() string {
	title := ModalTitleStyle.Render(s.Title())

	var list string
	for i, opt := range s.Options {
		style := ListItemStyle
		prefix := "  "
		suffix := ""
		if i == s.SelectedIndex {
			style = ListSelectedStyle
			prefix = "> "
		}
		if i == s.CurrentIndex {
			suffix = " (current)"
		}
		list += style.Render(prefix+opt+suffix) + "\n"
	}

	help := ModalHelpStyle.Render(s.Help())

	return lipgloss.JoinVertical(lipgloss.Left, title, list, help)
}

func (s *OptionPickerState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case "up", "k":
			if s.SelectedIndex > 0 {
				s.SelectedIndex--
			}
		case "down", "j":
			if s.SelectedIndex < len(s.Options)-1 {
				s.SelectedIndex++
			}
		}
	}
	return s, nil
}

// Selected returns the highlighted option
func (s *OptionPickerState) Selected() (string, bool) {
	if len(s.Options) == 0 || s.SelectedIndex >= len(s.Options) {
		return "", false
	}
	return s.Options[s.SelectedIndex], true
}

// NewOptionPickerState creates a new OptionPickerState
func NewOptionPickerState(title string, options []string, currentIndex int) *OptionPickerState {
	if currentIndex < 0 || currentIndex >= len(options) {
		currentIndex = 0
	}
	return &OptionPickerState{
		title:         title,
		Options:       options,
		SelectedIndex: currentIndex,
		CurrentIndex:  currentIndex,
	}
}

// =============================================================================
// SettingsState - State for the Settings modal (huh form)
// =============================================================================

type SettingsState struct {
	form *huh.Form

	SubmitKey     string
	NotesDir      string
	Notifications bool
}

func (*SettingsState) modalState() {}

func (s *SettingsState) Title() string { return "Settings" }

func (s *SettingsState) Help() string {
	return "Tab: next field  Enter: save  Esc: cancel"
}

func (s *SettingsState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, s.form.View(), help)
}

func (s *SettingsState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	var cmd tea.Cmd
	s.form, cmd = huhFormUpdate(s.form, msg)
	return s, cmd
}

// NewSettingsState creates a new SettingsState pre-filled from config
func NewSettingsState(cfg *config.Config) *SettingsState {
	s := &SettingsState{
		SubmitKey:     cfg.GetSubmitKey(),
		NotesDir:      cfg.GetNotesDir(),
		Notifications: cfg.AreNotificationsEnabled(),
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Submit key").
				Options(
					huh.NewOption("Enter sends, Alt+Enter for newline", config.SubmitKeyEnter),
					huh.NewOption("Alt+Enter sends, Enter for newline", config.SubmitKeyModEnter),
				).
				Value(&s.SubmitKey),
			huh.NewInput().
				Title("Notes directory").
				Placeholder("~/notes").
				CharLimit(ModalInputCharLimit).
				Value(&s.NotesDir),
			huh.NewConfirm().
				Title("Reply notifications").
				Affirmative("On").
				Negative("Off").
				Value(&s.Notifications),
		),
	).WithTheme(ModalTheme()).
		WithShowHelp(false).
		WithWidth(ModalInputWidth)

	initHuhForm(s.form)
	return s
}

// =============================================================================
// ErrorOverlayState - State for the dismissible send-failure overlay
// =============================================================================

type ErrorOverlayState struct {
	Message string
	ViewID  string // view whose send failed, for draft restore bookkeeping
}

func (*ErrorOverlayState) modalState() {}

func (s *ErrorOverlayState) Title() string { return "Send Failed" }

func (s *ErrorOverlayState) Help() string {
	return "Press Enter or Esc to dismiss"
}

func (s *ErrorOverlayState) Render() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorError).
		MarginBottom(1).
		Render(s.Title())

	message := lipgloss.NewStyle().
		Foreground(ColorText).
		Width(ModalWidth - 6).
		Render(s.Message)

	note := lipgloss.NewStyle().
		Foreground(ColorTextMuted).
		Italic(true).
		MarginTop(1).
		Render("Your draft has been kept.")

	help := ModalHelpStyle.Render(s.Help())

	return lipgloss.JoinVertical(lipgloss.Left, title, message, note, help)
}

func (s *ErrorOverlayState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	return s, nil
}

// NewErrorOverlayState creates a new ErrorOverlayState
func NewErrorOverlayState(viewID, message string) *ErrorOverlayState {
	return &ErrorOverlayState{ViewID: viewID, Message: message}
}
