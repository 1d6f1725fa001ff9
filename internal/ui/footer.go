package ui

import (
	"image/color"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// FlashType categorizes a flash notice's severity
type FlashType int

const (
	FlashError FlashType = iota
	FlashWarning
	FlashInfo
	FlashSuccess
)

// DefaultFlashDuration is how long a flash notice stays visible
const DefaultFlashDuration = 5 * time.Second

// FlashMessage is a transient notice shown in the footer
type FlashMessage struct {
	Text      string
	Type      FlashType
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired reports whether the message has outlived its duration
func (m *FlashMessage) IsExpired() bool {
	return time.Since(m.CreatedAt) > m.Duration
}

// FlashTickMsg drives the flash auto-dismiss timer
type FlashTickMsg time.Time

// FlashTick returns a command that ticks the flash expiry check
func FlashTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return FlashTickMsg(t)
	})
}

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key  string
	Desc string
}

// Footer represents the bottom footer bar with keybindings and flash notices
type Footer struct {
	width        int
	bindings     []KeyBinding
	flashMessage *FlashMessage

	hasFocusedView bool // Whether any view holds focus
	sending        bool // Whether the focused view has a send in flight
	dropdownOpen   bool // Whether a suggestion dropdown is open
	submitOnEnter  bool // Whether plain Enter submits
}

// NewFooter creates a new footer
func NewFooter() *Footer {
	return &Footer{
		bindings: []KeyBinding{
			{Key: "ctrl+n", Desc: "new window"},
			{Key: "ctrl+o", Desc: "launcher"},
			{Key: "ctrl+b", Desc: "broadcast"},
			{Key: "tab", Desc: "next view"},
			{Key: "ctrl+v", Desc: "paste image"},
			{Key: "ctrl+c", Desc: "quit"},
		},
		submitOnEnter: true,
	}
}

// SetContext updates the footer's context for conditional bindings
func (f *Footer) SetContext(hasFocusedView, sending, dropdownOpen, submitOnEnter bool) {
	f.hasFocusedView = hasFocusedView
	f.sending = sending
	f.dropdownOpen = dropdownOpen
	f.submitOnEnter = submitOnEnter
}

// SetWidth sets the footer width
func (f *Footer) SetWidth(width int) {
	f.width = width
}

// SetBindings allows custom keybindings
func (f *Footer) SetBindings(bindings []KeyBinding) {
	f.bindings = bindings
}

// SetFlash shows a flash notice with the default duration
func (f *Footer) SetFlash(text string, flashType FlashType) {
	f.SetFlashWithDuration(text, flashType, DefaultFlashDuration)
}

// SetFlashWithDuration shows a flash notice with a custom duration
func (f *Footer) SetFlashWithDuration(text string, flashType FlashType, duration time.Duration) {
	f.flashMessage = &FlashMessage{
		Text:      text,
		Type:      flashType,
		CreatedAt: time.Now(),
		Duration:  duration,
	}
}

// HasFlash reports whether a flash notice is showing
func (f *Footer) HasFlash() bool {
	return f.flashMessage != nil
}

// ClearFlash removes the flash notice
func (f *Footer) ClearFlash() {
	f.flashMessage = nil
}

// ClearIfExpired clears the flash notice if it has expired.
// Returns true if a notice was cleared.
func (f *Footer) ClearIfExpired() bool {
	if f.flashMessage != nil && f.flashMessage.IsExpired() {
		f.flashMessage = nil
		return true
	}
	return false
}

// flashIcon returns the icon for a flash type
func flashIcon(t FlashType) (string, color.Color) {
	switch t {
	case FlashError:
		return "✕", ColorError
	case FlashWarning:
		return "⚠", ColorWarning
	case FlashSuccess:
		return "✓", ColorSuccess
	default:
		return "ℹ", ColorInfo
	}
}

// View renders the footer
func (f *Footer) View() string {
	// Flash notices replace the keybinding strip entirely
	if f.flashMessage != nil {
		icon, fg := flashIcon(f.flashMessage.Type)
		iconStyle := lipgloss.NewStyle().Foreground(fg).Bold(true)
		textStyle := lipgloss.NewStyle().Foreground(ColorText)
		content := iconStyle.Render(icon) + " " + textStyle.Render(f.flashMessage.Text)
		return FooterStyle.Width(f.width).Render(content)
	}

	var bindings []KeyBinding
	switch {
	case f.dropdownOpen:
		bindings = []KeyBinding{
			{Key: "↑/↓", Desc: "select"},
			{Key: "enter/tab", Desc: "apply"},
			{Key: "esc", Desc: "dismiss"},
		}
	case f.sending:
		bindings = []KeyBinding{
			{Key: "esc", Desc: "stop"},
			{Key: "tab", Desc: "next view"},
			{Key: "pgup/dn", Desc: "scroll"},
		}
	case f.hasFocusedView:
		submit := KeyBinding{Key: "enter", Desc: "send"}
		newline := KeyBinding{Key: "alt+enter", Desc: "newline"}
		if !f.submitOnEnter {
			submit = KeyBinding{Key: "alt+enter", Desc: "send"}
			newline = KeyBinding{Key: "enter", Desc: "newline"}
		}
		bindings = []KeyBinding{
			submit,
			newline,
			{Key: "ctrl+v", Desc: "paste image"},
			{Key: "tab", Desc: "next view"},
			{Key: "pgup/dn", Desc: "scroll"},
		}
	default:
		bindings = f.bindings
	}

	var parts []string
	for _, b := range bindings {
		key := FooterKeyStyle.Render(b.Key)
		desc := FooterDescStyle.Render(": " + b.Desc)
		parts = append(parts, key+desc)
	}

	content := strings.Join(parts, "  "+lipgloss.NewStyle().Foreground(ColorBorder).Render("|")+"  ")

	return FooterStyle.Width(f.width).Render(content)
}
