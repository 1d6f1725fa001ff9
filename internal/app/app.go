package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/jshelley/sidechat/internal/clipboard"
	"github.com/jshelley/sidechat/internal/config"
	"github.com/jshelley/sidechat/internal/draft"
	"github.com/jshelley/sidechat/internal/host"
	"github.com/jshelley/sidechat/internal/logger"
	"github.com/jshelley/sidechat/internal/suggest"
	"github.com/jshelley/sidechat/internal/ui"
	"github.com/jshelley/sidechat/internal/view"
)

// hostReplyMsg is sent when a host round trip finishes.
type hostReplyMsg struct {
	ViewID string
	Reply  string
	Err    error
}

// hostDeltaMsg delivers one streamed chunk of an in-flight reply. The
// channels ride along so the await command can re-arm itself.
type hostDeltaMsg struct {
	ViewID string
	Delta  string

	deltas <-chan string
	done   <-chan hostReplyMsg
}

// clipboardImageMsg delivers the result of a clipboard image read.
type clipboardImageMsg struct {
	Image *clipboard.ImageData
	Err   error
}

// pickerKind names which single-choice picker is showing.
type pickerKind int

const (
	pickerNone pickerKind = iota
	pickerAgent
	pickerModel
)

// Model is the main Bubble Tea model: it owns the registry, the docked
// panel, the floating windows, and the single input surface bound to
// whichever view holds focus.
type Model struct {
	config  *config.Config
	version string

	header *ui.Header
	footer *ui.Footer
	input  *ui.Input
	modal  *ui.Modal

	registry  *view.Registry
	responder host.Responder
	stash     *draft.Stash
	mention   *suggest.MentionEngine

	docked   *ChatView
	floating []*ChatView

	width  int
	height int

	picker pickerKind

	// last submitted draft per view, for restore on send failure
	pendingSends map[string]draft.State
}

// New creates the app model with the docked panel registered and focused.
func New(cfg *config.Config, version string) *Model {
	mention := suggest.NewMentionEngine(cfg.GetNotesDir())
	slash := suggest.NewSlashEngine(suggest.DefaultCommands())

	agent := toHostAgent(cfg.ActiveAgent())

	m := &Model{
		config:       cfg,
		version:      version,
		header:       ui.NewHeader(),
		footer:       ui.NewFooter(),
		input:        ui.NewInput(slash, mention),
		modal:        ui.NewModal(),
		registry:     view.NewRegistry(),
		responder:    host.NewOpenAIResponder(cfg.GetAPIKey(), cfg.GetHostURL()),
		stash:        draft.NewStash(),
		mention:      mention,
		pendingSends: make(map[string]draft.State),
	}

	m.docked = NewChatView(view.Docked, "Chat", agent, m.responder)
	if err := m.registry.Register(m.docked); err != nil {
		logger.Error("App: failed to register docked view: %v", err)
	}

	m.input.SetSubmitOnEnter(cfg.GetSubmitKey() == config.SubmitKeyEnter)
	m.input.SetSupportsImages(agent.SupportsImages)
	m.focusView(m.docked.ViewID())

	return m
}

func toHostAgent(a config.Agent) host.Agent {
	return host.Agent{ID: a.ID, Name: a.Name, Model: a.Model, SupportsImages: a.SupportsImages}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	if err := clipboard.Init(); err != nil {
		logger.Warn("App: clipboard unavailable: %v", err)
	}
	return nil
}

// focusedView returns the view holding focus, nil when none does.
func (m *Model) focusedView() *ChatView {
	id := m.registry.FocusedID()
	if id == "" {
		return nil
	}
	return m.viewByID(id)
}

func (m *Model) viewByID(id string) *ChatView {
	if m.docked != nil && m.docked.ViewID() == id {
		return m.docked
	}
	for _, v := range m.floating {
		if v.ViewID() == id {
			return v
		}
	}
	return nil
}

// focusView transfers focus and rebinds the input surface: the old view
// keeps its draft, the new view's draft (or stashed restore) loads in.
func (m *Model) focusView(id string) {
	if prev := m.focusedView(); prev != nil && prev.ViewID() != id {
		prev.SetInputState(m.input.State())
	}

	if err := m.registry.SetFocus(id); err != nil {
		logger.Error("App: focus failed: %v", err)
		return
	}

	v := m.viewByID(id)
	if v == nil {
		return
	}

	m.input.SetState(v.InputState())
	m.input.SetSessionReady(true)
	m.input.SetSending(v.sending)
	m.input.SetSupportsImages(v.Agent().SupportsImages)
	m.input.SetFocused(true)

	// A stashed draft only fills an empty field, and only once.
	if m.stash.Peek(id) {
		if text, ok := m.stash.Take(id); ok && !m.input.RestoreText(text) {
			// Field already has text; keep the stash for later.
			m.stash.Save(id, text)
		}
	}

	m.header.SetView(m.registry.DisplayName(id))
	m.header.SetAgent(v.Agent().Name)
	m.updateHeaderOptions(v)
}

// updateHeaderOptions shows the model label only when there is a real choice.
func (m *Model) updateHeaderOptions(v *ChatView) {
	modelLabel := ""
	set := m.modelOptions(v)
	if set.Selectable() {
		modelLabel = v.Agent().Model
		if cur, ok := set.Selected(); ok {
			modelLabel = cur.Name
		}
	}
	m.header.SetOptions("", modelLabel)
}

// modelOptions collects the distinct models across configured agents, with
// the view's current model selected.
func (m *Model) modelOptions(v *ChatView) host.OptionSet {
	seen := make(map[string]bool)
	set := host.OptionSet{}
	for _, a := range m.config.GetAgents() {
		if a.Model != "" && !seen[a.Model] {
			seen[a.Model] = true
			set.Options = append(set.Options, host.Option{ID: a.Model, Name: a.Model})
		}
	}
	if v != nil {
		set.Select(v.Agent().Model)
	}
	return set
}

// nextViewID returns the view after the focused one in registration order.
func (m *Model) nextViewID() string {
	views := m.registry.List()
	if len(views) == 0 {
		return ""
	}
	focused := m.registry.FocusedID()
	for i, v := range views {
		if v.ViewID() == focused {
			return views[(i+1)%len(views)].ViewID()
		}
	}
	return views[0].ViewID()
}

// newFloatingWindow creates, registers, and focuses a floating window.
func (m *Model) newFloatingWindow() {
	agent := toHostAgent(m.config.ActiveAgent())
	v := NewChatView(view.Floating, "Chat", agent, m.responder)
	if err := m.registry.Register(v); err != nil {
		logger.Error("App: failed to register window: %v", err)
		return
	}
	m.floating = append(m.floating, v)
	m.updateSizes()
	m.focusView(v.ViewID())
}

// closeWindow unregisters a floating window. A non-empty draft is stashed
// so reopening can restore it. The docked panel cannot be closed.
func (m *Model) closeWindow(id string) {
	v := m.viewByID(id)
	if v == nil || v.ViewType() != view.Floating {
		return
	}

	state := v.InputState()
	if id == m.registry.FocusedID() {
		state = m.input.State()
	}
	if text := state.Text; text != "" {
		m.stash.Save(id, text)
	}

	m.registry.Unregister(id)
	for i, fv := range m.floating {
		if fv.ViewID() == id {
			m.floating = append(m.floating[:i], m.floating[i+1:]...)
			break
		}
	}
	m.updateSizes()

	// Closing the focused window hands focus back to the docked panel.
	if m.registry.FocusedID() == "" && m.docked != nil {
		m.focusView(m.docked.ViewID())
	}
}

// openLauncher implements the floating launcher: no windows creates one,
// one window focuses it (reopening it when collapsed), several open the
// instance picker.
func (m *Model) openLauncher() {
	switch len(m.floating) {
	case 0:
		m.newFloatingWindow()
	case 1:
		m.focusView(m.floating[0].ViewID())
	default:
		names := m.registry.DisplayNames()
		var entries []ui.PickerEntry
		for _, v := range m.floating {
			entries = append(entries, ui.PickerEntry{
				ViewID: v.ViewID(),
				Name:   names[v.ViewID()],
				Detail: v.Agent().Name,
			})
		}
		m.modal.Show(ui.NewInstancePickerState(entries))
	}
}
