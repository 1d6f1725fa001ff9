package app

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/jshelley/sidechat/internal/draft"
	"github.com/jshelley/sidechat/internal/logger"
	"github.com/jshelley/sidechat/internal/suggest"
	"github.com/jshelley/sidechat/internal/ui"
)

// slashCommandText reports whether the draft is a slash command and returns
// the trimmed command line.
func slashCommandText(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 || !strings.HasPrefix(trimmed, "/") {
		return "", false
	}
	return trimmed, true
}

// executeSlashCommand dispatches a submitted "/command [args]" line.
func (m *Model) executeSlashCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	args := fields[1:]

	logger.Debug("App: slash command /%s", name)

	switch name {
	case "clear":
		if v := m.focusedView(); v != nil {
			v.Chat().Clear()
		}
		return m, m.ShowFlashInfo("Conversation cleared")

	case "help":
		var names []string
		for _, c := range suggest.DefaultCommands() {
			names = append(names, "/"+c.Name)
		}
		return m, m.ShowFlashInfo("Commands: " + strings.Join(names, " "))

	case "settings":
		m.modal.Show(ui.NewSettingsState(m.config))
		return m, nil

	case "agent":
		return m.commandAgent(args)

	case "model":
		return m.commandModel(args)

	case "broadcast":
		return m.commandBroadcast(args)

	default:
		return m, m.ShowFlashWarning("Unknown command /" + name)
	}
}

func (m *Model) commandAgent(args []string) (tea.Model, tea.Cmd) {
	agents := m.config.GetAgents()

	if len(args) == 0 {
		if len(agents) < 2 {
			return m, m.ShowFlashInfo("Only one agent is configured")
		}
		var names []string
		current := 0
		active := m.config.ActiveAgent()
		for i, a := range agents {
			names = append(names, a.Name)
			if a.ID == active.ID {
				current = i
			}
		}
		m.picker = pickerAgent
		m.modal.Show(ui.NewOptionPickerState("Select Agent", names, current))
		return m, nil
	}

	want := strings.Join(args, " ")
	for _, a := range agents {
		if strings.EqualFold(a.Name, want) || strings.EqualFold(a.ID, want) {
			return m, m.applyAgent(a.ID)
		}
	}
	return m, m.ShowFlashWarning("No agent named " + want)
}

// applyAgent switches the active agent for the focused view. Staged images
// always reset on an agent switch; they were checked against the old agent.
func (m *Model) applyAgent(agentID string) tea.Cmd {
	if !m.config.SetActiveAgent(agentID) {
		return m.ShowFlashWarning("Unknown agent")
	}
	if err := m.config.Save(); err != nil {
		logger.Warn("App: failed to save config: %v", err)
	}

	agent := toHostAgent(m.config.ActiveAgent())
	hadImages := m.input.ImageCount() > 0
	m.input.ResetImages()
	m.input.SetSupportsImages(agent.SupportsImages)

	if v := m.focusedView(); v != nil {
		v.SetAgent(agent)
		m.header.SetAgent(agent.Name)
		m.updateHeaderOptions(v)
	}

	text := "Agent: " + agent.Name
	if hadImages {
		text += " (attachments cleared)"
	}
	return m.ShowFlashSuccess(text)
}

func (m *Model) commandModel(args []string) (tea.Model, tea.Cmd) {
	v := m.focusedView()
	set := m.modelOptions(v)

	if len(args) == 0 {
		if !set.Selectable() {
			return m, m.ShowFlashInfo("Only one model is available")
		}
		names := make([]string, len(set.Options))
		current := 0
		for i, opt := range set.Options {
			names[i] = opt.Name
			if opt.ID == set.Current {
				current = i
			}
		}
		m.picker = pickerModel
		m.modal.Show(ui.NewOptionPickerState("Select Model", names, current))
		return m, nil
	}

	want := strings.Join(args, " ")
	for _, opt := range set.Options {
		if strings.EqualFold(opt.Name, want) {
			return m, m.applyModel(opt.ID)
		}
	}
	return m, m.ShowFlashWarning("No model named " + want)
}

func (m *Model) applyModel(model string) tea.Cmd {
	v := m.focusedView()
	if v == nil {
		return nil
	}
	v.SetModel(model)
	m.updateHeaderOptions(v)
	return m.ShowFlashSuccess("Model: " + model)
}

// commandBroadcast copies text to another window's draft:
// "/broadcast <view> <text>". Without arguments the target picker opens for
// the next draft instead.
func (m *Model) commandBroadcast(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, m.ShowFlashInfo("Usage: /broadcast <window> <text>  (or ctrl+b for the picker)")
	}

	names := m.registry.DisplayNames()
	targetID := ""
	for id, name := range names {
		if strings.EqualFold(name, args[0]) {
			targetID = id
			break
		}
	}
	if targetID == "" {
		return m, m.ShowFlashWarning("No window named " + args[0])
	}
	if targetID == m.registry.FocusedID() {
		return m, m.ShowFlashWarning("Cannot broadcast to the current window")
	}

	text := strings.Join(args[1:], " ")
	if text == "" {
		return m, m.ShowFlashInfo("Nothing to broadcast")
	}

	target := m.viewByID(targetID)
	if target == nil {
		return m, m.ShowFlashWarning("No window named " + args[0])
	}
	target.SetInputState(draft.State{Text: text})
	return m, m.ShowFlashSuccess(fmt.Sprintf("Draft sent to %s", names[targetID]))
}
