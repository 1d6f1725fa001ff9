package app

import (
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/jshelley/sidechat/internal/config"
	"github.com/jshelley/sidechat/internal/keys"
	"github.com/jshelley/sidechat/internal/logger"
	"github.com/jshelley/sidechat/internal/ui"
)

// handleModalKey routes keys while a modal is up. Enter and Escape are
// decided here; everything else goes to the modal state.
func (m *Model) handleModalKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch state := m.modal.State.(type) {
	case *ui.InstancePickerState:
		return m.handleInstancePickerKey(state, key, msg)

	case *ui.BroadcastState:
		return m.handleBroadcastKey(state, key, msg)

	case *ui.OptionPickerState:
		return m.handleOptionPickerKey(state, key, msg)

	case *ui.SettingsState:
		return m.handleSettingsKey(state, key, msg)

	case *ui.ErrorOverlayState:
		// Dismissible only; the typed draft was never touched.
		switch key {
		case keys.Enter, keys.Escape:
			m.modal.Hide()
			// The restored draft is back in the user's hands.
			m.input.SetRestoring(false)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.modal, cmd = m.modal.Update(msg)
	return m, cmd
}

func (m *Model) handleInstancePickerKey(state *ui.InstancePickerState, key string, msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch key {
	case keys.Enter:
		if entry, ok := state.Selected(); ok {
			m.modal.Hide()
			m.focusView(entry.ViewID)
		}
		return m, nil

	case "x", "d":
		entry, ok := state.RemoveSelected()
		if !ok {
			return m, nil
		}
		m.closeWindow(entry.ViewID)
		// With one window left there is nothing to pick; focus it directly.
		if len(state.Entries) <= 1 {
			m.modal.Hide()
			if len(state.Entries) == 1 {
				m.focusView(state.Entries[0].ViewID)
			}
		}
		return m, nil

	case keys.Escape:
		m.modal.Hide()
		return m, nil
	}

	var cmd tea.Cmd
	m.modal, cmd = m.modal.Update(msg)
	return m, cmd
}

func (m *Model) handleBroadcastKey(state *ui.BroadcastState, key string, msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch key {
	case keys.Enter:
		ids := state.SelectedIDs()
		m.modal.Hide()
		if len(ids) == 0 {
			return m, m.ShowFlashInfo("No windows selected")
		}

		// The focused view's live draft sits in the input surface; sync it
		// down before the registry reads it.
		focused := m.registry.FocusedID()
		if v := m.focusedView(); v != nil {
			v.SetInputState(m.input.State())
		}

		if err := m.registry.Broadcast(focused, ids...); err != nil {
			logger.Error("App: broadcast failed: %v", err)
			return m, m.ShowFlashError("Broadcast failed: " + err.Error())
		}
		return m, m.ShowFlashSuccess(fmt.Sprintf("Draft copied to %s", m.displayNameList(ids)))

	case keys.Escape:
		m.modal.Hide()
		return m, nil
	}

	var cmd tea.Cmd
	m.modal, cmd = m.modal.Update(msg)
	return m, cmd
}

func (m *Model) handleOptionPickerKey(state *ui.OptionPickerState, key string, msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch key {
	case keys.Enter:
		selected, ok := state.Selected()
		kind := m.picker
		m.picker = pickerNone
		m.modal.Hide()
		if !ok {
			return m, nil
		}
		switch kind {
		case pickerAgent:
			for _, a := range m.config.GetAgents() {
				if a.Name == selected {
					return m, m.applyAgent(a.ID)
				}
			}
		case pickerModel:
			return m, m.applyModel(selected)
		}
		return m, nil

	case keys.Escape:
		m.picker = pickerNone
		m.modal.Hide()
		return m, nil
	}

	var cmd tea.Cmd
	m.modal, cmd = m.modal.Update(msg)
	return m, cmd
}

func (m *Model) handleSettingsKey(state *ui.SettingsState, key string, msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch key {
	case keys.Enter:
		m.config.SetSubmitKey(state.SubmitKey)
		m.config.SetNotesDir(state.NotesDir)
		m.config.SetNotificationsEnabled(state.Notifications)
		if err := m.config.Save(); err != nil {
			m.modal.SetError("Could not save settings: " + err.Error())
			return m, nil
		}

		m.input.SetSubmitOnEnter(state.SubmitKey == config.SubmitKeyEnter)
		m.mention.SetNotesDir(state.NotesDir)
		m.modal.Hide()
		return m, m.ShowFlashSuccess("Settings saved")

	case keys.Escape:
		m.modal.Hide()
		return m, nil
	}

	var cmd tea.Cmd
	m.modal, cmd = m.modal.Update(msg)
	return m, cmd
}
