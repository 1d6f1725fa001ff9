package app

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/jshelley/sidechat/internal/errors"
	"github.com/jshelley/sidechat/internal/host"
	"github.com/jshelley/sidechat/internal/keys"
	"github.com/jshelley/sidechat/internal/logger"
	"github.com/jshelley/sidechat/internal/ui"
	"github.com/jshelley/sidechat/internal/view"
)

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()
		return m, nil

	case ui.FlashTickMsg:
		if m.footer.ClearIfExpired() {
			return m, nil
		}
		if m.footer.HasFlash() {
			return m, ui.FlashTick()
		}
		return m, nil

	case ui.StopwatchTickMsg:
		// One shared tick drives every waiting transcript.
		anyWaiting := false
		for _, v := range m.allViews() {
			if v.Chat().IsWaiting() {
				v.Chat().Update(msg)
				anyWaiting = true
			}
		}
		if anyWaiting {
			return m, ui.StopwatchTick()
		}
		return m, nil

	case ui.SubmitMsg:
		return m.handleSubmit()

	case ui.CancelMsg:
		return m.handleCancel()

	case ui.PasteImageMsg:
		return m, readClipboardImage()

	case clipboardImageMsg:
		return m.handleClipboardImage(msg)

	case ui.NoticeMsg:
		return m, m.ShowFlash(msg.Text, msg.Type)

	case hostReplyMsg:
		return m.handleHostReply(msg)

	case hostDeltaMsg:
		return m.handleHostDelta(msg)

	case ui.MentionResultMsg, ui.AttachFilesMsg:
		if m.modal.IsVisible() {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case tea.PasteMsg:
		if m.modal.IsVisible() {
			var cmd tea.Cmd
			m.modal, cmd = m.modal.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case tea.MouseClickMsg:
		// The launcher picker is transient: a click anywhere outside its
		// keyboard flow dismisses it. There is no hit-testing, so any
		// press counts as outside.
		if m.modal.IsVisible() {
			if _, ok := m.modal.State.(*ui.InstancePickerState); ok {
				m.modal.Hide()
			}
			return m, nil
		}

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	// Everything else (mouse, blur, custom component ticks) reaches the
	// focused transcript for scrolling.
	if v := m.focusedView(); v != nil && !m.modal.IsVisible() {
		_, cmd := v.Chat().Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) allViews() []*ChatView {
	views := make([]*ChatView, 0, 1+len(m.floating))
	if m.docked != nil {
		views = append(views, m.docked)
	}
	views = append(views, m.floating...)
	return views
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == keys.CtrlC {
		return m, tea.Quit
	}

	if m.modal.IsVisible() {
		return m.handleModalKey(msg)
	}

	// An open dropdown owns navigation, apply, and escape.
	if m.input.DropdownOpen() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key {
	case keys.CtrlN:
		m.newFloatingWindow()
		return m, nil

	case keys.CtrlO:
		m.openLauncher()
		return m, nil

	case keys.CtrlB:
		return m.openBroadcastModal()

	case keys.CtrlX:
		if v := m.focusedView(); v != nil {
			if v.IsCollapsed() {
				v.Expand()
			} else if v.ViewType() == view.Floating { // docked panel never collapses
				v.Collapse()
			}
			m.updateSizes()
		}
		return m, nil

	case keys.CtrlG:
		return m.copyTranscript()

	case keys.Tab:
		if next := m.nextViewID(); next != "" {
			m.focusView(next)
		}
		return m, nil

	case keys.Escape:
		if v := m.focusedView(); v != nil && v.sending {
			return m.handleCancel()
		}
		return m, nil

	case keys.PgUp, keys.PgDown, keys.CtrlUp, keys.CtrlDown:
		if v := m.focusedView(); v != nil {
			_, cmd := v.Chat().Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit runs on the input surface's submit request. Slash commands
// execute locally; everything else goes to the host. The input clears
// synchronously before the async send starts.
func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	v := m.focusedView()
	if v == nil {
		return m, nil
	}

	state := m.input.State()
	if cmdText, ok := slashCommandText(state.Text); ok {
		m.input.Clear()
		return m.executeSlashCommand(cmdText)
	}

	if !m.input.CanSend() {
		return m, nil
	}

	m.pendingSends[v.ViewID()] = state.Clone()
	m.input.Clear()

	v.SetInputState(state)
	out := v.outgoingMessage()
	v.SetInputState(m.input.State()) // draft is consumed by the send

	v.Chat().AddUserMessage(state.Text)
	v.Chat().SetWaiting(true)
	v.sending = true
	m.input.SetSending(true)

	logger.Info("App: sending message from view %s (%d images)", v.ViewID(), len(out.Images))
	return m, tea.Batch(m.sendCmd(v, out), ui.StopwatchTick())
}

func (m *Model) sendCmd(v *ChatView, out host.Message) tea.Cmd {
	agent := v.Agent()

	// Streaming responders feed the transcript as tokens arrive; the rest
	// block for the whole reply.
	if s, ok := m.responder.(host.Streamer); ok {
		deltas := make(chan string, 16)
		done := make(chan hostReplyMsg, 1)
		go func() {
			reply, err := s.SendStream(context.Background(), agent, out, deltas)
			done <- hostReplyMsg{ViewID: out.ViewID, Reply: reply, Err: err}
		}()
		return awaitStream(out.ViewID, deltas, done)
	}

	responder := m.responder
	return func() tea.Msg {
		reply, err := responder.Send(context.Background(), agent, out)
		return hostReplyMsg{ViewID: out.ViewID, Reply: reply, Err: err}
	}
}

// awaitStream blocks for the next streamed chunk. The deltas channel is
// closed before the final result is sent, so reading it first never loses a
// trailing chunk.
func awaitStream(viewID string, deltas <-chan string, done <-chan hostReplyMsg) tea.Cmd {
	return func() tea.Msg {
		delta, ok := <-deltas
		if !ok {
			return <-done
		}
		return hostDeltaMsg{ViewID: viewID, Delta: delta, deltas: deltas, done: done}
	}
}

// handleHostDelta appends one streamed chunk and re-arms the await command.
func (m *Model) handleHostDelta(msg hostDeltaMsg) (tea.Model, tea.Cmd) {
	next := awaitStream(msg.ViewID, msg.deltas, msg.done)
	v := m.viewByID(msg.ViewID)
	if v == nil {
		// View closed mid-stream; keep draining so the final result lands.
		return m, next
	}
	if !v.Chat().IsStreaming() {
		v.Chat().SetWaiting(false)
	}
	v.Chat().AppendStreaming(msg.Delta)
	return m, next
}

func (m *Model) handleCancel() (tea.Model, tea.Cmd) {
	v := m.focusedView()
	if v == nil || !v.sending {
		return m, nil
	}
	return m, func() tea.Msg {
		if err := v.CancelOperation(context.Background()); err != nil {
			logger.Warn("App: cancel failed: %v", err)
		}
		return nil
	}
}

// handleHostReply lands the async send result: fold the reply in, or
// restore the draft and surface the failure.
func (m *Model) handleHostReply(msg hostReplyMsg) (tea.Model, tea.Cmd) {
	v := m.viewByID(msg.ViewID)
	pending := m.pendingSends[msg.ViewID]
	delete(m.pendingSends, msg.ViewID)

	if v == nil {
		return m, nil
	}

	v.sending = false
	v.Chat().SetWaiting(false)
	focused := m.registry.FocusedID() == msg.ViewID
	if focused {
		m.input.SetSending(false)
	}

	if msg.Err != nil {
		// Keep whatever streamed in before the failure.
		v.Chat().FinishStreaming()
		m.restoreDraft(msg.ViewID, focused, pending.Text)

		if errors.Is(msg.Err, errors.KindCanceled) {
			return m, m.ShowFlashInfo("Stopped")
		}

		logger.Error("App: send failed for view %s: %v", msg.ViewID, msg.Err)
		if focused {
			m.input.SetRestoring(true)
		}
		m.modal.Show(ui.NewErrorOverlayState(msg.ViewID, sendFailureText(msg.Err, m.registry.DisplayName(msg.ViewID))))
		return m, nil
	}

	if v.Chat().IsStreaming() {
		// The reply already streamed into the transcript; fold the tail.
		v.Chat().FinishStreaming()
	} else {
		v.Chat().AddAssistantMessage(msg.Reply)
	}

	if !focused && m.config.AreNotificationsEnabled() {
		name := m.registry.DisplayName(msg.ViewID)
		return m, notifyReplyCmd(name)
	}
	return m, nil
}

// restoreDraft puts failed-send text back: straight into the input when the
// view is focused and the field is still empty, otherwise into the stash.
func (m *Model) restoreDraft(viewID string, focused bool, text string) {
	if text == "" {
		return
	}
	if focused && m.input.RestoreText(text) {
		return
	}
	m.stash.Save(viewID, text)
}

func (m *Model) openBroadcastModal() (tea.Model, tea.Cmd) {
	targets := m.broadcastTargets()
	if len(targets) == 0 {
		return m, m.ShowFlashInfo("No other windows to broadcast to")
	}
	m.modal.Show(ui.NewBroadcastState(targets))
	return m, nil
}
