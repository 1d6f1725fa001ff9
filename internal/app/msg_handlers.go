package app

import (
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/jshelley/sidechat/internal/clipboard"
	"github.com/jshelley/sidechat/internal/draft"
	"github.com/jshelley/sidechat/internal/errors"
	"github.com/jshelley/sidechat/internal/host"
	"github.com/jshelley/sidechat/internal/logger"
)

// readClipboardImage reads the clipboard off the event loop.
func readClipboardImage() tea.Cmd {
	return func() tea.Msg {
		img, err := clipboard.ReadImage()
		return clipboardImageMsg{Image: img, Err: err}
	}
}

// handleClipboardImage validates the pasted image and stages it on the
// focused view's draft through the usual attachment checks.
func (m *Model) handleClipboardImage(msg clipboardImageMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logger.Debug("App: clipboard read failed: %v", msg.Err)
		return m, m.ShowFlashWarning("No image on the clipboard")
	}
	img := msg.Image

	if err := img.Validate(); err != nil {
		return m, m.ShowFlashWarning(err.Error())
	}

	file := draft.File{
		Name:     fmt.Sprintf("clipboard-%dx%d.png", img.Width, img.Height),
		MimeType: img.MediaType,
		Data:     img.Data,
	}
	cmd := m.input.Ingest([]draft.File{file})
	if n := m.input.ImageCount(); n > 0 {
		return m, tea.Batch(cmd, m.ShowFlashSuccess(fmt.Sprintf("Image attached (%d KB)", img.SizeKB())))
	}
	return m, cmd
}

// copyTranscript puts the focused view's transcript on the clipboard as
// plain text.
func (m *Model) copyTranscript() (tea.Model, tea.Cmd) {
	v := m.focusedView()
	if v == nil || len(v.Chat().Messages()) == 0 {
		return m, m.ShowFlashInfo("Nothing to copy")
	}
	if err := clipboard.WriteText(v.Chat().PlainTranscript()); err != nil {
		logger.Debug("App: clipboard write failed: %v", err)
		return m, m.ShowFlashWarning("Clipboard unavailable")
	}
	return m, m.ShowFlashSuccess("Transcript copied")
}

// notifyReplyCmd fires a desktop notification for an unfocused view's reply.
func notifyReplyCmd(viewName string) tea.Cmd {
	return func() tea.Msg {
		if err := host.ReplyReady(viewName); err != nil {
			logger.Debug("App: notification failed: %v", err)
		}
		return nil
	}
}

// sendFailureText turns a host error into overlay copy.
func sendFailureText(err error, viewName string) string {
	switch errors.GetKind(err) {
	case errors.KindNetwork:
		return fmt.Sprintf("Could not reach the assistant host for %s. Check your connection and try again.", viewName)
	case errors.KindTimeout:
		return fmt.Sprintf("The assistant host timed out answering %s.", viewName)
	default:
		return fmt.Sprintf("Sending from %s failed: %v", viewName, err)
	}
}
