package host

import (
	"github.com/gen2brain/beeep"

	"github.com/jshelley/sidechat/internal/logger"
)

// Notify sends a desktop notification with the given title and message.
// Used when a reply lands in a view that does not hold focus.
func Notify(title, message string) error {
	logger.Debug("Notification: title=%q message=%q", title, message)
	// Empty icon path; beeep picks platform defaults
	err := beeep.Notify(title, message, "")
	if err != nil {
		logger.Debug("Notification: failed: %v", err)
	}
	return err
}

// ReplyReady notifies that a view received a reply while unfocused.
func ReplyReady(viewName string) error {
	return Notify("Sidechat", viewName+" has a reply")
}
