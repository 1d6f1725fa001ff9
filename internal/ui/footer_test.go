package ui

import (
	"strings"
	"testing"
	"time"
)

func TestFooterSetFlash(t *testing.T) {
	f := NewFooter()
	f.SetWidth(80)

	if f.HasFlash() {
		t.Error("Expected no flash initially")
	}

	f.SetFlash("Something went wrong", FlashError)

	if !f.HasFlash() {
		t.Error("Expected flash after SetFlash")
	}
	if f.flashMessage.Text != "Something went wrong" {
		t.Errorf("Expected flash text preserved, got %q", f.flashMessage.Text)
	}
	if f.flashMessage.Type != FlashError {
		t.Errorf("Expected FlashError, got %v", f.flashMessage.Type)
	}
	if f.flashMessage.Duration != DefaultFlashDuration {
		t.Errorf("Expected default duration, got %v", f.flashMessage.Duration)
	}
}

func TestFooterFlashReplacesBindings(t *testing.T) {
	f := NewFooter()
	f.SetWidth(80)

	before := f.View()
	if !strings.Contains(before, "ctrl+n") {
		t.Error("Expected keybindings in footer before flash")
	}

	f.SetFlash("Image attached", FlashSuccess)
	after := f.View()

	if !strings.Contains(after, "Image attached") {
		t.Error("Expected flash text in footer view")
	}
	if strings.Contains(after, "ctrl+n") {
		t.Error("Expected flash to replace the keybinding strip")
	}
}

func TestFooterClearFlash(t *testing.T) {
	f := NewFooter()
	f.SetFlash("notice", FlashInfo)

	f.ClearFlash()

	if f.HasFlash() {
		t.Error("Expected no flash after ClearFlash")
	}
}

func TestFooterClearIfExpired(t *testing.T) {
	f := NewFooter()

	f.SetFlashWithDuration("short-lived", FlashWarning, 10*time.Millisecond)
	if f.ClearIfExpired() {
		t.Error("Expected fresh flash not to be cleared")
	}

	f.flashMessage.CreatedAt = time.Now().Add(-time.Second)
	if !f.ClearIfExpired() {
		t.Error("Expected expired flash to be cleared")
	}
	if f.HasFlash() {
		t.Error("Expected flash gone after expiry")
	}
}

func TestFooterClearIfExpiredNoFlash(t *testing.T) {
	f := NewFooter()
	if f.ClearIfExpired() {
		t.Error("Expected false with no flash set")
	}
}

func TestFooterDropdownBindings(t *testing.T) {
	f := NewFooter()
	f.SetWidth(80)
	f.SetContext(true, false, true, true)

	view := f.View()
	if !strings.Contains(view, "apply") {
		t.Error("Expected apply binding while dropdown is open")
	}
	if !strings.Contains(view, "dismiss") {
		t.Error("Expected dismiss binding while dropdown is open")
	}
}

func TestFooterSendingBindings(t *testing.T) {
	f := NewFooter()
	f.SetWidth(80)
	f.SetContext(true, true, false, true)

	view := f.View()
	if !strings.Contains(view, "stop") {
		t.Error("Expected stop binding while sending")
	}
}

func TestFooterSubmitPolicyBindings(t *testing.T) {
	f := NewFooter()
	f.SetWidth(80)

	f.SetContext(true, false, false, true)
	view := f.View()
	if !strings.Contains(view, "enter") || !strings.Contains(view, "send") {
		t.Error("Expected enter:send under the default policy")
	}

	f.SetContext(true, false, false, false)
	view = f.View()
	if !strings.Contains(view, "alt+enter") {
		t.Error("Expected alt+enter binding under the modifier policy")
	}
}

func TestFlashIcons(t *testing.T) {
	tests := []struct {
		flashType FlashType
		icon      string
	}{
		{FlashError, "✕"},
		{FlashWarning, "⚠"},
		{FlashSuccess, "✓"},
		{FlashInfo, "ℹ"},
	}

	for _, tt := range tests {
		icon, _ := flashIcon(tt.flashType)
		if icon != tt.icon {
			t.Errorf("flashIcon(%v) = %q, want %q", tt.flashType, icon, tt.icon)
		}
	}
}
