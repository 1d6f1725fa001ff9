// Package view defines the container contract every chat view implements and
// the process-wide registry that tracks them. The registry is the only code
// that mutates focus; views just report and react.
package view

import (
	"context"

	"github.com/jshelley/sidechat/internal/draft"
)

// Type distinguishes the single docked panel from floating windows.
type Type int

const (
	Docked Type = iota
	Floating
)

func (t Type) String() string {
	switch t {
	case Docked:
		return "docked"
	case Floating:
		return "floating"
	default:
		return "unknown"
	}
}

// Container is the contract a chat view presents to the registry and the
// coordinator. Implementations must not panic from these methods; send and
// cancel report failure through their return value.
type Container interface {
	// ViewID returns the stable unique ID of this view.
	ViewID() string

	// ViewType reports whether the view is docked or floating.
	ViewType() Type

	// DisplayName returns the view's base name, before any disambiguation
	// suffix the registry may add.
	DisplayName() string

	// OnActivate is called by the registry when the view gains focus.
	OnActivate()

	// OnDeactivate is called by the registry when the view loses focus.
	OnDeactivate()

	// Focus brings the view to the front, un-collapsing it if needed.
	Focus()

	// HasFocus reports whether this view currently holds focus.
	HasFocus() bool

	// Expand opens the view's body.
	Expand()

	// Collapse shrinks the view to its title bar.
	Collapse()

	// InputState returns the view's current draft.
	InputState() draft.State

	// SetInputState replaces the view's draft. The caller passes a copy;
	// the view takes ownership.
	SetInputState(draft.State)

	// CanSend reports whether the view could submit right now.
	CanSend() bool

	// SendMessage submits the current draft. Returns an error instead of
	// panicking when the view cannot send.
	SendMessage(ctx context.Context) error

	// CancelOperation stops an in-flight send, best effort.
	CancelOperation(ctx context.Context) error
}
