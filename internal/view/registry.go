package view

import (
	"fmt"
	"sync"

	"github.com/jshelley/sidechat/internal/errors"
	"github.com/jshelley/sidechat/internal/logger"
)

// Registry tracks every live view in the process and owns the focus
// invariant: at most one view is focused, and focus transfer always
// deactivates the previous holder before activating the next.
type Registry struct {
	mu      sync.RWMutex
	views   map[string]Container
	order   []string // registration order, drives display-name suffixes
	focused string   // view ID holding focus, empty when none
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string]Container)}
}

// Register adds a view. The view starts unfocused.
func (r *Registry) Register(v Container) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := v.ViewID()
	if id == "" {
		return errors.E(errors.Op("view.Register"), errors.KindInvalid, "view has empty ID")
	}
	if _, exists := r.views[id]; exists {
		return errors.ViewAlreadyRegistered(id)
	}

	r.views[id] = v
	r.order = append(r.order, id)
	logger.ComponentLogger("Registry").Debug("view registered", "viewID", id, "type", v.ViewType().String())
	return nil
}

// Unregister removes a view. If it held focus, no view is focused
// afterwards; focus is never auto-promoted.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.views[id]; !exists {
		return
	}
	delete(r.views, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.focused == id {
		r.focused = ""
	}
	logger.ComponentLogger("Registry").Debug("view unregistered", "viewID", id)
}

// SetFocus transfers focus to the given view. The previous holder is
// deactivated first, then the new one is activated and brought to front.
// Focusing the already-focused view still calls Focus so a collapsed view
// reopens.
func (r *Registry) SetFocus(id string) error {
	r.mu.Lock()
	target, exists := r.views[id]
	if !exists {
		r.mu.Unlock()
		return errors.ViewNotFound(id)
	}

	var previous Container
	if r.focused != "" && r.focused != id {
		previous = r.views[r.focused]
	}
	alreadyFocused := r.focused == id
	r.focused = id
	r.mu.Unlock()

	// Hooks run outside the lock; they may call back into the registry.
	if previous != nil {
		previous.OnDeactivate()
	}
	if !alreadyFocused {
		target.OnActivate()
	}
	target.Focus()
	return nil
}

// ClearFocus deactivates the focused view, leaving none focused.
func (r *Registry) ClearFocus() {
	r.mu.Lock()
	var holder Container
	if r.focused != "" {
		holder = r.views[r.focused]
		r.focused = ""
	}
	r.mu.Unlock()

	if holder != nil {
		holder.OnDeactivate()
	}
}

// FocusedID returns the ID of the focused view, or "" when none is.
func (r *Registry) FocusedID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.focused
}

// Get returns the view with the given ID.
func (r *Registry) Get(id string) (Container, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[id]
	return v, ok
}

// List returns the views in registration order. The slice is a snapshot.
func (r *Registry) List() []Container {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Container, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.views[id])
	}
	return out
}

// ListByType returns the views of one type in registration order.
func (r *Registry) ListByType(t Type) []Container {
	var out []Container
	for _, v := range r.List() {
		if v.ViewType() == t {
			out = append(out, v)
		}
	}
	return out
}

// Count returns the number of registered views.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}

// DisplayNames returns a disambiguated name for every view, keyed by view
// ID. Duplicate base names get a numeric suffix in first-seen registration
// order: the first "Chat" stays "Chat", the second becomes "Chat 2". Names
// are recomputed from scratch on every call, so closing a duplicate frees
// its suffix.
func (r *Registry) DisplayNames() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make(map[string]string, len(r.order))
	seen := make(map[string]int)
	for _, id := range r.order {
		base := r.views[id].DisplayName()
		seen[base]++
		if seen[base] == 1 {
			names[id] = base
		} else {
			names[id] = fmt.Sprintf("%s %d", base, seen[base])
		}
	}
	return names
}

// DisplayName returns the disambiguated name for one view.
func (r *Registry) DisplayName(id string) string {
	return r.DisplayNames()[id]
}

// Broadcast copies the source view's draft into each target view. Targets
// receive independent deep copies; editing one never affects another or the
// source. Unknown targets are reported, not skipped silently.
func (r *Registry) Broadcast(fromID string, toIDs ...string) error {
	r.mu.RLock()
	source, ok := r.views[fromID]
	r.mu.RUnlock()
	if !ok {
		return errors.ViewNotFound(fromID)
	}

	state := source.InputState()
	for _, id := range toIDs {
		if id == fromID {
			continue
		}
		r.mu.RLock()
		target, ok := r.views[id]
		r.mu.RUnlock()
		if !ok {
			return errors.ViewNotFound(id)
		}
		target.SetInputState(state.Clone())
	}
	logger.ComponentLogger("Registry").Debug("broadcast draft", "from", fromID, "targets", len(toIDs))
	return nil
}
