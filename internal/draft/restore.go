package draft

import "sync"

// Stash keeps restorable drafts keyed by view ID. When a send fails after
// the input was cleared, the cleared text is stashed here so the view can
// offer it back. A stashed draft is consumed by the first Take.
type Stash struct {
	mu sync.Mutex
	m  map[string]string
}

// NewStash creates an empty stash.
func NewStash() *Stash {
	return &Stash{m: make(map[string]string)}
}

// Save records text as restorable for a view. Empty text is not stashed.
func (st *Stash) Save(viewID, text string) {
	if text == "" {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.m[viewID] = text
}

// Take returns the stashed draft for a view and removes it. The second
// return is false when nothing was stashed.
func (st *Stash) Take(viewID string) (string, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	text, ok := st.m[viewID]
	if ok {
		delete(st.m, viewID)
	}
	return text, ok
}

// Peek reports whether a restorable draft exists without consuming it.
func (st *Stash) Peek(viewID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.m[viewID]
	return ok
}

// Drop discards any stashed draft for a view, e.g. when the view closes.
func (st *Stash) Drop(viewID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.m, viewID)
}
