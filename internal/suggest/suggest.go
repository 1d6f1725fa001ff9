// Package suggest provides the suggestion engines behind the input surface's
// dropdowns: slash commands and @-mentions. Engines own their candidate list
// and selection; the surface just forwards keystrokes and renders the result.
package suggest

import (
	"strings"
	"sync"
)

// Item is one suggestion row.
type Item struct {
	Label  string // shown in the dropdown
	Value  string // what gets inserted on apply
	Detail string // secondary text shown next to the label
	Hint   string // inline ghost text shown after apply, if any
}

// Result is a snapshot of an engine after a query.
type Result struct {
	Open  bool
	Items []Item
	Index int
	Seq   uint64 // sequence number of the triggering query, for async engines
}

// Engine produces suggestions for the text around the cursor. An engine is
// stateful: Query sets the candidate list and selection, MoveSelection and
// Close mutate them. Engines are driven from the single UI event loop and
// need no locking of their own.
type Engine interface {
	// Query recomputes suggestions for text with the cursor at byte offset
	// cursor. Open is false when the engine does not apply at this position.
	Query(text string, cursor int) Result

	// Apply inserts the item into text and returns the new text, the new
	// cursor offset, and an inline hint to ghost after the insertion
	// (empty when the item carries none).
	Apply(text string, cursor int, item Item) (newText string, newCursor int, hint string)

	// MoveSelection moves the highlighted index by delta. Whether movement
	// wraps or clamps is the engine's policy.
	MoveSelection(delta int) Result

	// Selected returns the currently highlighted item, if any.
	Selected() (Item, bool)

	// Close discards the candidate list. The text is never touched.
	Close()
}

// Sequencer hands out sequence numbers for async suggestion queries and
// filters out results that arrive after a newer one was already applied.
type Sequencer struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// Next returns the sequence number for a new query.
func (q *Sequencer) Next() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.issued++
	return q.issued
}

// Accept reports whether a result with the given sequence number is still
// fresh, and records it as the newest applied one when it is. Stale results
// return false and must be dropped.
func (q *Sequencer) Accept(seq uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if seq < q.applied {
		return false
	}
	q.applied = seq
	return true
}

// Invalidate marks every in-flight query stale without issuing a new one.
// Called when the text no longer warrants suggestions, so a result that is
// already on its way back cannot reopen the dropdown.
func (q *Sequencer) Invalidate() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.issued++
	q.applied = q.issued
}

// tokenAt returns the whitespace-delimited token containing the cursor and
// the byte offset where it starts. The cursor may sit at the end of the
// token (the usual case while typing).
func tokenAt(text string, cursor int) (token string, start int) {
	if cursor > len(text) {
		cursor = len(text)
	}
	start = cursor
	for start > 0 {
		r := text[start-1]
		if r == ' ' || r == '\n' || r == '\t' {
			break
		}
		start--
	}
	end := cursor
	for end < len(text) {
		r := text[end]
		if r == ' ' || r == '\n' || r == '\t' {
			break
		}
		end++
	}
	return text[start:end], start
}

// replaceToken swaps the token starting at start (running through cursor's
// token) with replacement and returns the new text and cursor position.
func replaceToken(text string, cursor int, replacement string) (string, int) {
	token, start := tokenAt(text, cursor)
	end := start + len(token)
	newText := text[:start] + replacement + text[end:]
	return newText, start + len(replacement)
}

func hasFold(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}
