package suggest

import (
	"os"
	"sort"
	"strings"
)

// MentionEngine suggests note names for "@" tokens, looking them up in a
// notes directory. Selection movement wraps around the list.
type MentionEngine struct {
	notesDir   string
	activeNote string // offered first on a bare "@", may be empty

	items []Item
	index int
	open  bool
}

// NewMentionEngine creates an engine over the given notes directory.
func NewMentionEngine(notesDir string) *MentionEngine {
	return &MentionEngine{notesDir: notesDir, index: -1}
}

// SetActiveNote sets the note offered first when the user types a bare "@".
func (e *MentionEngine) SetActiveNote(name string) {
	e.activeNote = name
}

// SetNotesDir points the engine at a different notes directory.
func (e *MentionEngine) SetNotesDir(dir string) {
	e.notesDir = dir
}

// Query opens the dropdown while the cursor sits inside an "@word" token.
func (e *MentionEngine) Query(text string, cursor int) Result {
	e.Install(e.Candidates(text, cursor))
	return e.result()
}

// Candidates computes the suggestion list without touching engine state, so
// it can run off the event loop. Feed the result back through Install.
func (e *MentionEngine) Candidates(text string, cursor int) Result {
	token, _ := tokenAt(text, cursor)
	if !strings.HasPrefix(token, "@") {
		return Result{Index: -1}
	}

	prefix := strings.TrimPrefix(token, "@")
	names := e.lookup(prefix)

	var items []Item
	// The active note leads on a bare "@" so one keystroke plus Enter
	// mentions the note the user is most likely talking about.
	if prefix == "" && e.activeNote != "" {
		items = append(items, Item{
			Label:  "@" + e.activeNote,
			Value:  "@" + e.activeNote + " ",
			Detail: "active note",
		})
	}
	for _, name := range names {
		if name == e.activeNote && prefix == "" {
			continue
		}
		items = append(items, Item{
			Label: "@" + name,
			Value: "@" + name + " ",
		})
	}
	res := Result{Open: len(items) > 0, Items: items, Index: -1}
	if res.Open {
		res.Index = 0
	}
	return res
}

// Install adopts a previously computed candidate list as the live state.
func (e *MentionEngine) Install(res Result) {
	e.open = res.Open
	e.items = res.Items
	e.index = res.Index
}

// lookup returns note names under notesDir matching the prefix,
// case-insensitively, sorted. Extensions are stripped; hidden files are
// skipped.
func (e *MentionEngine) lookup(prefix string) []string {
	if e.notesDir == "" {
		return nil
	}
	entries, err := os.ReadDir(e.notesDir)
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if i := strings.LastIndexByte(name, '.'); i > 0 {
			name = name[:i]
		}
		if hasFold(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Apply replaces the "@" token with the item's value. Mentions carry no
// inline hint.
func (e *MentionEngine) Apply(text string, cursor int, item Item) (string, int, string) {
	newText, newCursor := replaceToken(text, cursor, item.Value)
	e.Close()
	return newText, newCursor, ""
}

// MoveSelection wraps around the ends.
func (e *MentionEngine) MoveSelection(delta int) Result {
	if !e.open || len(e.items) == 0 {
		return e.result()
	}
	n := len(e.items)
	e.index = ((e.index+delta)%n + n) % n
	return e.result()
}

// Selected returns the highlighted item.
func (e *MentionEngine) Selected() (Item, bool) {
	if !e.open || e.index < 0 || e.index >= len(e.items) {
		return Item{}, false
	}
	return e.items[e.index], true
}

// Close discards the candidates without touching any text.
func (e *MentionEngine) Close() {
	e.open = false
	e.items = nil
	e.index = -1
}

func (e *MentionEngine) result() Result {
	return Result{Open: e.open, Items: e.items, Index: e.index}
}
