package suggest

import (
	"sort"
	"strings"
)

// Command defines a slash command offered by the input surface.
type Command struct {
	Name        string
	Description string
	Hint        string // argument placeholder ghosted after the command
}

// DefaultCommands returns the built-in slash command set.
// Using a function instead of a var avoids initialization cycles.
func DefaultCommands() []Command {
	return []Command{
		{Name: "agent", Description: "Switch the active agent", Hint: "name"},
		{Name: "broadcast", Description: "Copy this draft to another view", Hint: "view"},
		{Name: "clear", Description: "Clear the conversation"},
		{Name: "help", Description: "Show available slash commands"},
		{Name: "model", Description: "Switch the response model", Hint: "name"},
		{Name: "settings", Description: "Open settings"},
	}
}

// SlashEngine suggests slash commands when the draft starts with "/".
// Selection movement clamps at the list ends.
type SlashEngine struct {
	commands []Command
	items    []Item
	index    int
	open     bool
}

// NewSlashEngine creates an engine over the given command set.
func NewSlashEngine(commands []Command) *SlashEngine {
	sorted := make([]Command, len(commands))
	copy(sorted, commands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &SlashEngine{commands: sorted, index: -1}
}

// Query opens the dropdown while the cursor sits inside a leading "/word"
// token. Anywhere else the engine stays closed.
func (e *SlashEngine) Query(text string, cursor int) Result {
	token, start := tokenAt(text, cursor)
	if start != 0 || !strings.HasPrefix(token, "/") {
		e.Close()
		return e.result()
	}
	// Once an argument is being typed the command is settled.
	if cursor > len(token) {
		e.Close()
		return e.result()
	}

	prefix := strings.TrimPrefix(token, "/")
	e.items = e.items[:0]
	for _, cmd := range e.commands {
		if hasFold(cmd.Name, prefix) {
			e.items = append(e.items, Item{
				Label:  "/" + cmd.Name,
				Value:  "/" + cmd.Name + " ",
				Detail: cmd.Description,
				Hint:   cmd.Hint,
			})
		}
	}
	e.open = len(e.items) > 0
	if e.open {
		e.index = 0
	} else {
		e.index = -1
	}
	return e.result()
}

// Apply replaces the command token with the item's value.
func (e *SlashEngine) Apply(text string, cursor int, item Item) (string, int, string) {
	newText, newCursor := replaceToken(text, cursor, item.Value)
	e.Close()
	return newText, newCursor, item.Hint
}

// MoveSelection clamps at the ends rather than wrapping.
func (e *SlashEngine) MoveSelection(delta int) Result {
	if !e.open || len(e.items) == 0 {
		return e.result()
	}
	e.index += delta
	if e.index < 0 {
		e.index = 0
	}
	if e.index > len(e.items)-1 {
		e.index = len(e.items) - 1
	}
	return e.result()
}

// Selected returns the highlighted item.
func (e *SlashEngine) Selected() (Item, bool) {
	if !e.open || e.index < 0 || e.index >= len(e.items) {
		return Item{}, false
	}
	return e.items[e.index], true
}

// Close discards the candidates without touching any text.
func (e *SlashEngine) Close() {
	e.open = false
	e.items = nil
	e.index = -1
}

func (e *SlashEngine) result() Result {
	return Result{Open: e.open, Items: e.items, Index: e.index}
}
