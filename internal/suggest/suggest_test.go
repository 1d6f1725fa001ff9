package suggest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSlashQueryFiltersByPrefix(t *testing.T) {
	e := NewSlashEngine(DefaultCommands())

	res := e.Query("/b", 2)
	if !res.Open {
		t.Fatal("dropdown should open for /b")
	}
	if len(res.Items) != 1 || res.Items[0].Label != "/broadcast" {
		t.Errorf("unexpected items: %+v", res.Items)
	}
	if res.Index != 0 {
		t.Errorf("index = %d, want 0", res.Index)
	}
}

func TestSlashQueryOnlyAtLineStart(t *testing.T) {
	e := NewSlashEngine(DefaultCommands())

	if res := e.Query("hello /b", 8); res.Open {
		t.Error("slash dropdown must not open mid-text")
	}
}

func TestSlashQueryClosesOnceArgumentStarts(t *testing.T) {
	e := NewSlashEngine(DefaultCommands())

	e.Query("/broadcast", 10)
	if res := e.Query("/broadcast ", 11); res.Open {
		t.Error("dropdown should close after the command token is settled")
	}
}

func TestSlashQueryNoMatches(t *testing.T) {
	e := NewSlashEngine(DefaultCommands())
	if res := e.Query("/zzz", 4); res.Open {
		t.Error("dropdown should stay closed with no matches")
	}
}

func TestSlashMoveSelectionClamps(t *testing.T) {
	e := NewSlashEngine(DefaultCommands())
	res := e.Query("/", 1)
	n := len(res.Items)
	if n < 2 {
		t.Fatalf("need at least 2 commands, got %d", n)
	}

	if res := e.MoveSelection(-1); res.Index != 0 {
		t.Errorf("moving up at the top should clamp, index = %d", res.Index)
	}
	for i := 0; i < n+3; i++ {
		res = e.MoveSelection(1)
	}
	if res.Index != n-1 {
		t.Errorf("moving down at the bottom should clamp, index = %d", res.Index)
	}
}

func TestSlashApplyInsertsCommandAndHint(t *testing.T) {
	e := NewSlashEngine(DefaultCommands())
	e.Query("/bro", 4)
	item, ok := e.Selected()
	if !ok {
		t.Fatal("expected a selection")
	}

	newText, newCursor, hint := e.Apply("/bro", 4, item)
	if newText != "/broadcast " {
		t.Errorf("newText = %q", newText)
	}
	if newCursor != len(newText) {
		t.Errorf("cursor = %d, want %d", newCursor, len(newText))
	}
	if hint != "view" {
		t.Errorf("hint = %q, want %q", hint, "view")
	}
	if res := e.result(); res.Open {
		t.Error("apply should close the dropdown")
	}
}

func TestSlashCloseKeepsTextAlone(t *testing.T) {
	e := NewSlashEngine(DefaultCommands())
	e.Query("/he", 3)
	e.Close()
	if _, ok := e.Selected(); ok {
		t.Error("closed engine should have no selection")
	}
}

func notesDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestMentionQueryListsNotes(t *testing.T) {
	dir := notesDir(t, "alpha.md", "beta.md", ".hidden.md")
	e := NewMentionEngine(dir)

	res := e.Query("see @a", 6)
	if !res.Open {
		t.Fatal("dropdown should open for @a")
	}
	if len(res.Items) != 1 || res.Items[0].Label != "@alpha" {
		t.Errorf("unexpected items: %+v", res.Items)
	}
}

func TestMentionActiveNoteLeadsOnBareAt(t *testing.T) {
	dir := notesDir(t, "alpha.md", "beta.md")
	e := NewMentionEngine(dir)
	e.SetActiveNote("beta")

	res := e.Query("@", 1)
	if !res.Open || len(res.Items) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Items[0].Label != "@beta" {
		t.Errorf("active note should lead, got %s", res.Items[0].Label)
	}
	if res.Items[1].Label != "@alpha" {
		t.Errorf("remaining notes should follow, got %s", res.Items[1].Label)
	}
}

func TestMentionMoveSelectionWraps(t *testing.T) {
	dir := notesDir(t, "alpha.md", "beta.md", "gamma.md")
	e := NewMentionEngine(dir)
	e.Query("@", 1)

	res := e.MoveSelection(-1)
	if res.Index != 2 {
		t.Errorf("moving up from the top should wrap to the end, index = %d", res.Index)
	}
	res = e.MoveSelection(1)
	if res.Index != 0 {
		t.Errorf("moving down from the end should wrap to the top, index = %d", res.Index)
	}
}

func TestMentionApplyReplacesToken(t *testing.T) {
	dir := notesDir(t, "alpha.md")
	e := NewMentionEngine(dir)
	e.Query("ask @al about it", 7)
	item, ok := e.Selected()
	if !ok {
		t.Fatal("expected a selection")
	}

	newText, newCursor, hint := e.Apply("ask @al about it", 7, item)
	if newText != "ask @alpha  about it" {
		t.Errorf("newText = %q", newText)
	}
	if newCursor != len("ask @alpha ") {
		t.Errorf("cursor = %d", newCursor)
	}
	if hint != "" {
		t.Errorf("mentions carry no hint, got %q", hint)
	}
}

func TestMentionEmptyDirStaysClosed(t *testing.T) {
	e := NewMentionEngine("")
	if res := e.Query("@a", 2); res.Open {
		t.Error("engine without a notes dir should stay closed")
	}
}

func TestSequencerDropsStaleResults(t *testing.T) {
	var q Sequencer

	first := q.Next()
	second := q.Next()

	if !q.Accept(second) {
		t.Fatal("newest result should be accepted")
	}
	if q.Accept(first) {
		t.Error("result older than the newest applied one must be dropped")
	}
	third := q.Next()
	if !q.Accept(third) {
		t.Error("a newer result should be accepted after older ones")
	}
}

func TestTokenAt(t *testing.T) {
	tests := []struct {
		text   string
		cursor int
		token  string
		start  int
	}{
		{"/help", 5, "/help", 0},
		{"hello @wo", 9, "@wo", 6},
		{"a b c", 3, "b", 2},
		{"", 0, "", 0},
		{"word", 10, "word", 0}, // cursor past end is clamped
	}
	for _, tt := range tests {
		token, start := tokenAt(tt.text, tt.cursor)
		if token != tt.token || start != tt.start {
			t.Errorf("tokenAt(%q, %d) = %q, %d; want %q, %d",
				tt.text, tt.cursor, token, start, tt.token, tt.start)
		}
	}
}
