package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/jshelley/sidechat/internal/draft"
	"github.com/jshelley/sidechat/internal/logger"
	"github.com/jshelley/sidechat/internal/suggest"
)

func TestMain(m *testing.M) {
	logger.SetLevel(logger.LevelError)
	os.Exit(m.Run())
}

func newTestInput() *Input {
	in := NewInput(
		suggest.NewSlashEngine(suggest.DefaultCommands()),
		suggest.NewMentionEngine(""),
	)
	in.SetWidth(80)
	in.SetFocused(true)
	in.SetSessionReady(true)
	in.SetSupportsImages(true)
	return in
}

func typeString(in *Input, s string) *Input {
	for _, r := range s {
		in, _ = in.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	return in
}

func press(in *Input, code rune) (*Input, tea.Cmd) {
	return in.Update(tea.KeyPressMsg{Code: code})
}

func TestInputSlashOpensDropdown(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "/")

	if !in.DropdownOpen() {
		t.Error("Expected dropdown to open on /")
	}
}

func TestInputEscapeClosesDropdownKeepsText(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "/bro")
	if !in.DropdownOpen() {
		t.Fatal("Expected dropdown open after /bro")
	}

	in, _ = press(in, tea.KeyEscape)

	if in.DropdownOpen() {
		t.Error("Expected Escape to close the dropdown")
	}
	if got := in.textarea.Value(); got != "/bro" {
		t.Errorf("Expected text untouched after Escape, got %q", got)
	}
}

func TestInputApplyInsertsCommandWithHint(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "/bro")

	in, _ = press(in, tea.KeyEnter)

	if got := in.textarea.Value(); got != "/broadcast " {
		t.Errorf("Expected %q after apply, got %q", "/broadcast ", got)
	}
	if in.DropdownOpen() {
		t.Error("Expected dropdown closed after apply")
	}
	if in.hint != "view" {
		t.Errorf("Expected inline hint %q, got %q", "view", in.hint)
	}
}

func TestInputTabAppliesSelection(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "/cle")

	in, _ = press(in, tea.KeyTab)

	if got := in.textarea.Value(); got != "/clear " {
		t.Errorf("Expected %q after tab apply, got %q", "/clear ", got)
	}
}

func TestInputEmptySubmitIsNoOp(t *testing.T) {
	in := newTestInput()

	in, cmd := press(in, tea.KeyEnter)

	if cmd != nil {
		t.Error("Expected no command on empty submit")
	}
	if got := in.textarea.Value(); got != "" {
		t.Errorf("Expected text still empty, got %q", got)
	}
}

func TestInputWhitespaceOnlySubmitIsNoOp(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "   ")

	_, cmd := press(in, tea.KeyEnter)

	if cmd != nil {
		t.Error("Expected no command on whitespace-only submit")
	}
}

func TestInputSubmitEmitsSubmitMsg(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "hello")

	_, cmd := press(in, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("Expected a command on submit")
	}
	if _, ok := cmd().(SubmitMsg); !ok {
		t.Errorf("Expected SubmitMsg, got %T", cmd())
	}
}

func TestInputSubmitBlockedWhileRestoring(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "hello")
	in.SetRestoring(true)

	_, cmd := press(in, tea.KeyEnter)
	if cmd != nil {
		t.Error("Expected submit blocked while restore is in progress")
	}
}

func TestInputSubmitWhileSendingCancels(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "hello")
	in.SetSending(true)

	_, cmd := press(in, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("Expected a command while sending")
	}
	if _, ok := cmd().(CancelMsg); !ok {
		t.Errorf("Expected CancelMsg, got %T", cmd())
	}
}

func TestInputAltEnterSubmitPolicy(t *testing.T) {
	in := newTestInput()
	in.SetSubmitOnEnter(false)
	in = typeString(in, "hello")

	// Plain Enter now inserts a newline
	in, cmd := press(in, tea.KeyEnter)
	if cmd != nil {
		t.Error("Expected no submit on plain Enter under alt+enter policy")
	}
	if got := in.textarea.Value(); got != "hello\n" {
		t.Errorf("Expected newline inserted, got %q", got)
	}

	_, cmd = in.Update(tea.KeyPressMsg{Code: tea.KeyEnter, Mod: tea.ModAlt})
	if cmd == nil {
		t.Fatal("Expected a command on alt+enter")
	}
	if _, ok := cmd().(SubmitMsg); !ok {
		t.Errorf("Expected SubmitMsg, got %T", cmd())
	}
}

func TestInputComposingSuppressesEnterButNotTab(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "/bro")
	in.SetComposing(true)

	in, _ = press(in, tea.KeyEnter)
	if !in.DropdownOpen() {
		t.Error("Expected dropdown still open: Enter is inert while composing")
	}
	if got := in.textarea.Value(); got != "/bro" {
		t.Errorf("Expected text unchanged while composing, got %q", got)
	}

	in, _ = press(in, tea.KeyTab)
	if got := in.textarea.Value(); got != "/broadcast " {
		t.Errorf("Expected Tab to apply even while composing, got %q", got)
	}
}

func TestInputComposingSuppressesSubmit(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "hello")
	in.SetComposing(true)

	_, cmd := press(in, tea.KeyEnter)
	if cmd != nil {
		t.Error("Expected no submit while composing")
	}
}

func TestInputCanSendWithOnlyImages(t *testing.T) {
	in := newTestInput()
	if in.CanSend() {
		t.Error("Expected CanSend false with empty draft")
	}

	in.state.Images = append(in.state.Images, draft.AttachedImage{Name: "shot.png"})
	if !in.CanSend() {
		t.Error("Expected CanSend true with an attachment and no text")
	}
}

func TestInputCanSendRequiresReadySession(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "hello")
	in.SetSessionReady(false)

	if in.CanSend() {
		t.Error("Expected CanSend false when the session is not ready")
	}
}

func TestInputRestoreTextDoesNotClobber(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "already typing")

	if in.RestoreText("old draft") {
		t.Error("Expected restore refused into a non-empty field")
	}
	if got := in.textarea.Value(); got != "already typing" {
		t.Errorf("Expected text untouched, got %q", got)
	}

	in.Clear()
	if !in.RestoreText("old draft") {
		t.Error("Expected restore into an empty field")
	}
	if got := in.textarea.Value(); got != "old draft" {
		t.Errorf("Expected restored text, got %q", got)
	}
}

func TestInputClearEmptiesDraft(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "hello")
	in.state.Images = append(in.state.Images, draft.AttachedImage{Name: "shot.png"})

	in.Clear()

	if got := in.textarea.Value(); got != "" {
		t.Errorf("Expected empty text after Clear, got %q", got)
	}
	if in.ImageCount() != 0 {
		t.Errorf("Expected no images after Clear, got %d", in.ImageCount())
	}
}

func TestInputStaleMentionResultDropped(t *testing.T) {
	in := newTestInput()

	seq1 := in.seq.Next()
	seq2 := in.seq.Next()

	fresh := suggest.Result{Open: true, Items: []suggest.Item{{Label: "@alpha"}}, Index: 0}
	in, _ = in.Update(MentionResultMsg{Seq: seq2, Result: fresh})
	if !in.DropdownOpen() {
		t.Fatal("Expected fresh mention result to open the dropdown")
	}

	in, _ = in.Update(MentionResultMsg{Seq: seq1, Result: suggest.Result{Index: -1}})
	if !in.DropdownOpen() {
		t.Error("Expected stale mention result to be dropped")
	}
}

// drainMentionResult runs cmd, unwrapping batches, and returns the first
// MentionResultMsg it produces.
func drainMentionResult(t *testing.T, cmd tea.Cmd) (MentionResultMsg, bool) {
	t.Helper()
	if cmd == nil {
		return MentionResultMsg{}, false
	}
	switch msg := cmd().(type) {
	case MentionResultMsg:
		return msg, true
	case tea.BatchMsg:
		for _, c := range msg {
			if res, ok := drainMentionResult(t, c); ok {
				return res, true
			}
		}
	}
	return MentionResultMsg{}, false
}

func newNotesDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("note"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newMentionTestInput(t *testing.T, notes ...string) (*Input, *suggest.MentionEngine) {
	t.Helper()
	mention := suggest.NewMentionEngine(newNotesDir(t, notes...))
	in := NewInput(suggest.NewSlashEngine(suggest.DefaultCommands()), mention)
	in.SetWidth(80)
	in.SetFocused(true)
	in.SetSessionReady(true)
	return in, mention
}

func TestInputMentionResultForRemovedTextIsDropped(t *testing.T) {
	in := newTestInput()

	in, cmd := in.Update(tea.KeyPressMsg{Code: '@', Text: "@"})
	pending, ok := drainMentionResult(t, cmd)
	if !ok {
		t.Fatal("Expected a mention lookup command after @")
	}

	// Backspace empties the field before the lookup lands.
	in, _ = press(in, tea.KeyBackspace)
	if got := in.textarea.Value(); got != "" {
		t.Fatalf("Expected empty field after backspace, got %q", got)
	}

	// Hand back an open result under the pending sequence number; a
	// freshness bug would show up as a reopened dropdown.
	pending.Result = suggest.Result{Open: true, Items: []suggest.Item{{Label: "@alpha"}}, Index: 0}
	in, _ = in.Update(pending)

	if in.DropdownOpen() {
		t.Error("Expected lookup result for removed text to be dropped")
	}
}

func TestInputMentionResultAfterEscapeIsDropped(t *testing.T) {
	in := newTestInput()

	in, cmd := in.Update(tea.KeyPressMsg{Code: '@', Text: "@"})
	pending, ok := drainMentionResult(t, cmd)
	if !ok {
		t.Fatal("Expected a mention lookup command after @")
	}

	in, _ = press(in, tea.KeyEscape)

	pending.Result = suggest.Result{Open: true, Items: []suggest.Item{{Label: "@alpha"}}, Index: 0}
	in, _ = in.Update(pending)

	if in.DropdownOpen() {
		t.Error("Expected lookup result from before Escape to be dropped")
	}
}

func TestInputMentionMidTextQueriesCursorToken(t *testing.T) {
	in, _ := newMentionTestInput(t, "alpha.md", "beta.md")

	// Build "@a beta" with the cursor right after "@a".
	in = typeString(in, " beta")
	for i := 0; i < 5; i++ {
		in, _ = press(in, tea.KeyLeft)
	}
	in, _ = in.Update(tea.KeyPressMsg{Code: '@', Text: "@"})
	in, cmd := in.Update(tea.KeyPressMsg{Code: 'a', Text: "a"})

	res, ok := drainMentionResult(t, cmd)
	if !ok {
		t.Fatal("Expected a mention lookup for the token under the cursor")
	}
	if len(res.Result.Items) != 1 || res.Result.Items[0].Label != "@alpha" {
		t.Fatalf("Expected the cursor token to match alpha, got %v", res.Result.Items)
	}

	in, _ = in.Update(res)
	if !in.DropdownOpen() {
		t.Fatal("Expected mention dropdown open mid-text")
	}

	// Applying replaces the token at the cursor, not the trailing word.
	in, _ = press(in, tea.KeyEnter)
	if got := in.textarea.Value(); got != "@alpha  beta" {
		t.Errorf("Expected cursor token replaced, got %q", got)
	}
}

func TestInputAppliedMentionBecomesActiveNote(t *testing.T) {
	in, mention := newMentionTestInput(t, "alpha.md", "beta.md")

	in, _ = in.Update(tea.KeyPressMsg{Code: '@', Text: "@"})
	in, _ = in.Update(tea.KeyPressMsg{Code: 'b', Text: "b"})
	in, cmd := in.Update(tea.KeyPressMsg{Code: 'e', Text: "e"})

	res, ok := drainMentionResult(t, cmd)
	if !ok {
		t.Fatal("Expected a mention lookup command")
	}
	in, _ = in.Update(res)
	if !in.DropdownOpen() {
		t.Fatal("Expected mention dropdown open for @be")
	}

	in, _ = press(in, tea.KeyEnter)
	if got := in.textarea.Value(); got != "@beta " {
		t.Fatalf("Expected applied mention, got %q", got)
	}

	// The applied note leads the next bare "@" lookup.
	next := mention.Candidates("@", 1)
	if len(next.Items) == 0 || next.Items[0].Label != "@beta" {
		t.Errorf("Expected the applied mention offered first on a bare @, got %v", next.Items)
	}
	if next.Items[0].Detail != "active note" {
		t.Errorf("Expected active note detail, got %q", next.Items[0].Detail)
	}
}

func TestInputSlashOutranksMention(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "/")
	if !in.DropdownOpen() {
		t.Fatal("Expected slash dropdown open")
	}

	seq := in.seq.Next()
	mention := suggest.Result{Open: true, Items: []suggest.Item{{Label: "@alpha"}}, Index: 0}
	in, _ = in.Update(MentionResultMsg{Seq: seq, Result: mention})

	if in.active != in.slash {
		t.Error("Expected slash engine to keep the dropdown while open")
	}
}

func TestInputIngestPassThroughInsertsName(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "see ")

	in, _ = in.Update(AttachFilesMsg{Files: []draft.File{
		{Name: "notes.txt", Data: []byte("plain text")},
	}})

	if got := in.textarea.Value(); !strings.Contains(got, "notes.txt") {
		t.Errorf("Expected pass-through file name inserted, got %q", got)
	}
	if in.ImageCount() != 0 {
		t.Errorf("Expected no attachment for a non-image, got %d", in.ImageCount())
	}
}

func TestInputDropdownNavigation(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "/")
	start := in.dropdown.index

	in, _ = press(in, tea.KeyDown)
	if in.dropdown.index != start+1 {
		t.Errorf("Expected selection to move down, got %d", in.dropdown.index)
	}

	in, _ = press(in, tea.KeyUp)
	if in.dropdown.index != start {
		t.Errorf("Expected selection back at %d, got %d", start, in.dropdown.index)
	}
}

func TestRemainingHint(t *testing.T) {
	tests := []struct {
		name  string
		hint  string
		typed string
		want  string
	}{
		{"nothing typed", "name", "", "name"},
		{"partial match", "name", "na", "me"},
		{"full match", "name", "name", ""},
		{"divergence", "name", "x", ""},
		{"combining mark stays whole", "café", "caf", "é"},
		{"combining mark divergence", "café", "cafe", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := remainingHint(tt.hint, tt.typed); got != tt.want {
				t.Errorf("remainingHint(%q, %q) = %q, want %q", tt.hint, tt.typed, got, tt.want)
			}
		})
	}
}

func TestInputHintClearsOnDivergence(t *testing.T) {
	in := newTestInput()
	in = typeString(in, "/bro")
	in, _ = press(in, tea.KeyEnter)
	if in.hint != "view" {
		t.Fatalf("Expected hint %q, got %q", "view", in.hint)
	}

	// Typing a prefix of the hint keeps it
	in = typeString(in, "vi")
	if in.hint == "" {
		t.Error("Expected hint kept while typing into it")
	}

	// Diverging clears it
	in = typeString(in, "x")
	if in.hint != "" {
		t.Errorf("Expected hint cleared on divergence, got %q", in.hint)
	}
}
