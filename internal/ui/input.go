package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rivo/uniseg"

	"github.com/jshelley/sidechat/internal/draft"
	"github.com/jshelley/sidechat/internal/keys"
	"github.com/jshelley/sidechat/internal/logger"
	"github.com/jshelley/sidechat/internal/suggest"
)

// SubmitMsg asks the coordinator to send the focused view's draft.
type SubmitMsg struct{}

// CancelMsg asks the coordinator to stop the in-flight send.
type CancelMsg struct{}

// PasteImageMsg asks the coordinator to read an image from the clipboard.
type PasteImageMsg struct{}

// AttachFilesMsg delivers files read from pasted paths for ingestion.
type AttachFilesMsg struct {
	Files []draft.File
}

// MentionResultMsg delivers an async mention lookup result.
type MentionResultMsg struct {
	Seq    uint64
	Result suggest.Result
}

// NoticeMsg surfaces a user-facing notice (shown as a footer flash).
type NoticeMsg struct {
	Text string
	Type FlashType
}

func noticeCmd(text string, t FlashType) tea.Cmd {
	return func() tea.Msg { return NoticeMsg{Text: text, Type: t} }
}

// imageExtensions are the file extensions treated as image paste candidates.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// Input is the chat input surface: a textarea plus attachment chips, slash
// and mention dropdowns, and the inline command hint. It owns the focused
// view's draft while editing.
type Input struct {
	textarea textarea.Model
	dropdown *Dropdown

	slash   *suggest.SlashEngine
	mention *suggest.MentionEngine
	active  suggest.Engine // engine backing the open dropdown, nil when closed
	seq     *suggest.Sequencer

	state draft.State

	width          int
	focused        bool
	sessionReady   bool
	restoring      bool // restore flow in progress, submit disabled
	sending        bool // send in flight, submit acts as cancel
	composing      bool // IME composition in progress, Enter is inert
	supportsImages bool
	submitOnEnter  bool

	hint     string // inline ghost text after an applied command
	hintBase string // the text the hint was applied onto
}

// NewInput creates the input surface.
func NewInput(slash *suggest.SlashEngine, mention *suggest.MentionEngine) *Input {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.CharLimit = 0
	ta.SetHeight(TextareaHeight)
	ta.ShowLineNumbers = false
	ta.Prompt = ""

	return &Input{
		textarea:      ta,
		dropdown:      NewDropdown(),
		slash:         slash,
		mention:       mention,
		seq:           &suggest.Sequencer{},
		submitOnEnter: true,
	}
}

// SetWidth sets the input surface width
func (in *Input) SetWidth(width int) {
	in.width = width
	in.textarea.SetWidth(width - BorderSize - InputPaddingWidth)
	in.dropdown.SetWidth(width)
}

// SetFocused sets keyboard focus
func (in *Input) SetFocused(focused bool) {
	in.focused = focused
	if focused {
		in.textarea.Focus()
	} else {
		in.textarea.Blur()
		in.closeDropdown()
	}
}

// SetSessionReady marks whether the view behind the surface can accept input
func (in *Input) SetSessionReady(ready bool) {
	in.sessionReady = ready
}

// SetRestoring marks a restore flow in progress; submission is disabled
// until it finishes.
func (in *Input) SetRestoring(restoring bool) {
	in.restoring = restoring
}

// SetSending marks a send in flight; the submit key becomes cancel.
func (in *Input) SetSending(sending bool) {
	in.sending = sending
}

// IsSending reports whether a send is in flight.
func (in *Input) IsSending() bool {
	return in.sending
}

// SetComposing marks IME composition in progress. Terminals rarely report
// this; hosts that can detect it use the hook to keep Enter from
// committing a half-composed message.
func (in *Input) SetComposing(composing bool) {
	in.composing = composing
}

// SetSupportsImages sets whether the active agent accepts images.
func (in *Input) SetSupportsImages(supports bool) {
	in.supportsImages = supports
}

// SetSubmitOnEnter switches between Enter-submits and Alt+Enter-submits.
func (in *Input) SetSubmitOnEnter(onEnter bool) {
	in.submitOnEnter = onEnter
}

// State returns a copy of the current draft.
func (in *Input) State() draft.State {
	s := in.state
	s.Text = in.textarea.Value()
	return s.Clone()
}

// SetState replaces the draft, e.g. on view switch or broadcast receive.
func (in *Input) SetState(s draft.State) {
	in.state = s
	in.textarea.SetValue(s.Text)
	in.textarea.MoveToEnd()
	in.clearHint()
	in.closeDropdown()
}

// Clear empties the draft synchronously. Called on submit before the async
// send starts, so a failed send never finds half-cleared state.
func (in *Input) Clear() {
	in.state.Clear()
	in.textarea.Reset()
	in.clearHint()
	in.closeDropdown()
}

// ResetImages drops attachments but keeps the text. Called on agent switch.
func (in *Input) ResetImages() {
	in.state.ResetImages()
}

// ImageCount returns the number of staged attachments.
func (in *Input) ImageCount() int {
	return len(in.state.Images)
}

// CanSend reports whether submission is possible right now: something to
// send, a ready session, and no restore in progress.
func (in *Input) CanSend() bool {
	if !in.sessionReady || in.restoring {
		return false
	}
	return strings.TrimSpace(in.textarea.Value()) != "" || len(in.state.Images) > 0
}

// DropdownOpen reports whether a suggestion dropdown is showing.
func (in *Input) DropdownOpen() bool {
	return in.dropdown.IsOpen()
}

// RestoreText inserts restored draft text. Only an empty field is restored
// into; a non-empty draft is never clobbered.
func (in *Input) RestoreText(text string) bool {
	if strings.TrimSpace(in.textarea.Value()) != "" {
		return false
	}
	in.textarea.SetValue(text)
	in.textarea.MoveToEnd()
	return true
}

// Ingest runs a batch of files through the draft's attachment checks and
// returns commands carrying the resulting notices. Pass-through files (not
// images at all) have their names inserted as text.
func (in *Input) Ingest(files []draft.File) tea.Cmd {
	res := in.state.Ingest(files, in.supportsImages)

	var cmds []tea.Cmd
	for _, n := range res.Notices {
		t := FlashInfo
		if n.Warning {
			t = FlashWarning
		}
		cmds = append(cmds, noticeCmd(n.Text, t))
	}
	for _, f := range res.PassThrough {
		if f.Name != "" {
			in.textarea.InsertString(f.Name)
		}
	}
	return tea.Batch(cmds...)
}

// Update handles messages for the input surface.
func (in *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	switch msg := msg.(type) {
	case MentionResultMsg:
		// Drop results that arrive after a newer query was applied.
		if !in.seq.Accept(msg.Seq) {
			return in, nil
		}
		// The slash dropdown outranks the mention dropdown.
		if in.active == in.slash && in.dropdown.IsOpen() {
			return in, nil
		}
		in.mention.Install(msg.Result)
		if msg.Result.Open {
			in.active = in.mention
			in.dropdown.Sync(msg.Result)
		} else if in.active == in.mention {
			in.closeDropdown()
		}
		return in, nil

	case AttachFilesMsg:
		return in, in.Ingest(msg.Files)

	case tea.PasteMsg:
		if cmd, handled := in.handlePaste(msg.Content); handled {
			return in, cmd
		}
		var cmd tea.Cmd
		in.textarea, cmd = in.textarea.Update(msg)
		in.afterEdit()
		return in, tea.Batch(cmd, in.queryCmd())

	case tea.KeyPressMsg:
		if !in.focused {
			return in, nil
		}
		return in.handleKey(msg)
	}

	var cmd tea.Cmd
	in.textarea, cmd = in.textarea.Update(msg)
	return in, cmd
}

func (in *Input) handleKey(msg tea.KeyPressMsg) (*Input, tea.Cmd) {
	key := msg.String()

	if in.dropdown.IsOpen() && in.active != nil {
		switch key {
		case keys.Down:
			in.dropdown.Sync(in.active.MoveSelection(1))
			return in, nil
		case keys.Up:
			in.dropdown.Sync(in.active.MoveSelection(-1))
			return in, nil
		case keys.Tab:
			// Tab applies even mid-composition.
			return in, in.applySelected()
		case keys.Enter:
			if in.composing {
				return in, nil // let the IME commit its text first
			}
			return in, in.applySelected()
		case keys.Escape:
			// Close the dropdown and nothing else; the text stays.
			in.closeDropdown()
			return in, nil
		}
	}

	switch key {
	case in.submitKey():
		if in.composing {
			return in, nil
		}
		if in.sending {
			return in, func() tea.Msg { return CancelMsg{} }
		}
		if !in.CanSend() {
			// Empty submit is a no-op: no send, no clear.
			return in, nil
		}
		return in, func() tea.Msg { return SubmitMsg{} }

	case in.newlineKey():
		in.textarea.InsertString("\n")
		in.afterEdit()
		return in, nil

	case keys.CtrlV:
		return in, func() tea.Msg { return PasteImageMsg{} }
	}

	var cmd tea.Cmd
	in.textarea, cmd = in.textarea.Update(msg)
	in.afterEdit()
	return in, tea.Batch(cmd, in.queryCmd())
}

func (in *Input) submitKey() string {
	if in.submitOnEnter {
		return keys.Enter
	}
	return keys.AltEnter
}

func (in *Input) newlineKey() string {
	if in.submitOnEnter {
		return keys.AltEnter
	}
	return keys.Enter
}

// applySelected inserts the highlighted suggestion and closes the dropdown.
func (in *Input) applySelected() tea.Cmd {
	engine := in.active
	item, ok := engine.Selected()
	if !ok {
		in.closeDropdown()
		return nil
	}
	text := in.textarea.Value()
	newText, newCursor, hint := engine.Apply(text, in.cursorOffset(), item)
	in.textarea.SetValue(newText)
	in.moveCursorTo(newCursor)
	in.dropdown.Close()
	in.active = nil

	// An applied mention becomes the active note, offered first on the
	// next bare "@".
	if engine == in.mention {
		in.mention.SetActiveNote(strings.TrimPrefix(item.Label, "@"))
	}

	in.hint = hint
	in.hintBase = newText
	return nil
}

// cursorOffset returns the byte offset of the textarea cursor within Value().
// The textarea tracks the cursor as a row plus a rune column; LineInfo's
// StartColumn and ColumnOffset together give the column within the row.
func (in *Input) cursorOffset() int {
	value := in.textarea.Value()
	row := in.textarea.Line()
	lines := strings.Split(value, "\n")
	if row < 0 || row >= len(lines) {
		return len(value)
	}
	offset := 0
	for i := 0; i < row; i++ {
		offset += len(lines[i]) + 1
	}
	info := in.textarea.LineInfo()
	col := info.StartColumn + info.ColumnOffset
	runes := []rune(lines[row])
	if col > len(runes) {
		col = len(runes)
	}
	return offset + len(string(runes[:col]))
}

// moveCursorTo places the textarea cursor at the given byte offset.
func (in *Input) moveCursorTo(offset int) {
	value := in.textarea.Value()
	if offset >= len(value) {
		in.textarea.MoveToEnd()
		return
	}
	if offset < 0 {
		offset = 0
	}
	row := strings.Count(value[:offset], "\n")
	for in.textarea.Line() > row {
		in.textarea.CursorUp()
	}
	for in.textarea.Line() < row {
		in.textarea.CursorDown()
	}
	lineStart := strings.LastIndexByte(value[:offset], '\n') + 1
	in.textarea.SetCursorColumn(len([]rune(value[lineStart:offset])))
}

// afterEdit re-evaluates the inline hint against the live text.
func (in *Input) afterEdit() {
	in.state.Text = in.textarea.Value()
	if in.hint == "" {
		return
	}
	if !strings.HasPrefix(in.state.Text, in.hintBase) {
		in.clearHint()
		return
	}
	// Typing into the hint keeps the remaining ghost; diverging clears it.
	typed := in.state.Text[len(in.hintBase):]
	if remainingHint(in.hint, typed) == "" && typed != "" && !strings.HasPrefix(in.hint, typed) {
		in.clearHint()
	}
}

// remainingHint returns the untyped tail of hint given what the user typed
// after the insertion point, comparing grapheme clusters so combining marks
// do not split. Returns "" when the typed text diverges from the hint.
func remainingHint(hint, typed string) string {
	if typed == "" {
		return hint
	}
	gh := uniseg.NewGraphemes(hint)
	gt := uniseg.NewGraphemes(typed)
	for gt.Next() {
		if !gh.Next() || gh.Str() != gt.Str() {
			return ""
		}
	}
	rest := ""
	for gh.Next() {
		rest += gh.Str()
	}
	return rest
}

func (in *Input) clearHint() {
	in.hint = ""
	in.hintBase = ""
}

func (in *Input) closeDropdown() {
	if in.active != nil {
		in.active.Close()
		in.active = nil
	}
	in.dropdown.Close()
	in.seq.Invalidate()
}

// queryCmd re-runs the suggestion engines for the current text. The slash
// engine answers synchronously and outranks mentions; mention lookups hit
// the filesystem, so they run as a command with a freshness sequence.
func (in *Input) queryCmd() tea.Cmd {
	text := in.textarea.Value()
	cursor := in.cursorOffset()

	res := in.slash.Query(text, cursor)
	if res.Open {
		in.active = in.slash
		in.dropdown.Sync(res)
		in.seq.Invalidate()
		return nil
	}
	if in.active == in.slash {
		in.closeDropdown()
	}

	if !strings.Contains(text, "@") {
		// No lookup for this keystroke, so any result still in flight is
		// for text that no longer exists. Retire it before it can reopen
		// the dropdown.
		in.seq.Invalidate()
		if in.active == in.mention {
			in.closeDropdown()
		}
		return nil
	}

	seq := in.seq.Next()
	lookup := in.mention.Candidates
	return func() tea.Msg {
		return MentionResultMsg{Seq: seq, Result: lookup(text, cursor)}
	}
}

// View renders the input surface: dropdown overlay, attachment chips, and
// the bordered textarea with the inline hint.
func (in *Input) View() string {
	var sections []string

	if dd := in.dropdown.View(); dd != "" {
		sections = append(sections, dd)
	}

	if len(in.state.Images) > 0 {
		var chips []string
		for _, img := range in.state.Images {
			name := img.Name
			if name == "" {
				name = "image"
			}
			chips = append(chips, ChipStyle.Render("⎘ "+name))
		}
		row := strings.Join(chips, " ")
		row += " " + ChipCountStyle.Render(fmt.Sprintf("%d/%d", len(in.state.Images), draft.MaxImages))
		sections = append(sections, row)
	}

	style := ChatInputStyle
	if in.focused {
		style = ChatInputFocusedStyle
	}

	body := in.textarea.View()
	if in.hint != "" {
		typed := ""
		if strings.HasPrefix(in.textarea.Value(), in.hintBase) {
			typed = in.textarea.Value()[len(in.hintBase):]
		}
		if rest := remainingHint(in.hint, typed); rest != "" {
			body += InlineHintStyle.Render(rest)
		}
	}
	sections = append(sections, style.Width(in.width-BorderSize).Render(body))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// handlePaste checks whether pasted text is a path to an attachable file.
// Returns (cmd, true) when the paste was consumed.
func (in *Input) handlePaste(pasted string) (tea.Cmd, bool) {
	path := strings.ReplaceAll(strings.TrimSpace(pasted), "\\ ", " ")
	if path == "" || strings.ContainsAny(path, "\n") {
		return nil, false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}

	ext := strings.ToLower(filepath.Ext(abs))
	allowed := false
	for _, e := range imageExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		// Not an image path; default text handling takes it.
		return nil, false
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, false
	}

	// Read off the event loop; ingestion happens when the message lands.
	return func() tea.Msg {
		data, err := os.ReadFile(abs)
		if err != nil {
			logger.Debug("Input: failed to read dropped file %s: %v", abs, err)
			return NoticeMsg{Text: "Could not read " + filepath.Base(abs), Type: FlashWarning}
		}
		return AttachFilesMsg{Files: []draft.File{{Name: filepath.Base(abs), Data: data}}}
	}, true
}
