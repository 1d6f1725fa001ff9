package ui

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/x/ansi"

	"github.com/jshelley/sidechat/internal/keys"
)

// StopwatchTickMsg is sent to update the stopwatch display
type StopwatchTickMsg time.Time

// thinkingVerbs are playful status messages that cycle while waiting for a reply
var thinkingVerbs = []string{
	"Thinking",
	"Reasoning",
	"Pondering",
	"Contemplating",
	"Musing",
	"Mulling",
	"Deliberating",
	"Reflecting",
	"Considering",
	"Processing",
	"Composing",
	"Drafting",
	"Formulating",
	"Percolating",
	"Brewing",
}

// randomThinkingVerb returns a random verb from the list
func randomThinkingVerb() string {
	return thinkingVerbs[rand.Intn(len(thinkingVerbs))]
}

// ChatMessage is one transcript entry.
type ChatMessage struct {
	Role    string // "user" or "assistant"
	Content string
}

// Chat is the transcript panel for one view: scrollback, the streaming tail,
// and the waiting indicator. The input surface below it is a separate
// component.
type Chat struct {
	viewport viewport.Model
	width    int
	height   int
	focused  bool

	title     string
	agentName string // label for assistant messages

	messages  []ChatMessage
	streaming string // current streaming response tail

	waiting       bool
	waitStartTime time.Time
	waitingVerb   string
}

// NewChat creates a new transcript panel
func NewChat() *Chat {
	vp := viewport.New()
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	c := &Chat{
		viewport:  vp,
		agentName: "Assistant",
	}
	c.updateContent()
	return c
}

// SetSize sets the panel dimensions
func (c *Chat) SetSize(width, height int) {
	c.width = width
	c.height = height

	innerWidth := width - BorderSize
	innerHeight := height - BorderSize
	if innerHeight < 1 {
		innerHeight = 1
	}

	c.viewport.SetWidth(innerWidth)
	c.viewport.SetHeight(innerHeight)
	c.updateContent()
}

// SetFocused sets the focus state
func (c *Chat) SetFocused(focused bool) {
	c.focused = focused
}

// SetTitle sets the panel title shown when collapsed
func (c *Chat) SetTitle(title string) {
	c.title = title
}

// SetAgentName sets the label used for assistant messages
func (c *Chat) SetAgentName(name string) {
	c.agentName = name
	c.updateContent()
}

// Messages returns the transcript.
func (c *Chat) Messages() []ChatMessage {
	return c.messages
}

// AddUserMessage appends a user message
func (c *Chat) AddUserMessage(content string) {
	c.messages = append(c.messages, ChatMessage{Role: "user", Content: content})
	c.updateContent()
}

// AddAssistantMessage appends a complete assistant reply
func (c *Chat) AddAssistantMessage(content string) {
	c.messages = append(c.messages, ChatMessage{Role: "assistant", Content: content})
	c.updateContent()
}

// AppendStreaming appends content to the streaming tail
func (c *Chat) AppendStreaming(content string) {
	c.streaming += content
	c.updateContent()
}

// FinishStreaming folds the streaming tail into the transcript
func (c *Chat) FinishStreaming() {
	if c.streaming != "" {
		c.messages = append(c.messages, ChatMessage{Role: "assistant", Content: c.streaming})
		c.streaming = ""
		c.updateContent()
	}
}

// IsStreaming reports whether a response is streaming in
func (c *Chat) IsStreaming() bool {
	return c.streaming != ""
}

// SetWaiting sets the waiting state (before the first token arrives)
func (c *Chat) SetWaiting(waiting bool) {
	c.waiting = waiting
	if waiting {
		c.waitStartTime = time.Now()
		c.waitingVerb = randomThinkingVerb()
	}
	c.updateContent()
}

// IsWaiting returns whether we're waiting for a response
func (c *Chat) IsWaiting() bool {
	return c.waiting
}

// Clear empties the transcript
func (c *Chat) Clear() {
	c.messages = nil
	c.streaming = ""
	c.waiting = false
	c.updateContent()
}

// StopwatchTick returns a command that sends a tick message after a delay
func StopwatchTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return StopwatchTickMsg(t)
	})
}

// formatElapsed formats a duration as a stopwatch string (e.g., "1.2s", "1:23")
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// highlightCode applies syntax highlighting to code using chroma
func highlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}

	return buf.String()
}

// renderMarkdown renders markdown content with syntax-highlighted code blocks
func renderMarkdown(content string, width int) string {
	if width <= 0 {
		width = DefaultWrapWidth
	}

	var result strings.Builder
	lines := strings.Split(content, "\n")
	inCodeBlock := false
	codeBlockLang := ""
	var codeBlockContent strings.Builder

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			if !inCodeBlock {
				inCodeBlock = true
				codeBlockLang = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				codeBlockContent.Reset()
			} else {
				inCodeBlock = false
				result.WriteString(highlightCode(codeBlockContent.String(), codeBlockLang))
				codeBlockLang = ""
			}
			continue
		}

		if inCodeBlock {
			if codeBlockContent.Len() > 0 {
				codeBlockContent.WriteString("\n")
			}
			codeBlockContent.WriteString(line)
		} else {
			result.WriteString(line)
			result.WriteString("\n")
		}
	}

	// An unterminated code block still renders
	if inCodeBlock {
		result.WriteString(highlightCode(codeBlockContent.String(), codeBlockLang))
	}

	return strings.TrimRight(result.String(), "\n")
}

func (c *Chat) updateContent() {
	var sb strings.Builder

	wrapWidth := c.viewport.Width()
	if wrapWidth <= 0 {
		wrapWidth = DefaultWrapWidth
	}

	if len(c.messages) == 0 && c.streaming == "" && !c.waiting {
		sb.WriteString(lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true).
			Render("Start a conversation..."))
	} else {
		for i, msg := range c.messages {
			if i > 0 {
				sb.WriteString("\n\n")
			}

			var roleStyle lipgloss.Style
			var roleName string
			if msg.Role == "user" {
				roleStyle = ChatUserStyle
				roleName = "You"
			} else {
				roleStyle = ChatAssistantStyle
				roleName = c.agentName
			}

			sb.WriteString(roleStyle.Render(roleName + ":"))
			sb.WriteString("\n")
			sb.WriteString(renderMarkdown(strings.TrimSpace(msg.Content), wrapWidth))
		}

		if c.streaming != "" {
			if len(c.messages) > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(ChatAssistantStyle.Render(c.agentName + ":"))
			sb.WriteString("\n")
			sb.WriteString(renderMarkdown(strings.TrimSpace(c.streaming), wrapWidth))
		} else if c.waiting {
			if len(c.messages) > 0 {
				sb.WriteString("\n\n")
			}
			elapsed := time.Since(c.waitStartTime)
			stopwatchStyle := lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
			sb.WriteString(ChatAssistantStyle.Render(c.agentName + ":"))
			sb.WriteString("\n")
			sb.WriteString(StatusLoadingStyle.Render(c.waitingVerb + "... "))
			sb.WriteString(stopwatchStyle.Render(formatElapsed(elapsed)))
		}
	}

	c.viewport.SetContent(sb.String())
	c.viewport.GotoBottom()
}

// PlainTranscript returns the transcript as unstyled text for the system
// clipboard. Rendered code blocks keep their content but lose highlighting.
func (c *Chat) PlainTranscript() string {
	var sb strings.Builder
	for i, msg := range c.messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		roleName := c.agentName
		if msg.Role == "user" {
			roleName = "You"
		}
		sb.WriteString(roleName + ":\n")
		sb.WriteString(ansi.Strip(renderMarkdown(strings.TrimSpace(msg.Content), DefaultWrapWidth)))
	}
	return sb.String()
}

// Update handles messages
func (c *Chat) Update(msg tea.Msg) (*Chat, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg.(type) {
	case StopwatchTickMsg:
		if c.waiting {
			c.updateContent()
			cmds = append(cmds, StopwatchTick())
		}
		return c, tea.Batch(cmds...)
	}

	if keyMsg, isKey := msg.(tea.KeyPressMsg); isKey {
		// Only scroll keys reach the viewport; typed keys belong to the
		// input surface and must not scroll the transcript.
		switch keyMsg.String() {
		case keys.PgUp, keys.PgDown, keys.CtrlUp, keys.CtrlDown, keys.Home, keys.End:
			var cmd tea.Cmd
			c.viewport, cmd = c.viewport.Update(msg)
			return c, cmd
		}
		return c, nil
	}

	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return c, tea.Batch(cmds...)
}

// View renders the transcript panel
func (c *Chat) View() string {
	panelStyle := PanelStyle
	if c.focused {
		panelStyle = PanelFocusedStyle
	}
	return panelStyle.Width(c.width - BorderSize).Height(c.height - BorderSize).Render(c.viewport.View())
}

// CollapsedView renders the one-line bar shown when the view is collapsed
func (c *Chat) CollapsedView() string {
	title := c.title
	if title == "" {
		title = "Chat"
	}
	label := "▸ " + title
	if n := len(c.messages); n > 0 {
		label += fmt.Sprintf(" (%d)", n)
	}
	return PanelCollapsedStyle.Width(c.width - BorderSize).Render(label)
}
