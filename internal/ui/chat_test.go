package ui

import (
	"strings"
	"testing"
	"time"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "0.5s"},
		{1200 * time.Millisecond, "1.2s"},
		{59 * time.Second, "59.0s"},
		{time.Minute, "1:00"},
		{83 * time.Second, "1:23"},
		{10*time.Minute + 5*time.Second, "10:05"},
	}

	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestRenderMarkdownPlainText(t *testing.T) {
	got := renderMarkdown("hello\nworld", 80)
	if got != "hello\nworld" {
		t.Errorf("Expected plain text unchanged, got %q", got)
	}
}

func TestRenderMarkdownCodeBlock(t *testing.T) {
	input := "before\n```go\nfunc main() {}\n```\nafter"
	got := renderMarkdown(input, 80)

	if !strings.Contains(got, "before") || !strings.Contains(got, "after") {
		t.Error("Expected surrounding text preserved")
	}
	if strings.Contains(got, "```") {
		t.Error("Expected code fences consumed")
	}
	if !strings.Contains(got, "main") {
		t.Error("Expected code content preserved")
	}
}

func TestRenderMarkdownUnterminatedCodeBlock(t *testing.T) {
	got := renderMarkdown("```python\nprint(1)", 80)
	if !strings.Contains(got, "print") {
		t.Error("Expected unterminated code block content rendered")
	}
}

func TestChatStreamingLifecycle(t *testing.T) {
	c := NewChat()
	c.SetSize(80, 24)

	c.AddUserMessage("hi")
	c.SetWaiting(true)
	if !c.IsWaiting() {
		t.Error("Expected waiting after SetWaiting")
	}

	c.SetWaiting(false)
	c.AppendStreaming("Hello")
	c.AppendStreaming(", there")
	if !c.IsStreaming() {
		t.Error("Expected streaming while tail is non-empty")
	}

	c.FinishStreaming()
	if c.IsStreaming() {
		t.Error("Expected streaming finished")
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Role != "assistant" || msgs[1].Content != "Hello, there" {
		t.Errorf("Expected streamed reply folded in, got %+v", msgs[1])
	}
}

func TestChatFinishStreamingEmptyIsNoOp(t *testing.T) {
	c := NewChat()
	c.FinishStreaming()
	if len(c.Messages()) != 0 {
		t.Error("Expected no message from an empty streaming tail")
	}
}

func TestChatClear(t *testing.T) {
	c := NewChat()
	c.AddUserMessage("hi")
	c.AppendStreaming("partial")
	c.SetWaiting(true)

	c.Clear()

	if len(c.Messages()) != 0 || c.IsStreaming() || c.IsWaiting() {
		t.Error("Expected Clear to empty the transcript")
	}
}

func TestChatCollapsedView(t *testing.T) {
	c := NewChat()
	c.SetSize(40, 10)
	c.SetTitle("Research")
	c.AddUserMessage("one")
	c.AddUserMessage("two")

	view := c.CollapsedView()
	if !strings.Contains(view, "Research") {
		t.Error("Expected title in collapsed view")
	}
	if !strings.Contains(view, "(2)") {
		t.Error("Expected message count in collapsed view")
	}
}

func TestPlainTranscriptStripsStyling(t *testing.T) {
	c := NewChat()
	c.SetAgentName("Helper")
	c.AddUserMessage("show me hello world")
	c.AddAssistantMessage("```go\nfmt.Println(\"hi\")\n```")

	plain := c.PlainTranscript()

	if !strings.Contains(plain, "You:") || !strings.Contains(plain, "Helper:") {
		t.Errorf("Expected role labels in transcript, got %q", plain)
	}
	if !strings.Contains(plain, `fmt.Println("hi")`) {
		t.Errorf("Expected code content preserved, got %q", plain)
	}
	if strings.Contains(plain, "\x1b[") {
		t.Error("Expected no escape sequences in plain transcript")
	}
}

func TestPlainTranscriptEmpty(t *testing.T) {
	c := NewChat()
	if got := c.PlainTranscript(); got != "" {
		t.Errorf("Expected empty transcript, got %q", got)
	}
}
