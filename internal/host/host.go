// Package host holds the boundary collaborators the chat views talk to: the
// responder that answers messages, the agent roster, and the mode/model
// option sets surfaced in the header menu.
package host

import "context"

// Agent is a responder personality the user can switch between. Whether the
// input surface accepts image attachments follows the active agent.
type Agent struct {
	ID             string
	Name           string
	Model          string
	SupportsImages bool
}

// ImagePart is one image attached to an outgoing message.
type ImagePart struct {
	Data     string // base64-encoded
	MimeType string
}

// Message is one outgoing user message.
type Message struct {
	ViewID string
	Text   string
	Images []ImagePart
}

// Responder answers user messages. Send blocks until the reply is complete
// or ctx is canceled; it is called from a goroutine, never the UI loop.
type Responder interface {
	Send(ctx context.Context, agent Agent, msg Message) (string, error)
	// Cancel stops the in-flight send for a view, best effort.
	Cancel(ctx context.Context, viewID string) error
}

// Streamer is implemented by responders that can deliver a reply
// incrementally. Deltas are sent on the channel as they arrive and the
// channel is closed before the call returns; the return value is the
// complete reply text.
type Streamer interface {
	SendStream(ctx context.Context, agent Agent, msg Message, deltas chan<- string) (string, error)
}

// Option is one selectable entry in a mode or model menu.
type Option struct {
	ID          string
	Name        string
	Description string
}

// OptionSet is a list of options with a current selection. Menus render
// only when more than one option exists.
type OptionSet struct {
	Options []Option
	Current string // ID of the selected option
}

// Selected returns the current option.
func (s OptionSet) Selected() (Option, bool) {
	for _, o := range s.Options {
		if o.ID == s.Current {
			return o, true
		}
	}
	return Option{}, false
}

// Select switches the current option. Returns false for unknown IDs.
func (s *OptionSet) Select(id string) bool {
	for _, o := range s.Options {
		if o.ID == id {
			s.Current = id
			return true
		}
	}
	return false
}

// Selectable reports whether the set offers a real choice.
func (s OptionSet) Selectable() bool {
	return len(s.Options) > 1
}
