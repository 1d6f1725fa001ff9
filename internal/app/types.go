package app

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jshelley/sidechat/internal/draft"
	"github.com/jshelley/sidechat/internal/errors"
	"github.com/jshelley/sidechat/internal/host"
	"github.com/jshelley/sidechat/internal/ui"
	"github.com/jshelley/sidechat/internal/view"
)

// ChatView is one chat window: a transcript, a draft, and a connection to
// the host. The docked panel and every floating window are ChatViews; only
// their view type differs.
type ChatView struct {
	id       string
	viewType view.Type
	baseName string

	chat  *ui.Chat
	draft draft.State

	focused   bool
	collapsed bool
	sending   bool

	agent     host.Agent
	responder host.Responder
}

// NewChatView creates a view with a fresh ID.
func NewChatView(t view.Type, baseName string, agent host.Agent, responder host.Responder) *ChatView {
	v := &ChatView{
		id:        uuid.NewString(),
		viewType:  t,
		baseName:  baseName,
		chat:      ui.NewChat(),
		agent:     agent,
		responder: responder,
	}
	v.chat.SetTitle(baseName)
	v.chat.SetAgentName(agent.Name)
	return v
}

// ViewID returns the stable unique ID of this view.
func (v *ChatView) ViewID() string { return v.id }

// ViewType reports whether the view is docked or floating.
func (v *ChatView) ViewType() view.Type { return v.viewType }

// DisplayName returns the view's base name; the registry adds suffixes.
func (v *ChatView) DisplayName() string { return v.baseName }

// OnActivate is called by the registry when the view gains focus.
func (v *ChatView) OnActivate() {}

// OnDeactivate is called by the registry when the view loses focus.
func (v *ChatView) OnDeactivate() {
	v.focused = false
	v.chat.SetFocused(false)
}

// Focus brings the view to the front. A collapsed view reopens.
func (v *ChatView) Focus() {
	v.focused = true
	v.collapsed = false
	v.chat.SetFocused(true)
}

// HasFocus reports whether this view currently holds focus.
func (v *ChatView) HasFocus() bool { return v.focused }

// Expand opens the view's body.
func (v *ChatView) Expand() { v.collapsed = false }

// Collapse shrinks the view to its title bar.
func (v *ChatView) Collapse() { v.collapsed = true }

// IsCollapsed reports whether only the title bar shows.
func (v *ChatView) IsCollapsed() bool { return v.collapsed }

// InputState returns a copy of the view's current draft.
func (v *ChatView) InputState() draft.State { return v.draft.Clone() }

// SetInputState replaces the view's draft.
func (v *ChatView) SetInputState(s draft.State) { v.draft = s }

// SetAgent switches the agent answering this view. Staged images are
// dropped when the new agent cannot accept them.
func (v *ChatView) SetAgent(agent host.Agent) {
	v.agent = agent
	v.chat.SetAgentName(agent.Name)
	if !agent.SupportsImages {
		v.draft.ResetImages()
	}
}

// Agent returns the agent answering this view.
func (v *ChatView) Agent() host.Agent { return v.agent }

// SetModel overrides the model for this view only.
func (v *ChatView) SetModel(model string) { v.agent.Model = model }

// Chat returns the view's transcript surface.
func (v *ChatView) Chat() *ui.Chat { return v.chat }

// CanSend reports whether the view could submit right now.
func (v *ChatView) CanSend() bool {
	if v.sending {
		return false
	}
	return strings.TrimSpace(v.draft.Text) != "" || len(v.draft.Images) > 0
}

// outgoingMessage builds the host message for the current draft.
func (v *ChatView) outgoingMessage() host.Message {
	msg := host.Message{ViewID: v.id, Text: v.draft.Text}
	for _, img := range v.draft.Images {
		msg.Images = append(msg.Images, host.ImagePart{Data: img.Data, MimeType: img.MimeType})
	}
	return msg
}

// SendMessage submits the current draft synchronously: the user turn is
// appended, the draft cleared, and the reply folded into the transcript.
// The event-loop send path goes through the coordinator instead so the
// reply arrives as a message; this method serves registry-level callers.
func (v *ChatView) SendMessage(ctx context.Context) error {
	const op = errors.Op("app.ChatView.SendMessage")
	if !v.CanSend() {
		return errors.E(op, errors.KindInvalid, "nothing to send")
	}

	msg := v.outgoingMessage()
	v.chat.AddUserMessage(v.draft.Text)
	v.draft.Clear()

	v.sending = true
	reply, err := v.responder.Send(ctx, v.agent, msg)
	v.sending = false
	if err != nil {
		return errors.E(op, err)
	}
	v.chat.AddAssistantMessage(reply)
	return nil
}

// CancelOperation stops an in-flight send, best effort.
func (v *ChatView) CancelOperation(ctx context.Context) error {
	return v.responder.Cancel(ctx, v.id)
}
