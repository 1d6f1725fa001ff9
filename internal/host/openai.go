package host

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jshelley/sidechat/internal/errors"
	"github.com/jshelley/sidechat/internal/logger"
)

// OpenAIResponder answers messages through an OpenAI-compatible endpoint.
// Cancellation works by canceling the per-view request context.
type OpenAIResponder struct {
	client *openai.Client

	mu      sync.Mutex
	cancels map[string]context.CancelFunc // keyed by view ID
}

// NewOpenAIResponder creates a responder for the given endpoint. baseURL may
// be empty for the default OpenAI endpoint.
func NewOpenAIResponder(apiKey, baseURL string) *OpenAIResponder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIResponder{
		client:  openai.NewClientWithConfig(cfg),
		cancels: make(map[string]context.CancelFunc),
	}
}

// track registers a cancel func for the view, canceling any previous send
// for it. The returned func unregisters and cancels.
func (r *OpenAIResponder) track(ctx context.Context, viewID string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	if prev, ok := r.cancels[viewID]; ok {
		prev()
	}
	r.cancels[viewID] = cancel
	r.mu.Unlock()

	return ctx, func() {
		r.mu.Lock()
		if r.cancels[viewID] != nil {
			delete(r.cancels, viewID)
		}
		r.mu.Unlock()
		cancel()
	}
}

// Send submits one message and blocks for the reply. A second Send for the
// same view cancels the first.
func (r *OpenAIResponder) Send(ctx context.Context, agent Agent, msg Message) (string, error) {
	const op = errors.Op("host.Send")

	ctx, done := r.track(ctx, msg.ViewID)
	defer done()

	req := openai.ChatCompletionRequest{
		Model:    agent.Model,
		Messages: []openai.ChatCompletionMessage{buildUserMessage(msg)},
	}

	log := logger.WithView(msg.ViewID)
	log.Debug("sending message", "agent", agent.ID, "images", len(msg.Images))

	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return "", errors.E(op, errors.KindCanceled, "send canceled", err)
		}
		return "", errors.E(op, errors.KindNetwork, fmt.Sprintf("request failed for view %s", msg.ViewID), err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.E(op, errors.KindHost, "empty response from host")
	}

	log.Debug("received reply", "chars", len(resp.Choices[0].Message.Content))
	return resp.Choices[0].Message.Content, nil
}

// SendStream submits one message and streams the reply. Deltas land on the
// channel as they arrive; the channel is closed before the call returns the
// complete reply text.
func (r *OpenAIResponder) SendStream(ctx context.Context, agent Agent, msg Message, deltas chan<- string) (string, error) {
	const op = errors.Op("host.SendStream")
	defer close(deltas)

	ctx, done := r.track(ctx, msg.ViewID)
	defer done()

	req := openai.ChatCompletionRequest{
		Model:    agent.Model,
		Messages: []openai.ChatCompletionMessage{buildUserMessage(msg)},
		Stream:   true,
	}

	log := logger.WithView(msg.ViewID)
	log.Debug("opening stream", "agent", agent.ID, "images", len(msg.Images))

	stream, err := r.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return "", errors.E(op, errors.KindCanceled, "send canceled", err)
		}
		return "", errors.E(op, errors.KindNetwork, fmt.Sprintf("request failed for view %s", msg.ViewID), err)
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		resp, err := stream.Recv()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() == context.Canceled {
				return "", errors.E(op, errors.KindCanceled, "send canceled", err)
			}
			return "", errors.E(op, errors.KindNetwork, fmt.Sprintf("stream failed for view %s", msg.ViewID), err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		reply.WriteString(delta)
		select {
		case deltas <- delta:
		case <-ctx.Done():
			return "", errors.E(op, errors.KindCanceled, "send canceled", ctx.Err())
		}
	}

	log.Debug("stream complete", "chars", reply.Len())
	return reply.String(), nil
}

// Cancel stops the in-flight send for a view. Canceling a view with nothing
// in flight is a no-op, not an error.
func (r *OpenAIResponder) Cancel(_ context.Context, viewID string) error {
	r.mu.Lock()
	cancel, ok := r.cancels[viewID]
	if ok {
		delete(r.cancels, viewID)
	}
	r.mu.Unlock()

	if ok {
		cancel()
		logger.WithView(viewID).Debug("send canceled")
	}
	return nil
}

// buildUserMessage converts an outgoing message to the wire shape. Text-only
// messages use the plain content field; attachments switch to multi-part
// content with data-URI image parts.
func buildUserMessage(msg Message) openai.ChatCompletionMessage {
	if len(msg.Images) == 0 {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: msg.Text,
		}
	}

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: msg.Text},
	}
	for _, img := range msg.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: fmt.Sprintf("data:%s;base64,%s", img.MimeType, img.Data),
			},
		})
	}
	return openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	}
}
