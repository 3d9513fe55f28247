package httpapi

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lucidframe/conversa/pkg/models"
)

// responseCollector is an agent.EventSink that buffers one run's events
// into spec.md §6's non-streaming chat-completion response shape, the
// buffering counterpart to stream.Sink's SSE transport.
type responseCollector struct {
	content     string
	toolOutputs []models.ExecutionEvent
	errored     bool
	errMsg      string
}

func newResponseCollector() *responseCollector { return &responseCollector{} }

func (c *responseCollector) Emit(_ context.Context, e models.ExecutionEvent) {
	switch e.Type {
	case models.EventToken:
		c.content += e.Content
	case models.EventToolOutput:
		c.toolOutputs = append(c.toolOutputs, e)
	case models.EventError:
		c.errored = true
		c.errMsg = e.Content
	}
}

func (c *responseCollector) response(model, sessionID string) chatCompletionResponse {
	finish := "stop"
	content := c.content
	if c.errored {
		finish = "error"
		content = c.errMsg
	}
	return chatCompletionResponse{
		ID:        "chatcmpl-" + uuid.NewString(),
		Object:    "chat.completion",
		Created:   time.Now().Unix(),
		Model:     model,
		SessionID: sessionID,
		Choices: []chatChoice{
			{
				Index: 0,
				Message: chatMessage{
					Role:        string(models.RoleAssistant),
					Content:     content,
					ToolOutputs: c.toolOutputs,
				},
				FinishReason: finish,
			},
		},
	}
}
