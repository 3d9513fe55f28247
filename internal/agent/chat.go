package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/lucidframe/conversa/internal/llm"
	"github.com/lucidframe/conversa/pkg/models"
)

// ErrEmptyCompletion is returned when a chat-style agent's step produces
// no text at all; the caller transitions the Runnable to ERROR.
var ErrEmptyCompletion = errors.New("agent: empty completion content")

// defaultChatWindow bounds how many messages of context a chat-style
// agent's single step sees.
const defaultChatWindow = 40

// ChatBehavior is the single-step, no-tools agent of spec.md §4.7.1: it
// drains an LLM stream into token events tagged with MessageType, then
// persists one assistant Message under Category and finishes.
type ChatBehavior struct {
	LLM          llm.Provider
	Model        string
	SystemPrompt string
	Category     models.Category
	WindowK      int
}

// IngestInput is a no-op: a chat-style agent only ever responds to
// whatever is already in memory; it never originates new user input.
func (b *ChatBehavior) IngestInput(ctx context.Context, r *Runnable) error { return nil }

func (b *ChatBehavior) StepStream(ctx context.Context, r *Runnable) error {
	k := b.WindowK
	if k <= 0 {
		k = defaultChatWindow
	}
	msgs, err := loadWindow(ctx, r, k)
	if err != nil {
		return err
	}

	req := &llm.CompletionRequest{
		Model:    b.Model,
		System:   b.SystemPrompt + r.NextStepPrompt,
		Messages: toCompletionMessages(msgs),
	}
	r.NextStepPrompt = ""

	chunks, err := b.LLM.Complete(ctx, req)
	if err != nil {
		return err
	}

	var sb strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return chunk.Error
		}
		if chunk.Text != "" {
			sb.WriteString(chunk.Text)
			r.Emitter.Token(ctx, chunk.Text, r.MessageType)
		}
		if chunk.Done {
			break
		}
	}

	content := sb.String()
	if content == "" {
		r.State = StateError
		r.Emitter.Error(ctx, ErrEmptyCompletion)
		return ErrEmptyCompletion
	}

	now, err := r.Clock.Now(r.SessionID)
	if err != nil {
		return err
	}
	msg := &models.Message{
		SessionID:            r.SessionID,
		Role:                 models.RoleAssistant,
		Content:              content,
		Category:             b.Category,
		CreatedAt:            now,
		VisibleForCharacters: r.VisibleForCharacters,
	}
	if err := r.Memory.AddMessage(ctx, msg); err != nil {
		return err
	}
	r.RecordAssistantContent(content)
	r.State = StateFinished
	return nil
}
