// Package llm abstracts the streaming chat-completion surface that agents
// and flows build on, independent of which provider backs a given model.
package llm

import (
	"context"

	"github.com/lucidframe/conversa/pkg/models"
)

// Model describes a model a Provider can serve.
type Model struct {
	ID             string
	Name           string
	ContextSize    int
	SupportsVision bool
}

// Tool is the shape a provider needs to advertise a callable tool to the
// underlying LLM API, independent of how the tool actually executes.
type Tool interface {
	Name() string
	Description() string
	Schema() []byte // JSON Schema for the tool's arguments
}

// CompletionMessage is one turn in a completion request, in the provider-
// agnostic shape providers.convertMessages/convertToOpenAIMessages translate
// from.
type CompletionMessage struct {
	Role        string
	Content     string
	ToolCalls   []models.ToolCall
	ToolResults []models.ToolResult
	Attachments []models.Attachment
}

// CompletionRequest is a single streaming completion call.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []CompletionMessage
	Tools       []Tool
	MaxTokens   int
	Temperature float64
}

// CompletionChunk is one unit of a streaming completion response. Exactly
// one field beyond Error/Done is normally populated per chunk.
type CompletionChunk struct {
	Text          string
	Thinking      string
	ThinkingStart bool
	ThinkingEnd   bool
	ToolCall      *models.ToolCall
	Done          bool
	InputTokens   int
	OutputTokens  int
	Error         error
}

// Provider is the streaming chat-completion contract a provider package
// (openai, anthropic, ...) implements.
type Provider interface {
	Name() string
	Models() []Model
	SupportsTools() bool
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)
}
