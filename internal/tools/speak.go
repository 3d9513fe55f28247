package tools

import (
	"context"
	"encoding/json"

	"github.com/lucidframe/conversa/pkg/models"
)

// speakArgs is the shared argument shape for the two inline speaking tools.
type speakArgs struct {
	Content string `json:"content"`
}

var inlineSchema = json.RawMessage(`{
	"type": "object",
	"properties": {"content": {"type": "string", "description": "Text to say to the user."}},
	"required": ["content"]
}`)

// SpeakInPersonTool produces inline, user-visible text for the
// face-to-face modality (spec.md §4.5).
type SpeakInPersonTool struct{}

func (SpeakInPersonTool) Name() string             { return "SpeakInPerson" }
func (SpeakInPersonTool) Description() string      { return "Say something out loud, face to face with the user." }
func (SpeakInPersonTool) Schema() json.RawMessage  { return inlineSchema }
func (SpeakInPersonTool) MessageType() string      { return "speak_in_person" }

func (t SpeakInPersonTool) Execute(_ context.Context, args json.RawMessage, _ *Context) (*models.ToolResult, error) {
	var a speakArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	// Inline tools don't emit their own events; the tool-calling agent
	// (internal/agent) surfaces an inline tool's content as token events
	// itself, keyed on the Inline interface (spec.md §4.7.2).
	return &models.ToolResult{Content: a.Content}, nil
}

// SendTelegramMessageTool produces inline, user-visible text for the
// telegram-style chat modality (spec.md §4.5).
type SendTelegramMessageTool struct{}

func (SendTelegramMessageTool) Name() string            { return "SendTelegramMessage" }
func (SendTelegramMessageTool) Description() string     { return "Send a chat message to the user over Telegram." }
func (SendTelegramMessageTool) Schema() json.RawMessage { return inlineSchema }
func (SendTelegramMessageTool) MessageType() string     { return "send_telegram_message" }

func (t SendTelegramMessageTool) Execute(_ context.Context, args json.RawMessage, _ *Context) (*models.ToolResult, error) {
	var a speakArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	return &models.ToolResult{Content: a.Content}, nil
}
