package tools

import (
	"context"
	"encoding/json"

	"github.com/lucidframe/conversa/pkg/models"
)

type reflectionArgs struct {
	Thought string `json:"thought"`
}

var reflectionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"thought": {"type": "string", "description": "Private reasoning, not shown to the user."}
	},
	"required": ["thought"]
}`)

// ReflectionTool records a private chain-of-thought message, category
// THOUGHT, never surfaced to the user (spec.md §4.5).
type ReflectionTool struct{}

func (ReflectionTool) Name() string            { return "Reflection" }
func (ReflectionTool) Description() string     { return "Record a private thought; not visible to the user." }
func (ReflectionTool) Schema() json.RawMessage { return reflectionSchema }

func (ReflectionTool) Execute(ctx context.Context, args json.RawMessage, tc *Context) (*models.ToolResult, error) {
	var a reflectionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}

	now, err := tc.Clock.Now(tc.SessionID)
	if err != nil {
		return errorResult("clock lookup failed: %v", err), nil
	}
	msg := &models.Message{
		SessionID: tc.SessionID,
		Role:      models.RoleAssistant,
		Content:   a.Thought,
		Category:  models.CategoryThought,
		CreatedAt: now,
	}
	if tc.CharacterID != "" {
		msg.VisibleForCharacters = []string{tc.CharacterID}
	}
	if err := tc.Memory.AddMessage(ctx, msg); err != nil {
		return errorResult("record failed: %v", err), nil
	}
	return &models.ToolResult{Content: "recorded"}, nil
}
