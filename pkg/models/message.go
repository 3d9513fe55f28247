package models

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a Message in the LLM transcript sense.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Category classifies a Message by modality, independent of Role.
// Dialogue-turn counting (count_dialogue_messages) filters on
// Telegram/SpeakInPerson specifically.
type Category string

const (
	CategoryNormal            Category = "NORMAL"
	CategoryTelegram          Category = "TELEGRAM"
	CategorySpeakInPerson     Category = "SPEAK_IN_PERSON"
	CategoryThought           Category = "THOUGHT"
	CategorySystemInstruction Category = "SYSTEM_INSTRUCTION"
)

// Message is a single row in a session's transcript. Every role=tool row
// must carry a non-empty ToolCallID; every tool_calls entry on an
// assistant row must carry a unique ID. See internal/llm's transcript
// repair pass for the invariant enforced before a provider call.
type Message struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content,omitempty"`
	Speaker   string     `json:"speaker,omitempty"`

	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolName   string      `json:"tool_name,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`

	Category  Category `json:"category"`
	CreatedAt time.Time `json:"created_at"`

	// VisibleForCharacters is empty iff the message is visible to every
	// character in the session; otherwise it lists the exact set.
	VisibleForCharacters []string `json:"visible_for_characters,omitempty"`
}

// ToolCall represents an LLM's request to execute a tool.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult represents the output of one tool execution.
type ToolResult struct {
	ToolCallID  string       `json:"tool_call_id"`
	Content     string       `json:"content"`
	IsError     bool         `json:"is_error,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is an inline media reference carried on a message or tool
// result, e.g. an image a vision-capable model should see.
type Attachment struct {
	Type     string `json:"type"`
	MimeType string `json:"mime_type,omitempty"`
	URL      string `json:"url"` // http(s) URL or a data: URL
}

// Session owns all messages, periods, relations, and clock state for one
// conversation. Auto-created on first write via GetOrCreate.
type Session struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`     // virtual
	UpdatedAt     time.Time `json:"updated_at"`     // virtual
	RealUpdatedAt time.Time `json:"real_updated_at"`
}

// QueryMetadata tells the caller whether more data exists on either side
// of a requested window, so callers can decide whether to paginate.
type QueryMetadata struct {
	HasMoreBefore bool      `json:"has_more_before"`
	HasMoreAfter  bool      `json:"has_more_after"`
	TimePoint     time.Time `json:"time_point"`
}
