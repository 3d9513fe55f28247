package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lucidframe/conversa/pkg/models"
)

type dialogueHistoryArgs struct {
	Around string   `json:"around,omitempty"`
	From   string   `json:"from,omitempty"`
	To     string   `json:"to,omitempty"`
	Date   string   `json:"date,omitempty"`
	HalfRangeSeconds float64 `json:"half_range_seconds,omitempty"`
	K      int      `json:"k,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

var dialogueHistorySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"around": {"type": "string", "description": "RFC3339 timestamp; fetch messages closest to this instant."},
		"from": {"type": "string", "description": "RFC3339 range start; used with \"to\"."},
		"to": {"type": "string", "description": "RFC3339 range end; used with \"from\"."},
		"date": {"type": "string", "description": "RFC3339 date; fetch messages from this calendar day."},
		"half_range_seconds": {"type": "number", "description": "Half-width of the search window around \"around\", in seconds. Default 3600."},
		"k": {"type": "integer", "description": "Max messages per side. Default 10."},
		"categories": {"type": "array", "items": {"type": "string"}, "description": "Restrict to these message categories."}
	}
}`)

const (
	defaultHalfRangeSeconds = 3600
	defaultDialogueK        = 10
)

// DialogueHistoryTool retrieves transcript messages around an instant, over
// a range, or on a calendar day (spec.md §4.2, §4.5).
type DialogueHistoryTool struct{}

func (DialogueHistoryTool) Name() string        { return "DialogueHistory" }
func (DialogueHistoryTool) Description() string { return "Retrieve past dialogue messages around a time, over a range, or on a day." }
func (DialogueHistoryTool) Schema() json.RawMessage { return dialogueHistorySchema }

func (DialogueHistoryTool) Execute(ctx context.Context, args json.RawMessage, tc *Context) (*models.ToolResult, error) {
	var a dialogueHistoryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}

	k := a.K
	if k <= 0 {
		k = defaultDialogueK
	}
	categories := make([]models.Category, 0, len(a.Categories))
	for _, c := range a.Categories {
		categories = append(categories, models.Category(c))
	}

	type result struct {
		Messages []*models.Message  `json:"messages"`
		Meta     models.QueryMetadata `json:"meta"`
	}

	switch {
	case a.Around != "":
		t, err := parseTime(a.Around)
		if err != nil {
			return errorResult("invalid around: %v", err), nil
		}
		half := a.HalfRangeSeconds
		if half <= 0 {
			half = defaultHalfRangeSeconds
		}
		msgs, meta, err := tc.Memory.GetMessagesAroundTime(ctx, tc.SessionID, t, time.Duration(half*float64(time.Second)), k, categories, tc.CharacterID)
		if err != nil {
			return errorResult("lookup failed: %v", err), nil
		}
		return jsonResult(result{msgs, meta}), nil

	case a.From != "" && a.To != "":
		from, err := parseTime(a.From)
		if err != nil {
			return errorResult("invalid from: %v", err), nil
		}
		to, err := parseTime(a.To)
		if err != nil {
			return errorResult("invalid to: %v", err), nil
		}
		msgs, meta, err := tc.Memory.GetMessagesInRange(ctx, tc.SessionID, from, to, k, categories, tc.CharacterID)
		if err != nil {
			return errorResult("lookup failed: %v", err), nil
		}
		return jsonResult(result{msgs, meta}), nil

	case a.Date != "":
		d, err := parseTime(a.Date)
		if err != nil {
			return errorResult("invalid date: %v", err), nil
		}
		msgs, meta, err := tc.Memory.GetMessagesByDate(ctx, tc.SessionID, d, k, categories, tc.CharacterID)
		if err != nil {
			return errorResult("lookup failed: %v", err), nil
		}
		return jsonResult(result{msgs, meta}), nil

	default:
		now, err := tc.Clock.Now(tc.SessionID)
		if err != nil {
			return errorResult("clock lookup failed: %v", err), nil
		}
		msgs, meta, err := tc.Memory.GetMessagesAroundTime(ctx, tc.SessionID, now, defaultHalfRangeSeconds*time.Second, k, categories, tc.CharacterID)
		if err != nil {
			return errorResult("lookup failed: %v", err), nil
		}
		return jsonResult(result{msgs, meta}), nil
	}
}
