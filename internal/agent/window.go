package agent

import (
	"context"
	"time"

	"github.com/lucidframe/conversa/internal/llm"
	"github.com/lucidframe/conversa/pkg/models"
)

// lookbackWindow bounds how far back loadWindow reaches when building the
// provider-facing conversation window; it is intentionally generous since
// GetMessagesAroundTime already caps row count via k.
const lookbackWindow = 365 * 24 * time.Hour

// loadWindow fetches the k messages closest to "now" on a session's
// virtual timeline, scoped to r's character visibility, for use as a
// provider completion's conversation window (spec.md §4.7.2's "think").
func loadWindow(ctx context.Context, r *Runnable, k int) ([]*models.Message, error) {
	now, err := r.Clock.Now(r.SessionID)
	if err != nil {
		return nil, err
	}
	msgs, _, err := r.Memory.GetMessagesAroundTime(ctx, r.SessionID, now, lookbackWindow, k, nil, r.CharacterID)
	return msgs, err
}

// toCompletionMessages repairs the transcript per internal/llm's pairing
// invariant, then converts to the provider-agnostic completion shape.
func toCompletionMessages(msgs []*models.Message) []llm.CompletionMessage {
	repaired := llm.RepairTranscript(msgs)
	out := make([]llm.CompletionMessage, 0, len(repaired))
	for _, m := range repaired {
		cm := llm.CompletionMessage{Role: string(m.Role), Content: m.Content, ToolCalls: m.ToolCalls}
		if m.Role == models.RoleTool {
			cm.ToolResults = []models.ToolResult{{ToolCallID: m.ToolCallID, Content: m.Content}}
		}
		out = append(out, cm)
	}
	return out
}
