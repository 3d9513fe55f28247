package llm

import (
	"testing"

	"github.com/lucidframe/conversa/pkg/models"
)

func TestRepairTranscript_DropsOrphanedToolResult(t *testing.T) {
	history := []*models.Message{
		{Role: models.RoleUser, Content: "what's the weather"},
		{Role: models.RoleTool, ToolCallID: "call_1", Content: "72F"},
	}

	repaired := repairTranscript(history)

	if len(repaired) != 1 {
		t.Fatalf("expected orphaned tool result to be dropped, got %d messages", len(repaired))
	}
	if repaired[0].Role != models.RoleUser {
		t.Errorf("expected surviving message to be the user turn, got %v", repaired[0].Role)
	}
}

func TestRepairTranscript_KeepsMatchedToolResult(t *testing.T) {
	history := []*models.Message{
		{Role: models.RoleUser, Content: "what's the weather"},
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: "call_1", Name: "get_weather"}}},
		{Role: models.RoleTool, ToolCallID: "call_1", Content: "72F"},
	}

	repaired := repairTranscript(history)

	if len(repaired) != 3 {
		t.Fatalf("expected all 3 messages to survive, got %d", len(repaired))
	}
	if repaired[2].ToolCallID != "call_1" {
		t.Errorf("expected tool result to keep its call id, got %q", repaired[2].ToolCallID)
	}
}

func TestRepairTranscript_ClearsPendingOnNextAssistantTurn(t *testing.T) {
	history := []*models.Message{
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: "call_1", Name: "get_weather"}}},
		{Role: models.RoleAssistant, Content: "never mind"},
		{Role: models.RoleTool, ToolCallID: "call_1", Content: "stale result"},
	}

	repaired := repairTranscript(history)

	if len(repaired) != 2 {
		t.Fatalf("expected the stale tool result to be dropped, got %d messages", len(repaired))
	}
}
