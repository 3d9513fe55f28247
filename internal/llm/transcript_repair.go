package llm

import "github.com/lucidframe/conversa/pkg/models"

// repairTranscript enforces the invariant a provider call depends on: every
// role=tool message's ToolCallID must match a tool_calls entry on the
// immediately preceding assistant message, and every such entry gets at
// most one matching result. Orphaned tool results (the assistant message
// that requested them got trimmed by windowing, or arrived twice) are
// dropped rather than sent upstream, since most providers reject a
// tool-result message with no matching pending call.
// RepairTranscript is the exported entry point callers (agents building a
// CompletionRequest) use before sending history to a provider.
func RepairTranscript(history []*models.Message) []*models.Message {
	return repairTranscript(history)
}

func repairTranscript(history []*models.Message) []*models.Message {
	if len(history) == 0 {
		return history
	}

	pending := make(map[string]struct{})
	pendingOrder := make([]string, 0)
	repaired := make([]*models.Message, 0, len(history))

	clearPending := func() {
		for k := range pending {
			delete(pending, k)
		}
		pendingOrder = pendingOrder[:0]
	}

	for _, msg := range history {
		if msg == nil {
			continue
		}

		switch msg.Role {
		case models.RoleAssistant:
			clearPending()
			for _, call := range msg.ToolCalls {
				if call.ID == "" {
					continue
				}
				pending[call.ID] = struct{}{}
				pendingOrder = append(pendingOrder, call.ID)
			}
			repaired = append(repaired, msg)
		case models.RoleTool:
			id := msg.ToolCallID
			if id == "" && len(pendingOrder) > 0 {
				id = pendingOrder[0]
			}
			if id == "" {
				continue
			}
			if _, ok := pending[id]; !ok {
				continue
			}
			delete(pending, id)
			pendingOrder = removeID(pendingOrder, id)
			copied := *msg
			copied.ToolCallID = id
			repaired = append(repaired, &copied)
		default:
			repaired = append(repaired, msg)
		}
	}

	return repaired
}

func removeID(ids []string, target string) []string {
	for i, id := range ids {
		if id == target {
			copy(ids[i:], ids[i+1:])
			return ids[:len(ids)-1]
		}
	}
	return ids
}
