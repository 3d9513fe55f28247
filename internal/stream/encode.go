// Package stream implements the Streaming Boundary (C9): the mapping
// from internal/agent's ExecutionEvents onto a wire frame shape, plus the
// SSE transport that serializes them per spec.md §4.9.
package stream

import (
	"strings"

	"github.com/lucidframe/conversa/pkg/models"
)

// ToolEventRider tags a content frame with which display lane it belongs
// on, per spec.md §4.9's "optional tool_event{message_type, message_id}
// rider so clients can route chunks to separate display lanes".
type ToolEventRider struct {
	MessageType string `json:"message_type,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
}

// FrameType is the wire-level discriminant a client switches on.
type FrameType string

const (
	FrameContent    FrameType = "content"
	FrameToolStatus FrameType = "tool_status"
	FrameFinish     FrameType = "finish"
)

// Frame is one SSE payload, JSON-encoded into a "data: " line.
type Frame struct {
	Type      FrameType       `json:"type"`
	Content   string          `json:"content,omitempty"`
	ToolEvent *ToolEventRider `json:"tool_event,omitempty"`
	FlowStage string          `json:"flow_stage,omitempty"`
}

// EncodeEvent maps one ExecutionEvent to its wire Frame per spec.md
// §4.9's table. ok is false when the event produces no frame at all:
// "done" is handled by the transport's own terminator sentinel rather
// than a frame, and an empty-content token is suppressed after a
// whitespace-normalization pass so clients never see blank deltas.
func EncodeEvent(e models.ExecutionEvent) (Frame, bool) {
	switch e.Type {
	case models.EventToken:
		if strings.TrimSpace(e.Content) == "" {
			return Frame{}, false
		}
		return Frame{Type: FrameContent, Content: e.Content, ToolEvent: riderFor(e)}, true

	case models.EventToolOutput:
		return Frame{Type: FrameContent, Content: e.Content, ToolEvent: riderFor(e)}, true

	case models.EventToolStatus, models.EventStep:
		return Frame{Type: FrameToolStatus, Content: e.Content}, true

	case models.EventFlowStep:
		return Frame{Type: FrameToolStatus, Content: e.Content, FlowStage: e.Content}, true

	case models.EventError:
		return Frame{Type: FrameToolStatus, Content: "❌ " + e.Content}, true

	case models.EventFinal:
		return Frame{Type: FrameFinish}, true

	default:
		return Frame{}, false
	}
}

func riderFor(e models.ExecutionEvent) *ToolEventRider {
	if e.MessageType == "" && e.MessageID == "" {
		return nil
	}
	return &ToolEventRider{MessageType: e.MessageType, MessageID: e.MessageID}
}
