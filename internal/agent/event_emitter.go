package agent

import (
	"context"

	"github.com/lucidframe/conversa/pkg/models"
)

// EventEmitter builds ExecutionEvents for a single Runnable invocation and
// dispatches them to a sink. It carries no sequencing state of its own
// beyond the current step/total; ordering within one Runnable is
// guaranteed by the producing goroutine emitting in program order, so
// ExecutionEvent has no monotonic sequence field to reconstruct it.
type EventEmitter struct {
	sink EventSink
}

// NewEventEmitter creates an emitter over sink. A nil sink becomes NopSink.
func NewEventEmitter(sink EventSink) *EventEmitter {
	if sink == nil {
		sink = NopSink{}
	}
	return &EventEmitter{sink: sink}
}

func (e *EventEmitter) emit(ctx context.Context, ev models.ExecutionEvent) models.ExecutionEvent {
	e.sink.Emit(ctx, ev)
	return ev
}

// Step emits a step header event, consumed by agent-level loops.
func (e *EventEmitter) Step(ctx context.Context, step, totalSteps int) models.ExecutionEvent {
	return e.emit(ctx, models.ExecutionEvent{Type: models.EventStep, Step: step, TotalSteps: totalSteps})
}

// FlowStep emits a flow-level stage header, consumed by SequentialFlow and
// ParallelFlow before re-emitting a nested Runnable's events.
func (e *EventEmitter) FlowStep(ctx context.Context, nodeName string) models.ExecutionEvent {
	return e.emit(ctx, models.ExecutionEvent{Type: models.EventFlowStep, Content: nodeName})
}

// Token emits an incremental text chunk tagged with the agent's message
// type (e.g. "speak_in_person", "send_telegram_message", "chat"), so a
// client can route chunks to the right display lane.
func (e *EventEmitter) Token(ctx context.Context, content, messageType string) models.ExecutionEvent {
	if content == "" {
		return models.ExecutionEvent{}
	}
	return e.emit(ctx, models.ExecutionEvent{Type: models.EventToken, Content: content, MessageType: messageType})
}

// ToolStatus emits a side-channel status line, e.g. "🔧 running web_search".
func (e *EventEmitter) ToolStatus(ctx context.Context, content string) models.ExecutionEvent {
	return e.emit(ctx, models.ExecutionEvent{Type: models.EventToolStatus, Content: content})
}

// ToolOutput emits a complete tool payload as a side-channel event, tagged
// with the tool's name as MessageType so clients distinguish payload kinds.
func (e *EventEmitter) ToolOutput(ctx context.Context, toolName, messageID, content string) models.ExecutionEvent {
	return e.emit(ctx, models.ExecutionEvent{
		Type:        models.EventToolOutput,
		Content:     content,
		MessageType: toolName,
		MessageID:   messageID,
	})
}

// Final emits the terminal completion marker for this Runnable.
func (e *EventEmitter) Final(ctx context.Context) models.ExecutionEvent {
	return e.emit(ctx, models.ExecutionEvent{Type: models.EventFinal})
}

// Error emits an error event; the stream still closes afterward per §7.
func (e *EventEmitter) Error(ctx context.Context, err error) models.ExecutionEvent {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return e.emit(ctx, models.ExecutionEvent{Type: models.EventError, Content: msg})
}

// Done emits the outermost stream-closed sentinel (§4.9's terminator).
func (e *EventEmitter) Done(ctx context.Context) models.ExecutionEvent {
	return e.emit(ctx, models.ExecutionEvent{Type: models.EventDone})
}
