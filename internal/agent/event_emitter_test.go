package agent

import (
	"context"
	"testing"

	"github.com/lucidframe/conversa/pkg/models"
)

func TestEventEmitter_TokenSuppressesEmptyContent(t *testing.T) {
	ch := make(chan models.ExecutionEvent, 4)
	emitter := NewEventEmitter(NewChanSink(ch))
	ctx := context.Background()

	emitter.Token(ctx, "", "chat")
	select {
	case ev := <-ch:
		t.Fatalf("expected no event for empty content, got %+v", ev)
	default:
	}

	emitter.Token(ctx, "hello", "chat")
	select {
	case ev := <-ch:
		if ev.Type != models.EventToken || ev.MessageType != "chat" {
			t.Errorf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("expected a token event")
	}
}

func TestEventEmitter_FinalAndError(t *testing.T) {
	ch := make(chan models.ExecutionEvent, 4)
	emitter := NewEventEmitter(NewChanSink(ch))
	ctx := context.Background()

	emitter.Final(ctx)
	ev := <-ch
	if ev.Type != models.EventFinal {
		t.Errorf("expected final event, got %+v", ev)
	}

	emitter.Error(ctx, errSample)
	ev = <-ch
	if ev.Type != models.EventError || ev.Content != errSample.Error() {
		t.Errorf("expected error event with message, got %+v", ev)
	}
}

var errSample = sampleErr("boom")

type sampleErr string

func (e sampleErr) Error() string { return string(e) }
