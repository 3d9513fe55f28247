package agent

import (
	"context"
	"testing"
	"time"

	"github.com/lucidframe/conversa/internal/clock"
	"github.com/lucidframe/conversa/internal/llm"
	"github.com/lucidframe/conversa/internal/memory"
	"github.com/lucidframe/conversa/internal/storage"
	"github.com/lucidframe/conversa/internal/tools"
	"github.com/lucidframe/conversa/pkg/models"
)

type fakeProvider struct {
	texts     []string
	toolCalls []models.ToolCall
}

func (f *fakeProvider) Name() string       { return "fake" }
func (f *fakeProvider) Models() []llm.Model { return nil }
func (f *fakeProvider) SupportsTools() bool { return true }

func (f *fakeProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (<-chan *llm.CompletionChunk, error) {
	ch := make(chan *llm.CompletionChunk, len(f.texts)+len(f.toolCalls)+1)
	go func() {
		defer close(ch)
		for _, t := range f.texts {
			ch <- &llm.CompletionChunk{Text: t}
		}
		for i := range f.toolCalls {
			call := f.toolCalls[i]
			ch <- &llm.CompletionChunk{ToolCall: &call}
		}
		ch <- &llm.CompletionChunk{Done: true}
	}()
	return ch, nil
}

func newTestDeps(t *testing.T) (*memory.Facade, *clock.Clock) {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	clk := clock.New(s)
	s.AttachClock(clk)
	if _, err := s.GetOrCreate(context.Background(), "sess-1"); err != nil {
		t.Fatal(err)
	}
	return memory.New(s, nil), clk
}

type collectSink struct {
	events []models.ExecutionEvent
}

func (c *collectSink) Emit(ctx context.Context, e models.ExecutionEvent) { c.events = append(c.events, e) }

func TestChatBehaviorFinishesWithAssistantMessage(t *testing.T) {
	mem, clk := newTestDeps(t)
	sink := &collectSink{}
	behavior := &ChatBehavior{
		LLM:      &fakeProvider{texts: []string{"hello ", "there"}},
		Category: models.CategorySpeakInPerson,
	}
	r := NewRunnable("r1", "character", "sess-1", 3, mem, clk, sink, behavior)
	r.MessageType = "speak_in_person"

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	foundFinal := false
	for _, e := range sink.events {
		if e.Type == models.EventFinal {
			foundFinal = true
		}
	}
	if !foundFinal {
		t.Fatal("expected a final event")
	}

	msgs, _, err := mem.GetMessagesAroundTime(context.Background(), "sess-1", time.Now(), 24*time.Hour, 10, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello there" {
		t.Fatalf("expected one persisted assistant message, got %+v", msgs)
	}
}

func TestChatBehaviorEmptyContentErrors(t *testing.T) {
	mem, clk := newTestDeps(t)
	sink := &collectSink{}
	behavior := &ChatBehavior{LLM: &fakeProvider{}}
	r := NewRunnable("r1", "character", "sess-1", 1, mem, clk, sink, behavior)

	if err := r.Run(context.Background()); err == nil {
		t.Fatal("expected error on empty completion")
	}
}

func TestToolCallingBehaviorTerminates(t *testing.T) {
	mem, clk := newTestDeps(t)
	sink := &collectSink{}
	collection := tools.NewCollection(tools.TerminateTool{})
	behavior := &ToolCallingBehavior{
		LLM:   &fakeProvider{toolCalls: []models.ToolCall{{ID: "call_0", Name: "Terminate", Input: []byte(`{}`)}}},
		Tools: collection,
	}
	r := NewRunnable("r1", "character", "sess-1", 5, mem, clk, sink, behavior)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	msgs, _, err := mem.GetMessagesAroundTime(context.Background(), "sess-1", time.Now(), 24*time.Hour, 10, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	var sawToolMsg bool
	for _, m := range msgs {
		if m.Role == models.RoleTool && m.ToolName == "Terminate" {
			sawToolMsg = true
		}
	}
	if !sawToolMsg {
		t.Fatalf("expected a role=tool Terminate message, got %+v", msgs)
	}
}

func TestToolCallingBehaviorNoCallsFinishesImmediately(t *testing.T) {
	mem, clk := newTestDeps(t)
	sink := &collectSink{}
	behavior := &ToolCallingBehavior{
		LLM:   &fakeProvider{texts: []string{"just text, no tools"}},
		Tools: tools.NewCollection(),
	}
	r := NewRunnable("r1", "character", "sess-1", 5, mem, clk, sink, behavior)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.CurrentStep != 1 {
		t.Fatalf("expected exactly one step before finishing, got %d", r.CurrentStep)
	}
}

func TestStuckDetectorPrependsStrategyPrompt(t *testing.T) {
	mem, clk := newTestDeps(t)
	sink := &collectSink{}
	behavior := &ChatBehavior{LLM: &fakeProvider{texts: []string{"same answer"}}}
	r := NewRunnable("r1", "character", "sess-1", 1, mem, clk, sink, behavior)
	r.assistantHistory = []string{"same answer", "different"}

	r.runStuckDetector()
	if r.NextStepPrompt == "" {
		t.Fatal("expected stuck detector to set NextStepPrompt after a repeated message")
	}
}

func TestUserAgentRaisesSkipNextNodeOnCommand(t *testing.T) {
	mem, clk := newTestDeps(t)
	sink := &collectSink{}
	behavior := &UserAgentBehavior{InputMode: models.InputModeCommand, UserInput: "/reset"}
	r := NewRunnable("r1", "user", "sess-1", 1, mem, clk, sink, behavior)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !behavior.SkipNextNode {
		t.Fatal("expected SkipNextNode after COMMAND input_mode")
	}
}

func TestStrategyOutputAdapterDecodesDecision(t *testing.T) {
	behavior := &ToolCallingBehavior{Tools: tools.NewCollection(tools.StrategyTool{})}
	behavior.pendingCalls = []models.ToolCall{{Name: "Strategy"}}
	behavior.pendingResults = []*models.ToolResult{{Content: `{"decision":"telegram","strategy":"be brief"}`}}

	d, ok := StrategyOutputAdapter(behavior)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if d.Decision != "telegram" || d.Strategy != "be brief" {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestStrategyOutputAdapterEmptyWhenMissing(t *testing.T) {
	behavior := &ToolCallingBehavior{Tools: tools.NewCollection()}
	if _, ok := StrategyOutputAdapter(behavior); ok {
		t.Fatal("expected ok=false when Strategy was never called")
	}
}

func TestRunTwiceFailsNotIdle(t *testing.T) {
	mem, clk := newTestDeps(t)
	sink := &collectSink{}
	behavior := &ChatBehavior{LLM: &fakeProvider{texts: []string{"hi"}}}
	r := NewRunnable("r1", "character", "sess-1", 1, mem, clk, sink, behavior)
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	r.State = StateRunning
	if err := r.Run(context.Background()); err != ErrNotIdle {
		t.Fatalf("expected ErrNotIdle, got %v", err)
	}
}
