// Package flow implements the Flow Core (C8): composable Runnable
// composites — SequentialFlow for conditional routing between agent
// steps, ParallelFlow for concurrent response/background branches — plus
// the prebuilt topologies spec.md §4.8.3 names (character_flow,
// chat_parallel/lina, sera).
package flow

import (
	"context"

	"github.com/lucidframe/conversa/internal/agent"
	"github.com/lucidframe/conversa/pkg/models"
)

// Runnable is the interface both a single agent.Runnable and a composite
// Flow satisfy, per spec.md §4.8's "A Flow is a Runnable": stream events
// to sink while running to completion.
type Runnable interface {
	Run(ctx context.Context, sink agent.EventSink) error
	// Underlying returns the concrete agent.Runnable backing this node, or
	// nil when the node is itself a composite Flow. Output adapters that
	// need to inspect an agent's Behavior (e.g. StrategyOutputAdapter) use
	// this instead of a type switch over every possible Flow type.
	Underlying() *agent.Runnable
}

// Agent wraps an *agent.Runnable so it satisfies Runnable.
func Agent(r *agent.Runnable) Runnable { return agentNode{r} }

type agentNode struct{ r *agent.Runnable }

func (a agentNode) Run(ctx context.Context, sink agent.EventSink) error {
	a.r.Emitter = agent.NewEventEmitter(sink)
	return a.r.Run(ctx)
}

func (a agentNode) Underlying() *agent.Runnable { return a.r }

// FlowNode is spec.md §4.8's FlowNode: a factory for a Runnable plus the
// adapters and selector a composite Flow drives it with.
type FlowNode struct {
	ID   string
	Name string

	Factory       func(ctx context.Context, ec models.ExecutionContext) (Runnable, error)
	InputAdapter  func(ec models.ExecutionContext) models.ExecutionContext
	OutputAdapter func(r Runnable, ec models.ExecutionContext) map[string]any
	NextSelector  func(ec models.ExecutionContext) (nodeID string, ok bool)

	IsBackground    bool
	CanStopResponse bool
}

// pathSink re-emits a nested Runnable's events through outer, tagging
// each with name via ExecutionEvent.WithPath and dropping the nested
// Runnable's own "final" event — composites emit one final of their own
// once the whole flow (or, for ParallelFlow, all response nodes) ends.
type pathSink struct {
	outer agent.EventSink
	path  string
}

func (s *pathSink) Emit(ctx context.Context, e models.ExecutionEvent) {
	if e.Type == models.EventFinal {
		return
	}
	s.outer.Emit(ctx, e.WithPath(s.path))
}
