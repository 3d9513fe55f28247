package flow

import (
	"context"

	"github.com/lucidframe/conversa/internal/agent"
	"github.com/lucidframe/conversa/pkg/models"
)

// SequentialFlow is spec.md §4.8.1: executes nodes[0], then repeatedly
// executes a node, merges its output into the shared context, asks
// next_selector for the next node id, and stops on null/unknown/missing
// selector. A visited-set prevents cycles (a second visit to the same
// node id terminates the flow instead of looping).
type SequentialFlow struct {
	ID    string
	Name  string
	EC    models.ExecutionContext
	Nodes []FlowNode
}

// NewSequentialFlow returns a flow bound to one execution context. A Flow
// value is single-use — construct a fresh one per request/turn.
func NewSequentialFlow(id, name string, ec models.ExecutionContext, nodes ...FlowNode) *SequentialFlow {
	return &SequentialFlow{ID: id, Name: name, EC: ec, Nodes: nodes}
}

func (f *SequentialFlow) Underlying() *agent.Runnable { return nil }

func (f *SequentialFlow) Run(ctx context.Context, sink agent.EventSink) error {
	emitter := agent.NewEventEmitter(sink)
	if len(f.Nodes) == 0 {
		emitter.Final(ctx)
		return nil
	}

	byID := make(map[string]*FlowNode, len(f.Nodes))
	for i := range f.Nodes {
		byID[f.Nodes[i].ID] = &f.Nodes[i]
	}

	visited := make(map[string]bool, len(f.Nodes))
	ec := f.EC
	node := &f.Nodes[0]

	for node != nil {
		if visited[node.ID] {
			break
		}
		visited[node.ID] = true

		if node.InputAdapter != nil {
			ec = node.InputAdapter(ec)
		}

		emitter.FlowStep(ctx, node.Name)
		run, err := node.Factory(ctx, ec)
		if err != nil {
			emitter.Error(ctx, err)
			f.EC = ec
			return err
		}

		if err := run.Run(ctx, &pathSink{outer: sink, path: node.Name}); err != nil {
			f.EC = ec
			return err
		}

		var out map[string]any
		if node.OutputAdapter != nil {
			out = node.OutputAdapter(run, ec)
		}
		if len(out) > 0 {
			ec = ec.Merge(out)
		}

		if node.NextSelector == nil {
			break
		}
		nextID, ok := node.NextSelector(ec)
		if !ok || nextID == "" {
			break
		}
		next, found := byID[nextID]
		if !found {
			break
		}
		node = next
	}

	f.EC = ec
	emitter.Final(ctx)
	return nil
}
