package flow

import (
	"context"
	"sync"
	"time"

	"github.com/lucidframe/conversa/internal/agent"
	"github.com/lucidframe/conversa/pkg/models"
)

// parallelMsg is one item on a ParallelFlow's shared queue: either a
// re-tagged ExecutionEvent to forward, or a node-complete control marker
// (spec.md §4.8.2's "{marker:'node_complete', node_id, is_response}").
type parallelMsg struct {
	event  *models.ExecutionEvent
	marker *completionMarker
}

type completionMarker struct {
	nodeID     string
	isResponse bool
	err        error
}

// parallelQueueSize bounds the shared completion-marker/event queue.
const parallelQueueSize = 256

// parallelNodeSink feeds one node's events onto the shared queue, tagged
// with the node's name, stripping its nested final the same way
// SequentialFlow's pathSink does.
type parallelNodeSink struct {
	ch   chan<- parallelMsg
	path string
}

func (s *parallelNodeSink) Emit(ctx context.Context, e models.ExecutionEvent) {
	if e.Type == models.EventFinal {
		return
	}
	tagged := e.WithPath(s.path)
	select {
	case s.ch <- parallelMsg{event: &tagged}:
	case <-ctx.Done():
	}
}

// BackgroundHandle lets a caller wait for or cancel a ParallelFlow's
// background nodes after the flow itself has already returned (spec.md
// §4.8.2's wait_background_tasks/cancel_background_tasks).
type BackgroundHandle struct {
	allDone chan struct{}
	cancels []context.CancelFunc
}

// Wait blocks until every background node has finished or timeout
// elapses, whichever comes first.
func (h *BackgroundHandle) Wait(ctx context.Context, timeout time.Duration) error {
	if h == nil || h.allDone == nil {
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-h.allDone:
		return nil
	case <-timer.C:
		return context.DeadlineExceeded
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel requests every background node's context be canceled. Nodes
// that ignore ctx cancellation (most don't, since LLM calls and storage
// calls are both ctx-aware) keep running until they next check it.
func (h *BackgroundHandle) Cancel() {
	if h == nil {
		return
	}
	for _, c := range h.cancels {
		c()
	}
}

// ParallelFlow is spec.md §4.8.2: partitions nodes into response
// (IsBackground=false) and background (true), launches all of them
// concurrently, and emits its own "final" as soon as every response node
// has completed — regardless of whether background nodes are still
// running. Background nodes run against a context detached from ctx's
// cancellation (context.WithoutCancel) so the caller returning doesn't
// tear them down; BackgroundHandle lets the caller wait on or cancel them
// explicitly afterward.
type ParallelFlow struct {
	ID    string
	Name  string
	EC    models.ExecutionContext
	Nodes []FlowNode

	handle *BackgroundHandle
}

func NewParallelFlow(id, name string, ec models.ExecutionContext, nodes ...FlowNode) *ParallelFlow {
	return &ParallelFlow{ID: id, Name: name, EC: ec, Nodes: nodes}
}

func (f *ParallelFlow) Underlying() *agent.Runnable { return nil }

// BackgroundHandle returns the handle for this flow's background nodes.
// Only valid after Run has returned.
func (f *ParallelFlow) BackgroundHandle() *BackgroundHandle { return f.handle }

func (f *ParallelFlow) Run(ctx context.Context, sink agent.EventSink) error {
	emitter := agent.NewEventEmitter(sink)
	if len(f.Nodes) == 0 {
		emitter.Final(ctx)
		f.handle = &BackgroundHandle{}
		return nil
	}

	msgCh := make(chan parallelMsg, parallelQueueSize)
	var wg sync.WaitGroup

	var mu sync.Mutex
	activeResponses := make(map[string]bool)
	for _, n := range f.Nodes {
		if !n.IsBackground {
			activeResponses[n.ID] = true
		}
	}

	handle := &BackgroundHandle{allDone: make(chan struct{})}

	for i := range f.Nodes {
		node := f.Nodes[i]
		wg.Add(1)

		runCtx := ctx
		if node.IsBackground {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithCancel(context.WithoutCancel(ctx))
			handle.cancels = append(handle.cancels, cancel)
		}

		go func() {
			defer wg.Done()

			ec := f.EC
			if node.InputAdapter != nil {
				ec = node.InputAdapter(ec)
			}

			nodeSink := &parallelNodeSink{ch: msgCh, path: node.Name}
			run, err := node.Factory(runCtx, ec)
			if err == nil {
				err = run.Run(runCtx, nodeSink)
			}

			select {
			case msgCh <- parallelMsg{marker: &completionMarker{nodeID: node.ID, isResponse: !node.IsBackground, err: err}}:
			case <-runCtx.Done():
			}
		}()
	}

	go func() {
		wg.Wait()
		close(msgCh)
	}()

	responseDone := make(chan struct{})
	var finalOnce sync.Once
	fireFinal := func() {
		finalOnce.Do(func() {
			emitter.Final(ctx)
			close(responseDone)
		})
	}

	go func() {
		defer close(handle.allDone)
		for msg := range msgCh {
			if msg.event != nil {
				sink.Emit(ctx, *msg.event)
				continue
			}
			if msg.marker.isResponse {
				mu.Lock()
				delete(activeResponses, msg.marker.nodeID)
				remaining := len(activeResponses)
				mu.Unlock()
				if remaining == 0 {
					fireFinal()
				}
			}
		}
		fireFinal()
	}()

	select {
	case <-responseDone:
	case <-ctx.Done():
		f.handle = handle
		return ctx.Err()
	}

	f.handle = handle
	return nil
}
