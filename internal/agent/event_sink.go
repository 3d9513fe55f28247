package agent

import (
	"context"
	"sync/atomic"

	"github.com/lucidframe/conversa/pkg/models"
)

// EventSink receives ExecutionEvents as a Runnable streams them.
// Implementations must be safe to call from multiple goroutines and
// should be non-blocking or handle backpressure gracefully.
type EventSink interface {
	Emit(ctx context.Context, e models.ExecutionEvent)
}

// ChanSink sends events to a channel, dropping on a full unbuffered write
// rather than blocking the producer.
type ChanSink struct {
	ch chan<- models.ExecutionEvent
}

// NewChanSink creates a sink that sends to ch. ch should be buffered to
// avoid dropping events under load.
func NewChanSink(ch chan<- models.ExecutionEvent) *ChanSink {
	return &ChanSink{ch: ch}
}

func (s *ChanSink) Emit(ctx context.Context, e models.ExecutionEvent) {
	select {
	case s.ch <- e:
	case <-ctx.Done():
	default:
	}
}

// MultiSink fans an event out to several sinks. Nil sinks are dropped at
// construction time.
type MultiSink struct {
	sinks []EventSink
}

func NewMultiSink(sinks ...EventSink) *MultiSink {
	filtered := make([]EventSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &MultiSink{sinks: filtered}
}

func (s *MultiSink) Emit(ctx context.Context, e models.ExecutionEvent) {
	for _, sink := range s.sinks {
		sink.Emit(ctx, e)
	}
}

// CallbackSink wraps a plain function as an EventSink.
type CallbackSink struct {
	fn func(ctx context.Context, e models.ExecutionEvent)
}

func NewCallbackSink(fn func(ctx context.Context, e models.ExecutionEvent)) *CallbackSink {
	return &CallbackSink{fn: fn}
}

func (s *CallbackSink) Emit(ctx context.Context, e models.ExecutionEvent) {
	if s.fn != nil {
		s.fn(ctx, e)
	}
}

// NopSink discards every event. Used when a caller has no interest in the
// stream (e.g. a background ParallelFlow node nobody is watching live).
type NopSink struct{}

func (NopSink) Emit(context.Context, models.ExecutionEvent) {}

// BackpressureConfig sizes the two priority lanes of a BackpressureSink.
type BackpressureConfig struct {
	HighPriBuffer int // status/tool/final/error events, never dropped. Default 32.
	LowPriBuffer  int // token deltas, dropped under load. Default 256.
}

func DefaultBackpressureConfig() BackpressureConfig {
	return BackpressureConfig{HighPriBuffer: 32, LowPriBuffer: 256}
}

// BackpressureSink gives token-delta events a droppable low-priority lane
// while guaranteeing delivery of step/tool/final/error events, so a slow
// consumer degrades token granularity before it risks missing a final.
type BackpressureSink struct {
	highPri chan models.ExecutionEvent
	lowPri  chan models.ExecutionEvent
	merged  chan models.ExecutionEvent
	dropped uint64
	closed  uint32
}

func NewBackpressureSink(cfg BackpressureConfig) (*BackpressureSink, <-chan models.ExecutionEvent) {
	if cfg.HighPriBuffer <= 0 {
		cfg.HighPriBuffer = 32
	}
	if cfg.LowPriBuffer <= 0 {
		cfg.LowPriBuffer = 256
	}
	s := &BackpressureSink{
		highPri: make(chan models.ExecutionEvent, cfg.HighPriBuffer),
		lowPri:  make(chan models.ExecutionEvent, cfg.LowPriBuffer),
		merged:  make(chan models.ExecutionEvent, cfg.HighPriBuffer),
	}
	go s.mergeLoop()
	return s, s.merged
}

func (s *BackpressureSink) mergeLoop() {
	defer close(s.merged)
	for {
		select {
		case e, ok := <-s.highPri:
			if ok {
				s.merged <- e
				continue
			}
			for e := range s.lowPri {
				s.merged <- e
			}
			return
		default:
		}

		select {
		case e, ok := <-s.highPri:
			if ok {
				s.merged <- e
			} else {
				for e := range s.lowPri {
					s.merged <- e
				}
				return
			}
		case e, ok := <-s.lowPri:
			if ok {
				s.merged <- e
			}
		}
	}
}

func (s *BackpressureSink) Emit(ctx context.Context, e models.ExecutionEvent) {
	if atomic.LoadUint32(&s.closed) == 1 {
		return
	}
	if e.Type == models.EventToken {
		select {
		case s.lowPri <- e:
		default:
			atomic.AddUint64(&s.dropped, 1)
		}
		return
	}
	select {
	case s.highPri <- e:
	case <-ctx.Done():
		select {
		case s.highPri <- e:
		default:
			atomic.AddUint64(&s.dropped, 1)
		}
	}
}

func (s *BackpressureSink) DroppedCount() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

func (s *BackpressureSink) Close() {
	if !atomic.CompareAndSwapUint32(&s.closed, 0, 1) {
		return
	}
	close(s.highPri)
	close(s.lowPri)
}
