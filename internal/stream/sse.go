package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/lucidframe/conversa/internal/agent"
	"github.com/lucidframe/conversa/pkg/models"
)

// ErrNoFlusher is returned when w doesn't support incremental writes —
// every production net/http ResponseWriter does; only a misused test
// recorder would hit this.
var ErrNoFlusher = errors.New("stream: response writer does not support flushing")

// doneSentinel is spec.md §4.9/§6's literal SSE terminator.
const doneSentinel = "data: [DONE]\n\n"

// Writer serializes Frames onto an http.ResponseWriter as text/event-stream,
// per spec.md §4.9. One Writer serves exactly one HTTP request's stream.
type Writer struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool
}

// NewWriter sets the SSE response headers and returns a Writer over w.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrNoFlusher
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &Writer{w: w, flusher: flusher}, nil
}

// WriteFrame JSON-encodes frame as one "data: " line and flushes it.
func (s *Writer) WriteFrame(frame Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	body, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("stream: encode frame: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", body); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Close writes the terminator sentinel. Safe to call once; subsequent
// calls and any pending WriteFrame calls become no-ops.
func (s *Writer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if _, err := fmt.Fprint(s.w, doneSentinel); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Sink adapts a Writer into an agent.EventSink, so a Runnable or Flow can
// stream directly to an HTTP response. Construct one per request; Close
// the underlying Writer once the root Run call returns.
type Sink struct {
	w *Writer
}

// NewSink wraps w as an agent.EventSink.
func NewSink(w *Writer) *Sink { return &Sink{w: w} }

func (s *Sink) Emit(ctx context.Context, e models.ExecutionEvent) {
	frame, ok := EncodeEvent(e)
	if !ok {
		return
	}
	_ = s.w.WriteFrame(frame)
}

var _ agent.EventSink = (*Sink)(nil)
