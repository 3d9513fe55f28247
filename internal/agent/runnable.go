package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/lucidframe/conversa/internal/clock"
	"github.com/lucidframe/conversa/internal/memory"
	"github.com/lucidframe/conversa/internal/observability"
)

// State is a Runnable's lifecycle stage (spec.md §4.7).
type State string

const (
	StateIdle     State = "IDLE"
	StateRunning  State = "RUNNING"
	StateFinished State = "FINISHED"
	StateError    State = "ERROR"
)

// ErrNotIdle is returned by Run when a Runnable is re-entered while not IDLE.
var ErrNotIdle = errors.New("agent: runnable is not idle")

// stuckDetectorWindow (D) is how many previous assistant messages the stuck
// detector compares the latest one against, per spec.md §4.7.
const stuckDetectorWindow = 2

const stuckStrategyPrompt = "You have repeated yourself. Consider new strategies instead of repeating a previous approach.\n\n"

// Behavior is the subclass hook a concrete agent (chat-style,
// tool-calling, specialization) implements; Runnable supplies the shared
// state machine and stuck detector around it.
type Behavior interface {
	// IngestInput appends the turn's input Message(s), if any, before the
	// run enters RUNNING.
	IngestInput(ctx context.Context, r *Runnable) error
	// StepStream performs one loop iteration: drive the LLM and/or tools,
	// emit events through r.Emitter, and set r.State = StateFinished when done.
	StepStream(ctx context.Context, r *Runnable) error
}

// Runnable is the shared shape every agent in this package implements
// (spec.md §4.7): "{id, name, session_id, state, memory, llm, max_steps,
// current_step, character_id?, visible_for_characters?}".
type Runnable struct {
	ID                   string
	Name                 string
	SessionID            string
	CharacterID          string
	VisibleForCharacters []string
	MessageType          string

	MaxSteps     int
	CurrentStep  int
	State        State

	Memory *memory.Facade
	Clock  *clock.Clock

	// NextStepPrompt is prepended to the next step's prompt by the stuck
	// detector; behaviors read and clear it when building their own prompt.
	NextStepPrompt string

	Emitter  *EventEmitter
	Behavior Behavior
	Logger   *observability.Logger

	assistantHistory []string
}

// NewRunnable constructs an IDLE Runnable. maxSteps <= 0 is clamped to 1.
func NewRunnable(id, name, sessionID string, maxSteps int, mem *memory.Facade, clk *clock.Clock, sink EventSink, behavior Behavior) *Runnable {
	if maxSteps <= 0 {
		maxSteps = 1
	}
	return &Runnable{
		ID:        id,
		Name:      name,
		SessionID: sessionID,
		MaxSteps:  maxSteps,
		State:     StateIdle,
		Memory:    mem,
		Clock:     clk,
		Emitter:   NewEventEmitter(sink),
		Behavior:  behavior,
	}
}

// Run drives the full lifecycle described in spec.md §4.7: ingest input,
// enter RUNNING, loop step_stream with the stuck detector until max_steps
// or FINISHED, emit a terminal final event, and restore IDLE (or ERROR on
// an unrecovered failure).
func (r *Runnable) Run(ctx context.Context) (err error) {
	if r.State != StateIdle {
		return ErrNotIdle
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.State = StateError
			err = fmt.Errorf("agent: %s panicked: %v", r.Name, rec)
			r.Emitter.Error(ctx, err)
		}
	}()

	if err := r.Behavior.IngestInput(ctx, r); err != nil {
		r.State = StateError
		r.Emitter.Error(ctx, err)
		return err
	}

	r.State = StateRunning
	for r.CurrentStep < r.MaxSteps && r.State != StateFinished {
		r.Emitter.Step(ctx, r.CurrentStep+1, r.MaxSteps)
		if err := r.Behavior.StepStream(ctx, r); err != nil {
			r.State = StateError
			r.Emitter.Error(ctx, err)
			return err
		}
		r.CurrentStep++
		r.runStuckDetector()
	}

	if r.State == StateRunning && r.CurrentStep >= r.MaxSteps {
		if r.Logger != nil {
			r.Logger.Warn(ctx, "agent exhausted max_steps without finishing", "agent", r.Name, "session_id", r.SessionID, "max_steps", r.MaxSteps)
		}
	}

	r.Emitter.Final(ctx)
	r.State = StateIdle
	return nil
}

// RecordAssistantContent feeds one step's assistant content into the stuck
// detector's history; behaviors call this after appending an assistant Message.
func (r *Runnable) RecordAssistantContent(content string) {
	r.assistantHistory = append(r.assistantHistory, content)
}

func (r *Runnable) runStuckDetector() {
	n := len(r.assistantHistory)
	if n == 0 {
		return
	}
	last := r.assistantHistory[n-1]
	start := n - 1 - stuckDetectorWindow
	if start < 0 {
		start = 0
	}
	for i := start; i < n-1; i++ {
		if r.assistantHistory[i] == last {
			r.NextStepPrompt = stuckStrategyPrompt + r.NextStepPrompt
			return
		}
	}
}
