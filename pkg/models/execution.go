package models

// InputMode is how a user turn arrived, mapped to a Category for
// persistence and used by flows for routing.
type InputMode string

const (
	InputModePhone      InputMode = "phone"
	InputModeInPerson   InputMode = "in_person"
	InputModeInnerVoice InputMode = "inner_voice"
	InputModeCommand    InputMode = "command"
	InputModeSkip       InputMode = "skip"
)

// CategoryForInputMode maps an InputMode to the Category its user message
// is persisted under.
func CategoryForInputMode(m InputMode) Category {
	switch m {
	case InputModePhone:
		return CategoryTelegram
	case InputModeInPerson:
		return CategorySpeakInPerson
	case InputModeInnerVoice:
		return CategoryThought
	case InputModeCommand:
		return CategorySystemInstruction
	default:
		return CategoryNormal
	}
}

// ExecutionContext is the transient, immutable-update state threaded
// through a Runnable invocation. Merge/Set/With return new values; the
// receiver is never mutated in place, so that concurrent flow branches
// never race on shared context.
type ExecutionContext struct {
	SessionID             string
	UserInput              string
	CharacterID            string
	VisibleForCharacters   []string
	Data                   map[string]any
	StopResponseRequested  bool
}

// NewExecutionContext returns an initialized context for sessionID.
func NewExecutionContext(sessionID string) ExecutionContext {
	return ExecutionContext{SessionID: sessionID, Data: map[string]any{}}
}

// Merge returns a copy of ctx with updates merged into Data. A nil or
// empty updates map is a no-op copy, never an overwrite with falsy values.
func (ctx ExecutionContext) Merge(updates map[string]any) ExecutionContext {
	next := ctx
	merged := make(map[string]any, len(ctx.Data)+len(updates))
	for k, v := range ctx.Data {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	next.Data = merged
	return next
}

// WithStopRequested returns a copy of ctx with StopResponseRequested set.
func (ctx ExecutionContext) WithStopRequested(stop bool) ExecutionContext {
	next := ctx
	next.StopResponseRequested = stop
	return next
}

// ExecutionEventType identifies the kind of ExecutionEvent.
type ExecutionEventType string

const (
	EventToken      ExecutionEventType = "token"
	EventToolStatus ExecutionEventType = "tool_status"
	EventToolOutput ExecutionEventType = "tool_output"
	EventStep       ExecutionEventType = "step"
	EventFlowStep   ExecutionEventType = "flow_step"
	EventFinal      ExecutionEventType = "final"
	EventError      ExecutionEventType = "error"
	EventDone       ExecutionEventType = "done"
)

// ExecutionEvent is the transient unit a Runnable yields from run_stream.
// Exactly one of Content/Step/Metadata need be populated for a given Type;
// ExecutionPath accumulates the node/agent names the event passed through,
// outermost first, so a client can route chunks to the right display lane.
type ExecutionEvent struct {
	Type          ExecutionEventType `json:"type"`
	Content       string             `json:"content,omitempty"`
	Step          int                `json:"step,omitempty"`
	TotalSteps    int                `json:"total_steps,omitempty"`
	MessageType   string             `json:"message_type,omitempty"`
	MessageID     string             `json:"message_id,omitempty"`
	ExecutionPath []string           `json:"execution_path,omitempty"`
	Metadata      map[string]any     `json:"metadata,omitempty"`
}

// WithPath returns a copy of e with name prepended to ExecutionPath's
// outer end, used by composites as they re-emit a nested Runnable's events.
func (e ExecutionEvent) WithPath(name string) ExecutionEvent {
	next := e
	path := make([]string, 0, len(e.ExecutionPath)+1)
	path = append(path, name)
	path = append(path, e.ExecutionPath...)
	next.ExecutionPath = path
	return next
}
