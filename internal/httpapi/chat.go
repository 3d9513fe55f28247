package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lucidframe/conversa/internal/agent"
	"github.com/lucidframe/conversa/internal/flow"
	"github.com/lucidframe/conversa/internal/llm"
	"github.com/lucidframe/conversa/internal/stream"
	"github.com/lucidframe/conversa/pkg/models"
)

// ModelInfo selects which provider/model a completion request runs
// against, overriding config.LLMConfig.DefaultProvider.
type ModelInfo struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// completionRequest is the shared body shape for both completions
// endpoints per spec.md §6: "{user_input, input_mode, stream, session_id,
// character?, model_info?, participants?}", with flow_type added for the
// flow endpoint.
type completionRequest struct {
	UserInput    string           `json:"user_input"`
	InputMode    models.InputMode `json:"input_mode"`
	Stream       bool             `json:"stream"`
	SessionID    string           `json:"session_id"`
	Character    string           `json:"character,omitempty"`
	ModelInfo    *ModelInfo       `json:"model_info,omitempty"`
	Participants []string         `json:"participants,omitempty"`
	FlowType     string           `json:"flow_type,omitempty"`
}

type chatMessage struct {
	Role        string                `json:"role"`
	Content     string                `json:"content"`
	ToolOutputs []models.ExecutionEvent `json:"tool_outputs,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// chatCompletionResponse is spec.md §6's non-streaming response shape.
type chatCompletionResponse struct {
	ID        string       `json:"id"`
	Object    string       `json:"object"`
	Created   int64        `json:"created"`
	Model     string       `json:"model"`
	Choices   []chatChoice `json:"choices"`
	SessionID string       `json:"session_id"`
}

func (s *Server) resolveProvider(info *ModelInfo) (llm.Provider, string, error) {
	name := s.deps.Config.LLM.DefaultProvider
	if info != nil && info.Provider != "" {
		name = info.Provider
	}
	provider, ok := s.deps.LLM[name]
	if !ok {
		return nil, "", fmt.Errorf("httpapi: unknown llm provider %q", name)
	}
	model := s.deps.Config.LLM.Providers[name].DefaultModel
	if info != nil && info.Model != "" {
		model = info.Model
	}
	return provider, model, nil
}

// handleChatCompletions runs a single tool-calling agent turn directly
// (no Flow Core topology), per spec.md §6's plain /v1/chat/completions.
func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "validation", "session_id is required")
		return
	}

	provider, model, err := s.resolveProvider(req.ModelInfo)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	behavior := &agent.ToolCallingBehavior{
		LLM:   provider,
		Model: model,
		Tools: s.deps.Tools,
	}
	r0 := agent.NewRunnable("chat:"+req.SessionID, "chat", req.SessionID, 8, s.deps.Memory, s.deps.Clock, nil, behavior)
	r0.CharacterID = req.Character

	s.runAndRespond(w, r, req, model, r0)
}

// handleFlowCompletions drives one of internal/flow's prebuilt topologies,
// per spec.md §6's /v1/flow/completions "identical shape plus flow_type
// (default chat_parallel)".
func (s *Server) handleFlowCompletions(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "validation", "session_id is required")
		return
	}
	flowType := req.FlowType
	if flowType == "" {
		flowType = "chat_parallel"
	}

	provider, model, err := s.resolveProvider(req.ModelInfo)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	deps := flow.CharacterDeps{
		LLM:         provider,
		Model:       model,
		Tools:       s.deps.Tools,
		Memory:      s.deps.Memory,
		Clock:       s.deps.Clock,
		CharacterID: req.Character,
	}

	ec := models.NewExecutionContext(req.SessionID)
	ec.UserInput = req.UserInput
	ec.CharacterID = req.Character
	ec.VisibleForCharacters = req.Participants
	ec.Data["input_mode"] = req.InputMode

	var f flow.Runnable
	switch flowType {
	case "character_flow":
		f = flow.NewCharacterFlow("flow:"+req.SessionID, ec, deps)
	case "sera":
		f = flow.NewSeraFlow("flow:"+req.SessionID, ec, deps)
	case "chat_parallel", "lina":
		f = flow.NewLinaFlow("flow:"+req.SessionID, ec, deps, 5, req.Character)
	default:
		writeError(w, http.StatusBadRequest, "validation", fmt.Sprintf("unknown flow_type %q", flowType))
		return
	}

	s.runFlowAndRespond(w, r, req, model, f)
}

// runAndRespond drives a single agent.Runnable, streaming via SSE when
// req.Stream is set or collecting one final JSON response otherwise.
func (s *Server) runAndRespond(w http.ResponseWriter, r *http.Request, req completionRequest, model string, run *agent.Runnable) {
	if req.Stream {
		s.stream(w, r, req.UserInput, func(sink *stream.Sink) error {
			run.Emitter = agent.NewEventEmitter(sink)
			return run.Run(r.Context())
		})
		return
	}

	collector := newResponseCollector()
	run.Emitter = agent.NewEventEmitter(collector)
	if err := run.Run(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, collector.response(model, req.SessionID))
}

func (s *Server) runFlowAndRespond(w http.ResponseWriter, r *http.Request, req completionRequest, model string, f flow.Runnable) {
	if req.Stream {
		s.stream(w, r, req.UserInput, func(sink *stream.Sink) error {
			return f.Run(r.Context(), sink)
		})
		return
	}

	collector := newResponseCollector()
	if err := f.Run(r.Context(), collector); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, collector.response(model, req.SessionID))
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, _ string, run func(*stream.Sink) error) {
	writer, err := stream.NewWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	defer writer.Close()

	sink := stream.NewSink(writer)
	if err := run(sink); err != nil {
		frame := stream.Frame{Type: stream.FrameToolStatus, Content: "❌ " + err.Error()}
		_ = writer.WriteFrame(frame)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid request body: "+err.Error())
		return false
	}
	return true
}
