package flow

import (
	"context"
	"fmt"

	"github.com/lucidframe/conversa/internal/agent"
	"github.com/lucidframe/conversa/internal/clock"
	"github.com/lucidframe/conversa/internal/llm"
	"github.com/lucidframe/conversa/internal/memory"
	"github.com/lucidframe/conversa/internal/tools"
	"github.com/lucidframe/conversa/pkg/models"
)

// CharacterDeps bundles what every prebuilt topology needs to construct
// its agent nodes: the provider/model driving completions, the full tool
// collection to draw subsets from, and the storage seams every behavior
// already depends on.
type CharacterDeps struct {
	LLM      llm.Provider
	Model    string
	Tools    *tools.Collection
	Memory   *memory.Facade
	Clock    *clock.Clock
	MaxSteps int

	CharacterID          string
	VisibleForCharacters []string

	// SystemPrompts keys: "strategy", "speak", "telegram", "character" (sera's
	// single agent), "writer".
	SystemPrompts map[string]string
}

func (d CharacterDeps) maxSteps() int {
	if d.MaxSteps <= 0 {
		return 8
	}
	return d.MaxSteps
}

func newToolCallingNode(id, name string, d CharacterDeps, toolNames []string, systemPromptKey string, extraPrompt func(ec models.ExecutionContext) string) FlowNode {
	subset := d.Tools.Subset(toolNames...)
	return FlowNode{
		ID:   id,
		Name: name,
		Factory: func(ctx context.Context, ec models.ExecutionContext) (Runnable, error) {
			prompt := d.SystemPrompts[systemPromptKey]
			if extraPrompt != nil {
				prompt += extraPrompt(ec)
			}
			behavior := &agent.ToolCallingBehavior{
				LLM:          d.LLM,
				Model:        d.Model,
				SystemPrompt: prompt,
				Tools:        subset,
			}
			r := agent.NewRunnable(id, name, ec.SessionID, d.maxSteps(), d.Memory, d.Clock, nil, behavior)
			r.CharacterID = d.CharacterID
			r.VisibleForCharacters = d.VisibleForCharacters
			return Agent(r), nil
		},
	}
}

// strategyToolNames is the Strategy agent's tool subset per spec.md §4.7.3:
// everything except the two inline speaking tools.
var strategyToolNames = []string{
	"Strategy", "WebSearch", "DialogueHistory",
	"ScheduleReader", "ScheduleWriter", "ScenarioReader", "ScenarioWriter",
	"RelationTool", "Reflection", "Terminate",
}

// NewCharacterFlow builds spec.md §4.8.3's character_flow: Strategy decides
// a modality and hands off guidance, then either the speak or telegram
// node actually produces the reply via its inline speaking tool. An
// invalid or missing decision ends the flow right after Strategy.
func NewCharacterFlow(id string, ec models.ExecutionContext, d CharacterDeps) *SequentialFlow {
	strategyNode := newToolCallingNode(id+":strategy", "strategy", d, strategyToolNames, "strategy", nil)
	strategyNode.OutputAdapter = func(r Runnable, ec models.ExecutionContext) map[string]any {
		ur := r.Underlying()
		if ur == nil {
			return nil
		}
		behavior, ok := ur.Behavior.(*agent.ToolCallingBehavior)
		if !ok {
			return nil
		}
		decision, ok := agent.StrategyOutputAdapter(behavior)
		if !ok {
			return nil
		}
		return map[string]any{"decision": decision.Decision, "strategy": decision.Strategy}
	}
	strategyNode.NextSelector = func(ec models.ExecutionContext) (string, bool) {
		switch decision, _ := ec.Data["decision"].(string); decision {
		case "speakinperson":
			return id + ":speak", true
		case "telegram":
			return id + ":telegram", true
		default:
			return "", false
		}
	}

	guidance := func(ec models.ExecutionContext) string {
		if s, ok := ec.Data["strategy"].(string); ok && s != "" {
			return fmt.Sprintf("\n\nStrategy guidance: %s", s)
		}
		return ""
	}

	speakNode := newToolCallingNode(id+":speak", "speak", d, []string{"SpeakInPerson", "Terminate"}, "speak", guidance)
	telegramNode := newToolCallingNode(id+":telegram", "telegram", d, []string{"SendTelegramMessage", "Terminate"}, "telegram", guidance)

	return NewSequentialFlow(id, "character_flow", ec, strategyNode, speakNode, telegramNode)
}

// NewSeraFlow builds spec.md §4.8.3's sera topology: a single unrestricted
// tool-calling character agent, preceded by the user-input node.
func NewSeraFlow(id string, ec models.ExecutionContext, d CharacterDeps) *SequentialFlow {
	userNode := newUserNode(id+":user", d)
	userNode.NextSelector = func(ec models.ExecutionContext) (string, bool) {
		if skip, _ := ec.Data["skip_next_node"].(bool); skip {
			return "", false
		}
		return id + ":character", true
	}
	characterNode := newToolCallingNode(id+":character", "character", d, d.Tools.Names(), "character", nil)
	return NewSequentialFlow(id, "sera", ec, userNode, characterNode)
}

func newUserNode(id string, d CharacterDeps) FlowNode {
	return FlowNode{
		ID:   id,
		Name: "user",
		Factory: func(ctx context.Context, ec models.ExecutionContext) (Runnable, error) {
			mode, _ := ec.Data["input_mode"].(models.InputMode)
			behavior := &agent.UserAgentBehavior{InputMode: mode, UserInput: ec.UserInput}
			r := agent.NewRunnable(id, "User", ec.SessionID, 1, d.Memory, d.Clock, nil, behavior)
			r.CharacterID = d.CharacterID
			r.VisibleForCharacters = d.VisibleForCharacters
			return Agent(r), nil
		},
		OutputAdapter: func(r Runnable, ec models.ExecutionContext) map[string]any {
			ur := r.Underlying()
			if ur == nil {
				return nil
			}
			behavior, ok := ur.Behavior.(*agent.UserAgentBehavior)
			if !ok || !behavior.SkipNextNode {
				return nil
			}
			return map[string]any{"skip_next_node": true}
		},
	}
}

// LinaFlow is spec.md §4.8.3's chat_parallel/lina topology: User, then a
// ParallelFlow of CharacterFlow (response) and, on every WriterEveryN'th
// completed dialogue turn for Speaker, a silent Writer (background).
type LinaFlow struct {
	ID string
	EC models.ExecutionContext

	UserNode      FlowNode
	CharacterFlow func(ec models.ExecutionContext) *SequentialFlow
	WriterNode    FlowNode
	WriterEveryN  int
	Speaker       string

	Memory *memory.Facade

	handle *BackgroundHandle
}

// NewLinaFlow wires the prebuilt lina topology over d.
func NewLinaFlow(id string, ec models.ExecutionContext, d CharacterDeps, writerEveryN int, speaker string) *LinaFlow {
	userNode := newUserNode(id+":user", d)
	writerNode := FlowNode{
		ID:           id + ":writer",
		Name:         "writer",
		IsBackground: true,
		Factory: func(ctx context.Context, ec models.ExecutionContext) (Runnable, error) {
			// Writer has no speaking tools: it never emits tokens, per
			// spec.md §4.7.3's "silent background" agent.
			behavior := &agent.ToolCallingBehavior{
				LLM:          d.LLM,
				Model:        d.Model,
				SystemPrompt: d.SystemPrompts["writer"],
				Tools:        d.Tools.Subset("DialogueHistory", "Reflection", "RelationTool", "ScheduleWriter", "ScenarioWriter", "Terminate"),
			}
			r := agent.NewRunnable(id+":writer", "Writer", ec.SessionID, d.maxSteps(), d.Memory, d.Clock, nil, behavior)
			r.CharacterID = d.CharacterID
			r.VisibleForCharacters = d.VisibleForCharacters
			return Agent(r), nil
		},
	}

	return &LinaFlow{
		ID:   id,
		EC:   ec,
		Memory: d.Memory,
		CharacterFlow: func(ec models.ExecutionContext) *SequentialFlow {
			return NewCharacterFlow(id+":character_flow", ec, d)
		},
		UserNode:     userNode,
		WriterNode:   writerNode,
		WriterEveryN: writerEveryN,
		Speaker:      speaker,
	}
}

func (f *LinaFlow) Underlying() *agent.Runnable { return nil }

// BackgroundHandle returns the respond-stage ParallelFlow's background
// handle. Only valid after Run has returned.
func (f *LinaFlow) BackgroundHandle() *BackgroundHandle { return f.handle }

func (f *LinaFlow) Run(ctx context.Context, sink agent.EventSink) error {
	userStage := NewSequentialFlow(f.ID+":user_stage", "user_stage", f.EC, f.UserNode)
	if err := userStage.Run(ctx, sink); err != nil {
		return err
	}
	ec := userStage.EC
	f.EC = ec

	if skip, _ := ec.Data["skip_next_node"].(bool); skip {
		agent.NewEventEmitter(sink).Final(ctx)
		f.handle = &BackgroundHandle{}
		return nil
	}

	includeWriter := false
	if f.Memory != nil && f.WriterEveryN > 0 {
		n, err := f.Memory.CountDialogueMessages(ctx, ec.SessionID, f.Speaker)
		if err == nil && n > 0 && n%f.WriterEveryN == 0 {
			includeWriter = true
		}
	}

	characterFlowNode := FlowNode{
		ID:   f.ID + ":character_flow",
		Name: "character_flow",
		Factory: func(ctx context.Context, ec models.ExecutionContext) (Runnable, error) {
			return f.CharacterFlow(ec), nil
		},
	}

	nodes := []FlowNode{characterFlowNode}
	if includeWriter {
		nodes = append(nodes, f.WriterNode)
	}

	respond := NewParallelFlow(f.ID+":respond", "respond", ec, nodes...)
	err := respond.Run(ctx, sink)
	f.handle = respond.BackgroundHandle()
	return err
}
