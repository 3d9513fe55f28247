package tools

import (
	"context"
	"encoding/json"

	"github.com/lucidframe/conversa/pkg/models"
)

type strategyArgs struct {
	Decision string `json:"decision"`
	Strategy string `json:"strategy"`
}

var strategySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"decision": {"type": "string", "enum": ["speakinperson", "telegram"], "description": "Which speaking modality to route to next."},
		"strategy": {"type": "string", "description": "Short guidance for the speaking agent, e.g. tone or brevity."}
	},
	"required": ["decision", "strategy"]
}`)

// StrategyTool records a routing decision for the Strategy agent
// (spec.md §4.7.3); the agent's output_adapter reads this tool's own
// invocation arguments back out of tool_results to publish {decision,
// strategy} onto the flow context, so Execute just echoes them back.
type StrategyTool struct{}

func (StrategyTool) Name() string            { return "Strategy" }
func (StrategyTool) Description() string     { return "Decide how to respond: speak in person or send a telegram message, with brief guidance." }
func (StrategyTool) Schema() json.RawMessage { return strategySchema }

func (StrategyTool) Execute(_ context.Context, args json.RawMessage, _ *Context) (*models.ToolResult, error) {
	var a strategyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	return jsonResult(a), nil
}

// TerminateTool ends the current agent run.
type TerminateTool struct{}

func (TerminateTool) Name() string            { return "Terminate" }
func (TerminateTool) Description() string     { return "End the current turn; no further tool calls will run." }
func (TerminateTool) Schema() json.RawMessage { return json.RawMessage(`{"type": "object", "properties": {}}`) }

func (TerminateTool) Execute(_ context.Context, _ json.RawMessage, tc *Context) (*models.ToolResult, error) {
	if tc != nil && tc.Terminate != nil {
		tc.Terminate()
	}
	return &models.ToolResult{Content: "terminated"}, nil
}
