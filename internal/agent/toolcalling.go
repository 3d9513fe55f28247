package agent

import (
	"context"
	"fmt"

	"github.com/lucidframe/conversa/internal/llm"
	"github.com/lucidframe/conversa/internal/tools"
	"github.com/lucidframe/conversa/pkg/models"
)

// defaultToolWindow bounds how many messages of context the "think" phase
// of a tool-calling agent sees.
const defaultToolWindow = 40

// ToolCallingBehavior is the think/act agent of spec.md §4.7.2.
type ToolCallingBehavior struct {
	LLM          llm.Provider
	Model        string
	SystemPrompt string
	Tools        *tools.Collection
	WindowK      int

	pendingCalls   []models.ToolCall
	pendingResults []*models.ToolResult
}

// Results returns the ToolResults from the most recently completed act,
// keyed by tool name, for a specialization's output_adapter to inspect
// (spec.md §4.7.3's Strategy output_adapter reads this).
func (b *ToolCallingBehavior) Results() map[string]*models.ToolResult {
	out := make(map[string]*models.ToolResult, len(b.pendingResults))
	for i, res := range b.pendingResults {
		if i < len(b.pendingCalls) {
			out[b.pendingCalls[i].Name] = res
		}
	}
	return out
}

func (b *ToolCallingBehavior) IngestInput(ctx context.Context, r *Runnable) error { return nil }

func (b *ToolCallingBehavior) StepStream(ctx context.Context, r *Runnable) error {
	called, err := b.think(ctx, r)
	if err != nil {
		return err
	}
	if !called {
		r.State = StateFinished
		return nil
	}
	return b.act(ctx, r)
}

// think builds the message list, calls the provider with the tool
// collection's schemas advertised, and stores the resulting content and
// parsed tool_calls as one assistant Message. Returns true iff tool_calls
// is non-empty.
func (b *ToolCallingBehavior) think(ctx context.Context, r *Runnable) (bool, error) {
	k := b.WindowK
	if k <= 0 {
		k = defaultToolWindow
	}
	msgs, err := loadWindow(ctx, r, k)
	if err != nil {
		return false, err
	}

	req := &llm.CompletionRequest{
		Model:    b.Model,
		System:   b.SystemPrompt + r.NextStepPrompt,
		Messages: toCompletionMessages(msgs),
		Tools:    toProviderTools(b.Tools),
	}
	r.NextStepPrompt = ""

	chunks, err := b.LLM.Complete(ctx, req)
	if err != nil {
		return false, err
	}

	var content string
	var calls []models.ToolCall
	for chunk := range chunks {
		if chunk.Error != nil {
			return false, chunk.Error
		}
		if chunk.Text != "" {
			content += chunk.Text
		}
		if chunk.ToolCall != nil {
			calls = append(calls, *chunk.ToolCall)
		}
		if chunk.Done {
			break
		}
	}

	now, err := r.Clock.Now(r.SessionID)
	if err != nil {
		return false, err
	}
	msg := &models.Message{
		SessionID:            r.SessionID,
		Role:                 models.RoleAssistant,
		Content:              content,
		ToolCalls:            calls,
		Category:             models.CategoryNormal,
		CreatedAt:            now,
		VisibleForCharacters: r.VisibleForCharacters,
	}
	if err := r.Memory.AddMessage(ctx, msg); err != nil {
		return false, err
	}
	r.RecordAssistantContent(content)
	b.pendingCalls = calls
	return len(calls) > 0, nil
}

// act iterates pendingCalls in order, executing each against b.Tools and
// persisting a role=tool Message, per spec.md §4.7.2.
func (b *ToolCallingBehavior) act(ctx context.Context, r *Runnable) error {
	toolCtx := &tools.Context{
		SessionID:   r.SessionID,
		CharacterID: r.CharacterID,
		Memory:      r.Memory,
		Clock:       r.Clock,
		Terminate:   func() { r.State = StateFinished },
	}

	b.pendingResults = b.pendingResults[:0]
	for _, call := range b.pendingCalls {
		r.Emitter.ToolStatus(ctx, fmt.Sprintf("🔧 running %s", call.Name))

		t, found := b.Tools.Get(call.Name)
		var result *models.ToolResult
		if !found {
			result = &models.ToolResult{Content: fmt.Sprintf("unknown tool: %s", call.Name), IsError: true}
		} else if err := tools.ValidateArgs(t, call.Input); err != nil {
			result = &models.ToolResult{Content: err.Error(), IsError: true}
		} else {
			res, execErr := t.Execute(ctx, call.Input, toolCtx)
			if execErr != nil {
				res = &models.ToolResult{Content: execErr.Error(), IsError: true}
			}
			result = res
		}
		result.ToolCallID = call.ID

		now, err := r.Clock.Now(r.SessionID)
		if err != nil {
			return err
		}
		toolMsg := &models.Message{
			SessionID:            r.SessionID,
			Role:                 models.RoleTool,
			Content:              result.Content,
			ToolName:             call.Name,
			ToolCallID:           call.ID,
			Category:             models.CategoryNormal,
			CreatedAt:            now,
			VisibleForCharacters: r.VisibleForCharacters,
		}
		if err := r.Memory.AddMessage(ctx, toolMsg); err != nil {
			return err
		}
		b.pendingResults = append(b.pendingResults, result)

		if inline, ok := t.(tools.Inline); ok {
			r.Emitter.Token(ctx, result.Content, inline.MessageType())
		} else {
			r.Emitter.ToolOutput(ctx, call.Name, toolMsg.ID, result.Content)
		}

		if call.Name == "Terminate" {
			r.State = StateFinished
			break
		}
	}
	return nil
}

func toProviderTools(c *tools.Collection) []llm.Tool {
	if c == nil {
		return nil
	}
	schemas := c.ToSchemas()
	out := make([]llm.Tool, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, providerTool{schema: s})
	}
	return out
}

// providerTool adapts a tools.ToolSchema to llm.Tool without importing
// the tools package back into llm (llm.Tool is a minimal read-only view).
type providerTool struct {
	schema tools.ToolSchema
}

func (p providerTool) Name() string        { return p.schema.Name }
func (p providerTool) Description() string { return p.schema.Description }
func (p providerTool) Schema() []byte      { return p.schema.Parameters }
