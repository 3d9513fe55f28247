package agent

import (
	"context"
	"encoding/json"

	"github.com/lucidframe/conversa/pkg/models"
)

// StrategyDecision is the Strategy tool's output_adapter result
// (spec.md §4.7.3): published onto the flow context to route between the
// speak and telegram character_flow branches.
type StrategyDecision struct {
	Decision string `json:"decision"`
	Strategy string `json:"strategy"`
}

// StrategyOutputAdapter is the Strategy agent's output_adapter: it looks
// up the Strategy tool's own invocation in the step's tool_results and
// decodes {decision, strategy}. ok is false if Strategy was never called
// or its result didn't parse, per the "return an empty map" contract of
// spec.md §4.8 (the flow context is left untouched in that case).
func StrategyOutputAdapter(b *ToolCallingBehavior) (StrategyDecision, bool) {
	result, found := b.Results()["Strategy"]
	if !found || result == nil || result.IsError {
		return StrategyDecision{}, false
	}
	var d StrategyDecision
	if err := json.Unmarshal([]byte(result.Content), &d); err != nil {
		return StrategyDecision{}, false
	}
	if d.Decision == "" {
		return StrategyDecision{}, false
	}
	return d, true
}

// UserAgentBehavior is §4.7.3's UserAgent: max_steps=1 (set by the
// caller constructing the Runnable), writes a single user Message whose
// category derives from InputMode, and raises SkipNextNode when
// InputMode is COMMAND so the owning flow can skip its next node.
type UserAgentBehavior struct {
	InputMode    models.InputMode
	UserInput    string
	SkipNextNode bool
}

func (b *UserAgentBehavior) IngestInput(ctx context.Context, r *Runnable) error {
	now, err := r.Clock.Now(r.SessionID)
	if err != nil {
		return err
	}
	msg := &models.Message{
		SessionID:            r.SessionID,
		Role:                 models.RoleUser,
		Content:              b.UserInput,
		Speaker:              "user",
		Category:             models.CategoryForInputMode(b.InputMode),
		CreatedAt:            now,
		VisibleForCharacters: r.VisibleForCharacters,
	}
	if err := r.Memory.AddMessage(ctx, msg); err != nil {
		return err
	}
	if b.InputMode == models.InputModeCommand {
		b.SkipNextNode = true
	}
	return nil
}

// StepStream does nothing beyond finishing: UserAgent's whole job is the
// IngestInput message write.
func (b *UserAgentBehavior) StepStream(ctx context.Context, r *Runnable) error {
	r.State = StateFinished
	return nil
}
