package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/lucidframe/conversa/internal/storage"
	"github.com/lucidframe/conversa/pkg/models"
)

// periodReaderArgs is shared by ScheduleReader and ScenarioReader: look up
// entries either covering a point in time or overlapping a range.
type periodReaderArgs struct {
	At    string `json:"at,omitempty"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Date  string `json:"date,omitempty"`
}

var periodReaderSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"at": {"type": "string", "description": "RFC3339 timestamp; list entries covering this instant."},
		"from": {"type": "string", "description": "RFC3339 range start; used with \"to\"."},
		"to": {"type": "string", "description": "RFC3339 range end; used with \"from\"."},
		"date": {"type": "string", "description": "RFC3339 date; list entries overlapping this calendar day."}
	}
}`)

// periodWriterArgs is shared by ScheduleWriter and ScenarioWriter.
type periodWriterArgs struct {
	PeriodID string `json:"period_id"`
	StartAt  string `json:"start_at"`
	EndAt    string `json:"end_at"`
	Title    string `json:"title,omitempty"`
	Content  string `json:"content,omitempty"`
	Delete   bool   `json:"delete,omitempty"`
}

var periodWriterSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"period_id": {"type": "string", "description": "Business id of the entry; reusing an id updates it."},
		"start_at": {"type": "string", "description": "RFC3339 start time."},
		"end_at": {"type": "string", "description": "RFC3339 end time."},
		"title": {"type": "string"},
		"content": {"type": "string"},
		"delete": {"type": "boolean", "description": "If true, delete the entry identified by period_id instead of writing it."}
	},
	"required": ["period_id"]
}`)

func readPeriods(ctx context.Context, tc *Context, periodType models.PeriodType, a periodReaderArgs) (*models.ToolResult, error) {
	switch {
	case a.At != "":
		t, err := parseTime(a.At)
		if err != nil {
			return errorResult("invalid at: %v", err), nil
		}
		periods, err := tc.Memory.FindPeriodsAtTime(ctx, tc.SessionID, periodType, t)
		if err != nil {
			return errorResult("lookup failed: %v", err), nil
		}
		return jsonResult(periods), nil
	case a.From != "" && a.To != "":
		from, err := parseTime(a.From)
		if err != nil {
			return errorResult("invalid from: %v", err), nil
		}
		to, err := parseTime(a.To)
		if err != nil {
			return errorResult("invalid to: %v", err), nil
		}
		periods, err := tc.Memory.FindPeriodsInRange(ctx, tc.SessionID, periodType, from, to)
		if err != nil {
			return errorResult("lookup failed: %v", err), nil
		}
		return jsonResult(periods), nil
	case a.Date != "":
		d, err := parseTime(a.Date)
		if err != nil {
			return errorResult("invalid date: %v", err), nil
		}
		periods, err := tc.Memory.FindPeriodsByDate(ctx, tc.SessionID, periodType, d)
		if err != nil {
			return errorResult("lookup failed: %v", err), nil
		}
		return jsonResult(periods), nil
	default:
		periods, err := tc.Memory.ListPeriods(ctx, tc.SessionID, periodType)
		if err != nil {
			return errorResult("lookup failed: %v", err), nil
		}
		return jsonResult(periods), nil
	}
}

func writePeriod(ctx context.Context, tc *Context, periodType models.PeriodType, a periodWriterArgs) (*models.ToolResult, error) {
	if a.PeriodID == "" {
		return errorResult("period_id is required"), nil
	}
	if a.Delete {
		if err := tc.Memory.DeletePeriod(ctx, tc.SessionID, periodType, a.PeriodID); err != nil {
			return errorResult("delete failed: %v", err), nil
		}
		return &models.ToolResult{Content: "deleted"}, nil
	}

	start, err := parseTime(a.StartAt)
	if err != nil {
		return errorResult("invalid start_at: %v", err), nil
	}
	end, err := parseTime(a.EndAt)
	if err != nil {
		return errorResult("invalid end_at: %v", err), nil
	}
	p := &models.Period{
		SessionID:   tc.SessionID,
		PeriodID:    a.PeriodID,
		PeriodType:  periodType,
		StartAt:     start,
		EndAt:       end,
		Title:       a.Title,
		Content:     a.Content,
		CharacterID: tc.CharacterID,
	}

	err = tc.Memory.UpdatePeriod(ctx, tc.SessionID, periodType, a.PeriodID, p)
	if errors.Is(err, storage.ErrNotFound) {
		err = tc.Memory.AddPeriod(ctx, p)
	}
	if err != nil {
		return errorResult("write failed: %v", err), nil
	}
	return jsonResult(p), nil
}

// ScheduleReaderTool looks up schedule entries by time, range, or date.
type ScheduleReaderTool struct{}

func (ScheduleReaderTool) Name() string            { return "ScheduleReader" }
func (ScheduleReaderTool) Description() string     { return "Look up schedule entries covering an instant, overlapping a range, or overlapping a day." }
func (ScheduleReaderTool) Schema() json.RawMessage { return periodReaderSchema }

func (ScheduleReaderTool) Execute(ctx context.Context, args json.RawMessage, tc *Context) (*models.ToolResult, error) {
	var a periodReaderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	return readPeriods(ctx, tc, models.PeriodSchedule, a)
}

// ScheduleWriterTool creates, updates, or deletes schedule entries.
type ScheduleWriterTool struct{}

func (ScheduleWriterTool) Name() string            { return "ScheduleWriter" }
func (ScheduleWriterTool) Description() string     { return "Create, update, or delete a schedule entry." }
func (ScheduleWriterTool) Schema() json.RawMessage { return periodWriterSchema }

func (ScheduleWriterTool) Execute(ctx context.Context, args json.RawMessage, tc *Context) (*models.ToolResult, error) {
	var a periodWriterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	return writePeriod(ctx, tc, models.PeriodSchedule, a)
}

// ScenarioReaderTool looks up scenario entries by time, range, or date.
type ScenarioReaderTool struct{}

func (ScenarioReaderTool) Name() string            { return "ScenarioReader" }
func (ScenarioReaderTool) Description() string     { return "Look up scenario entries covering an instant, overlapping a range, or overlapping a day." }
func (ScenarioReaderTool) Schema() json.RawMessage { return periodReaderSchema }

func (ScenarioReaderTool) Execute(ctx context.Context, args json.RawMessage, tc *Context) (*models.ToolResult, error) {
	var a periodReaderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	return readPeriods(ctx, tc, models.PeriodScenario, a)
}

// ScenarioWriterTool creates, updates, or deletes scenario entries.
type ScenarioWriterTool struct{}

func (ScenarioWriterTool) Name() string            { return "ScenarioWriter" }
func (ScenarioWriterTool) Description() string     { return "Create, update, or delete a scenario entry." }
func (ScenarioWriterTool) Schema() json.RawMessage { return periodWriterSchema }

func (ScenarioWriterTool) Execute(ctx context.Context, args json.RawMessage, tc *Context) (*models.ToolResult, error) {
	var a periodWriterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}
	return writePeriod(ctx, tc, models.PeriodScenario, a)
}
