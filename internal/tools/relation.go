package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/lucidframe/conversa/internal/storage"
	"github.com/lucidframe/conversa/pkg/models"
)

type relationArgs struct {
	RelationID string `json:"relation_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Knowledge  string `json:"knowledge,omitempty"`
	Progress   string `json:"progress,omitempty"`
	Query      string `json:"query,omitempty"`
	Delete     bool   `json:"delete,omitempty"`
}

var relationSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"relation_id": {"type": "string", "description": "Business id of the relation; omit with \"query\" set to search instead."},
		"name": {"type": "string"},
		"knowledge": {"type": "string"},
		"progress": {"type": "string"},
		"query": {"type": "string", "description": "Keyword search over relation metadata; used instead of relation_id."},
		"delete": {"type": "boolean", "description": "If true with relation_id set, delete that relation."}
	}
}`)

// RelationTool reads, writes, and searches a character's standing
// knowledge of or progress with some subject (spec.md §4.5).
type RelationTool struct{}

func (RelationTool) Name() string            { return "RelationTool" }
func (RelationTool) Description() string     { return "Create, update, delete, list, or keyword-search relations the character tracks." }
func (RelationTool) Schema() json.RawMessage { return relationSchema }

func (RelationTool) Execute(ctx context.Context, args json.RawMessage, tc *Context) (*models.ToolResult, error) {
	var a relationArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return errorResult("invalid arguments: %v", err), nil
	}

	switch {
	case a.Query != "":
		found, err := tc.Memory.SearchRelationsByKeyword(ctx, tc.SessionID, a.Query)
		if err != nil {
			return errorResult("search failed: %v", err), nil
		}
		return jsonResult(found), nil

	case a.Delete:
		if a.RelationID == "" {
			return errorResult("relation_id is required to delete"), nil
		}
		if err := tc.Memory.DeleteRelation(ctx, tc.SessionID, a.RelationID, tc.CharacterID); err != nil {
			return errorResult("delete failed: %v", err), nil
		}
		return &models.ToolResult{Content: "deleted"}, nil

	case a.RelationID == "":
		listed, err := tc.Memory.ListRelations(ctx, tc.SessionID, tc.CharacterID)
		if err != nil {
			return errorResult("list failed: %v", err), nil
		}
		return jsonResult(listed), nil

	default:
		meta := models.RelationMetadata{Name: a.Name, Knowledge: a.Knowledge, Progress: a.Progress}
		err := tc.Memory.UpdateRelation(ctx, tc.SessionID, a.RelationID, tc.CharacterID, meta)
		if errors.Is(err, storage.ErrNotFound) {
			r := &models.Relation{
				SessionID:   tc.SessionID,
				RelationID:  a.RelationID,
				CharacterID: tc.CharacterID,
				Metadata:    meta,
			}
			if err := tc.Memory.AddRelation(ctx, r); err != nil {
				return errorResult("write failed: %v", err), nil
			}
			return jsonResult(r), nil
		}
		if err != nil {
			return errorResult("write failed: %v", err), nil
		}
		return &models.ToolResult{Content: "updated"}, nil
	}
}
