package tools

import (
	"context"
	"testing"
)

func TestRelationToolCreatesThenUpdatesByRelationID(t *testing.T) {
	tc := newToolTestContext(t)
	ctx := context.Background()

	res, err := RelationTool{}.Execute(ctx, []byte(`{"relation_id": "rel-1", "name": "Alex", "knowledge": "likes jazz"}`), tc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.IsError {
		t.Fatalf("create result = %+v", res)
	}

	res, err = RelationTool{}.Execute(ctx, []byte(`{"relation_id": "rel-1", "name": "Alex", "knowledge": "likes jazz and blues"}`), tc)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.IsError || res.Content != "updated" {
		t.Fatalf("update result = %+v", res)
	}

	listed, err := RelationTool{}.Execute(ctx, []byte(`{}`), tc)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if listed.IsError {
		t.Fatalf("list result = %+v", listed)
	}
}

func TestRelationToolDeleteRequiresRelationID(t *testing.T) {
	tc := newToolTestContext(t)
	res, err := RelationTool{}.Execute(context.Background(), []byte(`{"delete": true}`), tc)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result when deleting without relation_id")
	}
}

func TestRelationToolSearchesByKeywordQuery(t *testing.T) {
	tc := newToolTestContext(t)
	ctx := context.Background()
	if _, err := RelationTool{}.Execute(ctx, []byte(`{"relation_id": "rel-2", "name": "Bianca", "knowledge": "plays chess"}`), tc); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := RelationTool{}.Execute(ctx, []byte(`{"query": "chess"}`), tc)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.IsError {
		t.Fatalf("search result = %+v", res)
	}
}
