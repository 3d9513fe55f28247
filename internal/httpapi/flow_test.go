package httpapi

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/lucidframe/conversa/pkg/models"
)

func TestFlowCompletionsSeraFinishesWithAssistantMessage(t *testing.T) {
	s, sessionID := newTestServer(t, &fakeProvider{
		texts:     []string{"hi there"},
		toolCalls: []models.ToolCall{{ID: "call_0", Name: "Terminate", Input: []byte(`{}`)}},
	})

	body, _ := json.Marshal(completionRequest{
		UserInput: "hello",
		InputMode: models.InputModeInPerson,
		SessionID: sessionID,
		FlowType:  "sera",
	})
	req := httptest.NewRequest("POST", "/v1/flow/completions", jsonBody(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp chatCompletionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "hi there" {
		t.Fatalf("unexpected choices: %+v", resp.Choices)
	}
}

func TestFlowCompletionsRejectsUnknownFlowType(t *testing.T) {
	s, sessionID := newTestServer(t, &fakeProvider{})
	body, _ := json.Marshal(completionRequest{
		UserInput: "hello",
		SessionID: sessionID,
		FlowType:  "bogus",
	})
	req := httptest.NewRequest("POST", "/v1/flow/completions", jsonBody(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != 400 {
		t.Fatalf("status = %d", rec.Code)
	}
}
