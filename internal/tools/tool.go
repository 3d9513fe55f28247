// Package tools implements the Tool Registry (C5): typed tool definitions
// with JSON schemas and executor callbacks bound to a session/character
// context, per spec.md §4.5.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lucidframe/conversa/internal/clock"
	"github.com/lucidframe/conversa/internal/datetime"
	"github.com/lucidframe/conversa/internal/memory"
	"github.com/lucidframe/conversa/pkg/models"
)

// Context is the session/character-bound state a tool executes against.
type Context struct {
	SessionID   string
	CharacterID string
	Memory      *memory.Facade
	Clock       *clock.Clock

	// OnEvent, if set, lets a tool surface streaming sub-events mid-execution;
	// the agent re-wraps these as tool_output events (spec.md §4.5).
	OnEvent func(models.ExecutionEvent)

	// Terminate is called by the Terminate tool to flip the owning agent's
	// state to FINISHED; nil-safe no-op if the tool isn't run inside an agent.
	Terminate func()
}

func (c *Context) emit(e models.ExecutionEvent) {
	if c != nil && c.OnEvent != nil {
		c.OnEvent(e)
	}
}

// Tool is {name, description, json_schema, execute(args, ctx) -> ToolResult}.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, args json.RawMessage, tc *Context) (*models.ToolResult, error)
}

// Inline identifies tools whose output is surfaced directly as user-visible
// text (SpeakInPerson, SendTelegramMessage) rather than a side-channel
// tool_output event, per spec.md §4.5.
type Inline interface {
	MessageType() string
}

// Collection is an ordered, name-keyed bag of tools with to_schemas() for
// provider transport, per spec.md §4.5.
type Collection struct {
	order  []string
	byName map[string]Tool
}

// NewCollection returns a Collection containing tools, preserving order.
func NewCollection(tools ...Tool) *Collection {
	c := &Collection{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		c.Add(t)
	}
	return c
}

// Add appends t, overwriting any existing tool with the same name in place.
func (c *Collection) Add(t Tool) {
	if _, exists := c.byName[t.Name()]; !exists {
		c.order = append(c.order, t.Name())
	}
	c.byName[t.Name()] = t
}

// Get returns the tool named name, or (nil, false).
func (c *Collection) Get(name string) (Tool, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Names returns tool names in registration order.
func (c *Collection) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Subset returns a new Collection containing only the named tools, in the
// order given, used by specialization agents (spec.md §4.7.3) to bind a
// restricted tool set.
func (c *Collection) Subset(names ...string) *Collection {
	sub := &Collection{byName: make(map[string]Tool, len(names))}
	for _, n := range names {
		if t, ok := c.byName[n]; ok {
			sub.Add(t)
		}
	}
	return sub
}

// ToolSchema is the provider-transport shape for one tool.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToSchemas returns every tool's transport schema in registration order.
func (c *Collection) ToSchemas() []ToolSchema {
	out := make([]ToolSchema, 0, len(c.order))
	for _, name := range c.order {
		t := c.byName[name]
		out = append(out, ToolSchema{Name: t.Name(), Description: t.Description(), Parameters: t.Schema()})
	}
	return out
}

// ValidateArgs validates args against t's JSON schema using
// santhosh-tekuri/jsonschema, returning a descriptive error on mismatch
// rather than letting a malformed call reach Execute.
func ValidateArgs(t Tool, args json.RawMessage) error {
	compiler := jsonschema.NewCompiler()
	schemaJSON := t.Schema()
	if len(schemaJSON) == 0 {
		return nil
	}
	if err := compiler.AddResource(t.Name()+".json", strings.NewReader(string(schemaJSON))); err != nil {
		return fmt.Errorf("tools: add schema resource for %s: %w", t.Name(), err)
	}
	schema, err := compiler.Compile(t.Name() + ".json")
	if err != nil {
		return fmt.Errorf("tools: compile schema for %s: %w", t.Name(), err)
	}

	var doc any
	if len(args) == 0 {
		doc = map[string]any{}
	} else if err := json.Unmarshal(args, &doc); err != nil {
		return fmt.Errorf("tools: decode args for %s: %w", t.Name(), err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("tools: %s: invalid arguments: %w", t.Name(), err)
	}
	return nil
}

// errorResult builds a ToolResult carrying an error message, the shape
// every tool in this package returns for a handled (non-exceptional) failure.
func errorResult(format string, args ...any) *models.ToolResult {
	return &models.ToolResult{Content: fmt.Sprintf(format, args...), IsError: true}
}

// parseTime accepts the RFC3339 timestamps the tool schemas document plus
// the looser shapes datetime.NormalizeTimestamp understands (bare date,
// epoch seconds/milliseconds as a numeric string), so a model that emits
// "2025-01-24" or "1737676200" for a time-bearing tool argument still
// resolves instead of failing schema-correct calls on a formatting nit.
func parseTime(s string) (time.Time, error) {
	if norm := datetime.NormalizeTimestamp(s); norm != nil {
		return time.UnixMilli(norm.TimestampMs).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time value %q", s)
}

func jsonResult(v any) *models.ToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("encode result: %v", err)
	}
	return &models.ToolResult{Content: string(raw)}
}
