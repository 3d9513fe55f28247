// Package search implements the Search Mirror (C3): an asynchronous
// full-text projection of C2 rows into three Meilisearch indices, with a
// SQL LIKE fallback when the mirror is unavailable (that fallback lives
// in internal/storage; this package only owns the mirror side).
//
// No Go Meilisearch client appears anywhere in the example pack, so this
// is a small hand-written REST client against Meilisearch's JSON HTTP API
// rather than an invented third-party dependency.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lucidframe/conversa/internal/backoff"
	"github.com/lucidframe/conversa/internal/observability"
)

const (
	// IndexMessages mirrors storage.messages, per spec.md §4.3.
	IndexMessages = "messages"
	// IndexPeriods mirrors storage.periods.
	IndexPeriods = "periods"
	// IndexKV mirrors storage.kv_store (relations and other typed KV rows).
	IndexKV = "kv"

	bulkChunkSize = 1000
)

// indexSpec describes one index's searchable/filterable/sortable attributes.
type indexSpec struct {
	name        string
	searchable  []string
	filterable  []string
	sortable    []string
}

var indexSpecs = []indexSpec{
	{
		name:       IndexMessages,
		searchable: []string{"content", "role", "session_id", "tool_name", "speaker"},
		filterable: []string{"session_id", "role", "category", "created_at", "tool_name", "speaker", "character_ids"},
		sortable:   []string{"created_at", "id"},
	},
	{
		name:       IndexPeriods,
		searchable: []string{"content", "title"},
		filterable: []string{"session_id", "period_id", "period_type", "character_id"},
		sortable:   []string{"start_at", "end_at", "created_at"},
	},
	{
		name:       IndexKV,
		searchable: []string{"key", "metadata"},
		filterable: []string{"session_id", "key", "key_type", "character_id"},
		sortable:   []string{"created_at", "updated_at"},
	},
}

// Config holds the [meilisearch] TOML block's fields that matter to the client.
type Config struct {
	HTTPAddr string // e.g. "http://127.0.0.1:7700"
	APIKey   string
	Timeout  time.Duration
}

// Client is a bounded-timeout, best-effort Meilisearch REST client.
// A failed sync is logged, never propagated: the primary C2 write remains
// authoritative (spec.md §4.3, §7 Mirror-failure class).
type Client struct {
	cfg    Config
	http   *http.Client
	logger *observability.Logger
}

// New returns a Client. logger may be nil, in which case a default is used.
func New(cfg Config, logger *observability.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// EnsureIndexes creates (or updates the attribute config of) all three
// indices. Called once at startup and again after a full reindex.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	for _, spec := range indexSpecs {
		if err := c.createIndex(ctx, spec.name); err != nil {
			return fmt.Errorf("search: create index %s: %w", spec.name, err)
		}
		if err := c.configureIndex(ctx, spec); err != nil {
			return fmt.Errorf("search: configure index %s: %w", spec.name, err)
		}
	}
	return nil
}

func (c *Client) createIndex(ctx context.Context, name string) error {
	body := map[string]any{"uid": name, "primaryKey": "id"}
	_, err := c.do(ctx, http.MethodPost, "/indexes", body)
	return err
}

func (c *Client) configureIndex(ctx context.Context, spec indexSpec) error {
	if _, err := c.do(ctx, http.MethodPut, "/indexes/"+spec.name+"/settings/searchable-attributes", spec.searchable); err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodPut, "/indexes/"+spec.name+"/settings/filterable-attributes", spec.filterable); err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodPut, "/indexes/"+spec.name+"/settings/sortable-attributes", spec.sortable); err != nil {
		return err
	}
	return nil
}

// Upsert best-effort syncs one document into index, retrying with capped
// backoff and a per-attempt timeout. Failures are logged and swallowed.
func (c *Client) Upsert(ctx context.Context, index string, doc map[string]any) {
	policy := backoff.AggressivePolicy()
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := c.do(ctx, http.MethodPost, "/indexes/"+index+"/documents", []map[string]any{doc})
		if err == nil {
			return
		}
		lastErr = err
		select {
		case <-ctx.Done():
			c.logger.Warn(ctx, "search mirror upsert aborted", "error", ctx.Err())
			return
		case <-time.After(backoff.ComputeBackoff(policy, attempt)):
		}
	}
	c.logger.Warn(ctx, "search mirror upsert failed after retries", "error", lastErr)
}

// Delete best-effort removes a document by id from index.
func (c *Client) Delete(ctx context.Context, index, id string) {
	if _, err := c.do(ctx, http.MethodDelete, "/indexes/"+index+"/documents/"+id, nil); err != nil {
		c.logger.Warn(ctx, "search mirror delete failed", "error", err)
	}
}

// BulkReindex upserts docs into index in fixed-size chunks, used by the
// Archive Manager (C10) after loading an archive.
func (c *Client) BulkReindex(ctx context.Context, index string, docs []map[string]any) error {
	for i := 0; i < len(docs); i += bulkChunkSize {
		end := i + bulkChunkSize
		if end > len(docs) {
			end = len(docs)
		}
		if _, err := c.do(ctx, http.MethodPost, "/indexes/"+index+"/documents", docs[i:end]); err != nil {
			return fmt.Errorf("search: bulk reindex chunk [%d:%d]: %w", i, end, err)
		}
	}
	return nil
}

// DeleteAllDocuments empties index, used by the Archive Manager (C10)
// before repopulating the mirror from a freshly loaded working database.
func (c *Client) DeleteAllDocuments(ctx context.Context, index string) error {
	_, err := c.do(ctx, http.MethodDelete, "/indexes/"+index+"/documents", nil)
	return err
}

// SearchRequest is the JSON body Meilisearch's /search endpoint accepts.
type SearchRequest struct {
	Query  string   `json:"q"`
	Filter []string `json:"filter,omitempty"`
	Sort   []string `json:"sort,omitempty"`
	Limit  int      `json:"limit,omitempty"`
	Offset int      `json:"offset,omitempty"`
}

// SearchResult is the subset of Meilisearch's response this client needs.
type SearchResult struct {
	Hits []map[string]any `json:"hits"`
}

// Search issues a query against index. Returns an error (not swallowed)
// since callers decide whether to fall back to SQL LIKE.
func (c *Client) Search(ctx context.Context, index string, req SearchRequest) (*SearchResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/indexes/"+index+"/search", req)
	if err != nil {
		return nil, err
	}
	var res SearchResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.HTTPAddr+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search: %s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}
	return raw, nil
}
