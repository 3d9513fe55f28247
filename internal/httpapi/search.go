package httpapi

import (
	"net/http"

	"github.com/lucidframe/conversa/internal/search"
	"github.com/lucidframe/conversa/pkg/models"
)

// searchRequest is the body POST /v1/search/{messages,scenarios,schedules}
// accepts, forwarding to C3 per spec.md §6.
type searchRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

type searchResponse struct {
	Hits []map[string]any `json:"hits"`
}

// defaultSearchLimit caps an unbounded query the same way
// internal/memory's own default page size does, so a zero-valued Limit
// in the request body isn't interpreted as SQL's LIMIT 0 (no rows).
const defaultSearchLimit = 20

// handleSearchMessages forwards to the messages index, falling back to
// storage's SQL LIKE search through the Memory Facade when the mirror
// errors, per spec.md §7's Mirror-failure class ("read fallbacks use
// direct SQL").
func (s *Server) handleSearchMessages(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "validation", "query is required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}

	if s.deps.Search != nil {
		sreq := search.SearchRequest{Query: req.Query, Limit: req.Limit, Offset: req.Offset}
		if req.SessionID != "" {
			sreq.Filter = []string{"session_id = \"" + req.SessionID + "\""}
		}
		res, err := s.deps.Search.Search(r.Context(), search.IndexMessages, sreq)
		if err == nil {
			writeJSON(w, http.StatusOK, searchResponse{Hits: res.Hits})
			return
		}
		if s.deps.Logger != nil {
			s.deps.Logger.Warn(r.Context(), "search mirror unavailable, falling back to SQL LIKE", "error", err)
		}
	}

	msgs, err := s.deps.Memory.SearchMessagesByKeyword(r.Context(), req.SessionID, req.Query, nil, req.Limit, req.Offset, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Hits: messagesToHits(msgs)})
}

// handleSearchPeriods returns a handler that forwards to the periods
// index, filtered to periodType, covering both /v1/search/scenarios and
// /v1/search/schedules (spec.md §6: Period is the unified container for
// both).
func (s *Server) handleSearchPeriods(periodType models.PeriodType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Query == "" {
			writeError(w, http.StatusBadRequest, "validation", "query is required")
			return
		}
		if s.deps.Search == nil {
			writeError(w, http.StatusServiceUnavailable, "mirror_unavailable", "search mirror is not configured")
			return
		}
		if req.Limit <= 0 {
			req.Limit = defaultSearchLimit
		}

		filters := []string{"period_type = \"" + string(periodType) + "\""}
		if req.SessionID != "" {
			filters = append(filters, "session_id = \""+req.SessionID+"\"")
		}
		res, err := s.deps.Search.Search(r.Context(), search.IndexPeriods, search.SearchRequest{
			Query:  req.Query,
			Filter: filters,
			Limit:  req.Limit,
			Offset: req.Offset,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, searchResponse{Hits: res.Hits})
	}
}

func messagesToHits(msgs []*models.Message) []map[string]any {
	hits := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		hits = append(hits, map[string]any{
			"id":         m.ID,
			"session_id": m.SessionID,
			"role":       m.Role,
			"content":    m.Content,
			"category":   m.Category,
			"created_at": m.CreatedAt,
		})
	}
	return hits
}
