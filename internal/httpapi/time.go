package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/lucidframe/conversa/pkg/models"
)

const timeLayout = "2006-01-02 15:04:05"

// timeClockResponse is spec.md §6's exact TimeClockResponse wire shape.
type timeClockResponse struct {
	SessionID         string              `json:"session_id"`
	BaseVirtual       string              `json:"base_virtual"`
	BaseReal          string              `json:"base_real"`
	Actions           []models.TimeAction `json:"actions"`
	CurrentVirtualTime string             `json:"current_virtual_time"`
	CurrentRealTime    string             `json:"current_real_time"`
	UpdatedAt          string             `json:"updated_at,omitempty"`
	RealUpdatedAt      string             `json:"real_updated_at,omitempty"`
}

// handleSessionTime dispatches every GET/PUT/POST under
// /v1/sessions/{id}/time[/seek|/nudge|/speed], per spec.md §6. net/http's
// ServeMux (pre-1.22 pattern style, matching the teacher's mux.Handle
// calls) doesn't parse path params, so this handler does its own
// suffix-trimming over the registered "/v1/sessions/" prefix.
func (s *Server) handleSessionTime(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 2 || parts[1] != "time" {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	sessionID := parts[0]
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "validation", "session id is required")
		return
	}
	sub := ""
	if len(parts) >= 3 {
		sub = parts[2]
	}

	switch sub {
	case "":
		s.handleTimeGet(w, r, sessionID)
	case "seek":
		s.handleTimeSeek(w, r, sessionID)
	case "nudge":
		s.handleTimeNudge(w, r, sessionID)
	case "speed":
		s.handleTimeSpeed(w, r, sessionID)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown time operation")
	}
}

func (s *Server) handleTimeGet(w http.ResponseWriter, r *http.Request, sessionID string) {
	resp, err := s.timeResponse(sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTimeSeek(w http.ResponseWriter, r *http.Request, sessionID string) {
	var body struct {
		VirtualTime string `json:"virtual_time"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	target, err := time.Parse(timeLayout, body.VirtualTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid virtual_time format")
		return
	}
	if err := s.deps.Clock.Seek(sessionID, target); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.handleTimeGet(w, r, sessionID)
}

func (s *Server) handleTimeNudge(w http.ResponseWriter, r *http.Request, sessionID string) {
	var body struct {
		DeltaSeconds float64 `json:"delta_seconds"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := s.deps.Clock.Nudge(sessionID, body.DeltaSeconds); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.handleTimeGet(w, r, sessionID)
}

func (s *Server) handleTimeSpeed(w http.ResponseWriter, r *http.Request, sessionID string) {
	var body struct {
		Speed float64 `json:"speed"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := s.deps.Clock.SetSpeed(sessionID, body.Speed); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.handleTimeGet(w, r, sessionID)
}

func (s *Server) timeResponse(sessionID string) (timeClockResponse, error) {
	snap, err := s.deps.Clock.Snapshot(sessionID)
	if err != nil {
		return timeClockResponse{}, err
	}
	virtualNow, err := s.deps.Clock.Now(sessionID)
	if err != nil {
		return timeClockResponse{}, err
	}
	resp := timeClockResponse{
		SessionID:          sessionID,
		BaseVirtual:        snap.BaseVirtual.Format(timeLayout),
		BaseReal:           snap.BaseReal.Format(timeLayout),
		Actions:            snap.Actions,
		CurrentVirtualTime: virtualNow.Format(timeLayout),
		CurrentRealTime:    time.Now().Format(timeLayout),
	}
	if !snap.UpdatedAt.IsZero() {
		resp.UpdatedAt = snap.UpdatedAt.Format(timeLayout)
	}
	if !snap.RealUpdatedAt.IsZero() {
		resp.RealUpdatedAt = snap.RealUpdatedAt.Format(timeLayout)
	}
	return resp, nil
}
