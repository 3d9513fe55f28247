// Package httpapi implements spec.md §6's external interface: the HTTP
// JSON surface a client speaks to Nexus over, mirroring the teacher's
// internal/gateway http_server.go mux-plus-handler-method shape. Each
// handler is a thin adapter: decode request, drive internal/flow or
// internal/clock or internal/search, encode response.
package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lucidframe/conversa/internal/archive"
	"github.com/lucidframe/conversa/internal/clock"
	"github.com/lucidframe/conversa/internal/config"
	"github.com/lucidframe/conversa/internal/flow"
	"github.com/lucidframe/conversa/internal/llm"
	"github.com/lucidframe/conversa/internal/memory"
	"github.com/lucidframe/conversa/internal/observability"
	"github.com/lucidframe/conversa/internal/search"
	"github.com/lucidframe/conversa/internal/tools"
	"github.com/lucidframe/conversa/pkg/models"
)

// Deps bundles every collaborator a handler needs. Deps.LLM is keyed by
// provider name (config.LLMConfig.Providers' keys); handlers resolve
// model_info/default_provider against it per request.
type Deps struct {
	Config  *config.Config
	Memory  *memory.Facade
	Clock   *clock.Clock
	Search  *search.Client
	Archive *archive.Manager
	Tools   *tools.Collection
	LLM     map[string]llm.Provider
	Logger  *observability.Logger
}

// Server owns the HTTP surface: route table, auth, and graceful shutdown,
// grounded on the teacher's gateway.Server.startHTTPServer/stopHTTPServer.
type Server struct {
	deps     Deps
	mux      *http.ServeMux
	httpSrv  *http.Server
	listener net.Listener
}

// NewServer builds the route table over deps.
func NewServer(deps Deps) *Server {
	s := &Server{deps: deps, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	protect := func(h http.HandlerFunc) http.Handler {
		return AuthMiddleware(s.deps.Config.Auth, s.deps.Logger)(h)
	}

	s.mux.Handle("/v1/chat/completions", protect(s.handleChatCompletions))
	s.mux.Handle("/v1/flow/completions", protect(s.handleFlowCompletions))

	s.mux.Handle("/v1/search/messages", protect(s.handleSearchMessages))
	s.mux.Handle("/v1/search/scenarios", protect(s.handleSearchPeriods(models.PeriodScenario)))
	s.mux.Handle("/v1/search/schedules", protect(s.handleSearchPeriods(models.PeriodSchedule)))

	s.mux.Handle("/v1/sessions/", protect(s.handleSessionTime))
}

// Handler returns the root handler, wrapped with request logging per the
// teacher's web.LoggingMiddleware.
func (s *Server) Handler() http.Handler {
	return LoggingMiddleware(s.deps.Logger)(s.mux)
}

// Start listens on addr and serves until Stop is called; it returns once
// the listener is bound, serving in a background goroutine, matching the
// teacher's startHTTPServer/stopHTTPServer split.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("httpapi: listen: %w", err)
	}
	s.listener = listener
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			if s.deps.Logger != nil {
				s.deps.Logger.Error(context.Background(), "http server error", "error", err)
			}
		}
	}()
	if s.deps.Logger != nil {
		s.deps.Logger.Info(context.Background(), "starting http server", "addr", addr)
	}
	return nil
}

// Stop gracefully shuts the server down within ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
