package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/lucidframe/conversa/internal/config"
	"github.com/lucidframe/conversa/internal/observability"
)

type ctxKey string

const apiKeyUserKey ctxKey = "httpapi.api_key_user"

// APIKeyUser returns the APIKeyConfig that authenticated r's request, if any.
func APIKeyUser(ctx context.Context) (config.APIKeyConfig, bool) {
	u, ok := ctx.Value(apiKeyUserKey).(config.APIKeyConfig)
	return u, ok
}

// AuthMiddleware enforces spec.md §6's API-key auth: an X-API-Key header
// checked against cfg.APIKeys, grounded on the teacher's web.AuthMiddleware
// (Bearer/API-key/cookie chain) trimmed to the one scheme this spec's
// config actually carries.
func AuthMiddleware(cfg config.AuthConfig, logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(cfg.APIKeys) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			if key == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(auth), "bearer ") {
					key = strings.TrimSpace(auth[len("bearer "):])
				}
			}

			for _, candidate := range cfg.APIKeys {
				if candidate.Key != "" && candidate.Key == key {
					ctx := context.WithValue(r.Context(), apiKeyUserKey, candidate)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			if logger != nil {
				logger.Warn(r.Context(), "api key rejected", "path", r.URL.Path)
			}
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid API key")
		})
	}
}

// LoggingMiddleware logs each request's method/path/status/duration,
// grounded on the teacher's web.LoggingMiddleware responseWriter wrapper.
func LoggingMiddleware(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			if logger != nil {
				logger.Debug(r.Context(), "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", wrapped.status,
					"duration", time.Since(start),
				)
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
