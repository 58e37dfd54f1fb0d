package mcp

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusFunc reports durable store reachability for the health endpoint
type StatusFunc func(ctx context.Context) model.BackendStatus

type healthResponse struct {
	Status  string              `json:"status"`
	Durable model.BackendStatus `json:"durable"`
}

// NewHandler serves the MCP streamable HTTP endpoint at /mcp behind a bearer
// token check and an unauthenticated health endpoint at /health
func NewHandler(server *mcp.Server, token string, status StatusFunc) http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", requireBearer(token, streamable))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:  "ok",
			Durable: status(r.Context()),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logging.From(r.Context()).Error("failed to write health response", "error", err)
		}
	})

	return withLogging(mux)
}

func requireBearer(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			logging.From(r.Context()).Warn("unauthorized request", "remote", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", `Bearer realm="recall"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent event streams of the MCP handler working
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := logging.From(r.Context()).With("method", r.Method, "path", r.URL.Path)
		r = r.WithContext(logging.With(r.Context(), logger))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Debug("request handled",
			"status", rec.status,
			"duration", time.Since(start))
	})
}
