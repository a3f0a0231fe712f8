// Package api exposes ingestion and the notification center over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"token-radar/internal/ingestion"
	"token-radar/internal/notify"
	"token-radar/internal/observability"
)

// DefaultMaxBodyBytes limits ingestion request bodies.
const DefaultMaxBodyBytes = 5 << 20

// Server holds the HTTP handlers.
type Server struct {
	gateway      *ingestion.Gateway
	center       *notify.Center
	maxBodyBytes int64
	logger       *zap.Logger
}

// Options contains configuration for creating a Server.
type Options struct {
	Gateway      *ingestion.Gateway
	Center       *notify.Center
	MaxBodyBytes int64
	Logger       *zap.Logger
}

// NewServer creates the HTTP server handlers.
func NewServer(opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		gateway:      opts.Gateway,
		center:       opts.Center,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       opts.Logger.Named("api"),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/ingest", s.instrument("/api/ingest", s.handleIngest))
	mux.Handle("GET /api/notifications", s.instrument("/api/notifications", s.handleNotifications))
	mux.Handle("POST /api/notifications/read", s.instrument("/api/notifications/read", s.handleMarkRead))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	return mux
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		observability.RecordHTTPRequest(route, strconv.Itoa(rec.status), time.Since(start))
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// writeInternal logs err and answers with a generic 500.
func (s *Server) writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "internal error")
}
