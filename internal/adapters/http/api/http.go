// Package api serves a processed dataset over HTTP and websocket.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/CeoatNorthstar/openCern/internal/adapters/output"
	"github.com/CeoatNorthstar/openCern/pkg/logger"
)

// Paging defaults for GET /events.
const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
	defaultInterval  = 100 * time.Millisecond
)

// Server wires HTTP routes for one loaded document.
type Server struct {
	doc      *output.Document
	interval time.Duration
	logger   logger.Logger

	healthHandler   *HealthHandler
	metadataHandler *MetadataHandler
	eventsHandler   *EventsHandler
	streamHandler   *StreamHandler
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithInterval sets the delay between events on /stream.
func WithInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(doc *output.Document, opts ...Option) *Server {
	s := &Server{
		doc:      doc,
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}

	s.healthHandler = NewHealthHandler()
	s.metadataHandler = NewMetadataHandler(doc)
	s.eventsHandler = NewEventsHandler(doc, maxPageLimit)
	s.streamHandler = NewStreamHandler(doc, s.interval, s.logger)
	return s
}

// Register attaches all HTTP routes to mux. Streams stop when ctx is done.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	s.streamHandler.base = ctx

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metadata", MetricsMiddleware(s.metadataHandler.HandleMetadata, "metadata"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleGetEvents, "events"))
	mux.HandleFunc("/stream", s.streamHandler.HandleStream)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
