package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/bustub-shell/internal/logging"
	"github.com/aretw0/bustub-shell/pkg/classify"
	"github.com/aretw0/bustub-shell/pkg/domain"
	"github.com/aretw0/bustub-shell/pkg/ports"
	"github.com/aretw0/bustub-shell/pkg/session"
)

// DefaultMaxBodySize bounds the request body of POST /api/execute (1 MiB).
const DefaultMaxBodySize = 1 << 20

//go:embed openapi.yaml
var rawSpec []byte

// Spec parses and validates the embedded OpenAPI document.
func Spec() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}
	return doc, nil
}

// ExecuteRequest is the body of POST /api/execute.
type ExecuteRequest struct {
	Command string `json:"command" mapstructure:"command"`
}

// ExecuteData carries the engine's answer.
type ExecuteData struct {
	Prompt     string `json:"prompt"`
	Output     string `json:"output"`
	ReturnCode *int   `json:"returnCode,omitempty"`
	Structured bool   `json:"structured"`
	Truncated  bool   `json:"truncated"`
}

// ExecuteResponse is the body returned by POST /api/execute.
type ExecuteResponse struct {
	Success       bool         `json:"success"`
	Data          *ExecuteData `json:"data,omitempty"`
	Error         string       `json:"error,omitempty"`
	ExecutionTime int64        `json:"executionTime"`
}

// InitializeResponse is the body returned by POST /api/initialize.
type InitializeResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	ExecutionTime int64  `json:"executionTime"`
}

// StatusResponse is the body returned by GET /api/status.
type StatusResponse struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Cause  string `json:"cause,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Option configures the handler.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithSanitizer sets the check applied to commands before they reach the
// engine.
func WithSanitizer(fn session.Sanitizer) Option {
	return func(s *Server) {
		s.sanitize = fn
	}
}

// WithMaxBodySize bounds the request body size in bytes.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// Server exposes an engine over HTTP.
type Server struct {
	Engine   ports.Engine
	logger   *slog.Logger
	metrics  http.Handler
	sanitize session.Sanitizer
	maxBody  int64
	execute  *openapi3.Schema
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.Engine, opts ...Option) (http.Handler, error) {
	doc, err := Spec()
	if err != nil {
		return nil, err
	}
	ref := doc.Components.Schemas["ExecuteRequest"]
	if ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("openapi spec: ExecuteRequest schema missing")
	}

	s := &Server{
		Engine:   engine,
		logger:   logging.NewNop(),
		sanitize: session.NewSanitizer(0),
		maxBody:  DefaultMaxBodySize,
		execute:  ref.Value,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Post("/api/execute", s.Execute)
	r.Post("/api/initialize", s.Initialize)
	r.Get("/api/status", s.Status)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Execute handles POST /api/execute.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeExecute(w, r)
	if err != nil {
		s.logger.Warn("Execute: invalid request body", "error", err)
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		s.logger.Warn("Execute: empty command")
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Command is required"})
		return
	}
	command, err := s.sanitize(req.Command)
	if err != nil {
		s.logger.Warn("Execute: command rejected", "error", err)
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input: " + err.Error()})
		return
	}

	res := s.Engine.Execute(r.Context(), command)
	s.writeJSON(w, http.StatusOK, toExecuteResponse(res))
}

// decodeExecute validates the body against the ExecuteRequest schema and
// decodes it.
func (s *Server) decodeExecute(w http.ResponseWriter, r *http.Request) (ExecuteRequest, error) {
	var req ExecuteRequest

	var body any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(&body); err != nil {
		return req, err
	}
	if err := s.execute.VisitJSON(body); err != nil {
		return req, err
	}
	if err := mapstructure.Decode(body, &req); err != nil {
		return req, err
	}
	return req, nil
}

func toExecuteResponse(res domain.EngineResult) ExecuteResponse {
	resp := ExecuteResponse{
		Success:       res.Success,
		Error:         res.Error,
		ExecutionTime: res.Duration.Milliseconds(),
	}
	if res.HasReturnCode {
		code := res.ReturnCode
		resp.Data = &ExecuteData{
			Prompt:     res.Prompt,
			Output:     res.Output,
			ReturnCode: &code,
			Structured: classify.Classify(res.Output) == classify.Structured,
			Truncated:  res.Truncated(),
		}
	}
	return resp
}

// Initialize handles POST /api/initialize.
func (s *Server) Initialize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ok := s.Engine.Initialize(r.Context())
	elapsed := time.Since(start).Milliseconds()

	if ok {
		s.writeJSON(w, http.StatusOK, InitializeResponse{
			Success:       true,
			Message:       "Database initialized successfully",
			ExecutionTime: elapsed,
		})
		return
	}

	cause := s.Engine.Status().Label()
	if c := causeOf(s.Engine); c != nil {
		cause = c.Error()
	}
	s.logger.Error("Initialize failed", "error", cause)
	s.writeJSON(w, http.StatusInternalServerError, InitializeResponse{
		Error:         "Failed to initialize database: " + cause,
		ExecutionTime: elapsed,
	})
}

// Status handles GET /api/status.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	st := s.Engine.Status()
	resp := StatusResponse{Status: string(st), Label: st.Label()}
	if c := causeOf(s.Engine); c != nil {
		resp.Cause = c.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func causeOf(e ports.Engine) error {
	if r, ok := e.(ports.CauseReporter); ok {
		return r.Cause()
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
