package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/bustub-shell/internal/logging"
	"github.com/aretw0/bustub-shell/pkg/domain"
	"github.com/aretw0/bustub-shell/pkg/ports"
	"github.com/aretw0/bustub-shell/pkg/session"
)

// StatusURI is the resource describing the engine lifecycle.
const StatusURI = "bustub://status"

// ExecuteArgs are the arguments of the execute tool.
type ExecuteArgs struct {
	Command string `mapstructure:"command"`
}

// ExecuteResponse is the structured result of the execute tool.
type ExecuteResponse struct {
	Success    bool   `json:"success" jsonschema_description:"True for return codes 0 and 1"`
	Prompt     string `json:"prompt,omitempty" jsonschema_description:"Prompt reported by the engine"`
	Output     string `json:"output,omitempty" jsonschema_description:"Engine output"`
	Error      string `json:"error,omitempty" jsonschema_description:"Failure description"`
	ReturnCode *int   `json:"returnCode,omitempty" jsonschema_description:"Engine return code, absent when the engine was not called"`
	Truncated  bool   `json:"truncated" jsonschema_description:"Output was cut at the buffer capacity"`
}

// InitializeResponse is the structured result of the initialize tool.
type InitializeResponse struct {
	Success bool   `json:"success" jsonschema_description:"Engine is ready"`
	Status  string `json:"status" jsonschema_description:"Lifecycle state"`
	Message string `json:"message" jsonschema_description:"Human readable outcome"`
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSanitizer sets the check applied to commands before they reach the
// engine.
func WithSanitizer(fn session.Sanitizer) Option {
	return func(s *Server) {
		s.sanitize = fn
	}
}

// Server exposes the engine as an MCP server.
type Server struct {
	engine    ports.Engine
	logger    *slog.Logger
	sanitize  session.Sanitizer
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		sanitize:  session.NewSanitizer(0),
		mcpServer: server.NewMCPServer("bustub-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP protocol over SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	executeTool := mcp.NewTool("execute",
		mcp.WithDescription("Execute one SQL statement or backslash command against BusTub."),
		mcp.WithString("command", mcp.Required(), mcp.Description("Statement to run, e.g. SELECT * FROM t;")),
		mcp.WithOutputSchema[ExecuteResponse](),
	)
	s.mcpServer.AddTool(executeTool, mcp.NewStructuredToolHandler(s.handleExecute))

	initTool := mcp.NewTool("initialize",
		mcp.WithDescription("Load the BusTub engine. Safe to call repeatedly."),
		mcp.WithOutputSchema[InitializeResponse](),
	)
	s.mcpServer.AddTool(initTool, mcp.NewStructuredToolHandler(s.handleInitialize))
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ExecuteResponse, error) {
	var in ExecuteArgs
	if err := mapstructure.Decode(args, &in); err != nil {
		s.logger.Warn("MCP Execute: invalid arguments", "error", err)
		return ExecuteResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(in.Command) == "" {
		s.logger.Warn("MCP Execute: empty command")
		return ExecuteResponse{}, errors.New("command is required")
	}
	command, err := s.sanitize(in.Command)
	if err != nil {
		s.logger.Warn("MCP Execute: command rejected", "error", err)
		return ExecuteResponse{}, fmt.Errorf("invalid input: %w", err)
	}

	res := s.engine.Execute(ctx, command)
	resp := ExecuteResponse{
		Success:   res.Success,
		Prompt:    res.Prompt,
		Output:    res.Output,
		Error:     res.Error,
		Truncated: res.Truncated(),
	}
	if res.HasReturnCode {
		code := res.ReturnCode
		resp.ReturnCode = &code
	}
	return resp, nil
}

func (s *Server) handleInitialize(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (InitializeResponse, error) {
	ok := s.engine.Initialize(ctx)
	st := s.engine.Status()
	if ok {
		return InitializeResponse{Success: true, Status: string(st), Message: "Database initialized successfully"}, nil
	}

	cause := st.Label()
	if r, isReporter := s.engine.(ports.CauseReporter); isReporter && r.Cause() != nil {
		cause = r.Cause().Error()
	}
	s.logger.Error("MCP Initialize failed", "error", cause)
	return InitializeResponse{Status: string(st), Message: "Failed to initialize database: " + cause}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StatusURI, "Engine status",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.statusSnapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to encode status: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StatusURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

type statusSnapshot struct {
	Status domain.Status `json:"status"`
	Label  string        `json:"label"`
	Cause  string        `json:"cause,omitempty"`
}

func (s *Server) statusSnapshot() statusSnapshot {
	st := s.engine.Status()
	snap := statusSnapshot{Status: st, Label: st.Label()}
	if r, ok := s.engine.(ports.CauseReporter); ok && r.Cause() != nil {
		snap.Cause = r.Cause().Error()
	}
	return snap
}
