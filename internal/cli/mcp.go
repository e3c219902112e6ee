package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/aretw0/bustub-shell"
	"github.com/aretw0/bustub-shell/pkg/adapters/mcp"
)

// MCPOptions configure the Model Context Protocol server.
type MCPOptions struct {
	Options
	// Transport is "stdio" or "sse".
	Transport string
	// Port is used by the sse transport.
	Port int
}

// RunMCP serves the engine as MCP tools.
func RunMCP(opts MCPOptions) error {
	logger, err := createLogger(opts.Options)
	if err != nil {
		return err
	}

	shell, err := opts.openShell(logger)
	if err != nil {
		return err
	}
	defer shell.Close(context.Background())

	srv := mcp.NewServer(shell.Bridge(), strings.TrimSpace(bustub.Version),
		mcp.WithLogger(logger),
		mcp.WithSanitizer(shell.Sanitizer()),
	)

	switch opts.Transport {
	case "", "stdio":
		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)
		logger.Info("Starting BusTub MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		sigCtx := NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		logger.Info("Starting BusTub MCP Server (SSE)", "port", opts.Port)
		if err := srv.ServeSSE(sigCtx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", opts.Transport)
	}
}
