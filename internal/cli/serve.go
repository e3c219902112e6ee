package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/bustub-shell"
	httpAdapter "github.com/aretw0/bustub-shell/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configure the HTTP collaborator.
type ServeOptions struct {
	Options
	// Addr overrides server.addr from the config.
	Addr string
	// Preload starts loading the engine before the first request.
	Preload bool
}

// RunServe exposes the engine over HTTP until SIGINT or SIGTERM.
func RunServe(opts ServeOptions) error {
	logger, err := createLogger(opts.Options)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	shell, err := opts.openShell(logger, bustub.WithMetricsRegistry(reg))
	if err != nil {
		return err
	}
	defer shell.Close(context.Background())

	handler, err := newServeHandler(shell, reg, logger)
	if err != nil {
		return err
	}

	addr := opts.Addr
	if addr == "" {
		addr = shell.Config().Server.Addr
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return serve(sigCtx, ln, handler, shell, opts.Preload, logger)
}

func newServeHandler(shell *bustub.Shell, reg *prometheus.Registry, logger *slog.Logger) (http.Handler, error) {
	return httpAdapter.NewHandler(shell.Bridge(),
		httpAdapter.WithLogger(logger),
		httpAdapter.WithSanitizer(shell.Sanitizer()),
		httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	)
}

// serve runs the server on ln until ctx is done.
func serve(ctx context.Context, ln net.Listener, handler http.Handler, shell *bustub.Shell, preload bool, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if preload {
		go func() {
			ok := shell.Bridge().Initialize(ctx)
			logger.Info("engine preload finished", "ready", ok, "status", string(shell.Status()))
		}()
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("BusTub server listening", "address", ln.Addr().String())
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		logger.Info("BusTub server stopped gracefully")
		return nil
	}
}
