// Package serve implements the HTTP server command.
package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/tphakala/bird-catalog/internal/api"
	"github.com/tphakala/bird-catalog/internal/catalog"
	"github.com/tphakala/bird-catalog/internal/conf"
	"github.com/tphakala/bird-catalog/internal/datastore"
	"github.com/tphakala/bird-catalog/internal/logging"
	"github.com/tphakala/bird-catalog/internal/observability"
	"github.com/tphakala/bird-catalog/internal/observability/metrics"
)

// shutdownTimeout bounds how long in-flight requests may run after a
// termination signal before the listener is torn down.
const shutdownTimeout = 10 * time.Second

// Command creates the serve command which runs the catalog HTTP server.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog HTTP server",
		Long:  "Start serving the species catalog API over HTTP until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), settings)
		},
	}

	return cmd
}

func runServer(ctx context.Context, settings *conf.Settings) error {
	logger := logging.ForService("server")

	ds, err := datastore.New(settings)
	if err != nil {
		return fmt.Errorf("failed to create datastore: %w", err)
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logger.Error("Failed to close datastore", "error", err)
		}
	}()

	m, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	if withMetrics, ok := ds.(interface {
		SetMetrics(*metrics.DatastoreMetrics)
	}); ok {
		withMetrics.SetMetrics(m.Datastore)
	}

	svc := catalog.New(ds, settings, m.Catalog)

	e := echo.New()
	e.HideBanner = true
	e.Debug = settings.Server.Debug

	controller, err := api.New(e, svc, settings, m)
	if err != nil {
		return fmt.Errorf("failed to create API controller: %w", err)
	}
	defer controller.Shutdown()

	addr := net.JoinHostPort(settings.Server.Host, settings.Server.Port)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("Shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Shutting down", "reason", "context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
