package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/solar-engine/api"
)

var serveDemo bool

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the solar engine HTTP API.

On SIGINT/SIGTERM the server stops accepting connections, waits up to 30s
for active requests, then closes the database and cache connections.`,
		RunE: runServe,
	}
	cmd.Flags().BoolVar(&serveDemo, "demo", false, "Mount the demo scenario routes under /api/scenarios")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	handler := api.NewHandler(a.plants, a.samples, a.contracts, a.engine, a.bi, a.store)
	if serveDemo {
		handler.Demo = a.demo
		a.log.Warn("demo scenario routes enabled; loading a scenario resets its demo tenant")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", "addr", srv.Addr, "database", cfg.Database.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		a.log.Error("server failed", "error", err)
		return err
	case <-quit:
	}

	a.log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.log.Error("server forced to shutdown", "error", err)
		return err
	}

	a.log.Info("server exited gracefully")
	return nil
}
