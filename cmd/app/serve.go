package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health, readiness and metrics endpoints and run scheduled jobs",
	Run: func(c *cobra.Command, _ []string) {
		app, logger := buildApp(c)
		manager := app.Manager()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := manager.Start(ctx); err != nil {
			log.Fatalf("Error starting persistence unit %s: %v", manager.Unit().Name(), err)
		}

		jobManager := app.CreateJobManager()
		if err := jobManager.StartAll(); err != nil {
			_ = manager.Stop()
			log.Fatalf("Failed to start jobs: %v", err)
		}

		server := app.CreateServer()
		serverErr := make(chan error, 1)
		go func() {
			serverErr <- server.Start(fmt.Sprintf("0.0.0.0:%s", app.Config().HTTPPort))
		}()

		select {
		case <-ctx.Done():
			logger.Info("Shutting down")
		case err := <-serverErr:
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed", "error", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
		}
		jobManager.StopAll()
		if err := manager.Stop(); err != nil {
			logger.Error("Persistence unit failed to stop", "error", err)
		}
	},
}
