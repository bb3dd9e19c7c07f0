// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - The serve command: run the stub backend until interrupted.

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/newsdesk/internal/config"
	"github.com/jeranaias/newsdesk/internal/server"
)

// shutdownTimeout bounds the wait for in-flight requests on exit.
const shutdownTimeout = 5 * time.Second

// runServe starts the stub backend on server.host:server.port (or --port).
func runServe(ctx context.Context, cfg *config.Config, args Args) error {
	port := cfg.Server.Port
	if args.Port != 0 {
		port = args.Port
	}

	srv := server.New(server.Config{
		Host:           cfg.Server.Host,
		Port:           port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, server.NewEchoResponder())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	if !args.Quiet {
		fmt.Fprintf(os.Stderr, "Serving stub backend on http://%s (Ctrl+C to stop)\n", srv.Addr())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
