// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Wiring of config, log, store, client and session.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jeranaias/newsdesk/internal/config"
	"github.com/jeranaias/newsdesk/internal/dispatch"
	"github.com/jeranaias/newsdesk/internal/session"
	"github.com/jeranaias/newsdesk/internal/storage"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// configPath returns --config or the default config location.
func configPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return config.ExpandPath(args.ConfigPath), nil
	}
	return config.ConfigPath()
}

// loadConfig loads the config file (or defaults), then applies the command
// line overrides. The result becomes the global config.
func loadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if args.ConfigPath != "" {
		path := config.ExpandPath(args.ConfigPath)
		if _, statErr := os.Stat(path); statErr != nil {
			if !errors.Is(statErr, os.ErrNotExist) {
				return nil, fmt.Errorf("config file %s: %w", path, statErr)
			}
			cfg = config.Default()
			cfg.ApplyEnvOverrides()
			cfg.SetDefaults()
		} else if cfg, err = config.LoadFromPath(path); err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
	}

	if args.BaseURL != "" {
		cfg.Backend.BaseURL = args.BaseURL
	}
	if args.Mode != "" {
		cfg.Chat.DefaultMode = args.Mode
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	config.SetGlobal(cfg)
	return cfg, nil
}

// =============================================================================
// LOGGING
// =============================================================================

// setupLogging routes the standard logger: stderr when verbose, otherwise
// the log file, otherwise nowhere. The returned func closes the file.
func setupLogging(cfg *config.Config, verbose bool) func() {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("")

	if verbose {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	f, err := openLogFile(cfg.LogPath())
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(io.Discard)
		f.Close()
	}
}

// openLogFile opens path for appending, creating its directory.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}

// =============================================================================
// APP
// =============================================================================

// App bundles what the conversation commands share.
type App struct {
	Config  *config.Config
	Store   *storage.Store
	Client  *dispatch.Client
	Session *session.Session
}

// openApp opens the store and builds the client and session from cfg.
func openApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := storage.Open(ctx, cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	return newApp(cfg, store), nil
}

// newApp builds an App over an already open store.
func newApp(cfg *config.Config, store *storage.Store) *App {
	client := dispatch.New(cfg.Backend.BaseURL, store,
		dispatch.WithTimeout(cfg.Timeout()),
		dispatch.WithRateLimit(cfg.Backend.RequestsPerMinute),
		dispatch.WithUserAgent("newsdesk/"+Version),
	)

	sess := session.New(store, client, session.Options{
		Mode:                    cfg.Mode(),
		PersistAssistantReplies: cfg.Chat.PersistAssistantReplies,
	})

	return &App{
		Config:  cfg,
		Store:   store,
		Client:  client,
		Session: sess,
	}
}

// Close closes the store.
func (a *App) Close() error {
	return a.Store.Close()
}
