// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - The default command: the full-screen chat view.

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/newsdesk/internal/config"
	"github.com/jeranaias/newsdesk/internal/ui/chat"
	"github.com/jeranaias/newsdesk/internal/ui/styles"
)

// runTUI runs the chat view until the user quits. Logs go to the log file
// because the terminal belongs to the view; config file changes are applied
// live.
func runTUI(ctx context.Context, app *App, args Args) error {
	cfg := app.Config

	logPath := cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := tea.LogToFile(logPath, "newsdesk ")
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	log.Printf("TUI_START | version=%s base_url=%s mode=%s", Version, cfg.Backend.BaseURL, cfg.Mode())

	m := chat.New(app.Session, styles.NewTheme(), chat.Options{
		Hyperlinks:  cfg.UI.Hyperlinks,
		Endpoint:    app.Client.BaseURL(),
		DefaultMode: cfg.Mode(),
	})

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(m, opts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	watchConfig(ctx, args, p)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	log.Printf("TUI_EXIT")
	return nil
}

// watchConfig forwards config file reloads to the program. The file may not
// exist yet; its directory must.
func watchConfig(ctx context.Context, args Args, p *tea.Program) {
	path, err := configPath(args)
	if err != nil {
		log.Printf("CONFIG_WATCH_DISABLED | error=%v", err)
		return
	}

	w, err := config.NewWatcher(path, config.DefaultWatchDebounce)
	if err != nil {
		log.Printf("CONFIG_WATCH_DISABLED | path=%s error=%v", path, err)
		return
	}

	go func() {
		defer w.Close()
		w.Run(ctx, func(cfg *config.Config, err error) {
			if cfg != nil && args.Mode != "" {
				cfg.Chat.DefaultMode = args.Mode
			}
			p.Send(chat.ConfigReloadedMsg{Config: cfg, Err: err})
		})
	}()
}
