// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat.
//
// Command: chat
// Short:   Interactive chat without the full-screen view
//
// Interactive commands:
//   /help, /h              Show available commands
//   /mode [chat|assistant] Show or switch the mode (no argument toggles)
//   /new                   Start a new chat (clears history and thread)
//   /history               Print the stored conversation
//   /export FILE           Export the conversation (format from extension)
//   /quit, /q              Exit
//   Ctrl+C                 Cancel the pending reply; at the prompt, exit
//   Ctrl+D                 Exit

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/newsdesk/internal/config"
	"github.com/jeranaias/newsdesk/internal/model"
)

// historyFileName is the liner history file inside the config directory.
const historyFileName = "chat_history"

var slashCommands = []string{"/help", "/mode", "/new", "/history", "/export", "/quit"}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// runChat runs the line-mode chat until /quit, Ctrl+C at the prompt or EOF.
func runChat(ctx context.Context, app *App, args Args) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeSlash)

	historyFile := chatHistoryPath()
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer saveChatHistory(line, historyFile)

	r := newREPL(app, os.Stdout, args.Quiet)
	r.printWelcome(ctx)

	for {
		input, err := line.Prompt(r.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println()
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if r.handle(ctx, input) {
			return nil
		}
	}
}

func chatHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, historyFileName)
}

// saveChatHistory persists input history with owner-only permissions.
func saveChatHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}

// completeSlash completes slash command names.
func completeSlash(line string) []string {
	if !strings.HasPrefix(line, "/") || strings.Contains(line, " ") {
		return nil
	}
	var matches []string
	for _, cmd := range slashCommands {
		if strings.HasPrefix(cmd, strings.ToLower(line)) {
			matches = append(matches, cmd)
		}
	}
	return matches
}

// =============================================================================
// REPL
// =============================================================================

// repl holds line-mode state. It is driven one input line at a time.
type repl struct {
	app   *App
	out   io.Writer
	p     *printer
	quiet bool
}

func newREPL(app *App, out io.Writer, quiet bool) *repl {
	return &repl{
		app:   app,
		out:   out,
		p:     newPrinter(out, app.Config),
		quiet: quiet,
	}
}

// prompt is plain text; liner measures it by runes.
func (r *repl) prompt() string {
	return strings.ToLower(r.app.Session.Mode().DisplayName()) + "> "
}

func (r *repl) printWelcome(ctx context.Context) {
	if r.quiet {
		return
	}
	fmt.Fprintln(r.out, TitleStyle.Render("newsdesk")+" "+DimStyle.Render(r.app.Client.BaseURL()))
	count, err := r.app.Session.MessageCount(ctx)
	if err == nil && count > 0 {
		r.p.notice("%d stored messages. /history to show them, /new to start over.", count)
	}
	r.p.notice("Type a question, or /help for commands.")
}

// handle processes one input line and reports whether to exit.
func (r *repl) handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}
	if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
		return true
	}
	if strings.HasPrefix(input, "/") {
		return r.command(ctx, input)
	}

	r.send(ctx, input)
	return false
}

// send runs one exchange. Ctrl+C while waiting cancels it.
func (r *repl) send(ctx context.Context, text string) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	ex, err := r.app.Session.Submit(ctx, text)
	if err != nil {
		r.errorf("%v", err)
		return
	}

	r.p.printEntries(ex.Reply)
	if errors.Is(ex.Err, context.Canceled) {
		r.p.notice("Request cancelled.")
	}
}

// command runs a slash command and reports whether to exit.
func (r *repl) command(ctx context.Context, input string) bool {
	fields := strings.Fields(input)
	name := strings.ToLower(fields[0])
	rest := fields[1:]

	switch name {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h", "/?":
		r.printHelp()

	case "/mode", "/m":
		r.switchMode(rest)

	case "/new", "/clear", "/reset":
		if err := r.app.Session.NewChat(ctx); err != nil {
			r.errorf("could not start a new chat: %v", err)
			return false
		}
		r.p.notice("Started a new chat.")

	case "/history":
		entries, err := r.app.Session.History(ctx)
		if err != nil {
			r.errorf("could not load history: %v", err)
			return false
		}
		if len(entries) == 0 {
			r.p.notice("No messages yet.")
			return false
		}
		r.p.printEntries(entries)

	case "/export":
		if len(rest) == 0 {
			r.errorf("usage: /export FILE (.md, .html or .json)")
			return false
		}
		if err := runExport(ctx, r.app, Args{Output: strings.Join(rest, " ")}, r.out); err != nil {
			r.errorf("%v", err)
		}

	default:
		r.errorf("unknown command %s; type /help", name)
	}
	return false
}

func (r *repl) switchMode(rest []string) {
	var mode model.Mode
	if len(rest) == 0 {
		mode = r.app.Session.ToggleMode()
	} else {
		parsed, err := model.ParseMode(rest[0])
		if err != nil {
			r.errorf("%v", err)
			return
		}
		if err := r.app.Session.SetMode(parsed); err != nil {
			r.errorf("%v", err)
			return
		}
		mode = parsed
	}
	r.p.notice("Mode: %s", mode.DisplayName())
}

func (r *repl) printHelp() {
	help := [][2]string{
		{"/mode [chat|assistant]", "Show or switch the mode"},
		{"/new", "Start a new chat"},
		{"/history", "Print the stored conversation"},
		{"/export FILE", "Export to .md, .html or .json"},
		{"/quit", "Exit (also Ctrl+D)"},
		{"Ctrl+C", "Cancel the pending reply"},
	}
	for _, h := range help {
		fmt.Fprintf(r.out, "  %s%s\n", RenderLabel(h[0]), DimStyle.Render(h[1]))
	}
}

func (r *repl) errorf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "%s %s\n", ErrorStyle.Render("[Error]"), fmt.Sprintf(format, args...))
}
