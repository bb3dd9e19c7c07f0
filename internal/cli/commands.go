// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - One-shot conversation commands: ask, history, reset,
// export and health.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/jeranaias/newsdesk/internal/export"
	"github.com/jeranaias/newsdesk/internal/model"
	"github.com/jeranaias/newsdesk/internal/session"
	"github.com/jeranaias/newsdesk/internal/storage"
)

// healthTimeout bounds the health check.
const healthTimeout = 10 * time.Second

// =============================================================================
// ASK
// =============================================================================

// askFailure is the JSON body printed when an ask fails.
type askFailure struct {
	Mode  model.Mode `json:"mode"`
	Error string     `json:"error"`
}

// runAsk sends one question and prints the reply entries. Ctrl+C cancels
// the request.
func runAsk(ctx context.Context, app *App, args Args, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	p := newPrinter(out, app.Config)

	ex, err := app.Session.Submit(ctx, args.Query)
	if err != nil {
		return err
	}

	if args.JSON {
		if ex.Failed() {
			if err := p.printJSON(askFailure{Mode: ex.Mode, Error: session.GenericErrorText}); err != nil {
				return err
			}
			return fmt.Errorf("request failed: %w", ex.Err)
		}
		return p.printJSON(ex.Raw)
	}

	p.printEntries(ex.Reply)
	if ex.Failed() {
		return fmt.Errorf("request failed: %w", ex.Err)
	}
	if !args.Quiet {
		p.notice("%s reply in %s", ex.Mode.DisplayName(), ex.Duration.Round(time.Millisecond))
	}
	return nil
}

// =============================================================================
// HISTORY
// =============================================================================

// runHistory prints the stored conversation. With --json the raw rows are
// printed instead.
func runHistory(ctx context.Context, app *App, args Args, out io.Writer) error {
	p := newPrinter(out, app.Config)

	if args.JSON {
		msgs, err := app.Store.ReadAll(ctx)
		if err != nil {
			return err
		}
		if msgs == nil {
			msgs = []model.StoredMessage{}
		}
		return p.printJSON(msgs)
	}

	entries, err := app.Session.History(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		p.notice("No messages yet.")
		return nil
	}

	p.printEntries(entries)
	if !args.Quiet {
		p.notice("%d messages", len(entries))
	}
	return nil
}

// =============================================================================
// RESET
// =============================================================================

// runReset clears the history and the assistant thread after confirmation.
func runReset(ctx context.Context, app *App, args Args, in io.Reader, out io.Writer) error {
	ok, err := newConfirmer(in, out).require(args.Confirm, "delete the conversation history and assistant thread")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	if err := app.Session.NewChat(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Conversation cleared.\n", RenderStatus(true))
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

// runExport writes the conversation in the requested format. The format
// defaults to the output file's extension, then markdown.
func runExport(ctx context.Context, app *App, args Args, out io.Writer) error {
	msgs, err := app.Store.ReadAll(ctx)
	if err != nil {
		return err
	}
	threadID, _, err := app.Store.GetMetadata(ctx, storage.KeyThreadID)
	if err != nil {
		return err
	}

	format := args.Format
	if format == "" {
		if guessed, ok := export.FormatFromPath(args.Output); ok {
			format = guessed
		} else {
			format = "md"
		}
	}

	opts := export.DefaultOptions()
	opts.IncludeMetadata = !args.NoMetadata
	if args.Theme != "" {
		opts.Theme = args.Theme
	}

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}

	doc := export.NewDocument(msgs, threadID)
	if len(doc.Messages) == 0 {
		return fmt.Errorf("nothing to export: %w", export.ErrNoMessages)
	}

	if args.Output == "-" {
		content, err := exporter.Export(doc)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		_, err = out.Write(content)
		return err
	}

	path := args.Output
	if path == "" {
		path = export.DefaultFilename(doc, exporter)
	}
	if err := export.ExportToFile(doc, exporter, path); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Exported %d messages to %s\n", RenderStatus(true), len(doc.Messages), path)
	return nil
}

// =============================================================================
// HEALTH
// =============================================================================

// runHealth checks the backend's /health endpoint.
func runHealth(ctx context.Context, app *App, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	start := time.Now()
	if err := app.Client.Health(ctx); err != nil {
		fmt.Fprintf(out, "%s %s\n", RenderStatus(false), app.Client.BaseURL())
		return fmt.Errorf("backend is not healthy: %w", err)
	}
	fmt.Fprintf(out, "%s %s (%s)\n", RenderStatus(true), app.Client.BaseURL(), time.Since(start).Round(time.Millisecond))
	return nil
}
