// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// output.go - Transcript printing shared by ask, chat and history.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/jeranaias/newsdesk/internal/config"
	"github.com/jeranaias/newsdesk/internal/model"
	"github.com/jeranaias/newsdesk/internal/ui/components"
	"github.com/jeranaias/newsdesk/internal/util"
)

// =============================================================================
// PRINTER
// =============================================================================

// printer writes transcript entries for line-mode commands. On a terminal it
// renders assistant text as markdown and links as hyperlinks; piped output
// stays plain.
type printer struct {
	out        io.Writer
	width      int
	tty        bool
	hyperlinks bool
	markdown   bool

	renderer *glamour.TermRenderer
}

func newPrinter(out io.Writer, cfg *config.Config) *printer {
	tty := isTerminal(out)
	p := &printer{
		out:   out,
		width: DefaultTerminalWidth,
		tty:   tty,
	}
	if tty {
		p.width = GetTerminalWidth()
		p.hyperlinks = HyperlinksEnabled(cfg.UI.Hyperlinks)
		p.markdown = cfg.UI.Markdown
	}
	return p
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printEntries prints entries in order, one blank line apart.
func (p *printer) printEntries(entries []model.Entry) {
	if len(entries) == 0 {
		return
	}
	rendered := make([]string, 0, len(entries))
	for _, entry := range entries {
		rendered = append(rendered, p.renderEntry(entry))
	}
	fmt.Fprintln(p.out, strings.Join(rendered, "\n\n"))
}

func (p *printer) renderEntry(entry model.Entry) string {
	if p.markdown && entry.Kind == model.EntryMessage && entry.Role == model.RoleAssistant {
		if md, ok := p.renderMarkdown(util.SanitizeText(entry.Text)); ok {
			return md
		}
	}
	return components.RenderEntry(entry, components.RenderOptions{
		Width:      p.width,
		Hyperlinks: p.hyperlinks,
	})
}

// renderMarkdown renders text with glamour. It reports false when no
// renderer could be built or rendering failed.
func (p *printer) renderMarkdown(text string) (string, bool) {
	if p.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(p.width-4),
		)
		if err != nil {
			p.markdown = false
			return "", false
		}
		p.renderer = r
	}

	out, err := p.renderer.Render(text)
	if err != nil {
		return "", false
	}
	return strings.TrimRight(out, "\n"), true
}

// printJSON writes v as indented JSON, highlighted on a terminal.
func (p *printer) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	text := string(data)
	if p.tty && ColorsEnabled() {
		text = components.HighlightJSON(text)
	}
	_, err = fmt.Fprintln(p.out, text)
	return err
}

// notice prints a dim one-line message.
func (p *printer) notice(format string, args ...interface{}) {
	fmt.Fprintln(p.out, DimStyle.Render(fmt.Sprintf(format, args...)))
}
