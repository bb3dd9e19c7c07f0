// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/newsdesk/internal/model"
	"github.com/jeranaias/newsdesk/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a document to one file format.
type Exporter interface {
	// Export converts a document to the target format and returns the content.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

var (
	// ErrNoMessages is returned when there is nothing to export.
	ErrNoMessages = errors.New("conversation has no messages")

	// ErrUnknownFormat is returned by ForFormat.
	ErrUnknownFormat = errors.New("unsupported export format")
)

// Formats lists the accepted format names.
var Formats = []string{"json", "md", "html"}

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is the exported view of the stored history.
type Document struct {
	Title      string                `json:"title"`
	ThreadID   string                `json:"thread_id,omitempty"`
	ExportedAt time.Time             `json:"exported_at"`
	Messages   []model.StoredMessage `json:"messages"`
}

// maxTitleWidth bounds the title taken from the first question.
const maxTitleWidth = 60

// NewDocument builds a document from stored messages. The title is the
// first user message.
func NewDocument(messages []model.StoredMessage, threadID string) *Document {
	title := "newsdesk conversation"
	for _, msg := range messages {
		if msg.IsUser() {
			if t := util.OneLine(util.SanitizeText(msg.Content)); t != "" {
				title = util.TruncateWidth(t, maxTitleWidth)
			}
			break
		}
	}
	if messages == nil {
		messages = []model.StoredMessage{}
	}
	return &Document{
		Title:      title,
		ThreadID:   threadID,
		ExportedAt: time.Now().UTC(),
		Messages:   messages,
	}
}

func (d *Document) validate() error {
	if d == nil {
		return fmt.Errorf("document is nil")
	}
	if len(d.Messages) == 0 {
		return ErrNoMessages
	}
	return nil
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeMetadata includes the title block (thread id, counts, dates).
	IncludeMetadata bool

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	// Default: "dark"
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ForFormat returns the exporter for a format name. "markdown" and "htm"
// are accepted as aliases.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return NewJSONExporter(opts), nil
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q (use one of: %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
	}
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (string, bool) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return "json", true
	case strings.HasSuffix(lower, ".md"), strings.HasSuffix(lower, ".markdown"):
		return "md", true
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return "html", true
	}
	return "", false
}

// ExportToFile renders doc and writes it to path atomically. An existing
// file is replaced only when the write succeeds.
func ExportToFile(doc *Document, exporter Exporter, path string) error {
	content, err := exporter.Export(doc)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// DefaultFilename returns a file name for doc, e.g.
// "newsdesk_seoul_weather_20250101_120000.html".
func DefaultFilename(doc *Document, exporter Exporter) string {
	return fmt.Sprintf("newsdesk_%s_%s%s",
		sanitizeFilename(doc.Title),
		doc.ExportedAt.Format("20060102_150405"),
		exporter.FileExtension(),
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	maxLen := 40
	runes := []rune(strings.ToLower(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}

// roleLabel returns the label shown for a message role.
func roleLabel(role model.Role) string {
	if role == "" {
		return "[Unknown]"
	}
	return "[" + role.DisplayName() + "]"
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
