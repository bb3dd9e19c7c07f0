// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/jeranaias/newsdesk/internal/util"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports the document as a standalone HTML page with
// embedded CSS. Every value goes through html/template escaping.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

type htmlMessage struct {
	RoleClass string
	Label     string
	Timestamp string
	Content   string
}

type htmlPage struct {
	Title             string
	Theme             string
	ThreadID          string
	Count             int
	ExportedAt        string
	ExportedISO       string
	IncludeMetadata   bool
	IncludeTimestamps bool
	Messages          []htmlMessage
}

// Export converts a document to HTML format.
func (e *HTMLExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	theme := "dark"
	if strings.EqualFold(e.options.Theme, "light") {
		theme = "light"
	}

	page := htmlPage{
		Title:             util.SanitizeText(doc.Title),
		Theme:             theme,
		ThreadID:          util.SanitizeText(doc.ThreadID),
		Count:             len(doc.Messages),
		ExportedAt:        doc.ExportedAt.Local().Format("January 2, 2006 at 3:04 PM"),
		ExportedISO:       doc.ExportedAt.Format(time.RFC3339),
		IncludeMetadata:   e.options.IncludeMetadata,
		IncludeTimestamps: e.options.IncludeTimestamps,
		Messages:          make([]htmlMessage, 0, len(doc.Messages)),
	}
	for _, msg := range doc.Messages {
		page.Messages = append(page.Messages, htmlMessage{
			RoleClass: roleClass(string(msg.Role)),
			Label:     roleLabel(msg.Role),
			Timestamp: formatTimestamp(msg.CreatedAt),
			Content:   strings.TrimSpace(util.SanitizeText(msg.Content)),
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// roleClass keeps CSS class names to a known set.
func roleClass(role string) string {
	switch role {
	case "user", "assistant":
		return role
	default:
		return "unknown"
	}
}

// =============================================================================
// PAGE TEMPLATE
// =============================================================================

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta name="generator" content="newsdesk">
    <meta name="date" content="{{.ExportedISO}}">
    <title>{{.Title}}</title>
    <style>
        :root { --bg: #1e1e2e; --fg: #cdd6f4; --muted: #7f849c; --user: #1e3a5f; --assistant: #2e2447; --border: #45475a; }
        .light-theme { --bg: #f8f9fb; --fg: #1f2430; --muted: #6b7280; --user: #dbeafe; --assistant: #ede9fe; --border: #d1d5db; }
        * { box-sizing: border-box; }
        body { margin: 0; background: var(--bg); color: var(--fg); font-family: -apple-system, "Segoe UI", Roboto, sans-serif; line-height: 1.5; }
        .container { max-width: 860px; margin: 0 auto; padding: 24px; }
        .header h1 { margin: 0 0 8px; font-size: 1.5rem; }
        .metadata { color: var(--muted); font-size: 0.9rem; display: flex; gap: 16px; flex-wrap: wrap; }
        .conversation { margin-top: 24px; display: flex; flex-direction: column; gap: 12px; }
        .message { border: 1px solid var(--border); border-radius: 12px; padding: 12px 16px; max-width: 80%; }
        .user-message { background: var(--user); align-self: flex-end; }
        .assistant-message, .unknown-message { background: var(--assistant); align-self: flex-start; }
        .message-header { display: flex; justify-content: space-between; gap: 12px; color: var(--muted); font-size: 0.8rem; margin-bottom: 4px; }
        .message-content { white-space: pre-wrap; word-wrap: break-word; }
        .footer { margin-top: 32px; color: var(--muted); font-size: 0.8rem; text-align: center; }
    </style>
</head>
<body class="{{.Theme}}-theme">
    <div class="container">
{{- if .IncludeMetadata}}
        <header class="header">
            <h1>{{.Title}}</h1>
            <div class="metadata">
                <span class="meta-item"><strong>Messages:</strong> {{.Count}}</span>
{{- if .ThreadID}}
                <span class="meta-item"><strong>Thread:</strong> {{.ThreadID}}</span>
{{- end}}
            </div>
        </header>
{{- end}}
        <main class="conversation">
{{- range .Messages}}
            <div class="message {{.RoleClass}}-message">
                <div class="message-header">
                    <span class="role-label">{{.Label}}</span>
{{- if $.IncludeTimestamps}}
                    <span class="timestamp">{{.Timestamp}}</span>
{{- end}}
                </div>
                <div class="message-content">{{.Content}}</div>
            </div>
{{- end}}
        </main>
        <footer class="footer">
            <p>Exported from <strong>newsdesk</strong> on {{.ExportedAt}}</p>
        </footer>
    </div>
</body>
</html>
`))
