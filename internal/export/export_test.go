// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/newsdesk/internal/model"
)

func sampleMessages() []model.StoredMessage {
	ts := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return []model.StoredMessage{
		{ID: 1, Role: model.RoleUser, Content: "What happened in Seoul today?", CreatedAt: ts},
		{ID: 2, Role: model.RoleAssistant, Content: "Heavy rain and a subway delay.", CreatedAt: ts.Add(time.Second)},
	}
}

// =============================================================================
// DOCUMENT
// =============================================================================

func TestNewDocument_Title(t *testing.T) {
	doc := NewDocument(sampleMessages(), "T1")
	if doc.Title != "What happened in Seoul today?" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.ThreadID != "T1" {
		t.Errorf("ThreadID = %q", doc.ThreadID)
	}

	long := []model.StoredMessage{{Role: model.RoleUser, Content: strings.Repeat("news ", 40)}}
	if w := len(NewDocument(long, "").Title); w > maxTitleWidth {
		t.Errorf("title length %d exceeds %d", w, maxTitleWidth)
	}

	if got := NewDocument(nil, "").Title; got != "newsdesk conversation" {
		t.Errorf("empty document title = %q", got)
	}
}

func TestExport_NoMessages(t *testing.T) {
	doc := NewDocument(nil, "")
	for _, format := range Formats {
		exporter, err := ForFormat(format, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := exporter.Export(doc); !errors.Is(err, ErrNoMessages) {
			t.Errorf("%s: err = %v, want ErrNoMessages", format, err)
		}
	}
}

// =============================================================================
// FORMATS
// =============================================================================

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"json", ".json"},
		{"md", ".md"},
		{"Markdown", ".md"},
		{"html", ".html"},
		{" htm ", ".html"},
	}
	for _, tt := range tests {
		exporter, err := ForFormat(tt.format, nil)
		if err != nil {
			t.Errorf("ForFormat(%q) error: %v", tt.format, err)
			continue
		}
		if exporter.FileExtension() != tt.ext {
			t.Errorf("ForFormat(%q) ext = %q, want %q", tt.format, exporter.FileExtension(), tt.ext)
		}
	}

	if _, err := ForFormat("pdf", nil); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ForFormat(pdf) err = %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"out.json":     "json",
		"notes.MD":     "md",
		"a/b/page.htm": "html",
		"page.html":    "html",
		"archive.tar":  "",
	}
	for path, want := range tests {
		got, ok := FormatFromPath(path)
		if got != want || ok != (want != "") {
			t.Errorf("FormatFromPath(%q) = %q, %v", path, got, ok)
		}
	}
}

func TestJSONExport_RoundTrip(t *testing.T) {
	doc := NewDocument(sampleMessages(), "T1")
	data, err := NewJSONExporter(nil).Export(doc)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Document
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded.Messages) != 2 || decoded.Messages[1].Role != model.RoleAssistant {
		t.Errorf("messages = %+v", decoded.Messages)
	}
	if decoded.ThreadID != "T1" {
		t.Errorf("thread id = %q", decoded.ThreadID)
	}
}

func TestMarkdownExport(t *testing.T) {
	doc := NewDocument(sampleMessages(), "T1")
	out, err := NewMarkdownExporter(nil).Export(doc)
	if err != nil {
		t.Fatal(err)
	}
	md := string(out)

	for _, want := range []string{"thread_id: T1", "### [You]", "### [Assistant]", "Heavy rain and a subway delay."} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Index(md, "What happened") > strings.Index(md, "Heavy rain") {
		t.Error("messages out of order")
	}
}

func TestMarkdownExport_NoMetadata(t *testing.T) {
	opts := &Options{}
	out, err := NewMarkdownExporter(opts).Export(NewDocument(sampleMessages(), "T1"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(string(out), "---") {
		t.Error("frontmatter written without IncludeMetadata")
	}
	if strings.Contains(string(out), "<sub>") {
		t.Error("timestamps written without IncludeTimestamps")
	}
}

// TestYAMLNewlineInjection checks that a title cannot add frontmatter keys.
func TestYAMLNewlineInjection(t *testing.T) {
	doc := NewDocument(sampleMessages(), "")
	doc.Title = "Test\nInjection: malicious"

	out, err := NewMarkdownExporter(nil).Export(doc)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "\nInjection: malicious\n") {
		t.Error("newline in title injected a YAML key")
	}
	if !strings.Contains(string(out), `title: "Test\nInjection: malicious"`) {
		t.Errorf("title not quoted:\n%s", out)
	}
}

// =============================================================================
// HTML ESCAPING
// =============================================================================

func TestHTMLExport_EscapesEverything(t *testing.T) {
	msgs := []model.StoredMessage{
		{ID: 1, Role: model.RoleUser, Content: "<script>alert('xss')</script>", CreatedAt: time.Now()},
		{ID: 2, Role: model.RoleAssistant, Content: `<b>bold</b> & <img src=x onerror="pwn()">`, CreatedAt: time.Now()},
	}
	doc := NewDocument(msgs, `"><script>steal()</script>`)

	out, err := NewHTMLExporter(nil).Export(doc)
	if err != nil {
		t.Fatal(err)
	}
	page := string(out)

	for _, banned := range []string{"<script>alert", "<script>steal", "<b>bold</b>", "<img src=x"} {
		if strings.Contains(page, banned) {
			t.Errorf("unescaped %q in page", banned)
		}
	}
	for _, want := range []string{"&lt;script&gt;alert", "&lt;b&gt;bold&lt;/b&gt; &amp;"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing escaped %q", want)
		}
	}
}

func TestHTMLExport_StripsTerminalEscapes(t *testing.T) {
	msgs := []model.StoredMessage{{ID: 1, Role: model.RoleAssistant, Content: "\x1b[31mred\x1b[0m", CreatedAt: time.Now()}}
	out, err := NewHTMLExporter(nil).Export(NewDocument(msgs, ""))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "\x1b") {
		t.Error("escape sequence leaked into HTML")
	}
	if !strings.Contains(string(out), ">red<") {
		t.Error("message text missing")
	}
}

func TestHTMLExport_Theme(t *testing.T) {
	opts := DefaultOptions()
	opts.Theme = `light" onload="x`
	out, err := NewHTMLExporter(opts).Export(NewDocument(sampleMessages(), ""))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `class="dark-theme"`) {
		t.Error("unknown theme should fall back to dark")
	}

	opts.Theme = "LIGHT"
	out, _ = NewHTMLExporter(opts).Export(NewDocument(sampleMessages(), ""))
	if !strings.Contains(string(out), `class="light-theme"`) {
		t.Error("light theme not applied")
	}
}

// =============================================================================
// FILES
// =============================================================================

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "chat.md")

	doc := NewDocument(sampleMessages(), "")
	if err := ExportToFile(doc, NewMarkdownExporter(nil), path); err != nil {
		t.Fatalf("ExportToFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Heavy rain") {
		t.Error("file content missing")
	}
}

func TestExportToFile_FailureKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.json")
	if err := os.WriteFile(path, []byte("previous"), 0644); err != nil {
		t.Fatal(err)
	}

	err := ExportToFile(NewDocument(nil, ""), NewJSONExporter(nil), path)
	if !errors.Is(err, ErrNoMessages) {
		t.Fatalf("err = %v, want ErrNoMessages", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "previous" {
		t.Errorf("existing file changed to %q", data)
	}
}

func TestDefaultFilename(t *testing.T) {
	doc := NewDocument(sampleMessages(), "")
	doc.ExportedAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	got := DefaultFilename(doc, NewHTMLExporter(nil))
	if got != "newsdesk_what_happened_in_seoul_today-_20250102_030405.html" {
		t.Errorf("DefaultFilename() = %q", got)
	}

	if s := sanitizeFilename(""); s != "conversation" {
		t.Errorf("sanitizeFilename(\"\") = %q", s)
	}
	if s := sanitizeFilename(`a/b\c:d`); strings.ContainsAny(s, `/\:`) {
		t.Errorf("sanitizeFilename kept separators: %q", s)
	}
}
