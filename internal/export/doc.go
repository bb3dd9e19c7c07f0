// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the stored conversation history to a file.
//
// # Supported Formats
//
//   - JSON: machine-readable, one object per stored message
//   - Markdown: human-readable transcript
//   - HTML: standalone page; every stored field is escaped
//
// # Usage
//
//	msgs, _ := store.ReadAll(ctx)
//	doc := export.NewDocument(msgs, threadID)
//	exporter, err := export.ForFormat("html", nil)
//	if err != nil {
//		return err
//	}
//	err = export.ExportToFile(doc, exporter, "chat.html")
package export
