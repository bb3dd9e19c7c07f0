// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the newsdesk packages.
//
// # Key Functions
//
// Text:
//   - SanitizeText: strips terminal escape sequences and control characters
//     from backend-supplied text and NFC-normalizes it
//   - SafeLink: accepts only absolute http(s) links
//   - TruncateWidth, OneLine: display-width aware shortening for lists
//
// Files:
//   - AtomicWriteFile, AtomicWrite: crash-safe file writing with fsync
//
// # Usage
//
//	clean := util.SanitizeText(reply.Text)
//	if link, ok := util.SafeLink(item.Link); ok {
//	    // render as hyperlink
//	}
//	err := util.AtomicWriteFile(path, data, 0600)
package util
