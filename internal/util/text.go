// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// SANITIZING
// =============================================================================

// SECURITY: backend text is untrusted and is written straight to a terminal.
//
// SanitizeText removes ANSI/OSC/DCS escape sequences, C0/C1 control
// characters (except newline and tab) and bidi override characters, then
// NFC-normalizes the result. Carriage returns are folded into newlines.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case r == '\x1b':
			i = skipEscape(runes, i)
		case r == '\u009b': // C1 CSI
			i = skipCSI(runes, i+1)
		case r == '\u009d', r == '\u0090', r == '\u009e', r == '\u009f': // C1 OSC, DCS, PM, APC
			i = skipString(runes, i+1)
		case r == '\r':
			b.WriteRune('\n')
		case r == '\n', r == '\t':
			b.WriteRune(r)
		case isBidiControl(r):
			// dropped
		case unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}

	return norm.NFC.String(b.String())
}

// skipEscape returns the index of the last rune of the escape sequence that
// starts at runes[i] (an ESC).
func skipEscape(runes []rune, i int) int {
	if i+1 >= len(runes) {
		return i
	}
	switch runes[i+1] {
	case '[':
		return skipCSI(runes, i+2)
	case ']', 'P', '^', '_', 'X':
		return skipString(runes, i+2)
	default:
		// Two-character sequence such as ESC c or ESC 7
		return i + 1
	}
}

// skipCSI skips parameter and intermediate bytes up to the final byte.
func skipCSI(runes []rune, i int) int {
	for ; i < len(runes); i++ {
		if runes[i] >= 0x40 && runes[i] <= 0x7e {
			return i
		}
	}
	return len(runes) - 1
}

// skipString skips an OSC/DCS style string up to BEL or ST (ESC \ or 0x9c).
func skipString(runes []rune, i int) int {
	for ; i < len(runes); i++ {
		switch runes[i] {
		case '\a', '\u009c':
			return i
		case '\x1b':
			if i+1 < len(runes) && runes[i+1] == '\\' {
				return i + 1
			}
		}
	}
	return len(runes) - 1
}

func isBidiControl(r rune) bool {
	return (r >= '\u202a' && r <= '\u202e') || (r >= '\u2066' && r <= '\u2069')
}

// SafeLink returns the link and true when it is an absolute http or https
// URL with a host. Anything else must be shown as plain text only.
func SafeLink(link string) (string, bool) {
	link = strings.TrimSpace(SanitizeText(link))
	if link == "" {
		return "", false
	}
	u, err := url.Parse(link)
	if err != nil {
		return link, false
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return link, false
	}
	return u.String(), true
}

// =============================================================================
// SHORTENING
// =============================================================================

// TruncateWidth shortens s to at most width terminal cells, ending with
// "..." when something was cut. Wide (CJK) characters count as two cells.
func TruncateWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// OneLine collapses all whitespace runs (including newlines) to single
// spaces, for list views.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
