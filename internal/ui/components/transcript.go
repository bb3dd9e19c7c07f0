// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/newsdesk/internal/model"
	"github.com/jeranaias/newsdesk/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// EmptyTranscriptText is shown before the first message.
const EmptyTranscriptText = "No messages yet. Ask about today's news!"

// RenderOptions controls transcript layout.
type RenderOptions struct {
	Width      int
	Hyperlinks bool
}

// RenderEntry renders a single transcript entry.
func RenderEntry(entry model.Entry, opts RenderOptions) string {
	switch entry.Kind {
	case model.EntryResults:
		return renderCards(entry.Results, opts)
	default:
		return NewMessageBubble(entry, opts.Width).View()
	}
}

// RenderTranscript renders entries in order, one blank line apart. Entries
// are shown exactly in the order given; a reply's cards already precede its
// bubble.
func RenderTranscript(entries []model.Entry, opts RenderOptions) string {
	if len(entries) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(entries))
	for _, entry := range entries {
		rendered = append(rendered, RenderEntry(entry, opts))
	}
	return strings.Join(rendered, "\n\n")
}

// RenderEmpty renders the placeholder for an empty transcript.
func RenderEmpty(width int) string {
	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Width(width).
		Align(lipgloss.Center).
		Padding(2, 0).
		Render(EmptyTranscriptText)
}

// renderCards stacks the cards of one reply, indented to line up with the
// assistant bubble that follows.
func renderCards(items []model.ResultItem, opts RenderOptions) string {
	if len(items) == 0 {
		return ""
	}

	indent := AvatarWidth()
	cardWidth := opts.Width - indent - 4
	if cardWidth < MinBubbleWidth {
		cardWidth = MinBubbleWidth
	}

	cards := make([]string, 0, len(items))
	for _, item := range items {
		card := ResultCard{Item: item, Width: cardWidth, Hyperlinks: opts.Hyperlinks}.View()
		cards = append(cards, lipgloss.NewStyle().MarginLeft(indent).Render(card))
	}
	return strings.Join(cards, "\n")
}
