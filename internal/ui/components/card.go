// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/newsdesk/internal/model"
	"github.com/jeranaias/newsdesk/internal/ui/styles"
	"github.com/jeranaias/newsdesk/internal/util"
)

// =============================================================================
// RESULT CARD COMPONENT
// =============================================================================

// ReadMoreLabel is the text of a card's external link.
const ReadMoreLabel = "Read more"

// maxDescriptionLines caps long descriptions; the link has the rest.
const maxDescriptionLines = 6

// ResultCard renders one news result: title, description and a link.
type ResultCard struct {
	Item  model.ResultItem
	Width int

	// Hyperlinks renders the link as an OSC 8 terminal hyperlink. When false
	// the URL is printed in full.
	Hyperlinks bool
}

// View renders the card. Every field is sanitized; a link that is not an
// absolute http(s) URL is shown as inert text.
func (c ResultCard) View() string {
	width := c.Width
	if width < MinBubbleWidth {
		width = MinBubbleWidth
	}
	inner := width - 4 // border + padding

	var parts []string

	title := util.OneLine(util.SanitizeText(c.Item.Title))
	if title == "" {
		title = "(untitled)"
	}
	parts = append(parts, lipgloss.NewStyle().
		Foreground(styles.CardTitle).
		Bold(true).
		Render(wordWrap(title, inner)))

	if desc := strings.TrimSpace(util.SanitizeText(c.Item.Description)); desc != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(styles.CardBody).
			Render(clampLines(wordWrap(desc, inner), maxDescriptionLines)))
	}

	if line := c.linkLine(inner); line != "" {
		parts = append(parts, line)
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CardBorder).
		Padding(0, 1).
		Width(width - 2).
		Render(strings.Join(parts, "\n"))
}

func (c ResultCard) linkLine(width int) string {
	link, safe := util.SafeLink(c.Item.Link)
	if link == "" {
		return ""
	}

	muted := lipgloss.NewStyle().Foreground(styles.TextMuted)
	if !safe {
		return muted.Render("Link: " + util.TruncateWidth(util.OneLine(link), width-6))
	}

	if c.Hyperlinks {
		return styles.RenderLink(termenv.Hyperlink(link, ReadMoreLabel+" ->"))
	}
	return muted.Render(ReadMoreLabel+":") + "\n" + styles.RenderLink(link)
}

// clampLines keeps the first n lines, marking the cut.
func clampLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	lines = lines[:n]
	lines[n-1] = strings.TrimRight(lines[n-1], " ") + " ..."
	return strings.Join(lines, "\n")
}
