// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/newsdesk/internal/model"
	"github.com/jeranaias/newsdesk/internal/ui/styles"
	"github.com/jeranaias/newsdesk/internal/util"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MinBubbleWidth is the narrowest layout a bubble adapts to.
const MinBubbleWidth = 24

// MessageBubble renders one message. User bubbles sit on the right, assistant
// and error bubbles on the left behind an avatar.
type MessageBubble struct {
	Role    model.Role
	Content string
	Width   int
	Error   bool
}

// NewMessageBubble creates a bubble for a transcript entry.
func NewMessageBubble(entry model.Entry, width int) MessageBubble {
	return MessageBubble{
		Role:    entry.Role,
		Content: entry.Text,
		Width:   width,
		Error:   entry.Kind == model.EntryError,
	}
}

// View renders the bubble. Content is sanitized first.
func (b MessageBubble) View() string {
	width := b.Width
	if width < MinBubbleWidth {
		width = MinBubbleWidth
	}

	content := util.SanitizeText(b.Content)
	if strings.TrimSpace(content) == "" {
		content = "..."
	}

	if b.Role == model.RoleUser && !b.Error {
		return renderUserBubble(content, width)
	}
	return renderAssistantBubble(content, width, b.Error)
}

// ==========================================================================
// USER BUBBLE - Blue tones, right-aligned
// ==========================================================================

func renderUserBubble(content string, width int) string {
	maxContentWidth := width - 12
	if maxContentWidth < 10 {
		maxContentWidth = 10
	}
	wrapped := wordWrap(content, maxContentWidth)
	contentWidth := minInt(maxLineWidth(wrapped)+4, width-6)

	bubble := lipgloss.NewStyle().
		Foreground(styles.UserBubbleFg).
		Background(styles.UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.UserBubbleBorder).
		Padding(0, 2).
		Width(contentWidth).
		Render(wrapped)

	avatar := renderAvatar(model.RoleUser)
	row := lipgloss.JoinHorizontal(lipgloss.Top, bubble, " ", avatar)

	leftMargin := width - lipgloss.Width(row)
	if leftMargin < 0 {
		leftMargin = 0
	}
	return lipgloss.NewStyle().MarginLeft(leftMargin).Render(row)
}

// ==========================================================================
// ASSISTANT BUBBLE - Purple/violet tones, left-aligned
// ==========================================================================

func renderAssistantBubble(content string, width int, isError bool) string {
	maxContentWidth := width - 12
	if maxContentWidth < 10 {
		maxContentWidth = 10
	}
	wrapped := wordWrap(content, maxContentWidth)
	contentWidth := minInt(maxLineWidth(wrapped)+4, width-6)

	fg, bg, border := styles.AssistantBubbleFg, styles.AssistantBubbleBg, styles.AssistantBubbleBorder
	if isError {
		// ACCESSIBILITY: the [X] prefix carries the error state without color
		wrapped = styles.StatusIndicators.Error + " " + wrapped
		contentWidth = minInt(maxLineWidth(wrapped)+4, width-6)
		fg, bg, border = styles.ErrorBubbleFg, styles.ErrorBubbleBg, styles.ErrorHighContrast
	}

	bubble := lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 2).
		Width(contentWidth).
		Render(wrapped)

	return lipgloss.JoinHorizontal(lipgloss.Top, renderAvatar(model.RoleAssistant), " ", bubble)
}

// renderAvatar renders the one-letter badge beside a bubble. The top line
// aligns it with the bubble's first text row.
func renderAvatar(role model.Role) string {
	bg := styles.UserAvatarBg
	if role == model.RoleAssistant {
		bg = styles.AssistantAvatarBg
	}
	badge := lipgloss.NewStyle().
		Foreground(styles.TextInverse).
		Background(bg).
		Bold(true).
		Padding(0, 1).
		Render(role.Avatar())
	return "\n" + badge
}

// AvatarWidth is the horizontal space taken by an avatar and its gap.
func AvatarWidth() int {
	return lipgloss.Width(renderAvatar(model.RoleAssistant)) + 1
}

// ==========================================================================
// UTILITY FUNCTIONS
// ==========================================================================

// wordWrap wraps text to fit within the specified number of terminal cells.
// Words longer than width are split.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	for lineIdx, line := range strings.Split(text, "\n") {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		current := ""
		for _, word := range strings.Fields(line) {
			for runewidth.StringWidth(word) > width {
				if current != "" {
					result.WriteString(current + "\n")
					current = ""
				}
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					head = string([]rune(word)[:1])
				}
				result.WriteString(head + "\n")
				word = word[len(head):]
			}
			switch {
			case current == "":
				current = word
			case runewidth.StringWidth(current)+1+runewidth.StringWidth(word) <= width:
				current += " " + word
			default:
				result.WriteString(current + "\n")
				current = word
			}
		}
		result.WriteString(current)
	}

	return result.String()
}

// maxLineWidth returns the width of the longest line in terminal cells.
func maxLineWidth(text string) int {
	maxWidth := 0
	for _, line := range strings.Split(text, "\n") {
		if w := runewidth.StringWidth(line); w > maxWidth {
			maxWidth = w
		}
	}
	return maxWidth
}

// minInt returns the minimum of two integers
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
