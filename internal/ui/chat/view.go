// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/newsdesk/internal/ui/styles"
	"github.com/jeranaias/newsdesk/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// renderChat renders the complete chat view.
// Layout: header (1 line) + transcript (viewport) + input (2 lines) + status (1 line).
// The viewport height is computed in handleResize from the same layout.
func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// renderHeader renders the title line with the backend endpoint.
func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("newsdesk")

	info := ""
	if m.endpoint != "" {
		room := m.width - lipgloss.Width(title) - 4
		info = " " + m.theme.HeaderInfo.Render(util.TruncateWidth(m.endpoint, room))
	}

	return m.theme.Header.Width(m.width).MaxHeight(1).Render(title + info)
}

// renderInput renders the input line, or the spinner while a reply is
// awaited.
func (m Model) renderInput() string {
	var line string
	if m.state == StateAwaiting {
		elapsed := time.Since(m.awaitStarted).Round(time.Second)
		line = m.spinner.View() + " " + m.theme.ThinkingText.Render(
			fmt.Sprintf("Waiting for %s reply... %s", m.sess.Mode().DisplayName(), elapsed))
	} else {
		line = m.input.View()
	}

	return m.theme.InputContainer.Width(m.width).MaxHeight(2).Render(line)
}

// renderStatusBar renders the mode badge, the current notice and the key
// hints, dropping hints first when the terminal is narrow.
func (m Model) renderStatusBar() string {
	mode := m.sess.Mode()
	badge := m.theme.ModeStyle(mode).Render(mode.DisplayName())

	bindings := m.keyMap.ShortHelp()
	if m.state == StateAwaiting {
		bindings = m.keyMap.AwaitingHelp()
	}
	hints := m.renderHints(bindings)

	notice := ""
	if m.notice != "" {
		notice = m.theme.Notice.Render(m.notice)
	}

	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")
	maxContentWidth := m.width - 2
	if maxContentWidth < 10 {
		maxContentWidth = 10
	}

	candidates := [][]string{
		{badge, notice, hints},
		{badge, notice},
		{badge},
	}
	var content string
	for _, parts := range candidates {
		content = joinNonEmpty(parts, sep)
		if lipgloss.Width(content) <= maxContentWidth {
			break
		}
	}

	return m.theme.StatusBar.Width(m.width).MaxHeight(1).Render(content)
}

func (m Model) renderHints(bindings []key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(hints, "  ")
}

func joinNonEmpty(parts []string, sep string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
