// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/newsdesk/internal/model"
)

func TestAdaptiveColorsDefined(t *testing.T) {
	colors := map[string]lipgloss.AdaptiveColor{
		"UserBubbleBg":      UserBubbleBg,
		"AssistantBubbleBg": AssistantBubbleBg,
		"ErrorBubbleBg":     ErrorBubbleBg,
		"CardBorder":        CardBorder,
		"LinkColor":         LinkColor,
		"TextMuted":         TextMuted,
	}
	for name, c := range colors {
		if c.Light == "" || c.Dark == "" {
			t.Errorf("%s should define both light and dark variants", name)
		}
		if !strings.HasPrefix(c.Light, "#") || !strings.HasPrefix(c.Dark, "#") {
			t.Errorf("%s should use hex colors, got %+v", name, c)
		}
	}
}

func TestRenderHelpersIncludeIndicators(t *testing.T) {
	tests := []struct {
		name      string
		got       string
		indicator string
	}{
		{"success", RenderSuccess("saved"), StatusIndicators.Success},
		{"error", RenderError("failed"), StatusIndicators.Error},
		{"warning", RenderWarning("careful"), StatusIndicators.Warning},
		{"info", RenderInfo("note"), StatusIndicators.Info},
		{"status ok", RenderStatus(true, "fine"), StatusIndicators.Success},
		{"status failed", RenderStatus(false, "broken"), StatusIndicators.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.got, tt.indicator) {
				t.Errorf("%q should contain %q", tt.got, tt.indicator)
			}
		})
	}
}

func TestRenderLinkKeepsText(t *testing.T) {
	if got := RenderLink("https://news.example"); !strings.Contains(got, "https://news.example") {
		t.Errorf("RenderLink() = %q", got)
	}
}

func TestTheme_ModeStyle(t *testing.T) {
	theme := NewTheme()
	chat := theme.ModeStyle(model.ModeChat).Render("Chat")
	assist := theme.ModeStyle(model.ModeAssistant).Render("Assistant")
	if !strings.Contains(chat, "Chat") || !strings.Contains(assist, "Assistant") {
		t.Errorf("mode badges lost their text: %q %q", chat, assist)
	}
}

func TestTheme_LayoutMode(t *testing.T) {
	theme := NewTheme()
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: GetLayoutMode() = %v, want %v", tt.width, got, tt.want)
		}
	}
}
