// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the newsdesk terminal UI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

Message bubbles and news cards use semantic color tokens:

	UserBubbleBg      - Background for user messages
	AssistantBubbleBg - Background for assistant messages
	ErrorBubbleBg     - Background for failed exchanges
	CardBorder        - Border around a news result card

Status output always pairs a color with an ASCII indicator ([OK], [X], [!],
[i]) for colorblind users.

# Theme System (theme.go)

	theme := styles.NewTheme()
	badge := theme.ModeStyle(model.ModeAssistant).Render("Assistant")
*/
package styles
