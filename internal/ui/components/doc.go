// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components renders a newsdesk conversation for the terminal.

Components are pure: they take values and return strings, with no I/O and
no business logic. Every piece of backend text is passed through
util.SanitizeText before it reaches the terminal, so a reply can never carry
its own escape sequences.

# Components

MessageBubble (message.go) - user bubbles on the right, assistant and error
bubbles on the left behind an avatar.

ResultCard (card.go) - one news result with title, description and a
"Read more" link, emitted as an OSC 8 hyperlink when enabled.

RenderTranscript (transcript.go) - an ordered list of entries, cards before
the assistant bubble of the same reply.

Highlight (highlight.go) - chroma syntax highlighting for JSON output.

# Usage

	out := components.RenderTranscript(entries, components.RenderOptions{
		Width:      80,
		Hyperlinks: true,
	})
*/
package components
