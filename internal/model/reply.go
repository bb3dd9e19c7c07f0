// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// =============================================================================
// MODE
// =============================================================================

// Mode selects the backend flavor and therefore the endpoint and payload shape.
type Mode string

const (
	// ModeChat posts {message} to /chat and reads the reply at the top level.
	ModeChat Mode = "chat"

	// ModeAssistant posts {message, thread_id?} to /assistant and reads the
	// reply under "summary".
	ModeAssistant Mode = "assistant"
)

// Modes lists every supported mode in toggle order.
var Modes = []Mode{ModeChat, ModeAssistant}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// DisplayName returns the label shown in status bars.
func (m Mode) DisplayName() string {
	switch m {
	case ModeChat:
		return "Chat"
	case ModeAssistant:
		return "Assistant"
	default:
		return string(m)
	}
}

// Valid reports whether m is a supported mode.
func (m Mode) Valid() bool {
	return m == ModeChat || m == ModeAssistant
}

// Next returns the mode that follows m in toggle order.
func (m Mode) Next() Mode {
	if m == ModeChat {
		return ModeAssistant
	}
	return ModeChat
}

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !mode.Valid() {
		return "", fmt.Errorf("invalid mode %q, must be one of: chat, assistant", s)
	}
	return mode, nil
}

// =============================================================================
// REPLY
// =============================================================================

// ResultItem is a news card returned next to a conversational reply.
type ResultItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// Reply is the normalized backend reply. Both endpoints decode into it.
type Reply struct {
	Text     string       `json:"reply"`
	ThreadID string       `json:"thread_id,omitempty"`
	Results  []ResultItem `json:"results"`
	Source   string       `json:"source,omitempty"`
	Type     string       `json:"type,omitempty"`
	Mode     Mode         `json:"mode"`
}

// HasResults returns true if the reply carries at least one card.
func (r *Reply) HasResults() bool {
	return r != nil && len(r.Results) > 0
}
