// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/newsdesk/internal/session"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// storeOpTimeout bounds local database work started from the view.
const storeOpTimeout = 10 * time.Second

// LoadHistoryCmd replays the stored transcript.
func LoadHistoryCmd(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeOpTimeout)
		defer cancel()

		entries, err := sess.History(ctx)
		return HistoryLoadedMsg{Entries: entries, Err: err}
	}
}

// SubmitCmd runs one exchange. The command blocks until the reply arrives,
// the context is cancelled or the client times out; Bubble Tea runs it off
// the render loop.
func SubmitCmd(ctx context.Context, sess *session.Session, text string) tea.Cmd {
	return func() tea.Msg {
		ex, err := sess.Submit(ctx, text)
		return ExchangeDoneMsg{Exchange: ex, Err: err}
	}
}

// NewChatCmd clears the stored history and thread id.
func NewChatCmd(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeOpTimeout)
		defer cancel()

		return ChatClearedMsg{Err: sess.NewChat(ctx)}
	}
}
