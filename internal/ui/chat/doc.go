// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen news chat view for newsdesk.

The view is a Bubble Tea model built from a scrolling viewport (the
transcript), a single-line text input and a spinner shown while a reply is
awaited. All business logic lives in the session package; this package only
turns keys into session calls and session results into transcript entries.

# States

	StateReady     - input focused, Enter submits
	StateAwaiting  - a request is in flight, input disabled, Esc cancels

# Key Bindings

	Enter      submit the message
	Tab        toggle chat / assistant mode
	Ctrl+N     start a new chat (clears history and thread id)
	Esc        cancel the in-flight request
	PgUp/PgDn  scroll the transcript
	Ctrl+C     quit

# Usage

	sess := session.New(store, client, session.Options{Mode: cfg.Mode()})
	m := chat.New(sess, styles.NewTheme(), chat.Options{Hyperlinks: cfg.UI.Hyperlinks})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

Configuration changes are delivered with p.Send(chat.ConfigReloadedMsg{...}).
*/
package chat
