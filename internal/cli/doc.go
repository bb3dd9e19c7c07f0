// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for newsdesk.
//
// With no command newsdesk opens the full-screen chat view. The other
// commands work on the same conversation store and backend without it, so
// they can be scripted.
//
// # Key Types
//
//   - Command: Enumeration of the CLI commands
//   - Args: Parsed global and command-specific flags
//   - ArgParser: Flag and positional splitting shared by all commands
//   - App: Config, store, backend client and session for one run
//
// # Usage
//
//	cmd, args, err := cli.Parse()
//	if err != nil {
//	    // print and exit 1
//	}
//	err = cli.Run(ctx, cmd, args)
//
// # Commands Overview
//
//   - tui: Full-screen chat (default)
//   - chat: Line-mode chat with slash commands and input history
//   - ask: One question, reply printed (or --json)
//   - history: Print the stored conversation
//   - reset: Delete the conversation and assistant thread (--confirm)
//   - export: Write the conversation as markdown, HTML or JSON
//   - health: Check the backend's /health endpoint
//   - config: show, path, init, get and set
//   - serve: Run the local stub backend
//
// # Output
//
// On a terminal replies are rendered with colors, markdown and OSC 8
// hyperlinks. Piped output is plain text. NO_COLOR disables colors.
package cli
