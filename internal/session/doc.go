// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session orchestrates one conversation: it persists what the user
// types, asks the backend, and turns the outcome into transcript entries.
//
// A Session borrows an open store and a dispatcher; it owns neither. Only one
// exchange runs at a time; a second Submit while the first is awaiting its
// reply fails with ErrBusy.
//
// # Key Types
//
//   - Session: conversation orchestrator
//   - Exchange: the entries produced by one submit
//
// # Usage
//
//	sess := session.New(store, client, session.Options{Mode: cfg.Mode()})
//	entries, err := sess.History(ctx)
//	...
//	ex, err := sess.Submit(ctx, "what's new in tech?")
//	if err == nil {
//	    transcript = append(transcript, ex.Entries()...)
//	}
package session
