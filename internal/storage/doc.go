// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local conversation store for newsdesk.
//
// The store is a single SQLite file with two collections: the ordered chat
// messages and a small key/value metadata table that holds the backend
// thread identifier. It is opened once at startup, handed to the session
// that owns the conversation, and closed on teardown.
//
// # Key Types
//
//   - Store: open handle over the SQLite file
//   - StoreError: typed error carrying the failed operation and its kind
//
// # Usage
//
// Open a store and append a message:
//
//	store, err := storage.Open(ctx, path)
//	if err != nil {
//	    return err // errors.Is(err, storage.ErrStorageUnavailable)
//	}
//	defer store.Close()
//
//	msg, err := store.Append(ctx, model.RoleUser, "hello")
//
// Read the thread identifier:
//
//	threadID, found, err := store.GetMetadata(ctx, storage.KeyThreadID)
//
// # Storage Location
//
// The database lives at ~/.newsdesk/newsdesk.db unless storage.db_path is set.
package storage
