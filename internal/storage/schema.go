// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

const (
	// SchemaVersion is stamped into PRAGMA user_version on first open.
	SchemaVersion = 1

	// KeyThreadID is the metadata key for the backend-issued thread identifier.
	KeyThreadID = "thread_id"
)

// Schema creates both collections. Every statement is idempotent.
const Schema = `
-- Chat history, append-only, ordered by id
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
    content TEXT NOT NULL,
    created_at INTEGER NOT NULL -- Unix nanoseconds
);

-- Single-key metadata (thread identifier)
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;
`

const (
	insertMessageSQL = `INSERT INTO messages (role, content, created_at) VALUES (?, ?, ?)`

	selectMessagesSQL = `SELECT id, role, content, created_at FROM messages ORDER BY id ASC`

	countMessagesSQL = `SELECT COUNT(*) FROM messages`

	selectMetadataSQL = `SELECT value FROM metadata WHERE key = ?`

	upsertMetadataSQL = `INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	insertMetadataIfAbsentSQL = `INSERT OR IGNORE INTO metadata (key, value) VALUES (?, ?)`

	clearMessagesSQL = `DELETE FROM messages`

	clearMetadataSQL = `DELETE FROM metadata`
)
