// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/newsdesk/internal/model"
)

// =============================================================================
// STORE
// =============================================================================

// Store is an open handle over the local conversation database.
// It is safe for concurrent use; operations after Close fail.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// MemoryPath opens a private in-memory database. Used by tests.
const MemoryPath = ":memory:"

// Open opens (creating if absent) the database at path and makes sure both
// collections exist at SchemaVersion. Reopening an existing file is a no-op
// apart from the pragmas.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, unavailable("open", errors.New("empty database path"))
	}

	if path != MemoryPath && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, unavailable("open", fmt.Errorf("failed to create database directory: %w", err))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable("open", err)
	}

	// SQLite only supports one writer at a time; a single connection also
	// keeps an in-memory database alive for the lifetime of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, unavailable("open", fmt.Errorf("%s: %w", pragma, err))
		}
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, unavailable("open", err)
	}

	return &Store{db: db, path: path}, nil
}

// initSchema creates the tables and stamps the schema version on a fresh
// file. A file stamped by a newer version is refused.
func initSchema(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("%w: found %d, supported %d", ErrSchemaTooNew, version, SchemaVersion)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if version == 0 {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("failed to stamp schema version: %w", err)
		}
	}
	return tx.Commit()
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database. Calling Close more than once is safe.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return txFailed("close", err)
	}
	return nil
}

// SchemaVersion returns the version stamped in the open database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return 0, txFailed("schema_version", ErrClosed)
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, txFailed("schema_version", err)
	}
	return version, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// Append inserts a new message and returns it with its assigned id.
func (s *Store) Append(ctx context.Context, role model.Role, content string) (model.StoredMessage, error) {
	if !role.Valid() {
		return model.StoredMessage{}, txFailed("append", fmt.Errorf("invalid role %q", role))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return model.StoredMessage{}, txFailed("append", ErrClosed)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, insertMessageSQL, string(role), content, now.UnixNano())
	if err != nil {
		return model.StoredMessage{}, txFailed("append", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.StoredMessage{}, txFailed("append", err)
	}

	return model.StoredMessage{
		ID:        id,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}, nil
}

// ReadAll returns every stored message in insertion order.
// An empty store yields an empty, non-nil slice.
func (s *Store) ReadAll(ctx context.Context) ([]model.StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, txFailed("read_all", ErrClosed)
	}

	rows, err := s.db.QueryContext(ctx, selectMessagesSQL)
	if err != nil {
		return nil, txFailed("read_all", err)
	}
	defer rows.Close()

	messages := make([]model.StoredMessage, 0)
	for rows.Next() {
		var (
			msg       model.StoredMessage
			role      string
			createdAt int64
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &createdAt); err != nil {
			return nil, txFailed("read_all", err)
		}
		msg.Role = model.Role(role)
		msg.CreatedAt = time.Unix(0, createdAt).UTC()
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, txFailed("read_all", err)
	}
	return messages, nil
}

// Count returns the number of stored messages.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return 0, txFailed("count", ErrClosed)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, countMessagesSQL).Scan(&n); err != nil {
		return 0, txFailed("count", err)
	}
	return n, nil
}

// =============================================================================
// METADATA
// =============================================================================

// GetMetadata looks up a metadata value. A missing key returns found=false
// and a nil error.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, txFailed("get_metadata", ErrInvalidKey)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return "", false, txFailed("get_metadata", ErrClosed)
	}

	var value string
	err := s.db.QueryRowContext(ctx, selectMetadataSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, txFailed("get_metadata", err)
	}
	return value, true, nil
}

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	if key == "" {
		return txFailed("set_metadata", ErrInvalidKey)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return txFailed("set_metadata", ErrClosed)
	}
	if _, err := s.db.ExecContext(ctx, upsertMetadataSQL, key, value); err != nil {
		return txFailed("set_metadata", err)
	}
	return nil
}

// SetMetadataIfAbsent stores value under key only when the key is unset.
// It reports whether the value was written.
func (s *Store) SetMetadataIfAbsent(ctx context.Context, key, value string) (bool, error) {
	if key == "" {
		return false, txFailed("set_metadata_if_absent", ErrInvalidKey)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return false, txFailed("set_metadata_if_absent", ErrClosed)
	}
	res, err := s.db.ExecContext(ctx, insertMetadataIfAbsentSQL, key, value)
	if err != nil {
		return false, txFailed("set_metadata_if_absent", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, txFailed("set_metadata_if_absent", err)
	}
	return n == 1, nil
}

// =============================================================================
// RESET
// =============================================================================

// ClearAll empties both collections in a single transaction.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return txFailed("clear_all", ErrClosed)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return txFailed("clear_all", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{clearMessagesSQL, clearMetadataSQL} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return txFailed("clear_all", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return txFailed("clear_all", err)
	}
	return nil
}
