// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrStorageUnavailable is returned by Open when the database cannot be
	// created, opened or understood.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrTransactionFailed is returned when a store operation aborts.
	// A missing metadata key is not a failure and never produces it.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrClosed is wrapped by operations on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrSchemaTooNew is wrapped by Open when the file was written by a newer
	// schema version.
	ErrSchemaTooNew = errors.New("schema version is newer than supported")

	// ErrInvalidKey is wrapped when a metadata key is empty.
	ErrInvalidKey = errors.New("metadata key must not be empty")
)

// StoreError records the failed operation, its kind and the underlying cause.
// errors.Is matches the kind; errors.Unwrap returns the cause.
type StoreError struct {
	Op   string
	Kind error
	Err  error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("storage %s: %v: %v", e.Op, e.Kind, e.Err)
}

// Is implements errors.Is support for the error kind.
func (e *StoreError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}

func unavailable(op string, err error) error {
	return &StoreError{Op: op, Kind: ErrStorageUnavailable, Err: err}
}

func txFailed(op string, err error) error {
	return &StoreError{Op: op, Kind: ErrTransactionFailed, Err: err}
}
