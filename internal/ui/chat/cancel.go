// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
)

// =============================================================================
// REQUEST CANCELLATION (THREAD-SAFE)
// =============================================================================

// requestCanceler holds the cancel function of the in-flight request.
// IMPORTANT: use it as a pointer in Model; Bubble Tea copies the model on
// every Update and the mutex must not be copied.
type requestCanceler struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

func newRequestCanceler() *requestCanceler {
	return &requestCanceler{}
}

// begin derives a cancellable context for a new request, cancelling any
// request still registered.
func (rc *requestCanceler) begin(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.cancel != nil {
		rc.cancel()
	}
	rc.cancel = cancel
	return ctx
}

// abort cancels the registered request. It reports whether one was pending.
func (rc *requestCanceler) abort() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.cancel == nil {
		return false
	}
	rc.cancel()
	rc.cancel = nil
	return true
}

// done releases the context of a finished request. Safe to call more than
// once.
func (rc *requestCanceler) done() {
	rc.abort()
}
