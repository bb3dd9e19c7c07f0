// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/newsdesk/internal/config"
	"github.com/jeranaias/newsdesk/internal/model"
	"github.com/jeranaias/newsdesk/internal/session"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// HistoryLoadedMsg carries the stored transcript replayed at startup.
type HistoryLoadedMsg struct {
	Entries []model.Entry
	Err     error
}

// ExchangeDoneMsg signals that a submitted message got its reply (or its
// error bubble).
type ExchangeDoneMsg struct {
	Exchange session.Exchange
	Err      error
}

// ChatClearedMsg signals that a new chat was started.
type ChatClearedMsg struct {
	Err error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a configuration file change. Config is nil
// when the file could not be loaded.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}
