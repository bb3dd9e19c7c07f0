// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the store, the
// dispatcher and the view layer.
//
// # Key Types
//
//   - Role: sender of a stored message (user, assistant)
//   - StoredMessage: one row of the local message history
//   - Mode: backend flavor, "chat" or "assistant"
//   - ResultItem: a news card returned next to a reply
//   - Reply: the normalized backend reply, independent of the endpoint
//   - Entry: one bubble or card group of a rendered conversation
//
// # Usage
//
//	mode, err := model.ParseMode("assistant")
//	if err != nil {
//	    return err
//	}
//	reply, err := client.GetResponse(ctx, "what happened in Seoul today?", mode)
package model
