// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch sends user messages to the news backend and normalizes
// its replies.
//
// The backend exposes two endpoints. /chat answers a single question and
// returns the reply text at the top level of the JSON body. /assistant
// continues a conversation thread and returns the reply under "summary"
// together with the thread identifier, which the client remembers in the
// local store and sends back on every later request.
//
// # Key Types
//
//   - Client: HTTP client for the backend with timeout and rate limiting
//   - MetadataStore: where the assistant thread id is kept
//   - UpstreamError: any failure attributable to the backend
//
// # Usage
//
//	client := dispatch.New(cfg.Backend.BaseURL, store,
//	    dispatch.WithTimeout(cfg.Timeout()),
//	    dispatch.WithRateLimit(cfg.Backend.RequestsPerMinute),
//	)
//	reply, err := client.GetResponse(ctx, "today's headlines", model.ModeAssistant)
//	if errors.Is(err, dispatch.ErrUpstream) {
//	    // backend unreachable, non-2xx, or unreadable body
//	}
package dispatch
