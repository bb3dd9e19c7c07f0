// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a local stand-in for the news chat backend.
//
// It speaks the same wire contract the client expects, so the terminal
// client can be developed and tested without the search and summarizer
// services.
//
// # Endpoints
//
//   - POST /chat       - {message} -> {reply, source, results, type:"chat"}
//   - POST /assistant  - {message, thread_id?} -> {summary:{reply, thread_id}, results, type:"assistant"}
//   - GET  /, /health  - {"status":"ok"}
//
// A message without searchable words gets the no-results shape
// {"reply":"No results found from both Naver and Google.","source":"None"}
// on either endpoint.
//
// # Usage
//
//	srv := server.New(server.Config{Port: 8000}, server.NewEchoResponder())
//	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
//		log.Fatal(err)
//	}
package server
