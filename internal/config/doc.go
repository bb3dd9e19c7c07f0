// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for newsdesk.
//
// Configuration is a TOML file with sensible defaults, environment variable
// overrides, and validation. A .env file in the working directory is loaded
// into the environment before anything else reads it.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: Where the news backend lives and how to call it
//   - ChatConfig: Default mode and reply persistence
//   - Watcher: Reloads the config file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (NEWSDESK_*, API_ENDPOINT)
//   - .env in the working directory (never overrides the real environment)
//   - ~/.newsdesk/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client := dispatch.New(cfg.Backend.BaseURL, store, dispatch.WithTimeout(cfg.Timeout()))
package config
