// newsdesk - A terminal client for the news chat backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/newsdesk/internal/cli"
	"github.com/jeranaias/newsdesk/internal/config"
)

func main() {
	// .env values never override the real environment
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}

	cmd, args, err := cli.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr)
			cli.PrintUsage(os.Stderr)
		}
		os.Exit(1)
	}

	if err := cli.Run(context.Background(), cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
