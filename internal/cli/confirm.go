// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive commands.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// confirmer asks before destructive actions.
type confirmer struct {
	in          io.Reader
	out         io.Writer
	interactive bool
}

// newConfirmer prompts on in only when in is a terminal.
func newConfirmer(in io.Reader, out io.Writer) confirmer {
	f, ok := in.(*os.File)
	return confirmer{
		in:          in,
		out:         out,
		interactive: ok && term.IsTerminal(int(f.Fd())),
	}
}

// require returns true when the --confirm flag was given or the user
// answered yes. Without a terminal the flag is mandatory.
func (c confirmer) require(confirmFlag bool, action string) (bool, error) {
	if confirmFlag {
		return true, nil
	}

	// Can't prompt if stdin is not a TTY (piped input, cron jobs, CI)
	if !c.interactive {
		return false, fmt.Errorf("%w: confirmation required but stdin is not a terminal; use --confirm", ErrUsage)
	}

	fmt.Fprintf(c.out, "Are you sure you want to %s? [y/N]: ", action)

	input, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && input == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}
