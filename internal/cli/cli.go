// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and dispatch for newsdesk.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jeranaias/newsdesk/internal/model"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdHistory
	CmdReset
	CmdExport
	CmdHealth
	CmdConfig
	CmdServe
	CmdVersion
	CmdHelp
)

var commandNames = map[Command]string{
	CmdTUI:     "tui",
	CmdChat:    "chat",
	CmdAsk:     "ask",
	CmdHistory: "history",
	CmdReset:   "reset",
	CmdExport:  "export",
	CmdHealth:  "health",
	CmdConfig:  "config",
	CmdServe:   "serve",
	CmdVersion: "version",
	CmdHelp:    "help",
}

// String returns the command name.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// ErrUsage marks command line mistakes.
var ErrUsage = errors.New("usage error")

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Verbose    bool
	Quiet      bool
	ConfigPath string // --config: use this file instead of ~/.newsdesk/config.toml
	BaseURL    string // --url: override backend.base_url
	Mode       string // --mode: override chat.default_mode
	JSON       bool

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Format     string
	Output     string
	Theme      string
	Confirm    bool
	Force      bool
	NoMetadata bool
	Port       int

	// Raw args (remaining after the command name)
	Raw []string
}

const usageText = `newsdesk - terminal client for the news chat backend

Usage:
  newsdesk [global flags] [command]

Commands:
  tui                        Full-screen chat (default)
  chat                       Line-mode chat with history and slash commands
  ask "question"             Ask one question and print the reply
    --mode chat|assistant      Mode for this question
    --json                     Print the normalized reply as JSON
  history                    Print the stored conversation
    --json                     Print stored messages as JSON
  reset --confirm            Delete the conversation and assistant thread
  export                     Write the conversation to a file
    --format json|md|html      Output format (default: from --output, else md)
    --output, -o FILE          Destination ("-" for stdout)
    --theme light|dark         HTML theme
    --no-metadata              Omit the title block
  health                     Check that the backend answers
  config [show|path|init|get KEY|set KEY VALUE]
                             Show or edit configuration
  serve [--port N]           Run the local stub backend
  version                    Show version information
  help                       Show this help

Global flags:
  --config FILE              Config file (default ~/.newsdesk/config.toml)
  --url URL                  Backend base URL
  --mode chat|assistant      Starting mode
  -v, --verbose              Log to stderr
  -q, --quiet                Less output

Environment:
  NEWSDESK_BASE_URL, API_ENDPOINT, NEWSDESK_MODE, NEWSDESK_DB, NEWSDESK_TIMEOUT,
  NEWSDESK_PERSIST_REPLIES, NEWSDESK_LOG_FILE, NEWSDESK_CONFIG, NEWSDESK_HOME.
  A .env file in the working directory is read first.

Version: %s
`

// PrintUsage prints the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "newsdesk version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args.
func Parse() (Command, Args, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses a command line (without the program name).
func ParseArgs(argv []string) (Command, Args, error) {
	remaining, args, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, args, err
	}

	if len(remaining) == 0 {
		return CmdTUI, args, nil
	}

	name := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining

	switch name {
	case "tui":
		return CmdTUI, args, nil

	case "chat", "repl":
		return CmdChat, args, nil

	case "ask":
		p := NewArgParser(remaining, "json")
		if mode := p.FirstFlag("mode", "m"); mode != "" {
			args.Mode = mode
		}
		args.JSON = args.JSON || p.BoolFlag("json")
		args.Query = strings.TrimSpace(JoinPositionalArgs(p, 0))
		if args.Query == "" {
			return CmdAsk, args, fmt.Errorf("%w: ask needs a question, e.g. newsdesk ask \"what happened in Seoul today?\"", ErrUsage)
		}
		return CmdAsk, args, validateMode(args.Mode)

	case "history", "log":
		p := NewArgParser(remaining, "json")
		args.JSON = args.JSON || p.BoolFlag("json")
		return CmdHistory, args, nil

	case "reset", "clear":
		p := NewArgParser(remaining, "confirm", "yes", "y")
		args.Confirm = p.BoolFlag("confirm") || p.BoolFlag("yes") || p.BoolFlag("y")
		return CmdReset, args, nil

	case "export":
		p := NewArgParser(remaining, "no-metadata")
		args.Format = p.FirstFlag("format", "f")
		args.Output = p.FirstFlag("output", "o")
		if args.Output == "" && p.BoolFlag("o") {
			args.Output = "-"
		}
		args.Theme = p.Flag("theme")
		args.NoMetadata = p.BoolFlag("no-metadata")
		if args.Output == "" {
			args.Output = p.Positional(0)
		}
		return CmdExport, args, nil

	case "health", "status":
		return CmdHealth, args, nil

	case "config":
		p := NewArgParser(remaining, "json", "force")
		args.Subcommand = strings.ToLower(p.Subcommand())
		args.ConfigKey = p.Positional(1)
		args.ConfigVal = strings.Join(p.PositionalFrom(2), " ")
		args.JSON = args.JSON || p.BoolFlag("json")
		args.Force = p.BoolFlag("force")
		switch args.Subcommand {
		case "", "show", "path", "init":
		case "get":
			if args.ConfigKey == "" {
				return CmdConfig, args, fmt.Errorf("%w: config get KEY", ErrUsage)
			}
		case "set":
			if args.ConfigKey == "" || p.PositionalCount() < 3 {
				return CmdConfig, args, fmt.Errorf("%w: config set KEY VALUE", ErrUsage)
			}
		default:
			return CmdConfig, args, fmt.Errorf("%w: unknown config subcommand %q", ErrUsage, args.Subcommand)
		}
		return CmdConfig, args, nil

	case "serve", "server":
		p := NewArgParser(remaining)
		if port := p.FirstFlag("port", "p"); port != "" {
			n, err := strconv.Atoi(port)
			if err != nil || n <= 0 || n > 65535 {
				return CmdServe, args, fmt.Errorf("%w: invalid port %q", ErrUsage, port)
			}
			args.Port = n
		}
		return CmdServe, args, nil

	case "version", "--version":
		return CmdVersion, args, nil

	case "help", "-h", "--help":
		return CmdHelp, args, nil

	default:
		return CmdHelp, args, fmt.Errorf("%w: unknown command %q (see newsdesk help)", ErrUsage, name)
	}
}

// parseGlobalFlags consumes flags that precede the command name.
func parseGlobalFlags(argv []string) ([]string, Args, error) {
	var args Args

	i := 0
	for ; i < len(argv); i++ {
		arg := argv[i]
		if !strings.HasPrefix(arg, "-") {
			break
		}

		name, value, hasValue := strings.Cut(arg, "=")
		takeValue := func() (string, error) {
			if hasValue {
				return value, nil
			}
			if i+1 >= len(argv) {
				return "", fmt.Errorf("%w: %s needs a value", ErrUsage, name)
			}
			i++
			return argv[i], nil
		}

		var err error
		switch name {
		case "-v", "--verbose":
			args.Verbose = true
		case "-q", "--quiet":
			args.Quiet = true
		case "--json":
			args.JSON = true
		case "--config", "-c":
			args.ConfigPath, err = takeValue()
		case "--url", "--base-url":
			args.BaseURL, err = takeValue()
		case "--mode", "-m":
			args.Mode, err = takeValue()
			if err == nil {
				err = validateMode(args.Mode)
			}
		case "-h", "--help", "--version":
			// handled as commands
			return argv[i:], args, nil
		default:
			return nil, args, fmt.Errorf("%w: unknown flag %s", ErrUsage, name)
		}
		if err != nil {
			return nil, args, err
		}
	}

	return argv[i:], args, nil
}

func validateMode(mode string) error {
	if mode == "" {
		return nil
	}
	if _, err := model.ParseMode(mode); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes cmd with the process's standard streams.
func Run(ctx context.Context, cmd Command, args Args) error {
	switch cmd {
	case CmdHelp:
		PrintUsage(os.Stdout)
		return nil
	case CmdVersion:
		PrintVersion(os.Stdout)
		return nil
	case CmdConfig:
		return runConfig(args, os.Stdout)
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if cmd == CmdServe {
		closeLog := setupLogging(cfg, true)
		defer closeLog()
		return runServe(ctx, cfg, args)
	}

	var closeLog func()
	if cmd != CmdTUI {
		closeLog = setupLogging(cfg, args.Verbose)
		defer closeLog()
	}

	app, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	switch cmd {
	case CmdTUI:
		return runTUI(ctx, app, args)
	case CmdChat:
		return runChat(ctx, app, args)
	case CmdAsk:
		return runAsk(ctx, app, args, os.Stdout)
	case CmdHistory:
		return runHistory(ctx, app, args, os.Stdout)
	case CmdReset:
		return runReset(ctx, app, args, os.Stdin, os.Stdout)
	case CmdExport:
		return runExport(ctx, app, args, os.Stdout)
	case CmdHealth:
		return runHealth(ctx, app, os.Stdout)
	default:
		return fmt.Errorf("%w: unhandled command %s", ErrUsage, cmd)
	}
}
