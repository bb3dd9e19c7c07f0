// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - The config command.
//
// Subcommands:
//   show (default)      Effective configuration (file, env and flags applied)
//   path                Config file location
//   init [--force]      Write a default config file
//   get KEY             One value, e.g. backend.base_url
//   set KEY VALUE       Change one value in the file

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jeranaias/newsdesk/internal/config"
)

// runConfig handles "newsdesk config".
func runConfig(args Args, out io.Writer) error {
	path, err := configPath(args)
	if err != nil {
		return err
	}

	switch args.Subcommand {
	case "path":
		fmt.Fprintln(out, path)
		return nil
	case "init":
		return configInit(path, args.Force, out)
	case "set":
		return configSet(path, args.ConfigKey, args.ConfigVal, out)
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if args.Subcommand == "get" {
		value, err := cfg.Get(args.ConfigKey)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatValue(value))
		return nil
	}

	p := newPrinter(out, cfg)
	if args.JSON {
		return p.printJSON(cfg)
	}

	fmt.Fprintln(out, TitleStyle.Render("newsdesk configuration"))
	fmt.Fprintf(out, "%s%s\n", RenderLabel("file"), DimStyle.Render(path))
	fmt.Fprintln(out, RenderSeparator(50))
	for _, key := range config.GetAllKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "%s%s\n", RenderLabel(key), ValueStyle.Render(formatValue(value)))
	}
	return nil
}

// configInit writes the default configuration to path.
func configInit(path string, force bool, out io.Writer) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Wrote %s\n", RenderStatus(true), path)
	return nil
}

// configSet changes one key in the file. Environment overrides are not
// applied, so they are never written back.
func configSet(path, key, value string, out io.Writer) error {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}

	current, _ := cfg.Get(key)
	fmt.Fprintf(out, "%s %s = %s\n", RenderStatus(true), key, formatValue(current))
	return nil
}

// formatValue prints slices as comma lists and empty strings as "(unset)".
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return "(unset)"
		}
		return val
	case []string:
		if len(val) == 0 {
			return "(none)"
		}
		s := val[0]
		for _, item := range val[1:] {
			s += "," + item
		}
		return s
	default:
		return fmt.Sprintf("%v", val)
	}
}
