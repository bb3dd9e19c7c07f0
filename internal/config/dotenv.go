// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// DotEnvFile is the file LoadDotEnv reads from the working directory.
const DotEnvFile = ".env"

// LoadDotEnv loads key=value pairs from the given files (default .env) into
// the process environment. Variables that are already set win. A missing
// file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{DotEnvFile}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}
