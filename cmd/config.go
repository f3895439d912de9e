// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

const (
	defaultBaudRate    = 4800
	defaultPollSeconds = 7
	defaultConfigFile  = "auxctl.toml"
)

// fileConfig mirrors the persistent flags in auxctl.toml.
type fileConfig struct {
	Port        string `toml:"port"`
	Baud        int    `toml:"baud"`
	PollSeconds int    `toml:"poll_seconds"`
	LogLevel    string `toml:"log_level"`
}

// applyFileConfig loads the TOML config and fills in every persistent
// flag the user did not set on the command line. A missing default
// config file is fine; a missing --config file is an error.
func applyFileConfig(cmd *cobra.Command) error {
	path := configPath
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		fmt.Fprintf(os.Stderr, "config %s: ignoring unknown keys %v\n", path, undecoded)
	}

	flags := cmd.Root().PersistentFlags()
	if !flags.Changed("port") && cfg.Port != "" {
		portName = cfg.Port
	}
	if !flags.Changed("baud") && cfg.Baud != 0 {
		baudRate = cfg.Baud
	}
	if !flags.Changed("poll") && meta.IsDefined("poll_seconds") {
		pollSeconds = cfg.PollSeconds
	}
	if !flags.Changed("log-level") && cfg.LogLevel != "" {
		logLevel = cfg.LogLevel
	}
	return nil
}
