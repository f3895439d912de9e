// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// Engine flags
	pollSeconds int

	// Misc flags
	configPath string
	logLevel   string

	// logger is configured from --log-level before any subcommand runs.
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "auxctl",
	Short: "AUX air conditioner serial controller",
	Long: `Auxctl - monitor and control AUX-based split-system air conditioners
over the UART bus exposed in their wifi module slot.

The bus runs at 4800 baud, 8 data bits, even parity, 1 stop bit. The
conditioner pings the bus every few seconds; auxctl answers the pings,
queries the device state and sends verified set commands.

Settings may also come from a TOML config file (--config, default
auxctl.toml in the working directory); command-line flags win.`,
	Version:           "1.0.0",
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", defaultBaudRate, "Baud rate")
	rootCmd.PersistentFlags().IntVar(&pollSeconds, "poll", defaultPollSeconds, "Status poll interval in seconds (0 disables)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (TOML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
}

// setup merges the config file into unset flags and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	if err := applyFileConfig(cmd); err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000",
	}).Level(level).With().Timestamp().Logger()

	return nil
}

func pollInterval() time.Duration {
	return time.Duration(pollSeconds) * time.Second
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
