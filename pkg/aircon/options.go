// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package aircon

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/gleba/auxac/pkg/auxproto"
)

// StateHandler is called whenever a status packet changes the tracked
// device state. Called from within Tick, so it must not call back into
// the conditioner.
type StateHandler func(auxproto.State, auxproto.Ambient)

// Config holds the conditioner configuration.
type Config struct {
	// Logger receives framing, dispatch and sequence events (optional).
	Logger zerolog.Logger

	// Clock supplies the current time; defaults to time.Now.
	Clock Clock

	// PollInterval is how often the combined status query is re-armed.
	// The stock wifi module polls every 7 seconds.
	PollInterval time.Duration

	// StateHandler is notified on device state changes (optional).
	StateHandler StateHandler
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Logger:       zerolog.Nop(),
		Clock:        time.Now,
		PollInterval: 7 * time.Second,
	}
}

// Option is a functional option for configuring the Conditioner.
type Option func(*Config)

// WithLogger sets the logger for engine events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithClock overrides the time source; used by tests to drive frame
// and sequence deadlines.
func WithClock(clock Clock) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}

// WithPollInterval sets the periodic status query interval. Zero
// disables polling.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = interval
	}
}

// WithStateHandler sets the state-change callback.
func WithStateHandler(handler StateHandler) Option {
	return func(c *Config) {
		c.StateHandler = handler
	}
}
