// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

// Package aircon drives an AUX air conditioner over its serial bus:
// it answers pings, polls and tracks the device state, and runs
// command sequences with acknowledgement checking.
//
// The engine is single-threaded by design. The owner calls Tick in a
// loop; nothing here spawns goroutines or blocks on I/O.
package aircon

import (
	"time"

	"github.com/gleba/auxac/pkg/auxproto"
)

// Bus is the serial link to the conditioner. The inbound side is the
// framer's ByteSource contract; the outbound side writes a complete
// frame and drains it onto the wire.
type Bus interface {
	auxproto.ByteSource
	Write(p []byte) (int, error)
	Flush() error
}

// Clock supplies the current time. Injected so tests can steer frame
// and sequence deadlines.
type Clock func() time.Time
