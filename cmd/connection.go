// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package cmd

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// readTimeout bounds a single port read so the engine tick loop never
// blocks longer than this on a quiet bus.
const readTimeout = 10 * time.Millisecond

// serialBus adapts a serial port to the engine's bus contract: a
// peekable byte source on the inbound side, frame writes with an
// explicit drain on the outbound side.
type serialBus struct {
	port    serial.Port
	buf     []byte
	off     int
	scratch [64]byte
}

// openBus opens the configured serial port in the conditioner's framing
// (8 data bits, even parity, 1 stop bit) and returns the bus plus a
// human-readable connection description.
func openBus() (*serialBus, string, error) {
	if portName == "" {
		return nil, "", fmt.Errorf("no serial port specified (use --port or the config file)")
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.EvenParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, "", fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}

	info := fmt.Sprintf("Serial: %s @ %d baud 8E1", portName, baudRate)
	return &serialBus{port: port}, info, nil
}

// fill tops up the read-ahead buffer with one bounded port read. A
// timed-out read returns zero bytes without an error.
func (b *serialBus) fill() {
	if b.off < len(b.buf) {
		return
	}
	b.buf = b.buf[:0]
	b.off = 0
	n, err := b.port.Read(b.scratch[:])
	if err != nil || n == 0 {
		return
	}
	b.buf = append(b.buf, b.scratch[:n]...)
}

func (b *serialBus) Available() int {
	b.fill()
	return len(b.buf) - b.off
}

func (b *serialBus) Peek() (byte, error) {
	b.fill()
	if b.off >= len(b.buf) {
		return 0, io.EOF
	}
	return b.buf[b.off], nil
}

func (b *serialBus) ReadByte() (byte, error) {
	b.fill()
	if b.off >= len(b.buf) {
		return 0, io.EOF
	}
	c := b.buf[b.off]
	b.off++
	return c, nil
}

func (b *serialBus) Write(p []byte) (int, error) {
	return b.port.Write(p)
}

func (b *serialBus) Flush() error {
	return b.port.Drain()
}

func (b *serialBus) Close() error {
	return b.port.Close()
}
