// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package aircon

import (
	"errors"
	"time"

	"github.com/gleba/auxac/pkg/auxproto"
)

// Conditioner tracks and controls one air conditioner over a Bus. All
// work happens inside Tick; the zero value is not usable, construct
// with New.
type Conditioner struct {
	bus    Bus
	cfg    Config
	framer *auxproto.Framer

	out auxproto.Packet

	state   auxproto.State
	ambient auxproto.Ambient

	// last raw small-status body, the base for set commands
	curBody    [auxproto.SmallStatusBodySize]byte
	haveStatus bool

	startupDone bool
	lastPoll    time.Time

	seq     [sequenceMaxLen]sequenceStep
	seqStep int
}

// New returns a conditioner driving the given bus.
func New(bus Bus, opts ...Option) *Conditioner {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Conditioner{
		bus:    bus,
		cfg:    cfg,
		framer: auxproto.NewFramer(bus),
		state:  auxproto.NewUntouchedState(),
	}
}

// State returns the last decoded settings. Fields still untouched have
// not been reported by the device yet.
func (c *Conditioner) State() auxproto.State { return c.state }

// Ambient returns the last decoded sensor readings.
func (c *Conditioner) Ambient() auxproto.Ambient { return c.ambient }

// Connected reports whether the startup exchange has run, i.e. the
// device has pinged us at least once.
func (c *Conditioner) Connected() bool { return c.startupDone }

// Tick runs one engine cycle: drain inbound bytes, dispatch a completed
// packet, advance the active sequence, re-arm the periodic poll, and
// push any pending outbound frame. Call it from a single goroutine.
func (c *Conditioner) Tick() {
	now := c.cfg.Clock()

	pkt, err := c.framer.Poll(now)
	if err != nil {
		var fe *auxproto.FrameError
		if errors.As(err, &fe) {
			c.cfg.Logger.Warn().
				Str("cause", fe.Err.Error()).
				Int("discarded", len(fe.Discarded)).
				Msg("framing recovered")
		} else {
			c.cfg.Logger.Error().Err(err).Msg("bus read failed")
		}
	}

	if pkt != nil {
		c.dispatch(pkt, now)
		c.runSequence(pkt, now)
		c.framer.Reset()
	} else {
		c.runSequence(nil, now)
	}

	c.armPoll(now)
	c.send()
}

// dispatch routes one complete inbound frame by its packet type.
func (c *Conditioner) dispatch(p *auxproto.Packet, now time.Time) {
	if !auxproto.VerifyChecksum(p) {
		c.cfg.Logger.Error().
			Str("packet", auxproto.FormatPacket(p, auxproto.DirInbound)).
			Msg("checksum mismatch, packet dropped")
		return
	}

	c.cfg.Logger.Debug().
		Str("packet", auxproto.FormatPacket(p, auxproto.DirInbound)).
		Msg("packet received")

	switch p.Type() {
	case auxproto.TypePing:
		auxproto.FillPingAnswer(&c.out, now)
		// The startup query runs once, right after the first ping
		// proves the device is talking to us. The poll timer starts
		// counting from the same moment.
		if !c.startupDone {
			c.startupDone = c.StartupSequence() == nil
			c.lastPoll = now
		}

	case auxproto.TypeCommand:
		// Only we send commands; the device echoing one back means
		// something else is on the bus.
		c.cfg.Logger.Warn().
			Str("packet", auxproto.FormatPacket(p, auxproto.DirInbound)).
			Msg("unexpected command packet from device")

	case auxproto.TypeInfo:
		c.dispatchInfo(p)

	case auxproto.TypeInit, auxproto.TypeDiag:
		// Known but irrelevant traffic; the stock module ignores it too.
		c.cfg.Logger.Debug().
			Str("type", auxproto.FormatType(p.Type())).
			Msg("packet ignored")

	default:
		c.cfg.Logger.Warn().
			Str("type", auxproto.FormatType(p.Type())).
			Msg("unknown packet type ignored")
	}
}

// dispatchInfo routes an info packet by the command code echoed in body
// byte 1.
func (c *Conditioner) dispatchInfo(p *auxproto.Packet) {
	body := p.Body()
	if len(body) < 2 {
		c.cfg.Logger.Warn().Int("len", len(body)).Msg("info packet body too short")
		return
	}

	switch body[1] {
	case auxproto.CmdStatusSmall:
		s, err := auxproto.DecodeSmallStatus(body)
		if err != nil {
			c.cfg.Logger.Warn().Err(err).Msg("small status rejected")
			return
		}
		copy(c.curBody[:], body)
		c.haveStatus = true
		if s != c.state {
			c.state = s
			c.notify()
		}

	case auxproto.CmdStatusBig, auxproto.CmdStatusPeriodic:
		a, err := auxproto.DecodeBigStatus(body)
		if err != nil {
			c.cfg.Logger.Warn().Err(err).Msg("big status rejected")
			return
		}
		if a != c.ambient {
			c.ambient = a
			c.notify()
		}

	case auxproto.CmdSetParams:
		// Ack for a set command. The checksum echo in bytes 2-3 is
		// checked by the sequence step, not here.

	default:
		c.cfg.Logger.Warn().
			Uint8("code", body[1]).
			Msg("unknown status code")
	}
}

func (c *Conditioner) notify() {
	c.cfg.Logger.Debug().Str("state", auxproto.FormatState(c.state)).Msg("state changed")
	if c.cfg.StateHandler != nil {
		c.cfg.StateHandler(c.state, c.ambient)
	}
}

// armPoll re-arms the combined status query once the poll interval has
// elapsed. Polling starts after the startup exchange so an idle bus is
// not spammed with queries nobody answers.
func (c *Conditioner) armPoll(now time.Time) {
	if c.cfg.PollInterval <= 0 || !c.startupDone {
		return
	}
	if now.Sub(c.lastPoll) < c.cfg.PollInterval {
		return
	}
	c.lastPoll = now
	if err := c.StartupSequence(); err != nil {
		c.cfg.Logger.Debug().Err(err).Msg("status poll skipped")
	}
}

// send pushes the pending outbound frame, if any, and frees the buffer.
func (c *Conditioner) send() {
	if c.out.Empty() {
		return
	}
	raw := c.out.Raw()
	if _, err := c.bus.Write(raw); err != nil {
		c.cfg.Logger.Error().Err(err).Msg("bus write failed")
		c.out.Reset()
		return
	}
	if err := c.bus.Flush(); err != nil {
		c.cfg.Logger.Error().Err(err).Msg("bus flush failed")
	}
	c.cfg.Logger.Debug().
		Str("packet", auxproto.FormatPacket(&c.out, auxproto.DirOutbound)).
		Msg("packet sent")
	c.out.Reset()
}
