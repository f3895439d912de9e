// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package aircon

import (
	"time"

	"github.com/gleba/auxac/pkg/auxproto"
)

const (
	sequenceMaxLen     = 15
	defaultStepTimeout = 500 * time.Millisecond
)

// stepKind enumerates everything a sequence step can do. The closed set
// keeps the whole step dispatch in one switch.
type stepKind uint8

const (
	stepNone stepKind = iota
	stepDelay
	stepSendSmallStatusReq
	stepAwaitSmallStatus
	stepSendBigStatusReq
	stepAwaitBigStatus
	stepSendCommand
	stepAwaitSetAck
)

func (k stepKind) String() string {
	switch k {
	case stepNone:
		return "none"
	case stepDelay:
		return "delay"
	case stepSendSmallStatusReq:
		return "send-small-status-req"
	case stepAwaitSmallStatus:
		return "await-small-status"
	case stepSendBigStatusReq:
		return "send-big-status-req"
	case stepAwaitBigStatus:
		return "await-big-status"
	case stepSendCommand:
		return "send-command"
	case stepAwaitSetAck:
		return "await-set-ack"
	default:
		return "invalid"
	}
}

// sequenceStep is one slot of the step table. Send steps keep a copy of
// the frame they put on the wire; await steps keep a copy of the frame
// they accepted, so later steps can refer back (the ack check reads the
// sent command's checksum this way).
type sequenceStep struct {
	kind    stepKind
	timeout time.Duration
	started time.Time
	cmd     auxproto.State
	packet  auxproto.Packet
}

// HasSequence reports whether a sequence is loaded.
func (c *Conditioner) HasSequence() bool {
	return c.seq[0].kind != stepNone
}

// clearSequence wipes the whole step table in one pass. Completion,
// timeout and rejection all land here, so a broken exchange can never
// leave stale steps behind.
func (c *Conditioner) clearSequence() {
	for i := range c.seq {
		c.seq[i] = sequenceStep{}
	}
	c.seqStep = 0
}

// runSequence advances the active sequence by at most one step. in is
// the packet that just came in, nil on ticks without one.
func (c *Conditioner) runSequence(in *auxproto.Packet, now time.Time) {
	if !c.HasSequence() {
		return
	}
	if c.seqStep >= sequenceMaxLen {
		c.cfg.Logger.Debug().Msg("sequence complete (table exhausted)")
		c.clearSequence()
		return
	}

	st := &c.seq[c.seqStep]

	switch st.kind {
	case stepNone:
		c.cfg.Logger.Debug().Int("steps", c.seqStep).Msg("sequence complete")
		c.clearSequence()

	case stepDelay:
		if st.started.IsZero() {
			st.started = now
			c.cfg.Logger.Debug().
				Int("step", c.seqStep).
				Dur("delay", st.timeout).
				Msg("sequence delay started")
		}
		if now.Sub(st.started) >= st.timeout {
			c.seqStep++
		}

	default:
		if st.started.IsZero() {
			st.started = now
			c.cfg.Logger.Debug().
				Int("step", c.seqStep).
				Str("kind", st.kind.String()).
				Msg("sequence step started")
		}
		if st.timeout == 0 {
			st.timeout = defaultStepTimeout
		}
		if now.Sub(st.started) >= st.timeout {
			c.cfg.Logger.Warn().
				Int("step", c.seqStep).
				Str("kind", st.kind.String()).
				Err(auxproto.ErrSequenceTimeout).
				Msg("sequence aborted")
			c.clearSequence()
			return
		}
		if !c.runStep(st, in, now) {
			c.clearSequence()
		}
	}
}

// runStep executes one send or await step. Returns false to abort the
// sequence. Send steps wait (return true without advancing) while the
// outbound buffer is busy; await steps wait until a packet arrives and
// ignore pings.
func (c *Conditioner) runStep(st *sequenceStep, in *auxproto.Packet, now time.Time) bool {
	switch st.kind {
	case stepSendSmallStatusReq:
		if !c.out.Empty() {
			return true
		}
		auxproto.FillStatusRequest(&c.out, auxproto.CmdStatusSmall, now)
		st.packet = c.out
		c.seqStep++
		return true

	case stepSendBigStatusReq:
		if !c.out.Empty() {
			return true
		}
		auxproto.FillStatusRequest(&c.out, auxproto.CmdStatusBig, now)
		st.packet = c.out
		c.seqStep++
		return true

	case stepSendCommand:
		if !c.out.Empty() {
			return true
		}
		base := c.curBody[:]
		if err := auxproto.EncodeSetCommand(&c.out, base, st.cmd, now); err != nil {
			c.cfg.Logger.Error().Err(err).Msg("set command encoding failed")
			return false
		}
		st.packet = c.out
		c.seqStep++
		return true

	case stepAwaitSmallStatus:
		return c.awaitInfo(st, in, auxproto.CmdStatusSmall, auxproto.SmallStatusBodySize)

	case stepAwaitBigStatus:
		return c.awaitInfo(st, in, auxproto.CmdStatusBig, auxproto.BigStatusBodySize)

	case stepAwaitSetAck:
		if in == nil || in.Type() == auxproto.TypePing {
			return true
		}
		st.packet = *in
		body := in.Body()
		ok := in.Type() == auxproto.TypeInfo &&
			len(body) >= 2 &&
			body[1] == auxproto.CmdSetParams &&
			auxproto.VerifySetAck(in, &c.seq[c.seqStep-1].packet)
		if !ok {
			c.rejectPacket(st, in)
			return false
		}
		c.seqStep++
		return true

	default:
		c.cfg.Logger.Warn().
			Int("step", c.seqStep).
			Str("kind", st.kind.String()).
			Msg("invalid sequence step")
		return false
	}
}

// awaitInfo accepts the info packet carrying the wanted status code and
// body size. Pings pass through untouched; anything else irrelevant
// aborts the sequence.
func (c *Conditioner) awaitInfo(st *sequenceStep, in *auxproto.Packet, code byte, bodySize byte) bool {
	if in == nil || in.Type() == auxproto.TypePing {
		return true
	}
	st.packet = *in
	body := in.Body()
	ok := in.Type() == auxproto.TypeInfo &&
		in.BodyLength() == bodySize &&
		len(body) >= 2 &&
		body[0] == 0x01 &&
		body[1] == code
	if !ok {
		c.rejectPacket(st, in)
		return false
	}
	c.seqStep++
	return true
}

func (c *Conditioner) rejectPacket(st *sequenceStep, in *auxproto.Packet) {
	c.cfg.Logger.Warn().
		Int("step", c.seqStep).
		Str("kind", st.kind.String()).
		Str("packet", auxproto.FormatPacket(in, auxproto.DirInbound)).
		Err(auxproto.ErrSequenceRejected).
		Msg("sequence aborted")
}

// QueryStatusSmall loads the two-step small status exchange.
func (c *Conditioner) QueryStatusSmall() error {
	if c.HasSequence() {
		c.cfg.Logger.Warn().Msg("QueryStatusSmall: another sequence is active")
		return auxproto.ErrSequenceConflict
	}
	c.clearSequence()
	c.seq[0].kind = stepSendSmallStatusReq
	c.seq[1].kind = stepAwaitSmallStatus
	c.cfg.Logger.Debug().Msg("small status query loaded")
	return nil
}

// QueryStatusBig loads the two-step big status exchange.
func (c *Conditioner) QueryStatusBig() error {
	if c.HasSequence() {
		c.cfg.Logger.Warn().Msg("QueryStatusBig: another sequence is active")
		return auxproto.ErrSequenceConflict
	}
	c.clearSequence()
	c.seq[0].kind = stepSendBigStatusReq
	c.seq[1].kind = stepAwaitBigStatus
	c.cfg.Logger.Debug().Msg("big status query loaded")
	return nil
}

// StartupSequence loads the combined small+big status query. It runs
// once after the first answered ping and then again on every poll
// interval, so a fresh connection learns the full device state fast.
func (c *Conditioner) StartupSequence() error {
	if c.HasSequence() {
		c.cfg.Logger.Warn().Msg("StartupSequence: another sequence is active")
		return auxproto.ErrSequenceConflict
	}
	c.clearSequence()
	c.seq[0].kind = stepSendSmallStatusReq
	c.seq[1].kind = stepAwaitSmallStatus
	c.seq[2].kind = stepSendBigStatusReq
	c.seq[3].kind = stepAwaitBigStatus
	c.cfg.Logger.Debug().Msg("startup sequence loaded")
	return nil
}

// CommandSequence loads a verified set-command exchange: refresh the
// status, send the command, check the ack echo, refresh the status
// again. If a sequence is already active the new steps are appended
// after its last occupied slot instead of failing.
func (c *Conditioner) CommandSequence(cmd auxproto.State) error {
	step := 0
	if c.HasSequence() {
		for i := sequenceMaxLen - 1; i >= 0; i-- {
			if c.seq[i].kind != stepNone {
				step = i + 1
				break
			}
		}
	}
	if step+6 > sequenceMaxLen {
		c.cfg.Logger.Warn().Int("free", sequenceMaxLen-step).Msg("CommandSequence: step table full")
		return auxproto.ErrSequenceCapacity
	}

	c.seq[step].kind = stepSendSmallStatusReq
	c.seq[step+1].kind = stepAwaitSmallStatus
	c.seq[step+2].kind = stepSendCommand
	c.seq[step+2].cmd = cmd
	c.seq[step+3].kind = stepAwaitSetAck
	c.seq[step+4].kind = stepSendSmallStatusReq
	c.seq[step+5].kind = stepAwaitSmallStatus

	c.cfg.Logger.Debug().Int("at", step).Msg("command sequence loaded")
	return nil
}

// PowerSequence loads a command sequence switching the conditioner on
// or off. Unlike CommandSequence it refuses to stack onto an active
// sequence, matching how the stock module treats power toggles.
func (c *Conditioner) PowerSequence(power auxproto.Power) error {
	if power == auxproto.PowerUntouched {
		return nil
	}
	if c.HasSequence() {
		c.cfg.Logger.Warn().Msg("PowerSequence: another sequence is active")
		return auxproto.ErrSequenceConflict
	}
	cmd := auxproto.NewUntouchedState()
	cmd.Power = power
	return c.CommandSequence(cmd)
}
