// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package auxproto

import "time"

// ByteSource is the minimal inbound side of a serial link: how many
// bytes are ready, look at the next one without consuming it, consume
// one.
type ByteSource interface {
	Available() int
	Peek() (byte, error)
	ReadByte() (byte, error)
}

type framerState uint8

const (
	framerIdle framerState = iota
	framerReceiving
)

// Framer assembles packets from a byte stream. It owns the inbound
// packet buffer; a completed packet returned by Poll stays valid until
// the next Reset or Poll that starts a new frame.
//
// Reception of one frame must finish within FrameTimeout of its start
// byte; a stalled frame is discarded so a dropped byte cannot wedge
// the link.
type Framer struct {
	src      ByteSource
	pkt      Packet
	state    framerState
	deadline time.Time
	stray    []byte
}

func NewFramer(src ByteSource) *Framer {
	return &Framer{src: src}
}

// Reset discards any frame in progress and returns to idle.
func (f *Framer) Reset() {
	f.pkt.Reset()
	f.state = framerIdle
	f.stray = f.stray[:0]
}

// Packet exposes the inbound buffer, e.g. for the set-command encoder
// to read the current status body out of.
func (f *Framer) Packet() *Packet { return &f.pkt }

// Poll consumes whatever the source has ready and returns a completed,
// not yet validated packet, or an error. A returned *FrameError means
// bytes were discarded recovering the stream; the framer is already
// back in a clean state and the caller only needs to log it. Any other
// error comes from the source itself.
//
// now drives the frame deadline; pass the same clock reading used for
// the rest of the tick.
func (f *Framer) Poll(now time.Time) (*Packet, error) {
	for f.src.Available() > 0 {
		switch f.state {
		case framerIdle:
			b, err := f.src.Peek()
			if err != nil {
				return nil, err
			}
			if b != StartByte {
				if _, err := f.src.ReadByte(); err != nil {
					return nil, err
				}
				f.stray = append(f.stray, b)
				if len(f.stray) >= BufferSize {
					return nil, f.flushStray()
				}
				continue
			}
			if len(f.stray) > 0 {
				// Report the garbage first; the start byte stays
				// queued for the next poll.
				return nil, f.flushStray()
			}
			if _, err := f.src.ReadByte(); err != nil {
				return nil, err
			}
			f.pkt.Reset()
			f.pkt.appendByte(b)
			f.state = framerReceiving
			f.deadline = now.Add(FrameTimeout)

		case framerReceiving:
			b, err := f.src.ReadByte()
			if err != nil {
				return nil, err
			}
			f.pkt.appendByte(b)
			if f.pkt.Loaded() >= HeaderSize {
				if int(f.pkt.BodyLength()) > MaxBodySize {
					return nil, f.abort(ErrFrameOverflow)
				}
				if f.pkt.Complete() {
					f.pkt.SetTimestamp(now)
					f.state = framerIdle
					return &f.pkt, nil
				}
			}
		}
	}
	if f.state == framerReceiving && now.After(f.deadline) {
		return nil, f.abort(ErrFrameTimeout)
	}
	return nil, nil
}

func (f *Framer) flushStray() *FrameError {
	e := &FrameError{Err: ErrStrayBytes, Discarded: append([]byte(nil), f.stray...)}
	f.stray = f.stray[:0]
	return e
}

func (f *Framer) abort(cause error) *FrameError {
	e := &FrameError{Err: cause, Discarded: append([]byte(nil), f.pkt.Raw()...)}
	f.pkt.Reset()
	f.state = framerIdle
	return e
}
