// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package auxproto

import "time"

// Header byte offsets. Bytes 1, 5 and 7 are unmapped in every capture
// seen so far; they are carried verbatim and never interpreted.
const (
	offStart   = 0
	offType    = 2
	offOrigin  = 3
	offPingAck = 4
	offBodyLen = 6
)

// Packet is one protocol frame in a fixed-capacity buffer: header,
// optional body, checksum. It is a value object — assignment produces
// a full independent copy, which is how packets are captured for later
// inspection.
//
// A Packet is reused across reception/transmission cycles; Reset puts
// it back to the empty state in one step.
type Packet struct {
	data   [BufferSize]byte
	loaded int
	stamp  time.Time
}

// Reset clears the packet to the empty state.
func (p *Packet) Reset() {
	p.data = [BufferSize]byte{}
	p.loaded = 0
	p.stamp = time.Time{}
}

// ResetOutbound clears the packet and pre-stamps the fields common to
// every packet we originate.
func (p *Packet) ResetOutbound() {
	p.Reset()
	p.data[offStart] = StartByte
	p.data[offOrigin] = OriginController
}

// Loaded reports how many bytes are currently in the buffer, checksum
// included once complete.
func (p *Packet) Loaded() int { return p.loaded }

// Empty reports whether the buffer holds no bytes at all.
func (p *Packet) Empty() bool { return p.loaded == 0 }

// Raw returns the loaded bytes. The slice aliases the packet buffer
// and is invalidated by Reset.
func (p *Packet) Raw() []byte { return p.data[:p.loaded] }

// Timestamp is the moment the packet completed reception or was
// finalized for transmission.
func (p *Packet) Timestamp() time.Time     { return p.stamp }
func (p *Packet) SetTimestamp(t time.Time) { p.stamp = t }

// Type returns the packet-type code from the header.
func (p *Packet) Type() byte     { return p.data[offType] }
func (p *Packet) SetType(t byte) { p.data[offType] = t }

// Origin returns the originator flag from the header.
func (p *Packet) Origin() byte     { return p.data[offOrigin] }
func (p *Packet) SetOrigin(o byte) { p.data[offOrigin] = o }

// PingAck returns the ping-reply marker byte; 0x01 only in our answer
// to a ping, 0x00 everywhere else.
func (p *Packet) PingAck() byte     { return p.data[offPingAck] }
func (p *Packet) SetPingAck(v byte) { p.data[offPingAck] = v }

// BodyLength returns the body length declared in the header.
func (p *Packet) BodyLength() byte     { return p.data[offBodyLen] }
func (p *Packet) SetBodyLength(n byte) { p.data[offBodyLen] = n }

// ExpectedLen is the full frame length implied by the header. Only
// meaningful once at least HeaderSize bytes are loaded.
func (p *Packet) ExpectedLen() int {
	return HeaderSize + int(p.BodyLength()) + ChecksumSize
}

// Complete reports whether the buffer holds the full frame declared by
// its header.
func (p *Packet) Complete() bool {
	return p.loaded >= HeaderSize && p.loaded == p.ExpectedLen()
}

// Body returns the body bytes as declared by the header. The slice
// aliases the packet buffer; offsets are computed from the header on
// every call, never cached.
func (p *Packet) Body() []byte {
	n := int(p.BodyLength())
	if n > MaxBodySize {
		n = MaxBodySize
	}
	return p.data[HeaderSize : HeaderSize+n]
}

// ChecksumBytes returns the two stored checksum bytes in wire order
// (high byte first).
func (p *Packet) ChecksumBytes() (byte, byte) {
	off := HeaderSize + int(p.BodyLength())
	return p.data[off], p.data[off+1]
}

// appendByte adds one received byte. Returns false if the buffer is
// already full.
func (p *Packet) appendByte(b byte) bool {
	if p.loaded >= BufferSize {
		return false
	}
	p.data[p.loaded] = b
	p.loaded++
	return true
}

// Finalize computes the checksum over header+body, stores it in wire
// order and marks the packet fully loaded. Call after all header and
// body fields are in place.
func (p *Packet) Finalize(now time.Time) {
	end := HeaderSize + int(p.BodyLength())
	sum := Checksum(p.data[:end])
	p.data[end] = byte(sum >> 8)
	p.data[end+1] = byte(sum)
	p.loaded = end + ChecksumSize
	p.stamp = now
}

// PacketFromBytes reconstructs a packet from raw frame bytes, e.g. out
// of a capture file. The frame must carry the start marker and be
// exactly as long as its header declares.
func PacketFromBytes(raw []byte) (Packet, error) {
	var p Packet
	if len(raw) < HeaderSize+ChecksumSize || len(raw) > BufferSize {
		return p, ErrTruncatedFrame
	}
	if raw[offStart] != StartByte {
		return p, ErrNoStartMarker
	}
	copy(p.data[:], raw)
	p.loaded = len(raw)
	if !p.Complete() {
		return Packet{}, ErrTruncatedFrame
	}
	return p, nil
}

// FillPingAnswer builds the fixed reply to a device ping: two marker
// bytes then six zeros, ping-reply flag set.
func FillPingAnswer(p *Packet, now time.Time) {
	p.ResetOutbound()
	p.SetType(TypePing)
	p.SetPingAck(0x01)
	p.SetBodyLength(PingAnswerBodySize)
	body := p.Body()
	body[0] = 0x1C
	body[1] = 0x27
	p.Finalize(now)
}

// FillStatusRequest builds a status query command for the given status
// code (CmdStatusSmall or CmdStatusBig).
func FillStatusRequest(p *Packet, code byte, now time.Time) {
	p.ResetOutbound()
	p.SetType(TypeCommand)
	p.SetBodyLength(StatusRequestBodySize)
	body := p.Body()
	body[0] = code
	body[1] = 0x01
	p.Finalize(now)
}
