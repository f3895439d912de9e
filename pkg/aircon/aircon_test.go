// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package aircon

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/gleba/auxac/pkg/auxproto"
)

// ============================================================
// Test Helpers
// ============================================================

// fakeBus is an in-memory Bus; tests feed frames into in and inspect
// what the engine wrote as separate frames in writes.
type fakeBus struct {
	in      []byte
	writes  [][]byte
	flushes int
}

func (b *fakeBus) Available() int { return len(b.in) }

func (b *fakeBus) Peek() (byte, error) {
	if len(b.in) == 0 {
		return 0, io.EOF
	}
	return b.in[0], nil
}

func (b *fakeBus) ReadByte() (byte, error) {
	if len(b.in) == 0 {
		return 0, io.EOF
	}
	v := b.in[0]
	b.in = b.in[1:]
	return v, nil
}

func (b *fakeBus) Write(p []byte) (int, error) {
	b.writes = append(b.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (b *fakeBus) Flush() error {
	b.flushes++
	return nil
}

func (b *fakeBus) feed(frame []byte) { b.in = append(b.in, frame...) }

func (b *fakeBus) lastWrite() []byte {
	if len(b.writes) == 0 {
		return nil
	}
	return b.writes[len(b.writes)-1]
}

// fakeClock is a manually driven time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestConditioner(opts ...Option) (*Conditioner, *fakeBus, *fakeClock) {
	bus := &fakeBus{}
	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	opts = append([]Option{WithClock(clk.Now), WithPollInterval(0)}, opts...)
	return New(bus, opts...), bus, clk
}

// frame builds a complete device-originated frame around the given
// type and body.
func frame(t *testing.T, ptype byte, body []byte) []byte {
	t.Helper()
	raw := []byte{auxproto.StartByte, 0x00, ptype, auxproto.OriginDevice, 0x00, 0x00, byte(len(body)), 0x00}
	raw = append(raw, body...)
	sum := auxproto.Checksum(raw)
	return append(raw, byte(sum>>8), byte(sum))
}

func pingFrame(t *testing.T) []byte {
	return frame(t, auxproto.TypePing, make([]byte, 8))
}

func smallStatusBody(target float32, power auxproto.Power) []byte {
	body := make([]byte, auxproto.SmallStatusBodySize)
	body[0] = 0x01
	body[1] = auxproto.CmdStatusSmall
	body[2] = (byte(target) - 8) << 3
	if target != float32(int(target)) {
		body[4] = auxproto.TargetTempFracMask
	}
	body[10] = byte(power)
	return body
}

func bigStatusBody(ambient float32) []byte {
	body := make([]byte, auxproto.BigStatusBodySize)
	body[0] = 0x01
	body[1] = auxproto.CmdStatusBig
	body[7] = 0x20 + byte(ambient)
	body[23] = byte((ambient - float32(int(ambient))) * 10)
	return body
}

// setAckFrame builds the acknowledgement the device sends for the given
// set command frame, echoing its checksum bytes.
func setAckFrame(t *testing.T, sentCmd []byte) []byte {
	t.Helper()
	hi := sentCmd[len(sentCmd)-2]
	lo := sentCmd[len(sentCmd)-1]
	return frame(t, auxproto.TypeInfo, []byte{0x01, auxproto.CmdSetParams, hi, lo})
}

// expectedPingAnswer is the fixed reply frame with its hand-computed
// checksum.
var expectedPingAnswer = []byte{
	0xBB, 0x00, 0x01, 0x80, 0x01, 0x00, 0x08, 0x00,
	0x1C, 0x27, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x1E, 0x58,
}

// ============================================================
// Ping and Startup Tests
// ============================================================

func TestPingExchange(t *testing.T) {
	c, bus, _ := newTestConditioner()
	bus.feed(pingFrame(t))
	c.Tick()

	if !bytes.Equal(bus.lastWrite(), expectedPingAnswer) {
		t.Errorf("ping answer mismatch:\nexpected % 02X\ngot      % 02X", expectedPingAnswer, bus.lastWrite())
	}
	if bus.flushes != 1 {
		t.Errorf("expected 1 flush, got %d", bus.flushes)
	}
}

func TestStartupSequence_ArmedOnFirstPing(t *testing.T) {
	c, bus, _ := newTestConditioner()
	bus.feed(pingFrame(t))
	c.Tick()

	if !c.Connected() {
		t.Error("first ping should mark the conditioner connected")
	}
	if !c.HasSequence() {
		t.Fatal("first ping should arm the startup sequence")
	}

	// Next tick sends the small status request.
	c.Tick()
	last := bus.lastWrite()
	if last[2] != auxproto.TypeCommand || last[8] != auxproto.CmdStatusSmall {
		t.Errorf("expected small status request, got % 02X", last)
	}

	// Second ping must not re-arm anything once complete.
	bus.feed(frame(t, auxproto.TypeInfo, smallStatusBody(24, auxproto.PowerOn)))
	c.Tick()
	c.Tick()
	last = bus.lastWrite()
	if last[8] != auxproto.CmdStatusBig {
		t.Errorf("expected big status request, got % 02X", last)
	}

	bus.feed(frame(t, auxproto.TypeInfo, bigStatusBody(23.5)))
	c.Tick()
	c.Tick()
	if c.HasSequence() {
		t.Error("startup sequence should be complete")
	}

	if c.State().TargetTemp != 24 || c.State().Power != auxproto.PowerOn {
		t.Errorf("state not updated: %+v", c.State())
	}
	if c.Ambient().AmbientTemp != 23.5 {
		t.Errorf("ambient not updated: %+v", c.Ambient())
	}
}

func TestStateHandler_Notified(t *testing.T) {
	var calls int
	var lastState auxproto.State
	c, bus, _ := newTestConditioner(WithStateHandler(func(s auxproto.State, _ auxproto.Ambient) {
		calls++
		lastState = s
	}))

	bus.feed(frame(t, auxproto.TypeInfo, smallStatusBody(22, auxproto.PowerOff)))
	c.Tick()
	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}
	if lastState.TargetTemp != 22 {
		t.Errorf("handler state: %+v", lastState)
	}

	// Identical status again: no change, no notification.
	bus.feed(frame(t, auxproto.TypeInfo, smallStatusBody(22, auxproto.PowerOff)))
	c.Tick()
	if calls != 1 {
		t.Errorf("unchanged status should not notify, got %d calls", calls)
	}
}

func TestDispatch_ChecksumFailureDropsPacket(t *testing.T) {
	var calls int
	c, bus, _ := newTestConditioner(WithStateHandler(func(auxproto.State, auxproto.Ambient) {
		calls++
	}))

	bad := frame(t, auxproto.TypeInfo, smallStatusBody(25, auxproto.PowerOn))
	bad[10] ^= 0xFF
	bus.feed(bad)
	c.Tick()

	if calls != 0 {
		t.Error("corrupted status should not reach the handler")
	}
	if c.State().Power != auxproto.PowerUntouched {
		t.Error("corrupted status should not change state")
	}
}

func TestDispatch_UnknownStatusCodeIgnored(t *testing.T) {
	c, bus, _ := newTestConditioner()
	body := make([]byte, auxproto.SmallStatusBodySize)
	body[0] = 0x01
	body[1] = 0x77
	bus.feed(frame(t, auxproto.TypeInfo, body))
	c.Tick()
	if c.State().Power != auxproto.PowerUntouched {
		t.Error("unknown status code should change nothing")
	}
}

// ============================================================
// Sequence Tests
// ============================================================

func TestQueryStatusSmall_Lifecycle(t *testing.T) {
	c, bus, _ := newTestConditioner()
	if err := c.QueryStatusSmall(); err != nil {
		t.Fatalf("QueryStatusSmall: %v", err)
	}

	c.Tick()
	last := bus.lastWrite()
	if last == nil || last[8] != auxproto.CmdStatusSmall {
		t.Fatalf("expected small status request, got % 02X", last)
	}

	bus.feed(frame(t, auxproto.TypeInfo, smallStatusBody(21, auxproto.PowerOn)))
	c.Tick()
	c.Tick()
	if c.HasSequence() {
		t.Error("sequence should be complete after the response")
	}
}

func TestSequence_Conflict(t *testing.T) {
	c, _, _ := newTestConditioner()
	if err := c.QueryStatusSmall(); err != nil {
		t.Fatalf("QueryStatusSmall: %v", err)
	}
	if err := c.QueryStatusBig(); !errors.Is(err, auxproto.ErrSequenceConflict) {
		t.Errorf("expected ErrSequenceConflict, got %v", err)
	}
	if err := c.StartupSequence(); !errors.Is(err, auxproto.ErrSequenceConflict) {
		t.Errorf("expected ErrSequenceConflict, got %v", err)
	}
	if err := c.PowerSequence(auxproto.PowerOn); !errors.Is(err, auxproto.ErrSequenceConflict) {
		t.Errorf("expected ErrSequenceConflict, got %v", err)
	}
}

func TestSequence_StepTimeout(t *testing.T) {
	c, _, clk := newTestConditioner()
	if err := c.QueryStatusSmall(); err != nil {
		t.Fatalf("QueryStatusSmall: %v", err)
	}

	c.Tick() // sends the request, arms the await step
	c.Tick() // await step starts its clock
	clk.advance(600 * time.Millisecond)
	c.Tick()

	if c.HasSequence() {
		t.Error("timed-out sequence should be cleared")
	}
}

func TestSequence_IgnoresPingsWhileAwaiting(t *testing.T) {
	c, bus, _ := newTestConditioner()
	if err := c.QueryStatusSmall(); err != nil {
		t.Fatalf("QueryStatusSmall: %v", err)
	}
	c.Tick() // send request

	bus.feed(pingFrame(t))
	c.Tick()

	if !c.HasSequence() {
		t.Fatal("ping must not abort an awaiting sequence")
	}
	if !bytes.Equal(bus.lastWrite(), expectedPingAnswer) {
		t.Error("ping should still be answered mid-sequence")
	}

	bus.feed(frame(t, auxproto.TypeInfo, smallStatusBody(20, auxproto.PowerOff)))
	c.Tick()
	c.Tick()
	if c.HasSequence() {
		t.Error("sequence should complete after the real response")
	}
}

func TestSequence_RejectsIrrelevantPacket(t *testing.T) {
	c, bus, _ := newTestConditioner()
	if err := c.QueryStatusSmall(); err != nil {
		t.Fatalf("QueryStatusSmall: %v", err)
	}
	c.Tick() // send request

	// A big status where a small one was expected.
	bus.feed(frame(t, auxproto.TypeInfo, bigStatusBody(20)))
	c.Tick()

	if c.HasSequence() {
		t.Error("irrelevant packet should abort the sequence")
	}
}

func TestCommandSequence_FullLifecycle(t *testing.T) {
	c, bus, _ := newTestConditioner()

	cmd := auxproto.NewUntouchedState()
	cmd.Power = auxproto.PowerOn
	cmd.TargetTemp = 23.5
	if err := c.CommandSequence(cmd); err != nil {
		t.Fatalf("CommandSequence: %v", err)
	}

	// Step 1-2: status refresh.
	c.Tick()
	if last := bus.lastWrite(); last[8] != auxproto.CmdStatusSmall {
		t.Fatalf("expected small status request, got % 02X", last)
	}
	bus.feed(frame(t, auxproto.TypeInfo, smallStatusBody(20, auxproto.PowerOff)))
	c.Tick()

	// Step 3: the set command goes out, built over the fresh status.
	c.Tick()
	sent := bus.lastWrite()
	if sent[2] != auxproto.TypeCommand || sent[8] != auxproto.CmdSetParams {
		t.Fatalf("expected set command, got % 02X", sent)
	}
	s, err := auxproto.DecodeSmallStatus(sent[auxproto.HeaderSize : auxproto.HeaderSize+auxproto.SetCommandBodySize])
	if err != nil {
		t.Fatalf("decode sent command: %v", err)
	}
	if s.Power != auxproto.PowerOn || s.TargetTemp != 23.5 {
		t.Errorf("sent command fields: %+v", s)
	}

	// Step 4: ack with the echoed checksum.
	bus.feed(setAckFrame(t, sent))
	c.Tick()

	// Step 5-6: verification status refresh.
	c.Tick()
	if last := bus.lastWrite(); last[8] != auxproto.CmdStatusSmall {
		t.Fatalf("expected verification status request, got % 02X", last)
	}
	bus.feed(frame(t, auxproto.TypeInfo, smallStatusBody(23.5, auxproto.PowerOn)))
	c.Tick()
	c.Tick()

	if c.HasSequence() {
		t.Error("command sequence should be complete")
	}
	if c.State().Power != auxproto.PowerOn || c.State().TargetTemp != 23.5 {
		t.Errorf("final state: %+v", c.State())
	}
}

func TestCommandSequence_BadAckAborts(t *testing.T) {
	c, bus, _ := newTestConditioner()

	cmd := auxproto.NewUntouchedState()
	cmd.Display = auxproto.DisplayOff
	if err := c.CommandSequence(cmd); err != nil {
		t.Fatalf("CommandSequence: %v", err)
	}

	c.Tick()
	bus.feed(frame(t, auxproto.TypeInfo, smallStatusBody(20, auxproto.PowerOn)))
	c.Tick()
	c.Tick()
	sent := bus.lastWrite()

	ack := setAckFrame(t, sent)
	// Corrupt the echoed checksum, then re-seal the frame.
	ack[10] ^= 0xFF
	sum := auxproto.Checksum(ack[:len(ack)-2])
	ack[len(ack)-2] = byte(sum >> 8)
	ack[len(ack)-1] = byte(sum)

	bus.feed(ack)
	c.Tick()

	if c.HasSequence() {
		t.Error("wrong ack echo should abort the sequence")
	}
}

func TestCommandSequence_AppendsAfterLastStep(t *testing.T) {
	c, _, _ := newTestConditioner()
	if err := c.QueryStatusSmall(); err != nil {
		t.Fatalf("QueryStatusSmall: %v", err)
	}

	cmd := auxproto.NewUntouchedState()
	cmd.Power = auxproto.PowerOn
	if err := c.CommandSequence(cmd); err != nil {
		t.Fatalf("CommandSequence should append to an active sequence: %v", err)
	}

	// Query occupies slots 0-1, the command slots 2-7.
	if c.seq[2].kind != stepSendSmallStatusReq || c.seq[4].kind != stepSendCommand {
		t.Errorf("command steps not appended after the last occupied slot: %v %v",
			c.seq[2].kind, c.seq[4].kind)
	}
}

func TestCommandSequence_CapacityExceeded(t *testing.T) {
	c, _, _ := newTestConditioner()
	cmd := auxproto.NewUntouchedState()
	cmd.Power = auxproto.PowerOn

	if err := c.CommandSequence(cmd); err != nil {
		t.Fatalf("first command: %v", err)
	}
	if err := c.CommandSequence(cmd); err != nil {
		t.Fatalf("second command should fit: %v", err)
	}
	// 12 of 15 slots used; a third needs 6 more.
	if err := c.CommandSequence(cmd); !errors.Is(err, auxproto.ErrSequenceCapacity) {
		t.Errorf("expected ErrSequenceCapacity, got %v", err)
	}
}

func TestPowerSequence(t *testing.T) {
	c, _, _ := newTestConditioner()
	if err := c.PowerSequence(auxproto.PowerUntouched); err != nil {
		t.Errorf("untouched power should be a no-op, got %v", err)
	}
	if c.HasSequence() {
		t.Error("untouched power should not load a sequence")
	}

	if err := c.PowerSequence(auxproto.PowerOff); err != nil {
		t.Fatalf("PowerSequence: %v", err)
	}
	if c.seq[2].cmd.Power != auxproto.PowerOff {
		t.Errorf("command slot power = %v, want off", c.seq[2].cmd.Power)
	}
}

// ============================================================
// Polling Tests
// ============================================================

func TestPeriodicPoll(t *testing.T) {
	c, bus, clk := newTestConditioner(WithPollInterval(7 * time.Second))

	// Not connected yet: no polling.
	clk.advance(10 * time.Second)
	c.Tick()
	if c.HasSequence() {
		t.Fatal("poll must not run before the first ping")
	}

	// Connect and drain the startup sequence.
	bus.feed(pingFrame(t))
	c.Tick()
	c.Tick()
	bus.feed(frame(t, auxproto.TypeInfo, smallStatusBody(24, auxproto.PowerOn)))
	c.Tick()
	c.Tick()
	bus.feed(frame(t, auxproto.TypeInfo, bigStatusBody(22)))
	c.Tick()
	c.Tick()
	if c.HasSequence() {
		t.Fatal("startup sequence should be drained")
	}

	clk.advance(3 * time.Second)
	c.Tick()
	if c.HasSequence() {
		t.Error("poll fired before the interval elapsed")
	}

	clk.advance(5 * time.Second)
	c.Tick()
	if !c.HasSequence() {
		t.Error("poll should re-arm the status query after the interval")
	}
}
