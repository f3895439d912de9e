// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package auxproto

import (
	"fmt"
	"strings"
)

// Direction tags a packet as inbound or outbound in log output.
type Direction uint8

const (
	DirInbound Direction = iota
	DirOutbound
)

func (d Direction) String() string {
	if d == DirOutbound {
		return "-->"
	}
	return "<--"
}

// FormatPacket renders a packet as a hex dump with the header and
// checksum bracketed, so the body reads off at a glance:
//
//	<-- [BB 00 01 80 01 00 08 00] 1C 27 00 00 00 00 00 00 [1E 58]
//
// Incomplete packets are dumped flat without brackets.
func FormatPacket(p *Packet, dir Direction) string {
	raw := p.Raw()
	var b strings.Builder
	b.WriteString(dir.String())
	if !p.Complete() {
		for _, v := range raw {
			fmt.Fprintf(&b, " %02X", v)
		}
		return b.String()
	}
	bodyEnd := HeaderSize + int(p.BodyLength())
	b.WriteString(" [")
	b.WriteString(hexFields(raw[:HeaderSize]))
	b.WriteString("]")
	if bodyEnd > HeaderSize {
		b.WriteString(" ")
		b.WriteString(hexFields(raw[HeaderSize:bodyEnd]))
	}
	b.WriteString(" [")
	b.WriteString(hexFields(raw[bodyEnd:]))
	b.WriteString("]")
	return b.String()
}

func hexFields(data []byte) string {
	parts := make([]string, len(data))
	for i, v := range data {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, " ")
}

// FormatType names a packet type code.
func FormatType(t byte) string {
	switch t {
	case TypePing:
		return "ping"
	case TypeCommand:
		return "command"
	case TypeInfo:
		return "info"
	case TypeInit:
		return "init"
	case TypeDiag:
		return "diag"
	default:
		return fmt.Sprintf("type(0x%02X)", t)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeCool:
		return "cool"
	case ModeDry:
		return "dry"
	case ModeHeat:
		return "heat"
	case ModeFan:
		return "fan"
	case ModeUntouched:
		return "-"
	default:
		return fmt.Sprintf("mode(0x%02X)", byte(m))
	}
}

func (f FanSpeed) String() string {
	switch f {
	case FanSpeedLow:
		return "low"
	case FanSpeedMedium:
		return "medium"
	case FanSpeedHigh:
		return "high"
	case FanSpeedAuto:
		return "auto"
	case FanSpeedUntouched:
		return "-"
	default:
		return fmt.Sprintf("fan(0x%02X)", byte(f))
	}
}

func (p Power) String() string    { return onOff(p == PowerOn, p == PowerUntouched) }
func (c Clean) String() string    { return onOff(c == CleanOn, c == CleanUntouched) }
func (h Health) String() string   { return onOff(h == HealthOn, h == HealthUntouched) }
func (s Sleep) String() string    { return onOff(s == SleepOn, s == SleepUntouched) }
func (i IFeel) String() string    { return onOff(i == IFeelOn, i == IFeelUntouched) }
func (t FanTurbo) String() string { return onOff(t == FanTurboOn, t == FanTurboUntouched) }
func (m FanMute) String() string  { return onOff(m == FanMuteOn, m == FanMuteUntouched) }
func (d Display) String() string  { return onOff(d == DisplayOn, d == DisplayUntouched) }
func (m Mildew) String() string   { return onOff(m == MildewOn, m == MildewUntouched) }

func (l LouverV) String() string {
	switch l {
	case LouverVSwing:
		return "swing"
	case LouverVOff:
		return "off"
	case LouverVUntouched:
		return "-"
	default:
		return fmt.Sprintf("louver(0x%02X)", byte(l))
	}
}

func (l LouverH) String() string {
	switch l {
	case LouverHSwing:
		return "swing"
	case LouverHOff:
		return "off"
	case LouverHUntouched:
		return "-"
	default:
		return fmt.Sprintf("louver(0x%02X)", byte(l))
	}
}

func onOff(on, untouched bool) string {
	switch {
	case untouched:
		return "-"
	case on:
		return "on"
	default:
		return "off"
	}
}

// FormatState renders a settings record on one line for logs and the
// status command.
func FormatState(s State) string {
	temp := "-"
	if s.TargetTemp >= 0 {
		temp = fmt.Sprintf("%.1f°C", s.TargetTemp)
	}
	return fmt.Sprintf(
		"power=%s mode=%s target=%s fan=%s turbo=%s mute=%s louverV=%s louverH=%s sleep=%s ifeel=%s health=%s clean=%s display=%s mildew=%s",
		s.Power, s.Mode, temp, s.FanSpeed, s.FanTurbo, s.FanMute,
		s.LouverV, s.LouverH, s.Sleep, s.IFeel, s.Health, s.Clean,
		s.Display, s.Mildew,
	)
}
