// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

// Package auxproto implements the serial protocol spoken by AUX-based
// split-system air conditioners on their internal UART bus.
//
// The protocol is a point-to-point exchange of small binary packets:
// an 8-byte header, an optional body of up to 24 bytes, and a 16-bit
// ones'-complement checksum. This package provides the checksum codec,
// the packet buffer, the body codecs for every known packet shape, the
// byte-stream receive framer, and packet formatting helpers.
package auxproto

import "time"

// Packet geometry
const (
	HeaderSize   = 8
	MaxBodySize  = 24
	ChecksumSize = 2
	BufferSize   = HeaderSize + MaxBodySize + ChecksumSize // 34
)

// Framing bytes and header values
const (
	StartByte = 0xBB

	// Originator flag values (header byte 3)
	OriginController = 0x80 // packets sent by us (the wifi module slot)
	OriginDevice     = 0x00 // packets sent by the conditioner
)

// Packet types (header byte 2)
const (
	TypePing    = 0x01 // sent by the conditioner every ~3s, must be answered
	TypeCommand = 0x06 // controller-to-device request
	TypeInfo    = 0x07 // status/acknowledgement from the device
	TypeInit    = 0x09 // seen when HEALTH is pressed 8 times; ignored
	TypeDiag    = 0x0B // stray diagnostic traffic; ignored
)

// Command codes embedded at body byte 1 of command and info packets
const (
	CmdStatusBig      = 0x21
	CmdStatusSmall    = 0x11
	CmdStatusPeriodic = 0x2C // unsolicited, same layout as the big status
	CmdSetParams      = 0x01
)

// Body sizes per packet shape
const (
	PingAnswerBodySize    = 8
	StatusRequestBodySize = 2
	SmallStatusBodySize   = 15
	BigStatusBodySize     = 24
	SetCommandBodySize    = 15 // same layout as the small status
	SetAckBodySize        = 4
)

// Receive deadline for one packet. Calibrated for bulk UART reads at
// 4800 baud: ~3ms per byte, 34 bytes max, with headroom.
const FrameTimeout = 150 * time.Millisecond

// Target temperature limits enforced by the conditioner itself,
// degrees Celsius. Only whole and half degrees are representable.
const (
	MinTargetTemp = 16
	MaxTargetTemp = 32
)

// Untouched is the sentinel for "leave this field as it is" in a
// command record. It never occurs as a masked field value on the wire.
const Untouched = 0xFF

// Small-status / set-command bit masks, by body byte
const (
	TargetTempIntMask  = 0b11111000 // byte 2, integer part biased by 8
	LouverVMask        = 0b00000111 // byte 2
	LouverHMask        = 0b11100000 // byte 3
	TargetTempFracMask = 0b10000000 // byte 4, adds 0.5 degree
	FanSpeedMask       = 0b11100000 // byte 5
	FanTurboMask       = 0b01000000 // byte 6
	FanMuteMask        = 0b10000000 // byte 6
	ModeMask           = 0b11100000 // byte 7
	SleepMask          = 0b00000100 // byte 7
	IFeelMask          = 0b00001000 // byte 7
	PowerMask          = 0b00100000 // byte 10
	CleanMask          = 0b00000100 // byte 10
	HealthMask         = 0b00000010 // byte 10
	HealthStatusMask   = 0b00000001 // byte 10
	DisplayMask        = 0b00010000 // byte 12
	MildewMask         = 0b00001000 // byte 12
)

// Power switches the conditioner on or off.
type Power uint8

const (
	PowerOff       Power = 0x00
	PowerOn        Power = 0x20
	PowerUntouched Power = Untouched
)

// Clean is the self-clean cycle, meant to run while powered off.
type Clean uint8

const (
	CleanOff       Clean = 0x00
	CleanOn        Clean = 0x04
	CleanUntouched Clean = Untouched
)

// Health drives the ioniser, on models that have one.
type Health uint8

const (
	HealthOff       Health = 0x00
	HealthOn        Health = 0x02
	HealthUntouched Health = Untouched
)

// HealthStatus is reported alongside Health; possibly an error flag.
type HealthStatus uint8

const (
	HealthStatusOff       HealthStatus = 0x00
	HealthStatusOn        HealthStatus = 0x01
	HealthStatusUntouched HealthStatus = Untouched
)

// Mode is the primary operating mode.
type Mode uint8

const (
	ModeAuto      Mode = 0x00
	ModeCool      Mode = 0x20
	ModeDry       Mode = 0x40
	ModeHeat      Mode = 0x80
	ModeFan       Mode = 0xC0
	ModeUntouched Mode = Untouched
)

// Sleep is the night mode; combines with cool and heat only and the
// conditioner drops it on its own after 7 hours.
type Sleep uint8

const (
	SleepOff       Sleep = 0x00
	SleepOn        Sleep = 0x04
	SleepUntouched Sleep = Untouched
)

// IFeel regulates to the temperature sensor in the IR remote instead
// of the indoor unit sensor.
type IFeel uint8

const (
	IFeelOff       IFeel = 0x00
	IFeelOn        IFeel = 0x08
	IFeelUntouched IFeel = Untouched
)

// LouverV is the vertical louver position. The protocol reserves bit
// patterns for fixed positions, but stock remotes only use swing/off.
type LouverV uint8

const (
	LouverVSwing     LouverV = 0x00
	LouverVOff       LouverV = 0x07
	LouverVUntouched LouverV = Untouched
)

// LouverH is the horizontal louver position.
type LouverH uint8

const (
	LouverHSwing     LouverH = 0x00
	LouverHOff       LouverH = 0xE0
	LouverHUntouched LouverH = Untouched
)

// FanSpeed is the fan speed setting.
type FanSpeed uint8

const (
	FanSpeedHigh      FanSpeed = 0x20
	FanSpeedMedium    FanSpeed = 0x40
	FanSpeedLow       FanSpeed = 0x60
	FanSpeedAuto      FanSpeed = 0xA0
	FanSpeedUntouched FanSpeed = Untouched
)

// FanTurbo boosts the fan; accepted in cool and heat modes only.
type FanTurbo uint8

const (
	FanTurboOff       FanTurbo = 0x00
	FanTurboOn        FanTurbo = 0x40
	FanTurboUntouched FanTurbo = Untouched
)

// FanMute quiets the fan; effective in fan mode only.
type FanMute uint8

const (
	FanMuteOff       FanMute = 0x00
	FanMuteOn        FanMute = 0x80
	FanMuteUntouched FanMute = Untouched
)

// Display controls the LED panel on the indoor unit. Note the inverted
// encoding: the set bit turns the display off.
type Display uint8

const (
	DisplayOn        Display = 0x00
	DisplayOff       Display = 0x10
	DisplayUntouched Display = Untouched
)

// Mildew is the anti-mildew heat-exchanger drying function.
type Mildew uint8

const (
	MildewOff       Mildew = 0x00
	MildewOn        Mildew = 0x08
	MildewUntouched Mildew = Untouched
)
