// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package auxproto

import "time"

// Body byte offsets shared by the small status and the set command
// (they use the same 15-byte layout).
const (
	bTempLouverV = 2
	bLouverH     = 3
	bTempFrac    = 4
	bFanSpeed    = 5
	bFanFlags    = 6
	bModeFlags   = 7
	bPowerFlags  = 10
	bDisplay     = 12
)

// Big-status body byte offsets.
const (
	bAmbientInt  = 7
	bOutdoor     = 9
	bAmbientFrac = 23
)

// DecodeSmallStatus extracts the settings record from a small status
// body. The body must be exactly SmallStatusBodySize bytes.
func DecodeSmallStatus(body []byte) (State, error) {
	if len(body) != SmallStatusBodySize {
		return State{}, ErrBodySizeMismatch
	}
	var s State
	s.TargetTemp = 8 + float32(body[bTempLouverV]>>3)
	if body[bTempFrac]&TargetTempFracMask != 0 {
		s.TargetTemp += 0.5
	}
	s.LouverV = LouverV(body[bTempLouverV] & LouverVMask)
	s.LouverH = LouverH(body[bLouverH] & LouverHMask)
	s.FanSpeed = FanSpeed(body[bFanSpeed] & FanSpeedMask)
	s.FanTurbo = FanTurbo(body[bFanFlags] & FanTurboMask)
	s.FanMute = FanMute(body[bFanFlags] & FanMuteMask)
	s.Mode = Mode(body[bModeFlags] & ModeMask)
	s.Sleep = Sleep(body[bModeFlags] & SleepMask)
	s.IFeel = IFeel(body[bModeFlags] & IFeelMask)
	s.Power = Power(body[bPowerFlags] & PowerMask)
	s.Clean = Clean(body[bPowerFlags] & CleanMask)
	s.Health = Health(body[bPowerFlags] & HealthMask)
	s.HealthStatus = HealthStatus(body[bPowerFlags] & HealthStatusMask)
	s.Display = Display(body[bDisplay] & DisplayMask)
	s.Mildew = Mildew(body[bDisplay] & MildewMask)
	return s, nil
}

// DecodeBigStatus extracts the sensor readings from a big (or periodic)
// status body. Ambient temperature has tenth-degree resolution; the
// outdoor value is a best-effort estimate with the same bias as the
// ambient integer part.
func DecodeBigStatus(body []byte) (Ambient, error) {
	if len(body) != BigStatusBodySize {
		return Ambient{}, ErrBodySizeMismatch
	}
	var a Ambient
	a.AmbientTemp = float32(body[bAmbientInt]) - 0x20 + float32(body[bAmbientFrac])/10
	a.OutdoorTemp = float32(body[bOutdoor]) - 0x20
	return a, nil
}

// clampTargetTemp snaps a requested temperature to the device's
// supported range and half-degree grid.
func clampTargetTemp(t float32) float32 {
	if t < MinTargetTemp {
		t = MinTargetTemp
	}
	if t > MaxTargetTemp {
		t = MaxTargetTemp
	}
	// Round down to the nearest half degree.
	return float32(int(t*2)) / 2
}

// EncodeSetCommand builds a set-params command in p from the current
// small-status body and a command record. Fields left untouched in cmd
// keep their current on-wire value; everything outside the masked
// fields is carried over from cur verbatim, matching what the stock
// wifi module sends.
//
// cur must be a small-status body (use a zeroed 15-byte slice when no
// status has been seen yet).
func EncodeSetCommand(p *Packet, cur []byte, cmd State, now time.Time) error {
	if len(cur) != SmallStatusBodySize {
		return ErrBodySizeMismatch
	}
	p.ResetOutbound()
	p.SetType(TypeCommand)
	p.SetBodyLength(SetCommandBodySize)
	body := p.Body()
	copy(body, cur)
	body[0] = CmdSetParams
	body[1] = 0x01

	if cmd.TargetTemp >= 0 {
		t := clampTargetTemp(cmd.TargetTemp)
		whole := byte(int(t) - 8)
		body[bTempLouverV] = body[bTempLouverV]&^byte(TargetTempIntMask) | whole<<3
		if t != float32(int(t)) {
			body[bTempFrac] |= TargetTempFracMask
		} else {
			body[bTempFrac] &^= byte(TargetTempFracMask)
		}
	}
	if cmd.LouverV != LouverVUntouched {
		body[bTempLouverV] = body[bTempLouverV]&^byte(LouverVMask) | byte(cmd.LouverV)
	}
	if cmd.LouverH != LouverHUntouched {
		body[bLouverH] = body[bLouverH]&^byte(LouverHMask) | byte(cmd.LouverH)
	}
	if cmd.FanSpeed != FanSpeedUntouched {
		body[bFanSpeed] = body[bFanSpeed]&^byte(FanSpeedMask) | byte(cmd.FanSpeed)
	}
	if cmd.FanTurbo != FanTurboUntouched {
		body[bFanFlags] = body[bFanFlags]&^byte(FanTurboMask) | byte(cmd.FanTurbo)
	}
	if cmd.FanMute != FanMuteUntouched {
		body[bFanFlags] = body[bFanFlags]&^byte(FanMuteMask) | byte(cmd.FanMute)
	}
	if cmd.Mode != ModeUntouched {
		body[bModeFlags] = body[bModeFlags]&^byte(ModeMask) | byte(cmd.Mode)
	}
	if cmd.Sleep != SleepUntouched {
		body[bModeFlags] = body[bModeFlags]&^byte(SleepMask) | byte(cmd.Sleep)
	}
	if cmd.IFeel != IFeelUntouched {
		body[bModeFlags] = body[bModeFlags]&^byte(IFeelMask) | byte(cmd.IFeel)
	}
	if cmd.Power != PowerUntouched {
		body[bPowerFlags] = body[bPowerFlags]&^byte(PowerMask) | byte(cmd.Power)
	}
	if cmd.Clean != CleanUntouched {
		body[bPowerFlags] = body[bPowerFlags]&^byte(CleanMask) | byte(cmd.Clean)
	}
	if cmd.Health != HealthUntouched {
		body[bPowerFlags] = body[bPowerFlags]&^byte(HealthMask) | byte(cmd.Health)
	}
	if cmd.HealthStatus != HealthStatusUntouched {
		body[bPowerFlags] = body[bPowerFlags]&^byte(HealthStatusMask) | byte(cmd.HealthStatus)
	}
	if cmd.Display != DisplayUntouched {
		body[bDisplay] = body[bDisplay]&^byte(DisplayMask) | byte(cmd.Display)
	}
	if cmd.Mildew != MildewUntouched {
		body[bDisplay] = body[bDisplay]&^byte(MildewMask) | byte(cmd.Mildew)
	}

	p.Finalize(now)
	return nil
}

// VerifySetAck reports whether ack acknowledges the given set command.
// The conditioner echoes the command's checksum in body bytes 2 and 3
// of its acknowledgement.
func VerifySetAck(ack, sent *Packet) bool {
	if ack.BodyLength() != SetAckBodySize {
		return false
	}
	body := ack.Body()
	if len(body) < 4 || body[0] != 0x01 {
		return false
	}
	hi, lo := sent.ChecksumBytes()
	return body[2] == hi && body[3] == lo
}
