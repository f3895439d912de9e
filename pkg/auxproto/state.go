// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package auxproto

// State is the conditioner's reported settings, and doubles as a
// command record: fields left at their Untouched value are preserved
// on the device when the record is encoded into a set command.
//
// TargetTemp is in degrees Celsius with half-degree resolution. A
// negative TargetTemp means untouched.
type State struct {
	Power        Power
	Mode         Mode
	TargetTemp   float32
	FanSpeed     FanSpeed
	FanTurbo     FanTurbo
	FanMute      FanMute
	LouverV      LouverV
	LouverH      LouverH
	Sleep        Sleep
	IFeel        IFeel
	Health       Health
	HealthStatus HealthStatus
	Clean        Clean
	Display      Display
	Mildew       Mildew
}

// NewUntouchedState returns a command record that changes nothing.
func NewUntouchedState() State {
	return State{
		Power:        PowerUntouched,
		Mode:         ModeUntouched,
		TargetTemp:   -1,
		FanSpeed:     FanSpeedUntouched,
		FanTurbo:     FanTurboUntouched,
		FanMute:      FanMuteUntouched,
		LouverV:      LouverVUntouched,
		LouverH:      LouverHUntouched,
		Sleep:        SleepUntouched,
		IFeel:        IFeelUntouched,
		Health:       HealthUntouched,
		HealthStatus: HealthStatusUntouched,
		Clean:        CleanUntouched,
		Display:      DisplayUntouched,
		Mildew:       MildewUntouched,
	}
}

// Ambient holds the sensor readings carried only by the big status
// packet. OutdoorTemp is a best-effort estimate; the conditioner's
// own encoding for it has never been confirmed.
type Ambient struct {
	AmbientTemp float32
	OutdoorTemp float32
}
