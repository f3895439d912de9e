// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gleba/auxac/pkg/aircon"
	"github.com/gleba/auxac/pkg/auxproto"
)

var (
	setPower   string
	setMode    string
	setTemp    float64
	setFan     string
	setTurbo   string
	setMute    string
	setLouverV string
	setLouverH string
	setDisplay string
	setHealth  string
	setSleep   string
	setIFeel   string
	setClean   string
	setMildew  string
	setWait    int
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change conditioner settings",
	Long: `Send a verified set command to the conditioner.

Only the settings named by flags are changed; everything else keeps its
current value. The exchange refreshes the device state, applies the
change, checks the acknowledgement and reads the state back.

Examples:
  auxctl set -p /dev/ttyUSB0 --power on --mode cool --temp 23.5
  auxctl set -p /dev/ttyUSB0 --fan low --sleep on
  auxctl set -p /dev/ttyUSB0 --display off`,
	RunE: runSet,
}

func init() {
	f := setCmd.Flags()
	f.StringVar(&setPower, "power", "", "Power (on, off)")
	f.StringVar(&setMode, "mode", "", "Operating mode (auto, cool, dry, heat, fan)")
	f.Float64Var(&setTemp, "temp", 0, "Target temperature in °C (16-32, half degrees)")
	f.StringVar(&setFan, "fan", "", "Fan speed (auto, low, medium, high)")
	f.StringVar(&setTurbo, "turbo", "", "Turbo fan (on, off)")
	f.StringVar(&setMute, "mute", "", "Mute fan (on, off)")
	f.StringVar(&setLouverV, "louver-v", "", "Vertical louver (swing, off)")
	f.StringVar(&setLouverH, "louver-h", "", "Horizontal louver (swing, off)")
	f.StringVar(&setDisplay, "display", "", "LED display (on, off)")
	f.StringVar(&setHealth, "health", "", "Ioniser (on, off)")
	f.StringVar(&setSleep, "sleep", "", "Sleep mode (on, off)")
	f.StringVar(&setIFeel, "ifeel", "", "I-Feel remote sensor (on, off)")
	f.StringVar(&setClean, "clean", "", "Self-clean cycle (on, off)")
	f.StringVar(&setMildew, "mildew", "", "Anti-mildew drying (on, off)")
	f.IntVar(&setWait, "wait", 20, "Seconds to wait for the exchange to finish")
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	want, err := commandFromFlags(cmd)
	if err != nil {
		return err
	}

	bus, connInfo, err := openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	fmt.Printf("Connection: %s\n", connInfo)

	cond := aircon.New(bus,
		aircon.WithLogger(logger),
		aircon.WithPollInterval(0),
	)

	deadline := time.Now().Add(time.Duration(setWait) * time.Second)

	// The conditioner speaks first; wait for its ping.
	for !cond.Connected() {
		if !time.Now().Before(deadline) {
			return fmt.Errorf("no ping from the device within %ds", setWait)
		}
		cond.Tick()
	}

	// Stacks onto the startup query if that is still running.
	if err := cond.CommandSequence(want); err != nil {
		return err
	}
	for cond.HasSequence() {
		if !time.Now().Before(deadline) {
			return fmt.Errorf("command exchange did not finish within %ds", setWait)
		}
		cond.Tick()
	}

	got := cond.State()
	if missed := unappliedFields(want, got); len(missed) > 0 {
		return fmt.Errorf("device did not apply: %v (state now: %s)",
			missed, auxproto.FormatState(got))
	}
	fmt.Printf("Settings: %s\n", auxproto.FormatState(got))
	return nil
}

// commandFromFlags builds the command record, leaving unset flags
// untouched. Errors on unknown values and on an empty command.
func commandFromFlags(cmd *cobra.Command) (auxproto.State, error) {
	want := auxproto.NewUntouchedState()

	type toggle struct {
		name  string
		value string
		on    func()
		off   func()
	}
	toggles := []toggle{
		{"power", setPower, func() { want.Power = auxproto.PowerOn }, func() { want.Power = auxproto.PowerOff }},
		{"turbo", setTurbo, func() { want.FanTurbo = auxproto.FanTurboOn }, func() { want.FanTurbo = auxproto.FanTurboOff }},
		{"mute", setMute, func() { want.FanMute = auxproto.FanMuteOn }, func() { want.FanMute = auxproto.FanMuteOff }},
		{"display", setDisplay, func() { want.Display = auxproto.DisplayOn }, func() { want.Display = auxproto.DisplayOff }},
		{"health", setHealth, func() { want.Health = auxproto.HealthOn }, func() { want.Health = auxproto.HealthOff }},
		{"sleep", setSleep, func() { want.Sleep = auxproto.SleepOn }, func() { want.Sleep = auxproto.SleepOff }},
		{"ifeel", setIFeel, func() { want.IFeel = auxproto.IFeelOn }, func() { want.IFeel = auxproto.IFeelOff }},
		{"clean", setClean, func() { want.Clean = auxproto.CleanOn }, func() { want.Clean = auxproto.CleanOff }},
		{"mildew", setMildew, func() { want.Mildew = auxproto.MildewOn }, func() { want.Mildew = auxproto.MildewOff }},
	}
	for _, t := range toggles {
		switch t.value {
		case "":
		case "on":
			t.on()
		case "off":
			t.off()
		default:
			return want, fmt.Errorf("--%s must be on or off, got %q", t.name, t.value)
		}
	}

	switch setMode {
	case "":
	case "auto":
		want.Mode = auxproto.ModeAuto
	case "cool":
		want.Mode = auxproto.ModeCool
	case "dry":
		want.Mode = auxproto.ModeDry
	case "heat":
		want.Mode = auxproto.ModeHeat
	case "fan":
		want.Mode = auxproto.ModeFan
	default:
		return want, fmt.Errorf("unknown mode %q", setMode)
	}

	switch setFan {
	case "":
	case "auto":
		want.FanSpeed = auxproto.FanSpeedAuto
	case "low":
		want.FanSpeed = auxproto.FanSpeedLow
	case "medium":
		want.FanSpeed = auxproto.FanSpeedMedium
	case "high":
		want.FanSpeed = auxproto.FanSpeedHigh
	default:
		return want, fmt.Errorf("unknown fan speed %q", setFan)
	}

	switch setLouverV {
	case "":
	case "swing":
		want.LouverV = auxproto.LouverVSwing
	case "off":
		want.LouverV = auxproto.LouverVOff
	default:
		return want, fmt.Errorf("--louver-v must be swing or off, got %q", setLouverV)
	}
	switch setLouverH {
	case "":
	case "swing":
		want.LouverH = auxproto.LouverHSwing
	case "off":
		want.LouverH = auxproto.LouverHOff
	default:
		return want, fmt.Errorf("--louver-h must be swing or off, got %q", setLouverH)
	}

	if cmd.Flags().Changed("temp") {
		if setTemp < auxproto.MinTargetTemp || setTemp > auxproto.MaxTargetTemp {
			return want, fmt.Errorf("--temp must be between %d and %d",
				auxproto.MinTargetTemp, auxproto.MaxTargetTemp)
		}
		if setTemp != float64(int(setTemp*2))/2 {
			return want, fmt.Errorf("--temp must be a whole or half degree, got %g", setTemp)
		}
		want.TargetTemp = float32(setTemp)
	}

	if want == auxproto.NewUntouchedState() {
		return want, fmt.Errorf("nothing to set, pass at least one setting flag")
	}
	return want, nil
}

// unappliedFields lists the requested settings the read-back state does
// not reflect. The conditioner silently ignores combinations it does
// not support (turbo outside cool/heat, mute outside fan mode).
func unappliedFields(want, got auxproto.State) []string {
	var missed []string
	if want.Power != auxproto.PowerUntouched && got.Power != want.Power {
		missed = append(missed, "power")
	}
	if want.Mode != auxproto.ModeUntouched && got.Mode != want.Mode {
		missed = append(missed, "mode")
	}
	if want.TargetTemp >= 0 && got.TargetTemp != want.TargetTemp {
		missed = append(missed, "temp")
	}
	if want.FanSpeed != auxproto.FanSpeedUntouched && got.FanSpeed != want.FanSpeed {
		missed = append(missed, "fan")
	}
	if want.FanTurbo != auxproto.FanTurboUntouched && got.FanTurbo != want.FanTurbo {
		missed = append(missed, "turbo")
	}
	if want.FanMute != auxproto.FanMuteUntouched && got.FanMute != want.FanMute {
		missed = append(missed, "mute")
	}
	if want.LouverV != auxproto.LouverVUntouched && got.LouverV != want.LouverV {
		missed = append(missed, "louver-v")
	}
	if want.LouverH != auxproto.LouverHUntouched && got.LouverH != want.LouverH {
		missed = append(missed, "louver-h")
	}
	if want.Display != auxproto.DisplayUntouched && got.Display != want.Display {
		missed = append(missed, "display")
	}
	if want.Health != auxproto.HealthUntouched && got.Health != want.Health {
		missed = append(missed, "health")
	}
	if want.Sleep != auxproto.SleepUntouched && got.Sleep != want.Sleep {
		missed = append(missed, "sleep")
	}
	if want.IFeel != auxproto.IFeelUntouched && got.IFeel != want.IFeel {
		missed = append(missed, "ifeel")
	}
	if want.Clean != auxproto.CleanUntouched && got.Clean != want.Clean {
		missed = append(missed, "clean")
	}
	if want.Mildew != auxproto.MildewUntouched && got.Mildew != want.Mildew {
		missed = append(missed, "mildew")
	}
	return missed
}
