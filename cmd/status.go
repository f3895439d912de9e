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

var statusWaitSeconds int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query and print the conditioner state",
	Long: `Connect to the conditioner, wait for it to ping, query its settings and
sensors, print them and exit.

The conditioner initiates contact by pinging the bus every few seconds,
so expect a short wait after startup.

Exit codes:
  0  State received
  1  Connection error or no answer from the device`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusWaitSeconds, "wait", 15, "Seconds to wait for the device before giving up")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	if err := awaitState(cond); err != nil {
		return err
	}

	s := cond.State()
	a := cond.Ambient()
	fmt.Printf("Settings: %s\n", auxproto.FormatState(s))
	fmt.Printf("Sensors:  ambient=%.1f outdoor=%.1f\n", a.AmbientTemp, a.OutdoorTemp)
	return nil
}

// awaitState ticks the engine until the startup query has delivered a
// settings report, or the wait budget runs out.
func awaitState(cond *aircon.Conditioner) error {
	deadline := time.Now().Add(time.Duration(statusWaitSeconds) * time.Second)
	for time.Now().Before(deadline) {
		cond.Tick()
		if cond.State().Power != auxproto.PowerUntouched && !cond.HasSequence() {
			return nil
		}
	}
	return fmt.Errorf("no state from the device within %ds", statusWaitSeconds)
}
