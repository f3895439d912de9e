// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gleba/auxac/pkg/auxproto"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Passively decode bus traffic",
	Long: `Continuously decode and display conditioner bus packets as they arrive.

The port is only read from, never written to, so this is safe to run on
a tap between the conditioner and its stock wifi module. Each packet is
printed with a timestamp, its direction (inferred from the originator
flag) and the raw frame; checksum failures are flagged.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	bus, connInfo, err := openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	fmt.Printf("Auxctl - Bus Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	framer := auxproto.NewFramer(bus)
	for {
		now := time.Now()
		pkt, err := framer.Poll(now)
		if err != nil {
			var fe *auxproto.FrameError
			if errors.As(err, &fe) {
				fmt.Printf("[%s] framing: %v, %d byte(s) discarded\n",
					now.Format("15:04:05.000"), fe.Err, len(fe.Discarded))
				continue
			}
			return fmt.Errorf("read error: %w", err)
		}
		if pkt == nil {
			continue
		}

		printPacket(pkt)
		framer.Reset()
	}
}

// printPacket renders one decoded frame for the monitor and capture
// dump views.
func printPacket(p *auxproto.Packet) {
	dir := auxproto.DirInbound
	if p.Origin() == auxproto.OriginController {
		dir = auxproto.DirOutbound
	}
	mark := " "
	if !auxproto.VerifyChecksum(p) {
		mark = "!"
	}
	fmt.Printf("[%s]%s %-7s %s\n",
		p.Timestamp().Format("15:04:05.000"),
		mark,
		auxproto.FormatType(p.Type()),
		auxproto.FormatPacket(p, dir))
}
