// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/gleba/auxac/pkg/auxproto"
)

var captureDump bool

var captureCmd = &cobra.Command{
	Use:   "capture <file>",
	Short: "Record bus traffic to a file, or replay a recording",
	Long: `Record decoded bus frames into a CBOR stream for later analysis, or
replay a recorded file in the monitor's output format.

Recording is passive like the monitor: the port is never written to.
Each record carries the receive timestamp, the raw frame bytes and the
checksum verdict, so captures round-trip losslessly.

Examples:
  auxctl capture -p /dev/ttyUSB0 session.cbor
  auxctl capture --dump session.cbor`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().BoolVar(&captureDump, "dump", false, "Replay a recorded file instead of capturing")
	rootCmd.AddCommand(captureCmd)
}

// captureRecord is one frame in the capture stream.
type captureRecord struct {
	Time  time.Time `cbor:"1,keyasint"`
	Raw   []byte    `cbor:"2,keyasint"`
	Valid bool      `cbor:"3,keyasint"`
}

func runCapture(cmd *cobra.Command, args []string) error {
	if captureDump {
		return dumpCapture(args[0])
	}
	return recordCapture(args[0])
}

func recordCapture(path string) error {
	bus, connInfo, err := openBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer file.Close()

	fmt.Printf("Auxctl - Bus Capture\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Recording to: %s\n", path)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	enc := cbor.NewEncoder(file)
	framer := auxproto.NewFramer(bus)
	frames := 0
	for {
		now := time.Now()
		pkt, err := framer.Poll(now)
		if err != nil {
			var fe *auxproto.FrameError
			if errors.As(err, &fe) {
				logger.Warn().
					Err(fe.Err).
					Int("discarded", len(fe.Discarded)).
					Msg("framing recovered")
				continue
			}
			return fmt.Errorf("read error: %w", err)
		}
		if pkt == nil {
			continue
		}

		rec := captureRecord{
			Time:  pkt.Timestamp(),
			Raw:   append([]byte(nil), pkt.Raw()...),
			Valid: auxproto.VerifyChecksum(pkt),
		}
		framer.Reset()
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write capture record: %w", err)
		}
		frames++
		fmt.Printf("\r%d frame(s) captured", frames)
	}
}

func dumpCapture(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer file.Close()

	dec := cbor.NewDecoder(file)
	for {
		var rec captureRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("corrupt capture record: %w", err)
		}
		pkt, err := auxproto.PacketFromBytes(rec.Raw)
		if err != nil {
			fmt.Printf("[%s] unparsable frame: %v\n",
				rec.Time.Format("15:04:05.000"), err)
			continue
		}
		pkt.SetTimestamp(rec.Time)
		printPacket(&pkt)
	}
}
