// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba
//
// Auxctl - AUX air conditioner serial controller
//
// Monitors and controls AUX-based split-system air conditioners over
// the UART bus in their wifi module slot.

package main

import (
	"os"

	"github.com/gleba/auxac/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
