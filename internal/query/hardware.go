// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

package query

import (
	"context"
	"os/exec"
	"strings"
)

// HardwareProbe reports whether the receiver dongle is attached to the host.
type HardwareProbe interface {
	Present(ctx context.Context) bool
}

// rtlsdrUSBID is the chipset name lsusb reports for RTL-SDR dongles.
const rtlsdrUSBID = "RTL2832U"

// USBProbe detects the receiver by enumerating USB devices with lsusb.
type USBProbe struct{}

// Present runs lsusb and looks for the RTL-SDR chipset. Any failure to
// enumerate (lsusb missing, permission trouble) reads as not present; the
// probe feeds a diagnostics field, never a control decision.
func (USBProbe) Present(ctx context.Context) bool {
	out, err := exec.CommandContext(ctx, "lsusb").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), rtlsdrUSBID)
}

// StaticProbe is a fixed-answer probe for tests.
type StaticProbe bool

// Present returns the configured answer.
func (p StaticProbe) Present(context.Context) bool {
	return bool(p)
}
