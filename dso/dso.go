// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

// Package dso describes the supported oscilloscope hardware: the model
// registry and the per-model control specification tables that the command
// layer and the conversion pipeline are driven by.
package dso

import (
	"fmt"
)

// Coupling selects how a channel input is coupled to the ADC.
type Coupling byte

// Available couplings. Most 6022 units are DC only; AC requires the
// hardware modification or an ISDS205B style frontend.
const (
	CouplingDC Coupling = 0x0
	CouplingAC Coupling = 0x1
)

// Couplings maps the string keys used in calibration/config files to the
// Coupling values.
var Couplings = map[string]Coupling{
	"DC": CouplingDC,
	"AC": CouplingAC,
}

var couplingStrings = map[Coupling]string{
	CouplingDC: "DC",
	CouplingAC: "AC",
}

// String implements the Stringer interface for Coupling.
func (c Coupling) String() string {
	return couplingStrings[c]
}

// TriggerMode identifies the acquisition trigger mode.
type TriggerMode byte

// Available trigger modes.
const (
	TriggerModeAuto TriggerMode = iota
	TriggerModeNormal
	TriggerModeSingle
	TriggerModeRoll
)

// TriggerModes maps a string to the actual TriggerMode.
var TriggerModes = map[string]TriggerMode{
	"auto":   TriggerModeAuto,
	"normal": TriggerModeNormal,
	"single": TriggerModeSingle,
	"roll":   TriggerModeRoll,
}

var triggerModeStrings = map[TriggerMode]string{
	TriggerModeAuto:   "auto",
	TriggerModeNormal: "normal",
	TriggerModeSingle: "single",
	TriggerModeRoll:   "roll",
}

// String implements the Stringer interface for TriggerMode.
func (t TriggerMode) String() string {
	return triggerModeStrings[t]
}

// SetMode sets the trigger mode from its string representation.
func (t *TriggerMode) SetMode(s string) error {
	got, ok := TriggerModes[s]
	if !ok {
		return fmt.Errorf("invalid string %q for TriggerMode", s)
	}
	*t = got
	return nil
}

// Slope is the edge direction used by the software trigger.
type Slope byte

// Available slopes.
const (
	SlopePositive Slope = iota
	SlopeNegative
)

var slopeStrings = map[Slope]string{
	SlopePositive: "rising",
	SlopeNegative: "falling",
}

// String implements the Stringer interface for Slope.
func (s Slope) String() string {
	return slopeStrings[s]
}
