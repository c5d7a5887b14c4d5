// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package dso

// dso6022Specification builds the shared tables of the 6022 product line.
//
// HW gain selectors and voltage steps (20,50,100,200,500,1000,2000,5000 mV/div).
// The ADC covers the full screen height of 8 divs, so the scale per gain
// step is 256 counts / (8 divs * V/div).
//
// Raw rates with the custom firmware from https://github.com/Ho-Ro/Hantek6022API:
// rates below 10 MS/s run the ADC at 10/20/50 MS/s (selector 110/120/150) and
// are downsampled by averaging, which raises the effective resolution.
// 48 MS/s is unstable in 2 channel mode; the table entry exists but the
// multi channel limit keeps it from being selected there.
func dso6022Specification() *ControlSpecification {
	return &ControlSpecification{
		Channels: 2,
		Gain: []GainStep{
			{10, 20e-3}, {10, 50e-3}, {10, 100e-3}, {5, 200e-3},
			{2, 500e-3}, {1, 1.00}, {1, 2.00}, {1, 5.00},
		},
		VoltageScale: [][]float64{
			{1600, 640, 320, 160, 64, 32, 16, 6.4},
			{1600, 640, 320, 160, 64, 32, 16, 6.4},
		},
		Samplerate: ControlSamplerate{
			Single: ControlSamplerateLimits{Base: 1e6, Max: 30e6, RecordLengths: []uint{RecordLengthRoll}},
			Multi:  ControlSamplerateLimits{Base: 1e6, Max: 15e6, RecordLengths: []uint{RecordLengthRoll}},
		},
		FixedSampleRates: []FixedSampleRate{
			// rate, selector, downsampling
			{10e3, 110, 1000},
			{20e3, 110, 500},
			{50e3, 110, 200},
			{100e3, 110, 100},
			{200e3, 110, 50},
			{500e3, 110, 20},
			{1e6, 110, 10}, //  10x downsampling from 10 MS/s
			{2e6, 120, 10}, //  10x downsampling from 20 MS/s
			{5e6, 150, 10}, //  10x downsampling from 50 MS/s
			{10e6, 10, 1},
			{12e6, 12, 1},
			{15e6, 15, 1},
			{24e6, 24, 1},
			{30e6, 30, 1},
			{48e6, 48, 1},
		},
		Couplings:            []Coupling{CouplingDC},
		TriggerModes:         []TriggerMode{TriggerModeAuto, TriggerModeNormal, TriggerModeSingle, TriggerModeRoll},
		CalfreqSteps:         []float64{32, 50, 60, 100, 200, 500, 1e3, 2e3, 5e3, 10e3, 20e3, 50e3, 100e3},
		HasACCoupling:        false, // DC only without the AC hardware mod
		HasCalibrationEEPROM: true,
		FixedUSBInLength:     0,
		SampleSize:           20000,
	}
}

// Hantek DSO-6022BE, the baseline of the family.
func newDSO6022BE() *Model {
	return &Model{
		ID:                  ModelDSO6022BE,
		VendorID:            0x04b5,
		ProductID:           0x6022,
		VendorIDNoFirmware:  0x04b4,
		ProductIDNoFirmware: 0x6022,
		FirmwareVersion:     0x0208,
		Firmware:            "dso6022be",
		Name:                "DSO-6022BE",
		Spec:                dso6022Specification(),
	}
}

// Hantek DSO-6022BL, the BE frontend plus a logic analyzer that this driver
// does not expose. Scope behavior is identical to the BE.
func newDSO6022BL() *Model {
	return &Model{
		ID:                  ModelDSO6022BL,
		VendorID:            0x04b5,
		ProductID:           0x602a,
		VendorIDNoFirmware:  0x04b4,
		ProductIDNoFirmware: 0x602a,
		FirmwareVersion:     0x0208,
		Firmware:            "dso6022bl",
		Name:                "DSO-6022BL",
		Spec:                dso6022Specification(),
	}
}

// Voltcraft/Darkwire/... DSO-2020 clones enumerate with their own
// no-firmware PID but run the 6022BE firmware and reappear as a BE. The old
// firmware streams fixed 16 KiB bulk chunks.
func newDSO2020() *Model {
	spec := dso6022Specification()
	spec.FixedUSBInLength = 16384
	return &Model{
		ID:                  ModelDSO2020,
		VendorID:            0x04b5,
		ProductID:           0x6022,
		VendorIDNoFirmware:  0x04b4,
		ProductIDNoFirmware: 0x2020,
		FirmwareVersion:     0x0202,
		Firmware:            "dso6022be",
		Name:                "DSO-2020",
		Spec:                spec,
	}
}
