// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package dso

// Instrustar ISDS205B with the openhantek firmware from
// https://github.com/wakass/isds205b-firmware. Unlike the 6022 family the
// frontend has relay switched AC coupling and the ADC scale differs per
// gain range, so the voltage scale table is measured, not derived.
func newISDS205B() *Model {
	return &Model{
		ID:                  ModelISDS205B,
		VendorID:            0x1d50,
		ProductID:           0x608e,
		VendorIDNoFirmware:  0xd4a2,
		ProductIDNoFirmware: 0x5661,
		FirmwareVersion:     0x0005,
		Firmware:            "isds205b",
		Name:                "ISDS-205B",
		Spec: &ControlSpecification{
			Channels: 2,
			Gain: []GainStep{
				{10, 20e-3}, {10, 50e-3}, {10, 100e-3}, {5, 200e-3},
				{2, 500e-3}, {1, 1.00}, {1, 2.00}, {1, 5.00},
			},
			VoltageScale: [][]float64{
				{1276, 1276, 1276, 90, 37, 21.5, 21.5, 21.5},
				{1276, 1276, 1276, 90, 37, 21.5, 21.5, 21.5},
			},
			Samplerate: ControlSamplerate{
				Single: ControlSamplerateLimits{Base: 1e6, Max: 30e6, RecordLengths: []uint{RecordLengthRoll}},
				Multi:  ControlSamplerateLimits{Base: 1e6, Max: 15e6, RecordLengths: []uint{RecordLengthRoll}},
			},
			FixedSampleRates: []FixedSampleRate{
				{100e3, 10, 1},
				{200e3, 20, 1},
				{500e3, 50, 1},
				{1e6, 1, 1},
				{2e6, 8, 4}, // ADC at 8 MS/s, averaged down by 4
				{4e6, 4, 1},
				{7e6, 24, 3},
				{8e6, 8, 1},
				{16e6, 16, 1},
				{24e6, 24, 1},
				{30e6, 30, 1},
				{48e6, 48, 1},
			},
			Couplings:            []Coupling{CouplingDC, CouplingAC},
			TriggerModes:         []TriggerMode{TriggerModeAuto, TriggerModeNormal, TriggerModeSingle, TriggerModeRoll},
			CalfreqSteps:         []float64{100, 1e3, 10e3, 25e3},
			HasACCoupling:        true,
			HasCalibrationEEPROM: false,
			FixedUSBInLength:     0,
			SampleSize:           20000,
		},
	}
}
