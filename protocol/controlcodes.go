// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

// Package protocol defines the vendor control requests understood by the
// 6022 family firmware and the typed command objects that build their
// payloads. Opcode meaning is stable across the family; which commands a
// model carries is decided per model by ApplyRequirements.
package protocol

// ControlCode is the bRequest byte of a vendor control transfer.
type ControlCode byte

const (
	// EZ-USB vendor requests handled by the Cypress boot ROM
	ControlFirmware ControlCode = 0xa0
	ControlEEPROM   ControlCode = 0xa2
	// Scope configuration requests handled by the loaded firmware
	ControlSetGainCH1     ControlCode = 0xe0
	ControlSetGainCH2     ControlCode = 0xe1
	ControlSetSamplerate  ControlCode = 0xe2
	ControlStartSampling  ControlCode = 0xe3
	ControlSetNumChannels ControlCode = 0xe4
	ControlSetCoupling    ControlCode = 0xe5
	ControlSetCalFreq     ControlCode = 0xe6
)

var controlCodes = map[ControlCode]string{
	ControlFirmware:       "Read/write firmware RAM",
	ControlEEPROM:         "Read/write EEPROM",
	ControlSetGainCH1:     "Set channel 1 gain",
	ControlSetGainCH2:     "Set channel 2 gain",
	ControlSetSamplerate:  "Set sample rate",
	ControlStartSampling:  "Start/stop sampling",
	ControlSetNumChannels: "Set active channel count",
	ControlSetCoupling:    "Set channel coupling",
	ControlSetCalFreq:     "Set calibration output frequency",
}

func (c ControlCode) String() string {
	return controlCodes[c]
}
