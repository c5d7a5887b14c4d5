// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package dso

// The demo model backs the emulated device. It never matches a USB id, so
// enumeration cannot pick it up by accident; it has to be requested through
// Registry.DemoModel.
func newDemo() *Model {
	spec := dso6022Specification()
	spec.HasCalibrationEEPROM = false
	return &Model{
		ID:       ModelDemo,
		Name:     "Demo scope",
		Firmware: "",
		Spec:     spec,
	}
}
