// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package dso

// ModelID identifies a product line.
type ModelID int

// Supported product lines.
const (
	ModelDSO6022BE ModelID = iota
	ModelDSO6022BL
	ModelDSO2020
	ModelISDS205B
	ModelDemo
)

// Model identifies one hardware variant together with its control
// specification. The VID/PID pair of a freshly plugged device selects the
// model; devices that enumerate with the no-firmware pair first need a
// firmware upload before they reappear with the active pair.
type Model struct {
	ID ModelID

	VendorID            uint16
	ProductID           uint16
	VendorIDNoFirmware  uint16
	ProductIDNoFirmware uint16

	FirmwareVersion uint16
	Firmware        string // base name of the firmware image
	Name            string // name shown to the user

	Spec *ControlSpecification
}

// MatchesActive reports whether vid/pid identify this model with firmware
// already loaded. Vendor id zero is reserved and never matches, which keeps
// the demo model out of enumeration.
func (m *Model) MatchesActive(vid, pid uint16) bool {
	return m.VendorID != 0 && m.VendorID == vid && m.ProductID == pid
}

// MatchesNoFirmware reports whether vid/pid identify this model in its
// firmware-less power-on state.
func (m *Model) MatchesNoFirmware(vid, pid uint16) bool {
	return m.VendorIDNoFirmware != 0 && m.VendorIDNoFirmware == vid && m.ProductIDNoFirmware == pid
}

// Registry holds all supported models. It is populated once by NewRegistry
// at process start; models and their specifications are read-only afterwards.
type Registry struct {
	models []*Model
}

// NewRegistry builds the registry of supported hardware. Keeping this an
// explicit constructor (instead of package init side effects) pins the
// registration order and gives the caller ownership of the table.
func NewRegistry() *Registry {
	r := &Registry{}
	r.add(newDSO6022BE())
	r.add(newDSO6022BL())
	r.add(newDSO2020())
	r.add(newISDS205B())
	r.add(newDemo())
	return r
}

func (r *Registry) add(m *Model) {
	r.models = append(r.models, m)
}

// AllModels returns the registered models in registration order.
func (r *Registry) AllModels() []*Model {
	models := make([]*Model, len(r.models))
	copy(models, r.models)
	return models
}

// FindModelByVidPid returns the model matching the given USB identifiers,
// in active or no-firmware state. Active matches win when a pair is reused
// across states.
func (r *Registry) FindModelByVidPid(vid, pid uint16) (*Model, bool) {
	for _, m := range r.models {
		if m.MatchesActive(vid, pid) {
			return m, true
		}
	}
	for _, m := range r.models {
		if m.MatchesNoFirmware(vid, pid) {
			return m, true
		}
	}
	return nil, false
}

// DemoModel returns the hardware-less model used without a scope attached.
func (r *Registry) DemoModel() *Model {
	for _, m := range r.models {
		if m.ID == ModelDemo {
			return m
		}
	}
	return nil
}
