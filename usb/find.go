// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package usb

import (
	"fmt"

	"github.com/gotmc/libusb"
	"github.com/sirupsen/logrus"

	"github.com/wakass/OpenHantek6022/dso"
)

// FoundDevice is one supported scope spotted on the bus. NeedsFirmware is
// set when the device enumerated with its no-firmware ids, or when the
// loaded firmware is older than the version shipped for the model; either
// way the device wants UploadFirmware before it is usable.
type FoundDevice struct {
	Model         *dso.Model
	Device        *libusb.Device
	VendorID      uint16
	ProductID     uint16
	NeedsFirmware bool
}

// FindSupportedDevices walks the USB device list and reports every device
// the registry knows, in bus enumeration order.
func FindSupportedDevices(ctx *libusb.Context, registry *dso.Registry, log *logrus.Logger) ([]FoundDevice, error) {
	usbDevices, err := ctx.GetDeviceList()
	if err != nil {
		return nil, fmt.Errorf("error getting USB device list: %s", err)
	}
	var found []FoundDevice
	for _, usbDevice := range usbDevices {
		descriptor, err := usbDevice.GetDeviceDescriptor()
		if err != nil {
			return found, fmt.Errorf("error getting device descriptor: %s", err)
		}
		model, ok := registry.FindModelByVidPid(descriptor.VendorID, descriptor.ProductID)
		if !ok {
			continue
		}
		needsFirmware := model.MatchesNoFirmware(descriptor.VendorID, descriptor.ProductID)
		if !needsFirmware && uint16(descriptor.DeviceReleaseNumber) != model.FirmwareVersion {
			// Running an outdated image; upload the shipped one.
			needsFirmware = true
		}
		if needsFirmware {
			log.Infof("Found %s at %04x:%04x, needs firmware %q",
				model.Name, descriptor.VendorID, descriptor.ProductID, model.Firmware)
		} else {
			log.Infof("Found %s at %04x:%04x, ready",
				model.Name, descriptor.VendorID, descriptor.ProductID)
		}
		found = append(found, FoundDevice{
			Model:         model,
			Device:        usbDevice,
			VendorID:      descriptor.VendorID,
			ProductID:     descriptor.ProductID,
			NeedsFirmware: needsFirmware,
		})
	}
	return found, nil
}

// Open opens the found device and claims its scope interface.
func (f FoundDevice) Open() (*ScopeDevice, error) {
	dh, err := f.Device.Open()
	if err != nil {
		return nil, fmt.Errorf("error getting device handle: %s", err)
	}
	return newScopeDevice(f.Model, f.Device, dh)
}
