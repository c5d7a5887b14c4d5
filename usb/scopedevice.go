// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

// Package usb connects the driver core to the physical scope: device
// discovery, firmware upload into the EZ-USB controller, the vendor
// control/bulk transport, and an emulated device for running without
// hardware.
package usb

import (
	"fmt"

	"github.com/gotmc/libusb"

	"github.com/wakass/OpenHantek6022/dso"
	"github.com/wakass/OpenHantek6022/protocol"
)

const (
	// Every transfer is bounded; a parked bulk read returns within this
	// window after a disconnect or a stop request.
	defaultTimeout = 2000 // ms
	scopeInterface = 0
)

// ScopeTransport is the device seen by the acquisition layer: vendor
// control transfers for configuration and bulk reads for the sample
// stream. All calls are bounded by the implementation's timeout. The scope
// protocol never uses the wIndex field, so it is not exposed; value carries
// the RAM/EEPROM address of the 0xa0/0xa2 requests and is zero for the
// configuration requests.
type ScopeTransport interface {
	ControlWrite(code protocol.ControlCode, value uint16, p []byte) (int, error)
	ControlRead(code protocol.ControlCode, value uint16, p []byte) (int, error)
	BulkRead(p []byte) (int, error)
	Close() error
}

// ScopeDevice is a scope reached through libusb.
type ScopeDevice struct {
	Timeout          int // ms, applied to every transfer
	Model            *dso.Model
	Device           *libusb.Device
	DeviceDescriptor *libusb.DeviceDescriptor
	DeviceHandle     *libusb.DeviceHandle
	ConfigDescriptor *libusb.ConfigDescriptor
	BulkEndpoint     *libusb.EndpointDescriptor
}

// Init initializes a new libusb session/context by creating a new Context
// and returning a pointer to that Context.
func Init() (*libusb.Context, error) {
	return libusb.NewContext()
}

// OpenModel opens the first device enumerating with the model's active
// VID/PID and claims its scope interface.
func OpenModel(ctx *libusb.Context, model *dso.Model) (*ScopeDevice, error) {
	dev, dh, err := ctx.OpenDeviceWithVendorProduct(model.VendorID, model.ProductID)
	if err != nil {
		return nil, fmt.Errorf("error opening the %s: %s", model.Name, err)
	}
	return newScopeDevice(model, dev, dh)
}

func newScopeDevice(model *dso.Model, dev *libusb.Device, dh *libusb.DeviceHandle) (*ScopeDevice, error) {
	err := dh.ClaimInterface(scopeInterface)
	if err != nil {
		return nil, fmt.Errorf("error claiming the scope interface: %s", err)
	}
	scope := ScopeDevice{
		Timeout: defaultTimeout,
		Model:   model,
		Device:  dev,
	}
	scope.DeviceHandle = dh
	deviceDescriptor, err := dev.GetDeviceDescriptor()
	if err != nil {
		return nil, fmt.Errorf("error getting device descriptor: %s", err)
	}
	scope.DeviceDescriptor = deviceDescriptor
	configDescriptor, err := dev.GetActiveConfigDescriptor()
	if err != nil {
		return nil, fmt.Errorf("error getting active config descriptor: %s", err)
	}
	scope.ConfigDescriptor = configDescriptor
	// The firmware exposes a single interface with the bulk-in sample
	// endpoint as its only endpoint. The EZ-USB boot device (before the
	// upload) has no endpoints besides EP0.
	firstDescriptor := configDescriptor.SupportedInterfaces[0].InterfaceDescriptors[0]
	if len(firstDescriptor.EndpointDescriptors) > 0 {
		scope.BulkEndpoint = firstDescriptor.EndpointDescriptors[0]
	}
	return &scope, nil
}

// ControlWrite sends a vendor control transfer to the device.
func (scope *ScopeDevice) ControlWrite(code protocol.ControlCode, value uint16, p []byte) (int, error) {
	requestType := libusb.BitmapRequestType(
		libusb.HostToDevice, libusb.Vendor, libusb.DeviceRecipient)
	sent, err := scope.DeviceHandle.ControlTransfer(
		requestType, byte(code), value, 0x0, p, len(p), scope.Timeout)
	if err != nil {
		return sent, wrapTransferError(fmt.Sprintf("sending '%s'", code), err)
	}
	return sent, nil
}

// ControlRead reads the response of a vendor control transfer.
func (scope *ScopeDevice) ControlRead(code protocol.ControlCode, value uint16, p []byte) (int, error) {
	requestType := libusb.BitmapRequestType(
		libusb.DeviceToHost, libusb.Vendor, libusb.DeviceRecipient)
	received, err := scope.DeviceHandle.ControlTransfer(
		requestType, byte(code), value, 0x0, p, len(p), scope.Timeout)
	if err != nil {
		return received, wrapTransferError(fmt.Sprintf("reading '%s'", code), err)
	}
	return received, nil
}

// BulkRead fills p from the sample stream endpoint. A transfer that ends
// before p is full reports ErrShortRead together with the bytes that did
// arrive; the caller may resume into p[n:].
func (scope *ScopeDevice) BulkRead(p []byte) (int, error) {
	if scope.BulkEndpoint == nil {
		return 0, fmt.Errorf("bulk read: device has no stream endpoint, firmware not loaded")
	}
	received, err := scope.DeviceHandle.BulkTransfer(
		scope.BulkEndpoint.EndpointAddress,
		p,
		len(p),
		scope.Timeout,
	)
	if err != nil {
		return received, wrapTransferError("bulk read", err)
	}
	if received < len(p) {
		return received, fmt.Errorf("bulk read: %w: %d of %d bytes", ErrShortRead, received, len(p))
	}
	return received, nil
}

// Close releases the scope interface and closes the device handle.
func (scope *ScopeDevice) Close() error {
	err := scope.DeviceHandle.ReleaseInterface(scopeInterface)
	if err != nil {
		scope.DeviceHandle.Close()
		return fmt.Errorf("error releasing the scope interface: %s", err)
	}
	scope.DeviceHandle.Close()
	return nil
}
