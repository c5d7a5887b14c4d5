// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package dsocontrol

import (
	"errors"

	"github.com/wakass/OpenHantek6022/dso"
	"github.com/wakass/OpenHantek6022/protocol"
	"github.com/wakass/OpenHantek6022/usb"
)

// State is the phase the acquisition goroutine is in. The cycle runs
// Configuring, Sampling, Transferring, Converting and back; Idle is the
// disarmed resting state, Stopping and Stopped end the loop for good.
type State int32

const (
	StateIdle State = iota
	StateConfiguring
	StateSampling
	StateTransferring
	StateConverting
	StateStopping
	StateStopped
)

var stateNames = map[State]string{
	StateIdle:         "idle",
	StateConfiguring:  "configuring",
	StateSampling:     "sampling",
	StateTransferring: "transferring",
	StateConverting:   "converting",
	StateStopping:     "stopping",
	StateStopped:      "stopped",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// errStopRequested is returned inside the loop when QuitSampling fires
// mid-cycle. It is not a device failure and never reaches the error
// handler.
var errStopRequested = errors.New("stop requested")

// acquisitionLoop owns all traffic to the device. It is the only goroutine
// that touches the transport while the session runs, so no locking guards
// the USB side.
func (dc *DsoControl) acquisitionLoop() {
	defer close(dc.acqDone)
	defer dc.setState(StateStopped)

	lockAcquisitionThread(dc.log)

	wasRunning := false
	for {
		select {
		case <-dc.quit:
			dc.stopDevice()
			return
		default:
		}

		snap, dirty, armed := dc.store.take()
		if !armed {
			if wasRunning {
				dc.sendStop()
				wasRunning = false
			}
			dc.setState(StateIdle)
			select {
			case <-dc.quit:
				dc.stopDevice()
				return
			case <-dc.store.notify:
			}
			continue
		}
		wasRunning = true

		dc.setState(StateConfiguring)
		if err := dc.applyConfiguration(snap, dirty); err != nil {
			dc.failAndStop("configuration", err)
			return
		}

		// The stream is restarted every cycle: the first bytes after a
		// start are garbage, and restarting pins the garbage to a known
		// position so the converter can drop it.
		dc.setState(StateSampling)
		dc.commands.Run.SetRunning(true)
		if err := dc.sendCommand(dc.commands.Run); err != nil {
			dc.failAndStop("start sampling", err)
			return
		}

		dc.setState(StateTransferring)
		raw, err := dc.transfer(snap)
		if err != nil {
			if errors.Is(err, errStopRequested) {
				dc.stopDevice()
				return
			}
			dc.failAndStop("bulk transfer", err)
			return
		}

		dc.setState(StateConverting)
		select {
		case dc.rawc <- raw:
		case <-dc.quit:
			dc.stopDevice()
			return
		}

		// Single mode disarms after one full cycle; EnableSampling(true)
		// re-arms.
		if snap.triggerMode == dso.TriggerModeSingle {
			dc.store.update(func(s *settings) dirtyFlag {
				s.running = false
				return 0
			})
		}
	}
}

// applyConfiguration sends the commands whose settings changed since the
// last cycle, in a fixed order ending just before the start command. Models
// without a coupling axis simply have no command to send for it.
func (dc *DsoControl) applyConfiguration(snap settings, dirty dirtyFlag) error {
	if dirty&dirtyChannels != 0 {
		dc.commands.NumChannels.SetCount(snap.channels)
		if err := dc.sendCommand(dc.commands.NumChannels); err != nil {
			return err
		}
	}
	if dirty&dirtyCoupling != 0 && dc.commands.Coupling != nil {
		for ch, coupling := range snap.coupling {
			dc.commands.Coupling.SetCoupling(ch, coupling)
		}
		if err := dc.sendCommand(dc.commands.Coupling); err != nil {
			return err
		}
	}
	for ch := range snap.gainIndex {
		if dirty&dirtyGain(ch) == 0 || ch >= len(dc.commands.Gain) {
			continue
		}
		dc.commands.Gain[ch].SetID(dc.spec.Gain[snap.gainIndex[ch]].ID)
		if err := dc.sendCommand(dc.commands.Gain[ch]); err != nil {
			return err
		}
	}
	if dirty&dirtySamplerate != 0 {
		dc.commands.Samplerate.SetID(dc.spec.FixedSampleRates[snap.rateIndex].ID)
		if err := dc.sendCommand(dc.commands.Samplerate); err != nil {
			return err
		}
	}
	if dirty&dirtyCalfreq != 0 && dc.commands.CalFreq != nil {
		dc.commands.CalFreq.SetFrequency(snap.calfreq)
		if err := dc.sendCommand(dc.commands.CalFreq); err != nil {
			return err
		}
	}
	return nil
}

// sendCommand writes one control command, retrying timeouts within the
// retry budget. A disconnect is never retried.
func (dc *DsoControl) sendCommand(cmd protocol.Command) error {
	var err error
	for attempt := 0; attempt < commandRetries; attempt++ {
		_, err = dc.scope.ControlWrite(cmd.Code(), 0, cmd.Payload())
		if err == nil {
			return nil
		}
		if errors.Is(err, usb.ErrDisconnected) {
			return err
		}
		dc.log.Debugf("control command %s failed, retrying: %v", cmd.Code(), err)
	}
	return err
}

// bufferSize returns how many raw bytes one cycle reads. Models with a
// fixed USB packet length stream that; everything else reads enough raw
// samples to decimate down to the full record plus the head garbage.
func (dc *DsoControl) bufferSize(snap settings) int {
	if dc.spec.FixedUSBInLength > 0 {
		return int(dc.spec.FixedUSBInLength)
	}
	rate := dc.spec.FixedSampleRates[snap.rateIndex]
	return snap.channels*int(dc.spec.SampleSize)*int(rate.Downsampling) + rawHeadDrop
}

// transfer reads one cycle's raw buffer from the bulk endpoint. Short
// reads resume where they left off and timeouts retry, both within the
// retry budget; a disconnect or an exhausted budget ends the session.
func (dc *DsoControl) transfer(snap settings) (*RawBuffer, error) {
	data := make([]byte, dc.bufferSize(snap))
	filled := 0
	var err error
	for attempt := 0; attempt < commandRetries; attempt++ {
		var n int
		n, err = dc.scope.BulkRead(data[filled:])
		filled += n
		if err == nil && filled == len(data) {
			return dc.newRawBuffer(snap, data), nil
		}
		select {
		case <-dc.quit:
			return nil, errStopRequested
		default:
		}
		if errors.Is(err, usb.ErrDisconnected) {
			return nil, err
		}
		if err != nil && !errors.Is(err, usb.ErrShortRead) && !errors.Is(err, usb.ErrTimeout) {
			return nil, err
		}
		dc.log.Debugf("bulk read incomplete at %d of %d bytes: %v", filled, len(data), err)
	}
	if err == nil {
		err = usb.ErrShortRead
	}
	return nil, err
}

func (dc *DsoControl) newRawBuffer(snap settings, data []byte) *RawBuffer {
	return &RawBuffer{
		Data:        data,
		Channels:    snap.channels,
		Rate:        dc.spec.FixedSampleRates[snap.rateIndex],
		GainIndex:   append([]int(nil), snap.gainIndex...),
		DropHead:    rawHeadDrop,
		TriggerMode: snap.triggerMode,
	}
}

// sendStop halts the ADC stream, best effort. The device may be gone
// already, so a failure here is only worth a debug line.
func (dc *DsoControl) sendStop() {
	dc.commands.Run.SetRunning(false)
	if _, err := dc.scope.ControlWrite(dc.commands.Run.Code(), 0, dc.commands.Run.Payload()); err != nil {
		dc.log.Debugf("stop command failed: %v", err)
	}
}

// stopDevice ends the loop for good.
func (dc *DsoControl) stopDevice() {
	dc.setState(StateStopping)
	dc.sendStop()
}

// failAndStop reports a fatal communication error and ends the loop.
func (dc *DsoControl) failAndStop(op string, err error) {
	dc.fatal(op, err)
	dc.stopDevice()
}

// conversionLoop turns raw buffers into calibrated samples and hands them
// to the sample handler. It ends when the raw channel is closed during
// shutdown.
func (dc *DsoControl) conversionLoop() {
	defer close(dc.convDone)
	for raw := range dc.rawc {
		samples := ConvertRawToSamples(raw, dc.spec, dc.cal)
		if dc.sampleHandler != nil {
			dc.sampleHandler(samples)
		}
	}
}
