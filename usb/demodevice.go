// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package usb

import (
	"fmt"
	"math"
	"time"

	"github.com/wakass/OpenHantek6022/dso"
	"github.com/wakass/OpenHantek6022/protocol"
)

// Demo signal shapes: a sine on channel 1 and the calibration square on
// channel 2, both around the ADC midpoint.
const (
	demoSineFrequency = 1e3 // Hz
	demoSineAmplitude = 0.5 // V
	demoSquareLevel   = 0.5 // V above/below midpoint
	demoMidpoint      = 128
)

// DemoDevice emulates a scope behind the ScopeTransport interface. It
// decodes the configuration control writes it receives and synthesizes a
// matching interleaved sample stream, paced to the configured raw rate so a
// consumer sees hardware-like cycle timing. Like a real transport it is
// driven from a single goroutine.
type DemoDevice struct {
	Timeout int // ms
	Model   *dso.Model

	channels  int
	rateIndex int
	gainIndex []int
	calfreq   float64
	running   bool

	generated uint64 // raw samples produced per channel, carries the phase
}

// NewDemoDevice builds an emulated scope for the given model, usually the
// registry's demo model.
func NewDemoDevice(model *dso.Model) *DemoDevice {
	spec := model.Spec
	d := &DemoDevice{
		Timeout:   defaultTimeout,
		Model:     model,
		channels:  spec.Channels,
		gainIndex: make([]int, spec.Channels),
		calfreq:   1e3,
	}
	for ch := range d.gainIndex {
		d.gainIndex[ch] = len(spec.Gain) - 1
	}
	return d
}

// ControlWrite decodes the configuration requests the way the firmware
// would. Unknown requests are accepted and ignored.
func (d *DemoDevice) ControlWrite(code protocol.ControlCode, value uint16, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	switch code {
	case protocol.ControlSetNumChannels:
		count := int(p[0])
		if count >= 1 && count <= d.Model.Spec.Channels {
			d.channels = count
		}
	case protocol.ControlSetGainCH1:
		d.setGain(0, p[0])
	case protocol.ControlSetGainCH2:
		d.setGain(1, p[0])
	case protocol.ControlSetSamplerate:
		for i, entry := range d.Model.Spec.FixedSampleRates {
			if entry.ID == p[0] {
				d.rateIndex = i
				break
			}
		}
	case protocol.ControlSetCalFreq:
		if p[0] > 100 {
			d.calfreq = float64(p[0]-100) * 10
		} else {
			d.calfreq = float64(p[0]) * 1e3
		}
	case protocol.ControlStartSampling:
		d.running = p[0] != 0
	}
	return len(p), nil
}

// The hardware selector only switches the coarse frontend relay, so ids
// repeat across gain steps; the first match fixes the emulated scale.
func (d *DemoDevice) setGain(channel int, id uint8) {
	if channel >= len(d.gainIndex) {
		return
	}
	for i, step := range d.Model.Spec.Gain {
		if step.ID == id {
			d.gainIndex[channel] = i
			return
		}
	}
}

// ControlRead answers EEPROM and RAM reads with zeroes, the same as a
// factory-fresh device without calibration data.
func (d *DemoDevice) ControlRead(code protocol.ControlCode, value uint16, p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// BulkRead synthesizes one interleaved chunk of the raw stream. When the
// stream is stopped it behaves like the silent hardware endpoint and times
// out.
func (d *DemoDevice) BulkRead(p []byte) (int, error) {
	if !d.running {
		time.Sleep(time.Duration(d.Timeout) * time.Millisecond)
		return 0, fmt.Errorf("bulk read: %w: stream not started", ErrTimeout)
	}
	spec := d.Model.Spec
	rawRate := spec.FixedSampleRates[d.rateIndex].RawRate()
	perChannel := len(p) / d.channels
	for i := 0; i < perChannel; i++ {
		t := float64(d.generated+uint64(i)) / rawRate
		for ch := 0; ch < d.channels; ch++ {
			var volts float64
			if ch == 0 {
				volts = demoSineAmplitude * math.Sin(2*math.Pi*demoSineFrequency*t)
			} else {
				volts = demoSquareLevel
				if math.Mod(t*d.calfreq, 1.0) >= 0.5 {
					volts = -demoSquareLevel
				}
			}
			scale := spec.VoltageScale[ch][d.gainIndex[ch]]
			p[i*d.channels+ch] = clampByte(demoMidpoint + volts*scale)
		}
	}
	// Trailing bytes that do not hold a full interleaved group repeat the
	// midpoint; real record sizes are always a channel multiple.
	for i := perChannel * d.channels; i < len(p); i++ {
		p[i] = demoMidpoint
	}
	d.generated += uint64(perChannel)
	d.pace(perChannel, rawRate)
	return len(p), nil
}

// pace sleeps for the time the hardware would need to produce the chunk,
// bounded by the transfer timeout.
func (d *DemoDevice) pace(samples int, rawRate float64) {
	duration := time.Duration(float64(samples) / rawRate * float64(time.Second))
	limit := time.Duration(d.Timeout) * time.Millisecond
	if duration > limit {
		duration = limit
	}
	time.Sleep(duration)
}

// Close implements the Closer part of the transport.
func (d *DemoDevice) Close() error {
	d.running = false
	return nil
}

func clampByte(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return byte(math.Round(v))
}
