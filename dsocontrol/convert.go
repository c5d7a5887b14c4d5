// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package dsocontrol

import (
	"github.com/wakass/OpenHantek6022/dso"
)

// The ADC stream is unreliable right after the start command while the
// frontend settles; this many bytes at the head of every captured buffer
// are thrown away before de-interleaving.
const rawHeadDrop = 2048 + 480

// RawBuffer is one acquisition cycle of interleaved sample bytes together
// with the configuration it was captured under. It is handed from the
// acquisition goroutine to the conversion goroutine and not touched by the
// producer afterwards.
type RawBuffer struct {
	Data     []byte
	Channels int

	// Rate is the sample rate table entry the capture ran at; its
	// Downsampling drives the oversampling decimation.
	Rate dso.FixedSampleRate

	// GainIndex selects the gain step per channel at capture time.
	GainIndex []int

	// DropHead bytes at the start of Data are settle garbage.
	DropHead int

	TriggerMode dso.TriggerMode
}

// CalibratedSamples is the converted output of one cycle: per-channel
// voltages and the effective time step. Consumers own it exclusively, the
// raw buffer it came from is already released.
type CalibratedSamples struct {
	// Voltage[channel][n] in volts.
	Voltage [][]float64

	// Interval is the time between consecutive output samples, derived
	// from the effective rate after downsampling.
	Interval float64

	TriggerMode dso.TriggerMode

	// TriggerPosition is the sample index of the first trigger event,
	// annotated by downstream processing. Negative means none found.
	TriggerPosition int
}

// ConvertRawToSamples turns one raw capture into calibrated voltages:
// drop the settle head, de-interleave, average away the oversampling, then
// scale with the gain table and the calibration record.
//
// With downsampling k, every k consecutive raw samples of a channel fold
// into one output sample, so a channel with n raw samples yields n/k
// output samples and a trailing remainder is dropped. k = 1 is a pure
// de-interleave.
func ConvertRawToSamples(raw *RawBuffer, spec *dso.ControlSpecification, cal *Calibration) *CalibratedSamples {
	data := raw.Data
	if raw.DropHead > 0 {
		if raw.DropHead >= len(data) {
			data = nil
		} else {
			data = data[raw.DropHead:]
		}
	}
	channels := raw.Channels
	if channels < 1 {
		channels = 1
	}
	k := int(raw.Rate.Downsampling)
	if k < 1 {
		k = 1
	}
	perChannel := len(data) / channels
	out := perChannel / k

	result := &CalibratedSamples{
		Voltage:         make([][]float64, channels),
		Interval:        1.0 / raw.Rate.Rate,
		TriggerMode:     raw.TriggerMode,
		TriggerPosition: -1,
	}
	for ch := 0; ch < channels; ch++ {
		gainIndex := 0
		if ch < len(raw.GainIndex) {
			gainIndex = raw.GainIndex[ch]
		}
		offset := cal.OffsetFor(ch, gainIndex, raw.Rate.RawRate())
		gain := cal.GainFor(ch, gainIndex)
		scale := spec.VoltageScale[ch][gainIndex]

		voltage := make([]float64, out)
		for i := 0; i < out; i++ {
			sum := 0.0
			base := i * k * channels
			for j := 0; j < k; j++ {
				sum += float64(data[base+j*channels+ch])
			}
			voltage[i] = (sum/float64(k) - offset) / scale * gain
		}
		result.Voltage[ch] = voltage
	}
	return result
}
