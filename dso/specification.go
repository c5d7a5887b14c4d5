// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package dso

import "math"

// RecordLengthRoll marks a record length entry that stands for continuous
// (roll mode) acquisition instead of a fixed record size.
const RecordLengthRoll = math.MaxUint32

// GainStep pairs the hardware gain selector with the volts/div setting it
// implements. The Gain table of a specification is ordered by ascending
// VoltsPerDiv, most sensitive step first.
type GainStep struct {
	ID          uint8   // selector byte sent with the gain control command
	VoltsPerDiv float64 // screen scaling implemented by this step
}

// FixedSampleRate describes one entry of the sample rate table. The hardware
// always samples at Rate*Downsampling; the conversion pipeline averages
// Downsampling consecutive raw samples into one output sample (oversampling
// for noise reduction), so the effective output rate is Rate.
type FixedSampleRate struct {
	Rate         float64 // effective samples/s after downsampling
	ID           uint8   // selector byte sent with the sample rate command
	Downsampling uint    // raw samples averaged per output sample, >= 1
}

// RawRate returns the rate the ADC actually runs at for this entry.
func (f FixedSampleRate) RawRate() float64 {
	return f.Rate * float64(f.Downsampling)
}

// ControlSamplerateLimits bounds the valid sample rates for one channel
// configuration.
type ControlSamplerateLimits struct {
	Base          float64
	Max           float64
	RecordLengths []uint
}

// ControlSamplerate holds the limits for single and multi channel mode.
type ControlSamplerate struct {
	Single ControlSamplerateLimits
	Multi  ControlSamplerateLimits
}

// ControlSpecification is the immutable per-model descriptor. It is built
// once when the model registry is created and never mutated afterwards;
// every layer (commands, state machine, conversion) reads from it.
type ControlSpecification struct {
	Channels int

	// Gain steps ordered by ascending volts/div. VoltageScale carries the
	// matching ADC counts per volt for every channel and gain step, so
	// len(VoltageScale[ch]) == len(Gain) must hold for each channel.
	Gain         []GainStep
	VoltageScale [][]float64

	Samplerate ControlSamplerate

	// FixedSampleRates is ordered by ascending Rate. Entries whose Rate
	// exceeds the single/multi limit exist in the table (the firmware
	// supports them) but are never selected in that mode.
	FixedSampleRates []FixedSampleRate

	Couplings    []Coupling
	TriggerModes []TriggerMode
	CalfreqSteps []float64

	HasACCoupling        bool
	HasCalibrationEEPROM bool

	// FixedUSBInLength forces every bulk transfer to this many bytes.
	// Zero means the transfer size is derived from channel count, record
	// length and downsampling.
	FixedUSBInLength uint

	// SampleSize is the net record length (samples per channel and cycle)
	// used when the record length setting is RecordLengthRoll.
	SampleSize uint
}

// Limits returns the sample rate limits for the given channel count.
func (s *ControlSpecification) Limits(channels int) *ControlSamplerateLimits {
	if channels > 1 {
		return &s.Samplerate.Multi
	}
	return &s.Samplerate.Single
}

// NearestGainStep returns the index of the gain step whose volts/div is
// closest to the request. Ties resolve toward the earlier, more sensitive
// step; requests outside the table clamp to the nearest boundary.
func (s *ControlSpecification) NearestGainStep(voltsPerDiv float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, step := range s.Gain {
		dist := math.Abs(step.VoltsPerDiv - voltsPerDiv)
		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}

// NearestFixedRate returns the table entry whose effective rate is closest
// to the request, together with its index. The request is clamped to the
// limit for the given channel count and entries above that limit are never
// selected, so the result rate cannot exceed the limit. Ties resolve toward
// the earlier entry of the ascending table.
func (s *ControlSpecification) NearestFixedRate(rate float64, channels int) (FixedSampleRate, int) {
	max := s.Limits(channels).Max
	if rate > max {
		rate = max
	}
	best := 0
	bestDist := math.Inf(1)
	for i, entry := range s.FixedSampleRates {
		if entry.Rate > max {
			continue
		}
		dist := math.Abs(entry.Rate - rate)
		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return s.FixedSampleRates[best], best
}

// HasCoupling reports whether the model supports the given coupling.
func (s *ControlSpecification) HasCoupling(c Coupling) bool {
	for _, supported := range s.Couplings {
		if supported == c {
			return true
		}
	}
	return false
}

// NearestCalfreq returns the calibration output frequency supported by the
// firmware that is closest to the request.
func (s *ControlSpecification) NearestCalfreq(freq float64) float64 {
	best := s.CalfreqSteps[0]
	bestDist := math.Inf(1)
	for _, step := range s.CalfreqSteps {
		dist := math.Abs(step - freq)
		if dist < bestDist {
			best = step
			bestDist = dist
		}
	}
	return best
}
