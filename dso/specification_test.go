// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package dso

import (
	"fmt"
	"testing"

	c "github.com/smartystreets/goconvey/convey"
)

// testSpec builds a small specification with easily reasoned-about tables.
func testSpec() *ControlSpecification {
	return &ControlSpecification{
		Channels: 2,
		Gain: []GainStep{
			{10, 20e-3}, {10, 50e-3}, {10, 100e-3}, {5, 200e-3},
			{2, 500e-3}, {1, 1.00}, {1, 2.00}, {1, 5.00},
		},
		VoltageScale: [][]float64{
			{1600, 640, 320, 160, 64, 32, 16, 6.4},
			{1600, 640, 320, 160, 64, 32, 16, 6.4},
		},
		Samplerate: ControlSamplerate{
			Single: ControlSamplerateLimits{Base: 1e6, Max: 8e6, RecordLengths: []uint{RecordLengthRoll}},
			Multi:  ControlSamplerateLimits{Base: 1e6, Max: 2e6, RecordLengths: []uint{RecordLengthRoll}},
		},
		FixedSampleRates: []FixedSampleRate{
			{1e6, 1, 1},
			{2e6, 8, 4},
			{8e6, 8, 1},
		},
		Couplings:    []Coupling{CouplingDC},
		CalfreqSteps: []float64{100, 1e3, 10e3, 25e3},
		SampleSize:   20000,
	}
}

func TestNearestFixedRate(t *testing.T) {
	testCases := []struct {
		request  float64
		channels int
		index    int
	}{
		{1e6, 1, 0},   // exact hit
		{2e6, 1, 1},   // exact hit on an oversampling entry
		{8e6, 1, 2},   // exact hit on the fastest entry
		{3e6, 1, 1},   // between entries, 2 MS/s is closer than 8 MS/s
		{1.5e6, 1, 0}, // midway, resolves toward the earlier entry
		{100, 1, 0},   // below the table clamps to the slowest entry
		{1e9, 1, 2},   // above the limit clamps to the fastest entry
		{8e6, 2, 1},   // multi channel limit forbids the 8 MS/s entry
		{1e9, 2, 1},   // clamped request stays within the multi limit
	}
	spec := testSpec()
	c.Convey("Given the need to pick a fixed sample rate entry", t, func() {
		for _, testCase := range testCases {
			conveyance := fmt.Sprintf(
				"When requesting %g S/s with %d channel(s)",
				testCase.request,
				testCase.channels,
			)
			c.Convey(conveyance, func() {
				expected := spec.FixedSampleRates[testCase.index]
				conveyance := fmt.Sprintf(
					"Then entry %d (%g S/s, id %d, downsampling %d) is selected",
					testCase.index,
					expected.Rate,
					expected.ID,
					expected.Downsampling,
				)
				c.Convey(conveyance, func() {
					entry, index := spec.NearestFixedRate(testCase.request, testCase.channels)
					c.So(index, c.ShouldEqual, testCase.index)
					c.So(entry, c.ShouldResemble, expected)
				})
			})
		}
	})
}

func TestNearestFixedRateNeverExceedsLimit(t *testing.T) {
	spec := testSpec()
	requests := []float64{0, 100, 1e6, 1.9e6, 2e6, 3e6, 8e6, 48e6, 1e12}
	for _, channels := range []int{1, 2} {
		max := spec.Limits(channels).Max
		for _, request := range requests {
			entry, _ := spec.NearestFixedRate(request, channels)
			if entry.Rate > max {
				t.Errorf(
					"request %g S/s on %d channel(s): selected %g S/s above limit %g",
					request, channels, entry.Rate, max,
				)
			}
		}
	}
}

func TestNearestGainStep(t *testing.T) {
	testCases := []struct {
		request float64
		index   int
	}{
		{20e-3, 0},  // exact hit on the most sensitive step
		{5.0, 7},    // exact hit on the coarsest step
		{1e-6, 0},   // below the table clamps to the first step
		{1000, 7},   // above the table clamps to the last step
		{1.5, 5},    // tie between 1 V and 2 V resolves to the earlier step
		{3.5, 6},    // tie between 2 V and 5 V resolves to the earlier step
		{0.45, 4},   // plain nearest match
		{120e-3, 2}, // plain nearest match
	}
	spec := testSpec()
	c.Convey("Given the need to pick a gain step", t, func() {
		for _, testCase := range testCases {
			conveyance := fmt.Sprintf("When requesting %g V/div", testCase.request)
			c.Convey(conveyance, func() {
				expected := spec.Gain[testCase.index]
				conveyance := fmt.Sprintf(
					"Then step %d (%g V/div, id %d) is selected",
					testCase.index,
					expected.VoltsPerDiv,
					expected.ID,
				)
				c.Convey(conveyance, func() {
					index := spec.NearestGainStep(testCase.request)
					c.So(index, c.ShouldEqual, testCase.index)
					c.So(spec.Gain[index], c.ShouldResemble, expected)
				})
			})
		}
	})
}

func TestNearestGainStepRoundTrip(t *testing.T) {
	// Requesting exactly what a step implements must select that step.
	spec := testSpec()
	for i, step := range spec.Gain {
		t.Run(fmt.Sprintf("%g V div", step.VoltsPerDiv), func(t *testing.T) {
			if got := spec.NearestGainStep(step.VoltsPerDiv); got != i {
				t.Errorf("Expected index %d, got %d", i, got)
			}
		})
	}
}

func TestNearestCalfreq(t *testing.T) {
	testCases := []struct {
		request  float64
		expected float64
	}{
		{100, 100},
		{1, 100},
		{549, 100},
		{551, 1e3},
		{24e3, 25e3},
		{1e6, 25e3},
	}
	spec := testSpec()
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("Request %g Hz", tc.request), func(t *testing.T) {
			if got := spec.NearestCalfreq(tc.request); got != tc.expected {
				t.Errorf("Expected %g Hz, got %g Hz", tc.expected, got)
			}
		})
	}
}

func TestRawRate(t *testing.T) {
	testCases := []struct {
		entry    FixedSampleRate
		expected float64
	}{
		{FixedSampleRate{1e6, 1, 1}, 1e6},
		{FixedSampleRate{2e6, 8, 4}, 8e6},
		{FixedSampleRate{10e3, 110, 1000}, 10e6},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%g S/s x%d", tc.entry.Rate, tc.entry.Downsampling), func(t *testing.T) {
			if got := tc.entry.RawRate(); got != tc.expected {
				t.Errorf("Expected %g S/s, got %g S/s", tc.expected, got)
			}
		})
	}
}

func TestHasCoupling(t *testing.T) {
	spec := testSpec()
	if !spec.HasCoupling(CouplingDC) {
		t.Error("Expected DC coupling to be supported")
	}
	if spec.HasCoupling(CouplingAC) {
		t.Error("Expected AC coupling to be unsupported")
	}
}

func TestTriggerModeFromString(t *testing.T) {
	testCases := []struct {
		given    string
		expected TriggerMode
		ok       bool
	}{
		{"auto", TriggerModeAuto, true},
		{"normal", TriggerModeNormal, true},
		{"single", TriggerModeSingle, true},
		{"roll", TriggerModeRoll, true},
		{"bogus", TriggerModeAuto, false},
	}
	for _, tc := range testCases {
		t.Run(tc.given, func(t *testing.T) {
			mode := TriggerModeAuto
			err := mode.SetMode(tc.given)
			if tc.ok && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("Expected an error for an unknown mode")
			}
			if tc.ok && mode != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, mode)
			}
		})
	}
}
