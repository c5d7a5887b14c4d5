// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package post

import (
	"sync"

	"github.com/wakass/OpenHantek6022/dso"
	"github.com/wakass/OpenHantek6022/dsocontrol"
)

// EdgeTrigger is the software trigger of the 6022 family: the hardware has
// none, so each converted block is scanned for the first level crossing
// and the position is annotated for the display to align on.
type EdgeTrigger struct {
	mu     sync.Mutex
	source int
	level  float64
	slope  dso.Slope
}

// NewEdgeTrigger builds a trigger on the given zero-based source channel.
func NewEdgeTrigger(source int, level float64, slope dso.Slope) *EdgeTrigger {
	return &EdgeTrigger{source: source, level: level, slope: slope}
}

// SetSource selects the channel the trigger watches.
func (t *EdgeTrigger) SetSource(channel int) {
	t.mu.Lock()
	t.source = channel
	t.mu.Unlock()
}

// SetLevel sets the trigger level in volts.
func (t *EdgeTrigger) SetLevel(level float64) {
	t.mu.Lock()
	t.level = level
	t.mu.Unlock()
}

// SetSlope selects the edge direction.
func (t *EdgeTrigger) SetSlope(slope dso.Slope) {
	t.mu.Lock()
	t.slope = slope
	t.mu.Unlock()
}

// Process implements the Processor interface. Roll mode never waits for an
// edge; auto mode falls back to the block start when no edge is found;
// normal and single modes leave the block unaligned in that case.
func (t *EdgeTrigger) Process(samples *dsocontrol.CalibratedSamples) {
	if samples.TriggerMode == dso.TriggerModeRoll {
		samples.TriggerPosition = 0
		return
	}

	t.mu.Lock()
	source, level, slope := t.source, t.level, t.slope
	t.mu.Unlock()

	position := -1
	if source >= 0 && source < len(samples.Voltage) {
		voltage := samples.Voltage[source]
		for i := 1; i < len(voltage); i++ {
			rising := voltage[i-1] < level && voltage[i] >= level
			falling := voltage[i-1] > level && voltage[i] <= level
			if (slope == dso.SlopePositive && rising) || (slope == dso.SlopeNegative && falling) {
				position = i
				break
			}
		}
	}
	if position < 0 && samples.TriggerMode == dso.TriggerModeAuto {
		position = 0
	}
	samples.TriggerPosition = position
}
