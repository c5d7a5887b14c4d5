// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package dsocontrol

import (
	"sync"

	"github.com/wakass/OpenHantek6022/dso"
)

// dirtyFlag marks which configuration axes changed since the device last
// saw them; only those commands are re-sent at the next Configuring pass.
type dirtyFlag uint

const (
	dirtyChannels dirtyFlag = 1 << iota
	dirtyCoupling
	dirtyGainCH1
	dirtyGainCH2
	dirtySamplerate
	dirtyCalfreq

	dirtyAll = dirtyChannels | dirtyCoupling | dirtyGainCH1 | dirtyGainCH2 |
		dirtySamplerate | dirtyCalfreq
)

// dirtyGain returns the flag of one channel's gain axis.
func dirtyGain(channel int) dirtyFlag {
	return dirtyGainCH1 << uint(channel)
}

// settings is the desired device configuration. The acquisition goroutine
// works on snapshots taken at the Configuring boundary, so a change landing
// mid-cycle affects the next cycle, never the running one.
type settings struct {
	channels    int
	coupling    []dso.Coupling
	gainIndex   []int
	rateIndex   int
	triggerMode dso.TriggerMode
	calfreq     float64
	running     bool
}

func (s settings) clone() settings {
	out := s
	out.coupling = append([]dso.Coupling(nil), s.coupling...)
	out.gainIndex = append([]int(nil), s.gainIndex...)
	return out
}

// settingsStore hands configuration changes from any goroutine to the
// acquisition goroutine. Every axis starts dirty so the first cycle
// configures the device completely.
type settingsStore struct {
	mu     sync.Mutex
	s      settings
	dirty  dirtyFlag
	notify chan struct{}
}

func newSettingsStore(spec *dso.ControlSpecification) *settingsStore {
	s := settings{
		channels:    spec.Channels,
		coupling:    make([]dso.Coupling, spec.Channels),
		gainIndex:   make([]int, spec.Channels),
		triggerMode: dso.TriggerModeAuto,
		calfreq:     spec.NearestCalfreq(1e3),
	}
	for ch := range s.gainIndex {
		s.gainIndex[ch] = len(spec.Gain) - 1
	}
	_, s.rateIndex = spec.NearestFixedRate(1e6, s.channels)
	return &settingsStore{
		s:      s,
		dirty:  dirtyAll,
		notify: make(chan struct{}, 1),
	}
}

// update applies a mutation and accumulates the dirty flags it reports,
// then wakes the acquisition goroutine in case it is idle.
func (st *settingsStore) update(f func(*settings) dirtyFlag) {
	st.mu.Lock()
	st.dirty |= f(&st.s)
	st.mu.Unlock()
	st.poke()
}

// take snapshots the desired settings and hands out the accumulated dirty
// flags, clearing them. Called once per cycle at the Configuring boundary.
// When sampling is disarmed it reports false and leaves the flags intact,
// so changes made while idle are still applied at the next armed cycle.
func (st *settingsStore) take() (settings, dirtyFlag, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.s.running {
		return settings{}, 0, false
	}
	snap := st.s.clone()
	dirty := st.dirty
	st.dirty = 0
	return snap, dirty, true
}

func (st *settingsStore) poke() {
	select {
	case st.notify <- struct{}{}:
	default:
	}
}
