// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

// Package dsocontrol drives a Hantek 6022 family oscilloscope through its
// full acquisition cycle: configure, start, stream, convert, repeat. One
// goroutine owns all traffic to the device, a second one turns raw ADC
// bytes into calibrated voltages, and everything else talks to the pair
// through channels and a settings store.
package dsocontrol

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wakass/OpenHantek6022/dso"
	"github.com/wakass/OpenHantek6022/protocol"
	"github.com/wakass/OpenHantek6022/usb"
)

// commandRetries bounds how often a failed control write or an incomplete
// bulk read is repeated before the session is declared dead.
const commandRetries = 3

// convertShutdownTimeout bounds how long Shutdown waits for the conversion
// goroutine to drain after the acquisition goroutine has stopped.
const convertShutdownTimeout = 10 * time.Second

// CommunicationError reports that talking to the scope failed beyond
// repair. It is delivered once through the error handler; the receiver is
// expected to shut the session down.
type CommunicationError struct {
	Op  string
	Err error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("scope communication failed during %s: %v", e.Op, e.Err)
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// DsoControl owns one oscilloscope session. Construct it with New, register
// handlers, then call Start; all Set methods may be called from any
// goroutine at any time and take effect at the next acquisition cycle.
type DsoControl struct {
	scope    usb.ScopeTransport
	model    *dso.Model
	spec     *dso.ControlSpecification
	commands *protocol.CommandSet
	cal      *Calibration
	log      *logrus.Logger

	store *settingsStore

	rawc     chan *RawBuffer
	quit     chan struct{}
	quitOnce sync.Once
	acqDone  chan struct{}
	convDone chan struct{}

	state   atomic.Int32
	started atomic.Bool

	fatalOnce sync.Once

	sampleHandler func(*CalibratedSamples)
	errorHandler  func(error)
}

// New wires a control instance to an open transport. The calibration may be
// nil, in which case identity calibration is used. The logger may be nil, in
// which case the logrus standard logger is used. Nothing is sent to the
// device until Start.
func New(scope usb.ScopeTransport, model *dso.Model, cal *Calibration, log *logrus.Logger) *DsoControl {
	if cal == nil {
		cal = IdentityCalibration(model.Spec)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	dc := &DsoControl{
		scope:    scope,
		model:    model,
		spec:     model.Spec,
		commands: protocol.ApplyRequirements(model),
		cal:      cal,
		log:      log,
		store:    newSettingsStore(model.Spec),
		rawc:     make(chan *RawBuffer, 1),
		quit:     make(chan struct{}),
		acqDone:  make(chan struct{}),
		convDone: make(chan struct{}),
	}
	dc.state.Store(int32(StateIdle))
	return dc
}

// SetSampleHandler registers the consumer of calibrated sample blocks. It
// must be called before Start.
func (dc *DsoControl) SetSampleHandler(h func(*CalibratedSamples)) {
	dc.sampleHandler = h
}

// SetErrorHandler registers the receiver of the fatal communication error.
// It must be called before Start.
func (dc *DsoControl) SetErrorHandler(h func(error)) {
	dc.errorHandler = h
}

// Start launches the acquisition and conversion goroutines. Sampling stays
// off until EnableSampling(true).
func (dc *DsoControl) Start() {
	dc.log.Infof("starting acquisition for %s", dc.model.Name)
	dc.started.Store(true)
	go dc.acquisitionLoop()
	go dc.conversionLoop()
}

// EnableSampling arms or disarms the acquisition cycle. Disarming stops
// after the cycle in flight; it never interrupts a running transfer.
func (dc *DsoControl) EnableSampling(enabled bool) {
	dc.store.update(func(s *settings) dirtyFlag {
		s.running = enabled
		return 0
	})
}

// QuitSampling asks the acquisition goroutine to terminate. It is the only
// way to end the loop and is safe to call more than once.
func (dc *DsoControl) QuitSampling() {
	dc.quitOnce.Do(func() { close(dc.quit) })
}

// SetChannelCount selects how many channels the device captures. The count
// is clamped to what the model supports. Lowering the channel count can
// raise the sample rate ceiling, so the rate is re-clamped against the new
// limit.
func (dc *DsoControl) SetChannelCount(count int) {
	if count < 1 {
		count = 1
	}
	if count > dc.spec.Channels {
		count = dc.spec.Channels
	}
	dc.store.update(func(s *settings) dirtyFlag {
		if s.channels == count {
			return 0
		}
		s.channels = count
		dirty := dirtyChannels
		rate := dc.spec.FixedSampleRates[s.rateIndex].Rate
		if _, idx := dc.spec.NearestFixedRate(rate, count); idx != s.rateIndex {
			s.rateIndex = idx
			dirty |= dirtySamplerate
		}
		return dirty
	})
}

// SetGain selects the vertical gain of one channel as volts per division.
// The request is clamped to the nearest supported gain step.
func (dc *DsoControl) SetGain(channel int, voltsPerDiv float64) {
	if channel < 0 || channel >= dc.spec.Channels {
		return
	}
	idx := dc.spec.NearestGainStep(voltsPerDiv)
	dc.store.update(func(s *settings) dirtyFlag {
		if s.gainIndex[channel] == idx {
			return 0
		}
		s.gainIndex[channel] = idx
		return dirtyGain(channel)
	})
}

// SetSamplerate selects the capture rate in samples per second, clamped to
// the nearest rate the device supports at the current channel count.
func (dc *DsoControl) SetSamplerate(rate float64) {
	dc.store.update(func(s *settings) dirtyFlag {
		_, idx := dc.spec.NearestFixedRate(rate, s.channels)
		if s.rateIndex == idx {
			return 0
		}
		s.rateIndex = idx
		return dirtySamplerate
	})
}

// SetCoupling selects AC or DC input coupling for one channel. Models
// without switchable coupling accept the call and stay at DC.
func (dc *DsoControl) SetCoupling(channel int, coupling dso.Coupling) {
	if channel < 0 || channel >= dc.spec.Channels {
		return
	}
	if !dc.spec.HasCoupling(coupling) {
		return
	}
	dc.store.update(func(s *settings) dirtyFlag {
		if s.coupling[channel] == coupling {
			return 0
		}
		s.coupling[channel] = coupling
		return dirtyCoupling
	})
}

// SetTriggerMode selects how capture cycles repeat. Single mode disarms
// sampling after one completed cycle; re-arm with EnableSampling.
func (dc *DsoControl) SetTriggerMode(mode dso.TriggerMode) {
	dc.store.update(func(s *settings) dirtyFlag {
		s.triggerMode = mode
		return 0
	})
}

// SetCalFreq selects the calibration output frequency in Hz, clamped to the
// nearest step the device supports.
func (dc *DsoControl) SetCalFreq(freq float64) {
	freq = dc.spec.NearestCalfreq(freq)
	dc.store.update(func(s *settings) dirtyFlag {
		if s.calfreq == freq {
			return 0
		}
		s.calfreq = freq
		return dirtyCalfreq
	})
}

// Samplesize returns how many samples per channel one cycle captures.
func (dc *DsoControl) Samplesize() uint {
	return dc.spec.SampleSize
}

// Samplerate returns the effective capture rate in samples per second.
func (dc *DsoControl) Samplerate() float64 {
	dc.store.mu.Lock()
	defer dc.store.mu.Unlock()
	return dc.spec.FixedSampleRates[dc.store.s.rateIndex].Rate
}

// State reports which acquisition phase the control goroutine is in.
func (dc *DsoControl) State() State {
	return State(dc.state.Load())
}

func (dc *DsoControl) setState(s State) {
	dc.state.Store(int32(s))
	dc.log.Debugf("acquisition state: %s", s)
}

// ShutdownWaitBound returns how long Shutdown waits for the acquisition
// goroutine. A cycle at the slowest rates legitimately spends seconds in
// one bulk transfer, so the bound scales with the capture duration and
// never drops below ten seconds.
func (dc *DsoControl) ShutdownWaitBound() time.Duration {
	ms := 2000 * float64(dc.Samplesize()) / dc.Samplerate()
	if ms < 10000 {
		ms = 10000
	}
	return time.Duration(ms) * time.Millisecond
}

// Shutdown terminates the session: it stops the acquisition goroutine,
// drains the conversion goroutine and closes the transport, in that order.
// Each wait is bounded; the transport is closed even if a goroutine failed
// to stop in time, and every failure is reported. Call it exactly once.
func (dc *DsoControl) Shutdown() error {
	dc.QuitSampling()
	if !dc.started.Load() {
		return dc.scope.Close()
	}

	var acqErr, convErr error
	bound := dc.ShutdownWaitBound()
	select {
	case <-dc.acqDone:
		close(dc.rawc)
	case <-time.After(bound):
		acqErr = fmt.Errorf("acquisition goroutine still busy after %v", bound)
	}

	if acqErr == nil {
		select {
		case <-dc.convDone:
		case <-time.After(convertShutdownTimeout):
			convErr = fmt.Errorf("conversion goroutine still busy after %v", convertShutdownTimeout)
		}
	}

	closeErr := dc.scope.Close()
	return errors.Join(acqErr, convErr, closeErr)
}

// fatal reports an unrecoverable communication failure exactly once.
func (dc *DsoControl) fatal(op string, err error) {
	dc.fatalOnce.Do(func() {
		cerr := &CommunicationError{Op: op, Err: err}
		dc.log.Errorf("%v", cerr)
		if dc.errorHandler != nil {
			dc.errorHandler(cerr)
		}
	})
}
