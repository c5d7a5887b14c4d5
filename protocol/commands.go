// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package protocol

import (
	"math"

	"github.com/wakass/OpenHantek6022/dso"
)

// Command is one configuration axis of the device. A command object is
// mutated in place through its typed setter when the user changes the
// setting and rebuilds its payload on demand; the acquisition loop decides
// when to send it.
type Command interface {
	Code() ControlCode
	Payload() []byte
}

// GainCommand selects the frontend gain of one channel. Channel 0 uses
// request 0xe0, channel 1 uses 0xe1; the payload is the hardware selector
// byte from the model's gain table.
type GainCommand struct {
	channel int
	id      uint8
}

// NewGainCommand builds the gain command for the given zero-based channel.
func NewGainCommand(channel int, id uint8) *GainCommand {
	return &GainCommand{channel: channel, id: id}
}

// SetID selects the hardware gain.
func (g *GainCommand) SetID(id uint8) {
	g.id = id
}

// Code implements the Command interface for GainCommand.
func (g *GainCommand) Code() ControlCode {
	if g.channel == 0 {
		return ControlSetGainCH1
	}
	return ControlSetGainCH2
}

// Payload implements the Command interface for GainCommand.
func (g *GainCommand) Payload() []byte {
	return []byte{g.id}
}

// SamplerateCommand selects an entry of the fixed sample rate table by its
// hardware selector byte.
type SamplerateCommand struct {
	id uint8
}

// NewSamplerateCommand builds the sample rate command.
func NewSamplerateCommand(id uint8) *SamplerateCommand {
	return &SamplerateCommand{id: id}
}

// SetID selects the sample rate table entry.
func (s *SamplerateCommand) SetID(id uint8) {
	s.id = id
}

// Code implements the Command interface for SamplerateCommand.
func (s *SamplerateCommand) Code() ControlCode {
	return ControlSetSamplerate
}

// Payload implements the Command interface for SamplerateCommand.
func (s *SamplerateCommand) Payload() []byte {
	return []byte{s.id}
}

// RunCommand starts (payload 0x01) or stops (payload 0x00) the ADC stream.
type RunCommand struct {
	running bool
}

// NewRunCommand builds the start/stop command in the stopped state.
func NewRunCommand() *RunCommand {
	return &RunCommand{}
}

// SetRunning selects between starting and stopping the stream.
func (r *RunCommand) SetRunning(running bool) {
	r.running = running
}

// Code implements the Command interface for RunCommand.
func (r *RunCommand) Code() ControlCode {
	return ControlStartSampling
}

// Payload implements the Command interface for RunCommand.
func (r *RunCommand) Payload() []byte {
	if r.running {
		return []byte{0x01}
	}
	return []byte{0x00}
}

// ChannelsCommand selects how many channels the ADC interleaves into the
// bulk stream.
type ChannelsCommand struct {
	count int
}

// NewChannelsCommand builds the channel count command.
func NewChannelsCommand(count int) *ChannelsCommand {
	return &ChannelsCommand{count: count}
}

// SetCount selects the number of active channels.
func (c *ChannelsCommand) SetCount(count int) {
	c.count = count
}

// Code implements the Command interface for ChannelsCommand.
func (c *ChannelsCommand) Code() ControlCode {
	return ControlSetNumChannels
}

// Payload implements the Command interface for ChannelsCommand.
func (c *ChannelsCommand) Payload() []byte {
	return []byte{byte(c.count)}
}

// CouplingCommand switches the input relays of models with an AC frontend.
// The payload is a bitmask, bit n set selects AC coupling for channel n.
type CouplingCommand struct {
	couplings []dso.Coupling
}

// NewCouplingCommand builds the coupling command with all channels DC.
func NewCouplingCommand(channels int) *CouplingCommand {
	return &CouplingCommand{couplings: make([]dso.Coupling, channels)}
}

// SetCoupling selects the coupling of one channel. Channels outside the
// mask are ignored.
func (c *CouplingCommand) SetCoupling(channel int, coupling dso.Coupling) {
	if channel < 0 || channel >= len(c.couplings) {
		return
	}
	c.couplings[channel] = coupling
}

// Code implements the Command interface for CouplingCommand.
func (c *CouplingCommand) Code() ControlCode {
	return ControlSetCoupling
}

// Payload implements the Command interface for CouplingCommand.
func (c *CouplingCommand) Payload() []byte {
	var mask byte
	for ch, coupling := range c.couplings {
		if coupling == dso.CouplingAC {
			mask |= 1 << uint(ch)
		}
	}
	return []byte{mask}
}

// CalFreqCommand sets the calibration output frequency. The firmware takes
// one byte: the value in kHz for 1 kHz and above, or 100 plus the value in
// units of 10 Hz below 1 kHz (50 Hz -> 105).
type CalFreqCommand struct {
	freq float64
}

// NewCalFreqCommand builds the calibration frequency command.
func NewCalFreqCommand(freq float64) *CalFreqCommand {
	return &CalFreqCommand{freq: freq}
}

// SetFrequency selects the calibration output frequency in Hz. The caller
// is expected to pass a value from the model's calfreq table.
func (c *CalFreqCommand) SetFrequency(freq float64) {
	c.freq = freq
}

// Code implements the Command interface for CalFreqCommand.
func (c *CalFreqCommand) Code() ControlCode {
	return ControlSetCalFreq
}

// Payload implements the Command interface for CalFreqCommand.
func (c *CalFreqCommand) Payload() []byte {
	if c.freq < 1e3 {
		return []byte{byte(100 + math.Round(c.freq/10))}
	}
	return []byte{byte(math.Round(c.freq / 1e3))}
}

// CommandSet is the per-model collection of configuration commands. Axes
// the model does not implement stay nil; applying a change to a missing
// axis is accepted and does nothing.
type CommandSet struct {
	NumChannels *ChannelsCommand
	Coupling    *CouplingCommand
	Gain        []*GainCommand
	Samplerate  *SamplerateCommand
	Run         *RunCommand
	CalFreq     *CalFreqCommand
}

// ApplyRequirements builds the command set the model supports, initialized
// to safe power-on defaults: all channels active at the coarsest gain, the
// slowest sample rate, DC coupling, stream stopped.
func ApplyRequirements(model *dso.Model) *CommandSet {
	spec := model.Spec
	set := &CommandSet{
		NumChannels: NewChannelsCommand(spec.Channels),
		Samplerate:  NewSamplerateCommand(spec.FixedSampleRates[0].ID),
		Run:         NewRunCommand(),
		CalFreq:     NewCalFreqCommand(spec.NearestCalfreq(1e3)),
	}
	for ch := 0; ch < spec.Channels; ch++ {
		set.Gain = append(set.Gain, NewGainCommand(ch, spec.Gain[len(spec.Gain)-1].ID))
	}
	if spec.HasACCoupling {
		set.Coupling = NewCouplingCommand(spec.Channels)
	}
	return set
}
