// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package dsocontrol

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wakass/OpenHantek6022/dso"
	"github.com/wakass/OpenHantek6022/protocol"
	"github.com/wakass/OpenHantek6022/usb"
)

// Calibration EEPROM layout of the 6022 family. One 0x50 byte window at
// address 0x08 holds three blocks:
//
//	0x00  32 bytes  raw offsets, [2 speeds][8 gain steps][2 channels]
//	0x20  32 bytes  fractional offset parts, same order, (v-128)/250
//	0x40  16 bytes  gain correction, [8 gain steps][2 channels], 1+(v-128)/500
//
// 0x00 and 0xff mark unwritten cells. The second speed block applies to raw
// rates of 30 MS/s and above.
const (
	eepromCalibrationAddress = 0x08
	eepromOffsetBlock        = 0x00
	eepromFracBlock          = 0x20
	eepromGainBlock          = 0x40
	eepromCalibrationSize    = 0x50
	eepromGainSteps          = 8
	eepromChannels           = 2

	fastRateThreshold = 30e6

	adcMidpoint = 128.0
)

// Calibration corrects the raw ADC readings per channel and gain step. The
// zero source for every cell is the identity: offset at the ADC midpoint
// and gain factor 1.
type Calibration struct {
	// Offset[channel][gainStep] in raw counts.
	Offset [][]float64
	// OffsetFast applies instead of Offset at raw rates of 30 MS/s and up.
	OffsetFast [][]float64
	// Gain[channel][gainStep] scale correction factor.
	Gain [][]float64
}

// IdentityCalibration builds the no-correction calibration for a model,
// used whenever no EEPROM or file record exists.
func IdentityCalibration(spec *dso.ControlSpecification) *Calibration {
	cal := &Calibration{
		Offset:     make([][]float64, spec.Channels),
		OffsetFast: make([][]float64, spec.Channels),
		Gain:       make([][]float64, spec.Channels),
	}
	for ch := 0; ch < spec.Channels; ch++ {
		cal.Offset[ch] = make([]float64, len(spec.Gain))
		cal.OffsetFast[ch] = make([]float64, len(spec.Gain))
		cal.Gain[ch] = make([]float64, len(spec.Gain))
		for g := range spec.Gain {
			cal.Offset[ch][g] = adcMidpoint
			cal.OffsetFast[ch][g] = adcMidpoint
			cal.Gain[ch][g] = 1.0
		}
	}
	return cal
}

// OffsetFor returns the raw-count offset for a channel and gain step at the
// given raw (pre-downsampling) rate.
func (c *Calibration) OffsetFor(channel, gainStep int, rawRate float64) float64 {
	table := c.Offset
	if rawRate >= fastRateThreshold {
		table = c.OffsetFast
	}
	if channel >= len(table) || gainStep >= len(table[channel]) {
		return adcMidpoint
	}
	return table[channel][gainStep]
}

// GainFor returns the gain correction factor for a channel and gain step.
func (c *Calibration) GainFor(channel, gainStep int) float64 {
	if channel >= len(c.Gain) || gainStep >= len(c.Gain[channel]) {
		return 1.0
	}
	return c.Gain[channel][gainStep]
}

// DecodeEEPROMCalibration interprets the calibration window read from the
// device EEPROM. Unwritten cells keep their identity values.
func DecodeEEPROMCalibration(data []byte, spec *dso.ControlSpecification) (*Calibration, error) {
	if len(data) < eepromCalibrationSize {
		return nil, fmt.Errorf("calibration window must be %d bytes, got %d", eepromCalibrationSize, len(data))
	}
	cal := IdentityCalibration(spec)
	for speed := 0; speed < 2; speed++ {
		for g := 0; g < eepromGainSteps && g < len(spec.Gain); g++ {
			for ch := 0; ch < eepromChannels && ch < spec.Channels; ch++ {
				idx := speed*eepromGainSteps*eepromChannels + g*eepromChannels + ch
				raw := data[eepromOffsetBlock+idx]
				if raw == 0x00 || raw == 0xff {
					continue
				}
				offset := float64(raw)
				if frac := data[eepromFracBlock+idx]; frac != 0x00 && frac != 0xff {
					offset += (float64(frac) - adcMidpoint) / 250
				}
				if speed == 0 {
					cal.Offset[ch][g] = offset
				} else {
					cal.OffsetFast[ch][g] = offset
				}
			}
		}
	}
	for g := 0; g < eepromGainSteps && g < len(spec.Gain); g++ {
		for ch := 0; ch < eepromChannels && ch < spec.Channels; ch++ {
			b := data[eepromGainBlock+g*eepromChannels+ch]
			if b == 0x00 || b == 0xff {
				continue
			}
			cal.Gain[ch][g] = 1.0 + (float64(b)-adcMidpoint)/500
		}
	}
	return cal, nil
}

// ReadEEPROMCalibration fetches and decodes the calibration window from a
// device. Only meaningful for models with HasCalibrationEEPROM.
func ReadEEPROMCalibration(scope usb.ScopeTransport, spec *dso.ControlSpecification) (*Calibration, error) {
	data := make([]byte, eepromCalibrationSize)
	n, err := scope.ControlRead(protocol.ControlEEPROM, eepromCalibrationAddress, data)
	if err != nil {
		return nil, fmt.Errorf("reading calibration eeprom: %w", err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("reading calibration eeprom: got %d of %d bytes", n, len(data))
	}
	return DecodeEEPROMCalibration(data, spec)
}

type calibrationFile struct {
	Channels []calibrationFileChannel `yaml:"channels"`
}

type calibrationFileChannel struct {
	Offsets     []float64 `yaml:"offsets"`
	OffsetsFast []float64 `yaml:"offsets_fast"`
	Gains       []float64 `yaml:"gains"`
}

// ParseCalibrationYAML reads a calibration document with one entry per
// channel, each carrying per-gain-step offsets (raw counts) and gain
// factors. Missing cells keep their identity values.
func ParseCalibrationYAML(data []byte, spec *dso.ControlSpecification) (*Calibration, error) {
	var file calibrationFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing calibration data: %w", err)
	}
	cal := IdentityCalibration(spec)
	for ch, entry := range file.Channels {
		if ch >= spec.Channels {
			break
		}
		for g, offset := range entry.Offsets {
			if g >= len(spec.Gain) {
				break
			}
			cal.Offset[ch][g] = offset
			cal.OffsetFast[ch][g] = offset
		}
		for g, offset := range entry.OffsetsFast {
			if g >= len(spec.Gain) {
				break
			}
			cal.OffsetFast[ch][g] = offset
		}
		for g, gain := range entry.Gains {
			if g >= len(spec.Gain) {
				break
			}
			if gain <= 0 {
				return nil, fmt.Errorf("channel %d gain step %d: factor must be positive, got %g", ch+1, g, gain)
			}
			cal.Gain[ch][g] = gain
		}
	}
	return cal, nil
}

// LoadCalibrationFile reads a YAML calibration file from disk.
func LoadCalibrationFile(path string, spec *dso.ControlSpecification) (*Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading calibration file: %w", err)
	}
	cal, err := ParseCalibrationYAML(data, spec)
	if err != nil {
		return nil, fmt.Errorf("calibration file %s: %w", path, err)
	}
	return cal, nil
}
