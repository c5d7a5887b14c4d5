// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package usb

import (
	"errors"
	"testing"

	"github.com/wakass/OpenHantek6022/dso"
	"github.com/wakass/OpenHantek6022/protocol"
)

func newTestDemoDevice(t *testing.T) *DemoDevice {
	t.Helper()
	demo := NewDemoDevice(dso.NewRegistry().DemoModel())
	demo.Timeout = 1
	return demo
}

func TestDemoDeviceTimesOutWhenStopped(t *testing.T) {
	demo := newTestDemoDevice(t)
	buf := make([]byte, 64)
	n, err := demo.BulkRead(buf)
	if n != 0 {
		t.Errorf("Expected no data, got %d bytes", n)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected a timeout, got %v", err)
	}
}

func TestDemoDeviceInterleavesBothChannels(t *testing.T) {
	demo := newTestDemoDevice(t)
	// 2 channels, 10 MS/s, coarsest gain, 100 kHz calibration square
	demo.ControlWrite(protocol.ControlSetNumChannels, 0, []byte{2})
	demo.ControlWrite(protocol.ControlSetGainCH1, 0, []byte{1})
	demo.ControlWrite(protocol.ControlSetGainCH2, 0, []byte{1})
	demo.ControlWrite(protocol.ControlSetSamplerate, 0, []byte{10})
	demo.ControlWrite(protocol.ControlSetCalFreq, 0, []byte{100})
	demo.ControlWrite(protocol.ControlStartSampling, 0, []byte{0x01})

	buf := make([]byte, 4000)
	n, err := demo.BulkRead(buf)
	if err != nil {
		t.Fatalf("Expected a full read, got %v", err)
	}
	if n != len(buf) {
		t.Fatalf("Expected %d bytes, got %d", len(buf), n)
	}
	// Channel 2 carries the square wave: exactly two levels around the
	// midpoint, both present in the 20 periods the buffer covers. Gain
	// id 1 resolves to the 1 V/div step (32 counts/V), so the 0.5 V
	// square sits at 128 +/- 16.
	levels := make(map[byte]int)
	for i := 1; i < len(buf); i += 2 {
		levels[buf[i]]++
	}
	if len(levels) != 2 {
		t.Fatalf("Expected 2 square levels on channel 2, got %d (%v)", len(levels), levels)
	}
	if levels[112] == 0 || levels[144] == 0 {
		t.Errorf("Expected levels 112 and 144 at 1 V/div, got %v", levels)
	}
	// Channel 1 carries the sine: it must move, and stay within its
	// envelope at this gain.
	distinct := make(map[byte]bool)
	for i := 0; i < len(buf); i += 2 {
		distinct[buf[i]] = true
		if buf[i] < 112 || buf[i] > 144 {
			t.Fatalf("Sample %d out of the expected sine envelope: %d", i, buf[i])
		}
	}
	if len(distinct) < 2 {
		t.Error("Expected the sine to change across the buffer")
	}
}

func TestDemoDeviceHonorsGainSelection(t *testing.T) {
	// The same time window at a more sensitive gain step must span a wider
	// raw range.
	amplitude := func(gainID byte) int {
		demo := newTestDemoDevice(t)
		demo.ControlWrite(protocol.ControlSetNumChannels, 0, []byte{1})
		demo.ControlWrite(protocol.ControlSetGainCH1, 0, []byte{gainID})
		demo.ControlWrite(protocol.ControlSetSamplerate, 0, []byte{10})
		demo.ControlWrite(protocol.ControlStartSampling, 0, []byte{0x01})
		buf := make([]byte, 200)
		if _, err := demo.BulkRead(buf); err != nil {
			t.Fatalf("Expected a full read, got %v", err)
		}
		min, max := buf[0], buf[0]
		for _, b := range buf {
			if b < min {
				min = b
			}
			if b > max {
				max = b
			}
		}
		return int(max) - int(min)
	}
	coarse := amplitude(1) // 1 V/div
	fine := amplitude(5)   // 200 mV/div
	if fine <= coarse {
		t.Errorf("Expected a wider swing at higher gain: coarse %d, fine %d", coarse, fine)
	}
}

func TestDemoDeviceSingleChannel(t *testing.T) {
	demo := newTestDemoDevice(t)
	demo.ControlWrite(protocol.ControlSetNumChannels, 0, []byte{1})
	demo.ControlWrite(protocol.ControlSetGainCH1, 0, []byte{1})
	demo.ControlWrite(protocol.ControlSetSamplerate, 0, []byte{10})
	demo.ControlWrite(protocol.ControlStartSampling, 0, []byte{0x01})
	buf := make([]byte, 100)
	if _, err := demo.BulkRead(buf); err != nil {
		t.Fatalf("Expected a full read, got %v", err)
	}
	// Single channel means no square wave bytes anywhere in the stream;
	// in this short window the 1 kHz sine barely leaves the midpoint.
	for i, b := range buf {
		if b < 126 || b > 130 {
			t.Fatalf("Byte %d outside the sine envelope: %d", i, b)
		}
	}
}

func TestDemoDeviceIgnoresUnknownRequests(t *testing.T) {
	demo := newTestDemoDevice(t)
	if _, err := demo.ControlWrite(protocol.ControlEEPROM, 0x08, []byte{0xff}); err != nil {
		t.Errorf("Expected unknown requests to be accepted, got %v", err)
	}
	if _, err := demo.ControlWrite(protocol.ControlSetCoupling, 0, []byte{0x03}); err != nil {
		t.Errorf("Expected coupling writes to be accepted, got %v", err)
	}
}

func TestDemoDeviceReadsBackZeroes(t *testing.T) {
	demo := newTestDemoDevice(t)
	buf := []byte{0xde, 0xad, 0xbe, 0xef}
	n, err := demo.ControlRead(protocol.ControlEEPROM, 0x08, buf)
	if err != nil || n != len(buf) {
		t.Fatalf("Expected a full read, got %d, %v", n, err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Errorf("Byte %d: expected 0, got %#02x", i, b)
		}
	}
}

func TestClampByte(t *testing.T) {
	testCases := []struct {
		given    float64
		expected byte
	}{
		{-5, 0},
		{0, 0},
		{127.5, 128},
		{128.4, 128},
		{255, 255},
		{300, 255},
	}
	for _, tc := range testCases {
		if got := clampByte(tc.given); got != tc.expected {
			t.Errorf("clampByte(%g): expected %d, got %d", tc.given, tc.expected, got)
		}
	}
}
