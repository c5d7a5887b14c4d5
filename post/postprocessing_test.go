// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package post

import (
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wakass/OpenHantek6022/dso"
	"github.com/wakass/OpenHantek6022/dsocontrol"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sampleBlock(mode dso.TriggerMode, voltage ...[]float64) *dsocontrol.CalibratedSamples {
	return &dsocontrol.CalibratedSamples{
		Voltage:         voltage,
		Interval:        1e-6,
		TriggerMode:     mode,
		TriggerPosition: -1,
	}
}

func waitResult(t *testing.T, results <-chan *dsocontrol.CalibratedSamples) *dsocontrol.CalibratedSamples {
	t.Helper()
	select {
	case s := <-results:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a processed block")
		return nil
	}
}

func TestChainRunsInRegistrationOrder(t *testing.T) {
	var mu sync.Mutex
	var trace []string
	stage := func(name string) ProcessorFunc {
		return func(*dsocontrol.CalibratedSamples) {
			mu.Lock()
			trace = append(trace, name)
			mu.Unlock()
		}
	}

	pp := New(testLogger(), stage("trigger"), stage("filter"))
	results := make(chan *dsocontrol.CalibratedSamples, 1)
	pp.SetResultHandler(func(s *dsocontrol.CalibratedSamples) { results <- s })
	pp.Start()

	block := sampleBlock(dso.TriggerModeAuto, []float64{0, 1})
	pp.Feed(block)

	if got := waitResult(t, results); got != block {
		t.Error("result handler received a different block than was fed")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(trace) != 2 || trace[0] != "trigger" || trace[1] != "filter" {
		t.Errorf("stages ran as %v, want registration order", trace)
	}

	if err := pp.Stop(); err != nil {
		t.Errorf("Stop returned %v", err)
	}
}

func TestStopDrainsQueuedBlocks(t *testing.T) {
	var processed atomic.Int32
	pp := New(testLogger(), ProcessorFunc(func(*dsocontrol.CalibratedSamples) {
		processed.Add(1)
	}))

	for i := 0; i < 3; i++ {
		pp.Feed(sampleBlock(dso.TriggerModeAuto, []float64{0}))
	}
	pp.Start()

	if err := pp.Stop(); err != nil {
		t.Fatalf("Stop returned %v", err)
	}
	if got := processed.Load(); got != 3 {
		t.Errorf("%d blocks were processed before stopping, want all 3", got)
	}
	if err := pp.Stop(); err != nil {
		t.Errorf("second Stop returned %v, want nil", err)
	}
}

func TestFeedDropsWhenSaturated(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	var processed atomic.Int32
	pp := New(testLogger(), ProcessorFunc(func(*dsocontrol.CalibratedSamples) {
		once.Do(func() { close(entered) })
		<-gate
		processed.Add(1)
	}))
	pp.Start()

	pp.Feed(sampleBlock(dso.TriggerModeAuto, []float64{0}))
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("the chain never picked up the first block")
	}

	// The goroutine is stuck in the chain, so these fill the queue and
	// the rest must be dropped.
	for i := 0; i < queueDepth+2; i++ {
		pp.Feed(sampleBlock(dso.TriggerModeAuto, []float64{0}))
	}
	if got := pp.Dropped(); got != 2 {
		t.Errorf("%d blocks were dropped, want 2", got)
	}

	close(gate)
	if err := pp.Stop(); err != nil {
		t.Fatalf("Stop returned %v", err)
	}
	if got := processed.Load(); got != int32(queueDepth)+1 {
		t.Errorf("%d blocks were processed, want %d", got, queueDepth+1)
	}
}

func TestFeedAfterStopIsDiscarded(t *testing.T) {
	var processed atomic.Int32
	pp := New(testLogger(), ProcessorFunc(func(*dsocontrol.CalibratedSamples) {
		processed.Add(1)
	}))
	pp.Start()
	if err := pp.Stop(); err != nil {
		t.Fatalf("Stop returned %v", err)
	}

	pp.Feed(sampleBlock(dso.TriggerModeAuto, []float64{0}))
	if got := processed.Load(); got != 0 {
		t.Errorf("%d blocks were processed after Stop, want none", got)
	}
	if got := pp.Dropped(); got != 0 {
		t.Errorf("a block fed after Stop was counted as dropped")
	}
}
