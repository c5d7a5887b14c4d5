// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

// Package post runs converted sample blocks through a processing chain on
// a goroutine of its own, decoupled from the acquisition pipeline. The
// chain annotates or reshapes blocks in place; a display layer registers a
// result handler at the end.
package post

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wakass/OpenHantek6022/dsocontrol"
)

// queueDepth bounds how many cycles may pile up in front of the chain.
// The feed never blocks the conversion goroutine: beyond this depth new
// blocks are dropped in favor of keeping acquisition moving.
const queueDepth = 4

// stopTimeout bounds the drain wait in Stop.
const stopTimeout = 10 * time.Second

// Processor is one stage of the chain. Stages run in registration order on
// the processing goroutine and own the block exclusively while they run.
type Processor interface {
	Process(samples *dsocontrol.CalibratedSamples)
}

// ProcessorFunc adapts a plain function to the Processor interface.
type ProcessorFunc func(samples *dsocontrol.CalibratedSamples)

// Process implements the Processor interface.
func (f ProcessorFunc) Process(samples *dsocontrol.CalibratedSamples) {
	f(samples)
}

// PostProcessing owns the processor chain and its input queue.
type PostProcessing struct {
	processors []Processor
	log        *logrus.Logger

	queue chan *dsocontrol.CalibratedSamples
	quit  chan struct{}
	done  chan struct{}

	stopOnce sync.Once

	mu      sync.Mutex
	handler func(*dsocontrol.CalibratedSamples)
	dropped uint64
}

// New builds the chain. The logger may be nil, in which case the logrus
// standard logger is used. Call Start before feeding.
func New(log *logrus.Logger, processors ...Processor) *PostProcessing {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PostProcessing{
		processors: processors,
		log:        log,
		queue:      make(chan *dsocontrol.CalibratedSamples, queueDepth),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// SetResultHandler registers the consumer of fully processed blocks. It may
// be changed while the chain runs.
func (p *PostProcessing) SetResultHandler(h func(*dsocontrol.CalibratedSamples)) {
	p.mu.Lock()
	p.handler = h
	p.mu.Unlock()
}

// Start launches the processing goroutine.
func (p *PostProcessing) Start() {
	go p.run()
}

// Feed hands one block to the chain. It never blocks: when the queue is
// full the block is dropped and counted, and after Stop it is discarded
// outright. Plug this into DsoControl.SetSampleHandler.
func (p *PostProcessing) Feed(samples *dsocontrol.CalibratedSamples) {
	select {
	case <-p.quit:
		return
	default:
	}
	select {
	case p.queue <- samples:
	default:
		p.mu.Lock()
		p.dropped++
		dropped := p.dropped
		p.mu.Unlock()
		p.log.Debugf("processing queue full, dropped %d blocks so far", dropped)
	}
}

// Dropped reports how many blocks were discarded because the chain could
// not keep up.
func (p *PostProcessing) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Stop ends the processing goroutine after it drained the blocks already
// queued. The wait is bounded; a chain still busy after the bound is
// reported as an error. Safe to call more than once.
func (p *PostProcessing) Stop() error {
	p.stopOnce.Do(func() { close(p.quit) })
	select {
	case <-p.done:
		return nil
	case <-time.After(stopTimeout):
		return fmt.Errorf("processing chain still busy after %v", stopTimeout)
	}
}

func (p *PostProcessing) run() {
	defer close(p.done)
	for {
		select {
		case <-p.quit:
			for {
				select {
				case samples := <-p.queue:
					p.process(samples)
				default:
					return
				}
			}
		case samples := <-p.queue:
			p.process(samples)
		}
	}
}

func (p *PostProcessing) process(samples *dsocontrol.CalibratedSamples) {
	for _, proc := range p.processors {
		proc.Process(samples)
	}
	p.mu.Lock()
	handler := p.handler
	p.mu.Unlock()
	if handler != nil {
		handler(samples)
	}
}
