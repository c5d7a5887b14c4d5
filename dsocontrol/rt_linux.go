// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

//go:build linux

package dsocontrol

import (
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// acquisitionPriority is the SCHED_FIFO priority of the acquisition
// thread. The ADC stream has no flow control, so losing the CPU for too
// long loses samples.
const acquisitionPriority = 9

// lockAcquisitionThread pins the acquisition goroutine to its OS thread
// and requests realtime scheduling for it. Realtime scheduling usually
// needs elevated privileges; failing to get it is logged and otherwise
// ignored.
func lockAcquisitionThread(log *logrus.Logger) {
	runtime.LockOSThread()
	attr := &unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_FIFO,
		Priority: acquisitionPriority,
	}
	if err := unix.SchedSetAttr(0, attr, 0); err != nil {
		log.Debugf("realtime scheduling not available: %v", err)
	}
}
