// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

//go:build !linux

package dsocontrol

import (
	"runtime"

	"github.com/sirupsen/logrus"
)

// lockAcquisitionThread pins the acquisition goroutine to its OS thread.
// Only Linux gets realtime scheduling on top.
func lockAcquisitionThread(_ *logrus.Logger) {
	runtime.LockOSThread()
}
