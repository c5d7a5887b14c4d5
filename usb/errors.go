// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package usb

import (
	"errors"
	"fmt"
	"strings"
)

// Transport error taxonomy. The acquisition loop matches these with
// errors.Is to decide between retrying and aborting the session.
var (
	ErrDisconnected = errors.New("device disconnected")
	ErrTimeout      = errors.New("transfer timed out")
	ErrStall        = errors.New("endpoint stalled")
	ErrShortRead    = errors.New("short read")
)

// wrapTransferError maps a libusb failure onto the taxonomy by the wording
// of its message. The binding reports the canonical libusb error names, but
// matching substrings keeps this stable across binding versions. Unmatched
// errors pass through wrapped without a sentinel.
func wrapTransferError(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no device"),
		strings.Contains(msg, "no such device"),
		strings.Contains(msg, "no_device"),
		strings.Contains(msg, "disconnect"):
		return fmt.Errorf("%s: %w: %v", op, ErrDisconnected, err)
	case strings.Contains(msg, "timed out"),
		strings.Contains(msg, "timeout"):
		return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
	case strings.Contains(msg, "pipe"),
		strings.Contains(msg, "stall"):
		return fmt.Errorf("%s: %w: %v", op, ErrStall, err)
	}
	return fmt.Errorf("%s: %v", op, err)
}
