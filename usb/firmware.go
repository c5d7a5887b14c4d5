// Copyright (c) 2026 The OpenHantek developers. All rights reserved.
// Project site: https://github.com/wakass/OpenHantek6022
// Use of this source code is governed by the GPL-2.0 license that
// can be found in the LICENSE file for the project.

package usb

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wakass/OpenHantek6022/protocol"
)

// The EZ-USB boot ROM implements vendor request 0xa0 as a RAM peek/poke
// with the address in wValue. Writing 1 to the CPUCS register holds the
// 8051 core in reset so the image can be written, writing 0 lets it boot.
const (
	cpucsAddress   = 0xe600
	maxUploadChunk = 64
)

// Intel-HEX record types. The 8051 address space fits in 16 bits, so the
// extended-address record types never appear in scope firmware images.
const (
	hexRecordData byte = 0x00
	hexRecordEOF  byte = 0x01
)

// FirmwareRecord is one contiguous block of image bytes.
type FirmwareRecord struct {
	Address uint16
	Data    []byte
}

// Firmware is a parsed EZ-USB firmware image.
type Firmware struct {
	Records []FirmwareRecord
}

// LoadFirmware reads and parses an Intel-HEX firmware image from disk.
func LoadFirmware(path string) (*Firmware, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening firmware image: %w", err)
	}
	defer f.Close()
	fw, err := ParseIntelHex(f)
	if err != nil {
		return nil, fmt.Errorf("firmware image %s: %w", path, err)
	}
	return fw, nil
}

// ParseIntelHex parses an Intel-HEX image. Parsing stops at the mandatory
// end-of-file record; anything malformed before it is an error.
func ParseIntelHex(r io.Reader) (*Firmware, error) {
	fw := &Firmware{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if !strings.HasPrefix(text, ":") {
			return nil, fmt.Errorf("line %d: record does not start with ':'", line)
		}
		raw, err := hex.DecodeString(text[1:])
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		// count, address (2), type, data..., checksum
		if len(raw) < 5 {
			return nil, fmt.Errorf("line %d: record too short", line)
		}
		count := int(raw[0])
		if len(raw) != count+5 {
			return nil, fmt.Errorf("line %d: length field %d does not match record size", line, count)
		}
		var sum byte
		for _, b := range raw {
			sum += b
		}
		if sum != 0 {
			return nil, fmt.Errorf("line %d: checksum mismatch", line)
		}
		address := uint16(raw[1])<<8 | uint16(raw[2])
		switch recordType := raw[3]; recordType {
		case hexRecordData:
			data := make([]byte, count)
			copy(data, raw[4:4+count])
			fw.Records = append(fw.Records, FirmwareRecord{Address: address, Data: data})
		case hexRecordEOF:
			if len(fw.Records) == 0 {
				return nil, errors.New("image has no data records")
			}
			return fw, nil
		default:
			return nil, fmt.Errorf("line %d: unsupported record type 0x%02x", line, recordType)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, errors.New("image has no end-of-file record")
}

// UploadFirmware writes the image into the EZ-USB controller: hold the CPU
// in reset, poke the records into RAM, release the reset. The device then
// drops off the bus and re-enumerates with its active VID/PID, so a
// disconnect on the final write is the expected outcome, not a failure.
func UploadFirmware(scope ScopeTransport, fw *Firmware) error {
	if _, err := scope.ControlWrite(protocol.ControlFirmware, cpucsAddress, []byte{0x01}); err != nil {
		return fmt.Errorf("holding the cpu in reset: %w", err)
	}
	for _, record := range fw.Records {
		address := record.Address
		data := record.Data
		for len(data) > 0 {
			chunk := data
			if len(chunk) > maxUploadChunk {
				chunk = chunk[:maxUploadChunk]
			}
			sent, err := scope.ControlWrite(protocol.ControlFirmware, address, chunk)
			if err != nil {
				return fmt.Errorf("writing %d bytes at 0x%04x: %w", len(chunk), address, err)
			}
			if sent != len(chunk) {
				return fmt.Errorf("writing at 0x%04x: wrote %d of %d bytes", address, sent, len(chunk))
			}
			address += uint16(len(chunk))
			data = data[len(chunk):]
		}
	}
	if _, err := scope.ControlWrite(protocol.ControlFirmware, cpucsAddress, []byte{0x00}); err != nil && !errors.Is(err, ErrDisconnected) {
		return fmt.Errorf("releasing the cpu: %w", err)
	}
	return nil
}
