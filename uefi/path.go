// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"fmt"
	"strings"
)

const (
	bufferSize = (1 << 12)
	maxDepth   = 16

	// Device Path types
	mediaDevicePath = 0x04
	endDevicePath   = 0x7f

	// Media Device Path subtypes
	filePathSubType = 0x04
	// End of Hardware Device Path subtypes
	endEntireSubType = 0xff
)

// DevicePathNode represents an EFI Generic Device Path Node structure.
type DevicePathNode struct {
	Type    uint8
	SubType uint8
	Length  uint16
}

// DevicePath represents an EFI Device Path Protocol node.
type DevicePath struct {
	DevicePathNode
	Data []byte
}

// parseDevicePath decodes device path nodes until the End Entire Device Path
// node.
//
// While we could use UEFI functions to perform the same, we prefer to have
// control on this parsing given that UEFI firmware does not handle
// gracefully invalid pointers (e.g. DoS condition).
func parseDevicePath(buf []byte) (devicePath []*DevicePath, err error) {
	off := 0

	for i := 0; ; i++ {
		if i == maxDepth {
			return nil, errors.New("device path nodes limit exceeded")
		}

		if off+4 > len(buf) {
			return nil, errors.New("device path exceeds buffer")
		}

		node := DevicePathNode{}

		if err = unmarshalBinary(buf[off:off+4], &node); err != nil {
			return nil, err
		}

		if node.Type == endDevicePath && node.SubType == endEntireSubType {
			return
		}

		if node.Length < 4 || off+int(node.Length) > len(buf) {
			return nil, fmt.Errorf("invalid device path node length (%d)", node.Length)
		}

		d := &DevicePath{
			DevicePathNode: node,
			Data:           make([]byte, node.Length-4),
		}

		copy(d.Data, buf[off+4:off+int(node.Length)])
		off += int(node.Length)

		devicePath = append(devicePath, d)
	}
}

// FilePathName returns the path name held by the File Path Media Device Path
// nodes of a device path, consecutive nodes are joined with the EFI path
// separator.
func FilePathName(devicePath []*DevicePath) (string, error) {
	var path string

	for _, d := range devicePath {
		if d.Type != mediaDevicePath || d.SubType != filePathSubType {
			continue
		}

		name := fromUTF16(d.Data)

		if path != "" && !strings.HasSuffix(path, `\`) && !strings.HasPrefix(name, `\`) {
			path += `\`
		}

		path += name
	}

	if path == "" {
		return "", errors.New("device path has no file path")
	}

	return path, nil
}
