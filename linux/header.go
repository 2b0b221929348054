// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package linux

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// setup header magic ("HdrS")
	HeaderSignature = 0x53726448
	// minimum supported boot protocol version
	MinVersion = 0x0206

	// real-mode sector size
	sectorSize = 512
	// setup_sects value assumed when the field is zero
	defaultSetupSects = 4
	// offset of the 64-bit entry point within the protected-mode kernel
	startup64 = 0x200
)

var (
	// ErrFormat is returned for images which are not Linux x86 kernels.
	ErrFormat = errors.New("invalid kernel format")
	// ErrKernelVersion is returned for kernels implementing a boot
	// protocol older than 2.06.
	ErrKernelVersion = fmt.Errorf("%w, kernel version too old", ErrFormat)
)

// SetupHeader represents the Linux x86 boot protocol setup header.
type SetupHeader struct {
	SetupSects          uint8
	RootFlags           uint16
	SysSize             uint32
	RAMSize             uint16
	VidMode             uint16
	RootDev             uint16
	BootFlag            uint16
	Jump                uint16
	Header              uint32
	Version             uint16
	RealModeSwitch      uint32
	StartSysSeg         uint16
	KernelVersion       uint16
	TypeOfLoader        uint8
	LoadFlags           uint8
	SetupMoveSize       uint16
	Code32Start         uint32
	RamdiskImage        uint32
	RamdiskSize         uint32
	BootSectKludge      uint32
	HeapEndPtr          uint16
	ExtLoaderVer        uint8
	ExtLoaderType       uint8
	CmdLinePtr          uint32
	InitrdAddrMax       uint32
	KernelAlignment     uint32
	RelocatableKernel   uint8
	MinAlignment        uint8
	XLoadFlags          uint16
	CmdlineSize         uint32
	HardwareSubarch     uint32
	HardwareSubarchData uint64
	PayloadOffset       uint32
	PayloadLength       uint32
	SetupData           uint64
	PrefAddress         uint64
	InitSize            uint32
	HandoverOffset      uint32
	KernelInfoOffset    uint32
}

// ParseSetupHeader decodes a setup header as found at offset 0x1f1 of a
// kernel image, or of the zero page.
func ParseSetupHeader(buf []byte) (hdr *SetupHeader, err error) {
	hdr = &SetupHeader{}

	if _, err = binary.Decode(buf, binary.LittleEndian, hdr); err != nil {
		return nil, fmt.Errorf("%w, %v", ErrFormat, err)
	}

	return
}

// Validate verifies the header signature and boot protocol version.
func (hdr *SetupHeader) Validate() error {
	if hdr.Header != HeaderSignature {
		return fmt.Errorf("%w, invalid header signature %#x", ErrFormat, hdr.Header)
	}

	if hdr.Version < MinVersion {
		return fmt.Errorf("%w (%s)", ErrKernelVersion, hdr.ProtocolVersion())
	}

	return nil
}

// ProtocolVersion returns the boot protocol version in major.minor format.
func (hdr *SetupHeader) ProtocolVersion() string {
	return fmt.Sprintf("%d.%02d", hdr.Version>>8, hdr.Version&0xff)
}

// EntryOffset returns the 64-bit entry point offset within the kernel image.
func (hdr *SetupHeader) EntryOffset() uint64 {
	sects := uint64(hdr.SetupSects)

	if sects == 0 {
		sects = defaultSetupSects
	}

	return (sects+1)*sectorSize + startup64
}
