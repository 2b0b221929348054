// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"fmt"

	"github.com/u-root/u-root/pkg/boot/bzimage"
)

const (
	// EFI Boot Services offset for GetMemoryMap
	getMemoryMap = 0x38
	maxEntries   = 1000
)

// Advanced Configuration and Power Interface Specification (ACPI)
// Version 6.0 - Table 15-312 Address Range Types12
const AddressRangePersistentMemory = 7

// PageSize represents the EFI page size in bytes
const PageSize = 4096 // 4 KiB

// MemoryDescriptor represents an EFI Memory Descriptor
type MemoryDescriptor struct {
	Type          uint32
	_             uint32
	PhysicalStart uint64
	VirtualStart  uint64
	NumberOfPages uint64
	Attribute     uint64
}

// PhysicalEnd returns the descriptor physical end address.
func (d *MemoryDescriptor) PhysicalEnd() uint64 {
	return d.PhysicalStart + d.NumberOfPages*PageSize
}

// Size returns the descriptor size.
func (d *MemoryDescriptor) Size() int {
	return int(d.NumberOfPages * PageSize)
}

// E820 converts an EFI Memory Map entry to an x86 E820 one suitable for use
// after exiting EFI Boot Services.
func (d *MemoryDescriptor) E820() (bzimage.E820Entry, error) {
	e := bzimage.E820Entry{
		Addr: d.PhysicalStart,
		Size: d.NumberOfPages * PageSize,
	}

	// Unified Extensible Firmware Interface (UEFI) Specification
	// Version 2.10 - Table 7.10: Memory Type Usage after ExitBootServices()
	switch d.Type {
	case EfiLoaderCode, EfiLoaderData, EfiBootServicesCode, EfiBootServicesData, EfiConventionalMemory:
		e.MemType = bzimage.RAM
	case EfiPersistentMemory:
		e.MemType = AddressRangePersistentMemory
	case EfiACPIReclaimMemory:
		e.MemType = bzimage.ACPI
	case EfiACPIMemoryNVS:
		e.MemType = bzimage.NVS
	default:
		e.MemType = bzimage.Reserved
	}

	if d.Type >= EfiMaxMemoryType && d.Type < 0x70000000 {
		return e, fmt.Errorf("invalid memory type %#x", d.Type)
	}

	return e, nil
}

// MemoryMap represents an EFI Memory Map snapshot, its MapKey is only valid
// until the next memory allocation or free performed through the firmware.
type MemoryMap struct {
	MapSize           uint64
	Descriptors       []*MemoryDescriptor
	MapKey            uint64
	DescriptorSize    uint64
	DescriptorVersion uint32

	buf []byte
}

// Address returns the EFI Memory Map pointer.
func (m *MemoryMap) Address() uint64 {
	if len(m.buf) == 0 {
		return 0
	}

	return ptrval(&m.buf[0])
}

// Bytes returns the EFI Memory Map raw buffer.
func (m *MemoryMap) Bytes() []byte {
	return m.buf
}

// ParseMemoryMap decodes an EFI Memory Map buffer, as returned by
// EFI_BOOT_SERVICES.GetMemoryMap(), iterating descriptors with the argument
// stride.
func ParseMemoryMap(buf []byte, descriptorSize int, descriptorVersion uint32, mapKey uint64) (m *MemoryMap, err error) {
	if descriptorSize <= 0 || len(buf)%descriptorSize != 0 {
		return nil, fmt.Errorf("invalid descriptor size (%d)", descriptorSize)
	}

	m = &MemoryMap{
		MapSize:           uint64(len(buf)),
		MapKey:            mapKey,
		DescriptorSize:    uint64(descriptorSize),
		DescriptorVersion: descriptorVersion,
		buf:               buf,
	}

	for i := 0; i < len(buf); i += descriptorSize {
		d := &MemoryDescriptor{}

		if err = unmarshalBinary(buf[i:i+descriptorSize], d); err != nil {
			return nil, err
		}

		m.Descriptors = append(m.Descriptors, d)
	}

	return
}

// GetMemoryMap calls EFI_BOOT_SERVICES.GetMemoryMap().
//
// The map buffer is allocated from the Go runtime heap, therefore calling
// this function never changes the firmware memory map itself.
func (s *BootServices) GetMemoryMap() (m *MemoryMap, err error) {
	var mapKey uint64
	var descriptorSize uint64
	var descriptorVersion uint32

	buf, err := retryOnce(48*maxEntries, func(buf []byte) (int, error) {
		mapSize := uint64(len(buf))

		status := call(s.base+getMemoryMap,
			ptrval(&mapSize),
			ptrval(&buf[0]),
			ptrval(&mapKey),
			ptrval(&descriptorSize),
			ptrval(&descriptorVersion),
		)

		return int(mapSize), parseStatus(status)
	})

	if err != nil {
		return
	}

	if descriptorSize == 0 {
		return nil, errors.New("invalid descriptor size")
	}

	return ParseMemoryMap(buf, int(descriptorSize), descriptorVersion, mapKey)
}
