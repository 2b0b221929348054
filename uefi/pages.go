// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// EFI Boot Service offsets
const (
	allocatePages = 0x28
	freePages     = 0x30
	allocatePool  = 0x40
	freePool      = 0x48
)

// EFI_ALLOCATE_TYPE
const (
	AllocateAnyPages = iota
	AllocateMaxAddress
	AllocateAddress
	MaxAllocateType
)

// EFI_MEMORY_TYPE
const (
	EfiReservedMemoryType = iota
	EfiLoaderCode
	EfiLoaderData
	EfiBootServicesCode
	EfiBootServicesData
	EfiRuntimeServicesCode
	EfiRuntimeServicesData
	EfiConventionalMemory
	EfiUnusableMemory
	EfiACPIReclaimMemory
	EfiACPIMemoryNVS
	EfiMemoryMappedIO
	EfiMemoryMappedIOPortSpace
	EfiPalCode
	EfiPersistentMemory
	EfiUnacceptedMemoryType
	EfiMaxMemoryType
)

// AllocatePages calls EFI_BOOT_SERVICES.AllocatePages(), the physical
// address argument is only meaningful for AllocateMaxAddress and
// AllocateAddress requests.
func (s *BootServices) AllocatePages(allocateType int, memoryType int, pages int, physicalAddress uint64) (addr uint64, err error) {
	addr = physicalAddress

	status := call(s.base+allocatePages,
		uint64(allocateType),
		uint64(memoryType),
		uint64(pages),
		ptrval(&addr),
	)

	if err = parseStatus(status); err != nil {
		return 0, err
	}

	return
}

// FreePages calls EFI_BOOT_SERVICES.FreePages().
func (s *BootServices) FreePages(physicalAddress uint64, pages int) error {
	status := call(s.base+freePages,
		physicalAddress,
		uint64(pages),
	)

	return parseStatus(status)
}

// AllocatePool calls EFI_BOOT_SERVICES.AllocatePool(), the returned buffer is
// 8-byte aligned.
func (s *BootServices) AllocatePool(memoryType int, size int) (addr uint64, err error) {
	status := call(s.base+allocatePool,
		uint64(memoryType),
		uint64(size),
		ptrval(&addr),
	)

	if err = parseStatus(status); err != nil {
		return 0, err
	}

	return
}

// FreePool calls EFI_BOOT_SERVICES.FreePool().
func (s *BootServices) FreePool(addr uint64) error {
	return parseStatus(call(s.base+freePool, addr))
}
