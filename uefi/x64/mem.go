// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package x64

import (
	"fmt"
	"runtime"
	_ "unsafe"

	"github.com/usbarmory/go-loader/uefi"
)

//go:linkname ramStart runtime.ramStart
var ramStart uint64 = 0x00100000 // overridden in x64.s

//go:linkname RamSize runtime.ramSize
var RamSize uint64 = 0x10000000 // 256MB

// allocateHeap reserves, as EfiLoaderData, the runtime memory which trails the
// image code so that the firmware does not hand it out to the loader
// allocations.
func allocateHeap() {
	memoryMap, err := UEFI.Boot.GetMemoryMap()

	if err != nil {
		fmt.Printf("WARNING: could not get memory map, %v\n", err)
		return
	}

	heapStart := uint64(0)
	start, end := runtime.MemRegion()

	// locate runtime heap offset within UEFI memory allocation
	for _, desc := range memoryMap.Descriptors {
		if desc.Type == uefi.EfiLoaderCode && start >= desc.PhysicalStart && start < desc.PhysicalEnd() {
			heapStart = desc.PhysicalEnd()
			break
		}
	}

	if heapStart == 0 || heapStart >= end {
		fmt.Println("WARNING: could not find heap offset")
		return
	}

	pages := int((end - heapStart + uefi.PageSize - 1) / uefi.PageSize)

	if _, err := UEFI.Boot.AllocatePages(
		uefi.AllocateAddress,
		uefi.EfiLoaderData,
		pages,
		heapStart,
	); err != nil {
		fmt.Printf("WARNING: could not allocate heap at %#x, %v\n", heapStart, err)
	}
}
