// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package alloc implements physical memory allocation, through UEFI Boot
// Services, for buffers handed over to a booted kernel.
//
// Allocations are meant to outlive the Go runtime, therefore they are never
// backed by the Go heap.
package alloc

import (
	"errors"
	"fmt"

	"github.com/usbarmory/go-loader/uefi"
)

// PageSize represents the allocation granularity in bytes.
const PageSize = uefi.PageSize

// ErrOutOfResources is returned when the firmware cannot satisfy an
// allocation request.
var ErrOutOfResources = errors.New("out of resources")

// PageService represents the firmware page allocation capability, as
// implemented by [uefi.BootServices].
type PageService interface {
	AllocatePages(allocateType int, memoryType int, pages int, physicalAddress uint64) (uint64, error)
	FreePages(physicalAddress uint64, pages int) error
}

// Memory represents the capability of mapping physical memory ranges, as
// implemented by [uefi.Memory].
type Memory interface {
	Bytes(addr uint64, size int) ([]byte, error)
}

// PageCount returns the number of pages required to hold size bytes.
func PageCount(size int) int {
	if size <= 0 {
		return 0
	}

	return (size + PageSize - 1) / PageSize
}

// Region represents a physically contiguous, page aligned, memory range.
type Region struct {
	// Addr is the region physical start address.
	Addr uint64
	// Size is the region size in bytes, always a page multiple.
	Size int
	// Type is the EFI memory type of the allocation.
	Type int

	buf []byte
}

// Bytes returns a slice spanning the whole region.
func (r *Region) Bytes() []byte {
	return r.buf
}

// Pages allocates page regions.
type Pages struct {
	Boot   PageService
	Memory Memory
}

// Allocate reserves the smallest number of pages holding size bytes, at any
// physical address, with the argument EFI memory type.
//
// A zero size returns an empty region without firmware interaction.
func (p *Pages) Allocate(size int, memoryType int) (r *Region, err error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid size (%d)", size)
	}

	r = &Region{
		Type: memoryType,
		buf:  []byte{},
	}

	if size == 0 {
		return
	}

	n := PageCount(size)

	if r.Addr, err = p.Boot.AllocatePages(uefi.AllocateAnyPages, memoryType, n, 0); err != nil {
		return nil, fmt.Errorf("could not allocate %d pages, %w (%v)", n, ErrOutOfResources, err)
	}

	r.Size = n * PageSize

	if r.buf, err = p.Memory.Bytes(r.Addr, r.Size); err != nil {
		p.Boot.FreePages(r.Addr, n)
		return nil, fmt.Errorf("could not map %#x, %v", r.Addr, err)
	}

	return
}

// Free releases the region pages, it must never be invoked on regions handed
// over to the kernel.
func (p *Pages) Free(r *Region) (err error) {
	if r == nil || r.Size == 0 {
		return
	}

	if err = p.Boot.FreePages(r.Addr, PageCount(r.Size)); err != nil {
		return fmt.Errorf("could not free %#x, %v", r.Addr, err)
	}

	r.Size = 0
	r.buf = nil

	return
}
