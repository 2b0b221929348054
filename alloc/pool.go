// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package alloc

import (
	"encoding/binary"
	"fmt"

	"github.com/usbarmory/go-loader/uefi"
)

// adjustment word size
const wordSize = 8

// minimum alignment of firmware pool buffers
const poolAlign = 8

// PoolService represents the firmware pool allocation capability, as
// implemented by [uefi.BootServices].
type PoolService interface {
	AllocatePool(memoryType int, size int) (uint64, error)
	FreePool(addr uint64) error
}

// Block represents an aligned pool allocation.
type Block struct {
	// Addr is the aligned block physical address.
	Addr uint64
	// Size is the requested block size in bytes.
	Size int

	buf []byte
}

// Bytes returns a slice spanning the requested block size.
func (b *Block) Bytes() []byte {
	return b.buf[:b.Size]
}

// Pool allocates arbitrarily aligned blocks from the firmware pool.
//
// Each block is over-allocated so that its start can be shifted to the
// requested alignment, the applied shift is stored as a little-endian 64-bit
// word right after the block end and recovered on release.
type Pool struct {
	Boot   PoolService
	Memory Memory

	// MemoryType is the EFI memory type of pool allocations, defaults to
	// EfiLoaderData.
	MemoryType int
}

func (p *Pool) memoryType() int {
	if p.MemoryType == 0 {
		return uefi.EfiLoaderData
	}

	return p.MemoryType
}

// Alloc returns a block of size bytes aligned to align, which must be a power
// of two.
func (p *Pool) Alloc(size int, align int) (b *Block, err error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid size (%d)", size)
	}

	if align <= 0 || align&(align-1) != 0 {
		return nil, fmt.Errorf("invalid alignment (%d)", align)
	}

	total := size + max(0, align-poolAlign) + wordSize
	addr, err := p.Boot.AllocatePool(p.memoryType(), total)

	if err != nil {
		return nil, fmt.Errorf("could not allocate %d bytes, %w (%v)", total, ErrOutOfResources, err)
	}

	adjust := (uint64(align) - addr%uint64(align)) % uint64(align)

	if adjust+uint64(size)+wordSize > uint64(total) {
		p.Boot.FreePool(addr)
		return nil, fmt.Errorf("misaligned pool buffer %#x", addr)
	}

	b = &Block{
		Addr: addr + adjust,
		Size: size,
	}

	if b.buf, err = p.Memory.Bytes(b.Addr, size+wordSize); err != nil {
		p.Boot.FreePool(addr)
		return nil, fmt.Errorf("could not map %#x, %v", b.Addr, err)
	}

	binary.LittleEndian.PutUint64(b.buf[size:], adjust)

	return
}

// Free releases the block backing allocation.
func (p *Pool) Free(b *Block) (err error) {
	if b == nil || b.buf == nil {
		return
	}

	adjust := binary.LittleEndian.Uint64(b.buf[b.Size:])

	if err = p.Boot.FreePool(b.Addr - adjust); err != nil {
		return fmt.Errorf("could not free %#x, %v", b.Addr, err)
	}

	b.buf = nil

	return
}
