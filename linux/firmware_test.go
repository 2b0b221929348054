// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package linux

import (
	"encoding/binary"
	"fmt"
	"io/fs"
	"testing/fstest"

	"github.com/usbarmory/go-loader/alloc"
	"github.com/usbarmory/go-loader/uefi"
)

const (
	// arena base above 4GiB to exercise split pointers
	arenaBase   = 0x1_2345_0000
	arenaSize   = 1 << 22
	systemTable = 0x7fe8_1018

	descriptorSize = 48
)

// firmware emulates the EFI Boot Services used by the loader.
type firmware struct {
	arena []byte
	next  uint64

	pages map[uint64]int
	pool  map[uint64]int

	mapKey      uint64
	mapRequests int
	rejections  int
	exited      bool

	// allocations performed after a memory map snapshot
	lateAllocations int
	snapshotTaken   bool

	// frees performed after an ExitBootServices attempt
	exitAttempts int
	lateFrees    int
}

func newFirmware() *firmware {
	return &firmware{
		arena:  make([]byte, arenaSize),
		next:   arenaBase,
		pages:  make(map[uint64]int),
		pool:   make(map[uint64]int),
		mapKey: 0x1000,
	}
}

func (f *firmware) checkAllocation() error {
	if f.exited {
		return uefi.ErrEfiUnsupported
	}

	if f.snapshotTaken {
		f.lateAllocations += 1
	}

	// any allocation invalidates the map key
	f.mapKey += 1

	return nil
}

func (f *firmware) AllocatePages(_ int, _ int, pages int, _ uint64) (addr uint64, err error) {
	if err = f.checkAllocation(); err != nil {
		return
	}

	f.next = (f.next + uefi.PageSize - 1) &^ (uefi.PageSize - 1)
	addr = f.next
	f.next += uint64(pages * uefi.PageSize)

	if f.next > arenaBase+arenaSize {
		return 0, uefi.ErrEfiOutOfResources
	}

	f.pages[addr] = pages

	return
}

func (f *firmware) checkFree() {
	if f.exitAttempts > 0 {
		f.lateFrees += 1
	}
}

func (f *firmware) FreePages(addr uint64, pages int) error {
	f.checkFree()

	if f.pages[addr] != pages {
		return uefi.ErrEfiNotFound
	}

	delete(f.pages, addr)
	f.mapKey += 1

	return nil
}

func (f *firmware) AllocatePool(_ int, size int) (addr uint64, err error) {
	if err = f.checkAllocation(); err != nil {
		return
	}

	f.next = (f.next+7)&^7 + 8
	addr = f.next
	f.next += uint64(size)

	f.pool[addr] = size

	return
}

func (f *firmware) FreePool(addr uint64) error {
	f.checkFree()

	if _, ok := f.pool[addr]; !ok {
		return uefi.ErrEfiInvalidParameter
	}

	delete(f.pool, addr)
	f.mapKey += 1

	return nil
}

func (f *firmware) Bytes(addr uint64, size int) ([]byte, error) {
	off := addr - arenaBase

	if addr < arenaBase || off+uint64(size) > arenaSize {
		return nil, fmt.Errorf("invalid range %#x-%#x", addr, addr+uint64(size))
	}

	return f.arena[off : off+uint64(size)], nil
}

func (f *firmware) GetMemoryMap() (*uefi.MemoryMap, error) {
	type desc struct {
		memType uint32
		start   uint64
		pages   uint64
	}

	descs := []desc{
		{uefi.EfiConventionalMemory, 0x0, 0x9f},
		{uefi.EfiReservedMemoryType, 0x9f000, 0x61},
		{uefi.EfiConventionalMemory, 0x100000, 0x700},
		{uefi.EfiBootServicesData, 0x800000, 0x100},
		{uefi.EfiACPIReclaimMemory, 0x7fb00000, 0x10},
		{uefi.EfiLoaderData, arenaBase, arenaSize / uefi.PageSize},
	}

	buf := make([]byte, len(descs)*descriptorSize)

	for i, d := range descs {
		off := i * descriptorSize
		binary.LittleEndian.PutUint32(buf[off:], d.memType)
		binary.LittleEndian.PutUint64(buf[off+8:], d.start)
		binary.LittleEndian.PutUint64(buf[off+24:], d.pages)
	}

	f.mapRequests += 1
	f.snapshotTaken = true

	return uefi.ParseMemoryMap(buf, descriptorSize, 1, f.mapKey)
}

func (f *firmware) ExitBootServices(mapKey uint64) error {
	f.exitAttempts += 1

	if f.rejections > 0 {
		f.rejections -= 1
		// emulate firmware events changing the memory map
		f.mapKey += 1
		return uefi.ErrEfiInvalidParameter
	}

	if mapKey != f.mapKey {
		return uefi.ErrEfiInvalidParameter
	}

	f.exited = true

	return nil
}

// countingFS records the number of Open invocations.
type countingFS struct {
	fs.FS
	opens int
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.opens += 1
	return c.FS.Open(name)
}

// shortFS returns files which deliver at most half of the requested bytes
// per read.
type shortFS struct {
	fs.FS
}

type shortFile struct {
	fs.File
}

func (s *shortFS) Open(name string) (fs.File, error) {
	f, err := s.FS.Open(name)

	if err != nil {
		return nil, err
	}

	return &shortFile{f}, nil
}

func (f *shortFile) Read(p []byte) (int, error) {
	return f.File.Read(p[:len(p)/2])
}

// kernelImage returns a minimal bzImage carrying a valid setup header.
func kernelImage(size int, version uint16) []byte {
	image := make([]byte, size)

	image[0x1f1] = 1                                              // setup_sects
	binary.LittleEndian.PutUint16(image[0x1fe:], 0xaa55)          // boot_flag
	image[0x200] = 0xeb                                           // jump
	image[0x201] = 0x6a                                           // header end
	binary.LittleEndian.PutUint32(image[0x202:], HeaderSignature) // header
	binary.LittleEndian.PutUint16(image[0x206:], version)         // version
	image[0x211] = 0x01 | quietFlag | canUseHeap                  // loadflags
	binary.LittleEndian.PutUint32(image[0x238:], 2048)            // cmdline_size

	// protected-mode code marker
	copy(image[0x400:], "startup_32")

	return image
}

func testVolume() fstest.MapFS {
	return fstest.MapFS{
		`\vmlinuz`:       &fstest.MapFile{Data: kernelImage(0x3000, 0x020f)},
		`\initrd.img`:    &fstest.MapFile{Data: []byte("0123456789")},
		`\microcode.img`: &fstest.MapFile{Data: []byte("ucode")},
		`\old-vmlinuz`:   &fstest.MapFile{Data: kernelImage(0x3000, 0x0205)},
		`\notakernel`:    &fstest.MapFile{Data: make([]byte, 0x3000)},
	}
}

func testLoader(f *firmware, root fs.FS) *Loader {
	return &Loader{
		Root:        root,
		Pages:       &alloc.Pages{Boot: f, Memory: f},
		Pool:        &alloc.Pool{Boot: f, Memory: f},
		Firmware:    f,
		SystemTable: systemTable,
	}
}
