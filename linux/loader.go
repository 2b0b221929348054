// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package linux implements loading and booting of Linux x86_64 kernels from
// UEFI, following the 64-bit boot protocol at:
//
//	https://www.kernel.org/doc/html/latest/arch/x86/boot.html
package linux

import (
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/u-root/u-root/pkg/boot/bzimage"

	"github.com/usbarmory/go-loader/alloc"
	"github.com/usbarmory/go-loader/config"
	"github.com/usbarmory/go-loader/uefi"
)

var (
	// ErrIO is returned for failed or incomplete file reads.
	ErrIO = errors.New("I/O error")
	// ErrExitBootServices is returned when the firmware rejects the
	// termination of EFI Boot Services twice.
	ErrExitBootServices = errors.New("could not exit EFI boot services")
)

// Firmware represents the EFI Boot Services required to hand over the system
// to the kernel, as implemented by [uefi.BootServices].
type Firmware interface {
	GetMemoryMap() (*uefi.MemoryMap, error)
	ExitBootServices(mapKey uint64) error
}

// Graphics represents an optional framebuffer provider, as implemented by
// [uefi.GraphicsOutput].
type Graphics interface {
	Framebuffer() (*uefi.Framebuffer, error)
}

// Loader stages a Linux kernel, its initial ramdisk and command line in
// memory allocated from the firmware and transfers control to it.
type Loader struct {
	// Root is the volume holding kernel and initrd images.
	Root fs.FS

	// Pages allocates kernel, initrd and zero page memory.
	Pages *alloc.Pages
	// Pool allocates the command line buffer.
	Pool *alloc.Pool

	// Firmware is used to snapshot the memory map and exit EFI Boot
	// Services.
	Firmware Firmware
	// SystemTable is the EFI System Table address passed to the kernel.
	SystemTable uint64

	// Graphics, when set, describes the framebuffer to the kernel.
	Graphics Graphics

	// Cleanup, when set, is invoked right after EFI Boot Services are
	// terminated and must not use any firmware service.
	Cleanup func()

	// Exec transfers control to the kernel entry point with the zero page
	// address, it defaults to a jump which never returns.
	Exec func(entry uint64, params uint64)

	state State

	hdr    *SetupHeader
	params *BootParams

	kernel     *alloc.Region
	kernelSize int
	zeroPage   *alloc.Region
	initrd     *alloc.Region
	cmdline    *alloc.Block
	memoryMap  *uefi.MemoryMap
}

// State returns the boot sequence state.
func (l *Loader) State() State {
	return l.state
}

// Params returns the boot parameters, available once the kernel header has
// been validated.
func (l *Loader) Params() *BootParams {
	return l.params
}

// Entry returns the kernel 64-bit entry point address, available once the
// kernel header has been validated.
func (l *Loader) Entry() uint64 {
	if l.kernel == nil || l.hdr == nil {
		return 0
	}

	return l.kernel.Addr + l.hdr.EntryOffset()
}

// open opens the named file and returns its size.
func (l *Loader) open(name string) (f fs.File, size int, err error) {
	if f, err = l.Root.Open(name); err != nil {
		return nil, 0, fmt.Errorf("could not open %s, %w", name, err)
	}

	fi, err := f.Stat()

	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("could not get %s information, %w (%v)", name, ErrIO, err)
	}

	if fi.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("could not read %s, is a directory", name)
	}

	return f, int(fi.Size()), nil
}

// readFull fills buf with a single read, any shorter read is an error.
func readFull(f fs.File, buf []byte, name string) error {
	if len(buf) == 0 {
		return nil
	}

	n, err := f.Read(buf)

	if n == len(buf) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("could not read %s, %w (%v)", name, ErrIO, err)
	}

	return fmt.Errorf("could not read %s, %w (%d of %d bytes)", name, ErrIO, n, len(buf))
}

func (l *Loader) loadKernel(name string) (err error) {
	f, size, err := l.open(name)

	if err != nil {
		return
	}

	defer f.Close()

	if l.kernel, err = l.Pages.Allocate(size, uefi.EfiLoaderData); err != nil {
		return fmt.Errorf("could not allocate memory for %s, %w", name, err)
	}

	if err = readFull(f, l.kernel.Bytes()[:size], name); err != nil {
		return
	}

	log.Printf("loaded %s (%d bytes) at %#x", name, size, l.kernel.Addr)

	l.kernelSize = size
	l.state = KernelStaged

	return
}

func (l *Loader) loadHeader(name string) (err error) {
	if l.zeroPage, err = l.Pages.Allocate(ZeroPageSize, uefi.EfiLoaderData); err != nil {
		return fmt.Errorf("could not allocate boot parameters, %w", err)
	}

	if l.params, err = NewBootParams(l.zeroPage.Bytes()); err != nil {
		return
	}

	if _, err = l.params.CopySetupHeader(l.kernel.Bytes()[:l.kernelSize]); err != nil {
		return fmt.Errorf("%s is not a Linux kernel, %w", name, err)
	}

	if l.hdr, err = ParseSetupHeader(l.params.SetupHeader()); err != nil {
		return
	}

	if err = l.hdr.Validate(); err != nil {
		return fmt.Errorf("%s is not a Linux kernel or it is too old, %w", name, err)
	}

	log.Printf("kernel boot protocol %s, entry at %#x", l.hdr.ProtocolVersion(), l.Entry())

	if l.Graphics != nil {
		if fb, err := l.Graphics.Framebuffer(); err == nil {
			l.params.SetScreenInfo(fb)
			log.Printf("framebuffer %dx%d at %#x", fb.Info.HorizontalResolution, fb.Info.VerticalResolution, fb.Base)
		}
	}

	l.state = HeaderValidated

	return
}

func (l *Loader) setCommandLine(cmdline string) (err error) {
	l.params.SetLoader()

	if l.cmdline, err = l.Pool.Alloc(len(cmdline)+1, 1); err != nil {
		return fmt.Errorf("could not allocate command line, %w", err)
	}

	buf := l.cmdline.Bytes()
	copy(buf, cmdline)
	buf[len(cmdline)] = 0x00

	l.params.SetCommandLine(l.cmdline.Addr)

	if limit := int(l.hdr.CmdlineSize); limit > 0 && len(cmdline) > limit {
		log.Printf("command line length (%d) exceeds kernel limit (%d)", len(cmdline), limit)
	}

	l.state = CommandLineSet

	return
}

func (l *Loader) loadInitrd(names []string) (err error) {
	var files []fs.File
	var sizes []int
	var total int

	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	for _, name := range names {
		f, size, err := l.open(name)

		if err != nil {
			return err
		}

		files = append(files, f)
		sizes = append(sizes, size)
		total += size
	}

	if l.initrd, err = l.Pages.Allocate(total, uefi.EfiLoaderData); err != nil {
		return fmt.Errorf("could not allocate memory for initrd, %w", err)
	}

	buf := l.initrd.Bytes()
	off := 0

	for i, f := range files {
		if err = readFull(f, buf[off:off+sizes[i]], names[i]); err != nil {
			return
		}

		off += sizes[i]
	}

	l.params.SetRamdisk(l.initrd.Addr, uint64(total))

	log.Printf("loaded %d initrd image(s) (%d bytes) at %#x", len(names), total, l.initrd.Addr)
	l.state = InitrdStaged

	return
}

// snapshot captures the memory map and records it in the boot parameters,
// no firmware allocation must take place afterwards.
func (l *Loader) snapshot() (err error) {
	var entries []bzimage.E820Entry

	m, err := l.Firmware.GetMemoryMap()

	if err != nil {
		return fmt.Errorf("could not get memory map, %w", err)
	}

	for _, desc := range m.Descriptors {
		// invalid types are still reported as reserved
		e, _ := desc.E820()
		entries = append(entries, e)
	}

	l.params.SetEFIInfo(l.SystemTable, m.Address(), m.MapSize, m.DescriptorSize, m.DescriptorVersion)
	l.params.SetE820(entries)

	l.memoryMap = m
	l.state = MemorySnapshotted

	return
}

// exitServices terminates EFI Boot Services, a rejected map key is refreshed
// once.
func (l *Loader) exitServices() (err error) {
	if err = l.Firmware.ExitBootServices(l.memoryMap.MapKey); err != nil {
		if err = l.snapshot(); err != nil {
			return fmt.Errorf("%w, %v", ErrExitBootServices, err)
		}

		if err = l.Firmware.ExitBootServices(l.memoryMap.MapKey); err != nil {
			return fmt.Errorf("%w, %v", ErrExitBootServices, err)
		}
	}

	l.state = ServicesEnded

	if l.Cleanup != nil {
		l.Cleanup()
	}

	return
}

// release frees all memory staged for the kernel, it must only be invoked
// while EFI Boot Services are available.
func (l *Loader) release() {
	if l.cmdline != nil {
		l.Pool.Free(l.cmdline)
	}

	for _, r := range []*alloc.Region{l.initrd, l.zeroPage, l.kernel} {
		if r != nil {
			l.Pages.Free(r)
		}
	}

	l.cmdline = nil
	l.initrd = nil
	l.zeroPage = nil
	l.kernel = nil
	l.kernelSize = 0
	l.hdr = nil
	l.params = nil
}

// Boot loads the kernel, initrd images and command line of the argument
// configuration, terminates EFI Boot Services and jumps to the kernel.
//
// On success Boot does not return, errors are returned only while EFI Boot
// Services are still available. Memory staged for the kernel is released on
// errors preceding the memory map snapshot, once ExitBootServices has been
// attempted it is left allocated.
func (l *Loader) Boot(conf *config.Config) (err error) {
	if err = conf.Validate(); err != nil {
		return
	}

	if l.Root == nil || l.Pages == nil || l.Pool == nil || l.Firmware == nil {
		return errors.New("invalid loader instance")
	}

	if l.state >= ServicesEnded {
		return fmt.Errorf("invalid loader state %s", l.state)
	}

	l.state = Init

	defer func() {
		// after ExitBootServices attempts only GetMemoryMap is allowed
		if err != nil && l.state < MemorySnapshotted {
			l.release()
		}
	}()

	if err = l.loadKernel(conf.Kernel); err != nil {
		return
	}

	if err = l.loadHeader(conf.Kernel); err != nil {
		return
	}

	if err = l.setCommandLine(conf.CommandLine); err != nil {
		return
	}

	if err = l.loadInitrd(conf.Initrd); err != nil {
		return
	}

	log.Printf("exiting EFI boot services")

	if err = l.snapshot(); err != nil {
		return
	}

	if err = l.exitServices(); err != nil {
		return
	}

	entry := l.Entry()
	params := l.zeroPage.Addr

	l.state = ControlTransferred

	if l.Exec != nil {
		l.Exec(entry, params)
		return
	}

	// does not return
	exec(entry, params)

	return
}
