// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package linux

import (
	"bytes"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/usbarmory/go-loader/config"
)

const testCommandLine = "console=ttyS0,115200 root=/dev/vda1"

func testConfig(t *testing.T, data string) *config.Config {
	c, err := config.Parse([]byte(data))

	if err != nil {
		t.Fatal(err)
	}

	c.Path = `\loader.efi.conf`

	return c
}

func TestBoot(t *testing.T) {
	var entry, params uint64

	f := newFirmware()
	l := testLoader(f, testVolume())

	l.Exec = func(e uint64, p uint64) {
		entry = e
		params = p
	}

	conf := testConfig(t, "kernel=/vmlinuz\ninitrd=/initrd.img\ncommand_line="+testCommandLine+"\n")

	if err := l.Boot(conf); err != nil {
		t.Fatal(err)
	}

	if l.State() != ControlTransferred {
		t.Fatalf("unexpected state %s", l.State())
	}

	if f.lateAllocations != 0 {
		t.Fatalf("%d allocations after memory map snapshot", f.lateAllocations)
	}

	if !f.exited {
		t.Fatal("boot services not terminated")
	}

	bp := l.Params()

	if params != l.zeroPage.Addr || params < arenaBase {
		t.Fatalf("unexpected zero page address %#x", params)
	}

	// setup_sects = 1
	if exp := l.kernel.Addr + 2*512 + 0x200; entry != exp {
		t.Fatalf("unexpected entry %#x, expected %#x", entry, exp)
	}

	if bp.Get(HeaderMagic) != HeaderSignature || bp.Get(Version) != 0x020f {
		t.Fatal("setup header not copied")
	}

	if bp.Get(VidMode) != 0xfffd || bp.Get(TypeOfLoader) != 0xff || bp.Get(LoadFlags) != 0x01 {
		t.Fatalf("unexpected loader fields %#x %#x %#x", bp.Get(VidMode), bp.Get(TypeOfLoader), bp.Get(LoadFlags))
	}

	addr, size := bp.Ramdisk()

	if size != 10 || bp.Get(RamdiskSize) != 10 || bp.Get(ExtRamdiskSize) != 0 {
		t.Fatalf("unexpected ramdisk size %d", size)
	}

	if addr != l.initrd.Addr || bp.Get(ExtRamdiskImage) != addr>>32 {
		t.Fatalf("unexpected ramdisk address %#x", addr)
	}

	initrd, _ := f.Bytes(addr, int(size))

	if string(initrd) != "0123456789" {
		t.Fatalf("unexpected ramdisk contents %q", initrd)
	}

	cmdline := bp.Get(CmdLinePtr) | bp.Get(ExtCmdLinePtr)<<32
	buf, err := f.Bytes(cmdline, len(testCommandLine)+1)

	if err != nil {
		t.Fatal(err)
	}

	if string(buf) != testCommandLine+"\x00" {
		t.Fatalf("unexpected command line %q", buf)
	}

	if bp.Get(EFILoaderSignature) != EFILoaderSignature64 {
		t.Fatal("missing EFI loader signature")
	}

	if bp.Get(EFISystemTable) != systemTable || bp.Get(EFISystemTableHi) != 0 {
		t.Fatal("unexpected system table pointer")
	}

	if bp.Get(EFIMemDescSize) != descriptorSize || bp.Get(EFIMemDescVersion) != 1 {
		t.Fatal("unexpected memory descriptor information")
	}

	if bp.Get(EFIMemMapSize) != l.memoryMap.MapSize {
		t.Fatal("unexpected memory map size")
	}

	if m := bp.Get(EFIMemMap) | bp.Get(EFIMemMapHi)<<32; m != l.memoryMap.Address() {
		t.Fatalf("unexpected memory map address %#x", m)
	}

	// two conventional ranges and boot services data are merged
	if n := bp.Get(E820Entries); n != 5 {
		t.Fatalf("unexpected E820 entries count %d", n)
	}
}

func TestBootInitrdConcatenation(t *testing.T) {
	f := newFirmware()
	l := testLoader(f, testVolume())
	l.Exec = func(_ uint64, _ uint64) {}

	conf := testConfig(t, "kernel=/vmlinuz\ninitrd=/microcode.img\ninitrd=/initrd.img\ncommand_line=quiet\n")

	if err := l.Boot(conf); err != nil {
		t.Fatal(err)
	}

	addr, size := l.Params().Ramdisk()

	if size != 15 {
		t.Fatalf("unexpected ramdisk size %d", size)
	}

	buf, _ := f.Bytes(addr, int(size))

	if !bytes.Equal(buf[0:5], []byte("ucode")) || !bytes.Equal(buf[5:15], []byte("0123456789")) {
		t.Fatalf("unexpected ramdisk contents %q", buf)
	}
}

func TestBootEmptyKernel(t *testing.T) {
	f := newFirmware()
	root := &countingFS{FS: testVolume()}
	l := testLoader(f, root)

	conf := testConfig(t, "kernel=\ninitrd=/initrd.img\ncommand_line=quiet\n")
	err := l.Boot(conf)

	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("unexpected error, %v", err)
	}

	if !strings.Contains(err.Error(), `\loader.efi.conf`) {
		t.Fatalf("error does not name the configuration file, %v", err)
	}

	if errors.Is(err, ErrFormat) || strings.Contains(err.Error(), "Linux") {
		t.Fatalf("unexpected kernel diagnostic, %v", err)
	}

	if root.opens != 0 {
		t.Fatalf("%d files opened", root.opens)
	}

	if l.State() != Init || len(f.pages) != 0 {
		t.Fatal("unexpected loader activity")
	}
}

func TestBootExitRetry(t *testing.T) {
	f := newFirmware()
	f.rejections = 1

	l := testLoader(f, testVolume())
	transferred := false

	l.Exec = func(_ uint64, _ uint64) {
		transferred = true
	}

	if err := l.Boot(testConfig(t, "kernel=/vmlinuz\ninitrd=/initrd.img\ncommand_line=quiet\n")); err != nil {
		t.Fatal(err)
	}

	if f.mapRequests != 2 {
		t.Fatalf("unexpected memory map requests (%d)", f.mapRequests)
	}

	if !transferred || l.State() != ControlTransferred {
		t.Fatal("control not transferred")
	}

	if f.lateAllocations != 0 {
		t.Fatalf("%d allocations after memory map snapshot", f.lateAllocations)
	}
}

func TestBootExitFailure(t *testing.T) {
	f := newFirmware()
	f.rejections = 2

	l := testLoader(f, testVolume())

	l.Exec = func(_ uint64, _ uint64) {
		t.Fatal("unexpected control transfer")
	}

	err := l.Boot(testConfig(t, "kernel=/vmlinuz\ninitrd=/initrd.img\ncommand_line=quiet\n"))

	if !errors.Is(err, ErrExitBootServices) {
		t.Fatalf("unexpected error, %v", err)
	}

	if f.mapRequests != 2 || f.exited {
		t.Fatalf("unexpected exit sequence (%d requests)", f.mapRequests)
	}

	if l.State() != MemorySnapshotted {
		t.Fatalf("unexpected state %s", l.State())
	}

	// only GetMemoryMap is allowed after a rejected ExitBootServices
	if f.lateFrees != 0 {
		t.Fatalf("%d frees after ExitBootServices", f.lateFrees)
	}

	// kernel, zero page, initrd and command line stay allocated
	if len(f.pages) != 3 || len(f.pool) != 1 {
		t.Fatalf("unexpected staged memory (%d regions, %d blocks)", len(f.pages), len(f.pool))
	}
}

func TestBootInvalidKernel(t *testing.T) {
	for _, tt := range []struct {
		kernel string
		err    error
	}{
		{`\notakernel`, ErrFormat},
		{`\old-vmlinuz`, ErrKernelVersion},
	} {
		f := newFirmware()
		l := testLoader(f, testVolume())

		err := l.Boot(testConfig(t, "kernel="+tt.kernel+"\ninitrd=/initrd.img\ncommand_line=quiet\n"))

		if !errors.Is(err, tt.err) || !errors.Is(err, ErrFormat) {
			t.Fatalf("%s: unexpected error, %v", tt.kernel, err)
		}

		if !strings.Contains(err.Error(), tt.kernel) {
			t.Fatalf("%s: error does not name the kernel, %v", tt.kernel, err)
		}

		if l.State() != KernelStaged {
			t.Fatalf("%s: unexpected state %s", tt.kernel, l.State())
		}

		if len(f.pages) != 0 {
			t.Fatalf("%s: staged memory not released", tt.kernel)
		}
	}
}

func TestBootMissingFiles(t *testing.T) {
	f := newFirmware()
	l := testLoader(f, testVolume())

	err := l.Boot(testConfig(t, "kernel=/missing\ninitrd=/initrd.img\ncommand_line=quiet\n"))

	if !errors.Is(err, fs.ErrNotExist) || l.State() != Init {
		t.Fatalf("unexpected error, %v (%s)", err, l.State())
	}

	err = l.Boot(testConfig(t, "kernel=/vmlinuz\ninitrd=/initrd.img\ninitrd=/missing.img\ncommand_line=quiet\n"))

	if !errors.Is(err, fs.ErrNotExist) || !strings.Contains(err.Error(), `\missing.img`) {
		t.Fatalf("unexpected error, %v", err)
	}

	if l.State() != CommandLineSet {
		t.Fatalf("unexpected state %s", l.State())
	}

	if len(f.pages) != 0 || len(f.pool) != 0 {
		t.Fatal("staged memory not released")
	}
}

func TestBootShortRead(t *testing.T) {
	f := newFirmware()
	l := testLoader(f, &shortFS{testVolume()})

	err := l.Boot(testConfig(t, "kernel=/vmlinuz\ninitrd=/initrd.img\ncommand_line=quiet\n"))

	if !errors.Is(err, ErrIO) || !strings.Contains(err.Error(), `\vmlinuz`) {
		t.Fatalf("unexpected error, %v", err)
	}

	if l.State() != Init {
		t.Fatalf("unexpected state %s", l.State())
	}
}

func TestStateString(t *testing.T) {
	if s := InitrdStaged.String(); s != "InitrdStaged" {
		t.Fatalf("unexpected state name %s", s)
	}

	if s := State(42).String(); s != "Unknown" {
		t.Fatalf("unexpected state name %s", s)
	}
}
