// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package linux

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/u-root/u-root/pkg/boot/bzimage"
)

// ZeroPageSize represents the size of the Linux boot parameters block.
const ZeroPageSize = 4096

const (
	// EFI loader signature for 64-bit firmware ("EL64")
	EFILoaderSignature64 = 0x34364c45

	// maximum number of zero page E820 entries
	MaxE820Entries = 128
	e820EntrySize  = 20

	// video mode "ask", type of loader "undefined"
	vidModeAsk      = 0xfffd
	loaderUndefined = 0xff

	// loadflags
	quietFlag  = 0x20
	canUseHeap = 0x80

	// orig_video_isVGA for EFI framebuffers
	videoTypeEFI = 0x70
	// screen_info capabilities
	videoCapability64BitBase = 0x02
)

// Field represents a boot parameters field, its offset is relative to the
// start of the zero page.
type Field struct {
	Name   string
	Offset int
	Size   int
}

// Zero page fields, as defined in Linux Documentation/arch/x86/zero-page.rst.
var (
	ScreenInfo      = Field{"screen_info", 0x000, 0x40}
	ExtRamdiskImage = Field{"ext_ramdisk_image", 0x0c0, 4}
	ExtRamdiskSize  = Field{"ext_ramdisk_size", 0x0c4, 4}
	ExtCmdLinePtr   = Field{"ext_cmd_line_ptr", 0x0c8, 4}
	CCBlobAddress   = Field{"cc_blob_address", 0x13c, 4}

	EFILoaderSignature = Field{"efi_loader_signature", 0x1c0, 4}
	EFISystemTable     = Field{"efi_systab", 0x1c4, 4}
	EFIMemDescSize     = Field{"efi_memdesc_size", 0x1c8, 4}
	EFIMemDescVersion  = Field{"efi_memdesc_version", 0x1cc, 4}
	EFIMemMap          = Field{"efi_memmap", 0x1d0, 4}
	EFIMemMapSize      = Field{"efi_memmap_size", 0x1d4, 4}
	EFISystemTableHi   = Field{"efi_systab_hi", 0x1d8, 4}
	EFIMemMapHi        = Field{"efi_memmap_hi", 0x1dc, 4}

	E820Entries = Field{"e820_entries", 0x1e8, 1}
	Header      = Field{"hdr", 0x1f1, 0x7b}
	E820Table   = Field{"e820_table", 0x2d0, MaxE820Entries * e820EntrySize}
)

// Setup header fields, as defined in Linux Documentation/arch/x86/boot.rst.
var (
	SetupSects        = Field{"setup_sects", 0x1f1, 1}
	VidMode           = Field{"vid_mode", 0x1fa, 2}
	BootFlag          = Field{"boot_flag", 0x1fe, 2}
	HeaderMagic       = Field{"header", 0x202, 4}
	Version           = Field{"version", 0x206, 2}
	TypeOfLoader      = Field{"type_of_loader", 0x210, 1}
	LoadFlags         = Field{"loadflags", 0x211, 1}
	Code32Start       = Field{"code32_start", 0x214, 4}
	RamdiskImage      = Field{"ramdisk_image", 0x218, 4}
	RamdiskSize       = Field{"ramdisk_size", 0x21c, 4}
	HeapEndPtr        = Field{"heap_end_ptr", 0x224, 2}
	CmdLinePtr        = Field{"cmd_line_ptr", 0x228, 4}
	InitrdAddrMax     = Field{"initrd_addr_max", 0x22c, 4}
	KernelAlignment   = Field{"kernel_alignment", 0x230, 4}
	RelocatableKernel = Field{"relocatable_kernel", 0x234, 1}
	XLoadFlags        = Field{"xloadflags", 0x236, 2}
	CmdlineSize       = Field{"cmdline_size", 0x238, 4}
	PrefAddress       = Field{"pref_address", 0x258, 8}
	InitSize          = Field{"init_size", 0x260, 4}
	HandoverOffset    = Field{"handover_offset", 0x264, 4}
	KernelInfoOffset  = Field{"kernel_info_offset", 0x268, 4}
)

// split returns the low and high 32-bit halves of a 64-bit value.
func split(v uint64) (lo uint32, hi uint32) {
	return uint32(v & 0xffffffff), uint32(v >> 32)
}

// BootParams represents the Linux x86 boot parameters block (zero page), all
// accesses are bounded to the fields of the zero page layout.
type BootParams struct {
	buf []byte
}

// NewBootParams returns a boot parameters instance over the argument buffer,
// which is zeroed.
func NewBootParams(buf []byte) (bp *BootParams, err error) {
	if len(buf) < ZeroPageSize {
		return nil, fmt.Errorf("invalid zero page size (%d)", len(buf))
	}

	buf = buf[:ZeroPageSize]
	clear(buf)

	return &BootParams{buf: buf}, nil
}

// Bytes returns the zero page buffer.
func (bp *BootParams) Bytes() []byte {
	return bp.buf
}

// Get returns the value of a zero page field of up to 8 bytes.
func (bp *BootParams) Get(f Field) (v uint64) {
	b := bp.buf[f.Offset : f.Offset+f.Size]

	switch f.Size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	default:
		panic("invalid field size")
	}
}

// Set updates a zero page field of up to 8 bytes, values exceeding the field
// width are truncated.
func (bp *BootParams) Set(f Field, v uint64) {
	b := bp.buf[f.Offset : f.Offset+f.Size]

	switch f.Size {
	case 1:
		b[0] = uint8(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	default:
		panic("invalid field size")
	}
}

func (bp *BootParams) setSplit(lo Field, hi Field, v uint64) {
	l, h := split(v)
	bp.Set(lo, uint64(l))
	bp.Set(hi, uint64(h))
}

// SetupHeader returns the setup header bytes.
func (bp *BootParams) SetupHeader() []byte {
	return bp.buf[Header.Offset : Header.Offset+Header.Size]
}

// CopySetupHeader copies the setup header from a kernel image, the copied
// length is bounded by the header end marker found at offset 0x201 of the
// image.
func (bp *BootParams) CopySetupHeader(image []byte) (n int, err error) {
	if len(image) <= 0x201 {
		return 0, fmt.Errorf("%w, image too short (%d bytes)", ErrFormat, len(image))
	}

	n = min(Header.Size, 0x0202+int(image[0x201])-Header.Offset)

	if Header.Offset+n > len(image) {
		return 0, fmt.Errorf("%w, truncated setup header", ErrFormat)
	}

	copy(bp.SetupHeader(), image[Header.Offset:Header.Offset+n])

	return
}

// SetLoader sets video mode, loader type and load flags as required by a boot
// loader which does not support heap or quiet boot handling.
func (bp *BootParams) SetLoader() {
	bp.Set(VidMode, vidModeAsk)
	bp.Set(TypeOfLoader, loaderUndefined)
	bp.Set(LoadFlags, bp.Get(LoadFlags)&^(quietFlag|canUseHeap))
}

// SetCommandLine sets the command line pointer.
func (bp *BootParams) SetCommandLine(addr uint64) {
	bp.setSplit(CmdLinePtr, ExtCmdLinePtr, addr)
}

// CommandLine returns the command line pointer.
func (bp *BootParams) CommandLine() uint64 {
	return bp.Get(CmdLinePtr) | bp.Get(ExtCmdLinePtr)<<32
}

// SetRamdisk sets the initial ramdisk location and size.
func (bp *BootParams) SetRamdisk(addr uint64, size uint64) {
	bp.setSplit(RamdiskImage, ExtRamdiskImage, addr)
	bp.setSplit(RamdiskSize, ExtRamdiskSize, size)
}

// Ramdisk returns the initial ramdisk location and size.
func (bp *BootParams) Ramdisk() (addr uint64, size uint64) {
	addr = bp.Get(RamdiskImage) | bp.Get(ExtRamdiskImage)<<32
	size = bp.Get(RamdiskSize) | bp.Get(ExtRamdiskSize)<<32
	return
}

// SetEFIInfo sets the EFI system table and memory map information.
func (bp *BootParams) SetEFIInfo(systemTable uint64, memoryMap uint64, memoryMapSize uint64, descriptorSize uint64, descriptorVersion uint32) {
	bp.Set(EFILoaderSignature, EFILoaderSignature64)
	bp.setSplit(EFISystemTable, EFISystemTableHi, systemTable)
	bp.Set(EFIMemDescSize, descriptorSize)
	bp.Set(EFIMemDescVersion, uint64(descriptorVersion))
	bp.setSplit(EFIMemMap, EFIMemMapHi, memoryMap)
	bp.Set(EFIMemMapSize, memoryMapSize)
}

// MergeE820 sorts the argument entries by address and merges adjacent ranges
// of the same type.
func MergeE820(entries []bzimage.E820Entry) (m []bzimage.E820Entry) {
	sorted := make([]bzimage.E820Entry, len(entries))
	copy(sorted, entries)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Addr < sorted[j].Addr
	})

	for _, e := range sorted {
		if e.Size == 0 {
			continue
		}

		if n := len(m); n > 0 && m[n-1].MemType == e.MemType && m[n-1].Addr+m[n-1].Size == e.Addr {
			m[n-1].Size += e.Size
			continue
		}

		m = append(m, e)
	}

	return
}

// SetE820 fills the E820 table with the argument entries, merged as in
// [MergeE820]. Entries exceeding the table capacity are dropped as the kernel
// relies on the EFI memory map when present.
func (bp *BootParams) SetE820(entries []bzimage.E820Entry) (n int) {
	table := bp.buf[E820Table.Offset : E820Table.Offset+E820Table.Size]
	clear(table)

	for _, e := range MergeE820(entries) {
		if n == MaxE820Entries {
			break
		}

		off := n * e820EntrySize
		binary.LittleEndian.PutUint64(table[off:], e.Addr)
		binary.LittleEndian.PutUint64(table[off+8:], e.Size)
		binary.LittleEndian.PutUint32(table[off+16:], uint32(e.MemType))

		n += 1
	}

	bp.Set(E820Entries, uint64(n))

	return
}
