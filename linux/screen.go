// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package linux

import (
	"math/bits"

	"github.com/usbarmory/go-loader/uefi"
)

// screen_info fields, offsets are relative to the zero page start as
// screen_info is its first member.
var (
	OrigVideoIsVGA = Field{"orig_video_isVGA", 0x0f, 1}
	LfbWidth       = Field{"lfb_width", 0x12, 2}
	LfbHeight      = Field{"lfb_height", 0x14, 2}
	LfbDepth       = Field{"lfb_depth", 0x16, 2}
	LfbBase        = Field{"lfb_base", 0x18, 4}
	LfbSize        = Field{"lfb_size", 0x1c, 4}
	LfbLineLength  = Field{"lfb_linelength", 0x24, 2}
	RedSize        = Field{"red_size", 0x26, 1}
	RedPos         = Field{"red_pos", 0x27, 1}
	GreenSize      = Field{"green_size", 0x28, 1}
	GreenPos       = Field{"green_pos", 0x29, 1}
	BlueSize       = Field{"blue_size", 0x2a, 1}
	BluePos        = Field{"blue_pos", 0x2b, 1}
	RsvdSize       = Field{"rsvd_size", 0x2c, 1}
	RsvdPos        = Field{"rsvd_pos", 0x2d, 1}
	Capabilities   = Field{"capabilities", 0x36, 4}
	ExtLfbBase     = Field{"ext_lfb_base", 0x3a, 4}
)

// maskInfo returns the position and width of a contiguous bit mask.
func maskInfo(mask uint32) (pos uint64, size uint64) {
	if mask == 0 {
		return
	}

	pos = uint64(bits.TrailingZeros32(mask))
	size = uint64(bits.OnesCount32(mask))

	return
}

// SetScreenInfo describes the argument EFI framebuffer in screen_info, for
// use by the kernel EFI framebuffer driver.
func (bp *BootParams) SetScreenInfo(fb *uefi.Framebuffer) {
	var red, green, blue, rsvd uint32

	info := fb.Info

	switch info.PixelFormat {
	case uefi.PixelRedGreenBlueReserved8BitPerColor:
		red, green, blue, rsvd = 0x000000ff, 0x0000ff00, 0x00ff0000, 0xff000000
	case uefi.PixelBlueGreenRedReserved8BitPerColor:
		red, green, blue, rsvd = 0x00ff0000, 0x0000ff00, 0x000000ff, 0xff000000
	case uefi.PixelBitMask:
		red, green, blue, rsvd = info.RedMask, info.GreenMask, info.BlueMask, info.ReservedMask
	default:
		return
	}

	depth := bits.OnesCount32(red | green | blue | rsvd)

	bp.Set(OrigVideoIsVGA, videoTypeEFI)
	bp.Set(LfbWidth, uint64(info.HorizontalResolution))
	bp.Set(LfbHeight, uint64(info.VerticalResolution))
	bp.Set(LfbDepth, uint64(depth))
	bp.Set(LfbLineLength, uint64(info.PixelsPerScanLine)*uint64(depth/8))
	bp.Set(LfbSize, fb.Size)
	bp.setSplit(LfbBase, ExtLfbBase, fb.Base)

	if fb.Base>>32 != 0 {
		bp.Set(Capabilities, bp.Get(Capabilities)|videoCapability64BitBase)
	}

	for _, c := range []struct {
		mask uint32
		pos  Field
		size Field
	}{
		{red, RedPos, RedSize},
		{green, GreenPos, GreenSize},
		{blue, BluePos, BlueSize},
		{rsvd, RsvdPos, RsvdSize},
	} {
		pos, size := maskInfo(c.mask)
		bp.Set(c.pos, pos)
		bp.Set(c.size, size)
	}
}
