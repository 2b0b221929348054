// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
)

var EFI_GRAPHICS_OUTPUT_PROTOCOL_GUID = MustParseGUID("9042a9de-23dc-4a38-96fb-7aded080516a")

// EFI_GRAPHICS_PIXEL_FORMAT
const (
	PixelRedGreenBlueReserved8BitPerColor = iota
	PixelBlueGreenRedReserved8BitPerColor
	PixelBitMask
	PixelBltOnly
	PixelFormatMax
)

// ModeInformation represents an EFI Graphics Output Mode Information instance.
type ModeInformation struct {
	Version              uint32
	HorizontalResolution uint32
	VerticalResolution   uint32
	PixelFormat          uint32
	RedMask              uint32
	GreenMask            uint32
	BlueMask             uint32
	ReservedMask         uint32
	PixelsPerScanLine    uint32
}

// ProtocolMode represents an EFI Graphics Output Protocol Mode instance.
type ProtocolMode struct {
	MaxMode         uint32
	Mode            uint32
	Info            uint64
	SizeOfInfo      uint64
	FrameBufferBase uint64
	FrameBufferSize uint64
}

// Framebuffer describes the linear framebuffer of the current graphics mode.
type Framebuffer struct {
	Base uint64
	Size uint64

	Info ModeInformation
}

// GraphicsOutput represents an EFI Graphics Output Protocol instance.
type GraphicsOutput struct {
	base uint64
	mode uint64
}

// GetMode returns the EFI Graphics Output Mode instance.
func (gop *GraphicsOutput) GetMode() (pm *ProtocolMode, err error) {
	pm = &ProtocolMode{}
	err = decode(pm, gop.mode)
	return
}

// Framebuffer returns the current mode linear framebuffer, modes without
// direct framebuffer access are reported as an error.
func (gop *GraphicsOutput) Framebuffer() (fb *Framebuffer, err error) {
	pm, err := gop.GetMode()

	if err != nil {
		return
	}

	fb = &Framebuffer{
		Base: pm.FrameBufferBase,
		Size: pm.FrameBufferSize,
	}

	if err = decode(&fb.Info, pm.Info); err != nil {
		return nil, err
	}

	if fb.Info.PixelFormat >= PixelBltOnly || fb.Base == 0 {
		return nil, errors.New("graphics mode has no linear framebuffer")
	}

	return
}

// GetGraphicsOutput locates and returns the EFI Graphics Output Protocol
// instance.
func (s *BootServices) GetGraphicsOutput() (gop *GraphicsOutput, err error) {
	gop = &GraphicsOutput{}

	var data struct {
		QueryMode uint64
		SetMode   uint64
		Blt       uint64
		Mode      uint64
	}

	if gop.base, err = s.LocateProtocol(EFI_GRAPHICS_OUTPUT_PROTOCOL_GUID); err != nil {
		return
	}

	if err = decode(&data, gop.base); err != nil {
		return
	}

	gop.mode = data.Mode

	return
}
