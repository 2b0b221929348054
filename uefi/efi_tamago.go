// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64

package uefi

import (
	"errors"

	"github.com/usbarmory/tamago/dma"
)

// Firmware services run on their own stack as they are unaware of Go stack
// growth.
const firmwareStackSize = 64 * 1024

// used in efi_amd64.s
var firmwareStack [firmwareStackSize]byte

// defined in efi_amd64.s
func callService(fn uint64, args []uint64) (status uint64)

// Memory provides access to physical memory ranges owned by the firmware or
// allocated through it.
type Memory struct{}

// Bytes returns a slice mapping the argument physical memory range.
func (m *Memory) Bytes(addr uint64, size int) (buf []byte, err error) {
	if addr == 0 {
		return nil, errors.New("invalid address")
	}

	if size == 0 {
		return []byte{}, nil
	}

	r, err := dma.NewRegion(uint(addr), size, true)

	if err != nil {
		return
	}

	_, buf = r.Reserve(size, 0)

	return
}
