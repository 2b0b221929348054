// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !(tamago && amd64)

package uefi

import (
	"errors"
)

func callService(_ uint64, _ []uint64) (status uint64) {
	return EFI_ERROR | EFI_UNSUPPORTED
}

// Memory provides access to physical memory ranges owned by the firmware or
// allocated through it.
type Memory struct{}

// Bytes returns a slice mapping the argument physical memory range.
func (m *Memory) Bytes(addr uint64, size int) ([]byte, error) {
	return nil, errors.New("physical memory access requires GOOS=tamago")
}
