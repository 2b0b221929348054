// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// GUID represents an EFI GUID in its in-memory layout, where the first three
// registry format fields are stored little-endian.
type GUID [16]byte

// ParseGUID parses a GUID in registry format
// (xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx).
func ParseGUID(s string) (g GUID, err error) {
	fields := strings.Split(s, "-")

	if len(s) != 36 || len(fields) != 5 {
		return GUID{}, fmt.Errorf("invalid GUID format: %q", s)
	}

	buf, err := hex.DecodeString(strings.Join(fields, ""))

	if err != nil || len(buf) != len(g) {
		return GUID{}, fmt.Errorf("invalid GUID format: %q", s)
	}

	binary.LittleEndian.PutUint32(g[0:4], binary.BigEndian.Uint32(buf[0:4]))
	binary.LittleEndian.PutUint16(g[4:6], binary.BigEndian.Uint16(buf[4:6]))
	binary.LittleEndian.PutUint16(g[6:8], binary.BigEndian.Uint16(buf[6:8]))
	copy(g[8:], buf[8:])

	return
}

// MustParseGUID is like ParseGUID but panics on error, for package level
// declarations.
func MustParseGUID(s string) GUID {
	g, err := ParseGUID(s)

	if err != nil {
		panic(err)
	}

	return g
}

// ptrval returns the address of a heap copy of the GUID, to be passed as EFI
// service argument.
func (g GUID) ptrval() uint64 {
	buf := make([]byte, len(g))
	copy(buf, g[:])

	return ptrval(&buf[0])
}

// String returns the GUID in registry format.
func (g GUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%x-%x",
		binary.LittleEndian.Uint32(g[0:4]),
		binary.LittleEndian.Uint16(g[4:6]),
		binary.LittleEndian.Uint16(g[6:8]),
		g[8:10],
		g[10:])
}
