// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"encoding/binary"
	"unicode/utf16"
)

// toUTF16 converts the argument string to a NUL terminated UCS-2 buffer.
func toUTF16(s string) (buf []byte) {
	for _, r := range utf16.Encode([]rune(s)) {
		buf = binary.LittleEndian.AppendUint16(buf, r)
	}

	return append(buf, 0x00, 0x00)
}

// fromUTF16 converts the argument UCS-2 buffer to a string, stopping at the
// first NUL character.
func fromUTF16(buf []byte) string {
	var s []uint16

	for i := 0; i+1 < len(buf); i += 2 {
		r := binary.LittleEndian.Uint16(buf[i:])

		if r == 0x0000 {
			break
		}

		s = append(s, r)
	}

	return string(utf16.Decode(s))
}
