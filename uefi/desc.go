// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const align = 8

func marshalBinary(data any) (buf []byte, err error) {
	b := new(bytes.Buffer)
	err = binary.Write(b, binary.LittleEndian, data)
	return b.Bytes(), err
}

func unmarshalBinary(buf []byte, data any) (err error) {
	_, err = binary.Decode(buf, binary.LittleEndian, data)
	return
}

// decode unmarshals the EFI structure found at the argument physical address.
func decode(data any, addr uint64) (err error) {
	if addr == 0 {
		return errors.New("invalid address")
	}

	n := binary.Size(data)

	if n <= 0 {
		return errors.New("invalid structure")
	}

	buf, err := (&Memory{}).Bytes(addr, n+(n%align))

	if err != nil {
		return
	}

	return unmarshalBinary(buf, data)
}
