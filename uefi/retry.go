// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"fmt"
)

// retryOnce invokes fn with a buffer of the argument size. When fn reports
// EFI_BUFFER_TOO_SMALL, along with the required size, the buffer is
// reallocated and fn is invoked a second and last time.
//
// The fn function must return the number of valid bytes on success or the
// required buffer size on EFI_BUFFER_TOO_SMALL.
func retryOnce(size int, fn func(buf []byte) (int, error)) (buf []byte, err error) {
	buf = make([]byte, size)
	n, err := fn(buf)

	if errors.Is(err, ErrEfiBufferTooSmall) {
		if n <= len(buf) {
			return nil, fmt.Errorf("invalid buffer size request (%d)", n)
		}

		buf = make([]byte, n)
		n, err = fn(buf)
	}

	if err != nil {
		return nil, err
	}

	if n > len(buf) {
		return nil, fmt.Errorf("invalid buffer size (%d)", n)
	}

	return buf[:n], nil
}
