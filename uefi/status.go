// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"fmt"
)

// EFI_STATUS error bit
const EFI_ERROR = 1 << 63

// EFI_STATUS codes, without the error bit
const (
	EFI_SUCCESS = iota
	EFI_LOAD_ERROR
	EFI_INVALID_PARAMETER
	EFI_UNSUPPORTED
	EFI_BAD_BUFFER_SIZE
	EFI_BUFFER_TOO_SMALL
	EFI_NOT_READY
	EFI_DEVICE_ERROR
	EFI_WRITE_PROTECTED
	EFI_OUT_OF_RESOURCES
	EFI_VOLUME_CORRUPTED
	EFI_VOLUME_FULL
	EFI_NO_MEDIA
	EFI_MEDIA_CHANGED
	EFI_NOT_FOUND
	EFI_ACCESS_DENIED
	EFI_NO_RESPONSE
	EFI_NO_MAPPING
	EFI_TIMEOUT
	EFI_NOT_STARTED
	EFI_ALREADY_STARTED
	EFI_ABORTED
)

// EFI_ABORTED status, as returned to the firmware on boot failure.
const EfiAborted = EFI_ERROR | EFI_ABORTED

// EFI_STATUS errors
var (
	ErrEfiLoadError        = errors.New("EFI_LOAD_ERROR")
	ErrEfiInvalidParameter = errors.New("EFI_INVALID_PARAMETER")
	ErrEfiUnsupported      = errors.New("EFI_UNSUPPORTED")
	ErrEfiBadBufferSize    = errors.New("EFI_BAD_BUFFER_SIZE")
	ErrEfiBufferTooSmall   = errors.New("EFI_BUFFER_TOO_SMALL")
	ErrEfiNotReady         = errors.New("EFI_NOT_READY")
	ErrEfiDeviceError      = errors.New("EFI_DEVICE_ERROR")
	ErrEfiWriteProtected   = errors.New("EFI_WRITE_PROTECTED")
	ErrEfiOutOfResources   = errors.New("EFI_OUT_OF_RESOURCES")
	ErrEfiVolumeCorrupted  = errors.New("EFI_VOLUME_CORRUPTED")
	ErrEfiVolumeFull       = errors.New("EFI_VOLUME_FULL")
	ErrEfiNoMedia          = errors.New("EFI_NO_MEDIA")
	ErrEfiMediaChanged     = errors.New("EFI_MEDIA_CHANGED")
	ErrEfiNotFound         = errors.New("EFI_NOT_FOUND")
	ErrEfiAccessDenied     = errors.New("EFI_ACCESS_DENIED")
	ErrEfiNoResponse       = errors.New("EFI_NO_RESPONSE")
	ErrEfiNoMapping        = errors.New("EFI_NO_MAPPING")
	ErrEfiTimeout          = errors.New("EFI_TIMEOUT")
	ErrEfiNotStarted       = errors.New("EFI_NOT_STARTED")
	ErrEfiAlreadyStarted   = errors.New("EFI_ALREADY_STARTED")
	ErrEfiAborted          = errors.New("EFI_ABORTED")
)

var statusErrors = map[uint64]error{
	EFI_LOAD_ERROR:        ErrEfiLoadError,
	EFI_INVALID_PARAMETER: ErrEfiInvalidParameter,
	EFI_UNSUPPORTED:       ErrEfiUnsupported,
	EFI_BAD_BUFFER_SIZE:   ErrEfiBadBufferSize,
	EFI_BUFFER_TOO_SMALL:  ErrEfiBufferTooSmall,
	EFI_NOT_READY:         ErrEfiNotReady,
	EFI_DEVICE_ERROR:      ErrEfiDeviceError,
	EFI_WRITE_PROTECTED:   ErrEfiWriteProtected,
	EFI_OUT_OF_RESOURCES:  ErrEfiOutOfResources,
	EFI_VOLUME_CORRUPTED:  ErrEfiVolumeCorrupted,
	EFI_VOLUME_FULL:       ErrEfiVolumeFull,
	EFI_NO_MEDIA:          ErrEfiNoMedia,
	EFI_MEDIA_CHANGED:     ErrEfiMediaChanged,
	EFI_NOT_FOUND:         ErrEfiNotFound,
	EFI_ACCESS_DENIED:     ErrEfiAccessDenied,
	EFI_NO_RESPONSE:       ErrEfiNoResponse,
	EFI_NO_MAPPING:        ErrEfiNoMapping,
	EFI_TIMEOUT:           ErrEfiTimeout,
	EFI_NOT_STARTED:       ErrEfiNotStarted,
	EFI_ALREADY_STARTED:   ErrEfiAlreadyStarted,
	EFI_ABORTED:           ErrEfiAborted,
}

// parseStatus converts an EFI_STATUS value to its matching error, warnings
// (status codes without the error bit) are reported as errors as well.
func parseStatus(status uint64) (err error) {
	if status == EFI_SUCCESS {
		return
	}

	if status&EFI_ERROR == 0 {
		return fmt.Errorf("EFI_STATUS warning %#x", status)
	}

	if err, ok := statusErrors[status&0xff]; ok {
		return err
	}

	return fmt.Errorf("EFI_STATUS error %#x (%d)", status, status&0xff)
}
