// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
)

// EFI Boot Services offset for WaitForEvent
const waitForEvent = 0x60

// WaitForEvent calls EFI_BOOT_SERVICES.WaitForEvent() and returns the index
// of the signaled event.
func (s *BootServices) WaitForEvent(events ...uint64) (index int, err error) {
	var i uint64

	if len(events) == 0 {
		return 0, errors.New("no events")
	}

	status := call(s.base+waitForEvent,
		uint64(len(events)),
		ptrval(&events[0]),
		ptrval(&i),
	)

	return int(i), parseStatus(status)
}
