// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

const (
	// EFI Boot Services offset for SetWatchdogTimer
	setWatchdogTimer = 0x100
	watchdogCode     = 0x10000
)

// SetWatchdogTimer calls EFI_BOOT_SERVICES.SetWatchdogTimer(), a zero timeout
// disables the watchdog.
func (s *BootServices) SetWatchdogTimer(sec int) (err error) {
	return parseStatus(call(s.base+setWatchdogTimer, uint64(sec), watchdogCode))
}
