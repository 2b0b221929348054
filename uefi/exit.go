// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// EFI Boot Services offsets
const (
	exit             = 0xd8
	exitBootServices = 0xe8
)

// Exit calls EFI_BOOT_SERVICES.Exit(), on success it returns control to the
// firmware and never returns.
func (s *BootServices) Exit(status uint64) (err error) {
	return parseStatus(call(s.base+exit, s.imageHandle, status))
}

// ExitBootServices calls EFI_BOOT_SERVICES.ExitBootServices(), the map key
// must be obtained from the latest [BootServices.GetMemoryMap] invocation.
//
// On success no other Boot Services can be invoked, including console output.
func (s *BootServices) ExitBootServices(mapKey uint64) (err error) {
	return parseStatus(call(s.base+exitBootServices, s.imageHandle, mapKey))
}
