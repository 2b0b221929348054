// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// EFI Boot Services offsets
const (
	handleProtocol = 0x098
	locateProtocol = 0x140
)

// Protocol GUIDs
var (
	EFI_LOADED_IMAGE_PROTOCOL_GUID       = MustParseGUID("5b1b31a1-9562-11d2-8e3f-00a0c969723b")
	EFI_DEVICE_PATH_PROTOCOL_GUID        = MustParseGUID("09576e91-6d3f-11d2-8e39-00a0c969723b")
	EFI_SIMPLE_FILE_SYSTEM_PROTOCOL_GUID = MustParseGUID("964e5b22-6459-11d2-8e39-00a0c969723b")
	EFI_FILE_INFO_ID                     = MustParseGUID("09576e92-6d3f-11d2-8e39-00a0c969723b")
)

// HandleProtocol calls EFI_BOOT_SERVICES.HandleProtocol().
func (s *BootServices) HandleProtocol(handle uint64, guid GUID) (addr uint64, err error) {
	status := call(s.base+handleProtocol,
		handle,
		guid.ptrval(),
		ptrval(&addr),
	)

	return addr, parseStatus(status)
}

// LocateProtocol calls EFI_BOOT_SERVICES.LocateProtocol().
func (s *BootServices) LocateProtocol(guid GUID) (addr uint64, err error) {
	status := call(s.base+locateProtocol,
		guid.ptrval(),
		0,
		ptrval(&addr),
	)

	return addr, parseStatus(status)
}
