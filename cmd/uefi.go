// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"regexp"
	"unicode/utf16"

	"github.com/usbarmory/go-loader/shell"
	"github.com/usbarmory/go-loader/uefi"
)

const maxVendorSize = 64

// ErrUnavailable is returned by commands requiring firmware services when
// these are not initialized or terminated.
var ErrUnavailable = errors.New("EFI services unavailable")

// services is the firmware context used by commands
var services *uefi.Services

func init() {
	shell.Add(shell.Cmd{
		Name: "uefi",
		Help: "UEFI information",
		Fn:   uefiCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "protocol",
		Args:    1,
		Pattern: regexp.MustCompile(`^protocol ([[:xdigit:]]{8}-[[:xdigit:]]{4}-[[:xdigit:]]{4}-[[:xdigit:]]{4}-[[:xdigit:]]{12})$`),
		Syntax:  "<registry format GUID>",
		Help:    "EFI_BOOT_SERVICES.LocateProtocol()",
		Fn:      locateCmd,
	})

	shell.Add(shell.Cmd{
		Name: "memmap",
		Help: "EFI_BOOT_SERVICES.GetMemoryMap()",
		Fn:   memmapCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "reset",
		Args:    1,
		Pattern: regexp.MustCompile(`^reset(?: (cold|warm))?$`),
		Help:    "EFI_RUNTIME_SERVICES.ResetSystem()",
		Syntax:  "(cold|warm)?",
		Fn:      resetCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "halt, shutdown",
		Args:    1,
		Pattern: regexp.MustCompile(`^(halt|shutdown)$`),
		Help:    "shutdown system",
		Fn:      shutdownCmd,
	})
}

func vendor(t *uefi.SystemTable) string {
	var s []uint16

	b, err := services.Memory.Bytes(t.FirmwareVendor, maxVendorSize)

	if err != nil {
		return "unknown"
	}

	for i := 0; i+1 < len(b); i += 2 {
		c := binary.LittleEndian.Uint16(b[i : i+2])

		if c == 0 {
			break
		}

		s = append(s, c)
	}

	return string(utf16.Decode(s))
}

func uefiCmd(_ *shell.Interface, _ []string) (res string, err error) {
	var buf bytes.Buffer

	if services == nil || services.SystemTable == nil {
		return "", ErrUnavailable
	}

	t := services.SystemTable

	fmt.Fprintf(&buf, "Firmware Vendor ....: %s\n", vendor(t))
	fmt.Fprintf(&buf, "Firmware Revision ..: %#x\n", t.FirmwareRevision)
	fmt.Fprintf(&buf, "UEFI Revision ......: %s\n", t.Revision())
	fmt.Fprintf(&buf, "Runtime Services  ..: %#x\n", t.RuntimeServices)
	fmt.Fprintf(&buf, "Boot Services ......: %#x\n", t.BootServices)

	if gop, err := services.Boot.GetGraphicsOutput(); err == nil {
		if fb, err := gop.Framebuffer(); err == nil {
			fmt.Fprintf(&buf, "Frame Buffer .......: %dx%d @ %#x\n",
				fb.Info.HorizontalResolution, fb.Info.VerticalResolution, fb.Base)
		}
	}

	fmt.Fprintf(&buf, "Configuration Tables: %#x\n", t.ConfigurationTable)

	if c, err := t.ConfigurationTables(); err == nil {
		for _, t := range c {
			fmt.Fprintf(&buf, "  %s (%#x)\n", t.GUID, t.VendorTable)
		}
	}

	return buf.String(), nil
}

func locateCmd(_ *shell.Interface, arg []string) (res string, err error) {
	if services == nil {
		return "", ErrUnavailable
	}

	guid, err := uefi.ParseGUID(arg[0])

	if err != nil {
		return
	}

	addr, err := services.Boot.LocateProtocol(guid)

	return fmt.Sprintf("%s: %#08x", guid, addr), err
}

// formatMemoryMap returns a table of memory map descriptors.
func formatMemoryMap(m *uefi.MemoryMap) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Type Start            End              Pages            Attributes\n")

	for _, desc := range m.Descriptors {
		fmt.Fprintf(&buf, "%02d   %016x %016x %016x %016x\n",
			desc.Type, desc.PhysicalStart, desc.PhysicalEnd()-1, desc.NumberOfPages, desc.Attribute)
	}

	fmt.Fprintf(&buf, "map key %#x, descriptor size %d, version %d",
		m.MapKey, m.DescriptorSize, m.DescriptorVersion)

	return buf.String()
}

func memmapCmd(_ *shell.Interface, _ []string) (res string, err error) {
	var memoryMap *uefi.MemoryMap

	if services == nil {
		return "", ErrUnavailable
	}

	if memoryMap, err = services.Boot.GetMemoryMap(); err != nil {
		return
	}

	return formatMemoryMap(memoryMap), nil
}

func resetCmd(_ *shell.Interface, arg []string) (_ string, err error) {
	var resetType int

	if services == nil {
		return "", ErrUnavailable
	}

	switch arg[0] {
	case "cold":
		resetType = uefi.EfiResetCold
	case "warm", "":
		resetType = uefi.EfiResetWarm
	case "shutdown":
		resetType = uefi.EfiResetShutdown
	}

	log.Printf("performing system reset type %d", resetType)
	err = services.Runtime.ResetSystem(resetType)

	return
}

func shutdownCmd(_ *shell.Interface, _ []string) (_ string, err error) {
	return resetCmd(nil, []string{"shutdown"})
}
