// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package x64

import (
	_ "unsafe"

	"github.com/usbarmory/go-loader/uefi"
)

// Console represents the early UEFI services console for pre UEFI.Init()
// standard output.
var Console = &uefi.Console{
	ForceLine: true,
}

//go:linkname printk runtime.printk
func printk(c byte) {
	UART0.Tx(c)

	// first output after entry attaches the instances set in x64.s
	if !Console.Attach(conIn, conOut) {
		return
	}

	if c == 0x0a && Console.ForceLine { // LF
		Console.Output([]byte{0x0d, 0x00}) // CR
	}

	Console.Output([]byte{c, 0x00})
}
