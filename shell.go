// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64 && shell

package main

import (
	"github.com/usbarmory/go-loader/cmd"
	"github.com/usbarmory/go-loader/shell"
	"github.com/usbarmory/go-loader/uefi/x64"
)

func init() {
	cmd.Root = root
	cmd.Boot = boot

	startShell = func(banner string, configPath string) {
		cmd.ConfigPath = configPath

		iface := &shell.Interface{
			Banner:     banner,
			ReadWriter: x64.UEFI.Console,
		}

		// returns on exit, booting the default configuration
		iface.Start()
	}
}
