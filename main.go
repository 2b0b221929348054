// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64

// The go-loader UEFI application loads and boots a Linux kernel, with its
// initial ramdisk images and command line, from the EFI volume holding the
// application image.
//
// The kernel, initrd and command line are read from a configuration file
// named after the application image path with the ".conf" suffix appended
// (e.g. "\EFI\BOOT\BOOTX64.EFI.conf"):
//
//	kernel=\vmlinuz
//	initrd=\initrd.img
//	command_line=console=ttyS0,115200,8n1 root=/dev/sda2
package main

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"runtime"

	"github.com/usbarmory/go-loader/alloc"
	"github.com/usbarmory/go-loader/cmd"
	"github.com/usbarmory/go-loader/config"
	"github.com/usbarmory/go-loader/linux"
	"github.com/usbarmory/go-loader/transparency"
	"github.com/usbarmory/go-loader/uefi"
	"github.com/usbarmory/go-loader/uefi/x64"
)

// set at build time with -ldflags -X
var (
	Build    string
	Revision string
)

// set in shell.go
var startShell func(banner string, configPath string)

func init() {
	log.SetFlags(0)

	if logFile, err := os.OpenFile(cmd.RuntimeLog, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600); err == nil {
		log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	}
}

func root() (fs.FS, error) {
	r, err := x64.UEFI.Root()

	if err != nil {
		return nil, fmt.Errorf("could not open root volume, %v", err)
	}

	return r, nil
}

func configPath() (string, error) {
	r, err := x64.UEFI.Root()

	if err != nil {
		return "", fmt.Errorf("could not open root volume, %v", err)
	}

	p, err := r.ImagePath()

	if err != nil {
		return "", fmt.Errorf("could not resolve image path, %v", err)
	}

	return p + config.Suffix, nil
}

// boot stages and executes the kernel, it returns only on error.
func boot(conf *config.Config) (err error) {
	volume, err := root()

	if err != nil {
		return
	}

	if err = conf.Validate(); err != nil {
		return
	}

	if err = transparency.Check(volume, conf); err != nil {
		return fmt.Errorf("boot-transparency validation failed, %v", err)
	}

	l := &linux.Loader{
		Root: volume,
		Pages: &alloc.Pages{
			Boot:   x64.UEFI.Boot,
			Memory: x64.UEFI.Memory,
		},
		Pool: &alloc.Pool{
			Boot:   x64.UEFI.Boot,
			Memory: x64.UEFI.Memory,
		},
		Firmware:    x64.UEFI.Boot,
		SystemTable: x64.UEFI.Address(),
		Cleanup:     x64.Detach,
	}

	if gop, err := x64.UEFI.Boot.GetGraphicsOutput(); err == nil {
		l.Graphics = gop
	}

	log.Printf("loading kernel %s", conf.Kernel)

	if err = l.Boot(conf); err != nil {
		err = fmt.Errorf("boot failed at %s, %w", l.State(), err)
	}

	return
}

func run(banner string) (err error) {
	path, err := configPath()

	if err != nil {
		return
	}

	if startShell != nil {
		startShell(banner, path)
	}

	volume, err := root()

	if err != nil {
		return
	}

	log.Printf("loading configuration %s", path)

	conf, err := config.Load(volume, path)

	if err != nil {
		return
	}

	return boot(conf)
}

// abort waits for user acknowledgment and returns control to the firmware.
func abort() {
	if x64.UEFI.Boot == nil {
		runtime.Exit(1)
	}

	// prevent firmware reset while waiting
	x64.UEFI.Boot.SetWatchdogTimer(0)

	fmt.Fprintf(x64.UEFI.Console, "Press any key to continue.\n")

	if _, err := x64.UEFI.Console.WaitForKey(); err != nil {
		log.Printf("could not read key, %v", err)
	}

	if err := x64.UEFI.Boot.Exit(uefi.EfiAborted); err != nil {
		log.Printf("could not exit, %v", err)
	}

	runtime.Exit(1)
}

func main() {
	banner := fmt.Sprintf("%s/%s (%s) • %s %s • UEFI Linux loader",
		runtime.GOOS, runtime.GOARCH, runtime.Version(), Revision, Build)

	log.Println(banner)

	if err := run(banner); err != nil {
		log.Printf("%v", err)
	}

	abort()
}
