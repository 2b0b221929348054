// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build transparency

package transparency

import (
	"io/fs"
	"log"

	"github.com/usbarmory/go-loader/config"
)

// Check validates the kernel and initrd images referenced by the loader
// configuration against the boot-transparency configuration stored, for
// this boot entry, on the root volume.
func Check(root fs.FS, conf *config.Config) (err error) {
	entry, err := Entry(root, conf)
	if err != nil {
		return
	}

	c := &Config{
		Status: Offline,
		Root:   root,
	}

	if err = entry.Validate(c); err != nil {
		return
	}

	log.Printf("boot-transparency validation passed (%s)", c.Status)

	return
}
