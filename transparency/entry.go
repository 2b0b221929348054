// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package transparency

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/usbarmory/boot-transparency/artifact"

	"github.com/usbarmory/go-loader/config"
)

// Entry returns the boot entry for a loader configuration, the initrd
// artifact hash covers all configured initrd images concatenated in order,
// matching the bundle handed to the kernel.
//
// The configuration is validated before any file is opened.
func Entry(root fs.FS, conf *config.Config) (b BootEntry, err error) {
	var readers []io.Reader

	if err = conf.Validate(); err != nil {
		return
	}

	kernel, err := root.Open(conf.Kernel)
	if err != nil {
		return nil, fmt.Errorf("cannot open kernel, %w", err)
	}
	defer kernel.Close()

	k, err := NewArtifact(artifact.LinuxKernel, kernel)
	if err != nil {
		return nil, fmt.Errorf("cannot hash kernel, %v", err)
	}

	b = append(b, k)

	for _, name := range conf.Initrd {
		f, err := root.Open(name)
		if err != nil {
			return nil, fmt.Errorf("cannot open initrd, %w", err)
		}
		defer f.Close()

		readers = append(readers, f)
	}

	if len(readers) == 0 {
		return
	}

	i, err := NewArtifact(artifact.Initrd, readers...)
	if err != nil {
		return nil, fmt.Errorf("cannot hash initrd, %v", err)
	}

	return append(b, i), nil
}
