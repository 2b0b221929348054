// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !transparency

package transparency

import (
	"io/fs"

	"github.com/usbarmory/go-loader/config"
)

// Check is a no-op when boot transparency is not compiled in.
func Check(root fs.FS, conf *config.Config) (err error) {
	return
}
