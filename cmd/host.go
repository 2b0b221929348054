// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !(tamago && amd64)

package cmd

import (
	"errors"
	"time"
)

var started = time.Now()

func date(_ int64) error {
	return errors.New("date change not supported")
}

func uptime() time.Duration {
	return time.Since(started)
}
