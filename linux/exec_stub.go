// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !amd64

package linux

func exec(_ uint64, _ uint64) {
	panic("kernel execution requires GOARCH=amd64")
}
