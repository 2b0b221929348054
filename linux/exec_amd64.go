// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build amd64

package linux

// defined in exec_amd64.s
func exec(entry uint64, params uint64)
