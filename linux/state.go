// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package linux

// State represents the boot sequence progress.
type State int

// Boot sequence states, in order.
const (
	Init State = iota
	KernelStaged
	HeaderValidated
	CommandLineSet
	InitrdStaged
	MemorySnapshotted
	ServicesEnded
	ControlTransferred
)

var stateNames = []string{
	"Init",
	"KernelStaged",
	"HeaderValidated",
	"CommandLineSet",
	"InitrdStaged",
	"MemorySnapshotted",
	"ServicesEnded",
	"ControlTransferred",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}

	return stateNames[s]
}
