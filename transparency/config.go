// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package transparency

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

// Status represents the status of the boot transparency functionality.
type Status int

// Boot transparency status codes.
const (
	// Boot transparency disabled.
	None Status = iota

	// Boot transparency enabled, proofs are verified with the inclusion
	// proof stored in the proof bundle.
	Offline
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case None:
		return "none"
	case Offline:
		return "offline"
	default:
		return "unknown"
	}
}

// Boot transparency configuration root directory and filenames.
const (
	transparencyRoot = `transparency`

	bootPolicy    = `policy.json`
	witnessPolicy = `trust_policy`
	proofBundle   = `proof-bundle.json`
	submitKey     = `submit-key.pub`
	logKey        = `log-key.pub`
)

// Config represents the configuration for the boot transparency functionality.
type Config struct {
	// Status represents the status of the boot transparency functionality.
	Status Status

	// Root, when set, is the volume holding the per boot entry
	// configuration files, which are loaded on validation.
	Root fs.FS

	// BootPolicy represents the boot policy in JSON format
	// following the policy syntax supported by boot-transparency library.
	BootPolicy []byte

	// WitnessPolicy represents the witness policy following
	// the Sigsum plaintext witness policy format.
	WitnessPolicy []byte

	// SubmitKey represents the log submitter public key in OpenSSH format.
	SubmitKey []byte

	// LogKey represents the log public key in OpenSSH format.
	LogKey []byte

	// ProofBundle represents the proof bundle in JSON format
	// following the proof bundle format supported by boot-transparency library.
	ProofBundle []byte
}

// Path returns a unique configuration path for a given set of
// artifacts (i.e. boot entry).
// Returns error if one of the artifacts does not include a valid
// SHA-256 hash.
func (c *Config) Path(b BootEntry) (entryPath string, err error) {
	if len(b) == 0 {
		return "", fmt.Errorf("cannot build configuration path, got an empty boot entry")
	}

	artifacts := make(BootEntry, len(b))
	copy(artifacts, b)

	// sort by category for a stable path regardless of entry order
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Category < artifacts[j].Category
	})

	entryPath = transparencyRoot

	for _, a := range artifacts {
		if err = a.validHash(); err != nil {
			return "", fmt.Errorf("cannot build configuration path, got an invalid artifact hash")
		}

		entryPath = path.Join(entryPath, hex.EncodeToString(a.Hash))
	}

	return
}

// load reads the transparency configuration files of a boot entry from the
// configured root volume.
func (c *Config) load(entryPath string) (err error) {
	assets := map[string]*[]byte{
		bootPolicy:    &c.BootPolicy,
		witnessPolicy: &c.WitnessPolicy,
		submitKey:     &c.SubmitKey,
		logKey:        &c.LogKey,
		proofBundle:   &c.ProofBundle,
	}

	for filename, dst := range assets {
		p := path.Join(entryPath, filename)

		if *dst, err = fs.ReadFile(c.Root, p); err != nil {
			return fmt.Errorf("cannot load configuration file %s, %v", filename, err)
		}
	}

	return
}
