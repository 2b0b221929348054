// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package transparency implements an interface to the
// boot-transparency library functions to ease validation of the kernel
// and initrd images staged by the loader.
package transparency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/usbarmory/boot-transparency/artifact"
	"github.com/usbarmory/boot-transparency/policy"
	"github.com/usbarmory/boot-transparency/transparency"
)

// Artifact represents a boot artifact.
type Artifact struct {
	// Category represents the artifact category as defined
	// in the boot-transparency library.
	Category uint

	// Hash represents the SHA256 checksum of the artifact.
	Hash []byte
}

// BootEntry represents a boot entry as a set of artifacts.
type BootEntry []Artifact

// ErrHashMismatch represents an hash mismatch error.
var ErrHashMismatch = errors.New("hash mismatch")

// ErrHashInvalid represents an hash invalid error.
var ErrHashInvalid = errors.New("hash invalid")

// NewArtifact returns an artifact of the given category, hashing all
// readers in order as a single image.
func NewArtifact(category uint, r ...io.Reader) (a Artifact, err error) {
	h := sha256.New()

	for _, rd := range r {
		if _, err = io.Copy(h, rd); err != nil {
			return
		}
	}

	return Artifact{
		Category: category,
		Hash:     h.Sum(nil),
	}, nil
}

// Validate applies boot-transparency validation (e.g. inclusion proof,
// boot policy and claims consistency) for the argument [Config] representing
// the boot artifacts.
// Returns error if the boot artifacts are not passing the validation.
func (b BootEntry) Validate(c *Config) (err error) {
	if c.Status == None {
		return
	}

	if len(b) == 0 {
		return fmt.Errorf("invalid boot entry")
	}

	if c.Root != nil {
		entryPath, err := c.Path(b)
		if err != nil {
			return fmt.Errorf("cannot load boot-transparency configuration, %v", err)
		}

		if err = c.load(entryPath); err != nil {
			return fmt.Errorf("cannot load boot-transparency configuration, %v", err)
		}
	}

	te, err := transparency.GetEngine(transparency.Sigsum)
	if err != nil {
		return fmt.Errorf("unable to get transparency engine, %v", err)
	}

	if err = te.SetKey(c.LogKey, c.SubmitKey); err != nil {
		return fmt.Errorf("unable to set log and submitter keys, %v", err)
	}

	if err = te.SetWitnessPolicy(c.WitnessPolicy); err != nil {
		return fmt.Errorf("unable to set witness policy, %v", err)
	}

	format, statement, proof, _, _, err := transparency.ParseProofBundle(c.ProofBundle)
	if err != nil {
		return fmt.Errorf("unable to parse the proof bundle, %v", err)
	}

	if format != transparency.Sigsum {
		return fmt.Errorf("proof bundle format doesn't match the transparency engine")
	}

	if err = te.VerifyProof(statement, proof, nil); err != nil {
		return
	}

	requirements, err := policy.ParseRequirements(c.BootPolicy)
	if err != nil {
		return
	}

	claims, err := policy.ParseStatement(statement)
	if err != nil {
		return
	}

	// loaded artifact hashes must match the logged ones
	if err = b.validateProofHashes(claims); err != nil {
		return
	}

	// logged claims must meet the policy requirements
	return policy.Validate(requirements, claims)
}

func (b BootEntry) validateProofHashes(s *policy.Statement) (err error) {
	for _, a := range b {
		if err = a.validateProofHash(s); err != nil {
			return err
		}
	}

	return
}

// validateProofHash checks that the artifact hash is claimed, for its
// category, by the proof bundle statement.
func (a Artifact) validateProofHash(s *policy.Statement) (err error) {
	var h artifact.Handler
	var found bool

	if err = a.validHash(); err != nil {
		return
	}

	for _, claimedArtifact := range s.Artifacts {
		if a.Category != claimedArtifact.Category {
			continue
		}

		if h, err = artifact.GetHandler(a.Category); err != nil {
			return
		}

		requirements, _ := json.Marshal(map[string]string{"file_hash": hex.EncodeToString(a.Hash)})

		r, err := h.ParseRequirements(requirements)
		if err != nil {
			return err
		}

		c, err := h.ParseClaims([]byte(claimedArtifact.Claims))
		if err != nil {
			return err
		}

		if err = h.Validate(r, c); err != nil {
			return fmt.Errorf("%w for artifact category %d, file hash %q", ErrHashMismatch, a.Category, hex.EncodeToString(a.Hash))
		}

		found = true
		break
	}

	if !found {
		return fmt.Errorf("artifact category %d is not present in the proof bundle", a.Category)
	}

	return
}

func (a Artifact) validHash() (err error) {
	if len(a.Hash) != artifact.HashSize {
		err = fmt.Errorf("%w for artifact category %d", ErrHashInvalid, a.Category)
	}

	return
}
