// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

const (
	EFI_LOADED_IMAGE_PROTOCOL_REVISION       = 0x00001000
	EFI_SIMPLE_FILE_SYSTEM_PROTOCOL_REVISION = 0x00010000
	EFI_FILE_PROTOCOL_REVISION               = 0x00010000
	EFI_FILE_PROTOCOL_REVISION2              = 0x00020000

	// EFI_SIMPLE_FILE_SYSTEM_PROTOCOL offset for OpenVolume
	openVolume = 0x08
)

// loadedImage represents an EFI Loaded Image Protocol instance.
type loadedImage struct {
	Revision        uint32
	_               uint32
	ParentHandle    uint64
	SystemTable     uint64
	DeviceHandle    uint64
	FilePath        uint64
	_               uint64
	LoadOptionsSize uint32
	_               uint32
	LoadOptions     uint64
	ImageBase       uint64
	ImageSize       uint64
	ImageCodeType   uint32
	ImageDataType   uint32
	Unload          uint64
}

// FS implements the [fs.FS] interface for an EFI Simple File System.
type FS struct {
	image  *loadedImage
	addr   uint64
	volume *File
}

// openError maps EFI_FILE_PROTOCOL.Open() errors to their [fs] equivalent.
func openError(err error) error {
	switch {
	case errors.Is(err, ErrEfiNotFound):
		return fs.ErrNotExist
	case errors.Is(err, ErrEfiAccessDenied):
		return fs.ErrPermission
	}

	return err
}

// Open opens the named file in read mode, [File.Close] must be called to
// release any associated resources.
//
// Names follow [fs.ValidPath] rules, forward slashes are converted to the
// EFI path separator.
func (root *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	if root.volume == nil || root.volume.addr == 0 {
		return nil, &fs.PathError{Op: "open", Path: name, Err: errors.New("invalid file system instance")}
	}

	path := `\`

	if name != "." {
		path = strings.ReplaceAll(name, "/", `\`)
	}

	f, err := root.volume.open(path, EFI_FILE_MODE_READ)

	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: openError(err)}
	}

	f.name = name

	return f, nil
}

// ImagePath returns the path, within the volume, of the running EFI image.
func (root *FS) ImagePath() (string, error) {
	if root.image == nil || root.image.FilePath == 0 {
		return "", errors.New("image file path unavailable")
	}

	buf, err := (&Memory{}).Bytes(root.image.FilePath, bufferSize)

	if err != nil {
		return "", err
	}

	nodes, err := parseDevicePath(buf)

	if err != nil {
		return "", err
	}

	return FilePathName(nodes)
}

func (s *BootServices) loadImageHandle(imageHandle uint64) (image *loadedImage, err error) {
	var addr uint64

	if addr, err = s.HandleProtocol(imageHandle, EFI_LOADED_IMAGE_PROTOCOL_GUID); err != nil {
		return
	}

	image = &loadedImage{}

	if err = decode(image, addr); err != nil {
		return
	}

	if image.Revision != EFI_LOADED_IMAGE_PROTOCOL_REVISION {
		return nil, fmt.Errorf("invalid loaded image protocol revision (%#x)", image.Revision)
	}

	return
}

// Root returns an EFI Simple File System instance for the volume holding the
// running EFI image.
func (s *Services) Root() (root *FS, err error) {
	var revision uint64
	var volume uint64

	root = &FS{}

	if root.image, err = s.Boot.loadImageHandle(s.imageHandle); err != nil {
		return nil, fmt.Errorf("could not locate loaded image, %w", err)
	}

	if root.addr, err = s.Boot.HandleProtocol(root.image.DeviceHandle, EFI_SIMPLE_FILE_SYSTEM_PROTOCOL_GUID); err != nil {
		return nil, fmt.Errorf("could not locate file system, %w", err)
	}

	if err = decode(&revision, root.addr); err != nil {
		return
	}

	if revision != EFI_SIMPLE_FILE_SYSTEM_PROTOCOL_REVISION {
		return nil, fmt.Errorf("invalid file system protocol revision (%#x)", revision)
	}

	status := call(root.addr+openVolume, root.addr, ptrval(&volume))

	if err = parseStatus(status); err != nil {
		return nil, fmt.Errorf("could not open volume, %w", err)
	}

	if err = decode(&revision, volume); err != nil {
		return
	}

	if revision != EFI_FILE_PROTOCOL_REVISION && revision != EFI_FILE_PROTOCOL_REVISION2 {
		return nil, fmt.Errorf("invalid file protocol revision (%#x)", revision)
	}

	root.volume = &File{name: ".", addr: volume}

	return
}
