// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"io"
	"io/fs"
)

// EFI_FILE_PROTOCOL offsets
const (
	fileOpen    = 0x08
	fileClose   = 0x10
	fileRead    = 0x20
	fileGetInfo = 0x40
)

// EFI_FILE_PROTOCOL open modes
const (
	EFI_FILE_MODE_READ   = 0x0000000000000001
	EFI_FILE_MODE_WRITE  = 0x0000000000000002
	EFI_FILE_MODE_CREATE = 0x8000000000000000
)

// File implements the [fs.File] and [fs.ReadDirFile] interfaces over an EFI
// File Protocol instance.
type File struct {
	name string
	addr uint64
}

// open calls EFI_FILE_PROTOCOL.Open() relative to the file instance.
func (f *File) open(name string, mode uint64) (nf *File, err error) {
	var addr uint64

	path := toUTF16(name)

	status := call(f.addr+fileOpen,
		f.addr,
		ptrval(&addr),
		ptrval(&path[0]),
		mode,
		0,
	)

	if err = parseStatus(status); err != nil {
		return
	}

	if addr == 0 {
		return nil, errors.New("invalid file handle")
	}

	return &File{name: name, addr: addr}, nil
}

// Read performs a single EFI_FILE_PROTOCOL.Read() of up to len(p) bytes, the
// end of file is reported as [io.EOF].
func (f *File) Read(p []byte) (n int, err error) {
	if f.addr == 0 {
		return 0, fs.ErrClosed
	}

	if len(p) == 0 {
		return
	}

	size := uint64(len(p))

	status := call(f.addr+fileRead,
		f.addr,
		ptrval(&size),
		ptrval(&p[0]),
	)

	if err = parseStatus(status); err != nil {
		return 0, err
	}

	if size == 0 {
		return 0, io.EOF
	}

	return int(size), nil
}

// getInfo calls EFI_FILE_PROTOCOL.GetInfo(EFI_FILE_INFO_ID), the buffer is
// grown once if the firmware reports it as too small.
func (f *File) getInfo() (buf []byte, err error) {
	return retryOnce(fileInfoSize, func(buf []byte) (int, error) {
		size := uint64(len(buf))

		status := call(f.addr+fileGetInfo,
			f.addr,
			EFI_FILE_INFO_ID.ptrval(),
			ptrval(&size),
			ptrval(&buf[0]),
		)

		return int(size), parseStatus(status)
	})
}

// Stat returns the [fs.FileInfo] structure describing file.
func (f *File) Stat() (fi fs.FileInfo, err error) {
	if f.addr == 0 {
		return nil, fs.ErrClosed
	}

	buf, err := f.getInfo()

	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: f.name, Err: err}
	}

	return parseFileInfo(buf)
}

// Close calls EFI_FILE_PROTOCOL.Close().
func (f *File) Close() (err error) {
	if f.addr == 0 {
		return fs.ErrClosed
	}

	err = parseStatus(call(f.addr+fileClose, f.addr))
	f.addr = 0

	return
}
