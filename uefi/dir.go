// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"io"
	"io/fs"
)

// DirEntry implements the [fs.DirEntry] interface for the EFI File Protocol.
type DirEntry struct {
	fi *FileInfo
}

// Name returns the name of the file (or subdirectory) described by the entry.
func (d DirEntry) Name() string {
	return d.fi.name
}

// IsDir reports whether the entry describes a directory.
func (d DirEntry) IsDir() bool {
	return d.fi.IsDir()
}

// Type returns the type bits of the entry.
func (d DirEntry) Type() fs.FileMode {
	return d.fi.Mode().Type()
}

// Info returns the FileInfo for the file or subdirectory described by the entry.
func (d DirEntry) Info() (fs.FileInfo, error) {
	return d.fi, nil
}

// readEntry reads the next EFI_FILE_INFO directory record, the end of the
// directory is reported as [io.EOF].
func (f *File) readEntry() (fi *FileInfo, err error) {
	buf, err := retryOnce(fileInfoSize+MaxFileName*2, func(buf []byte) (int, error) {
		size := uint64(len(buf))

		status := call(f.addr+fileRead,
			f.addr,
			ptrval(&size),
			ptrval(&buf[0]),
		)

		return int(size), parseStatus(status)
	})

	if err != nil {
		return
	}

	if len(buf) == 0 {
		return nil, io.EOF
	}

	return parseFileInfo(buf)
}

// ReadDir reads the contents of the directory and returns a slice of up to n
// DirEntry values in directory order, as described in [fs.ReadDirFile].
func (f *File) ReadDir(n int) (entries []fs.DirEntry, err error) {
	fi, err := f.Stat()

	if err != nil {
		return
	}

	if !fi.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: f.name, Err: fs.ErrInvalid}
	}

	for n <= 0 || len(entries) < n {
		e, err := f.readEntry()

		if err == io.EOF {
			break
		}

		if err != nil {
			return entries, err
		}

		if e.name == "." || e.name == ".." {
			continue
		}

		entries = append(entries, DirEntry{fi: e})
	}

	if n > 0 && len(entries) == 0 {
		return nil, io.EOF
	}

	return
}
