// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"fmt"
	"io/fs"
	"time"
)

// EFI_FILE_INFO attributes
const (
	EFI_FILE_READ_ONLY = 0x01
	EFI_FILE_HIDDEN    = 0x02
	EFI_FILE_SYSTEM    = 0x04
	EFI_FILE_DIRECTORY = 0x10
	EFI_FILE_ARCHIVE   = 0x20
)

const (
	// EFI_FILE_INFO size without the variable length file name
	fileInfoSize = 80
	// MaxFileName represents the maximum file name length in characters
	MaxFileName = 255

	// EFI_TIME unspecified time zone
	unspecifiedTimezone = 0x07ff
)

// Time represents an EFI_TIME instance.
type Time struct {
	Year       uint16
	Month      uint8
	Day        uint8
	Hour       uint8
	Minute     uint8
	Second     uint8
	_          uint8
	Nanosecond uint32
	TimeZone   int16
	Daylight   uint8
	_          uint8
}

// Time converts the EFI time to a [time.Time] instance.
func (t *Time) Time() time.Time {
	loc := time.UTC

	if t.TimeZone != unspecifiedTimezone && t.TimeZone != 0 {
		// local time is UTC minus the time zone offset
		loc = time.FixedZone("", -int(t.TimeZone)*60)
	}

	return time.Date(int(t.Year), time.Month(t.Month), int(t.Day),
		int(t.Hour), int(t.Minute), int(t.Second), int(t.Nanosecond), loc)
}

// fileInfo represents an EFI_FILE_INFO instance.
type fileInfo struct {
	Size             uint64
	FileSize         uint64
	PhysicalSize     uint64
	CreateTime       Time
	LastAccessTime   Time
	ModificationTime Time
	Attribute        uint64
}

// FileInfo implements the [fs.FileInfo] interface for EFI_FILE_INFO.
type FileInfo struct {
	info *fileInfo
	name string
}

// parseFileInfo decodes an EFI_FILE_INFO buffer, including its file name.
func parseFileInfo(buf []byte) (fi *FileInfo, err error) {
	if len(buf) < fileInfoSize {
		return nil, fmt.Errorf("invalid file information size (%d)", len(buf))
	}

	fi = &FileInfo{
		info: &fileInfo{},
	}

	if err = unmarshalBinary(buf[0:fileInfoSize], fi.info); err != nil {
		return nil, err
	}

	end := int(fi.info.Size)

	if end < fileInfoSize || end > len(buf) {
		end = len(buf)
	}

	fi.name = fromUTF16(buf[fileInfoSize:end])

	return
}

// Name returns the base name of the file.
func (fi *FileInfo) Name() string {
	return fi.name
}

// Size returns the length in bytes.
func (fi *FileInfo) Size() int64 {
	return int64(fi.info.FileSize)
}

// Mode returns the file mode bits.
func (fi *FileInfo) Mode() (mode fs.FileMode) {
	mode = 0444

	if fi.info.Attribute&EFI_FILE_READ_ONLY == 0 {
		mode |= 0200
	}

	if fi.IsDir() {
		mode |= fs.ModeDir | 0111
	}

	return
}

// ModTime returns the modification time.
func (fi *FileInfo) ModTime() time.Time {
	return fi.info.ModificationTime.Time()
}

// IsDir reports whether the file is a directory.
func (fi *FileInfo) IsDir() bool {
	return fi.info.Attribute&EFI_FILE_DIRECTORY != 0
}

// Sys returns the EFI file attributes.
func (fi *FileInfo) Sys() any {
	return fi.info.Attribute
}
