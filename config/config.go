// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package config implements parsing of the loader configuration file.
//
// The configuration is line oriented, each line holds a key and its value
// separated by the first `=` character:
//
//	kernel=/vmlinuz
//	initrd=/initrd.img
//	command_line=console=ttyS0,115200 root=/dev/sda1
//
// The `initrd` key can be repeated, images are concatenated in order. Forward
// slashes in paths are translated to the EFI path separator.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"unicode/utf8"
)

// Suffix is appended to the loader image path to locate its configuration.
const Suffix = ".conf"

// Configuration keys
const (
	KeyKernel      = "kernel"
	KeyCommandLine = "command_line"
	KeyInitrd      = "initrd"
)

// ErrInvalid is returned for malformed or incomplete configurations.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the loader configuration.
type Config struct {
	// Kernel is the path of the Linux kernel image.
	Kernel string
	// CommandLine is the kernel command line.
	CommandLine string
	// Initrd lists the initial ramdisk images, in load order.
	Initrd []string

	// Path is the configuration file path, if loaded from a file system.
	Path string
}

// lineError returns a configuration error for the argument 1-based line
// number.
func lineError(line int, format string, a ...any) error {
	return fmt.Errorf("%w, %s at line %d", ErrInvalid, fmt.Sprintf(format, a...), line)
}

func parsePath(val string, line int) (string, error) {
	if strings.ContainsRune(val, 0) {
		return "", lineError(line, "unsupported character")
	}

	return strings.ReplaceAll(val, `/`, `\`), nil
}

func (c *Config) parseKey(key string, val string, line int) (err error) {
	if !utf8.ValidString(val) {
		return lineError(line, "unsupported character")
	}

	switch key {
	case KeyKernel:
		c.Kernel, err = parsePath(val, line)
	case KeyCommandLine:
		if strings.ContainsRune(val, 0) {
			return lineError(line, "unsupported character")
		}

		c.CommandLine = val
	case KeyInitrd:
		var path string

		if path, err = parsePath(val, line); err != nil {
			return
		}

		c.Initrd = append(c.Initrd, path)
	default:
		return lineError(line, "unknown configuration %q", key)
	}

	return
}

// Parse parses the argument configuration data.
//
// Empty lines are skipped and a trailing carriage return is removed from each
// line. The last line is processed even without a line terminator.
func Parse(data []byte) (c *Config, err error) {
	c = &Config{}

	for i, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSuffix(line, []byte{'\r'})

		if len(line) == 0 {
			continue
		}

		key, val, found := bytes.Cut(line, []byte{'='})

		if !found || len(key) == 0 {
			return nil, lineError(i+1, "syntax error")
		}

		if err = c.parseKey(string(key), string(val), i+1); err != nil {
			return nil, err
		}
	}

	return
}

// Load reads and parses the named configuration file from the argument file
// system.
func Load(fsys fs.FS, path string) (c *Config, err error) {
	data, err := fs.ReadFile(fsys, path)

	if err != nil {
		return nil, fmt.Errorf("could not read %s, %w", path, err)
	}

	if c, err = Parse(data); err != nil {
		return nil, fmt.Errorf("could not parse %s, %w", path, err)
	}

	c.Path = path

	return
}

// Validate verifies that all entries required for booting are present, errors
// name the configuration file.
func (c *Config) Validate() error {
	path := c.Path

	if path == "" {
		path = "configuration"
	}

	switch {
	case c.Kernel == "":
		return fmt.Errorf("%w, no kernel has been configured in %s", ErrInvalid, path)
	case len(c.Initrd) == 0:
		return fmt.Errorf("%w, no initrd has been configured in %s", ErrInvalid, path)
	case c.CommandLine == "":
		return fmt.Errorf("%w, no command line has been configured in %s", ErrInvalid, path)
	}

	for _, initrd := range c.Initrd {
		if initrd == "" {
			return fmt.Errorf("%w, empty initrd path in %s", ErrInvalid, path)
		}
	}

	return nil
}

// String returns the configuration in its file format.
func (c *Config) String() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "%s=%s\n", KeyKernel, c.Kernel)

	for _, initrd := range c.Initrd {
		fmt.Fprintf(&buf, "%s=%s\n", KeyInitrd, initrd)
	}

	fmt.Fprintf(&buf, "%s=%s\n", KeyCommandLine, c.CommandLine)

	return buf.String()
}
