// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"github.com/usbarmory/go-loader/config"
	"github.com/usbarmory/go-loader/shell"
	"github.com/usbarmory/go-loader/transparency"
)

// Loader hooks, set by the entry point.
var (
	// Root returns the volume holding the loader image.
	Root func() (fs.FS, error)

	// Boot stages and executes a loader configuration, it does not
	// return on success.
	Boot func(conf *config.Config) error

	// ConfigPath is the default loader configuration path.
	ConfigPath string
)

func init() {
	shell.Add(shell.Cmd{
		Name:    "boot",
		Args:    1,
		Pattern: regexp.MustCompile(`^boot(.*)`),
		Syntax:  "(path)?",
		Help:    "boot Linux kernel from loader configuration",
		Fn:      bootCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "config",
		Args:    1,
		Pattern: regexp.MustCompile(`^config(.*)`),
		Syntax:  "(path)?",
		Help:    "show and validate loader configuration",
		Fn:      configCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "ls",
		Args:    1,
		Pattern: regexp.MustCompile(`^ls(.*)`),
		Syntax:  "(path)?",
		Help:    "list directory contents",
		Fn:      lsCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "bt",
		Args:    1,
		Pattern: regexp.MustCompile(`^bt(.*)`),
		Syntax:  "(path)?",
		Help:    "boot-transparency validation of loader configuration",
		Fn:      btCmd,
	})
}

func volume() (fs.FS, error) {
	if Root == nil {
		return nil, ErrUnavailable
	}

	return Root()
}

func loadConfig(arg string) (root fs.FS, conf *config.Config, err error) {
	path := strings.TrimSpace(arg)

	if len(path) == 0 {
		path = ConfigPath
	}

	if len(path) == 0 {
		return nil, nil, errors.New("no configuration path")
	}

	if root, err = volume(); err != nil {
		return
	}

	conf, err = config.Load(root, path)

	return
}

func configCmd(_ *shell.Interface, arg []string) (res string, err error) {
	_, conf, err := loadConfig(arg[0])

	if err != nil {
		return
	}

	return fmt.Sprintf("# %s\n%s", conf.Path, conf), conf.Validate()
}

func bootCmd(_ *shell.Interface, arg []string) (res string, err error) {
	_, conf, err := loadConfig(arg[0])

	if err != nil {
		return
	}

	if err = conf.Validate(); err != nil {
		return
	}

	if Boot == nil {
		return "", ErrUnavailable
	}

	return "", Boot(conf)
}

func lsCmd(_ *shell.Interface, arg []string) (res string, err error) {
	var buf bytes.Buffer

	path := strings.TrimSpace(arg[0])

	if len(path) == 0 {
		path = "."
	}

	root, err := volume()

	if err != nil {
		return
	}

	entries, err := fs.ReadDir(root, path)

	if err != nil {
		return
	}

	for _, e := range entries {
		info, err := e.Info()

		if err != nil {
			return "", err
		}

		fmt.Fprintf(&buf, "%s %10d %s %s\n",
			info.Mode(), info.Size(), info.ModTime().Format("2006-01-02 15:04"), e.Name())
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func btCmd(_ *shell.Interface, arg []string) (res string, err error) {
	var buf bytes.Buffer

	root, conf, err := loadConfig(arg[0])

	if err != nil {
		return
	}

	entry, err := transparency.Entry(root, conf)

	if err != nil {
		return
	}

	for _, a := range entry {
		fmt.Fprintf(&buf, "category %d: %s\n", a.Category, hex.EncodeToString(a.Hash))
	}

	c := &transparency.Config{
		Status: transparency.Offline,
		Root:   root,
	}

	if err = entry.Validate(c); err != nil {
		return buf.String(), err
	}

	fmt.Fprintf(&buf, "boot-transparency validation passed")

	return buf.String(), nil
}
