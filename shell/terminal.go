// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package shell implements a terminal console handler for user defined
// commands.
package shell

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/term"
)

// ErrUnknownCommand is returned for lines not matching any command.
var ErrUnknownCommand = errors.New("unknown command, type `help`")

// Interface represents a terminal interface.
type Interface struct {
	// Banner represents the welcome message
	Banner string

	// ReadWriter represents the terminal connection
	ReadWriter io.ReadWriter

	// VT100 enables colored prompt and terminal output
	VT100 bool
}

// Exec runs the command matching a line.
func (iface *Interface) Exec(line string) (res string, err error) {
	line = strings.TrimSpace(line)

	if len(line) == 0 {
		return
	}

	cmd, arg := match(line)

	if cmd == nil {
		return "", ErrUnknownCommand
	}

	return cmd.Fn(iface, arg)
}

func (iface *Interface) handleLine(line string, w io.Writer) (err error) {
	res, err := iface.Exec(line)

	if err != nil {
		return
	}

	if len(res) > 0 {
		fmt.Fprintln(w, res)
	}

	return
}

func (iface *Interface) readLine(t *term.Terminal, w io.Writer) error {
	s, err := t.ReadLine()

	if err == io.EOF {
		return err
	}

	if err != nil {
		log.Printf("readline error, %v", err)
		return nil
	}

	if err = iface.handleLine(s, w); err != nil {
		if err == io.EOF {
			return err
		}

		fmt.Fprintf(w, "command error, %v\n", err)
	}

	return nil
}

// Start handles registered commands over the interface ReadWriter until a
// command returns [io.EOF].
func (iface *Interface) Start() {
	var w io.Writer

	Add(Cmd{
		Name: "help",
		Help: "this help",
		Fn: func(_ *Interface, _ []string) (string, error) {
			return Help(), nil
		},
	})

	t := term.NewTerminal(iface.ReadWriter, "")
	w = iface.ReadWriter

	if iface.VT100 {
		t.SetPrompt(string(t.Escape.Red) + "> " + string(t.Escape.Reset))
		w = t
	} else {
		t.SetPrompt("> ")
	}

	fmt.Fprintf(t, "\n%s\n\n", iface.Banner)
	fmt.Fprintf(t, "%s\n", Help())

	for {
		if err := iface.readLine(t, w); err != nil {
			return
		}
	}
}
