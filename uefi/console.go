// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"unicode/utf16"
)

const (
	// EFI ConOut offset for OutputString
	outputString = 0x08
	// EFI ConIn offset for ReadKeyStroke
	readKeyStroke = 0x08
)

// InputKey represents an EFI Input Key descriptor.
type InputKey struct {
	ScanCode    uint16
	UnicodeChar [2]byte
}

// simpleTextInput represents an EFI Simple Text Input Protocol instance.
type simpleTextInput struct {
	Reset         uint64
	ReadKeyStroke uint64
	WaitForKey    uint64
}

// Console implements the [io.ReadWriter] interface over EFI Simple Text
// Input/Output protocol.
type Console struct {
	// ForceLine controls whether line feeds (LF) should be supplemented
	// with a carriage return (CR).
	ForceLine bool

	// ReplaceTabs controls whether Console I/O output should have Tab
	// characters replaced with a number of spaces.
	ReplaceTabs int

	// EFI Simple Text Input/Output protocol instances
	In  uint64
	Out uint64

	// Boot Services instance, required by WaitForKey
	Boot *BootServices

	detached bool
}

// Attach sets the argument protocol instances on a console which has none,
// it reports whether console output is available. A detached console is
// never attached again.
func (c *Console) Attach(in uint64, out uint64) bool {
	if c.detached {
		return false
	}

	if c.Out == 0 {
		c.In = in
		c.Out = out
	}

	return c.Out != 0
}

// Detach permanently stops any use of the firmware protocol instances, it
// must be invoked once EFI Boot Services are terminated.
func (c *Console) Detach() {
	c.detached = true
	c.In = 0
	c.Out = 0
}

// Input calls EFI_SIMPLE_TEXT_INPUT_PROTOCOL.ReadKeyStroke().
func (c *Console) Input(k *InputKey) (status uint64) {
	if c.In == 0 {
		return EFI_ERROR | EFI_NOT_READY
	}

	return call(c.In+readKeyStroke, c.In, ptrval(k))
}

// Output calls EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL.OutputString(), the argument
// must be an UTF-16 string.
func (c *Console) Output(p []byte) (status uint64) {
	if c.Out == 0 || len(p) == 0 {
		return
	}

	if len(p) < 2 || p[len(p)-2] != 0x00 || p[len(p)-1] != 0x00 {
		p = append(p, 0x00, 0x00)
	}

	return call(c.Out+outputString, c.Out, ptrval(&p[0]))
}

// WaitForKey blocks until a key is available on the console input, the key
// is then consumed.
func (c *Console) WaitForKey() (k *InputKey, err error) {
	in := &simpleTextInput{}

	if c.In == 0 || c.Boot == nil {
		return nil, errors.New("console input unavailable")
	}

	if err = decode(in, c.In); err != nil {
		return
	}

	if _, err = c.Boot.WaitForEvent(in.WaitForKey); err != nil {
		return
	}

	k = &InputKey{}
	err = parseStatus(c.Input(k))

	return
}

// Read available data to buffer from console.
func (c *Console) Read(p []byte) (n int, err error) {
	k := &InputKey{}

	for n = 0; n+1 < len(p); n += 2 {
		status := c.Input(k)

		switch {
		case status == EFI_SUCCESS:
			copy(p[n:], k.UnicodeChar[:])
		case status&0xff == EFI_NOT_READY:
			return
		default:
			return n, parseStatus(status)
		}
	}

	return
}

// encode converts an UTF-8 string to the UTF-16 console representation.
func (c *Console) encode(p []byte) (s []byte) {
	for _, r := range utf16.Encode([]rune(string(p))) {
		if r == 0x09 && c.ReplaceTabs > 0 { // Tab
			for i := 0; i < c.ReplaceTabs; i++ {
				s = append(s, 0x20, 0x00) // Space
			}
			continue
		}

		if r == 0x0a && c.ForceLine { // LF
			s = append(s, 0x0d, 0x00) // CR
		}

		s = append(s, byte(r&0xff), byte(r>>8))
	}

	return
}

// Write data from buffer to console.
func (c *Console) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return
	}

	if status := c.Output(c.encode(p)); status != EFI_SUCCESS {
		return 0, parseStatus(status)
	}

	return len(p), nil
}
