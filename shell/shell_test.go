// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package shell

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
)

type testConn struct {
	io.Reader
	bytes.Buffer
}

func (c *testConn) Write(p []byte) (int, error) {
	return c.Buffer.Write(p)
}

func (c *testConn) Read(p []byte) (int, error) {
	return c.Reader.Read(p)
}

func init() {
	Add(Cmd{
		Name: "ping",
		Help: "reply",
		Fn: func(_ *Interface, _ []string) (string, error) {
			return "pong", nil
		},
	})

	Add(Cmd{
		Name:    "echo",
		Args:    1,
		Pattern: regexp.MustCompile(`^echo (.*)$`),
		Syntax:  "<text>",
		Help:    "print text",
		Fn: func(_ *Interface, arg []string) (string, error) {
			return arg[0], nil
		},
	})

	Add(Cmd{
		Name: "quit",
		Help: "close session",
		Fn: func(_ *Interface, _ []string) (string, error) {
			return "", io.EOF
		},
	})
}

func TestExec(t *testing.T) {
	iface := &Interface{}

	if res, err := iface.Exec("ping"); err != nil || res != "pong" {
		t.Fatalf("unexpected result %q, %v", res, err)
	}

	if res, err := iface.Exec("  echo hello world "); err != nil || res != "hello world" {
		t.Fatalf("unexpected result %q, %v", res, err)
	}

	if res, err := iface.Exec(""); err != nil || res != "" {
		t.Fatalf("unexpected result %q, %v", res, err)
	}

	if _, err := iface.Exec("pingx"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("unexpected error, %v", err)
	}
}

func TestHelp(t *testing.T) {
	help := Help()

	for _, s := range []string{"ping", "echo", "<text>", "# print text"} {
		if !strings.Contains(help, s) {
			t.Fatalf("help is missing %q:\n%s", s, help)
		}
	}

	if strings.Index(help, "echo") > strings.Index(help, "ping") {
		t.Fatal("help is not sorted")
	}
}

func TestStart(t *testing.T) {
	conn := &testConn{
		Reader: strings.NewReader("echo hi\rbogus\rquit\rping\r"),
	}

	iface := &Interface{
		Banner:     "test shell",
		ReadWriter: conn,
	}

	iface.Start()

	out := conn.String()

	if !strings.Contains(out, "test shell") || !strings.Contains(out, "hi\n") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if !strings.Contains(out, "command error, unknown command") {
		t.Fatalf("missing command error:\n%s", out)
	}

	if strings.Contains(out, "pong") {
		t.Fatal("session not terminated on quit")
	}
}
