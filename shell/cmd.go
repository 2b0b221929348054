// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package shell

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"text/tabwriter"
)

// CmdFn represents a command handler.
type CmdFn func(iface *Interface, arg []string) (res string, err error)

// Cmd represents a shell command.
type Cmd struct {
	// Name is the command name, displayed in help.
	Name string
	// Args is the number of Pattern submatches passed to Fn.
	Args int
	// Pattern, when set, matches the full command line, otherwise the
	// line must equal Name.
	Pattern *regexp.Regexp
	// Syntax describes the command arguments in help.
	Syntax string
	// Help is the command description.
	Help string
	// Fn is the command handler.
	Fn CmdFn
}

var cmds = make(map[string]*Cmd)

// Add registers a terminal command, replacing any existing one with the
// same name.
func Add(cmd Cmd) {
	cmds[cmd.Name] = &cmd
}

// Help returns a formatted string with instructions for all registered
// commands.
func Help() string {
	var buf bytes.Buffer
	var names []string

	for name := range cmds {
		names = append(names, name)
	}

	sort.Strings(names)

	w := tabwriter.NewWriter(&buf, 16, 8, 0, '\t', tabwriter.TabIndent)

	for _, name := range names {
		cmd := cmds[name]
		fmt.Fprintf(w, "%s\t%s\t # %s\n", cmd.Name, cmd.Syntax, cmd.Help)
	}

	w.Flush()

	return buf.String()
}

// match returns the command matching a line and its arguments.
func match(line string) (cmd *Cmd, arg []string) {
	var names []string

	for name := range cmds {
		names = append(names, name)
	}

	// stable match order across runs
	sort.Strings(names)

	for _, name := range names {
		c := cmds[name]

		if c.Pattern == nil {
			if c.Name == line {
				return c, nil
			}

			continue
		}

		if m := c.Pattern.FindStringSubmatch(line); len(m) > 0 && (len(m)-1 == c.Args) {
			return c, m[1:]
		}
	}

	return
}
