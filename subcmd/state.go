// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package subcmd holds the operator-facing state of a command: its
// standard streams, exit status, confirmation prompts and notices.
package subcmd // import "turnin.io/subcmd"

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"turnin.io/shutdown"
)

// Aborting is printed when a command gives up.
const Aborting = "\n**** ABORTING TURNIN ****\n"

// State describes the state of a command.
// See the comments for Exitf to see how Interactive is used.
type State struct {
	Name        string    // Name of the command we are running.
	Interactive bool      // Whether exits panic instead of terminating the process.
	Stdin       io.Reader // Where to read standard input.
	Stdout      io.Writer // Where to write standard output.
	Stderr      io.Writer // Where to write error output.
	ExitCode    int       // Exit with non-zero status for minor problems.

	in *bufio.Reader // Buffered Stdin, shared by all prompts.
}

// NewState returns a new State for the named command.
func NewState(name string) *State {
	s := &State{Name: name}
	s.DefaultIO()
	return s
}

// SetIO sets the standard streams.
func (s *State) SetIO(stdin io.Reader, stdout, stderr io.Writer) {
	s.Stdin = stdin
	s.Stdout = stdout
	s.Stderr = stderr
	s.in = nil
}

// DefaultIO sets the standard streams to those of the process.
func (s *State) DefaultIO() {
	s.SetIO(os.Stdin, os.Stdout, os.Stderr)
}

// Exitf prints the error and exits the program.
// If we are interactive, it calls panic("exit"), which is intended to be recovered
// from by the caller.
// We don't use log (although the packages we call do) because the errors
// are for regular people.
func (s *State) Exitf(format string, args ...interface{}) {
	format = fmt.Sprintf("%s: %s\n", s.Name, format)
	fmt.Fprintf(s.Stderr, format, args...)
	fmt.Fprint(s.Stderr, Aborting)
	s.ExitCode = 1
	s.ExitNow()
}

// Exit calls s.Exitf with the error.
func (s *State) Exit(err error) {
	s.Exitf("%s", err)
}

// Abort exits the program after an operator declined to continue.
func (s *State) Abort() {
	fmt.Fprint(s.Stderr, Aborting)
	s.ExitCode = 1
	s.ExitNow()
}

// ExitNow terminates the process with the current ExitCode.
func (s *State) ExitNow() {
	if s.Interactive {
		panic("exit")
	}
	shutdown.Now(s.ExitCode)
}

// Warnf prints a warning. It does not change the exit code.
func (s *State) Warnf(format string, args ...interface{}) {
	format = fmt.Sprintf("%s Warning: %s\n", s.Name, format)
	fmt.Fprintf(s.Stderr, format, args...)
}

// Warn calls s.Warnf with the error.
func (s *State) Warn(err error) {
	s.Warnf("%v", err)
}

// Printf prints a report line for the operator.
func (s *State) Printf(format string, args ...interface{}) {
	fmt.Fprintf(s.Stderr, format, args...)
}
