// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// I/O helpers.

package subcmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/ssh/terminal"
)

// Prompt is the question asked by Confirm.
const Prompt = "*** Do you want to continue? (y/n) "

// isTerminal reports whether r is a terminal.
var isTerminal = func(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && terminal.IsTerminal(int(f.Fd()))
}

// Confirm asks the operator whether to continue until the answer is a
// line holding just y or n, in either case. It returns false at end of
// input.
// When standard input is not a terminal the answer is echoed, so that
// a transcript shows what was answered.
func (s *State) Confirm() bool {
	if s.in == nil {
		s.in = bufio.NewReader(s.Stdin)
	}
	echo := !isTerminal(s.Stdin)
	for {
		fmt.Fprint(s.Stderr, Prompt)
		line, err := s.in.ReadString('\n')
		answer := strings.TrimRight(line, "\r\n")
		if echo && line != "" {
			fmt.Fprintln(s.Stderr, answer)
		}
		switch strings.ToLower(answer) {
		case "y":
			return true
		case "n":
			return false
		}
		if err != nil {
			fmt.Fprintf(s.Stderr, "\n%s: input reached end of file\n", s.Name)
			return false
		}
	}
}

// Notice shows the text of the titled notice file between banners.
func (s *State) Notice(title string, text []byte) {
	header := "*************** " + title + " **************"
	fmt.Fprintln(s.Stderr, header)
	s.Stdout.Write(text)
	if f, ok := s.Stdout.(*os.File); ok {
		// Keep the text ahead of the footer when both reach one terminal.
		f.Sync()
	}
	fmt.Fprintln(s.Stderr, strings.Repeat("*", len(header)))
}
