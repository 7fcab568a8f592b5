// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Flag helpers.

package subcmd

import (
	"flag"
	"fmt"

	"turnin.io/flags"
	"turnin.io/version"
)

// ParseFlags parses the command line arguments according to the
// common flags and returns the remaining arguments. It handles the
// help and version flags itself: help prints the usage and exits
// with status 1, version prints the version and license and exits
// with status 0. Fewer than min remaining arguments is a usage error.
func (s *State) ParseFlags(fs *flag.FlagSet, args []string, usage string, min int) []string {
	flags.Register(fs)
	fs.SetOutput(s.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(s.Stderr, "Usage: %s %s\n", s.Name, usage)
		fmt.Fprintf(s.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		// The flag package has already printed the problem and the usage.
		s.ExitCode = 1
		s.ExitNow()
	}
	if flags.Version {
		fmt.Fprint(s.Stdout, version.Version())
		fmt.Fprint(s.Stdout, version.License)
		s.ExitCode = 0
		s.ExitNow()
	}
	if flags.Help || fs.NArg() < min {
		fs.Usage()
		s.ExitCode = 1
		s.ExitNow()
	}
	return fs.Args()
}
