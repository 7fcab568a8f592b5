// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"os"
	"time"

	"turnin.io/archive"
	"turnin.io/assignment"
	"turnin.io/config"
	"turnin.io/errors"
	"turnin.io/identity"
	"turnin.io/log"
	"turnin.io/shutdown"
	"turnin.io/subcmd"
	"turnin.io/submit"
	"turnin.io/turnin"
	"turnin.io/valid"
)

const usage = "[-h|--help] [-V|--version] [-log level] assignment@class file1 [file2 [...]]"

func main() {
	s := subcmd.NewState("turnin")
	args := s.ParseFlags(flag.CommandLine, os.Args[1:], usage, 2)

	// Before anything runs with elevated rights.
	shutdown.IgnoreInterrupts()

	target, err := valid.Target(args[0])
	if err != nil {
		s.Exit(err)
	}

	// Read with the installed identity, before any switch. The path is
	// fixed and the file must be owned by root and writable only by root.
	site, err := config.LoadSite(config.SitePath, 0)
	if err != nil {
		s.Exit(err)
	}
	if !flagSet("log") {
		if err := log.SetLevel(site.LogLevel); err != nil {
			s.Exit(err)
		}
	}

	sw, err := newSwitch(target.Class)
	if err != nil {
		s.Exit(err)
	}
	if err := sw.Settle(); err != nil {
		s.Exit(err)
	}

	loc, err := assignment.New(sw.Owner(), site.TurninDir, target.Assignment)
	if err != nil {
		s.Exit(err)
	}

	r := &submit.Runner{
		State:    s,
		Actor:    sw,
		Archiver: &archive.Tar{Path: site.Archiver, Stderr: s.Stderr},
		Now:      time.Now,
	}
	sub := submit.New(target, args[1:], sw.Submitter().Name, loc, site.Defaults)
	err = r.Run(sub)
	switch {
	case errors.Is(errors.Aborted, err):
		s.Abort()
	case err != nil:
		s.Exit(err)
	}
	s.ExitNow()
}

// newSwitch looks up the submitter and the class account and returns
// a Switch between them.
func newSwitch(class turnin.UserName) (*identity.Switch, error) {
	sub, err := identity.Submitter()
	if err != nil {
		return nil, err
	}
	owner, err := identity.Owner(class)
	if err != nil {
		return nil, err
	}
	return identity.New(sub, owner)
}

// flagSet reports whether the named flag was given on the command line.
func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
