// Copyright 2016 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flags

import (
	"flag"
	"io/ioutil"
	"testing"

	"turnin.io/log"
)

func newFlagSet() *flag.FlagSet {
	Help, Version = false, false
	fs := flag.NewFlagSet("turnin", flag.ContinueOnError)
	fs.SetOutput(ioutil.Discard)
	Register(fs)
	return fs
}

func TestParse(t *testing.T) {
	defer log.SetLevel(log.GetLevel())
	tests := []struct {
		args    []string
		help    bool
		version bool
		nargs   int
	}{
		{[]string{"hw1@cs101", "a.c"}, false, false, 2},
		{[]string{"-h"}, true, false, 0},
		{[]string{"--help"}, true, false, 0},
		{[]string{"-V"}, false, true, 0},
		{[]string{"--version"}, false, true, 0},
		{[]string{"-log", "debug", "hw1@cs101", "a.c", "b.c"}, false, false, 3},
		// Flags stop at the first positional argument.
		{[]string{"hw1@cs101", "-h"}, false, false, 2},
	}
	for _, test := range tests {
		fs := newFlagSet()
		if err := fs.Parse(test.args); err != nil {
			t.Errorf("%q: %v", test.args, err)
			continue
		}
		if Help != test.help || Version != test.version || fs.NArg() != test.nargs {
			t.Errorf("%q: help=%t version=%t nargs=%d; want %t %t %d",
				test.args, Help, Version, fs.NArg(), test.help, test.version, test.nargs)
		}
	}
}

func TestLogLevel(t *testing.T) {
	defer log.SetLevel(log.GetLevel())
	fs := newFlagSet()
	if err := fs.Parse([]string{"-log", "debug"}); err != nil {
		t.Fatal(err)
	}
	if log.GetLevel() != "debug" {
		t.Errorf("log level is %q; want debug", log.GetLevel())
	}
	fs = newFlagSet()
	if err := fs.Parse([]string{"-log", "chatty"}); err == nil {
		t.Errorf("expected error for invalid level")
	}
}
