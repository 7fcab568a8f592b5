// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package assignmenttest provides assignment directories for tests,
// owned by the user running the test.
package assignmenttest // import "turnin.io/assignment/assignmenttest"

import (
	"io/ioutil"
	"os"
	"testing"

	"turnin.io/assignment"
	"turnin.io/turnin"
)

// Owner is the name of the class account of locations returned by New.
const Owner turnin.UserName = "cs101"

// New creates a checked assignment directory, with both buckets, in a
// fresh home directory. The directory is removed when the test ends.
func New(t *testing.T, a turnin.Assignment) *assignment.Location {
	t.Helper()
	home, err := ioutil.TempDir("", "turnin-class")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(home) })
	owner := turnin.Identity{Name: Owner, UID: os.Getuid(), GID: os.Getgid(), Home: turnin.PathName(home)}
	loc, err := assignment.New(owner, "TURNIN", a)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(loc.Dir(), 0700); err != nil {
		t.Fatal(err)
	}
	if err := loc.Check(); err != nil {
		t.Fatal(err)
	}
	return loc
}

// WriteFile creates a file in the assignment directory.
func WriteFile(t *testing.T, loc *assignment.Location, name, data string) {
	t.Helper()
	if err := ioutil.WriteFile(loc.Path(name), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
}
