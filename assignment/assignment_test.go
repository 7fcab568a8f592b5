// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assignment

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"turnin.io/errors"
	"turnin.io/turnin"
)

func setup(t *testing.T) (*Location, func()) {
	t.Helper()
	home, err := ioutil.TempDir("", "turnin-class")
	if err != nil {
		t.Fatal(err)
	}
	owner := turnin.Identity{Name: "cs101", UID: os.Getuid(), GID: os.Getgid(), Home: turnin.PathName(home)}
	loc, err := New(owner, "TURNIN", "labs/lab 2")
	if err != nil {
		os.RemoveAll(home)
		t.Fatal(err)
	}
	return loc, func() { os.RemoveAll(home) }
}

func TestLayout(t *testing.T) {
	owner := turnin.Identity{Name: "cs101", UID: 2001, Home: "/home/cs101"}
	loc, err := New(owner, "TURNIN", "hw1")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct{ got, want string }{
		{loc.Dir(), "/home/cs101/TURNIN/hw1"},
		{loc.Path(LimitsFile), "/home/cs101/TURNIN/hw1/LIMITS"},
		{loc.BucketDir(turnin.Late), "/home/cs101/TURNIN/hw1/late"},
		{loc.Archive("jane", turnin.Slot{Number: 3}), "/home/cs101/TURNIN/hw1/on_time/jane-3.tgz"},
		{loc.Archive("jane", turnin.Slot{Number: 4, Penalty: 20}), "/home/cs101/TURNIN/hw1/late/jane-4-20.tgz"},
		{loc.Pointer("jane"), "/home/cs101/TURNIN/hw1/jane.tgz"},
	}
	for _, test := range tests {
		if test.got != test.want {
			t.Errorf("got %q; want %q", test.got, test.want)
		}
	}
}

func TestNewRejectsEscapes(t *testing.T) {
	owner := turnin.Identity{Name: "cs101", UID: 2001, Home: "/home/cs101"}
	for _, a := range []turnin.Assignment{"/etc", "../../root", "hw1/../../x", ""} {
		if _, err := New(owner, "TURNIN", a); !errors.Is(errors.Syntax, err) {
			t.Errorf("New(%q) = %v; want syntax error", a, err)
		}
	}
}

func TestCheckCreatesBuckets(t *testing.T) {
	loc, cleanup := setup(t)
	defer cleanup()

	// No assignment directory yet.
	if err := loc.Check(); !errors.Is(errors.NotExist, err) {
		t.Fatalf("Check without directory = %v; want not exist", err)
	}

	if err := os.MkdirAll(loc.Dir(), 0750); err != nil {
		t.Fatal(err)
	}
	if err := loc.Check(); err != nil {
		t.Fatal(err)
	}
	for _, b := range turnin.Buckets {
		fi, err := os.Lstat(loc.BucketDir(b))
		if err != nil {
			t.Fatal(err)
		}
		if !fi.IsDir() || fi.Mode().Perm() != 0755&^currentUmask() {
			t.Errorf("%s: mode %v", b, fi.Mode())
		}
	}
	// Idempotent.
	if err := loc.Check(); err != nil {
		t.Fatal(err)
	}
}

func TestCheckRejects(t *testing.T) {
	loc, cleanup := setup(t)
	defer cleanup()
	if err := os.MkdirAll(loc.Dir(), 0700); err != nil {
		t.Fatal(err)
	}

	// A bucket that is a file.
	late := loc.BucketDir(turnin.Late)
	if err := ioutil.WriteFile(late, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if err := loc.Check(); !errors.Is(errors.NotDir, err) {
		t.Errorf("file bucket: %v; want not a directory", err)
	}
	os.Remove(late)

	// A bucket that is a symlink elsewhere.
	if err := os.Symlink(os.TempDir(), late); err != nil {
		t.Fatal(err)
	}
	if err := loc.Check(); err == nil {
		t.Errorf("symlinked bucket accepted")
	}
	os.Remove(late)

	// Owner lacks write permission.
	if err := os.Chmod(loc.Dir(), 0500); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(loc.Dir(), 0700)
	if err := loc.Check(); !errors.Is(errors.Permission, err) {
		t.Errorf("read-only directory: %v; want permission error", err)
	}

	// Not owned by the class account.
	os.Chmod(loc.Dir(), 0700)
	other := *loc
	other.Owner.UID++
	err := other.Check()
	if !errors.Is(errors.Permission, err) || !strings.Contains(err.Error(), loc.Dir()+": not owned by cs101") {
		t.Errorf("wrong owner: %v; want permission error on %s", err, loc.Dir())
	}
}

// currentUmask returns the process umask without changing it for long.
func currentUmask() os.FileMode {
	dir, err := ioutil.TempDir("", "umask")
	if err != nil {
		return 0
	}
	defer os.RemoveAll(dir)
	name := filepath.Join(dir, "d")
	if err := os.Mkdir(name, 0777); err != nil {
		return 0
	}
	fi, err := os.Stat(name)
	if err != nil {
		return 0
	}
	return 0777 &^ fi.Mode().Perm()
}
