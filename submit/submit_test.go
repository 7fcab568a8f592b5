// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package submit

import (
	"archive/tar"
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"turnin.io/assignment"
	"turnin.io/assignment/assignmenttest"
	"turnin.io/errors"
	"turnin.io/identity/identitytest"
	"turnin.io/subcmd"
	"turnin.io/turnin"
)

const user turnin.UserName = "jane"

var now = time.Date(2021, time.March, 10, 12, 0, 0, 0, time.Local) // A Wednesday.

// tgzArchiver archives the named files with the tar and gzip packages.
type tgzArchiver struct {
	actor *identitytest.Actor
	names []turnin.PathName
	role  turnin.Role
}

func (a *tgzArchiver) Archive(names []turnin.PathName, w io.Writer) error {
	a.names = names
	a.role = a.actor.Active()
	zw := gzip.NewWriter(w)
	tw := tar.NewWriter(zw)
	for _, n := range names {
		fi, err := os.Lstat(string(n))
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(fi, "")
		if err != nil {
			return err
		}
		hdr.Name = string(n)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if fi.Mode().IsRegular() {
			data, err := ioutil.ReadFile(string(n))
			if err != nil {
				return err
			}
			if _, err := tw.Write(data); err != nil {
				return err
			}
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return zw.Close()
}

type fixture struct {
	loc      *assignment.Location
	src      string
	runner   *Runner
	archiver *tgzArchiver
	stderr   *bytes.Buffer
	stdout   *bytes.Buffer
}

func newFixture(t *testing.T, answers string) *fixture {
	t.Helper()
	loc := assignmenttest.New(t, "hw1")
	src, err := ioutil.TempDir("", "turnin-src")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(src) })

	s := subcmd.NewState("turnin")
	s.Interactive = true
	var stdout, stderr bytes.Buffer
	s.SetIO(strings.NewReader(answers), &stdout, &stderr)

	actor := new(identitytest.Actor)
	archiver := &tgzArchiver{actor: actor}
	return &fixture{
		loc:      loc,
		src:      src,
		archiver: archiver,
		stderr:   &stderr,
		stdout:   &stdout,
		runner: &Runner{
			State:    s,
			Actor:    actor,
			Archiver: archiver,
			Now:      func() time.Time { return now },
		},
	}
}

func (f *fixture) write(t *testing.T, name, data string) string {
	t.Helper()
	name = filepath.Join(f.src, name)
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(name, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return name
}

func (f *fixture) run(args ...string) (*Submission, error) {
	sub := New(turnin.Target{Assignment: "hw1", Class: assignmenttest.Owner}, args, user, f.loc, turnin.DefaultPolicy)
	return sub, f.runner.Run(sub)
}

func lines(t *testing.T, name string) []string {
	t.Helper()
	data, err := ioutil.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestRunOnTime(t *testing.T) {
	// README, warnings, summary.
	f := newFixture(t, "y\ny\ny\n")
	assignmenttest.WriteFile(t, f.loc, assignment.ReadmeFile, "Turn in hw1 source only.\n")
	dir := filepath.Dir(f.write(t, "hw1/main.c", "int main() { return 0; }\n"))
	f.write(t, "hw1/util.h", "#define N 10\n")
	f.write(t, "hw1/.notes", "todo\n")
	if err := os.Symlink("main.c", filepath.Join(dir, "link.c")); err != nil {
		t.Fatal(err)
	}

	sub, err := f.run(dir)
	if err != nil {
		t.Fatalf("Run: %v\n%s", err, f.stderr)
	}

	if sub.Slot != (turnin.Slot{Number: 1}) {
		t.Errorf("slot = %+v, want 1 on time", sub.Slot)
	}
	if want := (turnin.Totals{Files: 2, Symlinks: 1, KBytes: 2}); sub.Totals != want {
		t.Errorf("totals = %+v, want %+v", sub.Totals, want)
	}
	if len(f.archiver.names) != 3 || f.archiver.role != turnin.Submitter {
		t.Errorf("archiver got %v as %v", f.archiver.names, f.archiver.role)
	}
	if sub.Archive.Members != 3 {
		t.Errorf("archive has %d members", sub.Archive.Members)
	}
	target, err := os.Readlink(f.loc.Pointer(user))
	if err != nil {
		t.Fatal(err)
	}
	if target != "./on_time/jane-1.tgz" {
		t.Errorf("pointer = %q", target)
	}
	if got := lines(t, f.loc.Path(assignment.LogFile)); len(got) != 1 || !strings.Contains(got[0], "jane    -  1 03/10/21 12:00   3") {
		t.Errorf("LOGFILE = %q", got)
	}
	if got := lines(t, f.loc.Path(assignment.HashFile)); len(got) != 1 || !strings.HasSuffix(got[0], " jane-1.tgz") || !strings.HasPrefix(got[0], sub.Record.Hash.String()) {
		t.Errorf("SHA256 = %q", got)
	}

	out := f.stderr.String()
	for _, want := range []string{
		"*************** README **************",
		".notes: NOT TURNED IN: hidden file or directory",
		"link.c -> main.c",
		"You are about to turnin 2+1 (files+symlinks) [2KB] for hw1 to cs101",
		"*** TURNIN OF hw1 TO cs101 COMPLETE! ***",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, subcmd.Prompt); n != 3 {
		t.Errorf("prompted %d times, want 3", n)
	}
	if f.stdout.String() != "Turn in hw1 source only.\n" {
		t.Errorf("README text = %q", f.stdout.String())
	}
}

func TestRunLateResubmission(t *testing.T) {
	// Penalty, summary, resubmission.
	f := newFixture(t, "y\ny\ny\n")
	assignmenttest.WriteFile(t, f.loc, assignment.LimitsFile, "duedate 20210307 23:00\n")
	assignmenttest.WriteFile(t, f.loc, assignment.LateFile, "Late work loses points.\n")
	assignmenttest.WriteFile(t, f.loc, "on_time/jane-1.tgz", "old")
	if err := os.Symlink("./on_time/jane-1.tgz", f.loc.Pointer(user)); err != nil {
		t.Fatal(err)
	}
	file := f.write(t, "answer.txt", "42\n")

	sub, err := f.run(file)
	if err != nil {
		t.Fatalf("Run: %v\n%s", err, f.stderr)
	}
	if want := (turnin.Slot{Number: 2, Penalty: 30}); sub.Slot != want {
		t.Errorf("slot = %+v, want %+v", sub.Slot, want)
	}
	if _, err := os.Stat(filepath.Join(f.loc.Dir(), "late", "jane-2-30.tgz")); err != nil {
		t.Error(err)
	}
	if target, _ := os.Readlink(f.loc.Pointer(user)); target != "./late/jane-2-30.tgz" {
		t.Errorf("pointer = %q", target)
	}
	if got := lines(t, f.loc.Path(assignment.HashFile)); !strings.HasSuffix(got[0], " jane-2-30.tgz") {
		t.Errorf("SHA256 = %q", got)
	}
	out := f.stderr.String()
	for _, want := range []string{
		"*************** LATEMESSAGE **************",
		"This turn in will get 30% penalty",
		"You have already turned in hw1",
		"You have 9 more turnins!",
		"You are about to turnin 1 files [1KB] for hw1 to cs101",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestRunDeclined(t *testing.T) {
	f := newFixture(t, "n\n")
	file := f.write(t, "a.c", "x\n")
	_, err := f.run(file)
	if !errors.Is(errors.Aborted, err) {
		t.Fatalf("Run = %v, want aborted", err)
	}
	if f.archiver.names != nil {
		t.Error("archiver ran after the user declined")
	}
	if _, err := os.Lstat(f.loc.Pointer(user)); !os.IsNotExist(err) {
		t.Error("pointer created after the user declined")
	}
}

func TestRunEndOfInput(t *testing.T) {
	f := newFixture(t, "")
	file := f.write(t, "a.c", "x\n")
	if _, err := f.run(file); !errors.Is(errors.Aborted, err) {
		t.Fatalf("Run = %v, want aborted", err)
	}
}

func TestRunLocked(t *testing.T) {
	f := newFixture(t, "")
	assignmenttest.WriteFile(t, f.loc, assignment.LimitsFile, "lockdate 20210309 00:00\n")
	sub, err := f.run(f.write(t, "a.c", "x\n"))
	if !errors.Is(errors.Locked, err) {
		t.Fatalf("Run = %v, want locked", err)
	}
	if sub.Set != nil {
		t.Error("files were classified for a locked assignment")
	}
}

func TestRunPenaltyLockout(t *testing.T) {
	f := newFixture(t, "")
	assignmenttest.WriteFile(t, f.loc, assignment.LimitsFile, "duedate 20210301 00:00\ndaypenalty 20\n")
	if _, err := f.run(f.write(t, "a.c", "x\n")); !errors.Is(errors.Locked, err) {
		t.Fatalf("Run = %v, want locked", err)
	}
}

func TestRunQuota(t *testing.T) {
	f := newFixture(t, "")
	assignmenttest.WriteFile(t, f.loc, assignment.LimitsFile, "maxfiles 1 # one file only\n")
	_, err := f.run(f.write(t, "a.c", "a\n"), f.write(t, "b.c", "b\n"))
	if !errors.Is(errors.Quota, err) {
		t.Fatalf("Run = %v, want quota error", err)
	}
	if !strings.Contains(err.Error(), "A maximum of 1 files") {
		t.Errorf("diagnostic = %q", err)
	}
}

func TestRunEmpty(t *testing.T) {
	// Warnings only.
	f := newFixture(t, "y\n")
	_, err := f.run(f.write(t, ".hidden", "h\n"), filepath.Join(f.src, "missing"))
	if !errors.Is(errors.Invalid, err) {
		t.Fatalf("Run = %v, want invalid", err)
	}
	if !strings.Contains(f.stderr.String(), "You are about to turnin 0 files [0KB]") {
		t.Errorf("output:\n%s", f.stderr)
	}
}

func TestRunMisconfigured(t *testing.T) {
	f := newFixture(t, "")
	assignmenttest.WriteFile(t, f.loc, assignment.LimitsFile, "daypenalty 101\n")
	if _, err := f.run(f.write(t, "a.c", "x\n")); !errors.Is(errors.Config, err) {
		t.Fatalf("Run = %v, want config error", err)
	}
}
