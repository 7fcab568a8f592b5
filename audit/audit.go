// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package audit appends records of committed archives to the
// assignment's LOGFILE and SHA256 files.
//
// Both files are append-only. A file that cannot be opened is reported
// as a warning, since the archive is already committed. A file that was
// opened but cannot be written is an error.
package audit // import "turnin.io/audit"

import (
	"fmt"
	"os"
	"time"

	"turnin.io/assignment"
	"turnin.io/errors"
	"turnin.io/log"
	"turnin.io/turnin"
	"turnin.io/version"
)

// TimeLayout is the layout of the time in a log line.
const TimeLayout = "01/02/06 15:04"

const logPerm = 0600

// Record describes one committed archive.
type Record struct {
	Release string // Tool release.
	User    turnin.UserName
	Slot    turnin.Slot
	Time    time.Time
	Count   int // Files plus symlinks.
	Hash    Hash
}

// LogLine returns the line for the LOGFILE.
func (r Record) LogLine() string {
	return fmt.Sprintf("turnin %s: %-8s-%3d %s %3d\n", r.Release, r.User, r.Slot.Number, r.Time.Format(TimeLayout), r.Count)
}

// HashLine returns the line for the SHA256 file.
func (r Record) HashLine() string {
	if r.Slot.Penalty > 0 {
		return fmt.Sprintf("%64s %8s-%d-%d.tgz\n", r.Hash, r.User, r.Slot.Number, r.Slot.Penalty)
	}
	return fmt.Sprintf("%64s %8s-%d.tgz\n", r.Hash, r.User, r.Slot.Number)
}

// Log hashes the committed archive of the user's slot and appends its
// records. The returned warnings are for files that could not be
// opened. It must be called as the owner.
func Log(loc *assignment.Location, user turnin.UserName, s turnin.Slot, count int, now time.Time) (Record, []error, error) {
	const op = "audit.Log"
	rec := Record{
		Release: version.Release,
		User:    user,
		Slot:    s,
		Time:    now,
		Count:   count,
	}
	hash, err := File(loc.Archive(user, s))
	if err != nil {
		return rec, nil, errors.E(op, user, err)
	}
	rec.Hash = hash

	var warnings []error
	for _, f := range []struct{ name, line string }{
		{assignment.LogFile, rec.LogLine()},
		{assignment.HashFile, rec.HashLine()},
	} {
		warn, err := Append(loc.Path(f.name), f.line)
		if err != nil {
			return rec, warnings, errors.E(op, user, err)
		}
		if warn != nil {
			warnings = append(warnings, warn)
		}
	}
	return rec, warnings, nil
}

// Append appends the line to the named file, flushing the file to
// stable storage before and after the write. If the file cannot be
// opened the problem is returned as a warning.
func Append(name, line string) (warning, err error) {
	path := turnin.PathName(name)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_SYNC, logPerm)
	if err != nil {
		return errors.E(path, errors.IO, errors.Errorf("could not open log file: %v", err)), nil
	}
	if err := f.Sync(); err != nil {
		log.Error.Printf("audit: sync %s: %v", name, err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return nil, errors.E(path, errors.IO, errors.Errorf("failed to write log: %v", err))
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, errors.E(path, errors.IO, errors.Errorf("failed to sync log: %v", err))
	}
	if err := f.Close(); err != nil {
		return nil, errors.E(path, errors.IO, err)
	}
	return nil, nil
}
