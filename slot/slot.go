// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package slot chooses the version number of a new submission.
//
// The choice is a best-effort probe, not a reservation. Two concurrent
// submissions may pick the same number; the exclusive create of the
// archive decides which of them wins.
package slot // import "turnin.io/slot"

import (
	"os"
	"strconv"
	"strings"

	"turnin.io/assignment"
	"turnin.io/errors"
	"turnin.io/log"
	"turnin.io/turnin"
)

// Allocation is the outcome of a probe.
type Allocation struct {
	// Number is the first free slot number.
	Number int
	// Resubmission is true if the user has turned in before.
	Resubmission bool
	// Remaining is the number of turnins left, including this one.
	Remaining int
}

// Allocate returns the first slot number in [1, max] that holds no
// archive of the user in either bucket. It must be called as the owner.
func Allocate(loc *assignment.Location, user turnin.UserName, max int) (Allocation, error) {
	const op = "slot.Allocate"
	if _, err := os.Lstat(loc.Pointer(user)); os.IsNotExist(err) {
		return Allocation{Number: 1, Remaining: max}, nil
	} else if err != nil {
		return Allocation{}, errors.E(op, turnin.PathName(loc.Pointer(user)), errors.IO, err)
	}

	taken := make(map[int]bool)
	for _, b := range turnin.Buckets {
		dir := loc.BucketDir(b)
		f, err := os.Open(dir)
		if err != nil {
			return Allocation{}, errors.E(op, turnin.PathName(dir), errors.IO, err)
		}
		names, err := f.Readdirnames(-1)
		f.Close()
		if err != nil {
			return Allocation{}, errors.E(op, turnin.PathName(dir), errors.IO, err)
		}
		for _, name := range names {
			if n, ok := Parse(user, name); ok {
				taken[n] = true
			}
		}
	}
	log.Debug.Printf("%s: %s has slots %v", op, user, taken)

	for n := 1; n <= max; n++ {
		if !taken[n] {
			return Allocation{Number: n, Resubmission: true, Remaining: max - n + 1}, nil
		}
	}
	return Allocation{}, errors.E(op, user, errors.Quota,
		errors.Errorf("MAX (%d) TURNINS REACHED FOR %s", max, loc.Assignment))
}

// Parse reports the slot number of an archive file name of the user,
// either "<user>-<n>.tgz" or "<user>-<n>-<penalty>.tgz".
func Parse(user turnin.UserName, name string) (int, bool) {
	rest := strings.TrimPrefix(name, string(user)+"-")
	if rest == name || !strings.HasSuffix(rest, ".tgz") {
		return 0, false
	}
	rest = strings.TrimSuffix(rest, ".tgz")
	num, penalty := rest, ""
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		num, penalty = rest[:i], rest[i+1:]
		if !digits(penalty) {
			return 0, false
		}
	}
	if !digits(num) {
		return 0, false
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
