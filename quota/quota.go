// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package quota sums a classified submission, checks it against the
// assignment's limits, and computes the late-submission penalty.
package quota // import "turnin.io/quota"

import (
	"fmt"
	"strings"
	"time"

	"turnin.io/errors"
	"turnin.io/log"
	"turnin.io/turnin"
)

// KBytes returns size rounded up to the next whole kilobyte.
func KBytes(size int64) int64 {
	return (size + 1023) / 1024
}

// Sum returns the totals of the admitted entries of the set.
func Sum(set *turnin.FileSet) turnin.Totals {
	var t turnin.Totals
	for _, e := range set.Entries() {
		switch e.Tag {
		case turnin.Admitted:
			t.Files++
			t.KBytes += KBytes(e.Size)
		case turnin.Symlink:
			t.Symlinks++
		}
	}
	return t
}

// Check reports a Quota error naming every limit the totals exceed.
func Check(p turnin.Policy, t turnin.Totals) error {
	const op = "quota.Check"
	var msgs []string
	if t.Files > p.MaxFiles {
		msgs = append(msgs, fmt.Sprintf("A maximum of %d files may be turned in for this assignment.\n"+
			"You are attempting to turn in %d files.", p.MaxFiles, t.Files))
	}
	if t.KBytes > int64(p.MaxKBytes) {
		msgs = append(msgs, fmt.Sprintf("A maximum of %d Kbytes may be turned in for this assignment.\n"+
			"You are attempting to turn in %d Kbytes.", p.MaxKBytes, t.KBytes))
	}
	if len(msgs) == 0 {
		return nil
	}
	return errors.E(op, errors.Quota, errors.Str(strings.Join(msgs, "\n")))
}

// Lockout is the penalty, in percent, at which a late submission is
// refused outright.
const Lockout = 100

// Penalty returns the late penalty percentage for a submission made at
// now. It is zero if the policy has no due date or now is before it.
//
// The day containing now always counts once the due time has passed.
// Each earlier calendar day counts too, back to but not including the
// calendar day of the due date. Saturdays and Sundays cost
// WeekendPenalty; other days cost DayPenalty. If the running total
// reaches Lockout the result is a Locked error.
func Penalty(p turnin.Policy, now time.Time) (int, error) {
	const op = "quota.Penalty"
	if p.DueDate.IsZero() || now.Before(p.DueDate) {
		return 0, nil
	}
	days := Days(p.DueDate, now)
	penalty := 0
	day := now
	for i := 0; i < days; i++ {
		if i > 0 {
			day = day.AddDate(0, 0, -1)
		}
		penalty += cost(p, day)
		if penalty >= Lockout {
			log.Debug.Printf("%s: %d%% after %d of %d days", op, penalty, i+1, days)
			return penalty, errors.E(op, errors.Locked,
				errors.Errorf("the penalty, due to late turn in, is %d%% or more", Lockout))
		}
	}
	return penalty, nil
}

// Days returns the number of calendar days penalized for a submission at
// now against the due date: the calendar days between them in now's
// location, but at least one.
func Days(due, now time.Time) int {
	due = due.In(now.Location())
	d0 := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	d1 := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	n := int(d1.Sub(d0).Hours() / 24)
	if n < 1 {
		n = 1
	}
	return n
}

func cost(p turnin.Policy, day time.Time) int {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return p.WeekendPenalty
	}
	return p.DayPenalty
}
