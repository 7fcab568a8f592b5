// Copyright 2016 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"turnin.io/errors"
	"turnin.io/turnin"
)

// Known LIMITS keywords. Keywords are matched without regard to case.
const (
	maxfiles       = "maxfiles"
	maxkbytes      = "maxkbytes"
	maxturnins     = "maxturnins"
	binary         = "binary"
	daypenalty     = "daypenalty"
	weekendpenalty = "weekendpenalty"
	showpenalty    = "showpenalty"
	duedate        = "duedate"
	lockdate       = "lockdate"
)

// DateLayout is the layout of duedate and lockdate values, interpreted
// in local time. Values must be exactly len(DateLayout) bytes long.
const DateLayout = "20060102 15:04"

// A Warning reports a LIMITS line that was ignored. Warnings are
// harmless but should be fixed by the instructor.
type Warning struct {
	Line int
	Text string
}

// LimitsFile reads the LIMITS file at name, layered over base.
// A missing file is not an error; base is returned unchanged.
func LimitsFile(name string, base turnin.Policy) (turnin.Policy, []Warning, error) {
	const op = "config.LimitsFile"
	f, err := os.Open(name)
	if os.IsNotExist(err) {
		return base, nil, nil
	}
	if err != nil {
		return base, nil, errors.E(op, turnin.PathName(name), errors.Config, err)
	}
	defer f.Close()
	p, warnings, err := Limits(f, base)
	if err != nil {
		return base, nil, errors.E(op, turnin.PathName(name), err)
	}
	return p, warnings, nil
}

// Limits parses LIMITS data from r, layered over base.
//
// Each line holds a keyword and a value:
//
//	maxfiles 100
//	maxkbytes 1000
//	maxturnins 10
//	binary 0
//	daypenalty 10
//	weekendpenalty 5
//	showpenalty 1
//	duedate YYYYMMDD HH:MM
//	lockdate YYYYMMDD HH:MM
//
// A hash starts a comment. Blank lines are ignored.
//
// Lines that cannot be parsed and unknown keywords produce a Warning.
// A recognized keyword with an out-of-range value is an error of kind
// Config: the assignment is misconfigured and nothing is clamped.
func Limits(r io.Reader, base turnin.Policy) (turnin.Policy, []Warning, error) {
	const op = "config.Limits"
	p := base
	var warnings []Warning
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		keyword, value := line, ""
		if i := strings.IndexAny(line, " \t"); i >= 0 {
			keyword, value = line[:i], strings.TrimSpace(line[i+1:])
		}
		keyword = strings.ToLower(keyword)
		ok, err := set(&p, keyword, value)
		if err != nil {
			return base, nil, errors.E(op, errors.Config, errors.Errorf("line %d: %v", n, err))
		}
		if !ok {
			warnings = append(warnings, Warning{Line: n, Text: line})
		}
	}
	if err := scanner.Err(); err != nil {
		return base, nil, errors.E(op, errors.IO, err)
	}
	return p, warnings, nil
}

// set applies one keyword to the policy. It reports false if the line
// is not understood, and an error if the value is out of range.
func set(p *turnin.Policy, keyword, value string) (bool, error) {
	switch keyword {
	case duedate, lockdate:
		if value == "" {
			return false, nil
		}
		t, err := ParseDate(value)
		if err != nil {
			return true, errors.Errorf("%s in the LIMITS file must be a YYYYMMDD HH:MM format", keyword)
		}
		if keyword == duedate {
			p.DueDate = t
		} else {
			p.LockDate = t
		}
		return true, nil
	}
	fields := strings.Fields(value)
	if len(fields) != 1 {
		return false, nil
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return false, nil
	}
	return setInt(p, keyword, n)
}

// setInt applies an integer keyword. It is shared with the site
// configuration defaults.
func setInt(p *turnin.Policy, keyword string, n int) (bool, error) {
	switch keyword {
	case maxfiles, maxkbytes, maxturnins:
		if n < 1 {
			return true, errors.Errorf("%s in the LIMITS file must be a non-zero positive value", keyword)
		}
		switch keyword {
		case maxfiles:
			p.MaxFiles = n
		case maxkbytes:
			p.MaxKBytes = n
		case maxturnins:
			p.MaxTurnins = n
		}
	case binary, showpenalty:
		if n != 0 && n != 1 {
			return true, errors.Errorf("%s in the LIMITS file can only be 1 or 0", keyword)
		}
		if keyword == binary {
			p.Binary = n == 1
		} else {
			p.ShowPenalty = n == 1
		}
	case daypenalty, weekendpenalty:
		if n < 0 || n > 100 {
			return true, errors.Errorf("%s in the LIMITS file must be between 0 and 100", keyword)
		}
		if keyword == daypenalty {
			p.DayPenalty = n
		} else {
			p.WeekendPenalty = n
		}
	default:
		return false, nil
	}
	return true, nil
}

// ParseDate parses a "YYYYMMDD HH:MM" date in local time. The length is
// checked strictly; whether daylight saving time is in effect is left
// to the time package.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, errors.Errorf("date %q is not %d characters long", s, len(DateLayout))
	}
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// CheckLock returns an error of kind Locked if the policy's lock date is
// set and has passed.
func CheckLock(p turnin.Policy, now time.Time) error {
	if p.LockDate.IsZero() || !now.After(p.LockDate) {
		return nil
	}
	return errors.E("config.CheckLock", errors.Locked, errors.Errorf("assignment locked since %s", p.LockDate.Format(DateLayout)))
}
