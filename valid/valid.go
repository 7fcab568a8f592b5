// Copyright 2016 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package valid does validation of various data types.
package valid

import (
	"strings"

	"turnin.io/errors"
	"turnin.io/turnin"
)

// okAssignmentChar reports whether r may appear in an assignment identifier.
// The identifier becomes part of a path written with the class account's
// rights, so the set is deliberately small and ASCII only.
func okAssignmentChar(r rune) bool {
	switch {
	case 'a' <= r && r <= 'z':
		return true
	case 'A' <= r && r <= 'Z':
		return true
	case '0' <= r && r <= '9':
		return true
	case r == ' ' || r == '_' || r == '-' || r == '/':
		return true
	}
	return false
}

// Assignment verifies that the identifier is non-empty, relative, and
// built only from letters, digits, space, underscore, hyphen and slash.
func Assignment(a turnin.Assignment) error {
	const op = "valid.Assignment"
	if a == "" {
		return errors.E(op, errors.Syntax, errors.Str("assignment name cannot be empty"))
	}
	if a[0] == '/' {
		return errors.E(op, errors.Syntax, errors.Str("the assignment cannot be an absolute path"))
	}
	for _, r := range string(a) {
		if !okAssignmentChar(r) {
			return errors.E(op, errors.Syntax, errors.Str("an assignment can include only ascii characters in [a-zA-Z0-9 /_-]"))
		}
	}
	return nil
}

// okUserChar reports whether r may appear in a local account name.
func okUserChar(r rune) bool {
	switch {
	case 'a' <= r && r <= 'z':
		return true
	case 'A' <= r && r <= 'Z':
		return true
	case '0' <= r && r <= '9':
		return true
	case r == '.' || r == '_' || r == '-':
		return true
	}
	return false
}

// UserName verifies that the name is a plausible local account name.
func UserName(user turnin.UserName) error {
	const op = "valid.UserName"
	if user == "" || user[0] == '-' {
		return errors.E(op, user, errors.Syntax, errors.Str("bad account name"))
	}
	for _, r := range string(user) {
		if !okUserChar(r) {
			return errors.E(op, user, errors.Syntax, errors.Str("bad account name"))
		}
	}
	return nil
}

// Target parses and validates an "assignment@class" argument.
// The split happens at the first at sign.
func Target(arg string) (turnin.Target, error) {
	const op = "valid.Target"
	i := strings.IndexByte(arg, '@')
	if i < 0 {
		return turnin.Target{}, errors.E(op, errors.Syntax, errors.Errorf("%q is not of the form assignment@class", arg))
	}
	t := turnin.Target{
		Assignment: turnin.Assignment(arg[:i]),
		Class:      turnin.UserName(arg[i+1:]),
	}
	if err := Assignment(t.Assignment); err != nil {
		return turnin.Target{}, errors.E(op, err)
	}
	if err := UserName(t.Class); err != nil {
		return turnin.Target{}, errors.E(op, errors.Config, errors.Errorf("'%s' is not a valid course", t.Class))
	}
	return t, nil
}
