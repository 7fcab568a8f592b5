// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package commit points a submitter's "<user>.tgz" link at the newest
// archive.
package commit // import "turnin.io/commit"

import (
	"os"

	"turnin.io/assignment"
	"turnin.io/errors"
	"turnin.io/log"
	"turnin.io/turnin"
)

const escalate = "please report this to the instructor"

// Pointer makes the user's pointer link refer to the slot's archive,
// replacing an existing link. Anything at the link's path other than a
// symbolic link is left alone and reported. It must be called as the
// owner.
func Pointer(loc *assignment.Location, user turnin.UserName, s turnin.Slot) error {
	const op = "commit.Pointer"
	link := loc.Pointer(user)
	path := turnin.PathName(link)
	target := s.RelPath(user)

	err := os.Symlink(target, link)
	if err == nil {
		return nil
	}
	if !os.IsExist(err) {
		return errors.E(op, path, user, errors.IO, errors.Errorf("%v; %s", err, escalate))
	}

	fi, err := os.Lstat(link)
	if err != nil {
		return errors.E(op, path, user, errors.IO, errors.Errorf("%v; %s", err, escalate))
	}
	if fi.Mode()&os.ModeSymlink == 0 {
		return errors.E(op, path, user, errors.Exist, errors.Errorf("exists and is not a symbolic link; %s", escalate))
	}
	log.Debug.Printf("%s: replacing %s", op, link)
	if err := os.Remove(link); err != nil {
		return errors.E(op, path, user, errors.IO, errors.Errorf("%v; %s", err, escalate))
	}
	if err := os.Symlink(target, link); err != nil {
		return errors.E(op, path, user, errors.IO, errors.Errorf("%v; %s", err, escalate))
	}
	return nil
}
