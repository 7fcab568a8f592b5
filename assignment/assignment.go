// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package assignment describes the layout of an assignment directory in
// a class account:
//
//	~class/TURNIN/<assignment>/
//		LIMITS          policy file
//		README          shown before the first confirmation
//		LATEMESSAGE     shown when a penalty applies
//		on_time/        <user>-<slot>.tgz
//		late/           <user>-<slot>-<penalty>.tgz
//		<user>.tgz      symbolic link to the user's newest archive
//		LOGFILE         append-only audit log
//		SHA256          append-only integrity log
package assignment // import "turnin.io/assignment"

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"turnin.io/errors"
	"turnin.io/turnin"
	"turnin.io/valid"
)

// File names within the assignment directory.
const (
	LimitsFile  = "LIMITS"
	ReadmeFile  = "README"
	LateFile    = "LATEMESSAGE"
	LogFile     = "LOGFILE"
	HashFile    = "SHA256"
	bucketPerm  = 0755
	requiredRWX = unix.S_IRWXU
)

// Location is the owner-side directory of one assignment.
type Location struct {
	Owner      turnin.Identity
	Assignment turnin.Assignment
	dir        string
}

// New returns the location of the assignment in the owner's turnin
// directory. The assignment identifier is validated first, so the
// result is always rooted under the owner's turnin directory.
func New(owner turnin.Identity, turninDir string, a turnin.Assignment) (*Location, error) {
	const op = "assignment.New"
	if err := valid.Assignment(a); err != nil {
		return nil, errors.E(op, err)
	}
	if owner.Home == "" {
		return nil, errors.E(op, owner.Name, errors.Config, errors.Str("class account has no home directory"))
	}
	return &Location{
		Owner:      owner,
		Assignment: a,
		dir:        filepath.Join(string(owner.Home), turninDir, string(a)),
	}, nil
}

// Dir returns the assignment directory.
func (l *Location) Dir() string { return l.dir }

// Path returns the named file in the assignment directory.
func (l *Location) Path(name string) string {
	return filepath.Join(l.dir, name)
}

// BucketDir returns the directory holding archives of the bucket.
func (l *Location) BucketDir(b turnin.Bucket) string {
	return filepath.Join(l.dir, b.Dir())
}

// Archive returns the path of the archive for the user's slot.
func (l *Location) Archive(user turnin.UserName, s turnin.Slot) string {
	return filepath.Join(l.BucketDir(s.Bucket()), s.ArchiveName(user))
}

// Pointer returns the path of the symbolic link to the user's newest archive.
func (l *Location) Pointer(user turnin.UserName) string {
	return filepath.Join(l.dir, string(user)+".tgz")
}

// Check verifies that the assignment directory and both bucket
// directories exist, are directories owned by the class account, and
// grant it read, write and search permission. Missing bucket
// directories are created. It must be called as the owner.
func (l *Location) Check() error {
	const op = "assignment.Check"
	if err := l.checkDir(l.dir); err != nil {
		return errors.E(op, err)
	}
	for _, b := range turnin.Buckets {
		dir := l.BucketDir(b)
		var st unix.Stat_t
		if err := unix.Lstat(dir, &st); err == unix.ENOENT {
			if err := os.Mkdir(dir, bucketPerm); err != nil {
				return errors.E(op, turnin.PathName(dir), errors.IO, errors.Errorf("failed to create directory: %v", err))
			}
		}
		if err := l.checkDir(dir); err != nil {
			return errors.E(op, err)
		}
	}
	return nil
}

func (l *Location) checkDir(dir string) error {
	path := turnin.PathName(dir)
	var st unix.Stat_t
	if err := unix.Lstat(dir, &st); err != nil {
		if err == unix.ENOENT {
			return errors.E(path, errors.NotExist, err)
		}
		return errors.E(path, errors.IO, err)
	}
	if int(st.Uid) != l.Owner.UID {
		return errors.E(path, errors.Permission, errors.Errorf("not owned by %s", l.Owner.Name))
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return errors.E(path, errors.NotDir, errors.Str("not a directory"))
	}
	if st.Mode&requiredRWX != requiredRWX {
		return errors.E(path, errors.Permission, errors.Str("has invalid permissions"))
	}
	return nil
}
