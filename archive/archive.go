// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package archive builds the compressed tar archive of a submission in
// the class account.
//
// The target file is created exclusively as the owner. The archiver
// then runs as the submitter with its output going to the open target,
// so it can read only what the submitter can read while the result
// belongs to the owner. Two submissions racing for the same slot cannot
// both create the target; the loser fails.
package archive // import "turnin.io/archive"

import (
	"io"
	"os"
	"sync"

	"turnin.io/assignment"
	"turnin.io/errors"
	"turnin.io/identity"
	"turnin.io/log"
	"turnin.io/shutdown"
	"turnin.io/turnin"
)

// targetPerm is the permission of a newly created archive.
const targetPerm = 0600

// Archiver writes a compressed tar stream of the named files to w.
type Archiver interface {
	Archive(names []turnin.PathName, w io.Writer) error
}

// Builder builds archives.
type Builder struct {
	Actor    identity.Actor
	Archiver Archiver
}

// Result describes a built archive.
type Result struct {
	Path string
	Contents
}

// Build archives the named files into the slot's archive of the user.
// On any failure after the target is created the target is removed.
func (b *Builder) Build(loc *assignment.Location, user turnin.UserName, s turnin.Slot, names []turnin.PathName) (*Result, error) {
	const op = "archive.Build"
	if len(names) == 0 {
		return nil, errors.E(op, user, errors.Invalid, errors.Str("no files to turn in"))
	}
	target := loc.Archive(user, s)
	path := turnin.PathName(target)

	var f *os.File
	err := b.Actor.AsOwner(func() error {
		var err error
		f, err = create(target)
		return err
	})
	if err != nil {
		return nil, errors.E(op, err)
	}

	// Until Build returns, a shutdown removes the partial target.
	var mu sync.Mutex
	building := true
	shutdown.Handle(func() {
		mu.Lock()
		defer mu.Unlock()
		if building {
			b.remove(target)
		}
	})
	defer func() {
		mu.Lock()
		building = false
		mu.Unlock()
	}()

	err = b.Actor.AsSubmitter(func() error {
		return b.Archiver.Archive(names, f)
	})
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		b.remove(target)
		return nil, errors.E(op, path, errors.IO, err)
	}

	var c Contents
	err = b.Actor.AsOwner(func() error {
		var err error
		c, err = VerifyFile(target)
		return err
	})
	if err != nil {
		b.remove(target)
		return nil, errors.E(op, path, err)
	}
	log.Debug.Printf("%s: %s: %d members, %d bytes", op, target, c.Members, c.Size)
	return &Result{Path: target, Contents: c}, nil
}

// create opens a new file for writing. It fails if anything, including
// a dangling symbolic link, already exists at name.
func create(name string) (*os.File, error) {
	path := turnin.PathName(name)
	if _, err := os.Lstat(name); err == nil {
		return nil, errors.E(path, errors.Exist, errors.Str("the final file already exists"))
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, targetPerm)
	if os.IsExist(err) {
		return nil, errors.E(path, errors.Exist, errors.Str("the final file already exists"))
	}
	if err != nil {
		return nil, errors.E(path, errors.IO, err)
	}
	return f, nil
}

func (b *Builder) remove(target string) {
	err := b.Actor.AsOwner(func() error {
		return os.Remove(target)
	})
	if err != nil && !os.IsNotExist(err) {
		log.Error.Printf("archive: removing %s: %v", target, err)
	}
}
