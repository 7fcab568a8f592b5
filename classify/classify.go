// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package classify walks the files and directories named on the command
// line and decides, for every entry found, whether it is turned in.
//
// Classification never stops at a bad entry. Each problem is recorded
// as a Tag on the entry so that the user sees all of them at once.
// It must run as the submitter, so it can only see what the submitter
// can see.
package classify // import "turnin.io/classify"

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"turnin.io/log"
	"turnin.io/turnin"
)

// sniffSize is the number of leading bytes examined for a zero byte.
const sniffSize = 256

// Classifier classifies file system entries.
type Classifier struct {
	// AllowBinary admits files that look binary.
	AllowBinary bool
}

// New returns a Classifier for the policy.
func New(p turnin.Policy) *Classifier {
	return &Classifier{AllowBinary: p.Binary}
}

// Classify walks the arguments in order, descending into directories,
// and returns one entry per discovered file system entry.
func (c *Classifier) Classify(args []string) *turnin.FileSet {
	set := new(turnin.FileSet)
	for _, arg := range args {
		c.add(set, arg, true)
	}
	return set
}

func (c *Classifier) add(set *turnin.FileSet, name string, top bool) {
	mustBeDir := false
	for len(name) > 1 && name[len(name)-1] == '/' {
		name = name[:len(name)-1]
		mustBeDir = true
	}
	e := turnin.FileEntry{Name: turnin.PathName(name)}
	base := filepath.Base(name)
	switch {
	case base == "core":
		e.Tag = turnin.Core
	case strings.HasPrefix(base, ".") && !(top && name == "."):
		e.Tag = turnin.Hidden
	case hasDotDot(name):
		e.Tag = turnin.DotDot
	}
	if e.Tag != turnin.Admitted {
		set.Append(e)
		return
	}

	fi, err := os.Lstat(name)
	if err != nil {
		e.Tag = turnin.NotExist
		set.Append(e)
		return
	}
	mode := fi.Mode()
	if mustBeDir && !mode.IsDir() {
		e.Tag = turnin.NotDir
		set.Append(e)
		return
	}

	switch {
	case mode.IsRegular():
		e.Tag = c.regular(name, mode)
		if e.Tag == turnin.Admitted {
			e.ModTime = fi.ModTime()
			e.Size = fi.Size()
		}
		set.Append(e)
	case mode&os.ModeSymlink != 0:
		// Recorded for display only; the link is not followed.
		target, err := os.Readlink(name)
		if err != nil {
			log.Debug.Printf("classify: readlink %s: %v", name, err)
			e.Tag = turnin.Perm
		} else {
			e.Tag = turnin.Symlink
			e.Link = target
		}
		set.Append(e)
	case mode.IsDir():
		children, err := readDirNames(name)
		if err != nil {
			log.Debug.Printf("classify: reading %s: %v", name, err)
			e.Tag = turnin.NotDir
			set.Append(e)
			return
		}
		e.Tag = turnin.Directory
		set.Append(e)
		prefix := name + "/"
		if strings.HasSuffix(name, "/") {
			prefix = name
		}
		for _, child := range children {
			c.add(set, prefix+child, false)
		}
	default:
		e.Tag = turnin.NotFile
		set.Append(e)
	}
}

// regular classifies a regular file.
func (c *Classifier) regular(name string, mode os.FileMode) turnin.Tag {
	if mode.Perm()&0400 == 0 {
		return turnin.Perm
	}
	bin, err := isBinary(name)
	if err != nil {
		log.Debug.Printf("classify: %v", err)
		return turnin.Perm
	}
	if bin && !c.AllowBinary {
		return turnin.Binary
	}
	return turnin.Admitted
}

// isBinary reports whether the first bytes of the file contain a zero
// byte. It is a heuristic for ASCII text, not an encoding detector.
func isBinary(name string) (bool, error) {
	f, err := os.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()
	buf := make([]byte, sniffSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}

// readDirNames returns the names in the directory in the order the
// operating system returns them, without "." and "..".
func readDirNames(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdirnames(-1)
}

func hasDotDot(name string) bool {
	for _, elem := range strings.Split(name, "/") {
		if elem == ".." {
			return true
		}
	}
	return false
}
