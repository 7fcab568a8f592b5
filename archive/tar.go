// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"bytes"
	"io"
	"os/exec"
	"strings"

	"turnin.io/errors"
	"turnin.io/log"
	"turnin.io/turnin"
)

// Env is the complete environment of the archiver process.
var Env = []string{"PATH=/usr/bin:/bin", "LC_ALL=C"}

// Tar is an Archiver that runs a tar executable.
type Tar struct {
	// Path is the absolute path of the executable.
	Path string
	// Stderr receives the archiver's diagnostics. If nil they are
	// included in the returned error.
	Stderr io.Writer
}

var _ Archiver = (*Tar)(nil)

// Args returns the arguments, excluding the command name, that produce
// a gzip-compressed archive of the names on standard output. Backup
// files and version control metadata are left out.
func Args(names []turnin.PathName) []string {
	args := []string{"czf", "-", "--exclude-backups", "--exclude-vcs", "--"}
	for _, n := range names {
		args = append(args, string(n))
	}
	return args
}

// Archive implements Archiver.
func (t *Tar) Archive(names []turnin.PathName, w io.Writer) error {
	const op = "archive.Tar"
	cmd := exec.Command(t.Path, Args(names)...)
	cmd.Env = Env
	cmd.Stdout = w
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if t.Stderr != nil {
		cmd.Stderr = t.Stderr
	}
	log.Debug.Printf("%s: %s %d names", op, t.Path, len(names))
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return errors.E(op, errors.IO, errors.Errorf("%v: %s", err, msg))
		}
		return errors.E(op, errors.IO, err)
	}
	return nil
}
