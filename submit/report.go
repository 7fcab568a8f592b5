// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package submit

import (
	"fmt"
	"io"
	"strings"

	"turnin.io/audit"
	"turnin.io/turnin"
)

// Warnings writes one line per excluded entry, under a heading, and
// reports whether there were any.
func Warnings(w io.Writer, set *turnin.FileSet) bool {
	excluded := set.Excluded()
	if len(excluded) == 0 {
		return false
	}
	fmt.Fprintf(w, "\n************** WARNINGS **************\n")
	for _, e := range excluded {
		fmt.Fprintf(w, "%s: NOT TURNED IN: %s\n", e.Name, e.Tag)
	}
	return true
}

// VerifyList writes the numbered list of regular files, then symbolic
// links, that will be archived.
func VerifyList(w io.Writer, set *turnin.FileSet) {
	fmt.Fprintf(w, "\n*** These are the regular files being turned in:\n\n")
	fmt.Fprintf(w, "\t    Last Modified   Size   Filename\n")
	fmt.Fprintf(w, "\t    -------------- ------  -------------------------\n")
	n := 0
	for _, e := range set.Filter(turnin.Admitted) {
		n++
		fmt.Fprintf(w, "\t%2d: %s %6d  %s\n", n, e.ModTime.Format(audit.TimeLayout), e.Size, e.Name)
	}
	links := set.Filter(turnin.Symlink)
	if len(links) == 0 {
		return
	}
	fmt.Fprintf(w, "\nThese are the symbolic links being turned in:\n")
	fmt.Fprintf(w, "(Be sure the files referenced are turned in too)\n")
	for _, e := range links {
		n++
		fmt.Fprintf(w, "\t%2d: %s -> %s\n", n, e.Name, e.Link)
	}
}

// Summary returns the line announcing what is about to be turned in.
func Summary(t turnin.Totals, target turnin.Target) string {
	count := fmt.Sprintf("%d files", t.Files)
	if t.Symlinks > 0 {
		count = fmt.Sprintf("%d+%d (files+symlinks)", t.Files, t.Symlinks)
	}
	return fmt.Sprintf("You are about to turnin %s [%dKB] for %s to %s", count, t.KBytes, target.Assignment, target.Class)
}

// rule separates the verify list from the summary.
var rule = "\n" + strings.Repeat("*", 76) + "\n\n"
