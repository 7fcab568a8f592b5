// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package turnin contains global interface and other definitions for the components of the system.
package turnin // import "turnin.io/turnin"

import (
	"fmt"
	"time"
)

// A UserName is a local account name, such as "jane" or "cs101".
type UserName string

// A PathName is a local file system path, as seen by the process.
type PathName string

// An Assignment is the identifier of an assignment within a class account,
// such as "hw1" or "labs/lab 2". It is always a relative path.
type Assignment string

// Target names the assignment being turned in and the class account
// that receives it. Its text form is "assignment@class".
type Target struct {
	Assignment Assignment
	Class      UserName
}

func (t Target) String() string {
	return string(t.Assignment) + "@" + string(t.Class)
}

// Identity is a (user-id, group-id) credential pair.
type Identity struct {
	Name UserName
	UID  int
	GID  int
	Home PathName // Home directory of the account.
}

func (id Identity) String() string {
	return fmt.Sprintf("%s(%d:%d)", id.Name, id.UID, id.GID)
}

// Role selects which Identity the process acts as.
type Role int

// The roles. Neutral is the elevated identity the process starts with;
// every switch passes through it.
const (
	Neutral Role = iota
	Submitter
	Owner
)

func (r Role) String() string {
	switch r {
	case Neutral:
		return "neutral"
	case Submitter:
		return "submitter"
	case Owner:
		return "owner"
	}
	return "unknown role"
}

// Policy holds the per-assignment quota and late-submission settings.
// It is read once per invocation and not modified afterward.
type Policy struct {
	MaxFiles       int  // Maximum number of admitted regular files.
	MaxKBytes      int  // Maximum admitted size, in kilobyte-rounded units.
	MaxTurnins     int  // Maximum number of slots per submitter.
	Binary         bool // Whether binary files are admitted.
	DayPenalty     int  // Percent deducted per late weekday.
	WeekendPenalty int  // Percent deducted per late weekend day.
	ShowPenalty    bool // Whether the computed penalty is disclosed before confirmation.

	// DueDate and LockDate are zero if unset.
	DueDate  time.Time
	LockDate time.Time
}

// DefaultPolicy is the policy in force when no LIMITS file or site default
// says otherwise.
var DefaultPolicy = Policy{
	MaxFiles:       100,
	MaxKBytes:      1000,
	MaxTurnins:     10,
	Binary:         false,
	DayPenalty:     10,
	WeekendPenalty: 5,
	ShowPenalty:    true,
}

// Tag is the classifier's decision about a discovered file system entry.
type Tag uint8

// Tags. Only Admitted and Symlink entries are archived; Directory entries
// are expanded into their children. All others are excluded, and the
// tag names the reason.
const (
	Admitted Tag = iota
	Directory
	Symlink
	NotFile  // Not a regular file, directory, or symlink.
	Binary   // Binary file and the policy does not allow binaries.
	Hidden   // Final path component begins with a dot.
	DotDot   // Path contains a ".." component.
	NotExist // Cannot be stat'ed.
	Core     // A core dump.
	Perm     // Not readable by its owner.
	NotDir   // Named with a trailing slash but not a directory, or unreadable directory.
)

// Excluded reports whether the tag keeps the entry out of the archive.
func (t Tag) Excluded() bool {
	return t != Admitted && t != Directory && t != Symlink
}

// String returns the reason an entry with this tag is not turned in,
// or a short description for included tags.
func (t Tag) String() string {
	switch t {
	case Admitted:
		return "admitted"
	case Directory:
		return "directory"
	case Symlink:
		return "symbolic link"
	case NotFile:
		return "not a file, directory, or symlink"
	case Binary:
		return "binary file"
	case Hidden:
		return "hidden file or directory"
	case DotDot:
		return "pathname contained '..'"
	case NotExist:
		return "does not exist"
	case Core:
		return "may not turnin core files"
	case Perm:
		return "no access permissions"
	case NotDir:
		return "error reading directory"
	}
	return "unknown tag"
}

// FileEntry describes one discovered file system entry.
// Entries are created by the classifier and never modified afterward.
type FileEntry struct {
	Name    PathName  // As given, trailing slashes removed.
	Tag     Tag       // Admission decision.
	ModTime time.Time // Set for admitted regular files.
	Size    int64     // Set for admitted regular files; zero for directories.
	Link    string    // Link target text, for symlinks.
}

// FileSet is the ordered result of classification: arguments in the
// order given, directory children in enumeration order.
type FileSet struct {
	entries []FileEntry
}

// Append adds an entry to the end of the set.
func (s *FileSet) Append(e FileEntry) {
	s.entries = append(s.entries, e)
}

// Len returns the number of entries.
func (s *FileSet) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries in discovery order.
func (s *FileSet) Entries() []FileEntry {
	out := make([]FileEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Filter returns the entries carrying the given tag, in discovery order.
func (s *FileSet) Filter(tag Tag) []FileEntry {
	var out []FileEntry
	for _, e := range s.entries {
		if e.Tag == tag {
			out = append(out, e)
		}
	}
	return out
}

// Excluded returns the entries that will not be turned in.
func (s *FileSet) Excluded() []FileEntry {
	var out []FileEntry
	for _, e := range s.entries {
		if e.Tag.Excluded() {
			out = append(out, e)
		}
	}
	return out
}

// Members returns the names to be archived: admitted files and symlinks,
// in discovery order.
func (s *FileSet) Members() []PathName {
	var out []PathName
	for _, e := range s.entries {
		if e.Tag == Admitted || e.Tag == Symlink {
			out = append(out, e.Name)
		}
	}
	return out
}

// Totals summarizes the admitted part of a FileSet.
type Totals struct {
	Files    int // Admitted regular files.
	Symlinks int // Admitted symlinks.
	KBytes   int64
}

// Count returns the number of archive members.
func (t Totals) Count() int {
	return t.Files + t.Symlinks
}

// Bucket is the storage subdirectory for an archive.
type Bucket int

// The buckets.
const (
	OnTime Bucket = iota
	Late
)

// Buckets lists every bucket, in probe order.
var Buckets = []Bucket{OnTime, Late}

// Dir returns the name of the bucket's subdirectory.
func (b Bucket) Dir() string {
	if b == Late {
		return "late"
	}
	return "on_time"
}

func (b Bucket) String() string {
	return b.Dir()
}

// Slot identifies one committed archive of one submitter.
type Slot struct {
	Number  int // In [1, MaxTurnins].
	Penalty int // Percent; zero means on time.
}

// Bucket returns the bucket the slot's archive is stored in.
func (s Slot) Bucket() Bucket {
	if s.Penalty > 0 {
		return Late
	}
	return OnTime
}

// ArchiveName returns the file name of the archive for the submitter,
// without directory.
func (s Slot) ArchiveName(user UserName) string {
	if s.Penalty > 0 {
		return fmt.Sprintf("%s-%d-%d.tgz", user, s.Number, s.Penalty)
	}
	return fmt.Sprintf("%s-%d.tgz", user, s.Number)
}

// RelPath returns the archive path relative to the assignment directory,
// in the form used as a symbolic link target.
func (s Slot) RelPath(user UserName) string {
	return "./" + s.Bucket().Dir() + "/" + s.ArchiveName(user)
}
