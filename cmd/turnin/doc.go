// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Command turnin submits files for an assignment to a class account.

Usage:

	turnin [-h|--help] [-V|--version] [-log level] assignment@class file1 [file2 [...]]

The files and directories named are archived into the class account's
TURNIN/assignment directory as a compressed tar file. Directories are
turned in recursively. Hidden files, core files, binary files (unless
the assignment allows them) and anything that is not a regular file,
directory or symbolic link are left out, and each one is listed before
the user is asked to continue.

Every submission gets a new version number. The archive is stored as
on_time/user-N.tgz, or late/user-N-P.tgz when a late penalty of P
percent applies, and the symbolic link user.tgz points at the newest
one. Each submission is recorded in LOGFILE and its SHA-256 in SHA256.

The instructor controls each assignment with an optional LIMITS file
in the assignment directory:

	maxfiles 100        # regular files per submission
	maxkbytes 1000      # kilobytes per submission
	maxturnins 10       # submissions per user
	binary 0            # 1 allows binary files
	daypenalty 10       # percent per late weekday
	weekendpenalty 5    # percent per late weekend day
	showpenalty 1       # 0 hides the penalty from the user
	duedate 20210307 23:59
	lockdate 20210314 23:59

An optional README is shown before the first question and an optional
LATEMESSAGE is shown to late submitters.

Site settings are read from /etc/turnin/config.yaml, which must be
owned by root and writable only by root:

	archiver: /bin/tar
	turnindir: TURNIN
	loglevel: info
	defaults:
	  maxturnins: 5

turnin must be installed setuid root. It acts as the user when reading
the user's files and as the class account when writing the archive.
*/
package main
