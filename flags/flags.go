// Copyright 2016 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flags defines the command-line flags of the turnin commands.
package flags

import (
	"flag"
	"fmt"

	"turnin.io/log"
)

// We define the flags in two steps so clients don't have to write *flags.Flag.
// It also makes the documentation easier to read.

var (
	// Help requests the usage message.
	Help = false

	// Version requests the version and license text.
	Version = false

	// LogLevel sets the level of diagnostic logging.
	LogLevel = logFlag("info")
)

type logFlag string

// String implements flag.Value.
func (l *logFlag) String() string {
	return string(*l)
}

// Set implements flag.Value.
func (l *logFlag) Set(level string) error {
	if err := log.SetLevel(level); err != nil {
		return fmt.Errorf("invalid level %q", level) // Can't use turnin.io/errors; it imports log.
	}
	*l = logFlag(level)
	return nil
}

// Get implements flag.Getter.
func (l *logFlag) Get() interface{} {
	return string(*l)
}

// Register defines the flags in the flag set. Both the short and the
// long spelling of each flag are accepted; the flag package treats
// "-help" and "--help" alike.
func Register(fs *flag.FlagSet) {
	fs.BoolVar(&Help, "h", Help, "print usage and exit")
	fs.BoolVar(&Help, "help", Help, "print usage and exit")
	fs.BoolVar(&Version, "V", Version, "print version and license and exit")
	fs.BoolVar(&Version, "version", Version, "print version and license and exit")
	fs.Var(&LogLevel, "log", "`level` of diagnostic logging: debug, info, error, or disabled")
}
