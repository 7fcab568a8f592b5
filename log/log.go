// Copyright 2016 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package log exports logging primitives that log to stderr.
// It is for diagnostics meant for administrators; messages meant for
// the person running turnin are written by package subcmd.
package log

// We call this log instead of logging for two reasons:
// 1) It's shorter to type;
// 2) it mimics Go's log package and can be used as a drop-in replacement for it.

import (
	"fmt"
	goLog "log"
	"os"
	"sync"
)

// Logger is the interface for logging messages.
type Logger interface {
	// Printf writes a formated message to the log.
	Printf(format string, v ...interface{})

	// Print writes a message to the log.
	Print(v ...interface{})

	// Println writes a line to the log.
	Println(v ...interface{})

	// Fatal writes a message to the log and aborts.
	Fatal(v ...interface{})

	// Fatalf writes a formated message to the log and aborts.
	Fatalf(format string, v ...interface{})
}

// level represents the level of logging.
type level int

// Different levels of logging.
const (
	debug level = iota
	info
	errors
	disabled
)

// Pre-allocated Loggers at each logging level.
var (
	Debug = newLogger(debug)
	Info  = newLogger(info)
	Error = newLogger(errors)
)

var state = struct {
	mu            sync.Mutex
	currentLevel  level
	defaultLogger Logger
}{
	currentLevel:  info,
	defaultLogger: goLog.New(os.Stderr, "turnin: ", goLog.Ldate|goLog.Ltime|goLog.Lmicroseconds),
}

type logger struct {
	level level
}

var _ Logger = (*logger)(nil)

func current() (level, Logger) {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.currentLevel, state.defaultLogger
}

// Printf writes a formated message to the log.
func (l *logger) Printf(format string, v ...interface{}) {
	cur, out := current()
	if l.level < cur {
		return // Don't log at lower levels.
	}
	out.Printf(format, v...)
}

// Print writes a message to the log.
func (l *logger) Print(v ...interface{}) {
	cur, out := current()
	if l.level < cur {
		return // Don't log at lower levels.
	}
	out.Print(v...)
}

// Println writes a line to the log.
func (l *logger) Println(v ...interface{}) {
	cur, out := current()
	if l.level < cur {
		return // Don't log at lower levels.
	}
	out.Println(v...)
}

// Fatal writes a message to the log and aborts, regardless of the current log level.
func (l *logger) Fatal(v ...interface{}) {
	_, out := current()
	out.Fatal(v...)
}

// Fatalf writes a formated message to the log and aborts, regardless of the current log level.
func (l *logger) Fatalf(format string, v ...interface{}) {
	_, out := current()
	out.Fatalf(format, v...)
}

// String returns the name of the logger.
func (l *logger) String() string {
	return toString(l.level)
}

func toString(level level) string {
	switch level {
	case info:
		return "info"
	case debug:
		return "debug"
	case errors:
		return "error"
	case disabled:
		return "disabled"
	}
	return "unknown"
}

func toLevel(level string) (level, error) {
	switch level {
	case "info":
		return info, nil
	case "debug":
		return debug, nil
	case "error":
		return errors, nil
	case "disabled":
		return disabled, nil
	}
	return disabled, fmt.Errorf("invalid log level %q", level)
}

// GetLevel returns the current logging level.
func GetLevel() string {
	cur, _ := current()
	return toString(cur)
}

// SetLevel sets the current level of logging.
func SetLevel(level string) error {
	l, err := toLevel(level)
	if err != nil {
		return err
	}
	state.mu.Lock()
	state.currentLevel = l
	state.mu.Unlock()
	return nil
}

// At returns whether the level will be logged currently.
func At(level string) bool {
	l, err := toLevel(level)
	if err != nil {
		return false
	}
	cur, _ := current()
	return cur <= l
}

// SetOutput sets the destination of all loggers. A nil logger
// restores the default, which writes to standard error.
func SetOutput(l Logger) {
	if l == nil {
		l = goLog.New(os.Stderr, "turnin: ", goLog.Ldate|goLog.Ltime|goLog.Lmicroseconds)
	}
	state.mu.Lock()
	state.defaultLogger = l
	state.mu.Unlock()
}

// Printf writes a formated message to the log.
func Printf(format string, v ...interface{}) {
	Info.Printf(format, v...)
}

// Print writes a message to the log.
func Print(v ...interface{}) {
	Info.Print(v...)
}

// Println writes a line to the log.
func Println(v ...interface{}) {
	Info.Println(v...)
}

// Fatal writes a message to the log and aborts.
func Fatal(v ...interface{}) {
	Info.Fatal(v...)
}

// Fatalf writes a formated message to the log and aborts.
func Fatalf(format string, v ...interface{}) {
	Info.Fatalf(format, v...)
}

// newLogger instantiates an implicit Logger at the given level.
func newLogger(level level) Logger {
	return &logger{level: level}
}
