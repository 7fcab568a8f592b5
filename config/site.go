// Copyright 2016 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the site configuration and the per-assignment
// LIMITS policy.
package config // import "turnin.io/config"

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
	yaml "gopkg.in/yaml.v2"

	"turnin.io/errors"
	"turnin.io/log"
	"turnin.io/turnin"
)

// SitePath is the fixed location of the site configuration file.
const SitePath = "/etc/turnin/config.yaml"

// Site holds the site-wide settings.
type Site struct {
	// Archiver is the absolute path of the tar executable.
	Archiver string
	// TurninDir is the directory, relative to the class account's home,
	// that holds the assignments.
	TurninDir string
	// LogLevel is the default diagnostic logging level.
	LogLevel string
	// Defaults is the policy in force before LIMITS is applied.
	Defaults turnin.Policy
}

// DefaultSite returns the settings used when there is no site configuration file.
func DefaultSite() *Site {
	return &Site{
		Archiver:  "/bin/tar",
		TurninDir: "TURNIN",
		LogLevel:  "info",
		Defaults:  turnin.DefaultPolicy,
	}
}

// siteYAML is the on-disk form of Site. Unknown keys are errors.
type siteYAML struct {
	Archiver  string         `yaml:"archiver"`
	TurninDir string         `yaml:"turnindir"`
	LogLevel  string         `yaml:"loglevel"`
	Defaults  map[string]int `yaml:"defaults"`
}

// LoadSite reads the site configuration from the named file. A missing
// file yields DefaultSite. The file must be owned by trustedUID and not
// be writable by group or others, since it names the program run on
// behalf of every submitter.
func LoadSite(name string, trustedUID int) (*Site, error) {
	const op = "config.LoadSite"
	f, err := os.Open(name)
	if os.IsNotExist(err) {
		log.Debug.Printf("config: no site configuration at %s", name)
		return DefaultSite(), nil
	}
	if err != nil {
		return nil, errors.E(op, turnin.PathName(name), errors.Config, err)
	}
	defer f.Close()
	if err := checkTrusted(f, trustedUID); err != nil {
		return nil, errors.E(op, turnin.PathName(name), err)
	}
	s, err := ParseSite(f)
	if err != nil {
		return nil, errors.E(op, turnin.PathName(name), err)
	}
	return s, nil
}

func checkTrusted(f *os.File, trustedUID int) error {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return errors.E(errors.IO, err)
	}
	if int(st.Uid) != trustedUID {
		return errors.E(errors.Permission, errors.Errorf("owned by uid %d, want %d", st.Uid, trustedUID))
	}
	if st.Mode&(unix.S_IWGRP|unix.S_IWOTH) != 0 {
		return errors.E(errors.Permission, errors.Str("writable by group or others"))
	}
	return nil
}

// ParseSite parses YAML site configuration such as
//
//	archiver: /bin/tar
//	turnindir: TURNIN
//	loglevel: info
//	defaults:
//	  maxturnins: 5
//	  daypenalty: 20
//
// Keys under defaults are the integer LIMITS keywords.
func ParseSite(r io.Reader) (*Site, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.E(errors.IO, err)
	}
	var y siteYAML
	if err := yaml.UnmarshalStrict(data, &y); err != nil {
		return nil, errors.E(errors.Config, errors.Errorf("parsing YAML file: %v", err))
	}
	s := DefaultSite()
	if y.Archiver != "" {
		if !filepath.IsAbs(y.Archiver) {
			return nil, errors.E(errors.Config, errors.Errorf("archiver %q is not an absolute path", y.Archiver))
		}
		s.Archiver = filepath.Clean(y.Archiver)
	}
	if y.TurninDir != "" {
		if filepath.IsAbs(y.TurninDir) || strings.Contains(y.TurninDir, "..") {
			return nil, errors.E(errors.Config, errors.Errorf("turnindir %q must be a relative path", y.TurninDir))
		}
		s.TurninDir = y.TurninDir
	}
	if y.LogLevel != "" {
		if !isLevel(y.LogLevel) {
			return nil, errors.E(errors.Config, errors.Errorf("invalid log level %q", y.LogLevel))
		}
		s.LogLevel = y.LogLevel
	}
	for k, v := range y.Defaults {
		ok, err := setInt(&s.Defaults, strings.ToLower(k), v)
		if err != nil {
			return nil, errors.E(errors.Config, errors.Errorf("defaults: %v", err))
		}
		if !ok {
			return nil, errors.E(errors.Config, errors.Errorf("defaults: unrecognized key %q", k))
		}
	}
	return s, nil
}

func isLevel(l string) bool {
	switch l {
	case "debug", "info", "error", "disabled":
		return true
	}
	return false
}
