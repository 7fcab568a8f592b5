// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package identitytest provides identity.Actor implementations for
// tests that do not run as root. Credential changes are recorded, not
// performed.
package identitytest // import "turnin.io/identity/identitytest"

import (
	"fmt"
	"os"
	"sync"

	"turnin.io/identity"
	"turnin.io/turnin"
)

// Sys implements identity.Sys by recording each call.
// If Fail names a call, as formatted in Calls, that call fails.
type Sys struct {
	mu    sync.Mutex
	calls []string
	euid  int

	Fail string
}

var _ identity.Sys = (*Sys)(nil)

// NewSys returns a Sys whose effective user starts as root.
func NewSys() *Sys {
	return &Sys{}
}

// Geteuid implements identity.Sys.
func (s *Sys) Geteuid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.euid
}

// Seteuid implements identity.Sys.
func (s *Sys) Seteuid(uid int) error {
	return s.record(fmt.Sprintf("seteuid %d", uid), func() { s.euid = uid })
}

// Setegid implements identity.Sys.
func (s *Sys) Setegid(gid int) error {
	return s.record(fmt.Sprintf("setegid %d", gid), nil)
}

func (s *Sys) record(call string, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	if call == s.Fail {
		return fmt.Errorf("operation not permitted")
	}
	if apply != nil {
		apply()
	}
	return nil
}

// Calls returns the recorded calls and clears the record.
func (s *Sys) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.calls
	s.calls = nil
	return c
}

// Identities returns a submitter and an owner that both map onto the
// test process's own credentials, so files created under either role
// belong to the test. Their names are the given ones.
func Identities(submitter, owner turnin.UserName, ownerHome string) (turnin.Identity, turnin.Identity) {
	uid, gid := os.Getuid(), os.Getgid()
	return turnin.Identity{Name: submitter, UID: uid, GID: gid},
		turnin.Identity{Name: owner, UID: uid, GID: gid, Home: turnin.PathName(ownerHome)}
}

// NewSwitch returns a Switch over a recording Sys for identities built
// by Identities.
func NewSwitch(submitter, owner turnin.UserName, ownerHome string) (*identity.Switch, *Sys) {
	sys := NewSys()
	sub, own := Identities(submitter, owner, ownerHome)
	sw, err := identity.NewWithSys(sys, sub, own)
	if err != nil {
		panic(err)
	}
	return sw, sys
}

// Actor implements identity.Actor by tracking the active role.
// The zero value is ready to use and starts out neutral.
type Actor struct {
	mu     sync.Mutex
	active turnin.Role
	roles  []turnin.Role
}

var _ identity.Actor = (*Actor)(nil)

// AsOwner implements identity.Actor.
func (a *Actor) AsOwner(fn func() error) error {
	return a.as(turnin.Owner, fn)
}

// AsSubmitter implements identity.Actor.
func (a *Actor) AsSubmitter(fn func() error) error {
	return a.as(turnin.Submitter, fn)
}

func (a *Actor) as(role turnin.Role, fn func() error) error {
	a.mu.Lock()
	prev := a.active
	a.active = role
	a.roles = append(a.roles, role)
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.active = prev
		a.mu.Unlock()
	}()
	return fn()
}

// Active returns the role fn is running as, or Neutral outside any call.
func (a *Actor) Active() turnin.Role {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Roles returns the role of each call made so far, in order.
func (a *Actor) Roles() []turnin.Role {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]turnin.Role(nil), a.roles...)
}
