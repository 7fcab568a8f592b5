// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package identity switches the effective credentials of a setuid-root
// process between the submitting user and the class account.
//
// The process starts with an elevated effective identity (the neutral
// role). Every switch first re-asserts the neutral identity, then sets
// the effective group, then the effective user. The group must be set
// first: once the effective user is lowered the process can no longer
// change its group.
//
// A failed step leaves the credentials in an unknown state. The Switch
// then refuses all further work; callers must treat the error as fatal.
package identity // import "turnin.io/identity"

import (
	"os/user"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"

	"turnin.io/errors"
	"turnin.io/log"
	"turnin.io/turnin"
)

// Actor runs functions with a particular effective identity.
// Components that touch the file system or spawn processes do so
// only inside one of these calls.
type Actor interface {
	// AsOwner runs fn as the class account and then restores
	// the identity that was active before the call.
	AsOwner(fn func() error) error

	// AsSubmitter runs fn as the submitting user and then restores
	// the identity that was active before the call.
	AsSubmitter(fn func() error) error
}

// Sys is the set of credential system calls used by a Switch.
type Sys interface {
	Geteuid() int
	Seteuid(uid int) error
	Setegid(gid int) error
}

// unixSys implements Sys with setresuid and setresgid, leaving the real
// and saved IDs alone. The calls go through package syscall, which
// applies them to every thread of the process.
type unixSys struct{}

var _ Sys = unixSys{}

func (unixSys) Geteuid() int          { return unix.Geteuid() }
func (unixSys) Seteuid(uid int) error { return unix.Setresuid(-1, uid, -1) }
func (unixSys) Setegid(gid int) error { return unix.Setresgid(-1, gid, -1) }

// The elevated identity the process is installed with.
const (
	rootUID = 0
	rootGID = 0
)

// Switch implements Actor for a process that holds root as its
// saved identity.
type Switch struct {
	sys       Sys
	submitter turnin.Identity
	owner     turnin.Identity

	mu     sync.Mutex
	active turnin.Role
	broken error // Set after a failed switch.
}

var _ Actor = (*Switch)(nil)

// New returns a Switch for the two identities using the real system
// calls. It fails unless the process is running with root as its
// effective user.
func New(submitter, owner turnin.Identity) (*Switch, error) {
	if owner.UID == rootUID {
		return nil, errors.E("identity.New", owner.Name, errors.Permission, errors.Str("cannot turnin to root"))
	}
	return NewWithSys(unixSys{}, submitter, owner)
}

// NewWithSys is like New but uses the given system calls, and does not
// check the owner.
func NewWithSys(sys Sys, submitter, owner turnin.Identity) (*Switch, error) {
	const op = "identity.New"
	if sys.Geteuid() != rootUID {
		return nil, errors.E(op, errors.Config, errors.Str("turnin must be installed setuid root"))
	}
	return &Switch{
		sys:       sys,
		submitter: submitter,
		owner:     owner,
		active:    turnin.Neutral,
	}, nil
}

// Submitter returns the identity of the submitting user.
func (s *Switch) Submitter() turnin.Identity { return s.submitter }

// Owner returns the identity of the class account.
func (s *Switch) Owner() turnin.Identity { return s.owner }

// Active returns the role the process is currently acting as.
func (s *Switch) Active() turnin.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Settle drops the process to the submitter identity. It is called once
// setup is done so that code outside AsOwner and AsSubmitter runs
// without elevated rights.
func (s *Switch) Settle() error {
	return s.become(turnin.Submitter)
}

// AsOwner implements Actor.
func (s *Switch) AsOwner(fn func() error) error {
	return s.as(turnin.Owner, fn)
}

// AsSubmitter implements Actor.
func (s *Switch) AsSubmitter(fn func() error) error {
	return s.as(turnin.Submitter, fn)
}

func (s *Switch) as(role turnin.Role, fn func() error) (err error) {
	prev := s.Active()
	if err := s.become(role); err != nil {
		return err
	}
	defer func() {
		// Restore on every exit path, including a panic in fn.
		if rerr := s.become(prev); rerr != nil {
			err = rerr
		}
	}()
	return fn()
}

// become switches to the role, passing through the neutral identity.
// The mutex is not held while callers' functions run, so a shutdown
// handler may switch while the main goroutine waits on a subprocess.
func (s *Switch) become(role turnin.Role) error {
	const op = "identity.Switch"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken != nil {
		return s.broken
	}
	var id turnin.Identity
	switch role {
	case turnin.Neutral:
	case turnin.Submitter:
		id = s.submitter
	case turnin.Owner:
		id = s.owner
	default:
		return errors.E(op, errors.Internal, errors.Errorf("unknown role %d", role))
	}
	log.Debug.Printf("identity: %s -> %s %v", s.active, role, id)

	fail := func(step string, err error) error {
		s.broken = errors.E(op, id.Name, errors.Permission, errors.Errorf("%s: %v", step, err))
		return s.broken
	}
	if err := s.sys.Seteuid(rootUID); err != nil {
		return fail("seteuid root", err)
	}
	if err := s.sys.Setegid(rootGID); err != nil {
		return fail("setegid root", err)
	}
	if role != turnin.Neutral {
		if err := s.sys.Setegid(id.GID); err != nil {
			return fail("setegid "+role.String(), err)
		}
		if err := s.sys.Seteuid(id.UID); err != nil {
			return fail("seteuid "+role.String(), err)
		}
	}
	s.active = role
	return nil
}

// Submitter looks up the account of the real user running the process.
func Submitter() (turnin.Identity, error) {
	const op = "identity.Submitter"
	uid := unix.Getuid()
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return turnin.Identity{}, errors.E(op, errors.NotExist, errors.Errorf("cannot lookup user (uid %d): %v", uid, err))
	}
	if u.Username == "" {
		return turnin.Identity{}, errors.E(op, errors.NotExist, errors.Errorf("cannot lookup user name (uid %d)", uid))
	}
	return fromUser(op, u)
}

// Owner looks up the class account.
func Owner(class turnin.UserName) (turnin.Identity, error) {
	const op = "identity.Owner"
	u, err := user.Lookup(string(class))
	if err != nil {
		return turnin.Identity{}, errors.E(op, class, errors.Config, errors.Errorf("'%s' is not a valid course", class))
	}
	id, err := fromUser(op, u)
	if err != nil {
		return id, err
	}
	if id.UID == rootUID {
		return turnin.Identity{}, errors.E(op, class, errors.Permission, errors.Str("cannot turnin to root"))
	}
	return id, nil
}

func fromUser(op string, u *user.User) (turnin.Identity, error) {
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return turnin.Identity{}, errors.E(op, turnin.UserName(u.Username), errors.Internal, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return turnin.Identity{}, errors.E(op, turnin.UserName(u.Username), errors.Internal, err)
	}
	return turnin.Identity{
		Name: turnin.UserName(u.Username),
		UID:  uid,
		GID:  gid,
		Home: turnin.PathName(u.HomeDir),
	}, nil
}
