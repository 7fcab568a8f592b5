// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package identity_test

import (
	"strings"
	"testing"

	"turnin.io/errors"
	"turnin.io/identity"
	"turnin.io/identity/identitytest"
	"turnin.io/turnin"
)

var (
	jane  = turnin.Identity{Name: "jane", UID: 1001, GID: 100}
	cs101 = turnin.Identity{Name: "cs101", UID: 2001, GID: 200, Home: "/home/cs101"}
)

func newSwitch(t *testing.T) (*identity.Switch, *identitytest.Sys) {
	t.Helper()
	sys := identitytest.NewSys()
	sw, err := identity.NewWithSys(sys, jane, cs101)
	if err != nil {
		t.Fatal(err)
	}
	return sw, sys
}

func expectCalls(t *testing.T, sys *identitytest.Sys, want ...string) {
	t.Helper()
	got := sys.Calls()
	if strings.Join(got, ", ") != strings.Join(want, ", ") {
		t.Errorf("calls:\n\t%s\nwant:\n\t%s", strings.Join(got, ", "), strings.Join(want, ", "))
	}
}

func TestSwitchOrder(t *testing.T) {
	sw, sys := newSwitch(t)
	var during turnin.Role
	err := sw.AsOwner(func() error {
		during = sw.Active()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if during != turnin.Owner {
		t.Errorf("active role inside AsOwner is %v", during)
	}
	if sw.Active() != turnin.Neutral {
		t.Errorf("active role after AsOwner is %v; want neutral", sw.Active())
	}
	expectCalls(t, sys,
		// Become owner: neutral first, group before user.
		"seteuid 0", "setegid 0", "setegid 200", "seteuid 2001",
		// Restore neutral.
		"seteuid 0", "setegid 0",
	)
}

func TestSettleAndNest(t *testing.T) {
	sw, sys := newSwitch(t)
	if err := sw.Settle(); err != nil {
		t.Fatal(err)
	}
	expectCalls(t, sys, "seteuid 0", "setegid 0", "setegid 100", "seteuid 1001")

	err := sw.AsOwner(func() error {
		return sw.AsSubmitter(func() error {
			if sw.Active() != turnin.Submitter {
				t.Errorf("active role is %v; want submitter", sw.Active())
			}
			return nil
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	if sw.Active() != turnin.Submitter {
		t.Errorf("active role after nesting is %v; want submitter", sw.Active())
	}
	expectCalls(t, sys,
		"seteuid 0", "setegid 0", "setegid 200", "seteuid 2001", // owner
		"seteuid 0", "setegid 0", "setegid 100", "seteuid 1001", // submitter
		"seteuid 0", "setegid 0", "setegid 200", "seteuid 2001", // back to owner
		"seteuid 0", "setegid 0", "setegid 100", "seteuid 1001", // back to submitter
	)
}

func TestRestoreOnError(t *testing.T) {
	sw, _ := newSwitch(t)
	if err := sw.Settle(); err != nil {
		t.Fatal(err)
	}
	want := errors.Str("boom")
	err := sw.AsOwner(func() error { return want })
	if err != want {
		t.Errorf("AsOwner returned %v; want %v", err, want)
	}
	if sw.Active() != turnin.Submitter {
		t.Errorf("active role is %v; want submitter", sw.Active())
	}
}

func TestRestoreOnPanic(t *testing.T) {
	sw, _ := newSwitch(t)
	if err := sw.Settle(); err != nil {
		t.Fatal(err)
	}
	func() {
		defer func() { recover() }()
		sw.AsOwner(func() error { panic("boom") })
	}()
	if sw.Active() != turnin.Submitter {
		t.Errorf("active role after panic is %v; want submitter", sw.Active())
	}
}

func TestFailureIsSticky(t *testing.T) {
	sw, sys := newSwitch(t)
	sys.Fail = "setegid 200"
	ran := false
	err := sw.AsOwner(func() error {
		ran = true
		return nil
	})
	if !errors.Is(errors.Permission, err) {
		t.Fatalf("AsOwner = %v; want permission error", err)
	}
	if ran {
		t.Error("function ran after a failed switch")
	}
	// The call that failed must have been the last one attempted.
	expectCalls(t, sys, "seteuid 0", "setegid 0", "setegid 200")

	// Every later switch is refused without touching credentials.
	sys.Fail = ""
	err = sw.AsSubmitter(func() error {
		ran = true
		return nil
	})
	if err == nil || ran {
		t.Fatalf("AsSubmitter after failure: err=%v ran=%t", err, ran)
	}
	expectCalls(t, sys)
}

func TestNewRequiresRoot(t *testing.T) {
	sys := identitytest.NewSys()
	if err := sys.Seteuid(1001); err != nil {
		t.Fatal(err)
	}
	_, err := identity.NewWithSys(sys, jane, cs101)
	if !errors.Is(errors.Config, err) {
		t.Errorf("NewWithSys as non-root = %v; want config error", err)
	}
}

func TestNewRefusesRootOwner(t *testing.T) {
	root := turnin.Identity{Name: "root"}
	_, err := identity.New(jane, root)
	if !errors.Is(errors.Permission, err) {
		t.Errorf("New with root owner = %v; want permission error", err)
	}
}
