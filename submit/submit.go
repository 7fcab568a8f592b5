// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package submit runs a submission from start to finish.
//
// A Submission records everything learned along the way. Each step
// reads what earlier steps stored in it and adds its own result, so
// the steps share no other state. Every file system access and the
// archiver run inside the Runner's Actor, as the submitter or as the
// owner of the assignment.
package submit // import "turnin.io/submit"

import (
	"io/ioutil"
	"os"
	"time"

	humanize "github.com/dustin/go-humanize"

	"turnin.io/archive"
	"turnin.io/assignment"
	"turnin.io/audit"
	"turnin.io/classify"
	"turnin.io/commit"
	"turnin.io/config"
	"turnin.io/errors"
	"turnin.io/identity"
	"turnin.io/log"
	"turnin.io/metric"
	"turnin.io/quota"
	"turnin.io/slot"
	"turnin.io/subcmd"
	"turnin.io/turnin"
)

// Submission is one run of turnin.
type Submission struct {
	Target    turnin.Target
	Args      []string // Files and directories named by the submitter.
	Submitter turnin.UserName
	Location  *assignment.Location
	Base      turnin.Policy // Policy before LIMITS is applied.

	Policy  turnin.Policy
	Penalty int
	Set     *turnin.FileSet
	Totals  turnin.Totals
	Slot    turnin.Slot
	Archive *archive.Result
	Record  audit.Record
}

// New returns a Submission ready to run.
func New(target turnin.Target, args []string, submitter turnin.UserName, loc *assignment.Location, base turnin.Policy) *Submission {
	return &Submission{
		Target:    target,
		Args:      args,
		Submitter: submitter,
		Location:  loc,
		Base:      base,
	}
}

// Runner carries out submissions.
type Runner struct {
	State    *subcmd.State
	Actor    identity.Actor
	Archiver archive.Archiver
	Now      func() time.Time
}

// Run performs every step of the submission, asking the operator for
// confirmation along the way. A declined confirmation is an error of
// kind Aborted.
func (r *Runner) Run(sub *Submission) error {
	steps := []struct {
		name string
		fn   func(*Submission) error
	}{
		{"setup", r.setup},
		{"penalty", r.penalty},
		{"classify", r.classify},
		{"verify", r.verify},
		{"allocate", r.allocate},
		{"build", r.build},
		{"commit", r.commit},
		{"log", r.log},
	}
	m := metric.New("submit " + sub.Target.String())
	defer m.Done()
	for _, step := range steps {
		log.Debug.Printf("submit: %s: %s", sub.Target, step.name)
		span := m.StartSpan(step.name)
		err := step.fn(sub)
		span.End()
		if err != nil {
			span.SetAnnotation("failed")
			return err
		}
	}
	r.State.Printf("\n*** TURNIN OF %s TO %s COMPLETE! ***\n", sub.Target.Assignment, sub.Target.Class)
	return nil
}

func (r *Runner) confirm(op string) error {
	if !r.State.Confirm() {
		return errors.E(op, errors.Aborted, errors.Str("declined by the user"))
	}
	return nil
}

// setup checks the assignment directory, resolves the policy, refuses
// a locked assignment, and shows the README.
func (r *Runner) setup(sub *Submission) error {
	const op = "submit.setup"
	loc := sub.Location
	var (
		warnings []config.Warning
		readme   []byte
	)
	err := r.Actor.AsOwner(func() error {
		if err := loc.Check(); err != nil {
			return err
		}
		var err error
		sub.Policy, warnings, err = config.LimitsFile(loc.Path(assignment.LimitsFile), sub.Base)
		if err != nil {
			return err
		}
		if err := config.CheckLock(sub.Policy, r.Now()); err != nil {
			return err
		}
		readme, err = readNotice(loc.Path(assignment.ReadmeFile))
		return err
	})
	if err != nil {
		return errors.E(op, err)
	}
	for _, w := range warnings {
		r.State.Warnf("%s: line %d: ignoring %q", loc.Path(assignment.LimitsFile), w.Line, w.Text)
	}
	if lock := sub.Policy.LockDate; !lock.IsZero() {
		r.State.Printf("*** Turnins for %s close %s (%s) ***\n", sub.Target.Assignment, lock.Format(config.DateLayout), humanize.Time(lock))
	}
	if readme != nil {
		r.State.Notice(assignment.ReadmeFile, readme)
		return r.confirm(op)
	}
	return nil
}

// readNotice returns the contents of the named file, or nil if it does
// not exist.
func readNotice(name string) ([]byte, error) {
	data, err := ioutil.ReadFile(name)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.E(turnin.PathName(name), errors.IO, err)
	}
	return data, nil
}

// penalty computes the late penalty and, if there is one, shows the
// late notice and asks for confirmation.
func (r *Runner) penalty(sub *Submission) error {
	const op = "submit.penalty"
	p, err := quota.Penalty(sub.Policy, r.Now())
	if err != nil {
		return errors.E(op, err)
	}
	if p == 0 && (sub.Policy.DueDate.IsZero() || r.Now().Before(sub.Policy.DueDate)) {
		return nil
	}
	sub.Penalty = p
	var notice []byte
	err = r.Actor.AsOwner(func() error {
		var err error
		notice, err = readNotice(sub.Location.Path(assignment.LateFile))
		return err
	})
	if err != nil {
		return errors.E(op, err)
	}
	due := sub.Policy.DueDate
	r.State.Printf("\n*** %s was due %s (%s) ***\n", sub.Target.Assignment, due.Format(config.DateLayout), humanize.Time(due))
	if notice != nil {
		r.State.Notice(assignment.LateFile, notice)
	}
	if p > 0 && sub.Policy.ShowPenalty {
		r.State.Printf("\n*** This turn in will get %d%% penalty, due to late turn in, on the final grade ***\n", p)
	}
	return r.confirm(op)
}

// classify examines the submitter's files and reports the excluded ones.
func (r *Runner) classify(sub *Submission) error {
	const op = "submit.classify"
	c := classify.New(sub.Policy)
	err := r.Actor.AsSubmitter(func() error {
		sub.Set = c.Classify(sub.Args)
		return nil
	})
	if err != nil {
		return errors.E(op, err)
	}
	sub.Totals = quota.Sum(sub.Set)
	if Warnings(r.State.Stderr, sub.Set) {
		return r.confirm(op)
	}
	return nil
}

// verify checks the quota and shows what will be turned in.
func (r *Runner) verify(sub *Submission) error {
	const op = "submit.verify"
	if err := quota.Check(sub.Policy, sub.Totals); err != nil {
		return errors.E(op, err)
	}
	VerifyList(r.State.Stderr, sub.Set)
	r.State.Printf("%s%s\n", rule, Summary(sub.Totals, sub.Target))
	if sub.Totals.Count() == 0 {
		return errors.E(op, errors.Invalid, errors.Str("turnin is aborting this submission as it is empty"))
	}
	return r.confirm(op)
}

// allocate chooses the slot and, for a resubmission, confirms it.
func (r *Runner) allocate(sub *Submission) error {
	const op = "submit.allocate"
	var a slot.Allocation
	err := r.Actor.AsOwner(func() error {
		var err error
		a, err = slot.Allocate(sub.Location, sub.Submitter, sub.Policy.MaxTurnins)
		return err
	})
	if err != nil {
		return errors.E(op, err)
	}
	sub.Slot = turnin.Slot{Number: a.Number, Penalty: sub.Penalty}
	if !a.Resubmission {
		return nil
	}
	r.State.Printf("\n*** You have already turned in %s ***\n    You have %d more turnins!\n", sub.Target.Assignment, a.Remaining)
	return r.confirm(op)
}

func (r *Runner) build(sub *Submission) error {
	b := &archive.Builder{Actor: r.Actor, Archiver: r.Archiver}
	res, err := b.Build(sub.Location, sub.Submitter, sub.Slot, sub.Set.Members())
	if err != nil {
		return errors.E("submit.build", err)
	}
	sub.Archive = res
	log.Info.Printf("submit: %s: %s, %d members", sub.Submitter, res.Path, res.Members)
	return nil
}

func (r *Runner) commit(sub *Submission) error {
	err := r.Actor.AsOwner(func() error {
		return commit.Pointer(sub.Location, sub.Submitter, sub.Slot)
	})
	if err != nil {
		return errors.E("submit.commit", err)
	}
	return nil
}

func (r *Runner) log(sub *Submission) error {
	var warnings []error
	err := r.Actor.AsOwner(func() error {
		var err error
		sub.Record, warnings, err = audit.Log(sub.Location, sub.Submitter, sub.Slot, sub.Totals.Count(), r.Now())
		return err
	})
	for _, w := range warnings {
		r.State.Warn(w)
	}
	if err != nil {
		return errors.E("submit.log", err)
	}
	r.State.Printf("\nStored %s (%s, sha256 %s)\n", sub.Slot.ArchiveName(sub.Submitter),
		humanize.Bytes(uint64(sub.Archive.Size)), sub.Record.Hash)
	return nil
}
