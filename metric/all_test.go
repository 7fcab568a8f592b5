// Copyright 2016 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metric

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"turnin.io/log"
)

// clock returns a fake time source that advances a millisecond per call.
func clock() func() time.Time {
	t := time.Date(2021, time.March, 10, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func TestAll(t *testing.T) {
	defer func(f func() time.Time) { now = f }(now)
	now = clock()

	m := New("submit")
	m.StartSpan("setup").StartSpan("limits").End()
	m.StartSpan("build").SetAnnotation("3 members").End().Done()

	spans := m.Spans()
	if len(spans) != 3 {
		t.Fatalf("Expected 3 spans, got %d", len(spans))
	}
	for i, name := range []string{"setup", "limits", "build"} {
		if spans[i].Name != name {
			t.Errorf("Expected span %d named %q, got %q", i, name, spans[i].Name)
		}
		if spans[i].EndTime.IsZero() {
			t.Errorf("Span %q has zero end time", name)
		}
	}
	if spans[1].ParentSpan != spans[0] {
		t.Errorf("Expected parent span to be %q, got %v", spans[0].Name, spans[1].ParentSpan)
	}
	// setup starts at 1ms, limits runs 2ms..3ms, setup is ended by Done.
	if d := spans[1].Duration(); d != time.Millisecond {
		t.Errorf("limits lasted %v, want 1ms", d)
	}
	want := "submit: setup=5ms limits=1ms build=1ms(3 members)"
	if got := m.String(); got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}

func TestDoneLogs(t *testing.T) {
	defer func(f func() time.Time) { now = f }(now)
	now = clock()
	rec := &recorder{}
	log.SetOutput(rec)
	prev := log.GetLevel()
	defer func() {
		log.SetOutput(nil)
		log.SetLevel(prev)
	}()

	log.SetLevel("info")
	m := New("quiet")
	m.StartSpan("a")
	m.Done()
	if len(rec.lines) != 0 {
		t.Errorf("logged at info level: %q", rec.lines)
	}

	log.SetLevel("debug")
	m = New("loud")
	m.StartSpan("a")
	m.Done()
	m.Done()
	if len(rec.lines) != 1 || !strings.HasPrefix(rec.lines[0], "loud: a=") {
		t.Errorf("logged %q", rec.lines)
	}
}

func TestUnendedSpan(t *testing.T) {
	s := New("x").StartSpan("open")
	if d := s.Duration(); d != 0 {
		t.Errorf("open span lasted %v", d)
	}
	orphan := &Span{Name: "orphan"}
	if orphan.StartSpan("child") != nil {
		t.Error("span without a metric started a child")
	}
}

type recorder struct {
	lines []string
}

func (r *recorder) Printf(format string, v ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}
func (r *recorder) Print(v ...interface{})                 { r.lines = append(r.lines, fmt.Sprint(v...)) }
func (r *recorder) Println(v ...interface{})               { r.lines = append(r.lines, fmt.Sprint(v...)) }
func (r *recorder) Fatal(v ...interface{})                 { r.Print(v...) }
func (r *recorder) Fatalf(format string, v ...interface{}) { r.Printf(format, v...) }
