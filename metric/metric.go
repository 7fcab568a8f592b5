// Copyright 2016 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metric times the steps of a run and reports them to the
// diagnostic log when the run is done.
package metric // import "turnin.io/metric"

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"turnin.io/log"
)

// Metric is a named collection of spans. A span measures time from the
// beginning of an event (for example, building an archive) until its
// completion.
type Metric struct {
	Name string

	mu    sync.Mutex // protects all fields below
	spans []*Span
	done  bool
}

// Spans returns the Spans recorded under this Metric.
// The returned slice must not be modified.
func (m *Metric) Spans() []*Span {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spans
}

// A Span measures time from the beginning of an event until its completion.
type Span struct {
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	Parent     *Metric // parent of this span; may be nil.
	ParentSpan *Span   // may be nil.
	Annotation string  // optional.
}

// Testing hook.
var now = time.Now

// New creates a new named metric.
func New(name string) *Metric {
	return &Metric{
		Name: name,
	}
}

// StartSpan starts a new span of the metric with implicit start time
// being the current time. Spans need not be contiguous and may or may
// not overlap.
func (m *Metric) StartSpan(name string) *Span {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Lazily allocate the spans slice.
	if m.spans == nil {
		m.spans = make([]*Span, 0, 16)
	}
	s := &Span{
		Name:      name,
		StartTime: now(),
		Parent:    m,
	}
	m.spans = append(m.spans, s)
	return s
}

// Done ends any not-yet-ended span and logs the metric at debug level.
// Only the first call has any effect.
func (m *Metric) Done() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return
	}
	m.done = true
	for _, s := range m.spans {
		if s.EndTime.IsZero() {
			s.End()
		}
	}
	if log.At("debug") {
		log.Debug.Print(m.string())
	}
}

// String returns a one-line summary of the spans and their durations.
func (m *Metric) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.string()
}

func (m *Metric) string() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s:", m.Name)
	for _, s := range m.spans {
		fmt.Fprintf(&b, " %s=%v", s.Name, s.Duration())
		if s.Annotation != "" {
			fmt.Fprintf(&b, "(%s)", s.Annotation)
		}
	}
	return b.String()
}

// End marks the end time of the span as the current time. It returns
// the parent metric for convenience.
func (s *Span) End() *Metric {
	s.EndTime = now()
	return s.Parent
}

// Duration returns the length of the span, or zero if it has not ended.
func (s *Span) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// StartSpan starts a new span as a child of s with start time set to
// the current time.
func (s *Span) StartSpan(name string) *Span {
	if s.Parent == nil {
		log.Error.Printf("metric: parent metric of span %q is nil", s.Name)
		return nil
	}
	subSpan := s.Parent.StartSpan(name)
	subSpan.ParentSpan = s
	return subSpan
}

// SetAnnotation sets a custom annotation to the span s and returns it.
// If multiple annotations are set, the last one wins.
func (s *Span) SetAnnotation(annotation string) *Span {
	s.Annotation = annotation
	return s
}
