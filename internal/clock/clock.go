// Package clock abstracts the time source so that every entity touched by one
// economic action observes the same "now", and so tests can control time.
package clock

import "time"

// Clock supplies the current time to services. Production code uses System;
// tests use a Fake they can advance manually.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

// Now returns the current wall-clock time.
func (System) Now() time.Time { return time.Now() }

// Fake is a manually controlled clock for tests.
type Fake struct {
	Current time.Time
}

// NewFake creates a Fake clock starting at the given time.
func NewFake(start time.Time) *Fake {
	return &Fake{Current: start}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time { return f.Current }

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) { f.Current = f.Current.Add(d) }

// Set moves the fake clock to an absolute time.
func (f *Fake) Set(t time.Time) { f.Current = t }
