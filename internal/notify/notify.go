// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package notify provides a single-slot, edge-triggered, shutdown-aware
// signal: the standard shape for "something changed, go re-snapshot"
// without coupling the notifier to what changed. Every mutator of exposed
// engine state calls Notify after releasing its own lock; the UI loop calls
// Wait in a tight loop.
package notify

import "sync"

// Signal is a single-slot edge trigger: multiple Notify calls between Wait
// calls collapse into one wakeup, matching the original's
// (Mutex<bool>, Condvar) latch shape used for fiv's start-ready signal,
// generalized here into a reusable, repeatable type.
type Signal struct {
	mu        sync.Mutex
	cond      *sync.Cond
	signalled bool
	shutdown  bool
}

// New returns a ready-to-use Signal.
func New() *Signal {
	s := &Signal{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Notify sets the signal edge and wakes any waiter. Safe to call from
// multiple goroutines and multiple times before a Wait consumes it.
func (s *Signal) Notify() {
	s.mu.Lock()
	s.signalled = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Wait blocks until Notify has been called since the last Wait, or until
// Shutdown is called, whichever comes first. Returns true for a signal,
// false for shutdown.
func (s *Signal) Wait() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.signalled && !s.shutdown {
		s.cond.Wait()
	}
	if s.signalled {
		s.signalled = false
		return true
	}
	return false
}

// Shutdown wakes any waiter permanently; subsequent Wait calls return false
// immediately.
func (s *Signal) Shutdown() {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	s.cond.Broadcast()
}
