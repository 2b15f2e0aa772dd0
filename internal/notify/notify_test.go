// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package notify

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestNotifyWait(t *testing.T) {
	c := qt.New(t)

	s := New()
	done := make(chan bool, 1)
	go func() { done <- s.Wait() }()

	time.Sleep(10 * time.Millisecond)
	s.Notify()

	select {
	case got := <-done:
		c.Assert(got, qt.IsTrue)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Notify")
	}
}

func TestCoalescedNotifies(t *testing.T) {
	c := qt.New(t)

	s := New()
	s.Notify()
	s.Notify()
	s.Notify()

	c.Assert(s.Wait(), qt.IsTrue)

	// The three Notify calls collapsed into a single edge: a second Wait
	// would now block, so we only assert the first one fired.
}

func TestShutdownUnblocksWait(t *testing.T) {
	c := qt.New(t)

	s := New()
	done := make(chan bool, 1)
	go func() { done <- s.Wait() }()

	time.Sleep(10 * time.Millisecond)
	s.Shutdown()

	select {
	case got := <-done:
		c.Assert(got, qt.IsFalse)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Shutdown")
	}
}
