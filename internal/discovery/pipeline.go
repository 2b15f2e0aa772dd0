// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package discovery

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/go-fiv/fiv/internal/imagerec"
	"github.com/go-fiv/fiv/internal/nav"
	"github.com/go-fiv/fiv/internal/notify"
)

// Pipeline runs the directory walk and image decode on a dedicated
// goroutine, fans the decode out over a bounded worker pool, and feeds
// every successfully opened image into a nav.State. Grounded on the
// original's Files::start: a rayon ThreadPool plus par_bridge became a
// fixed goroutine pool reading off a path channel; its start_ready/
// start_finished condvar pair became two sync.Once-guarded closed
// channels, the standard Go idiom for a broadcastable one-shot signal.
type Pipeline struct {
	navState      *nav.State
	uiNotify      *notify.Signal
	shutdown      *atomic.Bool
	workers       int
	markDirectory string

	startReady     chan struct{}
	startReadyOnce sync.Once

	startFinished     chan struct{}
	startFinishedOnce sync.Once
}

// NewPipeline returns a Pipeline that appends opened images to navState and
// notifies uiNotify on every append. markDirectory is the already-resolved
// (filepath.EvalSymlinks'd) mark directory, or "" to disable marking.
// workers <= 0 defaults to 1.
func NewPipeline(navState *nav.State, uiNotify *notify.Signal, shutdown *atomic.Bool, workers int, markDirectory string) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		navState:      navState,
		uiNotify:      uiNotify,
		shutdown:      shutdown,
		workers:       workers,
		markDirectory: markDirectory,
		startReady:    make(chan struct{}),
		startFinished: make(chan struct{}),
	}
}

// Run enumerates args and decodes every path it yields, blocking until
// discovery and decoding both finish. Intended to be called from its own
// goroutine; WaitStartReady unblocks as soon as the first image lands (or
// discovery finishes having found none).
func (p *Pipeline) Run(args []string) {
	paths := make(chan string)

	var wg sync.WaitGroup
	var any atomic.Bool
	wg.Add(p.workers)
	for range p.workers {
		go func() {
			defer wg.Done()
			for path := range paths {
				img, err := imagerec.Open(path, p.markDirectory)
				if err != nil {
					log.Print(err)
					continue
				}
				p.navState.Append(img)
				any.Store(true)
				p.signalStartReady()
				p.uiNotify.Notify()
			}
		}()
	}

	for entry := range Enumerate(args, p.shutdown) {
		paths <- entry.Path
	}
	close(paths)
	wg.Wait()

	if !any.Load() {
		p.signalStartReady()
	}
	p.startFinishedOnce.Do(func() { close(p.startFinished) })
}

// signalStartReady fires the start-ready latch exactly once, the first time
// it's called — from the first successful open, or from Run's post-loop
// check when discovery produced zero images.
func (p *Pipeline) signalStartReady() {
	p.startReadyOnce.Do(func() { close(p.startReady) })
}

// WaitStartReady blocks until the first image has landed in navState, or
// until discovery has finished having found none.
func (p *Pipeline) WaitStartReady() { <-p.startReady }

// WaitStartFinished blocks until discovery and decoding have both
// completed.
func (p *Pipeline) WaitStartFinished() { <-p.startFinished }
