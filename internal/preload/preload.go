// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package preload implements the working-set manager and decode worker pool
// that keeps a fixed-size neighbourhood around the navigation cursor
// resident in memory, decoding ahead of the cursor and evicting behind it.
package preload

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/go-fiv/fiv/internal/imagerec"
)

// Engine is the preload working-set manager and its worker pool.
type Engine struct {
	capacity int
	onLoaded func(*imagerec.Image)

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*imagerec.Image
	intended map[uint64]*imagerec.Image
	inFlight map[uint64]struct{}
	resident map[uint64]*imagerec.Image

	shutdown atomic.Bool
	wg       sync.WaitGroup
}

// NewEngine returns an Engine whose capacity is preloadCount+1 (the cursor
// plus preloadCount neighbours). onLoaded is called, with no engine lock
// held, whenever a worker successfully lands an image in the resident set —
// the hook a UI-notify signal is wired to.
func NewEngine(preloadCount int, onLoaded func(*imagerec.Image)) *Engine {
	e := &Engine{
		capacity: preloadCount + 1,
		onLoaded: onLoaded,
		intended: map[uint64]*imagerec.Image{},
		inFlight: map[uint64]struct{}{},
		resident: map[uint64]*imagerec.Image{},
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Start launches the decode worker pool. workers defaults to
// runtime.GOMAXPROCS(0) when n <= 0.
func (e *Engine) Start(n int) {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	e.wg.Add(n)
	for range n {
		go e.workerLoop()
	}
}

// Shutdown stops accepting new work, wakes every worker so they drain to
// exit, waits for them, then unloads every resident image. Subsequent
// Update calls become no-ops.
func (e *Engine) Shutdown() {
	e.shutdown.Store(true)
	e.mu.Lock()
	e.cond.Broadcast()
	e.mu.Unlock()
	e.wg.Wait()

	e.mu.Lock()
	residents := make([]*imagerec.Image, 0, len(e.resident))
	for _, img := range e.resident {
		residents = append(residents, img)
	}
	e.resident = map[uint64]*imagerec.Image{}
	e.mu.Unlock()

	for _, img := range residents {
		img.Unload()
	}
}

// Update recomputes the working set for the ordered image list images with
// cursor c. When onlyIfStarved is true and the current intended set is
// already at capacity, the recompute is skipped entirely — this is what
// keeps rapid file-pipeline appends from thrashing the queue once the
// window is already saturated.
func (e *Engine) Update(images []*imagerec.Image, c int, onlyIfStarved bool) {
	if e.shutdown.Load() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if onlyIfStarved && len(e.intended) >= e.capacity {
		return
	}

	working := workingSet(images, c, e.capacity)

	newIntended := make(map[uint64]*imagerec.Image, len(working))
	var queue []*imagerec.Image
	for _, img := range working {
		newIntended[img.ID()] = img
		if _, flying := e.inFlight[img.ID()]; flying {
			continue
		}
		if _, ok := e.resident[img.ID()]; ok {
			continue
		}
		queue = append(queue, img)
	}

	for id, img := range e.resident {
		if _, ok := newIntended[id]; !ok {
			img.Unload()
			delete(e.resident, id)
		}
	}

	e.intended = newIntended
	e.queue = queue
	e.cond.Broadcast()
}

// workingSet returns, in decode-priority order, the first capacity distinct
// images starting at c and interleaving the forward and backward tails:
// L[c], L[c+1], L[c-1], L[c+2], L[c-2], ...
func workingSet(images []*imagerec.Image, c, capacity int) []*imagerec.Image {
	if len(images) == 0 || c < 0 || c >= len(images) {
		return nil
	}

	out := make([]*imagerec.Image, 0, capacity)
	out = append(out, images[c])

	fwd, back := c+1, c-1
	for len(out) < capacity && (fwd < len(images) || back >= 0) {
		if fwd < len(images) {
			out = append(out, images[fwd])
			fwd++
			if len(out) >= capacity {
				break
			}
		}
		if back >= 0 {
			out = append(out, images[back])
			back--
		}
	}

	if len(out) > capacity {
		out = out[:capacity]
	}
	return out
}

func (e *Engine) workerLoop() {
	defer e.wg.Done()

	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.shutdown.Load() {
			e.cond.Wait()
		}
		if e.shutdown.Load() {
			e.mu.Unlock()
			return
		}

		img := e.queue[0]
		e.queue = e.queue[1:]
		e.inFlight[img.ID()] = struct{}{}
		e.mu.Unlock()

		img.Load()

		e.mu.Lock()
		delete(e.inFlight, img.ID())
		_, stillIntended := e.intended[img.ID()]
		if stillIntended {
			e.resident[img.ID()] = img
		}
		e.mu.Unlock()

		if stillIntended {
			if e.onLoaded != nil {
				e.onLoaded(img)
			}
		} else {
			img.Unload()
		}
	}
}
