// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package tasks

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-fiv/fiv/internal/imagerec"
	"github.com/go-fiv/fiv/internal/nav"
	"github.com/go-fiv/fiv/internal/notify"
	"github.com/go-fiv/fiv/internal/preload"
)

func newImages(c *qt.C, n int) []*imagerec.Image {
	dir := c.TempDir()
	imgs := make([]*imagerec.Image, n)
	for i := range n {
		path := filepath.Join(dir, string(rune('a'+i))+".png")
		f, err := os.Create(path)
		c.Assert(err, qt.IsNil)
		src := image.NewRGBA(image.Rect(0, 0, 1, 1))
		src.Set(0, 0, color.RGBA{R: uint8(i), A: 255})
		c.Assert(png.Encode(f, src), qt.IsNil)
		c.Assert(f.Close(), qt.IsNil)

		img, err := imagerec.Open(path, "")
		c.Assert(err, qt.IsNil)
		imgs[i] = img
	}
	return imgs
}

func TestCursorScopedRunsWhenPositionUnchanged(t *testing.T) {
	c := qt.New(t)

	imgs := newImages(c, 2)
	navState := nav.New(preload.NewEngine(1, nil), nil)
	navState.Append(imgs[0])
	navState.Append(imgs[1])

	uiNotify := notify.New()
	e := NewExecutor(navState, uiNotify)

	ran := make(chan struct{}, 1)
	e.EnqueueCursorScoped(func() { ran <- struct{}{} })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("cursor-scoped task never ran")
	}

	notified := make(chan bool, 1)
	go func() { notified <- uiNotify.Wait() }()
	select {
	case got := <-notified:
		c.Assert(got, qt.IsTrue)
	case <-time.After(time.Second):
		t.Fatal("UI was never notified after the task ran")
	}

	e.Close()
}

func TestCursorScopedDropsWhenPositionMoved(t *testing.T) {
	c := qt.New(t)

	imgs := newImages(c, 2)
	navState := nav.New(preload.NewEngine(1, nil), nil)
	navState.Append(imgs[0])
	navState.Append(imgs[1])

	uiNotify := notify.New()
	e := NewExecutor(navState, uiNotify)

	// Block the worker on a first job so we can move the cursor before the
	// cursor-scoped job actually executes.
	block := make(chan struct{})
	e.EnqueueUnconditional(func() { <-block })

	ran := make(chan struct{}, 1)
	e.EnqueueCursorScoped(func() { ran <- struct{}{} })

	navState.Navigate(nav.Next)
	close(block)

	select {
	case <-ran:
		t.Fatal("cursor-scoped task ran after the cursor moved")
	case <-time.After(100 * time.Millisecond):
	}

	e.Close()
}

func TestUnconditionalAlwaysRuns(t *testing.T) {
	c := qt.New(t)

	imgs := newImages(c, 2)
	navState := nav.New(preload.NewEngine(1, nil), nil)
	navState.Append(imgs[0])
	navState.Append(imgs[1])

	uiNotify := notify.New()
	e := NewExecutor(navState, uiNotify)

	block := make(chan struct{})
	e.EnqueueUnconditional(func() { <-block })

	ran := make(chan struct{}, 1)
	e.EnqueueUnconditional(func() { ran <- struct{}{} })

	navState.Navigate(nav.Next)
	close(block)

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("unconditional task never ran")
	}

	e.Close()
}
