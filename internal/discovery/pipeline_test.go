// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package discovery

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-fiv/fiv/internal/nav"
	"github.com/go-fiv/fiv/internal/notify"
	"github.com/go-fiv/fiv/internal/preload"
)

func writePNG(c *qt.C, path string) {
	f, err := os.Create(path)
	c.Assert(err, qt.IsNil)
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.Set(0, 0, color.RGBA{R: 1, A: 255})
	c.Assert(png.Encode(f, src), qt.IsNil)
	c.Assert(f.Close(), qt.IsNil)
}

func TestPipelineAppendsAllAndSignalsLatches(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writePNG(c, filepath.Join(dir, name))
	}

	engine := preload.NewEngine(1, nil)
	navState := nav.New(engine, nil)
	uiNotify := notify.New()
	var shutdown atomic.Bool

	p := NewPipeline(navState, uiNotify, &shutdown, 2, "")

	done := make(chan struct{})
	go func() {
		p.Run([]string{dir})
		close(done)
	}()

	select {
	case <-p.startReady:
	case <-time.After(time.Second):
		t.Fatal("start-ready never signalled")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pipeline never finished")
	}

	c.Assert(navState.Len(), qt.Equals, 3)
}

func TestPipelineSignalsStartReadyWithZeroImages(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()

	engine := preload.NewEngine(1, nil)
	navState := nav.New(engine, nil)
	uiNotify := notify.New()
	var shutdown atomic.Bool

	p := NewPipeline(navState, uiNotify, &shutdown, 1, "")
	p.Run([]string{dir})

	select {
	case <-p.startReady:
	default:
		t.Fatal("start-ready should already be closed after Run returns")
	}
	c.Assert(navState.Len(), qt.Equals, 0)
}
