// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package preload

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
)

// newImages writes n tiny real PNGs to a temp directory and opens them
// through the real Open path, so the preload engine exercises actual
// mmap/codec/decode plumbing rather than a hand-rolled stub.
func newImages(c *qt.C, n int) []*imagerec.Image {
	dir := c.TempDir()
	imgs := make([]*imagerec.Image, n)
	for i := range n {
		path := filepath.Join(dir, itoa(i)+".png")
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

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

func TestWorkingSetInterleave(t *testing.T) {
	c := qt.New(t)

	imgs := newImages(c, 10)
	got := workingSet(imgs, 4, 5)
	c.Assert(len(got), qt.Equals, 5)
	// center, then forward/backward interleaved: 4,5,3,6,2
	want := []int{4, 5, 3, 6, 2}
	for i, idx := range want {
		c.Assert(got[i], qt.Equals, imgs[idx])
	}
}

func TestWorkingSetStopsWhenTailsExhausted(t *testing.T) {
	c := qt.New(t)

	imgs := newImages(c, 3)
	got := workingSet(imgs, 0, 5)
	c.Assert(len(got), qt.Equals, 3)
}

func TestEngineLoadsAndEvictsWorkingSet(t *testing.T) {
	c := qt.New(t)

	imgs := newImages(c, 5)

	loaded := make(chan *imagerec.Image, len(imgs))
	e := NewEngine(1, func(img *imagerec.Image) { loaded <- img })
	e.Start(2)
	defer e.Shutdown()

	e.Update(imgs, 2, false)

	seen := map[uint64]bool{}
	for len(seen) < 2 {
		select {
		case img := <-loaded:
			seen[img.ID()] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for preload to land images")
		}
	}

	c.Assert(imgs[2].IsResident(), qt.IsTrue)
	c.Assert(imgs[1].IsResident() || imgs[3].IsResident(), qt.IsTrue)
	c.Assert(imgs[0].IsResident(), qt.IsFalse)
	c.Assert(imgs[4].IsResident(), qt.IsFalse)
}

func TestEngineOnlyIfStarvedSkipsWhenSaturated(t *testing.T) {
	c := qt.New(t)

	imgs := newImages(c, 5)

	e := NewEngine(4, nil)
	e.Update(imgs, 2, false)
	c.Assert(len(e.intended), qt.Equals, 5)

	e.Update(imgs[:1], 0, true)
	c.Assert(len(e.intended), qt.Equals, 5)
}
