// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package nav

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-fiv/fiv/internal/codec"
	"github.com/go-fiv/fiv/internal/imagerec"
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

func TestNavigateClampsAtEnds(t *testing.T) {
	c := qt.New(t)

	imgs := newImages(c, 3)
	s := New(preload.NewEngine(1, nil), nil)
	for _, img := range imgs {
		s.Append(img)
	}

	c.Assert(s.Current().Position, qt.Equals, 1)

	s.Navigate(Previous)
	c.Assert(s.Current().Position, qt.Equals, 1)

	s.Navigate(Last)
	c.Assert(s.Current().Position, qt.Equals, 3)

	s.Navigate(Next)
	c.Assert(s.Current().Position, qt.Equals, 3)

	s.Navigate(First)
	c.Assert(s.Current().Position, qt.Equals, 1)

	s.Navigate(Next)
	c.Assert(s.Current().Position, qt.Equals, 2)
	c.Assert(s.Current().Image, qt.Equals, imgs[1])
}

func TestCurrentOnEmptySequence(t *testing.T) {
	c := qt.New(t)

	s := New(preload.NewEngine(1, nil), nil)
	cur := s.Current()
	c.Assert(cur.Image, qt.IsNil)
	c.Assert(cur.Position, qt.Equals, 0)
	c.Assert(cur.Total, qt.Equals, 0)

	s.Navigate(Next) // must not panic
}

func TestOnCursorFiresOnFirstAppendAndOnMove(t *testing.T) {
	c := qt.New(t)

	var fired []*imagerec.Image
	s := New(preload.NewEngine(1, nil), func(img *imagerec.Image) { fired = append(fired, img) })

	imgs := newImages(c, 2)
	s.Append(imgs[0])
	c.Assert(fired, qt.HasLen, 1)

	s.Append(imgs[1])
	c.Assert(fired, qt.HasLen, 1) // second append doesn't move the cursor

	s.Navigate(Next)
	c.Assert(fired, qt.HasLen, 2)

	s.Navigate(Next) // already at the end, no movement
	c.Assert(fired, qt.HasLen, 2)
}

func TestComposeOrientation(t *testing.T) {
	c := qt.New(t)

	imgs := newImages(c, 1)
	s := New(preload.NewEngine(1, nil), nil)
	s.Append(imgs[0])

	s.ComposeOrientation(codec.Orientation{Rotate: 90})
	c.Assert(s.Current().Image.Orientation(), qt.Equals, codec.Orientation{Rotate: 90})
}
