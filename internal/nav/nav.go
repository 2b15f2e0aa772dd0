// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package nav holds the navigation cursor over the ordered image sequence.
// It is deliberately decoupled from discovery and preload: discovery appends
// to it as files are found, and every mutation here pokes the preload
// engine to recompute its working set — but nav never imports discovery,
// and preload never imports nav, so the three compose through plain values
// and callbacks rather than a cyclic dependency.
package nav

import (
	"sync"

	"github.com/go-fiv/fiv/internal/codec"
	"github.com/go-fiv/fiv/internal/imagerec"
	"github.com/go-fiv/fiv/internal/preload"
)

// Direction is a cursor movement requested by the caller.
type Direction int

const (
	First Direction = iota
	Previous
	Next
	Last
)

// Current is a point-in-time snapshot of the cursor position, cheap to copy
// and safe to hold onto after the lock that produced it is released.
type Current struct {
	Image    *imagerec.Image
	Position int // 1-based; 0 when the sequence is empty
	Total    int
}

// State is the navigable sequence and its cursor. The zero value is not
// usable; construct with New.
type State struct {
	preload *preload.Engine

	mu       sync.Mutex
	images   []*imagerec.Image
	cursor   int // -1 when empty
	onCursor func(*imagerec.Image)
}

// New returns a State backed by preloadEngine. onCursor, if non-nil, is
// called with the new current image (never nil) every time Navigate lands
// on a different position — the hook the side-task executor's cursor-scoped
// mark-refresh is wired to.
func New(preloadEngine *preload.Engine, onCursor func(*imagerec.Image)) *State {
	return &State{
		preload:  preloadEngine,
		cursor:   -1,
		onCursor: onCursor,
	}
}

// Append adds img to the end of the sequence. If the sequence was empty,
// the cursor lands on it. Always calls the preload engine with
// onlyIfStarved=true, so a burst of appends during discovery doesn't
// thrash a working set that's already saturated.
func (s *State) Append(img *imagerec.Image) {
	s.mu.Lock()
	s.images = append(s.images, img)
	wasEmpty := s.cursor < 0
	if wasEmpty {
		s.cursor = 0
	}
	images, cursor := s.snapshotLocked()
	s.mu.Unlock()

	s.preload.Update(images, cursor, true)

	if wasEmpty && s.onCursor != nil {
		s.onCursor(img)
	}
}

// Current returns the present cursor snapshot. Position and Total are both
// 0 and Image is nil when the sequence is empty.
func (s *State) Current() Current {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor < 0 || len(s.images) == 0 {
		return Current{}
	}
	return Current{
		Image:    s.images[s.cursor],
		Position: s.cursor + 1,
		Total:    len(s.images),
	}
}

// Navigate moves the cursor per dir, clamping at the ends: Previous from
// the first image and Next from the last are no-ops, as are all movements
// on an empty sequence. Always calls the preload engine with
// onlyIfStarved=false, since a cursor move is exactly the event that should
// force a working-set recompute regardless of current saturation.
func (s *State) Navigate(dir Direction) {
	s.mu.Lock()
	if len(s.images) == 0 {
		s.mu.Unlock()
		return
	}

	prev := s.cursor
	switch dir {
	case First:
		s.cursor = 0
	case Previous:
		if s.cursor > 0 {
			s.cursor--
		}
	case Next:
		if s.cursor < len(s.images)-1 {
			s.cursor++
		}
	case Last:
		s.cursor = len(s.images) - 1
	}
	moved := s.cursor != prev
	images, cursor := s.snapshotLocked()
	current := s.images[s.cursor]
	s.mu.Unlock()

	s.preload.Update(images, cursor, false)

	if moved && s.onCursor != nil {
		s.onCursor(current)
	}
}

// ComposeOrientation applies delta on top of the current image's
// orientation. A no-op on an empty sequence.
func (s *State) ComposeOrientation(delta codec.Orientation) {
	s.mu.Lock()
	if s.cursor < 0 || len(s.images) == 0 {
		s.mu.Unlock()
		return
	}
	current := s.images[s.cursor]
	s.mu.Unlock()

	current.ComposeOrientation(delta)
}

// Len reports the number of images currently in the sequence.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// snapshotLocked returns a copy of the image slice and the current cursor.
// Caller must hold s.mu. The copy is needed because preload.Update is
// called with the lock released, and the backing array must not be mutated
// underneath it by a concurrent Append.
func (s *State) snapshotLocked() ([]*imagerec.Image, int) {
	images := make([]*imagerec.Image, len(s.images))
	copy(images, s.images)
	return images, s.cursor
}
