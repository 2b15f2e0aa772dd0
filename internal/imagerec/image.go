// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package imagerec holds the central entity of the navigable sequence: an
// Image binds a path to a memory-mapped file, a bound codec, decoded
// metadata, an optional decoded pixel buffer, a composed orientation, and a
// mark-directory symlink binding. Everything mutable is guarded by its own
// lock, held only around the value swap.
package imagerec

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/go-fiv/fiv/internal/codec"
)

// nextID hands out process-unique, monotonically increasing Image
// identifiers. Equality and preload-set membership are keyed on this, not
// on path, so two command-line arguments naming the same file produce two
// distinct, independently-tracked Images.
var nextID atomic.Uint64

// Mark is a mark-state mutation requested by the caller.
type Mark int

const (
	MarkSet Mark = iota
	MarkToggle
	MarkUnset
)

// Marked is the tri-state mark status of an Image, refreshed from the
// mark-directory symlink.
type Marked int

const (
	MarkedUnknown Marked = iota
	MarkedYes
	MarkedNo
)

// String renders Marked for logging and the CLI snapshot printer.
func (m Marked) String() string {
	switch m {
	case MarkedYes:
		return "yes"
	case MarkedNo:
		return "no"
	default:
		return "unknown"
	}
}

// residency distinguishes "never loaded", "loaded", and "load failed" —
// spec.md requires the third state be distinguishable from the first so the
// image stays in the navigable sequence with a placeholder instead of being
// dropped.
type residency int

const (
	residencyAbsent residency = iota
	residencyResident
	residencyFailed
)

// markBinding is the precomputed symlink name/target pair for an Image's
// entry in the mark directory, computed once at open() exactly as the
// original's mark_link() does, rather than recomputed on every mark
// operation.
type markBinding struct {
	name   string
	target string
}

// Image is the central entity of the navigable sequence.
type Image struct {
	id       uint64
	path     string
	mapped   []byte
	codec    codec.Codec
	metadata codec.Metadata

	mark     *markBinding
	markMu   sync.Mutex
	marked   Marked

	orientMu    sync.RWMutex
	orientation codec.Orientation

	pixelsMu sync.Mutex
	pixels   codec.PixelBuffer
	resident residency
}

// Open memory-maps path, sniffs and binds a codec, decodes metadata, and
// computes the mark binding against canonicalMarkDirectory (already
// resolved via filepath.EvalSymlinks by the caller; empty means marking is
// disabled). Fails on open, map, or metadata errors — the caller should log
// and skip the path, not abort the whole discovery pass.
func Open(path string, canonicalMarkDirectory string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imagerec: open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("imagerec: stat %s: %w", path, err)
	}
	if st.Size() == 0 {
		return nil, fmt.Errorf("imagerec: %s is empty", path)
	}

	mapped, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("imagerec: mmap %s: %w", path, err)
	}
	_ = unix.Madvise(mapped, unix.MADV_DONTDUMP)

	c, err := codec.Dispatch(mapped)
	if err != nil {
		unix.Munmap(mapped)
		return nil, fmt.Errorf("imagerec: %s: %w", path, err)
	}
	meta, err := c.Metadata(mapped)
	if err != nil {
		unix.Munmap(mapped)
		return nil, fmt.Errorf("imagerec: %s: metadata: %w", path, err)
	}

	img := &Image{
		id:          nextID.Add(1),
		path:        path,
		mapped:      mapped,
		codec:       c,
		metadata:    meta,
		mark:        markLink(canonicalMarkDirectory, path),
		orientation: meta.Orientation,
	}
	img.RefreshMark()

	return img, nil
}

// markLink computes the mark-directory symlink binding for path, mirroring
// the original's mark_link(): canonicalize path, take its basename, and
// express the relative link target against the (already-canonical)
// directory. Returns nil if marking is disabled or canonicalization fails.
func markLink(canonicalMarkDirectory, path string) *markBinding {
	if canonicalMarkDirectory == "" {
		return nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil
	}
	target, err := filepath.Rel(canonicalMarkDirectory, resolved)
	if err != nil {
		return nil
	}
	return &markBinding{
		name:   filepath.Join(canonicalMarkDirectory, filepath.Base(path)),
		target: target,
	}
}

// ID is the process-unique, monotonic identifier driving equality.
func (img *Image) ID() uint64 { return img.id }

// Path is the original filesystem path passed to Open.
func (img *Image) Path() string { return img.path }

// Metadata is the codec-decoded metadata, immutable after Open.
func (img *Image) Metadata() codec.Metadata { return img.metadata }

// Close releases the memory mapping. Not safe to call while any goroutine
// may still call Load/WithPixels.
func (img *Image) Close() error {
	if img.mapped == nil {
		return nil
	}
	err := unix.Munmap(img.mapped)
	img.mapped = nil
	return err
}

// Load decodes the primary pixel buffer, advising the OS to prefetch the
// mapped pages beforehand and discard them afterward. Idempotent: calling
// Load while already resident or failed is a no-op.
func (img *Image) Load() {
	img.pixelsMu.Lock()
	alreadyAttempted := img.resident != residencyAbsent
	img.pixelsMu.Unlock()
	if alreadyAttempted {
		return
	}

	_ = unix.Madvise(img.mapped, unix.MADV_WILLNEED)
	pixels, err := img.codec.Primary(img.mapped, img.metadata)
	_ = unix.Madvise(img.mapped, unix.MADV_DONTNEED)

	img.pixelsMu.Lock()
	if img.resident == residencyAbsent {
		if err != nil {
			img.resident = residencyFailed
		} else {
			img.pixels = pixels
			img.resident = residencyResident
		}
	}
	img.pixelsMu.Unlock()
}

// Unload releases the decoded pixel buffer, returning the Image to the
// not-yet-loaded state so a later Load can retry.
func (img *Image) Unload() {
	img.pixelsMu.Lock()
	img.pixels = codec.PixelBuffer{}
	img.resident = residencyAbsent
	img.pixelsMu.Unlock()
}

// IsResident reports whether a pixel buffer (successful or failed) is
// currently installed.
func (img *Image) IsResident() bool {
	img.pixelsMu.Lock()
	defer img.pixelsMu.Unlock()
	return img.resident != residencyAbsent
}

// WithPixels passes a read-only view of the decoded buffer to f if resident
// and successfully decoded; otherwise f is not called.
func (img *Image) WithPixels(f func(codec.PixelBuffer)) {
	img.pixelsMu.Lock()
	defer img.pixelsMu.Unlock()
	if img.resident == residencyResident {
		f(img.pixels)
	}
}

// Orientation returns the current composed orientation.
func (img *Image) Orientation() codec.Orientation {
	img.orientMu.RLock()
	defer img.orientMu.RUnlock()
	return img.orientation
}

// ComposeOrientation applies delta on top of the current orientation via
// the group product (Orientation.Compose).
func (img *Image) ComposeOrientation(delta codec.Orientation) {
	img.orientMu.Lock()
	img.orientation = img.orientation.Compose(delta)
	img.orientMu.Unlock()
}

// Marked returns the last-refreshed mark status.
func (img *Image) Marked() Marked {
	img.markMu.Lock()
	defer img.markMu.Unlock()
	return img.marked
}

// RefreshMark re-reads the mark-directory symlink.
func (img *Image) RefreshMark() {
	img.markMu.Lock()
	img.marked = img.readMarkLink()
	img.markMu.Unlock()
}

// Mark creates or removes the mark symlink per cmd, then re-reads it.
// Must be called with markMu unlocked by the caller (it takes the lock
// itself); side-effecting I/O errors are logged by the caller via the
// returned error.
func (img *Image) Mark(cmd Mark) error {
	img.markMu.Lock()
	defer img.markMu.Unlock()

	if img.mark == nil {
		return nil
	}

	want := false
	switch cmd {
	case MarkSet:
		want = true
	case MarkUnset:
		want = false
	case MarkToggle:
		want = img.readMarkLink() != MarkedYes
	}

	var err error
	if want {
		err = os.Symlink(img.mark.target, img.mark.name)
		if os.IsExist(err) {
			err = nil
		}
	} else {
		err = os.Remove(img.mark.name)
		if os.IsNotExist(err) {
			err = nil
		}
	}

	img.marked = img.readMarkLink()
	return err
}

// readMarkLink reads the mark symlink's current target without taking
// markMu — callers must already hold it.
func (img *Image) readMarkLink() Marked {
	if img.mark == nil {
		return MarkedUnknown
	}
	target, err := os.Readlink(img.mark.name)
	if err != nil {
		if os.IsNotExist(err) {
			return MarkedNo
		}
		return MarkedUnknown
	}
	if target == img.mark.target {
		return MarkedYes
	}
	return MarkedUnknown
}
