// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package discovery

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	qt "github.com/frankban/quicktest"
)

func collect(args []string, shutdown *atomic.Bool) []string {
	var got []string
	for e := range Enumerate(args, shutdown) {
		got = append(got, e.Path)
	}
	return got
}

func TestEnumerateRegularFileArg(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()
	file := filepath.Join(dir, "a.jpg")
	c.Assert(os.WriteFile(file, []byte("x"), 0o644), qt.IsNil)

	var shutdown atomic.Bool
	got := collect([]string{file}, &shutdown)
	c.Assert(got, qt.DeepEquals, []string{file})
}

func TestEnumerateDirSortedTopLevelOnly(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()
	for _, name := range []string{"c.jpg", "a.jpg", "b.jpg"} {
		c.Assert(os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644), qt.IsNil)
	}
	c.Assert(os.Mkdir(filepath.Join(dir, "sub"), 0o755), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(dir, "sub", "d.jpg"), []byte("x"), 0o644), qt.IsNil)

	var shutdown atomic.Bool
	got := collect([]string{dir}, &shutdown)
	c.Assert(got, qt.DeepEquals, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "c.jpg"),
	})
}

func TestEnumerateStopsOnShutdown(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		c.Assert(os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644), qt.IsNil)
	}

	var shutdown atomic.Bool
	shutdown.Store(true)
	got := collect([]string{dir}, &shutdown)
	c.Assert(got, qt.HasLen, 0)
}

func TestEnumerateYieldStopEndsEarly(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		c.Assert(os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644), qt.IsNil)
	}

	var shutdown atomic.Bool
	var got []string
	for e := range Enumerate([]string{dir}, &shutdown) {
		got = append(got, e.Path)
		if len(got) == 1 {
			break
		}
	}
	c.Assert(got, qt.HasLen, 1)
}
