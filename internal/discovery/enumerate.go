// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package discovery turns the user's command-line arguments into a flat,
// ordered sequence of image paths, then decodes them in parallel and feeds
// the results into the navigation sequence. It is the idiomatic Go stand-in
// for the original's CommandLineFilenames iterator plus Files::start,
// recast as a range-over-func iterator and a bounded worker pool.
package discovery

import (
	"io/fs"
	"iter"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
)

// PathEntry is one path yielded by Enumerate.
type PathEntry struct {
	Path string
}

// Enumerate yields, in the caller's order, each argument that names a
// regular file, followed (for each argument naming a directory) by the
// lexicographically sorted regular-file entries at that directory's top
// level — no recursion. Stat and read-dir errors are logged and the
// offending entry is skipped rather than aborting the whole walk. Checks
// shutdown between every entry so a long directory listing can be
// abandoned promptly.
func Enumerate(args []string, shutdown *atomic.Bool) iter.Seq[PathEntry] {
	return func(yield func(PathEntry) bool) {
		for _, arg := range args {
			if shutdown.Load() {
				return
			}

			info, err := os.Stat(arg)
			if err != nil {
				log.Printf("%s: %v", arg, err)
				continue
			}

			if info.Mode().IsRegular() {
				if !yield(PathEntry{Path: arg}) {
					return
				}
				continue
			}

			if !info.IsDir() {
				log.Printf("%s: not a regular file or directory", arg)
				continue
			}

			if !enumerateDir(arg, shutdown, yield) {
				return
			}
		}
	}
}

// enumerateDir yields the sorted regular-file entries of dir. Returns false
// if the caller's yield asked to stop (propagated up to end the outer
// range-over-func early).
func enumerateDir(dir string, shutdown *atomic.Bool, yield func(PathEntry) bool) bool {
	entries, err := os.ReadDir(dir) // already sorted by filename
	if err != nil {
		log.Printf("%s: %v", dir, err)
		return true
	}

	for _, e := range entries {
		if shutdown.Load() {
			return false
		}
		if !regularFileEntry(e) {
			continue
		}
		if !yield(PathEntry{Path: filepath.Join(dir, e.Name())}) {
			return false
		}
	}
	return true
}

func regularFileEntry(e fs.DirEntry) bool {
	if e.IsDir() {
		return false
	}
	info, err := e.Info()
	if err != nil {
		log.Printf("%s: %v", e.Name(), err)
		return false
	}
	return info.Mode().IsRegular()
}
