// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestCanonicalizeMarkDirectoryEmptyDisablesMarking(t *testing.T) {
	c := qt.New(t)

	got, err := canonicalizeMarkDirectory("")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, "")
}

func TestCanonicalizeMarkDirectoryResolvesSymlinks(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()
	real := filepath.Join(dir, "real")
	c.Assert(os.Mkdir(real, 0o755), qt.IsNil)
	link := filepath.Join(dir, "link")
	c.Assert(os.Symlink(real, link), qt.IsNil)

	got, err := canonicalizeMarkDirectory(link)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, real)
}

func TestEnvIntDefault(t *testing.T) {
	c := qt.New(t)

	c.Assert(envIntDefault("FIV_TEST_UNSET_VAR", 42), qt.Equals, 42)

	t.Setenv("FIV_TEST_COUNT", "7")
	c.Assert(envIntDefault("FIV_TEST_COUNT", 42), qt.Equals, 7)

	t.Setenv("FIV_TEST_COUNT", "not-a-number")
	c.Assert(envIntDefault("FIV_TEST_COUNT", 42), qt.Equals, 42)
}
