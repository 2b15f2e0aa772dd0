// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Command fiv is a concurrent image-sequence preload/decode/eviction
// engine. It has no GUI: it opens the files or directories named on the
// command line, keeps a working set of decoded images resident around a
// navigation cursor, and prints a one-line snapshot to stdout every time
// that state changes. A real front end would replace the print loop with
// a repaint call.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/go-fiv/fiv/internal/discovery"
	"github.com/go-fiv/fiv/internal/imagerec"
	"github.com/go-fiv/fiv/internal/nav"
	"github.com/go-fiv/fiv/internal/notify"
	"github.com/go-fiv/fiv/internal/preload"
	"github.com/go-fiv/fiv/internal/tasks"
)

func main() {
	_ = godotenv.Load() // optional; missing .env is not an error

	preloadCount := flag.Int("preload", envIntDefault("FIV_PRELOAD", 100), "number of images to preload")
	markDirectory := flag.String("mark-directory", os.Getenv("FIV_MARK_DIRECTORY"), "location to mark images using symlinks")
	workers := flag.Int("workers", runtime.GOMAXPROCS(0), "decode worker pool size")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"."}
	}

	canonicalMarkDir, err := canonicalizeMarkDirectory(*markDirectory)
	if err != nil {
		log.Fatalf("mark directory: %v", err)
	}

	var shutdown atomic.Bool
	uiNotify := notify.New()

	preloadEngine := preload.NewEngine(*preloadCount, func(img *imagerec.Image) { uiNotify.Notify() })
	preloadEngine.Start(runtime.GOMAXPROCS(0))
	defer preloadEngine.Shutdown()

	var executor *tasks.Executor
	navState := nav.New(preloadEngine, func(img *imagerec.Image) {
		if executor != nil && canonicalMarkDir != "" {
			executor.EnqueueCursorScoped(img.RefreshMark)
		}
	})
	executor = tasks.NewExecutor(navState, uiNotify)
	defer executor.Close()

	pipeline := discovery.NewPipeline(navState, uiNotify, &shutdown, *workers, canonicalMarkDir)
	go pipeline.Run(args)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		shutdown.Store(true)
		uiNotify.Shutdown()
	}()

	pipeline.WaitStartReady()
	if navState.Len() == 0 {
		log.Fatal("no images found")
	}

	printSnapshot(navState.Current())
	for uiNotify.Wait() {
		printSnapshot(navState.Current())
	}
}

func printSnapshot(cur nav.Current) {
	if cur.Image == nil {
		return
	}
	orientation := cur.Image.Orientation()
	fmt.Printf("[%d/%d] %s (mark=%v, rotate=%d, flip=%v)\n",
		cur.Position, cur.Total, cur.Image.Path(), cur.Image.Marked(), orientation.Rotate, orientation.Flip)
}

// canonicalizeMarkDirectory resolves dir the same way Image.Open's caller
// is expected to: absolute, symlinks resolved, so every Image's mark
// binding is computed against one stable root. Empty input disables
// marking.
func canonicalizeMarkDirectory(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return def
	}
	return n
}
