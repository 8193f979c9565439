// Package pather implements work-unit discovery over waveform archive trees
// and the canonical path/naming scheme every stage reads and writes.
package pather

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// ErrNotFound is returned by Binuse when a required external tool is absent
// from the configured bin directory.
var ErrNotFound = os.ErrNotExist

// GlobOptions narrows Glob results by path segment. A path is kept only if it
// contains every Include segment and none of the Exclude segments.
type GlobOptions struct {
	Include []string
	Exclude []string
}

// Glob walks root and returns every file whose path matches at least one of
// the glob patterns, filtered by opts and sorted lexicographically for
// deterministic processing order. Patterns containing a path separator are
// matched against the slash-separated path relative to root; bare patterns
// (e.g. "*.sac") are matched against the basename anywhere in the tree.
//
// A missing root yields an empty result, not an error: discovering zero
// units is a legitimate empty run.
func Glob(root string, patterns []string, opts GlobOptions) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var (
		mu    sync.Mutex
		files []string
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchAny(patterns, rel) || !keepParts(rel, opts) {
			return nil
		}
		mu.Lock()
		files = append(files, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func matchAny(patterns []string, rel string) bool {
	name := rel
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		name = rel[i+1:]
	}
	for _, pat := range patterns {
		target := name
		if strings.ContainsRune(pat, '/') {
			target = rel
		}
		if ok, err := doublestar.Match(pat, target); err == nil && ok {
			return true
		}
	}
	return false
}

func keepParts(rel string, opts GlobOptions) bool {
	parts := strings.Split(rel, "/")
	has := func(seg string) bool {
		for _, p := range parts {
			if p == seg {
				return true
			}
		}
		return false
	}
	for _, seg := range opts.Exclude {
		if has(seg) {
			return false
		}
	}
	for _, seg := range opts.Include {
		if !has(seg) {
			return false
		}
	}
	return true
}

// LeafDirs returns every directory under root that has no subdirectories,
// in sorted order. A root with no subdirectories is itself the only leaf.
// The walk uses an explicit stack so arbitrarily deep trees cannot exhaust
// the call stack. A missing root yields an empty result.
func LeafDirs(root string) ([]string, error) {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil
	}

	var leaves []string
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", dir, err)
		}

		isLeaf := true
		for _, e := range entries {
			if e.IsDir() {
				isLeaf = false
				stack = append(stack, filepath.Join(dir, e.Name()))
			}
		}
		if isLeaf {
			leaves = append(leaves, dir)
		}
	}
	sort.Strings(leaves)
	return leaves, nil
}

// SubDirs returns the immediate subdirectories of root in sorted order.
// Used by the per-station stages (resample, deconv, drift, cut).
func SubDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Binuse resolves a named external tool under binDir. Unlike Glob, a missing
// tool is a hard failure: stages that depend on an external binary must fail
// before any unit is processed.
func Binuse(command, binDir string) (string, error) {
	path := filepath.Join(binDir, command)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%s not found in %s: %w", command, binDir, ErrNotFound)
	}
	return path, nil
}
