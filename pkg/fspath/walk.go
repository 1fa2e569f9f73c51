// SPDX-License-Identifier: MPL-2.0

// Package fspath holds the filesystem traversal shared by the lifecycle and
// the archive writer.
package fspath

import (
	"errors"
	"os"
	"path/filepath"
)

// WalkFunc is called for every directory and regular file below the walk
// root. path is the entry as reached through links, rel is path relative to
// the root and info describes the link target. Returning filepath.SkipDir for
// a directory prunes it.
type WalkFunc func(path, rel string, info os.FileInfo) error

// Walk visits every directory and regular file under root in lexical order,
// following symbolic links. A link back to a directory on the current descent
// is reported but not entered. A directory reachable through several paths is
// visited under each of them.
func Walk(root string, fn WalkFunc) error {
	ancestors := make(map[string]bool)

	var walk func(dir, relDir string) error
	walk = func(dir, relDir string) error {
		real, err := filepath.EvalSymlinks(dir)
		if err != nil {
			return err
		}
		if ancestors[real] {
			return nil
		}
		ancestors[real] = true
		defer delete(ancestors, real)

		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			rel := filepath.Join(relDir, entry.Name())

			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			switch {
			case info.IsDir():
				err := fn(path, rel, info)
				if errors.Is(err, filepath.SkipDir) {
					continue
				}
				if err != nil {
					return err
				}
				if err := walk(path, rel); err != nil {
					return err
				}
			case info.Mode().IsRegular():
				if err := fn(path, rel, info); err != nil {
					return err
				}
			}
		}
		return nil
	}

	return walk(root, "")
}
