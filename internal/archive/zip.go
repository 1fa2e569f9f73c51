// SPDX-License-Identifier: MPL-2.0

// Package archive writes packed artifacts.
//
// Archives are deflate-compressed zip files whose entry names are relative to
// the directory being archived. Entries are written to a temporary file next
// to the destination and renamed into place only after the archive was closed
// cleanly, so a failed write never leaves a file under the final name.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmpack/charmpack/pkg/fspath"
)

// ErrArchiveWrite is the sentinel wrapped by WriteError.
var ErrArchiveWrite = errors.New("archive write failure")

// WriteError reports a filesystem or encoding failure while producing an archive.
type WriteError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write archive %q: %v", e.Path, e.Cause)
}

// Unwrap returns the sentinel and the underlying cause.
func (e *WriteError) Unwrap() []error {
	return []error{ErrArchiveWrite, e.Cause}
}

// BuildZip archives every regular file below srcDir into zipPath.
//
// Symbolic links are followed: a link to a file is stored with the target's
// content under the link's name, and a link to a directory is descended into.
// A directory reached through several paths is stored under each of them;
// only links leading back into their own ancestry are cut.
func BuildZip(zipPath, srcDir string) error {
	absDst, err := filepath.Abs(zipPath)
	if err != nil {
		return &WriteError{Path: zipPath, Cause: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(absDst), "."+filepath.Base(absDst)+".*")
	if err != nil {
		return &WriteError{Path: absDst, Cause: err}
	}
	tmpPath := tmp.Name()

	zw := zip.NewWriter(tmp)
	walkErr := fspath.Walk(srcDir, func(path, rel string, info os.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		return addFile(zw, path, rel, info)
	})

	closeErr := zw.Close()
	fileErr := tmp.Close()
	if err := errors.Join(walkErr, closeErr, fileErr); err != nil {
		_ = os.Remove(tmpPath)
		return &WriteError{Path: absDst, Cause: err}
	}

	if err := os.Rename(tmpPath, absDst); err != nil {
		_ = os.Remove(tmpPath)
		return &WriteError{Path: absDst, Cause: err}
	}
	return nil
}

func addFile(zw *zip.Writer, path, rel string, info os.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create header for %s: %w", rel, err)
	}
	header.Name = filepath.ToSlash(rel)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", rel, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", rel, err)
	}
	return nil
}
