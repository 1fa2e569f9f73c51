// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidFilesystemPath is the sentinel error wrapped by InvalidFilesystemPathError.
	ErrInvalidFilesystemPath = errors.New("invalid filesystem path")
	// ErrNotUsefulFile is the sentinel error wrapped by NotUsefulFileError.
	ErrNotUsefulFile = errors.New("not a usable file")
)

type (
	// FilesystemPath represents an absolute or relative filesystem path.
	// A valid path must be non-empty and not whitespace-only.
	FilesystemPath string

	// InvalidFilesystemPathError is returned when a FilesystemPath value is
	// empty or whitespace-only.
	InvalidFilesystemPathError struct {
		Value FilesystemPath
	}

	// NotUsefulFileError is returned by UsefulFile when the path does not
	// exist, is not a regular file, or is not readable.
	NotUsefulFileError struct {
		Value  FilesystemPath
		Reason string
	}
)

// String returns the string representation of the FilesystemPath.
func (p FilesystemPath) String() string { return string(p) }

// Validate returns an error if the path is empty or whitespace-only.
func (p FilesystemPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return &InvalidFilesystemPathError{Value: p}
	}
	return nil
}

// Resolve returns the path made absolute against base when it is relative.
func (p FilesystemPath) Resolve(base string) FilesystemPath {
	if filepath.IsAbs(string(p)) || base == "" {
		return p
	}
	return FilesystemPath(filepath.Join(base, string(p)))
}

// UsefulFile checks that the path names an existing, readable regular file.
func (p FilesystemPath) UsefulFile() error {
	if err := p.Validate(); err != nil {
		return err
	}
	info, err := os.Stat(string(p))
	if err != nil {
		return &NotUsefulFileError{Value: p, Reason: "the file does not exist"}
	}
	if !info.Mode().IsRegular() {
		return &NotUsefulFileError{Value: p, Reason: "the path is not a regular file"}
	}
	f, err := os.Open(string(p))
	if err != nil {
		return &NotUsefulFileError{Value: p, Reason: "the file is not readable"}
	}
	_ = f.Close()
	return nil
}

// Error implements the error interface for InvalidFilesystemPathError.
func (e *InvalidFilesystemPathError) Error() string {
	return fmt.Sprintf("invalid filesystem path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidFilesystemPath for errors.Is() compatibility.
func (e *InvalidFilesystemPathError) Unwrap() error { return ErrInvalidFilesystemPath }

// Error implements the error interface for NotUsefulFileError.
func (e *NotUsefulFileError) Error() string {
	return fmt.Sprintf("cannot access %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrNotUsefulFile for errors.Is() compatibility.
func (e *NotUsefulFileError) Unwrap() error { return ErrNotUsefulFile }
