// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrFileTooLarge is returned when a document exceeds the configured size.
var ErrFileTooLarge = errors.New("file too large")

// FileTooLargeError reports a document rejected for its size.
type FileTooLargeError struct {
	Filename string
	Size     int64
	Max      int64
}

// FormatError rewrites a CUE evaluation error as "<file>: <field>: <message>",
// with list indices in brackets (parts.bundle.prime[0]). Several errors are
// listed one per line under a "validation failed" header. Errors that do not
// come from CUE are only prefixed with filePath.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(list))
	for _, e := range list {
		lines = append(lines, describe(e))
	}
	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

// describe renders one CUE error with its field path. CUE sometimes repeats
// the path at the start of the message; that copy is dropped.
func describe(e cueerrors.Error) string {
	field := formatPath(cueerrors.Path(e))
	msg := e.Error()
	if field == "" {
		return msg
	}
	if rest, ok := strings.CutPrefix(msg, field); ok {
		msg = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	}
	return field + ": " + msg
}

// formatPath joins CUE path elements with dots, writing numeric elements after
// the first as list indices.
func formatPath(path []string) string {
	var b strings.Builder
	for i, elem := range path {
		switch {
		case i == 0:
			b.WriteString(elem)
		case isIndex(elem):
			b.WriteString("[" + elem + "]")
		default:
			b.WriteString("." + elem)
		}
	}
	return b.String()
}

func isIndex(elem string) bool {
	_, err := strconv.ParseUint(elem, 10, 64)
	return err == nil
}

// CheckFileSize returns a *FileTooLargeError when data is larger than maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if size := int64(len(data)); size > maxSize {
		return &FileTooLargeError{Filename: filename, Size: size, Max: maxSize}
	}
	return nil
}

// Error implements the error interface.
func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: file size %d bytes exceeds maximum %d bytes", e.Filename, e.Size, e.Max)
}

// Unwrap returns ErrFileTooLarge for errors.Is() compatibility.
func (e *FileTooLargeError) Unwrap() error { return ErrFileTooLarge }
