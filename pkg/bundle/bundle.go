// SPDX-License-Identifier: MPL-2.0

// Package bundle provides the checks that gate packing a bundle project.
//
// A bundle project is a directory holding a deployment descriptor
// (bundle.yaml) and a README.md. The descriptor must be a YAML mapping with a
// non-empty "name", which also names the produced archive (<name>.zip).
//
// Both checks here are read-only: they run before the build lifecycle starts
// so an invalid project never produces partial output.
package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DescriptorFile is the bundle definition file at the project root.
	DescriptorFile = "bundle.yaml"
	// ReadmeFile is the mandatory README at the project root.
	ReadmeFile = "README.md"
	// ArchiveExt is the extension of a packed bundle.
	ArchiveExt = ".zip"
)

var (
	// ErrMissingOrInvalidBundleFile is returned when bundle.yaml is absent or not a YAML mapping.
	ErrMissingOrInvalidBundleFile = errors.New("missing or invalid main bundle file")
	// ErrMissingBundleName is returned when bundle.yaml has no usable "name".
	ErrMissingBundleName = errors.New("missing bundle name")
	// ErrMissingMandatoryFile is returned when one of MandatoryFiles is absent.
	ErrMissingMandatoryFile = errors.New("missing mandatory file")
)

type (
	// Descriptor is the parsed content of bundle.yaml.
	Descriptor struct {
		// Path is the absolute path of the file the descriptor was read from.
		Path string
		// Name is the bundle name; never empty on a loaded descriptor.
		Name string
		// Fields holds the whole top-level mapping.
		Fields map[string]any
	}

	// InvalidFileError reports a bundle.yaml that is absent or malformed.
	InvalidFileError struct {
		Path  string
		Cause error
	}

	// MissingNameError reports a bundle.yaml without a non-empty "name".
	MissingNameError struct {
		Path string
	}

	// MissingFileError reports an absent mandatory file.
	MissingFileError struct {
		Path string
	}
)

// MandatoryFiles returns the files every bundle project must carry, in the
// order they are checked and injected into prime filters. The slice is a
// fresh copy on every call.
func MandatoryFiles() []string {
	return []string{DescriptorFile, ReadmeFile}
}

// LoadDescriptor reads and validates bundle.yaml in projectDir.
func LoadDescriptor(projectDir string) (*Descriptor, error) {
	path := filepath.Join(projectDir, DescriptorFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InvalidFileError{Path: path, Cause: err}
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &InvalidFileError{Path: path, Cause: err}
	}

	fields, ok := doc.(map[string]any)
	if !ok {
		return nil, &InvalidFileError{Path: path, Cause: fmt.Errorf("top level must be a mapping, got %s", describeYAML(doc))}
	}

	name, _ := fields["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &MissingNameError{Path: path}
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, &InvalidFileError{Path: path, Cause: fmt.Errorf("bundle name %q must not contain path separators", name)}
	}

	return &Descriptor{Path: path, Name: name, Fields: fields}, nil
}

// ArchiveName returns the file name of the archive produced for this bundle.
func (d *Descriptor) ArchiveName() string {
	return d.Name + ArchiveExt
}

// CheckMandatoryFiles verifies every entry of MandatoryFiles exists in projectDir.
// The first missing file is reported.
func CheckMandatoryFiles(projectDir string) error {
	for _, name := range MandatoryFiles() {
		path := filepath.Join(projectDir, name)
		if _, err := os.Stat(path); err != nil {
			return &MissingFileError{Path: path}
		}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidFileError) Error() string {
	return fmt.Sprintf("Missing or invalid main bundle file: %q.", e.Path)
}

// Unwrap returns the sentinel and the underlying cause.
func (e *InvalidFileError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrMissingOrInvalidBundleFile}
	}
	return []error{ErrMissingOrInvalidBundleFile, e.Cause}
}

// Error implements the error interface.
func (e *MissingNameError) Error() string {
	return fmt.Sprintf("Invalid bundle config; missing a 'name' field indicating the bundle's name in file %q.", e.Path)
}

// Unwrap returns ErrMissingBundleName for errors.Is() compatibility.
func (e *MissingNameError) Unwrap() error { return ErrMissingBundleName }

// Error implements the error interface.
func (e *MissingFileError) Error() string {
	return fmt.Sprintf("Missing mandatory file: %q.", e.Path)
}

// Unwrap returns ErrMissingMandatoryFile for errors.Is() compatibility.
func (e *MissingFileError) Unwrap() error { return ErrMissingMandatoryFile }

func describeYAML(v any) string {
	switch v.(type) {
	case nil:
		return "an empty document"
	case []any:
		return "a list"
	default:
		return "a scalar"
	}
}
