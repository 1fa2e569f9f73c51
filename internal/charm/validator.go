// SPDX-License-Identifier: MPL-2.0

package charm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/charmpack/charmpack/pkg/types"
)

// Default charm inputs, relative to the project directory.
const (
	DefaultEntrypoint  = "src/charm.py"
	DefaultRequirement = "requirements.txt"
)

// ErrValidation is returned when charm arguments cannot be normalized.
var ErrValidation = errors.New("invalid charm arguments")

type (
	// Args are the command-level inputs of a charm pack.
	Args struct {
		ProjectDir      string
		Entrypoint      string
		Requirements    []string
		Debug           bool
		Shell           bool
		ShellAfter      bool
		DestructiveMode bool
		BasesIndices    []int
		Force           bool
	}

	// NormalizedArgs are Args with defaults applied and paths made absolute.
	NormalizedArgs struct {
		ProjectDir   string
		Entrypoint   string
		Requirements []string
		Debug        bool
		Shell        bool
		ShellAfter   bool
		BasesIndices []int
		Force        bool
	}

	// Validator normalizes charm arguments.
	Validator interface {
		Process(args Args) (NormalizedArgs, error)
	}

	// DefaultValidator checks entrypoint and requirement files on disk.
	DefaultValidator struct{}

	// ValidationError reports an argument that failed validation.
	ValidationError struct {
		Option string
		Cause  error
	}
)

// Process implements Validator.
func (DefaultValidator) Process(args Args) (NormalizedArgs, error) {
	projectDir, err := filepath.Abs(args.ProjectDir)
	if err != nil {
		return NormalizedArgs{}, &ValidationError{Option: "project-dir", Cause: err}
	}
	info, err := os.Stat(projectDir)
	if err != nil || !info.IsDir() {
		return NormalizedArgs{}, &ValidationError{Option: "project-dir", Cause: fmt.Errorf("%q is not a directory", projectDir)}
	}

	entrypoint, err := validateEntrypoint(projectDir, args.Entrypoint)
	if err != nil {
		return NormalizedArgs{}, err
	}
	requirements, err := validateRequirements(projectDir, args.Requirements)
	if err != nil {
		return NormalizedArgs{}, err
	}

	return NormalizedArgs{
		ProjectDir:   projectDir,
		Entrypoint:   entrypoint,
		Requirements: requirements,
		Debug:        args.Debug,
		Shell:        args.Shell,
		ShellAfter:   args.ShellAfter,
		BasesIndices: slices.Clone(args.BasesIndices),
		Force:        args.Force,
	}, nil
}

func validateEntrypoint(projectDir, entrypoint string) (string, error) {
	if entrypoint == "" {
		entrypoint = DefaultEntrypoint
	}
	path := types.FilesystemPath(entrypoint).Resolve(projectDir)
	if err := path.UsefulFile(); err != nil {
		return "", &ValidationError{Option: "entrypoint", Cause: err}
	}
	if rel, err := filepath.Rel(projectDir, string(path)); err != nil || !filepath.IsLocal(rel) {
		return "", &ValidationError{Option: "entrypoint", Cause: fmt.Errorf("%q must be inside the project", path)}
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(string(path))
		if err == nil && info.Mode().Perm()&0o111 == 0 {
			return "", &ValidationError{Option: "entrypoint", Cause: fmt.Errorf("%q must be executable", path)}
		}
	}
	return string(path), nil
}

func validateRequirements(projectDir string, requirements []string) ([]string, error) {
	if len(requirements) == 0 {
		path := types.FilesystemPath(DefaultRequirement).Resolve(projectDir)
		if path.UsefulFile() == nil {
			return []string{string(path)}, nil
		}
		return nil, nil
	}

	out := make([]string, 0, len(requirements))
	for _, req := range requirements {
		path := types.FilesystemPath(req).Resolve(projectDir)
		if err := path.UsefulFile(); err != nil {
			return nil, &ValidationError{Option: "requirement", Cause: err}
		}
		out = append(out, string(path))
	}
	return out, nil
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid --%s: %v", e.Option, e.Cause)
}

// Unwrap returns ErrValidation and the underlying cause.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Cause}
}
