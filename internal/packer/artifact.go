// SPDX-License-Identifier: MPL-2.0

package packer

import (
	"errors"
	"fmt"

	"github.com/charmpack/charmpack/internal/project"
)

// Artifact types.
const (
	ArtifactCharm ArtifactType = iota + 1
	ArtifactBundle
)

var (
	// ErrUnknownArtifactType is returned for a declared type that is neither
	// "charm" nor "bundle".
	ErrUnknownArtifactType = errors.New("unknown artifact type")
	// ErrUsage is returned for flag combinations that make no sense for the
	// resolved artifact type.
	ErrUsage = errors.New("invalid usage")
)

type (
	// ArtifactType is what a pack produces.
	ArtifactType int

	// UnknownArtifactTypeError carries the offending declared type.
	UnknownArtifactTypeError struct {
		Value string
	}

	// UsageError reports a charm-only option given while packing a bundle.
	UsageError struct {
		Option string
	}
)

// Resolve selects the artifact type. A project without configuration always
// packs as a charm.
func Resolve(declared string, configProvided bool) (ArtifactType, error) {
	switch {
	case declared == project.TypeCharm || !configProvided:
		return ArtifactCharm, nil
	case declared == project.TypeBundle:
		return ArtifactBundle, nil
	default:
		return 0, &UnknownArtifactTypeError{Value: declared}
	}
}

// String returns the artifact type name.
func (t ArtifactType) String() string {
	switch t {
	case ArtifactCharm:
		return project.TypeCharm
	case ArtifactBundle:
		return project.TypeBundle
	default:
		return fmt.Sprintf("ArtifactType(%d)", int(t))
	}
}

// Error implements the error interface.
func (e *UnknownArtifactTypeError) Error() string {
	return fmt.Sprintf("Unknown type %q in charmcraft.yaml", e.Value)
}

// Unwrap returns ErrUnknownArtifactType for errors.Is() compatibility.
func (e *UnknownArtifactTypeError) Unwrap() error { return ErrUnknownArtifactType }

// Error implements the error interface.
func (e *UsageError) Error() string {
	return fmt.Sprintf("The %s option is valid only when packing a charm", e.Option)
}

// Unwrap returns ErrUsage for errors.Is() compatibility.
func (e *UsageError) Unwrap() error { return ErrUsage }
