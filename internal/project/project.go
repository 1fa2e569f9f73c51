// SPDX-License-Identifier: MPL-2.0

package project

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/charmpack/charmpack/internal/parts"
	"github.com/charmpack/charmpack/pkg/cueutil"
)

const (
	// ConfigFile is the project configuration file name.
	ConfigFile = "charmcraft.yaml"
	// MaxConfigSize bounds the size of ConfigFile.
	MaxConfigSize int64 = 1 << 20
)

// Declared artifact types.
const (
	TypeCharm  = "charm"
	TypeBundle = "bundle"
)

//go:embed project_schema.cue
var projectSchema []byte

// ErrInvalidProject is returned when charmcraft.yaml exists but cannot be used.
var ErrInvalidProject = errors.New("invalid project configuration")

type (
	// Platform is one operating system target.
	Platform struct {
		Name          string   `json:"name"`
		Channel       string   `json:"channel"`
		Architectures []string `json:"architectures,omitempty"`
	}

	// Base pairs the platforms a charm is built on with those it runs on.
	Base struct {
		BuildOn []Platform
		RunOn   []Platform
	}

	// Context is the read-only input of one pack invocation.
	Context struct {
		// ProjectDir is the absolute project root.
		ProjectDir string
		// Type is the declared artifact type; empty when absent.
		Type string
		// Name is the declared project name; empty when absent.
		Name string
		// ConfigProvided is false when charmcraft.yaml is absent or empty.
		ConfigProvided bool
		// StartedAt is when the invocation started.
		StartedAt time.Time
		// Parts are the declared parts, possibly empty.
		Parts map[string]parts.Part
		// Bases are the declared build targets.
		Bases []Base
	}

	// InvalidProjectError reports an unusable charmcraft.yaml.
	InvalidProjectError struct {
		Path  string
		Cause error
	}

	rawProject struct {
		Type  string                    `json:"type,omitempty"`
		Name  string                    `json:"name,omitempty"`
		Parts map[string]map[string]any `json:"parts,omitempty"`
		Bases []rawBase                 `json:"bases,omitempty"`
	}

	rawBase struct {
		Name          string     `json:"name,omitempty"`
		Channel       string     `json:"channel,omitempty"`
		Architectures []string   `json:"architectures,omitempty"`
		BuildOn       []Platform `json:"build-on,omitempty"`
		RunOn         []Platform `json:"run-on,omitempty"`
	}
)

// Load reads charmcraft.yaml in projectDir. A missing or empty file yields a
// context with ConfigProvided false and charm defaults.
func Load(projectDir string, startedAt time.Time) (*Context, error) {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	ctx := &Context{
		ProjectDir: absDir,
		StartedAt:  startedAt.UTC(),
		Parts:      map[string]parts.Part{},
	}

	path := filepath.Join(absDir, ConfigFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ctx, nil
	}
	if err != nil {
		return nil, &InvalidProjectError{Path: path, Cause: err}
	}
	if err := cueutil.CheckFileSize(data, MaxConfigSize, path); err != nil {
		return nil, &InvalidProjectError{Path: path, Cause: err}
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &InvalidProjectError{Path: path, Cause: err}
	}
	if doc == nil || len(bytes.TrimSpace(data)) == 0 {
		return ctx, nil
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, &InvalidProjectError{Path: path, Cause: errors.New("top level must be a mapping")}
	}

	result, err := cueutil.ParseYAMLAndDecode[rawProject](projectSchema, data, "#Project",
		cueutil.WithFilename(path), cueutil.WithMaxFileSize(MaxConfigSize))
	if err != nil {
		return nil, &InvalidProjectError{Path: path, Cause: err}
	}
	raw := result.Value

	declared, err := parts.ParseParts(raw.Parts)
	if err != nil {
		return nil, &InvalidProjectError{Path: path, Cause: err}
	}

	ctx.ConfigProvided = true
	ctx.Type = raw.Type
	ctx.Name = raw.Name
	ctx.Parts = declared
	ctx.Bases = normalizeBases(raw.Bases)
	return ctx, nil
}

// normalizeBases expands the short base form into build-on/run-on pairs and
// fills missing architectures with the host architecture.
func normalizeBases(raw []rawBase) []Base {
	bases := make([]Base, 0, len(raw))
	for _, rb := range raw {
		b := Base{BuildOn: rb.BuildOn, RunOn: rb.RunOn}
		if len(b.BuildOn) == 0 {
			short := Platform{Name: rb.Name, Channel: rb.Channel, Architectures: rb.Architectures}
			b.BuildOn = []Platform{short}
			b.RunOn = []Platform{short.clone()}
		}
		for _, list := range [][]Platform{b.BuildOn, b.RunOn} {
			for i := range list {
				if len(list[i].Architectures) == 0 {
					list[i].Architectures = []string{HostArchitecture()}
				}
			}
		}
		bases = append(bases, b)
	}
	return bases
}

func (p Platform) clone() Platform {
	p.Architectures = slices.Clone(p.Architectures)
	return p
}

// HostArchitecture returns the Debian architecture name of the running host.
func HostArchitecture() string {
	switch runtime.GOARCH {
	case "386":
		return "i386"
	case "arm":
		return "armhf"
	case "ppc64le":
		return "ppc64el"
	default:
		return runtime.GOARCH
	}
}

// Error implements the error interface.
func (e *InvalidProjectError) Error() string {
	return fmt.Sprintf("invalid project configuration %q: %v", e.Path, e.Cause)
}

// Unwrap returns ErrInvalidProject and the underlying cause.
func (e *InvalidProjectError) Unwrap() []error {
	return []error{ErrInvalidProject, e.Cause}
}
