// SPDX-License-Identifier: MPL-2.0

package charm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lint levels.
const (
	LintWarning LintLevel = "warning"
	LintError   LintLevel = "error"
)

// ErrLint is returned when the primed charm has lint errors and packing was
// not forced.
var ErrLint = errors.New("charm has lint errors")

type (
	// LintLevel grades a lint result.
	LintLevel string

	// LintResult is one finding on a primed charm.
	LintResult struct {
		Check   string
		Level   LintLevel
		Message string
	}

	// LintFailedError lists the lint errors that stopped packing.
	LintFailedError struct {
		Results []LintResult
	}
)

// lint inspects the primed tree before it is archived.
func lint(primeDir string, args NormalizedArgs) []LintResult {
	var results []LintResult
	if r, ok := lintMetadata(primeDir, args.ProjectDir); !ok {
		results = append(results, r)
	}
	if r, ok := lintEntrypoint(primeDir, args); !ok {
		results = append(results, r)
	}
	return results
}

func lintMetadata(primeDir, projectDir string) (LintResult, bool) {
	result := LintResult{Check: "metadata", Level: LintError}

	data, err := os.ReadFile(filepath.Join(primeDir, MetadataFile))
	if errors.Is(err, os.ErrNotExist) {
		if _, statErr := os.Stat(filepath.Join(projectDir, MetadataFile)); statErr == nil {
			result.Message = MetadataFile + " was left out of the primed charm"
			return result, false
		}
		return result, true
	}
	if err != nil {
		result.Message = fmt.Sprintf("cannot read primed %s: %v", MetadataFile, err)
		return result, false
	}

	var meta map[string]any
	if err := yaml.Unmarshal(data, &meta); err != nil || meta == nil {
		result.Message = MetadataFile + " must be a YAML mapping"
		return result, false
	}
	if name, _ := meta["name"].(string); strings.TrimSpace(name) == "" {
		result.Message = MetadataFile + " has no 'name'"
		return result, false
	}
	return result, true
}

func lintEntrypoint(primeDir string, args NormalizedArgs) (LintResult, bool) {
	result := LintResult{Check: "entrypoint", Level: LintWarning}
	if args.Entrypoint == "" || args.ProjectDir == "" {
		return result, true
	}
	rel, err := filepath.Rel(args.ProjectDir, args.Entrypoint)
	if err != nil || !filepath.IsLocal(rel) {
		return result, true
	}
	if _, err := os.Stat(filepath.Join(primeDir, rel)); err != nil {
		result.Message = fmt.Sprintf("entrypoint %s is not in the primed charm", filepath.ToSlash(rel))
		return result, false
	}
	return result, true
}

// errorsOf returns the results at LintError level.
func errorsOf(results []LintResult) []LintResult {
	var out []LintResult
	for _, r := range results {
		if r.Level == LintError {
			out = append(out, r)
		}
	}
	return out
}

// Error implements the error interface.
func (e *LintFailedError) Error() string {
	msgs := make([]string, 0, len(e.Results))
	for _, r := range e.Results {
		msgs = append(msgs, r.Check+": "+r.Message)
	}
	return "lint errors found (use --force to pack anyway): " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrLint for errors.Is() compatibility.
func (e *LintFailedError) Unwrap() error { return ErrLint }
