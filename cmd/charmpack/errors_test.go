// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/charmpack/charmpack/internal/archive"
	"github.com/charmpack/charmpack/internal/charm"
	"github.com/charmpack/charmpack/internal/issue"
	"github.com/charmpack/charmpack/internal/packer"
	"github.com/charmpack/charmpack/internal/parts"
	"github.com/charmpack/charmpack/pkg/bundle"
	"github.com/charmpack/charmpack/pkg/types"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantIssue issue.Id
		wantCode  types.ExitCode
	}{
		{"usage", &packer.UsageError{Option: "-e/--entrypoint"}, issue.CharmOptionOnBundleId, types.ExitUsage},
		{"unknown type", &packer.UnknownArtifactTypeError{Value: "snap"}, issue.UnknownArtifactTypeId, types.ExitUsage},
		{"destructive mode", charm.ErrDestructiveModeRequired, issue.DestructiveModeRequiredId, types.ExitUsage},
		{"base index", &charm.BaseIndexError{Index: 4, Count: 1}, issue.BasesIndexInvalidId, types.ExitUsage},
		{"bundle file", &bundle.InvalidFileError{Path: "/p/bundle.yaml", Cause: fs.ErrNotExist}, issue.BundleFileInvalidId, types.ExitFailure},
		{"bundle name", &bundle.MissingNameError{Path: "/p/bundle.yaml"}, issue.BundleNameMissingId, types.ExitFailure},
		{"mandatory file", &bundle.MissingFileError{Path: "/p/README.md"}, issue.MandatoryFileMissingId, types.ExitFailure},
		{"lifecycle", &packer.LifecycleError{Cause: errors.New("exit status 1")}, issue.LifecycleFailedId, types.ExitFailure},
		{"build definition", fmt.Errorf("run: %w", parts.ErrBuildDefinition), issue.LifecycleFailedId, types.ExitFailure},
		{"lint", &charm.LintFailedError{Results: []charm.LintResult{{Check: "metadata", Level: charm.LintError, Message: "no name"}}}, issue.LintFailedId, types.ExitFailure},
		{"archive", &archive.WriteError{Path: "/p/b.zip", Cause: errors.New("disk full")}, issue.ArchiveWriteFailedId, types.ExitFailure},
		{"permission", fmt.Errorf("open: %w", fs.ErrPermission), issue.PermissionDeniedId, types.ExitFailure},
		{"actionable", issue.NewErrorContext().WithOperation("load configuration").WithIssue(issue.ConfigLoadFailedId).BuildError(), issue.ConfigLoadFailedId, types.ExitFailure},
		{"unknown", errors.New("boom"), 0, types.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, code := classify(tt.err)
			if id != tt.wantIssue || code != tt.wantCode {
				t.Errorf("classify() = (%d, %d), want (%d, %d)", id, code, tt.wantIssue, tt.wantCode)
			}
		})
	}
}

func TestClassifiedIssuesExistInCatalog(t *testing.T) {
	t.Parallel()

	for _, c := range errorClasses {
		if issue.Get(c.issue) == nil {
			t.Errorf("sentinel %v maps to issue %d which is not in the catalog", c.sentinel, c.issue)
		}
	}
}
