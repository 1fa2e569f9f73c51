// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/charmpack/charmpack/internal/archive"
	"github.com/charmpack/charmpack/internal/charm"
	"github.com/charmpack/charmpack/internal/config"
	"github.com/charmpack/charmpack/internal/issue"
	"github.com/charmpack/charmpack/internal/packer"
	"github.com/charmpack/charmpack/internal/parts"
	"github.com/charmpack/charmpack/internal/project"
	"github.com/charmpack/charmpack/pkg/bundle"
	"github.com/charmpack/charmpack/pkg/types"
)

// errorClass pairs a catalog issue with the exit status of an error family.
type errorClass struct {
	sentinel error
	issue    issue.Id
	code     types.ExitCode
}

// errorClasses is checked in order; the first matching sentinel wins.
var errorClasses = []errorClass{
	{packer.ErrUsage, issue.CharmOptionOnBundleId, types.ExitUsage},
	{packer.ErrUnknownArtifactType, issue.UnknownArtifactTypeId, types.ExitUsage},
	{charm.ErrDestructiveModeRequired, issue.DestructiveModeRequiredId, types.ExitUsage},
	{charm.ErrBaseIndex, issue.BasesIndexInvalidId, types.ExitUsage},
	{project.ErrInvalidProject, issue.ProjectConfigInvalidId, types.ExitFailure},
	{bundle.ErrMissingOrInvalidBundleFile, issue.BundleFileInvalidId, types.ExitFailure},
	{bundle.ErrMissingBundleName, issue.BundleNameMissingId, types.ExitFailure},
	{bundle.ErrMissingMandatoryFile, issue.MandatoryFileMissingId, types.ExitFailure},
	{charm.ErrValidation, issue.CharmArgumentsInvalidId, types.ExitFailure},
	{charm.ErrMissingCharmName, issue.ProjectConfigInvalidId, types.ExitFailure},
	{charm.ErrNoSuitableBase, issue.BasesIndexInvalidId, types.ExitFailure},
	{charm.ErrLint, issue.LintFailedId, types.ExitFailure},
	{packer.ErrLifecycle, issue.LifecycleFailedId, types.ExitFailure},
	{parts.ErrBuildDefinition, issue.LifecycleFailedId, types.ExitFailure},
	{parts.ErrExecution, issue.LifecycleFailedId, types.ExitFailure},
	{archive.ErrArchiveWrite, issue.ArchiveWriteFailedId, types.ExitFailure},
	{config.ErrInvalidConfig, issue.ConfigLoadFailedId, types.ExitFailure},
	{fs.ErrPermission, issue.PermissionDeniedId, types.ExitFailure},
}

// classify returns the catalog issue and exit status for err. Unknown errors
// map to no issue and a generic failure.
func classify(err error) (issue.Id, types.ExitCode) {
	for _, c := range errorClasses {
		if errors.Is(err, c.sentinel) {
			return c.issue, c.code
		}
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue, types.ExitFailure
	}
	return 0, types.ExitFailure
}

// exitCodeFor returns only the exit status of err.
func exitCodeFor(err error) types.ExitCode {
	_, code := classify(err)
	return code
}

// packFailure wraps a pack error for display. In verbose mode the actionable
// form and the catalog remediation are written to stderr before returning;
// otherwise a hint is printed when suggestions exist.
func (a *App) packFailure(err error, verbose bool, scheme config.ColorScheme) error {
	id, code := classify(err)

	ae := issue.NewErrorContext().
		WithOperation("pack").
		WithIssue(id).
		WithSuggestions(suggestionsFor(id)...).
		Wrap(err).
		Build()

	switch {
	case verbose:
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error"))
		fmt.Fprintln(a.stderr, ae.Format(true))
		renderIssue(a, id, scheme)
	case ae.HasSuggestions():
		fmt.Fprintln(a.stderr, SubtitleStyle.Render("Re-run with --verbose for suggestions."))
	}

	return &ExitError{Code: code, Err: ae}
}

// renderIssue writes the catalog entry for id, if any.
func renderIssue(a *App, id issue.Id, scheme config.ColorScheme) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render(string(scheme))
	if err != nil {
		a.newLogger(false).Warn("failed to render issue catalog entry", "issue", id, "error", err)
		return
	}
	fmt.Fprint(a.stderr, rendered)
}

func suggestionsFor(id issue.Id) []string {
	switch id {
	case issue.CharmOptionOnBundleId:
		return []string{"Drop --entrypoint and --requirement when packing a bundle"}
	case issue.UnknownArtifactTypeId:
		return []string{"Set 'type' in charmcraft.yaml to 'charm' or 'bundle'"}
	case issue.DestructiveModeRequiredId:
		return []string{"Re-run with --destructive-mode to build on this host"}
	case issue.BundleFileInvalidId, issue.BundleNameMissingId:
		return []string{"Make bundle.yaml a mapping with a non-empty 'name'"}
	case issue.MandatoryFileMissingId:
		return []string{"Add the missing file at the project root"}
	case issue.LifecycleFailedId:
		return []string{"Re-run with --debug to inspect the build environment"}
	case issue.LintFailedId:
		return []string{"Fix the reported checks or re-run with --force"}
	default:
		return nil
	}
}
