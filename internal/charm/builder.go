// SPDX-License-Identifier: MPL-2.0

package charm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/charmpack/charmpack/internal/archive"
	"github.com/charmpack/charmpack/internal/manifest"
	"github.com/charmpack/charmpack/internal/parts"
	"github.com/charmpack/charmpack/internal/project"
)

const (
	// MetadataFile carries the charm name.
	MetadataFile = "metadata.yaml"
	// ArchiveExt is the extension of a packed charm.
	ArchiveExt = ".charm"
)

var (
	// ErrDestructiveModeRequired is returned when a managed build is requested
	// outside a managed environment.
	ErrDestructiveModeRequired = errors.New("building outside a managed environment requires --destructive-mode")
	// ErrMissingCharmName is returned when no charm name can be found.
	ErrMissingCharmName = errors.New("missing charm name")
	// ErrBaseIndex is returned for a --bases-index outside the declared bases.
	ErrBaseIndex = errors.New("bases index out of range")
	// ErrNoSuitableBase is returned when no base can be built on this host.
	ErrNoSuitableBase = errors.New("no suitable 'build-on' environment found in any 'bases' configuration")
)

type (
	// Builder builds charms for the selected bases and returns their paths.
	Builder interface {
		Run(ctx context.Context, basesIndices []int, destructiveMode bool) ([]string, error)
	}

	// DefaultBuilder runs the parts lifecycle locally and archives the prime
	// directory once per base.
	DefaultBuilder struct {
		Args    NormalizedArgs
		Project *project.Context
		Runner  parts.Runner
		Logger  *log.Logger
		// WorkDir holds the lifecycle directories.
		WorkDir string
		// Managed is true inside a managed build environment.
		Managed bool
		// Version is recorded in the manifest.
		Version string
		// DebugShell is launched for --shell, --shell-after and on lifecycle
		// failures with --debug.
		DebugShell func(ctx context.Context) error
	}

	// BaseIndexError reports a --bases-index without a matching base.
	BaseIndexError struct {
		Index int
		Count int
	}
)

// DefaultBases is used when the project declares no bases.
func DefaultBases() []project.Base {
	p := project.Platform{Name: "ubuntu", Channel: "20.04", Architectures: []string{project.HostArchitecture()}}
	return []project.Base{{BuildOn: []project.Platform{p}, RunOn: []project.Platform{p}}}
}

// Run implements Builder.
func (b *DefaultBuilder) Run(ctx context.Context, basesIndices []int, destructiveMode bool) ([]string, error) {
	if !destructiveMode && !b.Managed {
		return nil, ErrDestructiveModeRequired
	}
	logger := b.logger()

	if b.Args.Shell {
		return nil, b.launchShell(ctx)
	}

	name, err := b.charmName()
	if err != nil {
		return nil, err
	}

	bases := b.Project.Bases
	if len(bases) == 0 {
		bases = DefaultBases()
	}
	selected, err := selectBases(len(bases), basesIndices)
	if err != nil {
		return nil, err
	}

	plan := parts.CharmPlan(b.Project.Parts, b.Args.ProjectDir)
	logger.Debug("Parts definition", "plan", plan)

	host := project.HostArchitecture()
	var charms []string
	for _, idx := range selected {
		base := bases[idx]
		if !buildsOn(base, host) {
			logger.Info("Skipping base", "index", idx, "reason", fmt.Sprintf("no build-on entry for architecture %q", host))
			continue
		}

		path, err := b.buildBase(ctx, name, base, plan)
		if err != nil {
			return nil, err
		}
		charms = append(charms, path)
	}
	if len(charms) == 0 {
		return nil, ErrNoSuitableBase
	}

	if b.Args.ShellAfter {
		if err := b.launchShell(ctx); err != nil {
			logger.Warn("shell after packing failed", "error", err)
		}
	}
	return charms, nil
}

func (b *DefaultBuilder) buildBase(ctx context.Context, name string, base project.Base, plan parts.Plan) (string, error) {
	primeDir, err := b.Runner.Run(ctx, plan, parts.StepPrime, parts.RunOptions{
		WorkDir:            b.WorkDir,
		ProjectDir:         b.Args.ProjectDir,
		IgnoreLocalSources: []string{"*" + ArchiveExt},
	})
	if err != nil {
		if b.Args.Debug {
			b.logger().Debug("Error when running PRIME step", "error", err)
			if shellErr := b.launchShell(ctx); shellErr != nil {
				b.logger().Warn("debug shell failed", "error", shellErr)
			}
		}
		return "", err
	}

	if err := b.checkLint(primeDir); err != nil {
		return "", err
	}

	runOn := make([]manifest.Base, 0, len(base.RunOn))
	for _, p := range base.RunOn {
		runOn = append(runOn, manifest.Base{Name: p.Name, Channel: p.Channel, Architectures: slices.Clone(p.Architectures)})
	}
	if _, err := manifest.Write(primeDir, b.Project.StartedAt, manifest.Options{
		Version:    b.Version,
		Bases:      runOn,
		Attributes: analyze(b.Args),
	}); err != nil {
		return "", err
	}

	path := filepath.Join(b.Args.ProjectDir, FileName(name, base))
	if err := archive.BuildZip(path, primeDir); err != nil {
		return "", err
	}
	return path, nil
}

// FileName returns the archive name of a charm built for base:
// <name>_<os>-<channel>-<arch>[-<arch>...] with one segment per run-on entry.
func FileName(name string, base project.Base) string {
	segments := []string{name}
	for _, p := range base.RunOn {
		segments = append(segments, strings.Join(append([]string{p.Name, p.Channel}, p.Architectures...), "-"))
	}
	return strings.Join(segments, "_") + ArchiveExt
}

// charmName reads metadata.yaml, falling back to the project name.
func (b *DefaultBuilder) charmName() (string, error) {
	data, err := os.ReadFile(filepath.Join(b.Args.ProjectDir, MetadataFile))
	if err == nil {
		var meta struct {
			Name string `yaml:"name"`
		}
		if err := yaml.Unmarshal(data, &meta); err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", MetadataFile, err)
		}
		if name := strings.TrimSpace(meta.Name); name != "" {
			return name, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to read %s: %w", MetadataFile, err)
	}

	if name := strings.TrimSpace(b.Project.Name); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("%w: set 'name' in %s or %s", ErrMissingCharmName, MetadataFile, project.ConfigFile)
}

// checkLint logs every lint result and fails on errors unless packing is forced.
func (b *DefaultBuilder) checkLint(primeDir string) error {
	results := lint(primeDir, b.Args)
	for _, r := range results {
		b.logger().Warn("Lint "+string(r.Level), "check", r.Check, "message", r.Message)
	}
	failed := errorsOf(results)
	if len(failed) == 0 {
		return nil
	}
	if b.Args.Force {
		b.logger().Warn("Packing despite lint errors", "count", len(failed))
		return nil
	}
	return &LintFailedError{Results: failed}
}

func (b *DefaultBuilder) launchShell(ctx context.Context) error {
	if b.DebugShell == nil {
		return nil
	}
	return b.DebugShell(ctx)
}

func (b *DefaultBuilder) logger() *log.Logger {
	if b.Logger == nil {
		return log.Default()
	}
	return b.Logger
}

// selectBases returns the base indices to build, all of them when none are given.
func selectBases(count int, indices []int) ([]int, error) {
	if len(indices) == 0 {
		all := make([]int, count)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, idx := range indices {
		if idx < 0 || idx >= count {
			return nil, &BaseIndexError{Index: idx, Count: count}
		}
	}
	return slices.Compact(slices.Sorted(slices.Values(indices))), nil
}

func buildsOn(base project.Base, arch string) bool {
	for _, p := range base.BuildOn {
		if slices.Contains(p.Architectures, arch) {
			return true
		}
	}
	return false
}

// Error implements the error interface.
func (e *BaseIndexError) Error() string {
	return fmt.Sprintf("bases index %d is out of range (project declares %d bases)", e.Index, e.Count)
}

// Unwrap returns ErrBaseIndex for errors.Is() compatibility.
func (e *BaseIndexError) Unwrap() error { return ErrBaseIndex }
