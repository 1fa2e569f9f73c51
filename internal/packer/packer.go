// SPDX-License-Identifier: MPL-2.0

package packer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/charmpack/charmpack/internal/archive"
	"github.com/charmpack/charmpack/internal/charm"
	"github.com/charmpack/charmpack/internal/manifest"
	"github.com/charmpack/charmpack/internal/parts"
	"github.com/charmpack/charmpack/internal/project"
	"github.com/charmpack/charmpack/pkg/bundle"
)

// DefaultBuildDir is the work directory name under the project root.
const DefaultBuildDir = "build"

// ErrLifecycle marks failures of the parts lifecycle.
var ErrLifecycle = errors.New("parts lifecycle failed")

type (
	// Options are the command-level pack flags.
	Options struct {
		Debug           bool
		DestructiveMode bool
		Entrypoint      string
		Requirements    []string
		Shell           bool
		ShellAfter      bool
		BasesIndices    []int
		Force           bool
	}

	// Result lists the produced archives. Paths is empty only when a shell
	// was launched instead of packing.
	Result struct {
		Type  ArtifactType
		Paths []string
	}

	// Config wires a Packer to its collaborators.
	Config struct {
		Project *project.Context
		Runner  parts.Runner
		Logger  *log.Logger
		// Validator defaults to charm.DefaultValidator.
		Validator charm.Validator
		// NewBuilder defaults to a charm.DefaultBuilder sharing this config.
		NewBuilder func(args charm.NormalizedArgs) charm.Builder
		// DebugShell is the recovery shell; nil disables it.
		DebugShell func(ctx context.Context) error
		// Managed selects ManagedHome as the work directory.
		Managed     bool
		ManagedHome string
		// BuildDir is the work directory name under the project root.
		BuildDir string
		// Version is recorded in manifests.
		Version string
	}

	// Packer packs one project.
	Packer struct {
		cfg Config
	}

	// LifecycleError wraps a lifecycle failure without hiding it.
	LifecycleError struct {
		Cause error
	}
)

// New creates a Packer, filling unset collaborators with defaults.
func New(cfg Config) *Packer {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = parts.NewLocalRunner(cfg.Logger)
	}
	if cfg.Validator == nil {
		cfg.Validator = charm.DefaultValidator{}
	}
	if cfg.BuildDir == "" {
		cfg.BuildDir = DefaultBuildDir
	}
	p := &Packer{cfg: cfg}
	if p.cfg.NewBuilder == nil {
		p.cfg.NewBuilder = p.defaultBuilder
	}
	return p
}

// Pack resolves the artifact type and packs it.
func (p *Packer) Pack(ctx context.Context, opts Options) (Result, error) {
	proj := p.cfg.Project
	kind, err := Resolve(proj.Type, proj.ConfigProvided)
	if err != nil {
		return Result{}, err
	}

	var paths []string
	switch kind {
	case ArtifactBundle:
		if opts.Entrypoint != "" {
			return Result{}, &UsageError{Option: "-e/--entrypoint"}
		}
		if len(opts.Requirements) > 0 {
			return Result{}, &UsageError{Option: "-r/--requirement"}
		}
		paths, err = p.packBundle(ctx, opts)
	default:
		paths, err = p.packCharm(ctx, opts)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Type: kind, Paths: paths}, nil
}

// WorkDir returns where the lifecycle runs for this project.
func (p *Packer) WorkDir() string {
	if p.cfg.Managed && p.cfg.ManagedHome != "" {
		return p.cfg.ManagedHome
	}
	return filepath.Join(p.cfg.Project.ProjectDir, p.cfg.BuildDir)
}

func (p *Packer) packCharm(ctx context.Context, opts Options) ([]string, error) {
	p.cfg.Logger.Info("Packing the charm.")

	args, err := p.cfg.Validator.Process(charm.Args{
		ProjectDir:      p.cfg.Project.ProjectDir,
		Entrypoint:      opts.Entrypoint,
		Requirements:    slices.Clone(opts.Requirements),
		Debug:           opts.Debug,
		Shell:           opts.Shell,
		ShellAfter:      opts.ShellAfter,
		DestructiveMode: opts.DestructiveMode,
		BasesIndices:    slices.Clone(opts.BasesIndices),
		Force:           opts.Force,
	})
	if err != nil {
		return nil, err
	}
	p.cfg.Logger.Debug("Working arguments", "args", fmt.Sprintf("%+v", args))

	return p.cfg.NewBuilder(args).Run(ctx, opts.BasesIndices, opts.DestructiveMode)
}

func (p *Packer) packBundle(ctx context.Context, opts Options) ([]string, error) {
	p.cfg.Logger.Info("Packing the bundle.")
	if opts.Shell {
		return nil, p.launchShell(ctx)
	}

	projectDir := p.cfg.Project.ProjectDir
	plan := parts.BundlePlan(p.cfg.Project.Parts, projectDir)

	desc, err := bundle.LoadDescriptor(projectDir)
	if err != nil {
		return nil, err
	}
	if plan.HasBundlePart() {
		if err := bundle.CheckMandatoryFiles(projectDir); err != nil {
			return nil, err
		}
	}

	p.cfg.Logger.Debug("Parts definition", "plan", plan)
	primeDir, err := p.cfg.Runner.Run(ctx, plan, parts.StepPrime, parts.RunOptions{
		WorkDir:            p.WorkDir(),
		ProjectDir:         projectDir,
		IgnoreLocalSources: []string{parts.QuoteGlob(desc.ArchiveName())},
	})
	if err != nil {
		if opts.Debug {
			p.cfg.Logger.Debug("Error when running PRIME step", "error", err)
			if shellErr := p.launchShell(ctx); shellErr != nil {
				p.cfg.Logger.Warn("debug shell failed", "error", shellErr)
			}
		}
		return nil, &LifecycleError{Cause: err}
	}

	if _, err := manifest.Write(primeDir, p.cfg.Project.StartedAt, manifest.Options{Version: p.cfg.Version}); err != nil {
		return nil, err
	}
	zipPath := filepath.Join(projectDir, desc.ArchiveName())
	if err := archive.BuildZip(zipPath, primeDir); err != nil {
		return nil, err
	}

	if opts.ShellAfter {
		if err := p.launchShell(ctx); err != nil {
			p.cfg.Logger.Warn("shell after packing failed", "error", err)
		}
	}
	return []string{zipPath}, nil
}

func (p *Packer) launchShell(ctx context.Context) error {
	if p.cfg.DebugShell == nil {
		p.cfg.Logger.Warn("no debug shell available")
		return nil
	}
	return p.cfg.DebugShell(ctx)
}

func (p *Packer) defaultBuilder(args charm.NormalizedArgs) charm.Builder {
	return &charm.DefaultBuilder{
		Args:       args,
		Project:    p.cfg.Project,
		Runner:     p.cfg.Runner,
		Logger:     p.cfg.Logger,
		WorkDir:    p.WorkDir(),
		Managed:    p.cfg.Managed,
		Version:    p.cfg.Version,
		DebugShell: p.cfg.DebugShell,
	}
}

// Error implements the error interface.
func (e *LifecycleError) Error() string {
	return e.Cause.Error()
}

// Unwrap returns ErrLifecycle and the original failure.
func (e *LifecycleError) Unwrap() []error {
	return []error{ErrLifecycle, e.Cause}
}
