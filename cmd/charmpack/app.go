// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/charmpack/charmpack/internal/config"
	"github.com/charmpack/charmpack/internal/shell"
	"github.com/charmpack/charmpack/pkg/platform"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: command handlers receive an App and delegate through it.
	App struct {
		Config   ConfigProvider
		NewShell ShellFactory
		Clock    func() time.Time
		// Environment reports whether we run inside a managed build environment.
		Environment func() platform.Environment
		stdout      io.Writer
		stderr      io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config      ConfigProvider
		NewShell    ShellFactory
		Clock       func() time.Time
		Environment func() platform.Environment
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// ShellLauncher runs the interactive debug shell.
	ShellLauncher interface {
		Launch(ctx context.Context) error
	}

	// ShellFactory creates the debug shell for a project directory.
	ShellFactory func(program, dir string, logger *log.Logger) ShellLauncher
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.NewShell == nil {
		deps.NewShell = func(program, dir string, logger *log.Logger) ShellLauncher {
			return shell.NewLauncher(program, dir, logger)
		}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Environment == nil {
		deps.Environment = platform.DetectEnvironment
	}

	return &App{
		Config:      deps.Config,
		NewShell:    deps.NewShell,
		Clock:       deps.Clock,
		Environment: deps.Environment,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}
}

// newLogger builds the logger shared by every component of one invocation.
func (a *App) newLogger(verbose bool) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: "charmpack",
		Level:  log.InfoLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
