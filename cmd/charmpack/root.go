// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/charmpack/charmpack/internal/config"
	"github.com/charmpack/charmpack/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	verbose    bool
	configPath string
	projectDir string
}

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "charmpack",
		Short: "Pack charms and bundles into distributable archives",
		Long: TitleStyle.Render("charmpack") + SubtitleStyle.Render(" - Pack charms and bundles") + `

charmpack reads the project in the current directory (or --project-dir),
runs its parts through the pull, build, stage and prime steps and archives
the primed tree.

A bundle project carries bundle.yaml and README.md and is packed into
<name>.zip. A charm project is packed into one .charm file per base.

` + SubtitleStyle.Render("Examples:") + `
  charmpack pack                          Pack the project in the current directory
  charmpack pack --destructive-mode       Build a charm on this host
  charmpack pack -p ./my-bundle --debug   Open a shell if the build fails
  charmpack config show                   Show current configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is <config dir>/charmpack/config.cue)")
	rootCmd.PersistentFlags().StringVarP(&flags.projectDir, "project-dir", "p", "", "project directory (default is the current directory)")

	rootCmd.AddCommand(newPackCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command and exits with the mapped status code.
// This is called by main.main().
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if code := exitCodeOf(err); !code.IsSuccess() {
		os.Exit(int(code))
	}
}

// exitCodeOf maps an error returned by a command to a process status.
func exitCodeOf(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitFailure
}

// loadOptions converts the global flags into config loading options.
func (f *rootFlags) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: types.FilesystemPath(f.configPath)}
}

// resolveProjectDir returns the absolute project directory.
func (f *rootFlags) resolveProjectDir() (string, error) {
	dir := f.projectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project directory %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project directory %q: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project directory %q is not a directory", abs)
	}
	return abs, nil
}
