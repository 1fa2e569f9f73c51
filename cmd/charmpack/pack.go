// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/charmpack/charmpack/internal/config"
	"github.com/charmpack/charmpack/internal/packer"
	"github.com/charmpack/charmpack/internal/project"
	"github.com/charmpack/charmpack/pkg/platform"
)

// packFlags holds the pack command's flag values.
type packFlags struct {
	debug           bool
	destructiveMode bool
	entrypoint      string
	requirements    []string
	shell           bool
	shellAfter      bool
	basesIndices    []int
	force           bool
}

func newPackCommand(app *App, root *rootFlags) *cobra.Command {
	flags := &packFlags{}

	packCmd := &cobra.Command{
		Use:   "pack",
		Short: "Build the artifact defined by the project",
		Long: `Build and pack a charm operator package or a bundle.

The artifact type comes from the 'type' key of charmcraft.yaml. Without a
charmcraft.yaml the project is packed as a charm.

A bundle is packed into ` + KeyStyle.Render("<name>.zip") + ` at the project root, where <name>
is the 'name' key of bundle.yaml. A charm is packed into one
` + KeyStyle.Render("<name>_<base>.charm") + ` file per selected base.

The --entrypoint and --requirement options are valid only for charms.

Examples:
  charmpack pack
  charmpack pack --destructive-mode --bases-index 0
  charmpack pack --debug
  charmpack pack --shell`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPack(cmd, app, root, flags)
		},
	}

	packCmd.Flags().BoolVar(&flags.debug, "debug", false, "launch a shell in the build environment upon failure")
	packCmd.Flags().BoolVar(&flags.destructiveMode, "destructive-mode", false, "pack charm using current host which may result in breaking changes to system configuration")
	packCmd.Flags().StringVarP(&flags.entrypoint, "entrypoint", "e", "", "the executable which is the operator entry point; defaults to 'src/charm.py'")
	packCmd.Flags().StringArrayVarP(&flags.requirements, "requirement", "r", nil, "file(s) listing python dependencies to install; can be used multiple times; defaults to 'requirements.txt'")
	packCmd.Flags().BoolVar(&flags.shell, "shell", false, "launch a shell instead of packing")
	packCmd.Flags().BoolVar(&flags.shellAfter, "shell-after", false, "launch a shell after packing")
	packCmd.Flags().IntSliceVar(&flags.basesIndices, "bases-index", nil, "index of 'bases' configuration to build (can be used multiple times); defaults to all")
	packCmd.Flags().BoolVar(&flags.force, "force", false, "pack the charm even when the primed tree has lint errors")
	packCmd.MarkFlagsMutuallyExclusive("shell", "shell-after")

	return packCmd
}

// options converts the parsed flags into packer options.
func (f *packFlags) options() packer.Options {
	return packer.Options{
		Debug:           f.debug,
		DestructiveMode: f.destructiveMode,
		Entrypoint:      f.entrypoint,
		Requirements:    f.requirements,
		Shell:           f.shell,
		ShellAfter:      f.shellAfter,
		BasesIndices:    f.basesIndices,
		Force:           f.force,
	}
}

func runPack(cmd *cobra.Command, app *App, root *rootFlags, flags *packFlags) error {
	ctx := cmd.Context()

	cfg, err := app.Config.Load(ctx, root.loadOptions())
	if err != nil {
		return &ExitError{Code: exitCodeFor(err), Err: err}
	}
	verbose := root.verbose || cfg.UI.Verbose
	logger := app.newLogger(verbose)

	projectDir, err := root.resolveProjectDir()
	if err != nil {
		return app.packFailure(err, verbose, cfg.UI.ColorScheme)
	}

	proj, err := project.Load(projectDir, app.Clock())
	if err != nil {
		return app.packFailure(err, verbose, cfg.UI.ColorScheme)
	}

	env := app.Environment()
	launcher := app.NewShell(cfg.Pack.Shell, projectDir, logger)
	p := packer.New(packer.Config{
		Project:     proj,
		Logger:      logger,
		DebugShell:  launcher.Launch,
		Managed:     env.Managed,
		ManagedHome: managedHome(env, cfg),
		BuildDir:    cfg.Pack.BuildDir.String(),
		Version:     Version,
	})
	logger.Debug("Work directory", "path", p.WorkDir(), "managed", env.Managed)

	result, err := p.Pack(ctx, flags.options())
	if err != nil {
		return app.packFailure(err, verbose, cfg.UI.ColorScheme)
	}

	renderResult(app.stdout, result)
	return nil
}

// managedHome picks the exported managed home, then the configured one.
func managedHome(env platform.Environment, cfg *config.Config) string {
	return env.ManagedHome(cfg.Managed.Home)
}

// renderResult reports every produced archive.
func renderResult(w io.Writer, result packer.Result) {
	if len(result.Paths) == 0 {
		return
	}

	switch result.Type {
	case packer.ArtifactBundle:
		for _, path := range result.Paths {
			fmt.Fprintln(w, SuccessStyle.Render(fmt.Sprintf("Created '%s'.", path)))
		}
	case packer.ArtifactCharm:
		fmt.Fprintln(w, TitleStyle.Render("Charms packed:"))
		for _, path := range result.Paths {
			fmt.Fprintf(w, "    %s\n", SuccessStyle.Render(path))
		}
	}
}
