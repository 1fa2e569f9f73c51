// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/charmpack/charmpack/internal/config"
	"github.com/charmpack/charmpack/internal/issue"
)

// newConfigCommand creates the `charmpack config` command tree.
func newConfigCommand(app *App, root *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage charmpack configuration",
		Long: `Manage charmpack configuration.

Configuration is stored in:
  - Linux: ~/.config/charmpack/config.cue
  - macOS: ~/Library/Application Support/charmpack/config.cue
  - Windows: %APPDATA%\charmpack\config.cue

Every key can be overridden from the environment, e.g. CHARMPACK_PACK_BUILD_DIR.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, root)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app, root)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), root.loadOptions())
			if err != nil {
				return &ExitError{Code: exitCodeFor(err), Err: err}
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, root *rootFlags) error {
	cfg, err := app.Config.Load(ctx, root.loadOptions())
	if err != nil {
		if root.verbose {
			renderIssue(app, issue.ConfigLoadFailedId, config.ColorSchemeAuto)
		}
		return &ExitError{Code: exitCodeFor(err), Err: err}
	}

	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	path, pathErr := config.ResolvePath(root.loadOptions())
	if pathErr != nil || path == "" {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Config file"), path)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s:\n", KeyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", SuccessStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(w, "  verbose: %s\n", SuccessStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", KeyStyle.Render("pack"))
	fmt.Fprintf(w, "  build_dir: %s\n", SuccessStyle.Render(cfg.Pack.BuildDir.String()))
	if cfg.Pack.Shell == "" {
		fmt.Fprintf(w, "  shell: %s\n", SubtitleStyle.Render("($SHELL, then /bin/sh)"))
	} else {
		fmt.Fprintf(w, "  shell: %s\n", SuccessStyle.Render(cfg.Pack.Shell))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", KeyStyle.Render("managed"))
	fmt.Fprintf(w, "  home: %s\n", SuccessStyle.Render(cfg.Managed.Home))

	return nil
}

func showConfigPath(app *App, root *rootFlags) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return issue.WrapWithOperation(err, "locate configuration directory")
	}

	path, err := config.ResolvePath(root.loadOptions())
	if err != nil {
		return issue.WrapWithOperation(err, "resolve configuration file")
	}

	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	if path == "" {
		fmt.Fprintf(app.stdout, "Config file: %s %s\n",
			filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt),
			SubtitleStyle.Render("(not created)"))
		return nil
	}
	fmt.Fprintf(app.stdout, "Config file: %s\n", path)
	return nil
}

func initConfig(app *App) error {
	path, err := config.CreateDefaultConfig()
	if err != nil {
		return &ExitError{Code: exitCodeFor(err), Err: issue.WrapWithOperation(err, "create configuration")}
	}

	fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}
