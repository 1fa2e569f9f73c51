// SPDX-License-Identifier: MPL-2.0

package parts

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Option keys understood by LocalRunner.
const (
	OptionOverrideBuild = "override-build"
	OptionStage         = "stage"
)

// Environment exported to scriptlets.
const (
	EnvPartName    = "CRAFT_PART_NAME"
	EnvPartSrc     = "CRAFT_PART_SRC"
	EnvPartBuild   = "CRAFT_PART_BUILD"
	EnvPartInstall = "CRAFT_PART_INSTALL"
	EnvStage       = "CRAFT_STAGE"
	EnvPrime       = "CRAFT_PRIME"
	EnvProjectDir  = "CRAFT_PROJECT_DIR"
)

// runScriptlet runs script with the embedded POSIX shell interpreter in dir.
func runScriptlet(ctx context.Context, name, script, dir string, env []string, stdout, stderr io.Writer) error {
	file, err := syntax.NewParser().Parse(strings.NewReader(script), name)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(append(os.Environ(), env...)...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to create shell interpreter: %w", err)
	}

	if err := runner.Run(ctx, file); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}
