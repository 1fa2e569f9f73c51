// SPDX-License-Identifier: MPL-2.0

package parts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/charmpack/charmpack/pkg/fspath"
)

// Work directory layout.
const (
	partsDirName   = "parts"
	stageDirName   = "stage"
	primeDirName   = "prime"
	partSrcDir     = "src"
	partBuildDir   = "build"
	partInstallDir = "install"
)

// partNamePattern admits names usable as a single directory under parts/.
var partNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.+_-]*$`)

type (
	// LocalRunner executes plans in-process.
	LocalRunner struct {
		logger *log.Logger
		stdout io.Writer
		stderr io.Writer
	}

	// LocalRunnerOption configures a LocalRunner.
	LocalRunnerOption func(*LocalRunner)

	partDirs struct {
		src, build, install string
	}
)

// WithOutput sets the writers scriptlets print to.
func WithOutput(stdout, stderr io.Writer) LocalRunnerOption {
	return func(r *LocalRunner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewLocalRunner creates a LocalRunner logging to logger.
func NewLocalRunner(logger *log.Logger, opts ...LocalRunnerOption) *LocalRunner {
	if logger == nil {
		logger = log.Default()
	}
	r := &LocalRunner{logger: logger, stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run implements Runner. Stage and prime directories are rebuilt from scratch
// on every run.
func (r *LocalRunner) Run(ctx context.Context, plan Plan, target Step, opts RunOptions) (string, error) {
	if target < StepPull || target > StepPrime {
		return "", &StepError{Step: target, Kind: ErrBuildDefinition, Cause: fmt.Errorf("unknown target step")}
	}
	if err := r.validate(plan, opts); err != nil {
		return "", err
	}

	workDir, err := filepath.Abs(opts.WorkDir)
	if err != nil {
		return "", &StepError{Step: StepPull, Kind: ErrExecution, Cause: err}
	}
	stageDir := filepath.Join(workDir, stageDirName)
	primeDir := filepath.Join(workDir, primeDirName)
	for _, dir := range []string{stageDir, primeDir} {
		if err := os.RemoveAll(dir); err != nil {
			return "", &StepError{Step: StepStage, Kind: ErrExecution, Cause: err}
		}
	}

	names := plan.Names()
	staged := make(map[string][]string, len(names))

	for step := StepPull; step <= target; step++ {
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return "", &StepError{Part: name, Step: step, Kind: ErrExecution, Cause: err}
			}
			part, _ := plan.Get(name)
			dirs := partDirs{
				src:     filepath.Join(workDir, partsDirName, name, partSrcDir),
				build:   filepath.Join(workDir, partsDirName, name, partBuildDir),
				install: filepath.Join(workDir, partsDirName, name, partInstallDir),
			}
			r.logger.Debug("running step", "part", name, "step", step)

			var stepErr error
			switch step {
			case StepPull:
				stepErr = r.pull(part, dirs, workDir, opts)
			case StepBuild:
				stepErr = r.build(ctx, name, part, dirs, stageDir, primeDir, opts)
			case StepStage:
				staged[name], stepErr = r.stage(part, dirs, stageDir)
			case StepPrime:
				stepErr = r.prime(part, staged[name], stageDir, primeDir)
			}
			if stepErr != nil {
				return "", &StepError{Part: name, Step: step, Kind: ErrExecution, Cause: stepErr}
			}
		}
	}

	return primeDir, nil
}

// validate rejects plans the local runner cannot execute before any work starts.
func (r *LocalRunner) validate(plan Plan, opts RunOptions) error {
	for _, pattern := range opts.IgnoreLocalSources {
		if !doublestar.ValidatePattern(pattern) {
			return &StepError{Step: StepPull, Kind: ErrBuildDefinition, Cause: fmt.Errorf("invalid ignore pattern %q", pattern)}
		}
	}
	for _, name := range plan.Names() {
		if !ValidPartName(name) {
			return &StepError{Part: name, Step: StepPull, Kind: ErrBuildDefinition, Cause: fmt.Errorf("invalid part name %q", name)}
		}
		part, _ := plan.Get(name)
		switch part.Plugin {
		case PluginNil, PluginDump, PluginBundle, PluginCharm:
		case "":
			return &StepError{Part: name, Step: StepPull, Kind: ErrBuildDefinition, Cause: fmt.Errorf("no plugin specified")}
		default:
			return &StepError{Part: name, Step: StepPull, Kind: ErrBuildDefinition, Cause: fmt.Errorf("plugin %q is not supported", part.Plugin)}
		}
		if part.Plugin != PluginNil && part.Source == "" {
			return &StepError{Part: name, Step: StepPull, Kind: ErrBuildDefinition, Cause: fmt.Errorf("plugin %q requires a source", part.Plugin)}
		}
		if _, err := newFileFilter(part.Prime); err != nil {
			return &StepError{Part: name, Step: StepPrime, Kind: ErrBuildDefinition, Cause: err}
		}
		stage, err := part.ListOption(OptionStage)
		if err == nil {
			_, err = newFileFilter(stage)
		}
		if err != nil {
			return &StepError{Part: name, Step: StepStage, Kind: ErrBuildDefinition, Cause: err}
		}
	}
	return nil
}

// ValidPartName reports whether name can be used as a part's work directory.
func ValidPartName(name string) bool {
	return filepath.IsLocal(name) && partNamePattern.MatchString(name)
}

// QuoteGlob escapes name so it matches itself literally as an ignore pattern.
func QuoteGlob(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(`*?[]{}\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (r *LocalRunner) pull(part Part, dirs partDirs, workDir string, opts RunOptions) error {
	if err := resetDir(dirs.src); err != nil {
		return err
	}
	if part.Source == "" {
		return nil
	}

	source := part.Source
	if !filepath.IsAbs(source) {
		source = filepath.Join(opts.ProjectDir, source)
	}
	source, err := filepath.Abs(source)
	if err != nil {
		return err
	}
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("cannot read source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %q is not a directory", source)
	}

	return copyTree(source, dirs.src, func(abs, rel string) bool {
		// The work directory commonly lives inside a local source.
		if abs == workDir || strings.HasPrefix(abs, workDir+string(filepath.Separator)) {
			return true
		}
		return ignored(opts.IgnoreLocalSources, rel)
	})
}

func (r *LocalRunner) build(ctx context.Context, name string, part Part, dirs partDirs, stageDir, primeDir string, opts RunOptions) error {
	if err := resetDir(dirs.build); err != nil {
		return err
	}
	if err := resetDir(dirs.install); err != nil {
		return err
	}
	if err := copyTree(dirs.src, dirs.build, nil); err != nil {
		return err
	}

	if script := part.StringOption(OptionOverrideBuild); script != "" {
		env := []string{
			EnvPartName + "=" + name,
			EnvPartSrc + "=" + dirs.src,
			EnvPartBuild + "=" + dirs.build,
			EnvPartInstall + "=" + dirs.install,
			EnvStage + "=" + stageDir,
			EnvPrime + "=" + primeDir,
			EnvProjectDir + "=" + opts.ProjectDir,
		}
		return runScriptlet(ctx, OptionOverrideBuild, script, dirs.build, env, r.stdout, r.stderr)
	}

	if part.Plugin == PluginNil {
		return nil
	}
	return copyTree(dirs.build, dirs.install, nil)
}

// stage copies the part's filtered install tree into the shared stage
// directory and returns the staged files.
func (r *LocalRunner) stage(part Part, dirs partDirs, stageDir string) ([]string, error) {
	entries, _ := part.ListOption(OptionStage)
	filter, _ := newFileFilter(entries)

	var staged []string
	err := copyTree(dirs.install, stageDir, nil, func(rel string) bool {
		if !filter.allows(filepath.ToSlash(rel)) {
			return false
		}
		staged = append(staged, rel)
		return true
	})
	return staged, err
}

// prime copies the part's staged files that pass its prime filter.
func (r *LocalRunner) prime(part Part, staged []string, stageDir, primeDir string) error {
	if err := os.MkdirAll(primeDir, 0o755); err != nil {
		return err
	}
	filter, _ := newFileFilter(part.Prime)
	for _, rel := range staged {
		if !filter.allows(filepath.ToSlash(rel)) {
			continue
		}
		if err := copyFile(filepath.Join(stageDir, rel), filepath.Join(primeDir, rel)); err != nil {
			return err
		}
	}
	return nil
}

func ignored(patterns []string, rel string) bool {
	slashed := filepath.ToSlash(rel)
	return slices.ContainsFunc(patterns, func(p string) bool {
		ok, _ := doublestar.Match(p, slashed)
		return ok
	})
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// copyTree copies regular files from src into dst, following symlinks.
// skip prunes files and directories; keep, when given, filters files only.
func copyTree(src, dst string, skip func(abs, rel string) bool, keep ...func(rel string) bool) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	return fspath.Walk(src, func(path, rel string, info os.FileInfo) error {
		if skip != nil && skip(path, rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return os.MkdirAll(filepath.Join(dst, rel), info.Mode().Perm()|0o700)
		}
		for _, k := range keep {
			if !k(rel) {
				return nil
			}
		}
		return copyFile(path, filepath.Join(dst, rel))
	})
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
