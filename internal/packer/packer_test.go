// SPDX-License-Identifier: MPL-2.0

package packer

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"pgregory.net/rapid"

	"github.com/charmpack/charmpack/internal/charm"
	"github.com/charmpack/charmpack/internal/manifest"
	"github.com/charmpack/charmpack/internal/parts"
	"github.com/charmpack/charmpack/internal/project"
	"github.com/charmpack/charmpack/internal/testutil"
	"github.com/charmpack/charmpack/pkg/bundle"
)

var testStart = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

type (
	recordingRunner struct {
		calls int
		opts  []parts.RunOptions
		plans []parts.Plan
		err   error
		inner parts.Runner
	}

	fakeValidator struct {
		got  charm.Args
		err  error
		seen int
	}

	fakeBuilder struct {
		indices     []int
		destructive bool
		paths       []string
		err         error
	}

	shellCounter struct {
		calls int
		err   error
	}
)

func (r *recordingRunner) Run(ctx context.Context, plan parts.Plan, target parts.Step, opts parts.RunOptions) (string, error) {
	r.calls++
	r.opts = append(r.opts, opts)
	r.plans = append(r.plans, plan)
	if r.err != nil {
		return "", r.err
	}
	return r.inner.Run(ctx, plan, target, opts)
}

func (v *fakeValidator) Process(args charm.Args) (charm.NormalizedArgs, error) {
	v.seen++
	v.got = args
	if v.err != nil {
		return charm.NormalizedArgs{}, v.err
	}
	return charm.NormalizedArgs{ProjectDir: args.ProjectDir, Debug: args.Debug, BasesIndices: args.BasesIndices}, nil
}

func (b *fakeBuilder) Run(_ context.Context, indices []int, destructive bool) ([]string, error) {
	b.indices = indices
	b.destructive = destructive
	return b.paths, b.err
}

func (s *shellCounter) launch(context.Context) error {
	s.calls++
	return s.err
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, files)
	return dir
}

func bundleContext(dir string, declared map[string]parts.Part) *project.Context {
	return &project.Context{
		ProjectDir:     dir,
		Type:           project.TypeBundle,
		ConfigProvided: true,
		StartedAt:      testStart,
		Parts:          declared,
	}
}

func newBundlePacker(t *testing.T, proj *project.Context, runner *recordingRunner, shell *shellCounter) *Packer {
	t.Helper()
	if runner.inner == nil {
		runner.inner = parts.NewLocalRunner(log.New(&bytes.Buffer{}), parts.WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
	}
	cfg := Config{
		Project: proj,
		Runner:  runner,
		Logger:  log.New(&bytes.Buffer{}),
		Version: "test",
	}
	if shell != nil {
		cfg.DebugShell = shell.launch
	}
	return New(cfg)
}

func zipEntries(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	slices.Sort(names)
	return names
}

func TestPack_Bundle(t *testing.T) {
	t.Parallel()

	dir := writeProject(t, map[string]string{
		"bundle.yaml": "name: mybundle\napplications: {}\n",
		"README.md":   "# mybundle\n",
		"notes.txt":   "not shipped",
	})
	runner := &recordingRunner{}
	p := newBundlePacker(t, bundleContext(dir, nil), runner, nil)

	res, err := p.Pack(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	want := filepath.Join(dir, "mybundle.zip")
	if res.Type != ArtifactBundle || !slices.Equal(res.Paths, []string{want}) {
		t.Fatalf("Pack() = %+v, want [%s]", res, want)
	}
	if got := zipEntries(t, want); !slices.Equal(got, []string{"README.md", "bundle.yaml", manifest.FileName}) {
		t.Errorf("archive entries = %v", got)
	}

	o := runner.opts[0]
	if o.WorkDir != filepath.Join(dir, "build") || o.ProjectDir != dir || !slices.Equal(o.IgnoreLocalSources, []string{"mybundle.zip"}) {
		t.Errorf("run options = %+v", o)
	}
	got := runner.plans[0].Parts()
	wantPlan := map[string]parts.Part{"bundle": {Plugin: "bundle", Source: dir, Prime: bundle.MandatoryFiles()}}
	if got["bundle"].Source != wantPlan["bundle"].Source || !slices.Equal(got["bundle"].Prime, wantPlan["bundle"].Prime) || len(got) != 1 {
		t.Errorf("plan = %v, want %v", got, wantPlan)
	}
}

func TestPack_BundleIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := writeProject(t, map[string]string{"bundle.yaml": "name: mybundle\n", "README.md": "x"})
	p := newBundlePacker(t, bundleContext(dir, map[string]parts.Part{
		"bundle": {Plugin: "bundle", Prime: []string{"*.zip"}},
	}), &recordingRunner{}, nil)

	for i := range 2 {
		if _, err := p.Pack(context.Background(), Options{}); err != nil {
			t.Fatalf("run %d: Pack() error = %v", i, err)
		}
	}

	pulled := filepath.Join(dir, "build", "parts", "bundle", "src", "mybundle.zip")
	if _, err := os.Stat(pulled); !os.IsNotExist(err) {
		t.Errorf("second run pulled the previous archive (stat error %v)", err)
	}
	if got := zipEntries(t, filepath.Join(dir, "mybundle.zip")); slices.Contains(got, "mybundle.zip") {
		t.Errorf("archive contains itself: %v", got)
	}
}

func TestPack_BundleValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		files    map[string]string
		declared map[string]parts.Part
		wantErr  error
		wantPath string
	}{
		{
			name:     "missing bundle.yaml",
			files:    map[string]string{"README.md": "x"},
			wantErr:  bundle.ErrMissingOrInvalidBundleFile,
			wantPath: "bundle.yaml",
		},
		{
			name:    "bundle.yaml not a mapping",
			files:   map[string]string{"bundle.yaml": "- a\n", "README.md": "x"},
			wantErr: bundle.ErrMissingOrInvalidBundleFile,
		},
		{
			name:    "missing name",
			files:   map[string]string{"bundle.yaml": "applications: {}\n", "README.md": "x"},
			wantErr: bundle.ErrMissingBundleName,
		},
		{
			name:     "missing README",
			files:    map[string]string{"bundle.yaml": "name: b\n"},
			wantErr:  bundle.ErrMissingMandatoryFile,
			wantPath: "README.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := writeProject(t, tt.files)
			runner := &recordingRunner{}
			p := newBundlePacker(t, bundleContext(dir, tt.declared), runner, nil)

			_, err := p.Pack(context.Background(), Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Pack() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantPath != "" {
				var invalid *bundle.InvalidFileError
				var missing *bundle.MissingFileError
				switch {
				case errors.As(err, &invalid):
					if invalid.Path != filepath.Join(dir, tt.wantPath) {
						t.Errorf("error path = %q", invalid.Path)
					}
				case errors.As(err, &missing):
					if missing.Path != filepath.Join(dir, tt.wantPath) {
						t.Errorf("error path = %q", missing.Path)
					}
				default:
					t.Errorf("error %T carries no path", err)
				}
			}
			if runner.calls != 0 {
				t.Error("lifecycle ran despite validation failure")
			}
			matches, _ := filepath.Glob(filepath.Join(dir, "*.zip"))
			if len(matches) != 0 {
				t.Errorf("archive created: %v", matches)
			}
		})
	}
}

func TestPack_CustomPlanSkipsMandatoryCheck(t *testing.T) {
	t.Parallel()

	dir := writeProject(t, map[string]string{"bundle.yaml": "name: custom\n", "docs/guide.md": "g"})
	runner := &recordingRunner{}
	p := newBundlePacker(t, bundleContext(dir, map[string]parts.Part{
		"docs": {Plugin: "dump", Source: "docs"},
	}), runner, nil)

	res, err := p.Pack(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if got := zipEntries(t, res.Paths[0]); !slices.Equal(got, []string{"guide.md", manifest.FileName}) {
		t.Errorf("archive entries = %v", got)
	}
	if got := runner.plans[0].Parts()["docs"]; got.Source != "docs" || got.Prime != nil {
		t.Errorf("custom part changed: %+v", got)
	}
}

func TestPack_DebugShellOnLifecycleFailure(t *testing.T) {
	t.Parallel()

	lifecycleErr := &parts.StepError{Part: "bundle", Step: parts.StepBuild, Kind: parts.ErrExecution, Cause: errors.New("boom")}

	for _, debug := range []bool{true, false} {
		dir := writeProject(t, map[string]string{"bundle.yaml": "name: b\n", "README.md": "x"})
		shell := &shellCounter{err: errors.New("shell exited badly")}
		p := newBundlePacker(t, bundleContext(dir, nil), &recordingRunner{err: lifecycleErr}, shell)

		_, err := p.Pack(context.Background(), Options{Debug: debug})
		if !errors.Is(err, lifecycleErr) || !errors.Is(err, ErrLifecycle) || !errors.Is(err, parts.ErrExecution) {
			t.Errorf("debug=%v: Pack() error = %v, want the lifecycle failure", debug, err)
		}
		want := 0
		if debug {
			want = 1
		}
		if shell.calls != want {
			t.Errorf("debug=%v: shell launched %d times, want %d", debug, shell.calls, want)
		}
		if _, statErr := os.Stat(filepath.Join(dir, "b.zip")); !os.IsNotExist(statErr) {
			t.Errorf("debug=%v: archive created after failure", debug)
		}
	}
}

func TestPack_BundleShell(t *testing.T) {
	t.Parallel()

	// No files at all: --shell must not read anything.
	runner := &recordingRunner{}
	shell := &shellCounter{}
	p := newBundlePacker(t, bundleContext(filepath.Join(t.TempDir(), "absent"), nil), runner, shell)

	res, err := p.Pack(context.Background(), Options{Shell: true})
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if len(res.Paths) != 0 || shell.calls != 1 || runner.calls != 0 {
		t.Errorf("Pack() = %+v, shell calls %d, runner calls %d", res, shell.calls, runner.calls)
	}
}

func TestPack_BundleShellAfter(t *testing.T) {
	t.Parallel()

	for _, shellErr := range []error{nil, errors.New("no terminal")} {
		dir := writeProject(t, map[string]string{"bundle.yaml": "name: b\n", "README.md": "x"})
		shell := &shellCounter{err: shellErr}
		p := newBundlePacker(t, bundleContext(dir, nil), &recordingRunner{}, shell)

		res, err := p.Pack(context.Background(), Options{ShellAfter: true})
		if err != nil {
			t.Fatalf("shell error %v: Pack() error = %v", shellErr, err)
		}
		if !slices.Equal(res.Paths, []string{filepath.Join(dir, "b.zip")}) || shell.calls != 1 {
			t.Errorf("shell error %v: Pack() = %+v, shell calls %d", shellErr, res, shell.calls)
		}
	}
}

func TestPack_ManagedWorkDir(t *testing.T) {
	t.Parallel()

	dir := writeProject(t, map[string]string{"bundle.yaml": "name: b\n", "README.md": "x"})
	home := t.TempDir()
	runner := &recordingRunner{}
	p := newBundlePacker(t, bundleContext(dir, nil), runner, nil)
	p.cfg.Managed = true
	p.cfg.ManagedHome = home

	if _, err := p.Pack(context.Background(), Options{}); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if runner.opts[0].WorkDir != home {
		t.Errorf("WorkDir = %q, want %q", runner.opts[0].WorkDir, home)
	}
}

func TestPack_BundleRejectsCharmOptions(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		entrypoint := rapid.StringMatching(`[a-z/]{0,6}\.py`).Draw(t, "entrypoint")
		reqs := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,5}\.txt`), 0, 3).Draw(t, "requirements")
		if entrypoint == "" && len(reqs) == 0 {
			reqs = []string{"requirements.txt"}
		}

		runner := &recordingRunner{}
		shell := &shellCounter{}
		p := New(Config{
			// The project directory does not exist: nothing may be read.
			Project:    bundleContext("/nonexistent/charmpack/project", nil),
			Runner:     runner,
			Logger:     log.New(&bytes.Buffer{}),
			DebugShell: shell.launch,
		})

		_, err := p.Pack(context.Background(), Options{Entrypoint: entrypoint, Requirements: reqs, Shell: rapid.Bool().Draw(t, "shell")})
		var usage *UsageError
		if !errors.As(err, &usage) || !errors.Is(err, ErrUsage) {
			t.Fatalf("Pack() error = %v, want UsageError", err)
		}
		if runner.calls != 0 || shell.calls != 0 {
			t.Fatalf("work started: runner %d, shell %d", runner.calls, shell.calls)
		}
	})
}

func TestPack_UnknownType(t *testing.T) {
	t.Parallel()

	p := New(Config{Project: &project.Context{Type: "snap", ConfigProvided: true}, Logger: log.New(&bytes.Buffer{})})
	_, err := p.Pack(context.Background(), Options{})
	var typeErr *UnknownArtifactTypeError
	if !errors.As(err, &typeErr) || typeErr.Value != "snap" {
		t.Errorf("Pack() error = %v, want UnknownArtifactTypeError", err)
	}
}

func TestPack_Charm(t *testing.T) {
	t.Parallel()

	validator := &fakeValidator{}
	builder := &fakeBuilder{paths: []string{"/p/a.charm", "/p/b.charm"}}
	var builtWith charm.NormalizedArgs
	p := New(Config{
		Project:   &project.Context{ProjectDir: "/p", ConfigProvided: false},
		Logger:    log.New(&bytes.Buffer{}),
		Validator: validator,
		NewBuilder: func(args charm.NormalizedArgs) charm.Builder {
			builtWith = args
			return builder
		},
	})

	opts := Options{
		Debug:           true,
		DestructiveMode: true,
		Entrypoint:      "src/op.py",
		Requirements:    []string{"r.txt"},
		BasesIndices:    []int{0, 2},
		Force:           true,
		ShellAfter:      true,
	}
	res, err := p.Pack(context.Background(), opts)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if res.Type != ArtifactCharm || !slices.Equal(res.Paths, builder.paths) {
		t.Errorf("Pack() = %+v", res)
	}

	got := validator.got
	if got.ProjectDir != "/p" || got.Entrypoint != "src/op.py" || !slices.Equal(got.Requirements, []string{"r.txt"}) ||
		!got.Debug || !got.DestructiveMode || !got.Force || !got.ShellAfter || got.Shell || !slices.Equal(got.BasesIndices, []int{0, 2}) {
		t.Errorf("validator args = %+v", got)
	}
	if !builtWith.Debug || !slices.Equal(builder.indices, []int{0, 2}) || !builder.destructive {
		t.Errorf("builder called with %v, destructive %v", builder.indices, builder.destructive)
	}
}

func TestPack_CharmErrorsPropagate(t *testing.T) {
	t.Parallel()

	validationErr := errors.New("bad entrypoint")
	p := New(Config{
		Project:   &project.Context{ProjectDir: "/p", Type: "charm", ConfigProvided: true},
		Logger:    log.New(&bytes.Buffer{}),
		Validator: &fakeValidator{err: validationErr},
	})
	if _, err := p.Pack(context.Background(), Options{}); !errors.Is(err, validationErr) {
		t.Errorf("Pack() error = %v, want %v", err, validationErr)
	}

	buildErr := errors.New("build failed")
	p = New(Config{
		Project:    &project.Context{ProjectDir: "/p", Type: "charm", ConfigProvided: true},
		Logger:     log.New(&bytes.Buffer{}),
		Validator:  &fakeValidator{},
		NewBuilder: func(charm.NormalizedArgs) charm.Builder { return &fakeBuilder{err: buildErr} },
	})
	if _, err := p.Pack(context.Background(), Options{}); !errors.Is(err, buildErr) {
		t.Errorf("Pack() error = %v, want %v", err, buildErr)
	}
}

func TestPack_CharmEndToEnd(t *testing.T) {
	t.Parallel()

	dir := writeProject(t, map[string]string{
		"metadata.yaml":    "name: demo\n",
		"requirements.txt": "ops\n",
		"src/charm.py":     "#!/usr/bin/env python3\n",
	})
	if err := os.Chmod(filepath.Join(dir, "src", "charm.py"), 0o755); err != nil {
		t.Fatal(err)
	}
	p := newBundlePacker(t, &project.Context{ProjectDir: dir, StartedAt: testStart}, &recordingRunner{}, nil)

	res, err := p.Pack(context.Background(), Options{DestructiveMode: true})
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if len(res.Paths) != 1 {
		t.Fatalf("Pack() = %+v, want one charm", res)
	}
	entries := zipEntries(t, res.Paths[0])
	for _, want := range []string{"metadata.yaml", "src/charm.py", manifest.FileName} {
		if !slices.Contains(entries, want) {
			t.Errorf("charm entries %v missing %q", entries, want)
		}
	}
	if slices.ContainsFunc(entries, func(e string) bool { return strings.HasPrefix(e, "build/") }) {
		t.Errorf("charm contains the work directory: %v", entries)
	}
}
