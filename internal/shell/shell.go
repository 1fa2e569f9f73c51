// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
	"github.com/muesli/cancelreader"
	"golang.org/x/term"
)

// DefaultProgram is used when neither the configuration nor $SHELL name one.
const DefaultProgram = "/bin/sh"

var errPTYUnsupported = errors.New("pseudo-terminals are not supported on this platform")

type (
	// Launcher starts an interactive shell and waits for it to exit.
	Launcher struct {
		// Program is the shell executable. Empty resolves through Program().
		Program string
		// Dir is the shell's working directory.
		Dir string
		// Env is appended to the current environment.
		Env []string

		Stdin  *os.File
		Stdout io.Writer
		Stderr io.Writer
		Logger *log.Logger

		lookupEnv func(string) (string, bool)
	}
)

// NewLauncher creates a Launcher attached to the process's standard streams.
func NewLauncher(program, dir string, logger *log.Logger) *Launcher {
	return &Launcher{
		Program: program,
		Dir:     dir,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  logger,
	}
}

// Launch runs the shell until it exits. The shell's own exit status is not
// an error: the user decides how the session ends.
func (l *Launcher) Launch(ctx context.Context) error {
	program := ResolveProgram(l.Program, l.lookup())
	cmd := exec.CommandContext(ctx, program)
	cmd.Dir = l.Dir
	cmd.Env = append(os.Environ(), l.Env...)

	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Info("Launching shell", "program", program, "dir", l.Dir)

	var err error
	if l.Stdin != nil && term.IsTerminal(int(l.Stdin.Fd())) {
		err = l.runPTY(cmd)
		if errors.Is(err, errPTYUnsupported) {
			err = l.runPlain(cmd)
		}
	} else {
		err = l.runPlain(cmd)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logger.Debug("shell exited", "status", exitErr.ExitCode())
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to launch shell %q: %w", program, err)
	}
	return nil
}

// runPlain wires the standard streams straight into cmd.
func (l *Launcher) runPlain(cmd *exec.Cmd) error {
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	return cmd.Run()
}

func (l *Launcher) runPTY(cmd *exec.Cmd) error {
	ptmx, err := startPTY(cmd)
	if err != nil {
		return err
	}
	defer ptmx.Close()

	stopResize := watchResize(l.Stdin, ptmx)
	defer stopResize()

	state, err := term.MakeRaw(int(l.Stdin.Fd()))
	if err == nil {
		defer func() { _ = term.Restore(int(l.Stdin.Fd()), state) }()
	}

	stopInput, err := forwardInput(ptmx, l.Stdin)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("failed to read terminal input: %w", err)
	}
	_, _ = io.Copy(l.Stdout, ptmx)
	err = cmd.Wait()
	stopInput()
	return err
}

// forwardInput copies src into dst until stop is called. Once stop returns no
// further input is consumed from src, so keystrokes typed after the shell
// exits reach the next reader.
func forwardInput(dst io.Writer, src io.Reader) (stop func(), err error) {
	in, err := cancelreader.NewReader(src)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = io.Copy(dst, in)
	}()
	return func() {
		if in.Cancel() {
			<-done
		}
		_ = in.Close()
	}, nil
}

func (l *Launcher) lookup() func(string) (string, bool) {
	if l.lookupEnv != nil {
		return l.lookupEnv
	}
	return os.LookupEnv
}

// ResolveProgram picks the shell to run: the configured program, then $SHELL,
// then DefaultProgram.
func ResolveProgram(configured string, lookupEnv func(string) (string, bool)) string {
	if configured != "" {
		return configured
	}
	if sh, ok := lookupEnv("SHELL"); ok && sh != "" {
		return sh
	}
	return DefaultProgram
}
