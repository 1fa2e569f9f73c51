// SPDX-License-Identifier: MPL-2.0

package parts

import (
	"context"
	"errors"
	"fmt"
)

// Lifecycle steps, in execution order.
const (
	StepPull Step = iota + 1
	StepBuild
	StepStage
	StepPrime
)

var (
	// ErrBuildDefinition is returned when a plan cannot be executed as declared.
	ErrBuildDefinition = errors.New("invalid build definition")
	// ErrExecution is returned when a step fails while running.
	ErrExecution = errors.New("lifecycle execution failed")
)

type (
	// Step is a lifecycle step.
	Step int

	// RunOptions locates the lifecycle's inputs and outputs.
	RunOptions struct {
		// WorkDir holds parts/, stage/ and prime/.
		WorkDir string
		// ProjectDir resolves relative part sources.
		ProjectDir string
		// IgnoreLocalSources are patterns of files in a local source that are
		// never pulled, matched against the path relative to the source root.
		IgnoreLocalSources []string
	}

	// Runner executes a plan up to a target step.
	Runner interface {
		// Run executes every step up to and including target for all parts and
		// returns the prime directory.
		Run(ctx context.Context, plan Plan, target Step, opts RunOptions) (string, error)
	}

	// StepError reports the part and step a lifecycle failure happened in.
	StepError struct {
		Part  string
		Step  Step
		Kind  error
		Cause error
	}
)

// String returns the lower-case step name.
func (s Step) String() string {
	switch s {
	case StepPull:
		return "pull"
	case StepBuild:
		return "build"
	case StepStage:
		return "stage"
	case StepPrime:
		return "prime"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if e.Part == "" {
		return fmt.Sprintf("failed to run %s step: %v", e.Step, e.Cause)
	}
	return fmt.Sprintf("failed to run %s step of part %q: %v", e.Step, e.Part, e.Cause)
}

// Unwrap returns the error kind (ErrBuildDefinition or ErrExecution) and the cause.
func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}
