// Package build drives a V8 checkout to a given commit and compiles a
// binary into a per-testcase output directory.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/cfrepro/cfrepro/shell"
	"github.com/rs/zerolog"
)

// DefaultJobsMultiplier scales the CPU count into ninja's -j value. Most of
// the work is offloaded to goma so the local CPU count underestimates the
// useful parallelism.
const DefaultJobsMultiplier = 10

// gypDefines is the environment prefix used for the hook and gyp steps.
const gypDefines = "GYP_DEFINES=asan=1"

// Confirmer asks the user before a destructive step.
type Confirmer interface {
	CheckConfirm(question string) error
}

// Orchestrator runs the checkout, configure and compile steps.
type Orchestrator struct {
	logger         zerolog.Logger
	exec           shell.Executor
	confirm        Confirmer
	gomaDir        string
	jobsMultiplier int
	cpus           int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithJobsMultiplier overrides DefaultJobsMultiplier.
func WithJobsMultiplier(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.jobsMultiplier = n
		}
	}
}

// WithCPUCount overrides the detected CPU count.
func WithCPUCount(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.cpus = n
		}
	}
}

// New creates an Orchestrator. gomaDir is written into every patched
// args.gn.
func New(logger zerolog.Logger, exec shell.Executor, confirm Confirmer, gomaDir string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:         logger,
		exec:           exec,
		confirm:        confirm,
		gomaDir:        gomaDir,
		jobsMultiplier: DefaultJobsMultiplier,
		cpus:           runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Jobs is the parallelism passed to ninja.
func (o *Orchestrator) Jobs() int {
	return o.jobsMultiplier * o.cpus
}

// Build runs the hooks, regenerates the gyp files and compiles target into
// buildDir. args.gn must already be in place.
func (o *Orchestrator) Build(ctx context.Context, srcDir, buildDir, target string) error {
	o.logger.Info().
		Str("src", srcDir).
		Str("build_dir", buildDir).
		Str("target", target).
		Int("jobs", o.Jobs()).
		Msg("Building target")

	steps := []string{
		gypDefines + " gclient runhooks",
		gypDefines + " gypfiles/gyp_v8",
		shell.Join("ninja", "-C", buildDir, "-j", strconv.Itoa(o.Jobs()), target),
	}
	for _, step := range steps {
		if _, err := o.exec.Execute(ctx, step, srcDir, shell.Options{}); err != nil {
			return fmt.Errorf("failed to build %s: %w", target, err)
		}
	}

	binary := filepath.Join(buildDir, target)
	if _, err := os.Stat(binary); err != nil {
		o.logger.Warn().Str("binary", binary).Msg("Build finished but binary is missing")
	}
	return nil
}
