// Package runner replays a testcase against a resolved binary.
package runner

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/cfrepro/cfrepro/shell"
	"github.com/cfrepro/cfrepro/testcase"
	"github.com/rs/zerolog"
)

// Result is the outcome of one reproduction.
type Result struct {
	Command  string
	ExitCode int
	Output   string
	Duration time.Duration
}

// Crashed reports whether the binary exited non-zero.
func (r Result) Crashed() bool {
	return r.ExitCode != 0
}

// Runner executes the binary with the recorded arguments and environment.
type Runner struct {
	logger zerolog.Logger
	exec   shell.Executor
}

// New creates a Runner.
func New(logger zerolog.Logger, exec shell.Executor) *Runner {
	return &Runner{
		logger: logger,
		exec:   exec,
	}
}

// Command renders the reproduction command line. The recorded arguments are
// passed to the shell verbatim.
func Command(binaryPath, args, testcasePath string) string {
	parts := []string{shell.Join(binaryPath)}
	if args = strings.TrimSpace(args); args != "" {
		parts = append(parts, args)
	}
	parts = append(parts, shell.Join(testcasePath))
	return strings.Join(parts, " ")
}

// Run replays tc. A non-zero exit of the binary is reported in
// Result.ExitCode; only failures to start it are returned as errors.
func (r *Runner) Run(ctx context.Context, binaryPath string, tc *testcase.Testcase, testcasePath string) (Result, error) {
	cmd := Command(binaryPath, tc.ReproductionArgs, testcasePath)
	dir := filepath.Dir(binaryPath)

	r.logger.Info().
		Str("binary", binaryPath).
		Str("testcase", testcasePath).
		Int("env", len(tc.Environment)).
		Msg("Reproducing crash")

	start := time.Now()
	res, err := r.exec.Execute(ctx, cmd, dir, shell.Options{
		Env:          tc.Environment,
		AllowFailure: true,
	})
	result := Result{
		Command:  cmd,
		ExitCode: res.ExitCode,
		Output:   res.Output,
		Duration: time.Since(start),
	}
	if err != nil {
		return result, err
	}

	if result.Crashed() {
		r.logger.Info().Int("exit_code", result.ExitCode).Msg("Binary exited with failure")
	} else {
		r.logger.Info().Msg("Binary exited cleanly")
	}
	return result, nil
}
