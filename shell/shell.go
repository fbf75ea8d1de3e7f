// Package shell runs command strings through `sh -c` in a working directory,
// teeing output to the terminal while capturing it for callers.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"
)

// Options controls a single command execution.
type Options struct {
	// Env is added on top of the current process environment.
	Env map[string]string
	// Quiet captures output without echoing it to the terminal.
	Quiet bool
	// AllowFailure reports a non-zero exit through Result.ExitCode
	// instead of returning a *CommandError.
	AllowFailure bool
}

// Result is the outcome of a command that ran to completion.
type Result struct {
	ExitCode int
	Output   string
}

// Executor abstracts command execution so callers can be tested with a
// scripted fake.
type Executor interface {
	Execute(ctx context.Context, command, dir string, opts Options) (Result, error)
	LookPath(file string) (string, error)
}

// Local runs commands on this machine.
type Local struct {
	logger zerolog.Logger
	out    io.Writer
}

// LocalOption configures a Local executor.
type LocalOption func(*Local)

// WithOutput sets where non-quiet command output is echoed (default os.Stdout).
func WithOutput(w io.Writer) LocalOption {
	return func(l *Local) {
		l.out = w
	}
}

// New creates a Local executor.
func New(logger zerolog.Logger, opts ...LocalOption) *Local {
	l := &Local{
		logger: logger,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Execute runs command with `sh -c` in dir. Stdout and stderr are merged
// into a single captured stream.
func (l *Local) Execute(ctx context.Context, command, dir string, opts Options) (Result, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), EnvList(opts.Env)...)
	}

	var buf bytes.Buffer
	var out io.Writer = &buf
	if !opts.Quiet {
		out = io.MultiWriter(l.out, &buf)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	l.logger.Debug().
		Str("command", command).
		Str("dir", dir).
		Msg("Executing command")

	err := cmd.Run()
	result := Result{Output: buf.String()}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		if opts.AllowFailure {
			return result, nil
		}
		return result, &CommandError{
			Command:  command,
			Dir:      dir,
			ExitCode: result.ExitCode,
			Output:   result.Output,
		}
	}
	return result, fmt.Errorf("failed to execute %q: %w", command, err)
}

// LookPath searches PATH for an executable.
func (l *Local) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// RequireTool fails with a *MissingToolError when tool is not on PATH.
func RequireTool(e Executor, tool, hint string) error {
	if _, err := e.LookPath(tool); err != nil {
		return &MissingToolError{Tool: tool, Hint: hint}
	}
	return nil
}

// Join quotes every argument for the shell and joins them with spaces.
func Join(args ...string) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, shellescape.Quote(arg))
	}
	return strings.Join(parts, " ")
}

// EnvList renders an environment map as sorted KEY=VALUE pairs.
func EnvList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}
