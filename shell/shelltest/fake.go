// Package shelltest provides a scripted shell.Executor for tests.
package shelltest

import (
	"context"
	"fmt"
	"sync"

	"github.com/cfrepro/cfrepro/shell"
)

// Call is one recorded Execute invocation.
type Call struct {
	Command string
	Dir     string
	Opts    shell.Options
}

// Response is returned for the matching call, in order.
type Response struct {
	Result shell.Result
	Err    error
	// Do runs before the response is returned, e.g. to create files the
	// real command would have produced.
	Do func(call Call) error
}

// Fake records calls and replays scripted responses. Calls beyond the
// script succeed with an empty result.
type Fake struct {
	mu        sync.Mutex
	Calls     []Call
	Responses []Response
	// Missing lists tools LookPath reports as absent.
	Missing map[string]bool
	next    int
}

// New creates a Fake with the given responses.
func New(responses ...Response) *Fake {
	return &Fake{Responses: responses}
}

func (f *Fake) Execute(ctx context.Context, command, dir string, opts shell.Options) (shell.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := Call{Command: command, Dir: dir, Opts: opts}
	f.Calls = append(f.Calls, call)

	if f.next >= len(f.Responses) {
		return shell.Result{}, nil
	}
	resp := f.Responses[f.next]
	f.next++
	if resp.Do != nil {
		if err := resp.Do(call); err != nil {
			return shell.Result{}, err
		}
	}
	return resp.Result, resp.Err
}

func (f *Fake) LookPath(file string) (string, error) {
	if f.Missing[file] {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", file)
	}
	return "/usr/bin/" + file, nil
}

// Commands returns the recorded command strings.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmds := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		cmds = append(cmds, c.Command)
	}
	return cmds
}

// Output is a convenience Response with the given output and exit code 0.
func Output(out string) Response {
	return Response{Result: shell.Result{Output: out}}
}
