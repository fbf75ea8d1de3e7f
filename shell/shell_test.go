package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLocal_Execute(t *testing.T) {
	var echoed bytes.Buffer
	l := New(zerolog.Nop(), WithOutput(&echoed))
	dir := t.TempDir()

	t.Run("captures merged output", func(t *testing.T) {
		echoed.Reset()
		res, err := l.Execute(context.Background(), "echo out; echo err 1>&2", dir, Options{})
		require.NoError(t, err)
		require.Equal(t, 0, res.ExitCode)
		require.Contains(t, res.Output, "out")
		require.Contains(t, res.Output, "err")
		require.Equal(t, res.Output, echoed.String())
	})

	t.Run("quiet does not echo", func(t *testing.T) {
		echoed.Reset()
		res, err := l.Execute(context.Background(), "echo hidden", dir, Options{Quiet: true})
		require.NoError(t, err)
		require.Equal(t, "hidden\n", res.Output)
		require.Empty(t, echoed.String())
	})

	t.Run("runs in dir", func(t *testing.T) {
		res, err := l.Execute(context.Background(), "pwd", dir, Options{Quiet: true})
		require.NoError(t, err)
		require.Equal(t, dir, strings.TrimSpace(res.Output))
	})

	t.Run("extends environment", func(t *testing.T) {
		res, err := l.Execute(context.Background(), "echo $CFREPRO_TEST_VAR", dir, Options{
			Quiet: true,
			Env:   map[string]string{"CFREPRO_TEST_VAR": "first=1:second=2"},
		})
		require.NoError(t, err)
		require.Equal(t, "first=1:second=2\n", res.Output)
	})

	t.Run("non-zero exit is a CommandError", func(t *testing.T) {
		res, err := l.Execute(context.Background(), "echo boom; exit 3", dir, Options{Quiet: true})
		var cmdErr *CommandError
		require.True(t, errors.As(err, &cmdErr))
		require.Equal(t, 3, cmdErr.ExitCode)
		require.Equal(t, "boom\n", cmdErr.Output)
		require.Equal(t, 3, res.ExitCode)
		require.Contains(t, err.Error(), "exit code 3")
	})

	t.Run("allow failure reports exit code", func(t *testing.T) {
		res, err := l.Execute(context.Background(), "exit 42", dir, Options{Quiet: true, AllowFailure: true})
		require.NoError(t, err)
		require.Equal(t, 42, res.ExitCode)
	})
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{
			name: "safe arguments stay bare",
			in:   []string{"ninja", "-C", "/chrome/source/out/clusterfuzz_54321", "-j", "120", "d8"},
			want: "ninja -C /chrome/source/out/clusterfuzz_54321 -j 120 d8",
		},
		{
			name: "gs url stays bare",
			in:   []string{"gsutil", "cp", "gs://abc.zip", "."},
			want: "gsutil cp gs://abc.zip .",
		},
		{
			name: "spaces are quoted",
			in:   []string{"ls", "/path with space"},
			want: "ls '/path with space'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Join(tt.in...))
		})
	}
}

func TestEnvList(t *testing.T) {
	got := EnvList(map[string]string{"B": "2", "A": "1"})
	require.Equal(t, []string{"A=1", "B=2"}, got)
}

type fakeLookup struct{ found map[string]bool }

func (f fakeLookup) Execute(context.Context, string, string, Options) (Result, error) {
	return Result{}, nil
}

func (f fakeLookup) LookPath(file string) (string, error) {
	if f.found[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found")
}

func TestRequireTool(t *testing.T) {
	e := fakeLookup{found: map[string]bool{"git": true}}

	require.NoError(t, RequireTool(e, "git", ""))

	err := RequireTool(e, "gsutil", "install the Google Cloud SDK")
	var missing *MissingToolError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "gsutil", missing.Tool)
	require.Equal(t, "gsutil is not installed: install the Google Cloud SDK", err.Error())
}
