package goma

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cfrepro/cfrepro/shell"
	"github.com/cfrepro/cfrepro/shell/shelltest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestEnsure(t *testing.T) {
	t.Run("control script present", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ControlScript), nil, 0o644))
		fake := shelltest.New()

		got, err := Ensure(context.Background(), zerolog.Nop(), fake, dir)
		require.NoError(t, err)
		require.Equal(t, dir, got)
		require.Equal(t, []string{"python goma_ctl.py ensure_start"}, fake.Commands())
		require.Equal(t, dir, fake.Calls[0].Dir)
	})

	t.Run("control script missing", func(t *testing.T) {
		fake := shelltest.New()

		_, err := Ensure(context.Background(), zerolog.Nop(), fake, t.TempDir())
		var missing *shell.MissingToolError
		require.True(t, errors.As(err, &missing))
		require.Equal(t, "goma", missing.Tool)
		require.Empty(t, fake.Calls)
	})

	t.Run("start fails", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ControlScript), nil, 0o644))
		fake := shelltest.New(shelltest.Response{
			Err: &shell.CommandError{Command: "python goma_ctl.py ensure_start", ExitCode: 1},
		})

		_, err := Ensure(context.Background(), zerolog.Nop(), fake, dir)
		var cmdErr *shell.CommandError
		require.True(t, errors.As(err, &cmdErr))
	})
}
