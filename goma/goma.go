// Package goma makes sure the distributed compilation proxy is running
// before a build starts.
package goma

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cfrepro/cfrepro/shell"
	"github.com/rs/zerolog"
)

// ControlScript is the goma control script expected in the goma directory.
const ControlScript = "goma_ctl.py"

const installHint = "download goma into ~/goma or point $GOMA_DIR at an existing installation"

// Ensure starts goma from dir and returns dir. A directory without the
// control script yields a *shell.MissingToolError.
func Ensure(ctx context.Context, logger zerolog.Logger, exec shell.Executor, dir string) (string, error) {
	script := filepath.Join(dir, ControlScript)
	info, err := os.Stat(script)
	if err != nil || info.IsDir() {
		return "", &shell.MissingToolError{
			Tool: "goma",
			Hint: fmt.Sprintf("%s not found in %s, %s", ControlScript, dir, installHint),
		}
	}

	logger.Info().Str("goma_dir", dir).Msg("Starting goma")
	if _, err := exec.Execute(ctx, "python "+ControlScript+" ensure_start", dir, shell.Options{}); err != nil {
		return "", fmt.Errorf("failed to start goma: %w", err)
	}
	return dir, nil
}
