package storage

import (
	"context"
	"path/filepath"

	"github.com/cfrepro/cfrepro/shell"
	"github.com/rs/zerolog"
)

const gsutilHint = "install the Google Cloud SDK from https://cloud.google.com/sdk/docs/install"

// GSUtil copies archives with the gsutil command line tool.
type GSUtil struct {
	logger zerolog.Logger
	exec   shell.Executor
}

// NewGSUtil creates a gsutil backed Fetcher.
func NewGSUtil(logger zerolog.Logger, exec shell.Executor) *GSUtil {
	return &GSUtil{
		logger: logger,
		exec:   exec,
	}
}

// Fetch copies the archive into destDir with `gsutil cp` and returns its path.
func (g *GSUtil) Fetch(ctx context.Context, buildURL, destDir string) (string, error) {
	if err := shell.RequireTool(g.exec, "gsutil", gsutilHint); err != nil {
		return "", err
	}

	cmd := shell.Join("gsutil", "cp", GSURL(buildURL), ".")
	if _, err := g.exec.Execute(ctx, cmd, destDir, shell.Options{}); err != nil {
		return "", err
	}
	return filepath.Join(destDir, ArchiveName(buildURL)), nil
}
