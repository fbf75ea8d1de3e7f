package provider

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cfrepro/cfrepro/testcase"
	"github.com/rs/zerolog"
)

// DownloadedBinary serves the prebuilt binary ClusterFuzz recorded for the
// testcase.
type DownloadedBinary struct {
	logger         zerolog.Logger
	installer      Installer
	clusterfuzzDir string
	tc             *testcase.Testcase
	opts           options
}

// NewDownloadedBinary creates a provider caching builds below
// clusterfuzzDir.
func NewDownloadedBinary(logger zerolog.Logger, installer Installer, clusterfuzzDir string, tc *testcase.Testcase, opts ...Option) *DownloadedBinary {
	return &DownloadedBinary{
		logger:         logger,
		installer:      installer,
		clusterfuzzDir: clusterfuzzDir,
		tc:             tc,
		opts:           applyOptions(opts),
	}
}

// BuildDir is the directory the binary is served from.
func (d *DownloadedBinary) BuildDir() string {
	if d.opts.buildDir != "" {
		return d.opts.buildDir
	}
	return DownloadDir(filepath.Join(d.clusterfuzzDir, "builds"), d.tc.ID)
}

// BinaryPath returns the downloaded binary, installing the build first
// unless it is already present.
func (d *DownloadedBinary) BinaryPath(ctx context.Context) (string, error) {
	dir := d.BuildDir()
	binary := filepath.Join(dir, BinaryName)
	if d.opts.buildDir != "" || Ready(dir) {
		d.logger.Debug().Str("build_dir", dir).Msg("Using existing build")
		return binary, nil
	}

	if d.tc.BuildURL == "" {
		return "", fmt.Errorf("testcase %s has no build url", d.tc.ID)
	}
	if err := d.installer.Install(ctx, d.tc.BuildURL, d.clusterfuzzDir, dir); err != nil {
		return "", err
	}
	return binary, nil
}
