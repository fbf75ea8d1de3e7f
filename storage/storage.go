// Package storage retrieves prebuilt build archives from Cloud Storage and
// installs them into a build directory.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const (
	browserPrefix = "https://storage.cloud.google.com/"
	gsPrefix      = "gs://"
)

// Fetcher copies the archive behind buildURL into destDir and returns the
// local archive path.
type Fetcher interface {
	Fetch(ctx context.Context, buildURL, destDir string) (string, error)
}

// GSURL rewrites a storage browser URL into its gs:// form. Other URLs are
// returned unchanged.
func GSURL(buildURL string) string {
	if rest, ok := strings.CutPrefix(buildURL, browserPrefix); ok {
		return gsPrefix + rest
	}
	return buildURL
}

// ArchiveName is the file name the archive is stored under locally.
func ArchiveName(buildURL string) string {
	return path.Base(buildURL)
}

// splitGS returns the bucket and object of a gs:// URL.
func splitGS(gsURL string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(gsURL, gsPrefix)
	if !ok {
		return "", "", fmt.Errorf("not a gs:// URL: %s", gsURL)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("gs:// URL has no object: %s", gsURL)
	}
	return bucket, object, nil
}

// Installer downloads build archives and unpacks them into build
// directories.
type Installer struct {
	logger  zerolog.Logger
	fetcher Fetcher
}

// NewInstaller creates an Installer using fetcher for the transfer.
func NewInstaller(logger zerolog.Logger, fetcher Fetcher) *Installer {
	return &Installer{
		logger:  logger,
		fetcher: fetcher,
	}
}

// Install fetches the archive into workDir, unpacks it into buildDir and
// removes the archive.
func (i *Installer) Install(ctx context.Context, buildURL, workDir, buildDir string) error {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", workDir, err)
	}

	i.logger.Info().
		Str("url", buildURL).
		Str("build_dir", buildDir).
		Msg("Downloading build archive")

	archive, err := i.fetcher.Fetch(ctx, buildURL, workDir)
	if err != nil {
		return fmt.Errorf("failed to download build archive: %w", err)
	}

	if err := Unpack(archive, buildDir); err != nil {
		return err
	}

	if err := os.Remove(archive); err != nil {
		return fmt.Errorf("failed to remove archive %s: %w", archive, err)
	}

	i.logger.Debug().Str("archive", filepath.Base(archive)).Msg("Build archive installed")
	return nil
}
