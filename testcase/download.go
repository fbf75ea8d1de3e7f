package testcase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/cfrepro/cfrepro/shell"
	"github.com/rs/zerolog"
)

// FileName is the name the testcase file is saved under.
const FileName = "testcase.js"

// DefaultDownloadURL is the authenticated testcase download endpoint.
const DefaultDownloadURL = "https://cluster-fuzz.appspot.com/v2/testcase-detail/download-testcase/oauth"

// TokenSource returns the stored authorization header.
type TokenSource interface {
	Load() (header string, ok bool, err error)
}

// Downloader places testcase files under a per-testcase directory.
type Downloader struct {
	logger  zerolog.Logger
	exec    shell.Executor
	tokens  TokenSource
	rootDir string
	baseURL string
}

// NewDownloader creates a Downloader storing files below rootDir. An empty
// baseURL selects DefaultDownloadURL.
func NewDownloader(logger zerolog.Logger, exec shell.Executor, tokens TokenSource, rootDir, baseURL string) *Downloader {
	if baseURL == "" {
		baseURL = DefaultDownloadURL
	}
	return &Downloader{
		logger:  logger,
		exec:    exec,
		tokens:  tokens,
		rootDir: rootDir,
		baseURL: baseURL,
	}
}

// Dir is the directory holding the file for testcase id.
func (d *Downloader) Dir(id string) string {
	return filepath.Join(d.rootDir, id+"_testcase")
}

// URL is the download URL for testcase id.
func (d *Downloader) URL(id string) string {
	return d.baseURL + "?id=" + url.QueryEscape(id)
}

// Path returns the local testcase file, downloading it on first use. A
// failed download leaves no file behind.
func (d *Downloader) Path(ctx context.Context, id string) (string, error) {
	dir := d.Dir(id)
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		d.logger.Debug().Str("path", path).Msg("Testcase already downloaded")
		return path, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create testcase directory: %w", err)
	}

	header, ok, err := d.tokens.Load()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no stored credentials, run `cfrepro login` first")
	}

	d.logger.Info().Str("id", id).Msg("Downloading testcase")
	cmd := shell.Join("wget", "--header=Authorization: "+header, d.URL(id), "-O", "./"+FileName)
	if _, err := d.exec.Execute(ctx, cmd, dir, shell.Options{Quiet: true}); err != nil {
		// wget creates the output file before the transfer starts.
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			d.logger.Warn().Err(rmErr).Str("path", path).Msg("Failed to remove partial testcase")
		}
		return "", fmt.Errorf("failed to download testcase %s: %w", id, err)
	}
	return path, nil
}
