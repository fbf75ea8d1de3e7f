package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// GCS downloads archives through the Cloud Storage API using application
// default credentials unless options say otherwise.
type GCS struct {
	logger zerolog.Logger
	client *gcs.Client
}

// NewGCS creates a Cloud Storage client.
func NewGCS(ctx context.Context, logger zerolog.Logger, opts ...option.ClientOption) (*GCS, error) {
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &GCS{
		logger: logger,
		client: client,
	}, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}

// Fetch streams the archive object into destDir and returns its path.
func (g *GCS) Fetch(ctx context.Context, buildURL, destDir string) (string, error) {
	bucket, object, err := splitGS(GSURL(buildURL))
	if err != nil {
		return "", err
	}

	g.logger.Debug().
		Str("bucket", bucket).
		Str("object", object).
		Msg("Reading object")

	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open gs://%s/%s: %w", bucket, object, err)
	}
	defer r.Close()

	dest := filepath.Join(destDir, ArchiveName(buildURL))
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to copy gs://%s/%s to %s: %w", bucket, object, dest, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", dest, err)
	}
	return dest, nil
}
