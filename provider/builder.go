package provider

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cfrepro/cfrepro/prompt"
	"github.com/cfrepro/cfrepro/revision"
	"github.com/cfrepro/cfrepro/testcase"
	"github.com/rs/zerolog"
)

const (
	sourceQuestion = "This is a V8 testcase, please define $V8_SRC or enter your V8 source location here"
	sourceRetry    = "Please enter a valid directory"
)

// Resolver maps a revision to its commit.
type Resolver interface {
	Resolve(ctx context.Context, rev int, repo string) (revision.Commit, error)
}

// Orchestrator performs the checkout, configure and compile steps.
type Orchestrator interface {
	Checkout(ctx context.Context, srcDir, sha string) error
	PatchArgs(ctx context.Context, srcDir, buildDir, fallbackDir string) error
	Build(ctx context.Context, srcDir, buildDir, target string) error
}

// Asker obtains validated interactive input.
type Asker interface {
	Ask(question, errorMessage string, validate func(string) bool) (string, error)
}

// V8Builder compiles the binary from a local V8 checkout at the crash
// revision.
type V8Builder struct {
	logger         zerolog.Logger
	installer      Installer
	resolver       Resolver
	orch           Orchestrator
	asker          Asker
	clusterfuzzDir string
	tc             *testcase.Testcase
	opts           options
	commit         *revision.Commit
}

// NewV8Builder creates a building provider. The prebuilt build is still
// downloaded below clusterfuzzDir to seed args.gn.
func NewV8Builder(
	logger zerolog.Logger,
	installer Installer,
	resolver Resolver,
	orch Orchestrator,
	asker Asker,
	clusterfuzzDir string,
	tc *testcase.Testcase,
	opts ...Option,
) *V8Builder {
	return &V8Builder{
		logger:         logger,
		installer:      installer,
		resolver:       resolver,
		orch:           orch,
		asker:          asker,
		clusterfuzzDir: clusterfuzzDir,
		tc:             tc,
		opts:           applyOptions(opts),
	}
}

// Commit returns the commit the checkout was moved to, if any.
func (b *V8Builder) Commit() *revision.Commit {
	return b.commit
}

// BinaryPath checks out the crash revision, configures and compiles the
// binary, and returns its path.
func (b *V8Builder) BinaryPath(ctx context.Context) (string, error) {
	if b.opts.buildDir != "" {
		return filepath.Join(b.opts.buildDir, BinaryName), nil
	}

	dataDir := DownloadDir(filepath.Join(b.clusterfuzzDir, "builds"), b.tc.ID)
	if err := b.ensureBuildData(ctx, dataDir); err != nil {
		return "", err
	}

	srcDir, err := b.sourceDir()
	if err != nil {
		return "", err
	}
	buildDir := OutputDir(srcDir, b.tc.ID)

	if err := b.checkout(ctx, srcDir); err != nil {
		return "", err
	}
	if err := b.orch.PatchArgs(ctx, srcDir, buildDir, dataDir); err != nil {
		return "", err
	}
	if err := b.orch.Build(ctx, srcDir, buildDir, BinaryName); err != nil {
		return "", err
	}
	return filepath.Join(buildDir, BinaryName), nil
}

func (b *V8Builder) ensureBuildData(ctx context.Context, dataDir string) error {
	if Ready(dataDir) {
		return nil
	}
	if b.tc.BuildURL == "" {
		b.logger.Warn().Str("id", b.tc.ID).Msg("Testcase has no build url, args.gn will not be seeded")
		return nil
	}
	return b.installer.Install(ctx, b.tc.BuildURL, b.clusterfuzzDir, dataDir)
}

func (b *V8Builder) sourceDir() (string, error) {
	if b.opts.srcDir != "" {
		return b.opts.srcDir, nil
	}
	dir, err := b.asker.Ask(sourceQuestion, sourceRetry, prompt.IsDir)
	if err != nil {
		return "", fmt.Errorf("failed to read V8 source location: %w", err)
	}
	return dir, nil
}

func (b *V8Builder) checkout(ctx context.Context, srcDir string) error {
	if b.opts.current {
		b.logger.Info().Str("src", srcDir).Msg("Building the current checkout")
		return nil
	}
	if b.tc.Revision == nil {
		b.logger.Warn().Str("id", b.tc.ID).Msg("Testcase has no revision, building the current checkout")
		return nil
	}

	commit, err := b.resolver.Resolve(ctx, *b.tc.Revision, revision.V8Repo)
	if err != nil {
		return err
	}
	b.commit = &commit
	return b.orch.Checkout(ctx, srcDir, commit.SHA)
}
