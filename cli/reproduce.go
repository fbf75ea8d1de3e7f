package cli

// This file contains the reproduce command: fetch the testcase, obtain a
// binary for it and replay the crash.

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cfrepro/cfrepro/auth"
	"github.com/cfrepro/cfrepro/build"
	"github.com/cfrepro/cfrepro/config"
	"github.com/cfrepro/cfrepro/goma"
	"github.com/cfrepro/cfrepro/history"
	"github.com/cfrepro/cfrepro/model"
	"github.com/cfrepro/cfrepro/prompt"
	"github.com/cfrepro/cfrepro/provider"
	"github.com/cfrepro/cfrepro/revision"
	"github.com/cfrepro/cfrepro/runner"
	"github.com/cfrepro/cfrepro/storage"
	"github.com/cfrepro/cfrepro/testcase"
	"github.com/urfave/cli/v2"
)

func (a *App) reproduce(ctx *cli.Context) error {
	startTime := time.Now()

	id := ctx.Args().First()
	if id == "" {
		return fmt.Errorf("no testcase id specified: usage %s reproduce <testcase-id>", AppName)
	}

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	p := a.prompter()
	store := auth.NewStore(cfg.AuthFile())
	fetcher := auth.NewFetcher(a.logger, store, p)

	a.logger.Info().Str("id", id).Msg("Fetching testcase information")
	body, err := fetcher.Fetch(ctx.Context, cfg.TestcaseInfoURL+"?testcaseId="+url.QueryEscape(id))
	if err != nil {
		return fmt.Errorf("failed to fetch testcase %s: %w", id, err)
	}
	tc, err := testcase.Parse(body)
	if err != nil {
		return err
	}

	archives, closeArchives, err := a.archiveFetcher(ctx.Context, cfg)
	if err != nil {
		return err
	}
	defer closeArchives()
	installer := storage.NewInstaller(a.logger, archives)

	var providerOpts []provider.Option
	if dir := ctx.String("build-dir"); dir != "" {
		providerOpts = append(providerOpts, provider.WithBuildDir(config.ExpandHome(dir)))
	}

	h := &model.History{
		Timestamp:  startTime,
		Args:       os.Args,
		TestcaseID: tc.ID,
		Revision:   tc.Revision,
	}

	var (
		bp      provider.BinaryProvider
		builder *provider.V8Builder
	)
	if ctx.Bool("download") {
		h.Type = model.HistoryTypeDownload
		bp = provider.NewDownloadedBinary(a.logger, installer, cfg.ClusterfuzzDir, tc, providerOpts...)
	} else {
		h.Type = model.HistoryTypeBuild
		gomaDir := cfg.GomaDir
		if ctx.String("build-dir") == "" {
			gomaDir, err = goma.Ensure(ctx.Context, a.logger, a.exec, cfg.GomaDir)
			if err != nil {
				return err
			}
		}

		orch := build.New(a.logger, a.exec, p, gomaDir, build.WithJobsMultiplier(cfg.JobsMultiplier))
		resolver := revision.NewResolver(a.logger, revision.HTTPGetter{}, cfg.NumberingURL)
		providerOpts = append(providerOpts,
			provider.WithSourceDir(cfg.V8Src),
			provider.WithCurrent(ctx.Bool("current")),
		)
		builder = provider.NewV8Builder(a.logger, installer, resolver, orch, p, cfg.ClusterfuzzDir, tc, providerOpts...)
		bp = builder
	}

	binary, err := bp.BinaryPath(ctx.Context)
	if err != nil {
		if errors.Is(err, prompt.ErrDeclined) {
			return cli.Exit(err.Error(), 1)
		}
		return err
	}

	downloader := testcase.NewDownloader(a.logger, a.exec, store, cfg.TestcasesDir(), cfg.DownloadURL)
	testcasePath, err := downloader.Path(ctx.Context, tc.ID)
	if err != nil {
		return err
	}

	result, err := runner.New(a.logger, a.exec).Run(ctx.Context, binary, tc, testcasePath)
	if err != nil {
		return err
	}

	h.ExitCode = result.ExitCode
	h.Duration = result.Duration
	h.Target = &model.Target{
		Binary:  binary,
		Command: result.Command,
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	attachments := []history.Attachment{
		{Type: model.ArtifactTypeTestcase, Path: testcasePath},
		{Type: model.ArtifactTypeArgsGN, Path: filepath.Join(filepath.Dir(binary), build.ArgsFile)},
	}
	if builder != nil {
		h.Git = &model.Git{
			Repo:      revision.V8Repo,
			SourceDir: cfg.V8Src,
			Current:   ctx.Bool("current"),
		}
		if c := builder.Commit(); c != nil {
			h.Git.Commit = c.SHA
		}
	}

	// Record the history (non-fatal if it fails)
	if runDir, err := history.Save(a.logger, cfg.HistoryDir(), h, result.Output, attachments...); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to record history")
	} else {
		a.logger.Info().Str("id", h.ID).Str("dir", runDir).Msg("Reproduction recorded")
	}

	if result.Crashed() {
		return cli.Exit("", result.ExitCode)
	}
	return nil
}

func (a *App) prompter() *prompt.Prompter {
	return prompt.New(a.in, a.out)
}

// archiveFetcher returns the configured storage backend and a function
// releasing it.
func (a *App) archiveFetcher(ctx context.Context, cfg config.Config) (storage.Fetcher, func(), error) {
	if cfg.StorageBackend != config.StorageAPI {
		return storage.NewGSUtil(a.logger, a.exec), func() {}, nil
	}

	gcs, err := storage.NewGCS(ctx, a.logger)
	if err != nil {
		return nil, nil, err
	}
	return gcs, func() {
		if err := gcs.Close(); err != nil {
			a.logger.Debug().Err(err).Msg("Failed to close storage client")
		}
	}, nil
}
