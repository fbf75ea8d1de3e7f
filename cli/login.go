package cli

import (
	"fmt"

	"github.com/cfrepro/cfrepro/auth"
	"github.com/urfave/cli/v2"
)

func (a *App) login(ctx *cli.Context) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	store := auth.NewStore(cfg.AuthFile())
	fetcher := auth.NewFetcher(a.logger, store, a.prompter())
	if err := fetcher.Login(ctx.Context); err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}

	a.logger.Info().Str("path", store.Path()).Msg("Credentials stored")
	return nil
}
