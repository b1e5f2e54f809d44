package main

import (
	"github.com/spf13/cobra"

	"github.com/bjrfx/mediacore/internal/app"
	"github.com/bjrfx/mediacore/internal/observability/logger"
)

func newServeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			logger.L().Info("starting",
				logger.String("env", cfg.App.Env),
				logger.String("version", cfg.App.Version),
				logger.String("storage", cfg.Storage.Driver),
				logger.String("cache", cfg.Cache.Kind),
			)

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	}
}
