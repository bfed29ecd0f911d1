package runner

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"pattern_bot/internal/models"
	"pattern_bot/internal/modules/config"
	okx "pattern_bot/internal/modules/okx_client/service"
	"pattern_bot/pkg/metrics"
)

func newRunner(cfg *config.Config, c *okx.Client, n ServiceNotifier, rec *metrics.Recorder, log *zap.Logger) *Runner {
	return New(c, n, rec, cfg.OKX.DryRun, cfg.OKX.SignalMaxAge, log)
}

func newEquityCache(cfg *config.Config, c *okx.Client, log *zap.Logger) *EquityCache {
	return NewEquityCache(c, cfg.Sizing.EquityRefresh, log)
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			newRunner,      // *Runner
			newEquityCache, // *EquityCache
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			cfg *config.Config,
			r *Runner,
			eq *EquityCache,
			sigs chan models.Signal,
			ctx context.Context,
			log *zap.Logger,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					// в dry run ключей может не быть, equity не нужен
					if !cfg.OKX.DryRun || cfg.Sizing.UseRisk {
						go eq.Worker(ctx)
					}
					go r.Run(ctx, sigs)
					log.Info("runner started", zap.Bool("dry_run", cfg.OKX.DryRun))
					return nil
				},
			})
		}),
	)
}
