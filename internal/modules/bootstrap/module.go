package bootstrap

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	bootstrap "pattern_bot/internal/modules/bootstrap/service"
	"pattern_bot/internal/modules/config"
	okxws "pattern_bot/internal/modules/okx_websocket/service"
	strategy "pattern_bot/internal/modules/strategy/service"
)

func newWarmuper(cfg *config.Config, mx *okxws.Client, hub *strategy.Hub, n bootstrap.ServiceNotifier, log *zap.Logger) *bootstrap.Warmuper {
	return bootstrap.NewWarmuper(mx, hub, n,
		cfg.Strategy.Timeframe, cfg.Strategy.WarmupBars, cfg.Strategy.PatternLength, log)
}

func newBootstrap(
	snap *strategy.Snapshotter,
	wu *bootstrap.Warmuper,
	mx *okxws.Client,
	ticks chan okxws.OutTick,
	log *zap.Logger,
) *bootstrap.Bootstrap {
	return bootstrap.NewBootstrap(snap, wu, mx, ticks, log)
}

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			newWarmuper,  // -> *bootstrap.Warmuper
			newBootstrap, // -> *bootstrap.Bootstrap
		),
		fx.Invoke(func(lc fx.Lifecycle, b *bootstrap.Bootstrap, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					// прогрев и стрим идут в фоне, старт приложения не ждёт REST
					go b.Run(ctx)
					return nil
				},
			})
		}),
	)
}
