package strategy

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"pattern_bot/internal/models"
	"pattern_bot/internal/modules/config"
	"pattern_bot/internal/modules/health"
	okx "pattern_bot/internal/modules/okx_client/service"
	okxws "pattern_bot/internal/modules/okx_websocket/service"
	"pattern_bot/internal/modules/strategy/service"
	"pattern_bot/internal/runner"
	"pattern_bot/pkg/metrics"
)

func newSignalsChan() chan models.Signal {
	return make(chan models.Signal, 4096)
}
func asSendOnlySignals(ch chan models.Signal) chan<- models.Signal { return ch }

func newRecorder(reg prometheus.Registerer) *metrics.Recorder { return metrics.New(reg) }

func newEngines(
	ctx context.Context,
	cfg *config.Config,
	c *okx.Client,
	eq *runner.EquityCache,
	rec *metrics.Recorder,
	log *zap.Logger,
) (map[string]*service.PatternEngine, error) {
	return service.NewEngines(ctx, cfg, c, eq, log.Named("engine"), rec)
}

func newSnapshotter(cfg *config.Config, hub *service.Hub, store service.ScoreStore, log *zap.Logger) *service.Snapshotter {
	return service.NewSnapshotter(hub, store, cfg.Strategy.SnapshotEvery, log)
}

// patternsView отдаёт /patterns состояние движков.
type patternsView struct{ hub *service.Hub }

func (p patternsView) Instruments() []string { return p.hub.Instruments() }

func (p patternsView) View(instID string) (any, bool) { return p.hub.Patterns(instID) }

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			newSignalsChan,    // chan models.Signal
			asSendOnlySignals, // chan<- models.Signal
			newRecorder,       // *metrics.Recorder
			newEngines,        // map[string]*service.PatternEngine
			service.NewHub,    // *service.Hub
			newSnapshotter,    // *service.Snapshotter
			func(hub *service.Hub) health.PatternsSource { return patternsView{hub: hub} },
		),

		fx.Invoke(func(
			lc fx.Lifecycle,
			hub *service.Hub,
			snap *service.Snapshotter,
			ticks <-chan okxws.OutTick,
			ctx context.Context,
			log *zap.Logger,
		) {
			log = log.Named("strategy")
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						log.Info("hub loop started")
						for {
							select {
							case <-ctx.Done():
								log.Info("hub loop stopped")
								return
							case t, ok := <-ticks:
								if !ok {
									log.Info("ticks channel closed")
									return
								}
								hub.OnTick(ctx, t)
							}
						}
					}()
					go snap.Run(ctx)
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					// последний снимок счёта перед выходом
					return snap.Save(stopCtx)
				},
			})
		}),
	)
}
