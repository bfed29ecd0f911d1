package telegram

import (
	"context"

	"go.uber.org/fx"

	bootstrap "pattern_bot/internal/modules/bootstrap/service"
	okxws "pattern_bot/internal/modules/okx_websocket/service"
	strategy "pattern_bot/internal/modules/strategy/service"
	"pattern_bot/internal/modules/telegram_bot/service"
	"pattern_bot/internal/runner"
)

func Module() fx.Option {
	return fx.Module("telegram",
		// 1. Сервис Telegram как *service.Telegram
		fx.Provide(
			service.NewTelegram, // func(*config.Config, *zap.Logger) (*service.Telegram, error)
		),

		// 2. Адаптеры: *service.Telegram -> ServiceNotifier каждого модуля
		fx.Provide(
			func(t *service.Telegram) runner.ServiceNotifier { return t },
			func(t *service.Telegram) strategy.ServiceNotifier { return t },
			func(t *service.Telegram) okxws.ServiceNotifier { return t },
			func(t *service.Telegram) bootstrap.ServiceNotifier { return t },
		),

		// 3. Запуск цикла апдейтов через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram, hub *strategy.Hub, snap *strategy.Snapshotter, ctx context.Context) {
				t.SetStatus(hub)
				t.SetResetter(snap)
				lc.Append(fx.Hook{
					OnStart: func(_ context.Context) error {
						t.Start(ctx)
						return nil
					},
					OnStop: func(_ context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
