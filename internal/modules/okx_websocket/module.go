package okx_websocket

import (
	"go.uber.org/fx"

	"pattern_bot/internal/modules/okx_websocket/service"
)

// Module поднимает клиент свечей OKX и общий канал тиков.
// Сам стрим запускает bootstrap после прогрева историей.
func Module() fx.Option {
	return fx.Module("okx_websocket",
		fx.Provide(
			service.NewClient,
			func() chan service.OutTick {
				// общий буфер для свечей
				return make(chan service.OutTick, 1024)
			},
			func(ch chan service.OutTick) <-chan service.OutTick { return ch },
		),
	)
}
