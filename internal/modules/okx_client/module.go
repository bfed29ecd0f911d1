package okx_client

import (
	"go.uber.org/fx"

	"pattern_bot/internal/modules/okx_client/service"
)

func Module() fx.Option {
	return fx.Module("okx_client",
		fx.Provide(service.NewClient),
	)
}
