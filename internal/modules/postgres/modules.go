package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"pattern_bot/internal/modules/config"
	"pattern_bot/internal/modules/postgres/service"
	strategy "pattern_bot/internal/modules/strategy/service"
	"pattern_bot/pkg/db"
)

// Module отдаёт хранилище счёта паттернов.
// Без db_dsn работаем без персистентности.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (strategy.ScoreStore, error) {
				if cfg.DB == "" {
					log.Warn("db_dsn is empty, pattern scores are kept in memory only")
					return service.NopStore{}, nil
				}

				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}
				if err := poolMaster.Ping(ctx); err != nil {
					poolMaster.Close()
					return nil, fmt.Errorf("ping postgres: %w", err)
				}

				tm := db.NewPgTxManager(poolMaster)
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						tm.Close()
						return nil
					},
				})

				repo := service.NewPatternStats(tm)
				if err := repo.Migrate(ctx); err != nil {
					tm.Close()
					return nil, err
				}
				return repo, nil
			},
		),
	)
}
