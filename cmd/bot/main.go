package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"pattern_bot/internal/modules/bootstrap"
	"pattern_bot/internal/modules/config"
	"pattern_bot/internal/modules/health"
	"pattern_bot/internal/modules/okx_client"
	"pattern_bot/internal/modules/okx_websocket"
	"pattern_bot/internal/modules/postgres"
	"pattern_bot/internal/modules/strategy"
	telegram "pattern_bot/internal/modules/telegram_bot"
	"pattern_bot/internal/runner"
	"pattern_bot/pkg/logger"
	"pattern_bot/pkg/tracing"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger.SetServiceName(cfg.Service.Name)
	return logger.New(cfg.LogLevel)
}

func registerTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) error {
	return tracing.Register(lc, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Service.Name,
		Host:        cfg.Tracing.Host,
		Port:        cfg.Tracing.Port,
	}, log)
}

func main() {
	// корневой контекст фоновых воркеров, гасится на OnStop
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := fx.New(
		fx.Provide(
			func(lc fx.Lifecycle) context.Context {
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						cancel()
						return nil
					},
				})
				return rootCtx
			},
			newLogger,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(registerTracing),
		config.Module(),
		health.Module(),
		postgres.Module(),
		okx_client.Module(),
		okx_websocket.Module(),
		telegram.Module(),
		strategy.Module(),
		runner.Module(),
		bootstrap.Module(),
	)

	startCtx, startCancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}
