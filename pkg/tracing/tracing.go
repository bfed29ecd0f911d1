package tracing

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	jCfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"pattern_bot/pkg/logger"
)

var serviceName = "default"

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

type Config struct {
	Enabled     bool
	ServiceName string
	Host        string
	Port        int
}

func InitTracer(conf Config) (opentracing.Tracer, func(), error) {
	cfg := &jCfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jCfg.SamplerConfig{
			Type:  "const",
			Param: 1,
		},
		Reporter: &jCfg.ReporterConfig{
			LogSpans:           true,
			LocalAgentHostPort: fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		},
	}

	jMetricsFactory := metrics.NullFactory
	tracer, closer, err := cfg.NewTracer(
		jCfg.Metrics(jMetricsFactory),
	)
	if err != nil {
		return nil, nil, err
	}

	opentracing.SetGlobalTracer(tracer)
	return tracer, func() {
		if err := closer.Close(); err != nil {
			logger.Error("Error closing Jaeger tracer: %v", err)
		}
	}, nil
}

// Register поднимает jaeger-трейсер на время жизни приложения.
// Выключенный трейсинг оставляет глобальный NoopTracer.
func Register(lc fx.Lifecycle, conf Config, log *zap.Logger) error {
	if !conf.Enabled {
		log.Info("tracing disabled")
		return nil
	}
	if conf.ServiceName != "" {
		SetServiceName(conf.ServiceName)
	}

	_, closeFn, err := InitTracer(conf)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	log.Info("tracing enabled", zap.String("agent", fmt.Sprintf("%s:%d", conf.Host, conf.Port)))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closeFn()
			opentracing.SetGlobalTracer(opentracing.NoopTracer{})
			return nil
		},
	})
	return nil
}
