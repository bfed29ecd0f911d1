package health

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"pattern_bot/internal/modules/config"
	"pattern_bot/internal/modules/health/service"
)

type Config struct {
	Addr string // например ":8080"
}

func NewConfig(cfg *config.Config) Config {
	addr := cfg.Service.HealthAddr
	if addr == "" {
		addr = ":8080"
	}
	return Config{Addr: addr}
}

// PatternsSource - срезы состояния движков по инструментам.
type PatternsSource interface {
	Instruments() []string
	View(instID string) (any, bool)
}

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewMux(state *service.State, patterns PatternsSource, reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: прогрев окончен, сигналы идут в торговлю
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		live, total := state.Live()
		resp := map[string]any{
			"ready":            state.Ready(),
			"wsConnected":      state.WSConnected(),
			"uptimeSec":        int64(state.Uptime().Seconds()),
			"lastTickUnix":     unixOrZero(state.LastTick()),
			"lastSignalUnix":   unixOrZero(state.LastSignal()),
			"signalsDropped":   state.DroppedSignals(),
			"instrumentsLive":  live,
			"instrumentsTotal": total,
		}
		writeJSON(w, resp)
	})

	mux.HandleFunc("/patterns", func(w http.ResponseWriter, r *http.Request) {
		if patterns == nil {
			http.Error(w, "no engines", http.StatusServiceUnavailable)
			return
		}
		if inst := r.URL.Query().Get("inst"); inst != "" {
			v, ok := patterns.View(inst)
			if !ok {
				http.Error(w, "unknown instrument", http.StatusNotFound)
				return
			}
			writeJSON(w, v)
			return
		}
		all := make([]any, 0)
		for _, id := range patterns.Instruments() {
			if v, ok := patterns.View(id); ok {
				all = append(all, v)
			}
		}
		writeJSON(w, all)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return mux
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			log.Info("health server listening", zap.String("addr", ln.Addr().String()))
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewConfig,
			NewRegistry,
			func(reg *prometheus.Registry) prometheus.Registerer { return reg },
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
