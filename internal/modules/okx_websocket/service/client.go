package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pattern_bot/internal/models"
	"pattern_bot/internal/modules/config"
	health "pattern_bot/internal/modules/health/service"
)

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

type Client struct {
	cfg   *config.Config
	n     ServiceNotifier
	log   *zap.Logger
	state *health.State

	http     *http.Client
	wsDialer *websocket.Dialer
	// публичные market-эндпоинты OKX: 40 запросов / 2с
	limiter *rate.Limiter

	restURL string
	wsURL   string
}

func NewClient(cfg *config.Config, n ServiceNotifier, state *health.State, log *zap.Logger) *Client {
	return &Client{
		cfg:      cfg,
		n:        n,
		log:      log.Named("okx_ws"),
		state:    state,
		http:     &http.Client{Timeout: 10 * time.Second},
		wsDialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(10), 10),
		restURL:  strings.TrimRight(cfg.OKX.BaseURL, "/"),
		wsURL:    cfg.OKX.WSURL,
	}
}

// OutTick - что отдаём наружу (стрим в Hub).
type OutTick struct {
	InstID    string
	Timeframe string
	Candle    models.CandleTick
}

// Start стримит закрытые свечи по всем инструментам из конфига на одном таймфрейме.
func (c *Client) Start(ctx context.Context, out chan<- OutTick) {
	syms := c.cfg.Strategy.Instruments
	timeframe := c.cfg.Strategy.Timeframe
	if len(syms) == 0 {
		c.log.Error("empty instrument list, streamer not started")
		return
	}

	if c.n != nil {
		c.n.SendService(ctx, "🚀 OKX: WebSocket-стример запущен\n• Таймфрейм: %s\n• Инструментов: %d",
			timeframe, len(syms))
	}

	ticks := c.StreamCandlesBatch(ctx, syms, timeframe)
	for {
		select {
		case <-ctx.Done():
			c.log.Info("streamer stopped", zap.String("tf", timeframe))
			return

		case tick, ok := <-ticks:
			if !ok {
				if c.n != nil {
					c.n.SendService(ctx, "[РЫНОК] ❌ WS: поток закрыт %s", timeframe)
				}
				return
			}

			select {
			case out <- OutTick{InstID: tick.InstID, Timeframe: timeframe, Candle: tick}:
			case <-ctx.Done():
				return
			}
		}
	}
}
