package runner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type EquityClient interface {
	Equity(ctx context.Context) (float64, error)
}

// EquityCache держит последнее equity аккаунта, чтобы движок считал объём
// без сетевых вызовов на горячем пути.
type EquityCache struct {
	okx   EquityClient
	every time.Duration
	// старше этого значение считаем неизвестным, 0 => не протухает
	ttl time.Duration
	log *zap.Logger
	now func() time.Time

	mu    sync.RWMutex
	value float64
	at    time.Time
	ok    bool
}

func NewEquityCache(okx EquityClient, every time.Duration, log *zap.Logger) *EquityCache {
	if every <= 0 {
		every = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EquityCache{
		okx:   okx,
		every: every,
		ttl:   3 * every,
		log:   log.Named("equity"),
		now:   time.Now,
	}
}

// Equity реализует EquitySource движка.
func (c *EquityCache) Equity() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ok {
		return 0, false
	}
	if c.ttl > 0 && c.now().Sub(c.at) > c.ttl {
		return c.value, false
	}
	return c.value, true
}

func (c *EquityCache) Refresh(ctx context.Context) error {
	eq, err := c.okx.Equity(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.value = eq
	c.at = c.now()
	c.ok = true
	c.mu.Unlock()
	c.log.Debug("equity refreshed", zap.Float64("equity", eq))
	return nil
}

func (c *EquityCache) Worker(ctx context.Context) {
	ticker := time.NewTicker(c.every)
	defer ticker.Stop()

	// сразу при старте
	if err := c.Refresh(ctx); err != nil {
		c.log.Warn("equity refresh failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.log.Warn("equity refresh failed", zap.Error(err))
			}
		}
	}
}
