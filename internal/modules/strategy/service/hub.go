package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"pattern_bot/internal/helper"
	"pattern_bot/internal/models"
	"pattern_bot/internal/modules/config"
	health "pattern_bot/internal/modules/health/service"
	okxws "pattern_bot/internal/modules/okx_websocket/service"
)

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

// Hub принимает закрытые свечи от стримера и раздаёт их движкам по инструментам.
// Каждый движок владеет своим состоянием, Hub только сериализует вызовы.
type Hub struct {
	cfg   *config.Config
	n     ServiceNotifier
	out   chan<- models.Signal
	state *health.State
	log   *zap.Logger

	mu      sync.Mutex
	engines map[string]*PatternEngine
	// пока инструмент не live, сигналы выбрасываем (идёт прогрев историей)
	live       map[string]bool
	readyCnt   int
	ready      map[string]bool
	startedAt  time.Time
	lastSignal map[string]time.Time
}

func NewHub(
	cfg *config.Config,
	n ServiceNotifier,
	out chan<- models.Signal,
	engines map[string]*PatternEngine,
	state *health.State,
	log *zap.Logger,
) *Hub {
	return &Hub{
		cfg:        cfg,
		n:          n,
		out:        out,
		state:      state,
		log:        log.Named("hub"),
		engines:    engines,
		live:       make(map[string]bool),
		ready:      make(map[string]bool),
		startedAt:  time.Now(),
		lastSignal: make(map[string]time.Time),
	}
}

func (h *Hub) OnTick(ctx context.Context, t okxws.OutTick) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "strategy.hub.on_tick")
	defer span.Finish()
	span.SetTag("inst", t.InstID)

	// приводим WS tick к models.CandleTick
	ct := t.Candle
	ct.InstID = t.InstID
	if ct.TimeframeRaw == "" {
		ct.TimeframeRaw = t.Timeframe
	}

	if helper.NormTF(ct.TimeframeRaw) != helper.NormTF(h.cfg.Strategy.Timeframe) {
		return
	}

	sig, ok, live := h.process(ctx, ct)
	if h.state != nil {
		h.state.TouchTick(ct.End)
	}

	if !ok {
		return
	}
	span.SetTag("signal", string(sig.Side))

	// блокируем сигналы пока прогрев не окончен
	if !live {
		h.log.Debug("warmup signal dropped",
			zap.String("inst", sig.InstID), zap.String("side", string(sig.Side)), zap.String("pattern", sig.Pattern))
		return
	}

	// отдаём сигнал наружу (лучше не блокировать Hub)
	select {
	case h.out <- sig:
		if h.state != nil {
			h.state.TouchSignal(sig.CreatedAt)
		}
	default:
		if h.state != nil {
			h.state.SignalDropped()
		}
		if h.n != nil {
			h.n.SendService(ctx, "⚠️ signal channel full, drop %s %s @ %.6f (%s)",
				sig.InstID, sig.Side, sig.Price, sig.Pattern)
		}
	}
}

func (h *Hub) process(ctx context.Context, ct models.CandleTick) (models.Signal, bool, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	eng, ok := h.engines[ct.InstID]
	if !ok {
		h.log.Debug("candle for unknown instrument", zap.String("inst", ct.InstID))
		return models.Signal{}, false, false
	}

	sig, ok := eng.OnCandle(ct)

	if eng.Ready() && !h.ready[ct.InstID] {
		h.ready[ct.InstID] = true
		h.readyCnt++
		h.log.Info("pattern window filled", zap.String("inst", ct.InstID), zap.Int("ready", h.readyCnt))
	}
	if ok {
		h.lastSignal[ct.InstID] = sig.CreatedAt
	}
	return sig, ok, h.live[ct.InstID]
}

// GoLive снимает блокировку сигналов после прогрева.
func (h *Hub) GoLive(ctx context.Context, instIDs ...string) {
	h.mu.Lock()
	for _, id := range instIDs {
		eng, ok := h.engines[id]
		if !ok {
			continue
		}
		h.live[id] = true
		h.log.Info("engine live", zap.String("engine", eng.Name()), zap.String("state", eng.Dump()))
	}
	liveCnt := len(h.live)
	h.mu.Unlock()

	if h.state != nil {
		h.state.SetLive(liveCnt, len(h.engines))
	}
	if h.n != nil {
		h.n.SendService(ctx, "✅ Warmup finished: %d/%d instruments live. Теперь ждём сигналы.",
			liveCnt, len(h.engines))
	}
}

func (h *Hub) Instruments() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.engines))
	for id := range h.engines {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PatternsView - срез состояния движка для /patterns.
type PatternsView struct {
	InstID       string             `json:"inst_id"`
	Live         bool               `json:"live"`
	Ready        bool               `json:"ready"`
	Pattern      string             `json:"pattern"`
	Known        int                `json:"known"`
	VirtualOpen  int                `json:"virtual_open"`
	Bullish      []LeaderboardEntry `json:"bullish"`
	Bearish      []LeaderboardEntry `json:"bearish"`
	LastSignalAt *time.Time         `json:"last_signal_at,omitempty"`
}

func (h *Hub) Patterns(instID string) (PatternsView, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	eng, ok := h.engines[instID]
	if !ok {
		return PatternsView{}, false
	}
	key, _ := eng.CurrentPattern()
	v := PatternsView{
		InstID:      instID,
		Live:        h.live[instID],
		Ready:       eng.Ready(),
		Pattern:     string(key),
		Known:       eng.PatternCount(),
		VirtualOpen: len(eng.OpenVirtualOrders()),
		Bullish:     eng.TopPatterns(DimensionBullish),
		Bearish:     eng.TopPatterns(DimensionBearish),
	}
	if at, ok := h.lastSignal[instID]; ok {
		v.LastSignalAt = &at
	}
	return v, true
}

// Snapshot - счёт по всем инструментам для внешнего хранилища.
func (h *Hub) Snapshot() map[string][]PatternRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string][]PatternRecord, len(h.engines))
	for id, eng := range h.engines {
		out[id] = eng.Snapshot()
	}
	return out
}

// ResetScores сбрасывает счёт движка инструмента.
func (h *Hub) ResetScores(instID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	eng, ok := h.engines[instID]
	if !ok {
		return false
	}
	eng.ResetScores()
	return true
}

func (h *Hub) Restore(instID string, records []PatternRecord) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	eng, ok := h.engines[instID]
	if !ok {
		return false
	}
	eng.Restore(records)
	return true
}
