package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"pattern_bot/internal/models"
	"pattern_bot/internal/modules/config"
	health "pattern_bot/internal/modules/health/service"
	okxws "pattern_bot/internal/modules/okx_websocket/service"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) SendService(_ context.Context, format string, args ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, fmt.Sprintf(format, args...))
}

func (n *recordingNotifier) contains(sub string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, m := range n.msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

const testInst = "BTC-USDT-SWAP"

func newTestHub(t *testing.T, out chan models.Signal) (*Hub, *recordingNotifier, *health.State) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Strategy.Timeframe = "1H"

	eng := NewPatternEngine(testEngineConfig(), testInstrument(), nil, zap.NewNop(), nil)
	n := &recordingNotifier{}
	st := health.NewState()
	h := NewHub(cfg, n, out, map[string]*PatternEngine{testInst: eng}, st, zap.NewNop())
	return h, n, st
}

func tick(c models.CandleTick) okxws.OutTick {
	return okxws.OutTick{InstID: testInst, Timeframe: "1H", Candle: c}
}

func TestHubDropsSignalsUntilLive(t *testing.T) {
	out := make(chan models.Signal, 4)
	h, n, st := newTestHub(t, out)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		h.OnTick(ctx, tick(flatBear(i)))
	}
	// прокол даёт сигнал, но прогрев ещё идёт
	h.OnTick(ctx, tick(spikeBull(7)))
	if len(out) != 0 {
		t.Fatalf("warmup signal leaked: %d", len(out))
	}
	for i := 8; i < 15; i++ {
		h.OnTick(ctx, tick(flatBear(i)))
	}

	h.GoLive(ctx, testInst)
	if !st.Ready() {
		t.Fatal("state must be ready after all instruments are live")
	}
	if !n.contains("Warmup finished") {
		t.Error("go-live not announced")
	}

	h.OnTick(ctx, tick(spikeBull(15)))
	select {
	case sig := <-out:
		if sig.Side != models.SideBuy || sig.Pattern != "0000000" {
			t.Fatalf("signal = %+v", sig)
		}
	default:
		t.Fatal("live signal not delivered")
	}
	if !st.LastTick().Equal(spikeBull(15).End) {
		t.Errorf("last tick = %v", st.LastTick())
	}
	if st.LastSignal().IsZero() {
		t.Error("delivered signal not recorded in state")
	}
	if live, total := st.Live(); live != 1 || total != 1 {
		t.Errorf("live = %d/%d", live, total)
	}

	v, ok := h.Patterns(testInst)
	if !ok || !v.Live || !v.Ready || v.LastSignalAt == nil {
		t.Fatalf("view = %+v", v)
	}
	if _, member := inLeaderboard(v.Bullish, "0000000"); !member {
		t.Errorf("bullish leaderboard = %+v", v.Bullish)
	}
}

func TestHubFiltersTimeframeAndInstrument(t *testing.T) {
	h, _, _ := newTestHub(t, make(chan models.Signal, 1))
	ctx := context.Background()

	other := tick(flatBear(0))
	other.Timeframe = "15m"
	other.Candle.TimeframeRaw = "15m"
	h.OnTick(ctx, other)

	unknown := tick(flatBear(1))
	unknown.InstID = "ETH-USDT-SWAP"
	h.OnTick(ctx, unknown)

	h.OnTick(ctx, okxws.OutTick{InstID: testInst, Timeframe: "candle1h", Candle: flatBear(2)})

	eng := h.engines[testInst]
	if eng.window.Len() != 1 {
		t.Fatalf("window len = %d, want 1", eng.window.Len())
	}
	if _, ok := h.Patterns("ETH-USDT-SWAP"); ok {
		t.Fatal("unknown instrument must have no view")
	}
}

func TestHubFullChannelNotifies(t *testing.T) {
	out := make(chan models.Signal)
	h, n, st := newTestHub(t, out)
	ctx := context.Background()
	h.GoLive(ctx, testInst)

	for i := 0; i < 7; i++ {
		h.OnTick(ctx, tick(flatBear(i)))
	}
	h.OnTick(ctx, tick(spikeBull(7)))

	if !n.contains("signal channel full") {
		t.Fatal("dropped signal not reported")
	}
	if st.DroppedSignals() != 1 || !st.LastSignal().IsZero() {
		t.Errorf("dropped = %d, last signal = %v", st.DroppedSignals(), st.LastSignal())
	}
}

func TestHubSnapshotRestore(t *testing.T) {
	h, _, _ := newTestHub(t, make(chan models.Signal, 4))
	ok := h.Restore(testInst, []PatternRecord{{Key: "1111111", Bullish: 4}})
	if !ok {
		t.Fatal("restore failed")
	}
	if h.Restore("NOPE", nil) {
		t.Fatal("restore of unknown instrument must fail")
	}
	snap := h.Snapshot()
	if len(snap[testInst]) != 1 || snap[testInst][0].Bullish != 4 {
		t.Fatalf("snapshot = %+v", snap)
	}
}
