package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"pattern_bot/internal/models"
	okxws "pattern_bot/internal/modules/okx_websocket/service"
)

var warmupBase = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeHistory struct {
	mu   sync.Mutex
	asks map[string]int
	errs map[string]error
	// если задан, ответ ждёт его закрытия
	gate chan struct{}
}

func (f *fakeHistory) GetHistory(ctx context.Context, instID, _ string, n int) ([]models.CandleTick, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	if f.asks == nil {
		f.asks = make(map[string]int)
	}
	f.asks[instID] = n
	f.mu.Unlock()

	if err := f.errs[instID]; err != nil {
		return nil, err
	}
	out := make([]models.CandleTick, n)
	for i := range out {
		out[i] = models.CandleTick{InstID: instID, Start: warmupBase.Add(time.Duration(i) * time.Hour)}
	}
	return out, nil
}

type fakeHub struct {
	ids []string

	mu    sync.Mutex
	ticks map[string][]time.Time
	live  []string
}

func (h *fakeHub) Instruments() []string { return h.ids }

func (h *fakeHub) OnTick(_ context.Context, t okxws.OutTick) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ticks == nil {
		h.ticks = make(map[string][]time.Time)
	}
	h.ticks[t.InstID] = append(h.ticks[t.InstID], t.Candle.Start)
}

func (h *fakeHub) GoLive(_ context.Context, ids ...string) {
	h.mu.Lock()
	h.live = append(h.live, ids...)
	h.mu.Unlock()
}

type countingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *countingNotifier) SendService(_ context.Context, format string, args ...any) {
	n.mu.Lock()
	n.msgs = append(n.msgs, fmt.Sprintf(format, args...))
	n.mu.Unlock()
}

func TestWarmupReplaysHistoryInOrder(t *testing.T) {
	src := &fakeHistory{}
	hub := &fakeHub{ids: []string{"BTC-USDT-SWAP", "ETH-USDT-SWAP"}}
	n := &countingNotifier{}
	w := NewWarmuper(src, hub, n, "1H", 50, 7, zap.NewNop())

	if err := w.Warmup(context.Background(), map[string]int{"ETH-USDT-SWAP": 12}); err != nil {
		t.Fatalf("Warmup: %v", err)
	}

	// восстановленному инструменту хватает заливки окна
	if src.asks["BTC-USDT-SWAP"] != 50 || src.asks["ETH-USDT-SWAP"] != 7 {
		t.Fatalf("asks = %v", src.asks)
	}
	for id, want := range map[string]int{"BTC-USDT-SWAP": 50, "ETH-USDT-SWAP": 7} {
		got := hub.ticks[id]
		if len(got) != want {
			t.Fatalf("%s: replayed %d, want %d", id, len(got), want)
		}
		for i := 1; i < len(got); i++ {
			if !got[i].After(got[i-1]) {
				t.Fatalf("%s: replay out of order at %d", id, i)
			}
		}
	}
	if len(hub.live) != 2 {
		t.Errorf("live = %v", hub.live)
	}
	if len(n.msgs) != 1 {
		t.Errorf("notifications = %v", n.msgs)
	}
}

func TestWarmupErrorStillGoesLive(t *testing.T) {
	src := &fakeHistory{errs: map[string]error{"ETH-USDT-SWAP": errors.New("http 500")}}
	hub := &fakeHub{ids: []string{"BTC-USDT-SWAP", "ETH-USDT-SWAP"}}
	n := &countingNotifier{}
	w := NewWarmuper(src, hub, n, "1H", 10, 7, zap.NewNop())

	err := w.Warmup(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(hub.ticks["BTC-USDT-SWAP"]) != 10 {
		t.Errorf("healthy instrument not replayed")
	}
	if len(hub.live) != 2 {
		t.Errorf("live = %v", hub.live)
	}
	if len(n.msgs) != 2 {
		t.Errorf("notifications = %v", n.msgs)
	}
}

func TestWarmupCancelled(t *testing.T) {
	hub := &fakeHub{ids: []string{"BTC-USDT-SWAP"}}
	w := NewWarmuper(&fakeHistory{}, hub, nil, "1H", 10, 7, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.Warmup(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(hub.live) != 0 {
		t.Errorf("cancelled warmup went live: %v", hub.live)
	}
}

type fakeRestorer map[string]int

func (f fakeRestorer) RestoreEach(context.Context) map[string]int { return f }

type fakeStreamer struct {
	started chan struct{}
	ticks   []okxws.OutTick
}

func (s *fakeStreamer) Start(ctx context.Context, out chan<- okxws.OutTick) {
	close(s.started)
	for _, t := range s.ticks {
		select {
		case out <- t:
		case <-ctx.Done():
			return
		}
	}
	<-ctx.Done()
}

func (h *fakeHub) state(id string) (live, replayed int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live), len(h.ticks[id])
}

func TestBootstrapHoldsLiveCandlesUntilWarmupEnds(t *testing.T) {
	const inst = "BTC-USDT-SWAP"
	src := &fakeHistory{gate: make(chan struct{})}
	hub := &fakeHub{ids: []string{inst}}
	w := NewWarmuper(src, hub, nil, "1H", 30, 7, zap.NewNop())

	// бар закрылся, пока история ещё грузится
	during := okxws.OutTick{InstID: inst, Timeframe: "1H",
		Candle: models.CandleTick{InstID: inst, Start: warmupBase.Add(40 * time.Hour)}}
	st := &fakeStreamer{started: make(chan struct{}), ticks: []okxws.OutTick{during}}
	out := make(chan okxws.OutTick, 4)
	b := NewBootstrap(fakeRestorer{inst: 3}, w, st, out, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	// стрим подписан до окончания прогрева
	select {
	case <-st.started:
	case <-time.After(2 * time.Second):
		t.Fatal("stream not started before warmup")
	}
	select {
	case got := <-out:
		t.Fatalf("live candle %v forwarded before warmup finished", got.Candle.Start)
	case <-time.After(50 * time.Millisecond):
	}
	if live, _ := hub.state(inst); live != 0 {
		t.Fatalf("went live before history arrived: %d", live)
	}

	close(src.gate)

	select {
	case got := <-out:
		if !got.Candle.Start.Equal(during.Candle.Start) {
			t.Fatalf("forwarded %v, want %v", got.Candle.Start, during.Candle.Start)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("held candle lost")
	}
	// к моменту выдачи живой свечи прогрев закончен
	if live, replayed := hub.state(inst); live != 1 || replayed != 7 {
		t.Errorf("live=%d replayed=%d, want 1 and 7", live, replayed)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bootstrap did not stop on cancel")
	}
}

func TestBootstrapForwardsStreamAfterWarmup(t *testing.T) {
	const inst = "ETH-USDT-SWAP"
	hub := &fakeHub{ids: []string{inst}}
	w := NewWarmuper(&fakeHistory{}, hub, nil, "1H", 10, 7, zap.NewNop())

	ticks := make([]okxws.OutTick, 3)
	for i := range ticks {
		ticks[i] = okxws.OutTick{InstID: inst, Timeframe: "1H",
			Candle: models.CandleTick{InstID: inst, Start: warmupBase.Add(time.Duration(20+i) * time.Hour)}}
	}
	st := &fakeStreamer{started: make(chan struct{}), ticks: ticks}
	out := make(chan okxws.OutTick)
	b := NewBootstrap(fakeRestorer{}, w, st, out, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	for i, want := range ticks {
		select {
		case got := <-out:
			if !got.Candle.Start.Equal(want.Candle.Start) {
				t.Fatalf("tick %d: %v, want %v", i, got.Candle.Start, want.Candle.Start)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d not forwarded", i)
		}
	}
	if live, replayed := hub.state(inst); live != 1 || replayed != 10 {
		t.Errorf("live=%d replayed=%d, want 1 and 10", live, replayed)
	}
}
