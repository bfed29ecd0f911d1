package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"pattern_bot/internal/models"
	okxws "pattern_bot/internal/modules/okx_websocket/service"
)

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

// HistorySource - REST-история закрытых свечей в хронологическом порядке.
type HistorySource interface {
	GetHistory(ctx context.Context, instID, bar string, n int) ([]models.CandleTick, error)
}

// TickSink - куда проигрываем историю (strategy.Hub).
type TickSink interface {
	Instruments() []string
	OnTick(ctx context.Context, t okxws.OutTick)
	GoLive(ctx context.Context, instIDs ...string)
}

type Warmuper struct {
	src HistorySource
	hub TickSink
	n   ServiceNotifier
	log *zap.Logger

	timeframe string
	bars      int
	// сколько свечей нужно, чтобы только заполнить окно паттерна
	windowBars int

	// ограничитель параллелизма, чтобы не словить rate limit
	sem chan struct{}
}

func NewWarmuper(src HistorySource, hub TickSink, n ServiceNotifier, timeframe string, bars, windowBars int, log *zap.Logger) *Warmuper {
	return &Warmuper{
		src:        src,
		hub:        hub,
		n:          n,
		log:        log.Named("warmup"),
		timeframe:  timeframe,
		bars:       bars,
		windowBars: windowBars,
		sem:        make(chan struct{}, 8), // 8 параллельных инструментов
	}
}

// Warmup прогоняет историю через движки и снимает блокировку сигналов.
// Инструментам с поднятым из хранилища счётом нужна только заливка окна,
// иначе старые бары посчитаются второй раз.
// Инструменты с ошибкой прогрева тоже переводятся в live: они доучатся на живых свечах.
func (w *Warmuper) Warmup(ctx context.Context, restored map[string]int) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "bootstrap.warmup")
	defer span.Finish()

	ids := w.hub.Instruments()
	if len(ids) == 0 {
		return nil
	}
	started := time.Now()

	w.notify(ctx, "🔥 REST warmup start: instruments=%d TF=%s bars=%d restored=%d",
		len(ids), w.timeframe, w.bars, len(restored))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		failed   []string
		candles  int
	)

	for _, id := range ids {
		need := w.bars
		if restored[id] > 0 {
			need = w.windowBars
		}
		if need <= 0 {
			continue
		}

		wg.Add(1)
		go func(id string, need int) {
			defer wg.Done()
			select {
			case w.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-w.sem }()

			n, err := w.replay(ctx, id, need)

			mu.Lock()
			defer mu.Unlock()
			candles += n
			if err != nil {
				failed = append(failed, id)
				if firstErr == nil {
					firstErr = fmt.Errorf("warmup %s: %w", id, err)
				}
			}
		}(id, need)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	w.hub.GoLive(ctx, ids...)
	w.log.Info("warmup finished",
		zap.Int("instruments", len(ids)), zap.Int("candles", candles),
		zap.Strings("failed", failed), zap.Duration("took", time.Since(started)))

	if firstErr != nil {
		sort.Strings(failed)
		w.notify(ctx, "⚠️ REST warmup finished with errors (%v): %v", failed, firstErr)
		return firstErr
	}
	return nil
}

func (w *Warmuper) replay(ctx context.Context, instID string, need int) (int, error) {
	history, err := w.src.GetHistory(ctx, instID, w.timeframe, need)
	if err != nil {
		return 0, err
	}
	for _, c := range history {
		w.hub.OnTick(ctx, okxws.OutTick{
			InstID:    instID,
			Timeframe: w.timeframe,
			Candle:    c,
		})
	}
	w.log.Debug("history replayed", zap.String("inst", instID), zap.Int("candles", len(history)))
	return len(history), nil
}

func (w *Warmuper) notify(ctx context.Context, format string, args ...any) {
	if w.n != nil {
		w.n.SendService(ctx, format, args...)
	}
}
