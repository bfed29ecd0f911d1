package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"go.uber.org/zap"

	"pattern_bot/internal/helper"
	"pattern_bot/internal/models"
)

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

// OrderClient - часть okx_client, которая нужна раннеру.
type OrderClient interface {
	PlaceMarketOrder(ctx context.Context, instID, posSide string, size float64) (string, error)
	CloseMarket(ctx context.Context, instID, posSide string, size float64) (string, error)
	PlaceSingleAlgo(ctx context.Context, instID, posSide string, size, triggerPx float64, isTP bool) (string, error)
	CancelAlgo(ctx context.Context, instID, algoID string) error
}

type Recorder interface {
	OrderError(inst string)
	RecordLatency(op string, seconds float64)
}

type nopRecorder struct{}

func (nopRecorder) OrderError(string)             {}
func (nopRecorder) RecordLatency(string, float64) {}

// Fill - итог исполнения сигнала.
type Fill struct {
	OrderID string
	SLAlgo  string
	TPAlgo  string
	DryRun  bool
}

// Runner исполняет сигналы движка на бирже: рыночный вход, затем SL и TP
// отдельными algo-ордерами. Если защиту поставить не удалось, позиция закрывается.
type Runner struct {
	okx    OrderClient
	n      ServiceNotifier
	rec    Recorder
	log    *zap.Logger
	dryRun bool
	// сигнал старше этого не исполняем (бар уже ушёл)
	maxAge time.Duration
	now    func() time.Time
}

func New(okx OrderClient, n ServiceNotifier, rec Recorder, dryRun bool, maxAge time.Duration, log *zap.Logger) *Runner {
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		okx:    okx,
		n:      n,
		rec:    rec,
		log:    log.Named("runner"),
		dryRun: dryRun,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Run читает сигналы до закрытия канала или отмены ctx.
func (r *Runner) Run(ctx context.Context, sigs <-chan models.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigs:
			if !ok {
				return
			}
			if _, err := r.OnSignal(ctx, sig); err != nil {
				r.log.Error("signal not executed",
					zap.String("inst", sig.InstID), zap.String("side", string(sig.Side)), zap.Error(err))
			}
		}
	}
}

func (r *Runner) OnSignal(ctx context.Context, sig models.Signal) (Fill, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "runner.on_signal")
	defer span.Finish()
	span.SetTag("inst", sig.InstID)
	span.SetTag("side", string(sig.Side))
	span.SetTag("pattern", sig.Pattern)

	started := r.now()
	defer func() { r.rec.RecordLatency("execute_signal", r.now().Sub(started).Seconds()) }()

	if sig.Side != models.SideBuy && sig.Side != models.SideSell {
		return Fill{}, fmt.Errorf("unknown side %q", sig.Side)
	}
	if sig.Volume <= 0 {
		return Fill{}, fmt.Errorf("volume <= 0")
	}
	if r.maxAge > 0 && !sig.CreatedAt.IsZero() && r.now().Sub(sig.CreatedAt) > r.maxAge {
		r.notify(ctx, "⏱ [%s] сигнал %s устарел, пропуск", sig.InstID, sig.Side)
		return Fill{}, fmt.Errorf("signal is %s old", r.now().Sub(sig.CreatedAt).Round(time.Second))
	}

	if r.dryRun {
		r.log.Info("dry run signal",
			zap.String("inst", sig.InstID), zap.String("side", string(sig.Side)),
			zap.Float64("price", sig.Price), zap.Float64("volume", sig.Volume),
			zap.Float64("sl", sig.SL), zap.Float64("tp", sig.TP), zap.String("reason", sig.Reason))
		r.notify(ctx, "🧪 [%s] DRY RUN %s @ %.6f | vol=%s SL=%.6f TP=%.6f | %s",
			sig.InstID, sig.Side, sig.Price, helper.FormatFloat(sig.Volume), sig.SL, sig.TP, sig.Reason)
		return Fill{DryRun: true}, nil
	}

	fill, err := r.execute(ctx, sig)
	if err != nil {
		ext.Error.Set(span, true)
		span.LogKV("error", err.Error())
		r.rec.OrderError(sig.InstID)
		return fill, err
	}

	r.notify(ctx, "✅ [%s] OPEN %s @ %.6f | vol=%s SL=%.6f TP=%.6f | %s (orderId=%s)",
		sig.InstID, sig.Side, sig.Price, helper.FormatFloat(sig.Volume), sig.SL, sig.TP, sig.Reason, fill.OrderID)
	return fill, nil
}

func (r *Runner) execute(ctx context.Context, sig models.Signal) (Fill, error) {
	posSide := sig.Side.PosSide()

	orderID, err := r.okx.PlaceMarketOrder(ctx, sig.InstID, posSide, sig.Volume)
	if err != nil {
		r.notify(ctx, "❗️ [%s] Ошибка открытия ордера: %v", sig.InstID, err)
		return Fill{}, fmt.Errorf("place market: %w", err)
	}
	fill := Fill{OrderID: orderID}
	r.log.Info("market order placed",
		zap.String("inst", sig.InstID), zap.String("pos_side", posSide),
		zap.Float64("volume", sig.Volume), zap.String("order_id", orderID))

	if sig.SL > 0 {
		fill.SLAlgo, err = r.okx.PlaceSingleAlgo(ctx, sig.InstID, posSide, sig.Volume, sig.SL, false)
		if err != nil {
			return fill, r.rollback(ctx, sig, fill, fmt.Errorf("place sl: %w", err))
		}
	}
	if sig.TP > 0 {
		fill.TPAlgo, err = r.okx.PlaceSingleAlgo(ctx, sig.InstID, posSide, sig.Volume, sig.TP, true)
		if err != nil {
			return fill, r.rollback(ctx, sig, fill, fmt.Errorf("place tp: %w", err))
		}
	}
	return fill, nil
}

// rollback снимает уже поставленные algo и закрывает позицию по рынку.
func (r *Runner) rollback(ctx context.Context, sig models.Signal, fill Fill, cause error) error {
	posSide := sig.Side.PosSide()
	log := r.log.With(zap.String("inst", sig.InstID), zap.String("order_id", fill.OrderID))
	log.Warn("protection failed, closing position", zap.Error(cause))

	for _, algoID := range []string{fill.SLAlgo, fill.TPAlgo} {
		if algoID == "" {
			continue
		}
		if err := r.okx.CancelAlgo(ctx, sig.InstID, algoID); err != nil {
			log.Error("cancel algo failed", zap.String("algo_id", algoID), zap.Error(err))
		}
	}

	if _, err := r.okx.CloseMarket(ctx, sig.InstID, posSide, sig.Volume); err != nil {
		log.Error("close position failed", zap.Error(err))
		r.notify(ctx, "🚨 [%s] позиция без SL/TP и не закрыта: %v / %v", sig.InstID, cause, err)
		return fmt.Errorf("%w; close: %v", cause, err)
	}
	r.notify(ctx, "⚠️ [%s] SL/TP не выставлены (%v), позиция закрыта", sig.InstID, cause)
	return cause
}

func (r *Runner) notify(ctx context.Context, format string, args ...any) {
	if r.n == nil {
		return
	}
	r.n.SendService(ctx, format, args...)
}
