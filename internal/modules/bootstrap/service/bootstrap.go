package service

import (
	"context"

	"go.uber.org/zap"

	okxws "pattern_bot/internal/modules/okx_websocket/service"
)

// Restorer поднимает счёт паттернов из хранилища.
type Restorer interface {
	RestoreEach(ctx context.Context) map[string]int
}

type Streamer interface {
	Start(ctx context.Context, out chan<- okxws.OutTick)
}

// liveBuffer - сколько живых свечей стример может отдать, не дожидаясь разбора.
const liveBuffer = 256

// Bootstrap - порядок старта: живой стрим подписывается сразу, его свечи
// копятся, пока идут счёт из хранилища и прогрев историей, и уходят в hub после.
// Так бары, закрывшиеся во время прогрева, не теряются. Повторы и старые бары
// движок отбрасывает сам.
type Bootstrap struct {
	snap   Restorer
	wu     *Warmuper
	stream Streamer
	out    chan<- okxws.OutTick
	log    *zap.Logger
}

func NewBootstrap(snap Restorer, wu *Warmuper, stream Streamer, out chan<- okxws.OutTick, log *zap.Logger) *Bootstrap {
	return &Bootstrap{snap: snap, wu: wu, stream: stream, out: out, log: log.Named("bootstrap")}
}

// Run блокируется, пока работает стрим.
func (b *Bootstrap) Run(ctx context.Context) {
	in := make(chan okxws.OutTick, liveBuffer)
	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		b.stream.Start(ctx, in)
	}()

	warmed := make(chan struct{})
	held := make(chan []okxws.OutTick, 1)
	go func() { held <- hold(ctx, in, warmed) }()

	restored := b.snap.RestoreEach(ctx)
	if len(restored) > 0 {
		b.log.Info("scores restored", zap.Int("instruments", len(restored)))
	}

	if err := b.wu.Warmup(ctx, restored); err != nil {
		if ctx.Err() != nil {
			return
		}
		b.log.Warn("warmup finished with errors", zap.Error(err))
	}
	close(warmed)

	pending := <-held
	if len(pending) > 0 {
		b.log.Info("live candles held during warmup", zap.Int("candles", len(pending)))
	}
	for _, t := range pending {
		if !b.forward(ctx, t) {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-streamDone:
			return
		case t := <-in:
			if !b.forward(ctx, t) {
				return
			}
		}
	}
}

func (b *Bootstrap) forward(ctx context.Context, t okxws.OutTick) bool {
	select {
	case b.out <- t:
		return true
	case <-ctx.Done():
		return false
	}
}

// hold копит свечи стрима до закрытия until.
func hold(ctx context.Context, in <-chan okxws.OutTick, until <-chan struct{}) []okxws.OutTick {
	var buf []okxws.OutTick
	for {
		select {
		case <-ctx.Done():
			return buf
		case <-until:
			return buf
		case t := <-in:
			buf = append(buf, t)
		}
	}
}
