package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pattern_bot/internal/models"
)

const (
	pingEvery   = 20 * time.Second
	readTimeout = 60 * time.Second
	maxBackoff  = 30 * time.Second
)

type wsArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type wsFrame struct {
	Event string     `json:"event"`
	Msg   string     `json:"msg"`
	Arg   wsArg      `json:"arg"`
	Data  [][]string `json:"data"`
}

// StreamCandlesBatch - один WebSocket на таймфрейм с пачкой инструментов в args.
// Отдаёт только закрытые свечи (confirm=1). Переподключается до отмены ctx.
func (c *Client) StreamCandlesBatch(ctx context.Context, instIDs []string, timeframe string) <-chan models.CandleTick {
	ch := make(chan models.CandleTick)

	go func() {
		defer close(ch)

		if len(instIDs) == 0 {
			return
		}
		bar, err := okxBar(timeframe)
		if err != nil {
			c.log.Error("bad timeframe", zap.String("tf", timeframe), zap.Error(err))
			return
		}
		channel := "candle" + bar

		args := make([]wsArg, 0, len(instIDs))
		for _, id := range instIDs {
			args = append(args, wsArg{Channel: channel, InstID: id})
		}
		sub, err := sonic.Marshal(map[string]any{"op": "subscribe", "args": args})
		if err != nil {
			c.log.Error("marshal subscribe", zap.Error(err))
			return
		}

		backoff := time.Second
		for {
			connected := c.session(ctx, ch, channel, bar, sub, len(instIDs))
			c.setConnected(false)
			if connected {
				backoff = time.Second
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}()

	return ch
}

// session держит одно соединение. true - если подписка успела пройти.
func (c *Client) session(ctx context.Context, ch chan<- models.CandleTick, channel, bar string, sub []byte, n int) bool {
	log := c.log.With(zap.String("channel", channel))
	log.Info("ws connect", zap.Int("symbols", n))

	conn, _, err := c.wsDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		log.Warn("ws dial error", zap.Error(err))
		return false
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		log.Warn("ws subscribe error", zap.Error(err))
		return false
	}
	c.setConnected(true)

	// keepalive ping, иначе OKX рвёт соединение через 30с тишины
	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(pingEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-done:
				return
			case <-t.C:
				_ = conn.WriteMessage(websocket.TextMessage, []byte("ping"))
			}
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("ws read error", zap.Error(err))
			}
			return true
		}
		if string(msg) == "pong" {
			continue
		}

		var frame wsFrame
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			log.Debug("ws frame skipped", zap.Error(err))
			continue
		}
		if frame.Event == "error" {
			log.Error("ws error event", zap.String("msg", frame.Msg))
			continue
		}
		if frame.Arg.Channel != channel || len(frame.Data) == 0 {
			continue
		}

		// у OKX может приходить несколько свечей в одном кадре
		for _, row := range frame.Data {
			if len(row) < 9 || !confirmed(row) {
				continue // ждём закрытую свечу
			}
			tick, ok := parseCandleRow(frame.Arg.InstID, bar, row)
			if !ok {
				continue
			}

			select {
			case ch <- tick:
			case <-ctx.Done():
				return true
			}
		}
	}
}

func (c *Client) setConnected(v bool) {
	if c.state != nil {
		c.state.SetWSConnected(v)
	}
}
