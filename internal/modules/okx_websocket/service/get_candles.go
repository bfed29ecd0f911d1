package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"pattern_bot/internal/models"
)

// OKX отдаёт не больше 300 свечей за запрос (history-candles - 100).
const maxCandlesPage = 100

type candlesResp struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}

// GetCandles - одна страница закрытых свечей в хронологическом порядке.
// after > 0: только свечи старше этой метки (unix ms).
func (c *Client) GetCandles(ctx context.Context, instID, bar string, limit int, after int64) ([]models.CandleTick, error) {
	if limit <= 0 || limit > maxCandlesPage {
		limit = maxCandlesPage
	}
	bar, err := okxBar(bar)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	path := "/api/v5/market/candles"
	q := url.Values{}
	q.Set("instId", instID)
	q.Set("bar", bar)
	q.Set("limit", strconv.Itoa(limit))
	if after > 0 {
		path = "/api/v5/market/history-candles"
		q.Set("after", strconv.FormatInt(after, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.restURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}

	var r candlesResp
	if err := sonic.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	if r.Code != "0" {
		return nil, fmt.Errorf("okx candles error: code=%s msg=%s", r.Code, r.Msg)
	}

	// OKX отдаёт newest-first, разворачиваем, чтобы прогрев шёл по времени
	out := make([]models.CandleTick, 0, len(r.Data))
	for i := len(r.Data) - 1; i >= 0; i-- {
		row := r.Data[i]
		if !confirmed(row) {
			continue
		}
		ct, ok := parseCandleRow(instID, bar, row)
		if !ok {
			continue
		}
		out = append(out, ct)
	}
	return out, nil
}

// GetHistory собирает последние n закрытых свечей, листая страницы назад.
func (c *Client) GetHistory(ctx context.Context, instID, bar string, n int) ([]models.CandleTick, error) {
	var out []models.CandleTick
	var after int64
	for len(out) < n {
		page, err := c.GetCandles(ctx, instID, bar, n-len(out), after)
		if err != nil {
			return nil, fmt.Errorf("candles %s %s: %w", instID, bar, err)
		}
		if len(page) == 0 {
			break
		}
		out = append(page, out...)

		oldest := page[0].Start.UnixMilli()
		if after != 0 && oldest >= after {
			break
		}
		after = oldest
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	c.log.Debug("history loaded", zap.String("inst", instID), zap.String("bar", bar), zap.Int("candles", len(out)))
	return out, nil
}
