package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"pattern_bot/internal/helper"
)

// PlaceMarketOrder открывает позицию по рынку. posSide: "long"/"short".
func (c *Client) PlaceMarketOrder(ctx context.Context, instID, posSide string, size float64) (string, error) {
	var side string
	switch strings.ToLower(posSide) {
	case "long":
		side = "buy"
	case "short":
		side = "sell"
	default:
		return "", fmt.Errorf("PlaceMarketOrder: unsupported posSide=%q", posSide)
	}
	if size <= 0 {
		return "", fmt.Errorf("PlaceMarketOrder: size <= 0")
	}

	body := map[string]string{
		"instId":  instID,
		"tdMode":  c.tdMode(),
		"side":    side,
		"posSide": posSide,
		"ordType": "market",
		"sz":      helper.FormatFloat(size),
	}
	return c.submit(ctx, "/api/v5/trade/order", body, "PlaceMarketOrder")
}

// CloseMarket закрывает позицию reduce-only ордером по рынку.
func (c *Client) CloseMarket(ctx context.Context, instID, posSide string, size float64) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("CloseMarket: size <= 0")
	}

	side := "sell" // закрываем long
	if posSide == "short" {
		side = "buy" // закрываем short
	}

	body := map[string]any{
		"instId":     instID,
		"tdMode":     c.tdMode(),
		"side":       side,
		"posSide":    posSide,
		"ordType":    "market",
		"sz":         helper.FormatFloat(size),
		"reduceOnly": true,
	}
	return c.submit(ctx, "/api/v5/trade/order", body, "CloseMarket")
}

func (c *Client) tdMode() string {
	if c.cfg.OKX.TdMode == "" {
		return "cross"
	}
	return c.cfg.OKX.TdMode
}

// submit отправляет ордер и возвращает ordId (или algoId для algo-ордеров).
func (c *Client) submit(ctx context.Context, requestPath string, body any, op string) (string, error) {
	data, err := c.do(ctx, http.MethodPost, requestPath, body, true)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var r orderAck
	if err := sonic.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("%s decode: %w; body=%s", op, err, string(data))
	}
	if len(r.Data) == 0 {
		return "", fmt.Errorf("%s: empty data RAW=%s", op, string(data))
	}
	d := r.Data[0]
	if d.SCode != "" && d.SCode != "0" {
		return "", fmt.Errorf("%s rejected: sCode=%s sMsg=%s", op, d.SCode, d.SMsg)
	}
	if d.AlgoID != "" {
		return d.AlgoID, nil
	}
	if d.OrdID == "" {
		return "", fmt.Errorf("%s: empty id RAW=%s", op, string(data))
	}
	return d.OrdID, nil
}
