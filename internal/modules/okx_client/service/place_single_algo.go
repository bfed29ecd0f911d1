package service

import (
	"context"
	"fmt"
	"strings"

	"pattern_bot/internal/helper"
)

// PlaceSingleAlgo ставит на позицию один условный ордер: TP (isTP) или SL.
// Возвращает algoId.
func (c *Client) PlaceSingleAlgo(
	ctx context.Context,
	instID string,
	posSide string,
	size float64,
	triggerPx float64,
	isTP bool,
) (string, error) {
	// сторона закрывающего ордера
	var side string
	switch strings.ToLower(posSide) {
	case "long":
		side = "sell"
	case "short":
		side = "buy"
	default:
		return "", fmt.Errorf("PlaceSingleAlgo: unsupported posSide=%q", posSide)
	}

	if size <= 0 {
		return "", fmt.Errorf("PlaceSingleAlgo: size <= 0")
	}
	if triggerPx <= 0 {
		return "", fmt.Errorf("PlaceSingleAlgo: triggerPx <= 0")
	}

	body := map[string]string{
		"instId":  instID,
		"tdMode":  c.tdMode(),
		"side":    side,
		"posSide": posSide,
		"ordType": "conditional",
		"sz":      helper.FormatFloat(size),
	}

	if isTP {
		body["tpTriggerPx"] = helper.FormatFloat(triggerPx)
		body["tpOrdPx"] = "-1"
		body["tpTriggerPxType"] = "last"
	} else {
		body["slTriggerPx"] = helper.FormatFloat(triggerPx)
		body["slOrdPx"] = "-1"
		body["slTriggerPxType"] = "last"
	}

	return c.submit(ctx, "/api/v5/trade/order-algo", body, "PlaceSingleAlgo")
}
