package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
)

// Equity - USDT equity торгового аккаунта.
// Если по USDT деталей нет, берём totalEq (он в USD).
func (c *Client) Equity(ctx context.Context) (float64, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/v5/account/balance?ccy=USDT", nil, true)
	if err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}
	var r balanceResp
	if err := sonic.Unmarshal(data, &r); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if len(r.Data) == 0 {
		return 0, fmt.Errorf("empty balance")
	}

	for _, d := range r.Data[0].Details {
		if d.Ccy == "USDT" && d.Eq != "" {
			return strconv.ParseFloat(d.Eq, 64)
		}
	}
	if r.Data[0].TotalEq == "" {
		return 0, fmt.Errorf("no USDT equity in balance")
	}
	return strconv.ParseFloat(r.Data[0].TotalEq, 64)
}
