package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
)

func (c *Client) CancelAlgo(ctx context.Context, instID, algoID string) error {
	body := []map[string]string{{"instId": instID, "algoId": algoID}}

	data, err := c.do(ctx, http.MethodPost, "/api/v5/trade/cancel-algos", body, true)
	if err != nil {
		return fmt.Errorf("CancelAlgo: %w", err)
	}

	var r orderAck
	_ = sonic.Unmarshal(data, &r)
	if len(r.Data) == 0 || r.Data[0].SCode != "0" {
		return fmt.Errorf("CancelAlgo reject RAW=%s", string(data))
	}
	return nil
}
