package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pattern_bot/internal/modules/config"
)

// Client - REST OKX: мета инструментов, баланс, ордера.
type Client struct {
	cfg *config.Config
	log *zap.Logger

	http    *http.Client
	limiter *rate.Limiter
	baseURL string

	apiKey    string
	apiSecret string
	passph    string
}

func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	burst := int(cfg.OKX.RateLimit)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		cfg:       cfg,
		log:       log.Named("okx_client"),
		http:      &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(cfg.OKX.RateLimit), burst),
		baseURL:   strings.TrimRight(cfg.OKX.BaseURL, "/"),
		apiKey:    cfg.OKX.APIKey,
		apiSecret: cfg.OKX.APISecret,
		passph:    cfg.OKX.Passphrase,
	}
}

func (c *Client) sign(ts, method, requestPath, body string) string {
	msg := ts + strings.ToUpper(method) + requestPath + body
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(msg))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// envelope - общий конверт ответов OKX.
type envelope struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// do выполняет запрос с учётом лимита и возвращает сырое тело.
// private => подписываем ключами аккаунта.
func (c *Client) do(ctx context.Context, method, requestPath string, body any, private bool) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = sonic.Marshal(body); err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if private {
		ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
		req.Header.Set("OK-ACCESS-KEY", c.apiKey)
		req.Header.Set("OK-ACCESS-SIGN", c.sign(ts, method, requestPath, string(payload)))
		req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
		req.Header.Set("OK-ACCESS-PASSPHRASE", c.passph)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	var env envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode: %w; body=%s", err, string(data))
	}
	if env.Code != "0" {
		return data, fmt.Errorf("okx error: code=%s msg=%s RAW=%s", env.Code, env.Msg, string(data))
	}
	return data, nil
}
