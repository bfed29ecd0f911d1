package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"

	"pattern_bot/internal/models"
)

func (c *Client) GetInstrumentMeta(ctx context.Context, instID string) (models.Instrument, error) {
	data, err := c.do(ctx, http.MethodGet,
		"/api/v5/public/instruments?instType=SWAP&instId="+url.QueryEscape(instID), nil, false)
	if err != nil {
		return models.Instrument{}, fmt.Errorf("instruments: %w", err)
	}

	var payload instrumentsResp
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return models.Instrument{}, fmt.Errorf("decode: %w", err)
	}
	if len(payload.Data) == 0 {
		return models.Instrument{}, fmt.Errorf("instrument %s not found", instID)
	}

	inst := payload.Data[0]
	if inst.State != "" && inst.State != "live" {
		return models.Instrument{}, fmt.Errorf("instrument %s not live: state=%s", instID, inst.State)
	}

	parsePos := func(name, s string) (float64, error) {
		if s == "" {
			return 0, fmt.Errorf("%s empty", name)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("%s parse: %v (%q)", name, err, s)
		}
		return v, nil
	}

	lotSz, err := parsePos("lotSz", inst.LotSz)
	if err != nil {
		return models.Instrument{}, err
	}
	minSz, err := parsePos("minSz", inst.MinSz)
	if err != nil {
		return models.Instrument{}, err
	}
	tickSz, err := parsePos("tickSz", inst.TickSz)
	if err != nil {
		return models.Instrument{}, err
	}
	ctVal, err := parsePos("ctVal", inst.CtVal)
	if err != nil {
		return models.Instrument{}, err
	}
	if inst.CtMult != "" {
		if v, e := strconv.ParseFloat(inst.CtMult, 64); e == nil && v > 0 {
			ctVal *= v
		}
	}

	var maxMktSz float64
	if inst.MaxMktSz != "" {
		maxMktSz, _ = strconv.ParseFloat(inst.MaxMktSz, 64)
	}

	lastPx, err := c.getLastPrice(ctx, instID)
	if err != nil {
		return models.Instrument{}, fmt.Errorf("ticker: %w", err)
	}

	return models.Instrument{
		InstID:   inst.InstID,
		LastPx:   lastPx,
		LotSz:    lotSz,
		MinSz:    minSz,
		TickSz:   tickSz,
		CtVal:    ctVal,
		MaxMktSz: maxMktSz,
	}, nil
}

func (c *Client) getLastPrice(ctx context.Context, instID string) (float64, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/v5/market/ticker?instId="+url.QueryEscape(instID), nil, false)
	if err != nil {
		return 0, err
	}
	var r tickerResp
	if err := sonic.Unmarshal(data, &r); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if len(r.Data) == 0 {
		return 0, fmt.Errorf("empty ticker for %s", instID)
	}
	px, err := strconv.ParseFloat(r.Data[0].Last, 64)
	if err != nil || px <= 0 {
		return 0, fmt.Errorf("bad last price %q", r.Data[0].Last)
	}
	return px, nil
}
