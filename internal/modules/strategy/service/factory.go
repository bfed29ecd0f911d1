package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pattern_bot/internal/models"
	"pattern_bot/internal/modules/config"
)

// InstrumentSource - откуда берём tickSz/lotSz/minSz инструмента.
type InstrumentSource interface {
	GetInstrumentMeta(ctx context.Context, instID string) (models.Instrument, error)
}

func EngineConfigFrom(cfg *config.Config) (EngineConfig, error) {
	exclude, err := ParseWeekdays(cfg.Strategy.ExcludedDays)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("excluded_days: %w", err)
	}
	return EngineConfig{
		Timeframe:         cfg.Strategy.Timeframe,
		PatternLength:     cfg.Strategy.PatternLength,
		LeaderboardSize:   cfg.Strategy.LeaderboardSize,
		VirtualStopPips:   cfg.Strategy.VirtualStopPips,
		VirtualTargetPips: cfg.Strategy.VirtualTargetPips,
		RealStopPips:      cfg.Strategy.RealStopPips,
		RealTargetPips:    cfg.Strategy.RealTargetPips,
		Scoring: Scoring{
			WinReward:   cfg.Strategy.WinReward,
			LossPenalty: cfg.Strategy.LossPenalty,
		},
		Sizing: SizingConfig{
			FixedLot: cfg.Sizing.FixedLot,
			UseRisk:  cfg.Sizing.UseRisk,
			RiskPct:  cfg.Sizing.RiskPct,
		},
		ExcludeDay: exclude,
	}, nil
}

// NewEngines поднимает по независимому движку на каждый инструмент.
func NewEngines(
	ctx context.Context,
	cfg *config.Config,
	src InstrumentSource,
	equity EquitySource,
	log *zap.Logger,
	rec Recorder,
) (map[string]*PatternEngine, error) {
	ecfg, err := EngineConfigFrom(cfg)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*PatternEngine, len(cfg.Strategy.Instruments))
	for _, instID := range cfg.Strategy.Instruments {
		if _, dup := out[instID]; dup {
			continue
		}
		meta, err := src.GetInstrumentMeta(ctx, instID)
		if err != nil {
			return nil, fmt.Errorf("instrument meta %s: %w", instID, err)
		}
		out[instID] = NewPatternEngine(ecfg, meta, equity, log, rec)
	}
	return out, nil
}
