package service

import (
	"math"

	"pattern_bot/internal/helper"
	"pattern_bot/internal/models"
)

// equityPerLot: risk-объём = equity / equityPerLot * riskPct.
const equityPerLot = 100000.0

type SizingConfig struct {
	FixedLot float64
	UseRisk  bool
	RiskPct  float64
}

// VolumeLimits - ограничения биржи на объём.
type VolumeLimits struct {
	Min  float64
	Max  float64 // 0 => без ограничения
	Step float64 // 0 => без округления
}

func LimitsFromInstrument(inst models.Instrument) VolumeLimits {
	return VolumeLimits{Min: inst.MinSz, Max: inst.MaxMktSz, Step: inst.LotSz}
}

type SizingSource string

const (
	SizingFixed         SizingSource = "fixed"
	SizingRisk          SizingSource = "risk"
	SizingFixedFallback SizingSource = "fixed_fallback" // equity недоступен или <= 0
)

type Sizing struct {
	Volume  float64
	Raw     float64
	Source  SizingSource
	Clamped bool // подняли до Min или срезали до Max
}

// CalcVolume считает реальный объём. ok==false => сделку пропускаем:
// объём после округления <= 0, а минимум биржи не задан.
func CalcVolume(cfg SizingConfig, lim VolumeLimits, equity float64, hasEquity bool) (Sizing, bool) {
	s := Sizing{Raw: cfg.FixedLot, Source: SizingFixed}
	if cfg.UseRisk {
		if hasEquity && equity > 0 {
			s.Raw = equity / equityPerLot * cfg.RiskPct
			s.Source = SizingRisk
		} else {
			s.Source = SizingFixedFallback
		}
	}

	v := s.Raw
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		v = 0
	}

	// вниз к шагу лота
	if lim.Step > 0 {
		v = helper.RoundDownToTick(v, lim.Step)
	}
	if lim.Max > 0 && v > lim.Max {
		v = lim.Max
		s.Clamped = true
	}
	if lim.Min > 0 && v < lim.Min {
		v = lim.Min
		s.Clamped = true
		// minSz > maxMktSz: такой ордер биржа не примет
		if lim.Max > 0 && v > lim.Max {
			return s, false
		}
	}
	if v <= 0 {
		return s, false
	}

	s.Volume = v
	return s, true
}
