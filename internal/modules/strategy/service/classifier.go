package service

import (
	"math"

	"pattern_bot/internal/models"
)

// Symbol - одна буква алфавита паттернов, '0'..'9'.
// '0'..'4' - медвежьи свечи, '5'..'9' - бычьи.
type Symbol byte

const (
	bearishBase Symbol = '0'
	bullishBase Symbol = '5'
)

// границы корзин по размаху свечи в процентах, правая граница включительно
var rangeBuckets = [...]float64{0.04, 0.15, 0.25, 0.40}

// ratioPrecision - до скольки знаков округляем ratio перед сравнением с границами.
// Цены приходят десятичными строками, хвост float64 после деления не должен
// перекидывать свечу в соседнюю корзину.
const ratioPrecision = 1e9

// Classify переводит закрытую свечу в символ.
// ratio = |100 - low*100/high|; (0,0.04] -> 0, (0.04,0.15] -> 1, (0.15,0.25] -> 2,
// (0.25,0.40] -> 3, всё остальное (включая ratio == 0) -> 4.
func Classify(c models.CandleTick) Symbol {
	base := bullishBase
	if c.Bearish() {
		base = bearishBase
	}
	if c.High <= 0 {
		return base
	}
	return base + Symbol(bucketIndex(rangeRatio(c.High, c.Low)))
}

func rangeRatio(high, low float64) float64 {
	r := math.Abs(100 - (low * 100 / high))
	return math.Round(r*ratioPrecision) / ratioPrecision
}

func bucketIndex(ratio float64) int {
	lower := 0.0
	for i, upper := range rangeBuckets {
		if ratio > lower && ratio <= upper {
			return i
		}
		lower = upper
	}
	return len(rangeBuckets)
}

// degenerate - свеча без осмысленного high, классифицируется фолбэком.
func degenerate(c models.CandleTick) bool { return c.High <= 0 }
