package models

import "time"

type StrategyType string

const (
	StrategyPatternLearning StrategyType = "pattern_learning"
)

// Side как у раннера: "BUY"/"SELL" или пустая строка.
type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// PosSide возвращает сторону позиции OKX для стороны ордера.
func (s Side) PosSide() string {
	if s == SideSell {
		return "short"
	}
	return "long"
}

// Signal - реальная торговая инструкция, которую отдаёт движок паттернов.
type Signal struct {
	InstID   string
	TF       string
	Side     Side
	Price    float64 // close бара, на котором принято решение
	Volume   float64 // уже нормализованный под lotSz/minSz/maxSz
	SL       float64 // 0 => без стопа
	TP       float64 // 0 => без тейка
	Strategy StrategyType
	Pattern  string
	Reason   string

	BarStart  time.Time
	CreatedAt time.Time
}
