package models

import "time"

// CandleTick - закрытая свеча одного инструмента.
type CandleTick struct {
	InstID       string
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	QuoteVolume  float64
	Start        time.Time // open-time, используется как идентификатор бара
	End          time.Time
	TimeframeRaw string
}

// Bearish: open >= close (доджи считаем медвежьей).
func (c CandleTick) Bearish() bool { return c.Open >= c.Close }
