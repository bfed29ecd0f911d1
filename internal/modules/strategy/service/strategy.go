package service

import "pattern_bot/internal/models"

// Engine - движок одного инструмента, который дёргает Hub.
type Engine interface {
	// ok==true когда есть сигнал
	OnCandle(t models.CandleTick) (sig models.Signal, ok bool)

	// Ready==true когда окно паттерна заполнено
	Ready() bool
	Dump() string
	Name() string
}

var _ Engine = (*PatternEngine)(nil)
