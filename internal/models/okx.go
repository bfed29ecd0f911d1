package models

// Instrument - нормализованные ограничения инструмента.
type Instrument struct {
	InstID string

	TickSz   float64 // минимальный шаг цены, он же "пип"
	LotSz    float64 // шаг объёма
	MinSz    float64
	MaxMktSz float64 // 0 => без ограничения
	CtVal    float64

	LastPx float64
}
