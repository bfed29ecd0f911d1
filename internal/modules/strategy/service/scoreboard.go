package service

import (
	"errors"
	"fmt"
)

// ErrUnknownPattern - исход пришёл для ключа без статистики. Окно гарантирует
// создание статистики до открытия виртуальных ордеров, так что это баг.
var ErrUnknownPattern = errors.New("pattern stats not found")

const (
	DefaultWinReward   = 1
	DefaultLossPenalty = 3
)

// Scoring - цена победы и поражения виртуального ордера.
// По умолчанию поражение весит втрое больше победы.
type Scoring struct {
	WinReward   int
	LossPenalty int
}

func DefaultScoring() Scoring {
	return Scoring{WinReward: DefaultWinReward, LossPenalty: DefaultLossPenalty}
}

type PatternStats struct {
	Bullish int
	Bearish int
}

// Scoreboard - счёт по каждому встреченному паттерну. Записи только обновляются, не удаляются;
// забыть счёт можно только сбросом движка целиком.
type Scoreboard struct {
	scoring Scoring
	stats   map[PatternKey]*PatternStats
}

func NewScoreboard(scoring Scoring) *Scoreboard {
	return &Scoreboard{
		scoring: scoring,
		stats:   make(map[PatternKey]*PatternStats),
	}
}

// Ensure заводит нулевую статистику, если ключ ещё не встречался. true => создали.
func (s *Scoreboard) Ensure(key PatternKey) bool {
	if _, ok := s.stats[key]; ok {
		return false
	}
	s.stats[key] = &PatternStats{}
	return true
}

// Apply начисляет исход виртуального ордера: long -> bullish, short -> bearish.
func (s *Scoreboard) Apply(st Settlement) (PatternStats, error) {
	ps, ok := s.stats[st.Order.Key]
	if !ok {
		return PatternStats{}, fmt.Errorf("%w: %q", ErrUnknownPattern, st.Order.Key)
	}

	delta := s.scoring.WinReward
	if st.Outcome == OutcomeLoss {
		delta = -s.scoring.LossPenalty
	}

	if st.Order.Side == VirtualLong {
		ps.Bullish += delta
	} else {
		ps.Bearish += delta
	}
	return *ps, nil
}

func (s *Scoreboard) Get(key PatternKey) (PatternStats, bool) {
	ps, ok := s.stats[key]
	if !ok {
		return PatternStats{}, false
	}
	return *ps, true
}

func (s *Scoreboard) Len() int { return len(s.stats) }

// PatternRecord - строка снапшота для внешнего хранилища.
type PatternRecord struct {
	Key     PatternKey
	Bullish int
	Bearish int
}

func (s *Scoreboard) Snapshot() []PatternRecord {
	out := make([]PatternRecord, 0, len(s.stats))
	for k, ps := range s.stats {
		out = append(out, PatternRecord{Key: k, Bullish: ps.Bullish, Bearish: ps.Bearish})
	}
	return out
}

// Restore перезаписывает счёт для переданных ключей, остальные не трогает.
func (s *Scoreboard) Restore(records []PatternRecord) {
	for _, r := range records {
		s.stats[r.Key] = &PatternStats{Bullish: r.Bullish, Bearish: r.Bearish}
	}
}
