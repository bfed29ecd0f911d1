package service

import (
	"context"

	strategy "pattern_bot/internal/modules/strategy/service"
)

// NopStore - без БД: счёт живёт только в памяти процесса.
type NopStore struct{}

var _ strategy.ScoreStore = NopStore{}

func (NopStore) Load(context.Context, string) ([]strategy.PatternRecord, error) { return nil, nil }
func (NopStore) Save(context.Context, string, []strategy.PatternRecord) error   { return nil }
func (NopStore) Reset(context.Context, string) error                            { return nil }
