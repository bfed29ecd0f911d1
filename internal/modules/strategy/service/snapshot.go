package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// ScoreStore - внешнее хранилище счёта паттернов.
type ScoreStore interface {
	Load(ctx context.Context, instID string) ([]PatternRecord, error)
	Save(ctx context.Context, instID string, records []PatternRecord) error
	Reset(ctx context.Context, instID string) error
}

var ErrUnknownInstrument = errors.New("unknown instrument")

// Snapshotter поднимает счёт из хранилища на старте и периодически сохраняет его обратно.
type Snapshotter struct {
	hub   *Hub
	store ScoreStore
	every time.Duration
	log   *zap.Logger
}

func NewSnapshotter(hub *Hub, store ScoreStore, every time.Duration, log *zap.Logger) *Snapshotter {
	return &Snapshotter{hub: hub, store: store, every: every, log: log.Named("snapshot")}
}

// Restore загружает сохранённый счёт во все движки. Ошибка по одному инструменту
// не мешает остальным.
func (s *Snapshotter) Restore(ctx context.Context) int {
	total := 0
	for _, n := range s.RestoreEach(ctx) {
		total += n
	}
	return total
}

// RestoreEach как Restore, но возвращает число записей по каждому поднятому инструменту.
func (s *Snapshotter) RestoreEach(ctx context.Context) map[string]int {
	out := make(map[string]int)
	for _, id := range s.hub.Instruments() {
		recs, err := s.store.Load(ctx, id)
		if err != nil {
			s.log.Error("load scores", zap.String("inst", id), zap.Error(err))
			continue
		}
		if len(recs) == 0 {
			continue
		}
		if s.hub.Restore(id, recs) {
			out[id] = len(recs)
		}
	}
	return out
}

// Save пишет текущий счёт всех движков.
func (s *Snapshotter) Save(ctx context.Context) error {
	snap := s.hub.Snapshot()
	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var firstErr error
	for _, id := range ids {
		if err := s.store.Save(ctx, id, snap[id]); err != nil {
			s.log.Error("save scores", zap.String("inst", id), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.log.Debug("scores saved", zap.String("inst", id), zap.Int("patterns", len(snap[id])))
	}
	return firstErr
}

// Reset обнуляет счёт инструмента в движке и в хранилище. Движок сбрасывается
// первым, чтобы периодическое сохранение не вернуло старые строки.
func (s *Snapshotter) Reset(ctx context.Context, instID string) error {
	if !s.hub.ResetScores(instID) {
		return fmt.Errorf("reset %s: %w", instID, ErrUnknownInstrument)
	}
	if err := s.store.Reset(ctx, instID); err != nil {
		return fmt.Errorf("reset %s: %w", instID, err)
	}
	s.log.Info("scores reset", zap.String("inst", instID))
	return nil
}

// Run сохраняет счёт раз в every до отмены ctx.
func (s *Snapshotter) Run(ctx context.Context) {
	if s.every <= 0 {
		return
	}
	t := time.NewTicker(s.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = s.Save(ctx)
		}
	}
}
