package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pattern_bot/internal/modules/postgres/service/sql"
	strategy "pattern_bot/internal/modules/strategy/service"
	"pattern_bot/pkg/db"
)

// PatternStats - счёт паттернов по инструментам в Postgres.
type PatternStats struct {
	db  db.TxManager
	sql *sql.Queries
}

var _ strategy.ScoreStore = (*PatternStats)(nil)

func NewPatternStats(tx db.TxManager) *PatternStats {
	return &PatternStats{
		db:  tx,
		sql: sql.New(),
	}
}

// Migrate создаёт таблицу, если её нет.
func (p *PatternStats) Migrate(ctx context.Context) error {
	if _, err := p.db.Conn().Exec(ctx, sql.Schema); err != nil {
		return fmt.Errorf("pg.PatternStats.Migrate: %w", err)
	}
	return nil
}

// Load счёт одного инструмента
func (p *PatternStats) Load(ctx context.Context, instID string) (out []strategy.PatternRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.PatternStats.Load: %w", err)
		}
	}()

	rows, err := p.sql.ListByInst(ctx, p.db.Conn(), instID)
	if err != nil {
		return nil, err
	}
	out = make([]strategy.PatternRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, strategy.PatternRecord{
			Key:     strategy.PatternKey(r.Pattern),
			Bullish: int(r.Bullish),
			Bearish: int(r.Bearish),
		})
	}
	return out, nil
}

// Save перезаписывает счёт инструмента одной транзакцией.
func (p *PatternStats) Save(ctx context.Context, instID string, records []strategy.PatternRecord) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.PatternStats.Save: %w", err)
		}
	}()
	if len(records) == 0 {
		return nil
	}

	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		for _, r := range records {
			if err := p.sql.Upsert(ctxTx, tx, &sql.UpsertParams{
				InstID:  instID,
				Pattern: string(r.Key),
				Bullish: int32(r.Bullish),
				Bearish: int32(r.Bearish),
			}); err != nil {
				return fmt.Errorf("upsert %s/%s: %w", instID, r.Key, err)
			}
		}
		return nil
	})
}

// Reset удаляет счёт инструмента (команда /reset).
func (p *PatternStats) Reset(ctx context.Context, instID string) error {
	if err := p.sql.DeleteByInst(ctx, p.db.Conn(), instID); err != nil {
		return fmt.Errorf("pg.PatternStats.Reset: %w", err)
	}
	return nil
}
