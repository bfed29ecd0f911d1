package service

import (
	"context"
	"os"
	"sort"
	"testing"

	strategy "pattern_bot/internal/modules/strategy/service"
	"pattern_bot/pkg/db"
)

// Интеграционный тест: нужен живой Postgres в PG_TEST_DSN.
func TestPatternStatsRoundTrip(t *testing.T) {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN is not set")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: dsn})
	if err != nil {
		t.Fatal(err)
	}
	tm := db.NewPgTxManager(pool)
	defer tm.Close()

	repo := NewPatternStats(tm)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	const inst = "TEST-USDT-SWAP"
	t.Cleanup(func() { _ = repo.Reset(context.Background(), inst) })

	first := []strategy.PatternRecord{
		{Key: "0000000", Bullish: 2, Bearish: -3},
		{Key: "5555555", Bullish: -1, Bearish: 1},
	}
	if err := repo.Save(ctx, inst, first); err != nil {
		t.Fatal(err)
	}
	// второй снимок обновляет существующую строку
	if err := repo.Save(ctx, inst, []strategy.PatternRecord{{Key: "0000000", Bullish: 3, Bearish: -3}}); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Load(ctx, inst)
	if err != nil {
		t.Fatal(err)
	}
	sort.Slice(got, func(i, j int) bool { return got[i].Key < got[j].Key })
	want := []strategy.PatternRecord{
		{Key: "0000000", Bullish: 3, Bearish: -3},
		{Key: "5555555", Bullish: -1, Bearish: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if err := repo.Reset(ctx, inst); err != nil {
		t.Fatal(err)
	}
	if got, err := repo.Load(ctx, inst); err != nil || len(got) != 0 {
		t.Fatalf("after reset: %+v, %v", got, err)
	}
}

func TestNopStore(t *testing.T) {
	var s NopStore
	if err := s.Save(context.Background(), "X", []strategy.PatternRecord{{Key: "0000000"}}); err != nil {
		t.Fatal(err)
	}
	recs, err := s.Load(context.Background(), "X")
	if err != nil || len(recs) != 0 {
		t.Fatalf("Load = %v, %v", recs, err)
	}
	if err := s.Reset(context.Background(), "X"); err != nil {
		t.Fatal(err)
	}
}
