package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeEquity struct {
	mu    sync.Mutex
	value float64
	err   error
	calls int
}

func (f *fakeEquity) Equity(context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.value, f.err
}

func TestEquityCache(t *testing.T) {
	src := &fakeEquity{value: 1500}
	c := NewEquityCache(src, time.Minute, zap.NewNop())

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, ok := c.Equity(); ok {
		t.Fatal("empty cache must report unknown equity")
	}

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if v, ok := c.Equity(); !ok || v != 1500 {
		t.Fatalf("Equity = %v,%v want 1500,true", v, ok)
	}

	// ошибка обновления не затирает прошлое значение
	src.err = errors.New("down")
	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if v, ok := c.Equity(); !ok || v != 1500 {
		t.Fatalf("Equity after failed refresh = %v,%v", v, ok)
	}

	// протухло
	now = now.Add(4 * time.Minute)
	if _, ok := c.Equity(); ok {
		t.Error("stale equity must be reported as unknown")
	}
}

func TestEquityCacheWorkerRefreshesOnStart(t *testing.T) {
	src := &fakeEquity{value: 10}
	c := NewEquityCache(src, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Worker(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := c.Equity(); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("worker did not refresh on start")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
