package service

import (
	"testing"
	"time"
)

func TestState(t *testing.T) {
	s := NewState()
	if s.Ready() || s.WSConnected() || !s.LastTick().IsZero() || !s.LastSignal().IsZero() {
		t.Fatal("fresh state must be empty")
	}

	s.SetWSConnected(true)
	bar := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.TouchTick(bar)
	s.TouchSignal(bar.Add(time.Second))
	s.SignalDropped()
	s.SignalDropped()

	if !s.WSConnected() {
		t.Fatal("ws flag not stored")
	}
	if !s.LastTick().Equal(bar) {
		t.Fatalf("last tick = %v", s.LastTick())
	}
	if !s.LastSignal().Equal(bar.Add(time.Second)) {
		t.Fatalf("last signal = %v", s.LastSignal())
	}
	if s.DroppedSignals() != 2 {
		t.Fatalf("dropped = %d", s.DroppedSignals())
	}
}

func TestStateReadyFollowsWarmup(t *testing.T) {
	tests := []struct {
		live, total int
		want        bool
	}{
		{0, 0, false}, // движков нет - готовности нет
		{0, 3, false},
		{2, 3, false},
		{3, 3, true},
	}
	for _, tt := range tests {
		s := NewState()
		s.SetLive(tt.live, tt.total)
		if got := s.Ready(); got != tt.want {
			t.Errorf("SetLive(%d, %d): Ready = %v, want %v", tt.live, tt.total, got, tt.want)
		}
		if live, total := s.Live(); live != tt.live || total != tt.total {
			t.Errorf("Live = %d/%d", live, total)
		}
	}
}
