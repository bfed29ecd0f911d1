package service

import (
	"sync/atomic"
	"time"
)

// State - сводка процесса для /healthz и /readyz. Пишут hub и ws-клиент, читает http.
type State struct {
	startedAt time.Time

	wsConnected atomic.Bool
	// бары и сигналы в unix seconds, 0 - ещё не было
	lastBarUnix    atomic.Int64
	lastSignalUnix atomic.Int64
	signalsDropped atomic.Int64

	// прогрев: сколько инструментов уже торгуют из скольких
	instrumentsLive  atomic.Int32
	instrumentsTotal atomic.Int32
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

// SetLive фиксирует прогресс прогрева. Готовность считается от него.
func (s *State) SetLive(live, total int) {
	s.instrumentsTotal.Store(int32(total))
	s.instrumentsLive.Store(int32(live))
}

func (s *State) Live() (live, total int) {
	return int(s.instrumentsLive.Load()), int(s.instrumentsTotal.Load())
}

// Ready: все инструменты прогреты, сигналы идут в торговлю.
func (s *State) Ready() bool {
	live, total := s.Live()
	return total > 0 && live >= total
}

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

// TouchTick - закрытие последнего обработанного бара.
func (s *State) TouchTick(t time.Time) { s.lastBarUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time  { return fromUnix(s.lastBarUnix.Load()) }

// TouchSignal - время последнего сигнала, ушедшего раннеру.
func (s *State) TouchSignal(t time.Time) { s.lastSignalUnix.Store(t.Unix()) }
func (s *State) LastSignal() time.Time  { return fromUnix(s.lastSignalUnix.Load()) }

func (s *State) SignalDropped()        { s.signalsDropped.Add(1) }
func (s *State) DroppedSignals() int64 { return s.signalsDropped.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func fromUnix(u int64) time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}
