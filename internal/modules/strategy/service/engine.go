package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"pattern_bot/internal/helper"
	"pattern_bot/internal/models"
)

// EquitySource отдаёт последнее известное equity без сетевых вызовов.
type EquitySource interface {
	Equity() (float64, bool)
}

// Recorder - метрики движка, реализуется pkg/metrics.Recorder.
type Recorder interface {
	CandleProcessed(inst string)
	PatternFormed(inst string, known int)
	VirtualOpen(inst string, open int)
	VirtualClosed(inst, side, outcome string)
	SignalEmitted(inst, side string)
}

type nopRecorder struct{}

func (nopRecorder) CandleProcessed(string)               {}
func (nopRecorder) PatternFormed(string, int)            {}
func (nopRecorder) VirtualOpen(string, int)              {}
func (nopRecorder) VirtualClosed(string, string, string) {}
func (nopRecorder) SignalEmitted(string, string)         {}

type EngineConfig struct {
	Timeframe string

	PatternLength   int
	LeaderboardSize int

	VirtualStopPips   float64
	VirtualTargetPips float64
	RealStopPips      float64
	RealTargetPips    float64

	Scoring Scoring
	Sizing  SizingConfig

	// nil => торгуем каждый день
	ExcludeDay DayFilter
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		PatternLength:   PatternLength,
		LeaderboardSize: LeaderboardSize,
		Scoring:         DefaultScoring(),
		Sizing:          SizingConfig{FixedLot: 1},
		ExcludeDay:      ExcludeWeekdays(time.Friday),
	}
}

// PatternEngine - самообучающийся движок паттернов для одного инструмента.
// Не потокобезопасен: свечи подаются последовательно, синхронизация на стороне Hub.
type PatternEngine struct {
	cfg    EngineConfig
	inst   models.Instrument
	limits VolumeLimits
	log    *zap.Logger
	equity EquitySource
	rec    Recorder

	window *Window
	book   *VirtualBook
	board  *Scoreboard

	virtualStop   float64
	virtualTarget float64
	realStop      float64
	realTarget    float64

	lastBar     time.Time
	seen        bool
	lastTradeAt time.Time
	traded      bool
}

func NewPatternEngine(cfg EngineConfig, inst models.Instrument, equity EquitySource, log *zap.Logger, rec Recorder) *PatternEngine {
	if cfg.PatternLength <= 0 {
		cfg.PatternLength = PatternLength
	}
	if cfg.LeaderboardSize <= 0 {
		cfg.LeaderboardSize = LeaderboardSize
	}
	if cfg.Scoring == (Scoring{}) {
		cfg.Scoring = DefaultScoring()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	log = log.With(zap.String("inst", inst.InstID))

	if inst.TickSz <= 0 {
		log.Warn("instrument has no tick size, pip distances are disabled")
	}

	return &PatternEngine{
		cfg:    cfg,
		inst:   inst,
		limits: LimitsFromInstrument(inst),
		log:    log,
		equity: equity,
		rec:    rec,

		window: NewWindow(cfg.PatternLength),
		book:   NewVirtualBook(),
		board:  NewScoreboard(cfg.Scoring),

		virtualStop:   pipsToPrice(cfg.VirtualStopPips, inst.TickSz),
		virtualTarget: pipsToPrice(cfg.VirtualTargetPips, inst.TickSz),
		realStop:      pipsToPrice(cfg.RealStopPips, inst.TickSz),
		realTarget:    pipsToPrice(cfg.RealTargetPips, inst.TickSz),
	}
}

func pipsToPrice(pips, tick float64) float64 {
	if pips <= 0 || tick <= 0 {
		return 0
	}
	return pips * tick
}

// OnCandle обрабатывает закрытую свечу строго в порядке:
// виртуальные закрытия -> решение по реальной сделке -> новый символ и новые виртуальные ордера.
// Решение принимается по паттерну, сложившемуся до этой свечи.
// Повтор уже обработанного бара игнорируется целиком: его ордера уже в книге,
// а окно уже сдвинуто на него.
func (e *PatternEngine) OnCandle(c models.CandleTick) (models.Signal, bool) {
	if e.seen && c.Start.Before(e.lastBar) {
		e.log.Warn("stale candle dropped",
			zap.Time("bar", c.Start), zap.Time("last_bar", e.lastBar))
		return models.Signal{}, false
	}
	if e.seen && c.Start.Equal(e.lastBar) {
		e.log.Debug("repeated candle ignored", zap.Time("bar", c.Start))
		return models.Signal{}, false
	}

	e.rec.CandleProcessed(e.inst.InstID)

	e.Settle(c)
	sig, ok := e.Evaluate(c)
	e.Learn(c)

	e.lastBar = c.Start
	e.seen = true
	return sig, ok
}

// Settle закрывает виртуальные ордера по high/low свечи и начисляет очки.
func (e *PatternEngine) Settle(c models.CandleTick) []Settlement {
	res := e.book.Settle(c.High, c.Low)
	if len(res) == 0 {
		return nil
	}

	for _, st := range res {
		ps, err := e.board.Apply(st)
		if err != nil {
			e.log.DPanic("virtual order settled for unknown pattern",
				zap.String("pattern", string(st.Order.Key)), zap.Error(err))
			continue
		}
		e.log.Debug("virtual order closed",
			zap.String("pattern", string(st.Order.Key)),
			zap.Stringer("side", st.Order.Side),
			zap.Stringer("outcome", st.Outcome),
			zap.Float64("entry", st.Order.Entry),
			zap.Int("bullish", ps.Bullish),
			zap.Int("bearish", ps.Bearish),
		)
		e.rec.VirtualClosed(e.inst.InstID, st.Order.Side.String(), st.Outcome.String())
	}
	e.rec.VirtualOpen(e.inst.InstID, e.book.Len())
	return res
}

// Evaluate решает, открывать ли реальную сделку на этом баре. Можно звать
// повторно для одного и того же бара: лимитер отдаст сигнал максимум один раз.
func (e *PatternEngine) Evaluate(c models.CandleTick) (models.Signal, bool) {
	if e.cfg.ExcludeDay != nil && e.cfg.ExcludeDay(c.Start) {
		e.log.Debug("excluded day, no trading", zap.Time("bar", c.Start))
		return models.Signal{}, false
	}

	key, ok := e.window.Current()
	if !ok {
		return models.Signal{}, false
	}

	checks := [...]struct {
		dim  Dimension
		side models.Side
	}{
		{DimensionBullish, models.SideBuy},
		{DimensionBearish, models.SideSell},
	}
	for _, chk := range checks {
		entry, member := inLeaderboard(e.board.Top(chk.dim, e.cfg.LeaderboardSize), key)
		if !member {
			continue
		}
		if e.tradedOn(c.Start) {
			e.log.Debug("leaderboard match suppressed, bar already traded",
				zap.String("pattern", string(key)), zap.Stringer("dimension", chk.dim))
			continue
		}
		e.log.Info("leaderboard match",
			zap.String("pattern", string(key)),
			zap.Stringer("dimension", chk.dim),
			zap.Int("score", entry.Score),
		)
		sig, ok := e.buildSignal(c, key, chk.side, entry)
		if !ok {
			continue
		}
		e.lastTradeAt = c.Start
		e.traded = true
		e.rec.SignalEmitted(e.inst.InstID, string(chk.side))
		return sig, true
	}
	return models.Signal{}, false
}

func (e *PatternEngine) tradedOn(bar time.Time) bool {
	return e.traded && e.lastTradeAt.Equal(bar)
}

func (e *PatternEngine) buildSignal(c models.CandleTick, key PatternKey, side models.Side, entry LeaderboardEntry) (models.Signal, bool) {
	var equity float64
	var hasEquity bool
	if e.equity != nil {
		equity, hasEquity = e.equity.Equity()
	}

	sz, ok := CalcVolume(e.cfg.Sizing, e.limits, equity, hasEquity)
	if sz.Source == SizingFixedFallback {
		e.log.Info("equity unavailable, sizing falls back to fixed lot",
			zap.Float64("equity", equity), zap.Float64("fixed_lot", e.cfg.Sizing.FixedLot))
	}
	if !ok {
		e.log.Warn("volume rounds to zero and instrument has no minimum, trade skipped",
			zap.Float64("raw", sz.Raw), zap.Float64("step", e.limits.Step))
		return models.Signal{}, false
	}
	if sz.Clamped {
		e.log.Debug("volume clamped to instrument limits",
			zap.Float64("raw", sz.Raw), zap.Float64("volume", sz.Volume))
	}

	sig := models.Signal{
		InstID:   e.inst.InstID,
		TF:       e.cfg.Timeframe,
		Side:     side,
		Price:    c.Close,
		Volume:   sz.Volume,
		Strategy: models.StrategyPatternLearning,
		Pattern:  string(key),
		Reason: fmt.Sprintf("pattern=%s score=%d sizing=%s",
			key, entry.Score, sz.Source),
		BarStart:  c.Start,
		CreatedAt: time.Now(),
	}

	dir := 1.0
	if side == models.SideSell {
		dir = -1
	}
	if e.realStop > 0 {
		sig.SL = helper.RoundToTick(c.Close-dir*e.realStop, e.inst.TickSz)
	}
	if e.realTarget > 0 {
		sig.TP = helper.RoundToTick(c.Close+dir*e.realTarget, e.inst.TickSz)
	}
	return sig, true
}

// Learn классифицирует свечу и, если окно заполнено, регистрирует паттерн
// и ставит на него пару виртуальных ордеров от close.
func (e *PatternEngine) Learn(c models.CandleTick) (PatternKey, bool) {
	if degenerate(c) {
		e.log.Warn("candle with non-positive high, fallback symbol used",
			zap.Time("bar", c.Start), zap.Float64("high", c.High))
	}

	key, ok := e.window.Push(Classify(c))
	if !ok {
		return "", false
	}

	created := e.board.Ensure(key)
	long, short := e.book.Open(key, c.Close, e.virtualStop, e.virtualTarget, c.Start)

	e.log.Debug("pattern formed",
		zap.String("pattern", string(key)),
		zap.Bool("new", created),
		zap.Int("known", e.board.Len()),
	)
	e.log.Debug("virtual orders opened",
		zap.String("pattern", string(key)),
		zap.Float64("entry", c.Close),
		zap.Float64("long_stop", long.Stop), zap.Float64("long_target", long.Target),
		zap.Float64("short_stop", short.Stop), zap.Float64("short_target", short.Target),
	)
	e.rec.PatternFormed(e.inst.InstID, e.board.Len())
	e.rec.VirtualOpen(e.inst.InstID, e.book.Len())
	return key, true
}

func (e *PatternEngine) Stats(key PatternKey) (PatternStats, bool) { return e.board.Get(key) }

func (e *PatternEngine) TopPatterns(dim Dimension) []LeaderboardEntry {
	return e.board.Top(dim, e.cfg.LeaderboardSize)
}

func (e *PatternEngine) CurrentPattern() (PatternKey, bool) { return e.window.Current() }
func (e *PatternEngine) OpenVirtualOrders() []VirtualOrder   { return e.book.Orders() }
func (e *PatternEngine) PatternCount() int                  { return e.board.Len() }
func (e *PatternEngine) Instrument() models.Instrument      { return e.inst }

func (e *PatternEngine) Snapshot() []PatternRecord { return e.board.Snapshot() }

func (e *PatternEngine) Restore(records []PatternRecord) {
	e.board.Restore(records)
	e.log.Info("scoreboard restored", zap.Int("records", len(records)), zap.Int("known", e.board.Len()))
}

// ResetScores забывает выученный счёт и открытые виртуальные ордера.
// Окно остаётся: паттерны снова начнут набираться со следующего бара.
func (e *PatternEngine) ResetScores() {
	known, open := e.board.Len(), e.book.Len()
	e.board = NewScoreboard(e.cfg.Scoring)
	e.book = NewVirtualBook()
	e.rec.PatternFormed(e.inst.InstID, 0)
	e.rec.VirtualOpen(e.inst.InstID, 0)
	e.log.Warn("scoreboard reset", zap.Int("known", known), zap.Int("virtual_open", open))
}

func (e *PatternEngine) Name() string { return string(models.StrategyPatternLearning) }

// Ready: окно заполнено, движок может принимать торговые решения.
func (e *PatternEngine) Ready() bool { return e.window.Full() }

func (e *PatternEngine) Dump() string {
	key, _ := e.window.Current()
	return fmt.Sprintf("%s window=%d/%d pattern=%q known=%d virtual_open=%d last_bar=%s",
		e.inst.InstID, e.window.Len(), e.window.Size(), key,
		e.board.Len(), e.book.Len(), e.lastBar.Format(time.RFC3339))
}
