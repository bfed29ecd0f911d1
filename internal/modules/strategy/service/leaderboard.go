package service

import "sort"

// LeaderboardSize - сколько лучших паттернов допускаются к торговле.
const LeaderboardSize = 10

type Dimension int

const (
	DimensionBullish Dimension = iota
	DimensionBearish
)

func (d Dimension) String() string {
	if d == DimensionBearish {
		return "bearish"
	}
	return "bullish"
}

func (d Dimension) score(ps *PatternStats) int {
	if d == DimensionBearish {
		return ps.Bearish
	}
	return ps.Bullish
}

type LeaderboardEntry struct {
	Key   PatternKey `json:"pattern"`
	Score int        `json:"score"`
}

// Top пересчитывается на каждый вызов: счёт >= 1, по убыванию счёта,
// при равенстве - ключ по возрастанию, первые n.
func (s *Scoreboard) Top(dim Dimension, n int) []LeaderboardEntry {
	if n <= 0 {
		return nil
	}
	out := make([]LeaderboardEntry, 0, n)
	for k, ps := range s.stats {
		if sc := dim.score(ps); sc >= 1 {
			out = append(out, LeaderboardEntry{Key: k, Score: sc})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func inLeaderboard(entries []LeaderboardEntry, key PatternKey) (LeaderboardEntry, bool) {
	for _, e := range entries {
		if e.Key == key {
			return e, true
		}
	}
	return LeaderboardEntry{}, false
}
