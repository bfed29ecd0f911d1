package service

import (
	"testing"

	"pattern_bot/internal/models"
)

func TestBucketIndexBoundaries(t *testing.T) {
	tests := []struct {
		ratio float64
		want  int
	}{
		{0, 4}, // ноль не попадает ни в один полуинтервал
		{0.01, 0},
		{0.04, 0},
		{0.0400001, 1},
		{0.15, 1},
		{0.1500001, 2},
		{0.25, 2},
		{0.2500001, 3},
		{0.40, 3},
		{0.4000001, 4},
		{12.5, 4},
	}
	for _, tt := range tests {
		if got := bucketIndex(tt.ratio); got != tt.want {
			t.Errorf("bucketIndex(%v) = %d, want %d", tt.ratio, got, tt.want)
		}
	}
}

func TestRangeRatioOnDecimalPrices(t *testing.T) {
	tests := []struct {
		high, low float64
		want      float64
	}{
		{100, 99.96, 0.04},
		{100, 99.85, 0.15},
		{100, 99.75, 0.25},
		{100, 99.6, 0.40},
		{100, 100, 0},
	}
	for _, tt := range tests {
		if got := rangeRatio(tt.high, tt.low); got != tt.want {
			t.Errorf("rangeRatio(%v, %v) = %v, want %v", tt.high, tt.low, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		c    models.CandleTick
		want Symbol
	}{
		{"bearish tiny range", models.CandleTick{Open: 100, Close: 99.99, High: 100, Low: 99.98}, '0'},
		{"bullish tiny range", models.CandleTick{Open: 99.99, Close: 100, High: 100, Low: 99.98}, '5'},
		{"bearish 0.1%", models.CandleTick{Open: 100, Close: 99.95, High: 100, Low: 99.9}, '1'},
		{"bullish 0.2%", models.CandleTick{Open: 99.9, Close: 99.95, High: 100, Low: 99.8}, '7'},
		{"bearish 0.3%", models.CandleTick{Open: 100, Close: 99.8, High: 100, Low: 99.7}, '3'},
		{"bullish wide", models.CandleTick{Open: 99.5, Close: 99.9, High: 100, Low: 99}, '9'},
		{"doji counts as bearish", models.CandleTick{Open: 100, Close: 100, High: 100, Low: 99}, '4'},
		{"flat candle hits last bucket", models.CandleTick{Open: 99, Close: 100, High: 100, Low: 100}, '9'},
		// ratio ровно на границе корзины остаётся в нижней
		{"bearish at 0.04 edge", models.CandleTick{Open: 100, Close: 99.99, High: 100, Low: 99.96}, '0'},
		{"bearish at 0.15 edge", models.CandleTick{Open: 100, Close: 99.99, High: 100, Low: 99.85}, '1'},
		{"bearish at 0.25 edge", models.CandleTick{Open: 100, Close: 99.99, High: 100, Low: 99.75}, '2'},
		{"bearish at 0.40 edge", models.CandleTick{Open: 100, Close: 99.99, High: 100, Low: 99.6}, '3'},
		{"bullish at 0.04 edge", models.CandleTick{Open: 99.97, Close: 99.99, High: 100, Low: 99.96}, '5'},
		{"bullish at 0.15 edge", models.CandleTick{Open: 99.9, Close: 99.99, High: 100, Low: 99.85}, '6'},
		{"bullish at 0.25 edge", models.CandleTick{Open: 99.8, Close: 99.99, High: 100, Low: 99.75}, '7'},
		{"bullish at 0.40 edge", models.CandleTick{Open: 99.7, Close: 99.99, High: 100, Low: 99.6}, '8'},
		{"just past 0.04 edge", models.CandleTick{Open: 100, Close: 99.99, High: 100, Low: 99.9599}, '1'},
		{"degenerate bearish", models.CandleTick{Open: 1, Close: 0, High: 0, Low: 0}, '0'},
		{"degenerate bullish", models.CandleTick{Open: -2, Close: -1, High: -1, Low: -3}, '5'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.c)
			if got != tt.want {
				t.Fatalf("Classify = %q, want %q", got, tt.want)
			}
			// чистая функция: повторный вызов даёт то же самое
			if again := Classify(tt.c); again != got {
				t.Fatalf("Classify not idempotent: %q then %q", got, again)
			}
		})
	}
}
