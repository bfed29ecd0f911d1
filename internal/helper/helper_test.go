package helper

import (
	"math"
	"testing"
	"time"
)

func TestNormTF(t *testing.T) {
	tests := map[string]string{
		"1H":        "1h",
		"60m":       "1h",
		"candle15m": "15m",
		" 4H ":      "4h",
		"1D":        "1d",
		"5m":        "5m",
	}
	for in, want := range tests {
		if got := NormTF(in); got != want {
			t.Errorf("NormTF(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTimeframeToDuration(t *testing.T) {
	if d := TimeframeToDuration("1H"); d != time.Hour {
		t.Errorf("1H = %v", d)
	}
	if d := TimeframeToDuration("15m"); d != 15*time.Minute {
		t.Errorf("15m = %v", d)
	}
	if d := TimeframeToDuration("7x"); d != 0 {
		t.Errorf("unknown = %v, want 0", d)
	}
}

func TestRoundToTick(t *testing.T) {
	tests := []struct {
		name     string
		px, tick float64
		down     float64
		nearest  float64
	}{
		{"exact", 100.5, 0.5, 100.5, 100.5},
		{"between", 100.26, 0.1, 100.2, 100.3},
		{"float division", 0.3, 0.1, 0.3, 0.3},
		{"no tick", 1.2345, 0, 1.2345, 1.2345},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundDownToTick(tt.px, tt.tick); math.Abs(got-tt.down) > 1e-9 {
				t.Errorf("down = %v, want %v", got, tt.down)
			}
			if got := RoundToTick(tt.px, tt.tick); math.Abs(got-tt.nearest) > 1e-9 {
				t.Errorf("nearest = %v, want %v", got, tt.nearest)
			}
		})
	}
}

func TestFormatFloat(t *testing.T) {
	if got := FormatFloat(0.00010000); got != "0.0001" {
		t.Errorf("got %q", got)
	}
	if got := FormatFloat(12); got != "12" {
		t.Errorf("got %q", got)
	}
	if got := FormatFloat(RoundToTick(99.789, 0.01)); got != "99.79" {
		t.Errorf("got %q", got)
	}
}
