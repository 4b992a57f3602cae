package ta

import (
	"math"
	"testing"
)

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	if got := SMA(closes, 5); got != 3 {
		t.Errorf("SMA(5) = %f, want 3", got)
	}
	if got := SMA(closes, 2); got != 4.5 {
		t.Errorf("SMA(2) = %f, want 4.5", got)
	}
	if got := SMA(closes, 6); !math.IsNaN(got) {
		t.Errorf("SMA with short history = %f, want NaN", got)
	}
}

func TestRSIBounds(t *testing.T) {
	up := make([]float64, 20)
	for i := range up {
		up[i] = float64(100 + i)
	}
	if got := RSI(up, 14); got != 100 {
		t.Errorf("RSI of monotonic rise = %f, want 100", got)
	}

	down := make([]float64, 20)
	for i := range down {
		down[i] = float64(100 - i)
	}
	if got := RSI(down, 14); got != 0 {
		t.Errorf("RSI of monotonic fall = %f, want 0", got)
	}

	if got := RSI([]float64{1, 2}, 14); !math.IsNaN(got) {
		t.Errorf("RSI with short history = %f, want NaN", got)
	}
}

func TestATR(t *testing.T) {
	highs := []float64{11, 12, 13, 14}
	lows := []float64{9, 10, 11, 12}
	closes := []float64{10, 11, 12, 13}
	// Each true range is max(2, |high-prevClose|=2, |low-prevClose|=0) = 2.
	if got := ATR(highs, lows, closes, 3); got != 2 {
		t.Errorf("ATR = %f, want 2", got)
	}
	if got := ATR(highs, lows, closes, 4); !math.IsNaN(got) {
		t.Errorf("ATR with short history = %f, want NaN", got)
	}
	if got := ATR(highs[:2], lows, closes, 2); !math.IsNaN(got) {
		t.Errorf("ATR with mismatched slices = %f, want NaN", got)
	}
}

func TestEMASeries(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6}
	ema := EMASeries(vals, 3)
	if !math.IsNaN(ema[0]) || !math.IsNaN(ema[1]) {
		t.Error("expected NaN before the seed index")
	}
	if ema[2] != 2 {
		t.Errorf("seed = %f, want 2 (SMA of first 3)", ema[2])
	}
	// k = 0.5 for n=3: ema[3] = 4*0.5 + 2*0.5 = 3
	if ema[3] != 3 {
		t.Errorf("ema[3] = %f, want 3", ema[3])
	}
	for i := 3; i < len(ema); i++ {
		if ema[i] <= ema[i-1] {
			t.Errorf("EMA of rising series should rise at %d: %f <= %f", i, ema[i], ema[i-1])
		}
	}
}

func TestMACDSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i) // steady uptrend
	}
	macd, sig := MACDSeries(closes, 12, 26, 9)
	last := len(closes) - 1
	if math.IsNaN(macd[last]) || math.IsNaN(sig[last]) {
		t.Fatal("expected defined MACD and signal at the end of a long series")
	}
	if macd[last] <= 0 {
		t.Errorf("MACD in an uptrend = %f, want > 0", macd[last])
	}
}

func TestAvgVolume(t *testing.T) {
	vols := []float64{10, 10, 10, 10, 40} // current bar excluded from average
	if got := AvgVolume(vols, 4); got != 10 {
		t.Errorf("AvgVolume = %f, want 10", got)
	}
	if got := AvgVolume(vols, 5); !math.IsNaN(got) {
		t.Errorf("AvgVolume with short history = %f, want NaN", got)
	}
}

func TestReturns(t *testing.T) {
	rets := Returns([]float64{100, 110, 99})
	if len(rets) != 2 {
		t.Fatalf("len = %d, want 2", len(rets))
	}
	if math.Abs(rets[0]-0.10) > 1e-9 {
		t.Errorf("rets[0] = %f, want 0.10", rets[0])
	}
	if math.Abs(rets[1]+0.10) > 1e-9 {
		t.Errorf("rets[1] = %f, want -0.10", rets[1])
	}
}
