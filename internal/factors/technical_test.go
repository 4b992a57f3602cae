package factors

import (
	"context"
	"errors"
	"testing"

	"trade-advisor/internal/types"
)

func defaultTechnical() *Technical {
	return NewTechnical(TechnicalParams{
		RSIPeriod: 14, MAFast: 20, MASlow: 50,
		MACDFast: 12, MACDSlow: 26, MACDSignal: 9,
		VolumeWindow: 20,
		WeightRSI:    0.20, WeightMA: 0.35, WeightMACD: 0.30, WeightVolume: 0.15,
	})
}

// barsFromSeries builds bars where each close is also the bar's high/low
// anchor; good enough for close-driven indicators.
func barsFromSeries(closes, vols []float64) []types.CandleBar {
	bars := make([]types.CandleBar, len(closes))
	for i := range closes {
		open := closes[i]
		if i > 0 {
			open = closes[i-1]
		}
		bars[i] = types.CandleBar{
			Ts: int64(i), Open: open, Close: closes[i],
			High: max2(open, closes[i]), Low: min2(open, closes[i]),
			Volume: vols[i],
		}
	}
	return bars
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func TestTechnicalInsufficientData(t *testing.T) {
	a := defaultTechnical()
	snap := types.MarketSnapshot{Symbol: "INFY", Bars: barsFromSeries(make([]float64, 10), make([]float64, 10))}
	if _, err := a.Analyze(context.Background(), snap); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

// A sawtooth climb where gains outweigh losses 3:1 puts RSI at 75, keeps the
// fast average above the slow one, and ends on a heavy up bar. Despite the
// overbought RSI the blend must come out a confident buy.
func TestTechnicalBullishBlendOverridesOverboughtRSI(t *testing.T) {
	a := defaultTechnical()
	closes := make([]float64, 60)
	vols := make([]float64, 60)
	c := 100.0
	for i := range closes {
		if i%2 == 1 {
			c += 3
		} else {
			c -= 1
		}
		closes[i] = c
		vols[i] = 10
	}
	vols[len(vols)-1] = 20 // 2x the trailing average

	sigs, err := a.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY", Bars: barsFromSeries(closes, vols)})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(sigs) != 1 {
		t.Fatalf("got %d signals, want 1", len(sigs))
	}
	s := sigs[0]
	if s.Signal != types.Buy && s.Signal != types.StrongBuy {
		t.Errorf("signal = %s (score %.3f), want BUY or STRONG_BUY", s.Signal, s.Score)
	}
	if s.Confidence <= 0.6 {
		t.Errorf("confidence = %.3f, want > 0.6", s.Confidence)
	}
}

func TestTechnicalBearishSeries(t *testing.T) {
	a := defaultTechnical()
	closes := make([]float64, 60)
	vols := make([]float64, 60)
	c := 300.0
	for i := range closes {
		if i%2 == 1 {
			c -= 3
		} else {
			c += 1
		}
		closes[i] = c
		vols[i] = 10
	}
	vols[len(vols)-1] = 20

	sigs, err := a.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY", Bars: barsFromSeries(closes, vols)})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	s := sigs[0]
	if s.Score >= 0 {
		t.Errorf("score = %.3f, want negative for a persistent decline", s.Score)
	}
	if s.Signal != types.Sell && s.Signal != types.StrongSell {
		t.Errorf("signal = %s, want SELL or STRONG_SELL", s.Signal)
	}
}

func TestTechnicalDriedUpVolumeDampens(t *testing.T) {
	a := defaultTechnical()
	closes := make([]float64, 60)
	heavy := make([]float64, 60)
	thin := make([]float64, 60)
	c := 100.0
	for i := range closes {
		if i%2 == 1 {
			c += 3
		} else {
			c -= 1
		}
		closes[i] = c
		heavy[i] = 10
		thin[i] = 10
	}
	heavy[59] = 20
	thin[59] = 2 // 0.2x

	strong, err := a.Analyze(context.Background(), types.MarketSnapshot{Bars: barsFromSeries(closes, heavy)})
	if err != nil {
		t.Fatalf("Analyze heavy: %v", err)
	}
	weak, err := a.Analyze(context.Background(), types.MarketSnapshot{Bars: barsFromSeries(closes, thin)})
	if err != nil {
		t.Fatalf("Analyze thin: %v", err)
	}
	if weak[0].Score >= strong[0].Score {
		t.Errorf("dried-up volume did not dampen: %.3f vs %.3f", weak[0].Score, strong[0].Score)
	}
	if weak[0].Confidence >= strong[0].Confidence {
		t.Errorf("dried-up volume did not cut confidence: %.3f vs %.3f", weak[0].Confidence, strong[0].Confidence)
	}
}

func TestTechnicalCancelledContext(t *testing.T) {
	a := defaultTechnical()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Analyze(ctx, types.MarketSnapshot{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
