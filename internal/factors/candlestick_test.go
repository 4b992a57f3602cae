package factors

import (
	"strings"
	"testing"

	"trade-advisor/internal/types"
)

func defaultCandlestick() *Candlestick {
	return NewCandlestick(CandlestickParams{
		DojiBodyMax: 0.10, PinBodyMax: 0.30, PinShadowMin: 0.60, PinOppShadowMax: 0.10,
		TrendLookback: 5, TrendMinMovePct: 1.0,
	})
}

func findPattern(sigs []types.FactorSignal, substr string) (types.FactorSignal, bool) {
	for _, s := range sigs {
		if strings.Contains(s.Rationale, substr) {
			return s, true
		}
	}
	return types.FactorSignal{}, false
}

func TestPrecedingTrend(t *testing.T) {
	up := []types.CandleBar{{Close: 100}, {Close: 101}, {Close: 102}, {Close: 103}, {Close: 104}, {Close: 105}}
	down := []types.CandleBar{{Close: 105}, {Close: 104}, {Close: 103}, {Close: 102}, {Close: 101}, {Close: 100}}
	flat := []types.CandleBar{{Close: 100}, {Close: 100.1}, {Close: 99.9}, {Close: 100}, {Close: 100.2}, {Close: 100.1}}

	if got := PrecedingTrend(up, 5, 1.0); got != types.TrendUp {
		t.Errorf("up series: got %s", got)
	}
	if got := PrecedingTrend(down, 5, 1.0); got != types.TrendDown {
		t.Errorf("down series: got %s", got)
	}
	if got := PrecedingTrend(flat, 5, 1.0); got != types.TrendFlat {
		t.Errorf("flat series: got %s", got)
	}
	if got := PrecedingTrend(up[:3], 5, 1.0); got != types.TrendFlat {
		t.Errorf("short series: got %s, want FLAT", got)
	}
}

func TestDetectDoji(t *testing.T) {
	c := defaultCandlestick()
	// Body is 5% of the 10-point range.
	bars := []types.CandleBar{{Open: 100.0, High: 105, Low: 95, Close: 100.5}}
	sigs := c.Detect(bars, types.TrendFlat)
	s, ok := findPattern(sigs, "doji")
	if !ok {
		t.Fatalf("doji not detected in %v", sigs)
	}
	if s.Signal != types.Hold || s.Score != 0 {
		t.Errorf("doji signal = %s score %.2f, want HOLD 0", s.Signal, s.Score)
	}
	if s.Confidence <= 0.4 {
		t.Errorf("doji confidence = %.2f, want > 0.4 for a 5%% body", s.Confidence)
	}

	// An 11% body misses the cutoff.
	bars = []types.CandleBar{{Open: 100.0, High: 105, Low: 95, Close: 101.1}}
	if _, ok := findPattern(c.Detect(bars, types.TrendFlat), "doji"); ok {
		t.Error("doji detected with body above the cutoff")
	}
}

func TestDetectHammerFamily(t *testing.T) {
	c := defaultCandlestick()
	// Range 10: body 2 (20%), lower shadow 7 (70%), upper shadow 1 (10%).
	pin := types.CandleBar{Open: 107, High: 110, Low: 100, Close: 109}

	if s, ok := findPattern(c.Detect([]types.CandleBar{pin}, types.TrendDown), "hammer"); !ok {
		t.Error("hammer not detected after a decline")
	} else if s.Score <= 0 {
		t.Errorf("hammer score = %.2f, want bullish", s.Score)
	}

	if s, ok := findPattern(c.Detect([]types.CandleBar{pin}, types.TrendUp), "hanging man"); !ok {
		t.Error("hanging man not detected after an advance")
	} else if s.Score >= 0 {
		t.Errorf("hanging man score = %.2f, want bearish", s.Score)
	}

	// No trend context: the shape alone is ambiguous.
	if sigs := c.Detect([]types.CandleBar{pin}, types.TrendFlat); len(sigs) != 0 {
		t.Errorf("pin bar produced %d signals without trend context, want 0", len(sigs))
	}

	// Mirror image: dominant upper shadow.
	inv := types.CandleBar{Open: 101, High: 110, Low: 100, Close: 103}
	if _, ok := findPattern(c.Detect([]types.CandleBar{inv}, types.TrendDown), "inverted hammer"); !ok {
		t.Error("inverted hammer not detected after a decline")
	}
	if _, ok := findPattern(c.Detect([]types.CandleBar{inv}, types.TrendUp), "shooting star"); !ok {
		t.Error("shooting star not detected after an advance")
	}
}

func TestDetectBullishEngulfing(t *testing.T) {
	c := defaultCandlestick()
	prev := types.CandleBar{Open: 102, High: 102.5, Low: 99.5, Close: 100}   // bearish, body 2
	cur := types.CandleBar{Open: 99.5, High: 105.5, Low: 99, Close: 104.5}   // bullish, body 5 = 2.5x

	s, ok := findPattern(c.Detect([]types.CandleBar{prev, cur}, types.TrendDown), "bullish engulfing")
	if !ok {
		t.Fatal("bullish engulfing not detected")
	}
	if s.Signal != types.Buy {
		t.Errorf("signal = %s, want BUY", s.Signal)
	}
	if s.Confidence < 0.5 {
		t.Errorf("confidence = %.3f, want >= 0.5 for a 2.5x engulfing body", s.Confidence)
	}
}

func TestDetectBearishEngulfing(t *testing.T) {
	c := defaultCandlestick()
	prev := types.CandleBar{Open: 100, High: 102.5, Low: 99.5, Close: 102} // bullish
	cur := types.CandleBar{Open: 102.5, High: 103, Low: 97, Close: 98}    // bearish, contains prev body

	s, ok := findPattern(c.Detect([]types.CandleBar{prev, cur}, types.TrendUp), "bearish engulfing")
	if !ok {
		t.Fatal("bearish engulfing not detected")
	}
	if s.Score >= 0 {
		t.Errorf("score = %.2f, want bearish", s.Score)
	}
}

func TestDetectDarkCloudAndPiercing(t *testing.T) {
	c := defaultCandlestick()

	prevUp := types.CandleBar{Open: 100, High: 104.2, Low: 99.8, Close: 104}
	// Opens above the prior high, closes below the body midpoint (102).
	cloud := types.CandleBar{Open: 105, High: 105.5, Low: 100.4, Close: 100.8}
	s, ok := findPattern(c.Detect([]types.CandleBar{prevUp, cloud}, types.TrendUp), "dark cloud")
	if !ok {
		t.Fatal("dark cloud cover not detected")
	}
	if s.Score >= 0 || s.Confidence <= 0.4 {
		t.Errorf("dark cloud score %.2f conf %.2f, want bearish with conf > 0.4", s.Score, s.Confidence)
	}

	prevDown := types.CandleBar{Open: 104, High: 104.2, Low: 99.8, Close: 100}
	pierce := types.CandleBar{Open: 99, High: 103.6, Low: 98.5, Close: 103.2}
	s, ok = findPattern(c.Detect([]types.CandleBar{prevDown, pierce}, types.TrendDown), "piercing")
	if !ok {
		t.Fatal("piercing line not detected")
	}
	if s.Score <= 0 {
		t.Errorf("piercing score = %.2f, want bullish", s.Score)
	}
}

func TestDetectMorningAndEveningStar(t *testing.T) {
	c := defaultCandlestick()

	// Morning star: long bearish bar, small bar gapped below, strong recovery.
	b1 := types.CandleBar{Open: 110, High: 110.5, Low: 103.5, Close: 104}
	b2 := types.CandleBar{Open: 102.5, High: 103.2, Low: 102, Close: 102.8}
	b3 := types.CandleBar{Open: 103, High: 109.5, Low: 102.8, Close: 109}
	s, ok := findPattern(c.Detect([]types.CandleBar{b1, b2, b3}, types.TrendDown), "morning star")
	if !ok {
		t.Fatal("morning star not detected")
	}
	if s.Score <= 0.3 || s.Confidence <= 0.5 {
		t.Errorf("morning star score %.2f conf %.2f, want strongly bullish", s.Score, s.Confidence)
	}

	// Evening star is the mirror image.
	e1 := types.CandleBar{Open: 104, High: 110.5, Low: 103.5, Close: 110}
	e2 := types.CandleBar{Open: 111.5, High: 112, Low: 110.8, Close: 111.2}
	e3 := types.CandleBar{Open: 111, High: 111.2, Low: 104.5, Close: 105}
	s, ok = findPattern(c.Detect([]types.CandleBar{e1, e2, e3}, types.TrendUp), "evening star")
	if !ok {
		t.Fatal("evening star not detected")
	}
	if s.Score >= -0.3 {
		t.Errorf("evening star score = %.2f, want strongly bearish", s.Score)
	}

	// Without the downtrend context the morning star shape is not a signal.
	if _, ok := findPattern(c.Detect([]types.CandleBar{b1, b2, b3}, types.TrendFlat), "morning star"); ok {
		t.Error("morning star detected without a preceding downtrend")
	}
}

func TestDetectNothingOnPlainBar(t *testing.T) {
	c := defaultCandlestick()
	// A full-bodied trend bar matches no pattern.
	bar := types.CandleBar{Open: 100, High: 105.1, Low: 99.9, Close: 105}
	if sigs := c.Detect([]types.CandleBar{bar}, types.TrendUp); len(sigs) != 0 {
		t.Errorf("plain bar produced %d signals, want 0", len(sigs))
	}
}
