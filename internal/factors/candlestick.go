package factors

import (
	"context"
	"fmt"
	"time"

	"trade-advisor/internal/types"
)

// Candlestick detects reversal and indecision patterns over the most recent
// one to three bars. Trend context is computed once per cycle and passed in
// explicitly so detection itself stays pure.
type Candlestick struct {
	dojiBodyMax     float64 // body/range ceiling for a doji
	pinBodyMax      float64 // body/range ceiling for the hammer family
	pinShadowMin    float64 // dominant-shadow/range floor
	pinOppShadowMax float64 // opposite-shadow/range ceiling
	trendLookback   int
	trendMinMovePct float64
}

type CandlestickParams struct {
	DojiBodyMax     float64
	PinBodyMax      float64
	PinShadowMin    float64
	PinOppShadowMax float64
	TrendLookback   int
	TrendMinMovePct float64
}

func NewCandlestick(p CandlestickParams) *Candlestick {
	return &Candlestick{
		dojiBodyMax:     p.DojiBodyMax,
		pinBodyMax:      p.PinBodyMax,
		pinShadowMin:    p.PinShadowMin,
		pinOppShadowMax: p.PinOppShadowMax,
		trendLookback:   p.TrendLookback,
		trendMinMovePct: p.TrendMinMovePct,
	}
}

func (c *Candlestick) Name() string { return "candlestick" }

// PrecedingTrend classifies the drift over the last lookback closes of bars.
// The move must exceed minMovePct of the starting close to count as a trend.
func PrecedingTrend(bars []types.CandleBar, lookback int, minMovePct float64) types.Trend {
	if lookback <= 0 || len(bars) < lookback+1 {
		return types.TrendFlat
	}
	first := bars[len(bars)-1-lookback].Close
	last := bars[len(bars)-1].Close
	if first <= 0 {
		return types.TrendFlat
	}
	movePct := (last - first) / first * 100
	switch {
	case movePct >= minMovePct:
		return types.TrendUp
	case movePct <= -minMovePct:
		return types.TrendDown
	default:
		return types.TrendFlat
	}
}

// Analyze detects patterns on the latest bars. Zero detections is a normal
// outcome: the engine simply omits the factor for the cycle.
func (c *Candlestick) Analyze(ctx context.Context, snap types.MarketSnapshot) ([]types.FactorSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(snap.Bars) == 0 {
		return nil, fmt.Errorf("%w: candlestick needs at least one bar", ErrInsufficientData)
	}
	trend := PrecedingTrend(snap.Bars[:len(snap.Bars)-1], c.trendLookback, c.trendMinMovePct)
	return c.Detect(snap.Bars, trend), nil
}

// Detect runs every pattern check against the tail of bars under the given
// trend context. Pure; exported for direct testing.
func (c *Candlestick) Detect(bars []types.CandleBar, trend types.Trend) []types.FactorSignal {
	var out []types.FactorSignal
	ts := time.Now().UTC()
	cur := bars[len(bars)-1]

	if s, ok := c.doji(cur); ok {
		out = append(out, stamped(s, ts))
	}
	if s, ok := c.pinBar(cur, trend); ok {
		out = append(out, stamped(s, ts))
	}
	if len(bars) >= 2 {
		prev := bars[len(bars)-2]
		if s, ok := c.engulfing(prev, cur); ok {
			out = append(out, stamped(s, ts))
		}
		if s, ok := c.darkCloudOrPiercing(prev, cur); ok {
			out = append(out, stamped(s, ts))
		}
	}
	if len(bars) >= 3 {
		if s, ok := c.star(bars[len(bars)-3], bars[len(bars)-2], cur, trend); ok {
			out = append(out, stamped(s, ts))
		}
	}
	return out
}

func stamped(s types.FactorSignal, ts time.Time) types.FactorSignal {
	s.Factor = "candlestick"
	s.Ts = ts
	return s
}

func pattern(score, conf float64, rationale string) (types.FactorSignal, bool) {
	return types.FactorSignal{
		Signal:     types.SignalFromScore(score),
		Score:      score,
		Confidence: clamp01(conf),
		Rationale:  rationale,
	}, true
}

// doji: body at most dojiBodyMax of range signals indecision. Confidence is
// highest when the body vanishes entirely.
func (c *Candlestick) doji(b types.CandleBar) (types.FactorSignal, bool) {
	rng := b.Range()
	if rng <= 0 {
		return types.FactorSignal{}, false
	}
	bodyRatio := b.Body() / rng
	if bodyRatio > c.dojiBodyMax {
		return types.FactorSignal{}, false
	}
	conf := 1 - bodyRatio/c.dojiBodyMax
	return pattern(0, conf, fmt.Sprintf("doji, body %.0f%% of range", bodyRatio*100))
}

// pinBar covers the hammer family: small body, one dominant shadow, minimal
// opposite shadow. The label depends on which shadow dominates and on the
// preceding trend; without a trend the shape is ambiguous and skipped.
func (c *Candlestick) pinBar(b types.CandleBar, trend types.Trend) (types.FactorSignal, bool) {
	rng := b.Range()
	if rng <= 0 || trend == types.TrendFlat {
		return types.FactorSignal{}, false
	}
	body := b.Body() / rng
	lower := b.LowerShadow() / rng
	upper := b.UpperShadow() / rng
	if body > c.pinBodyMax {
		return types.FactorSignal{}, false
	}
	switch {
	case lower >= c.pinShadowMin && upper <= c.pinOppShadowMax:
		conf := clamp01(lower)
		if trend == types.TrendDown {
			return pattern(0.5, conf, "hammer after decline")
		}
		return pattern(-0.5, conf, "hanging man after advance")
	case upper >= c.pinShadowMin && lower <= c.pinOppShadowMax:
		conf := clamp01(upper) * 0.8 // inverted shapes need more confirmation
		if trend == types.TrendDown {
			return pattern(0.5, conf, "inverted hammer after decline")
		}
		return pattern(-0.5, conf, "shooting star after advance")
	}
	return types.FactorSignal{}, false
}

// engulfing: the current body fully contains the prior body with opposite
// color. Confidence scales with how much larger the engulfing body is.
func (c *Candlestick) engulfing(prev, cur types.CandleBar) (types.FactorSignal, bool) {
	if prev.Body() <= 0 || cur.Body() <= 0 || prev.Bullish() == cur.Bullish() {
		return types.FactorSignal{}, false
	}
	curTop, curBot := bodyEdges(cur)
	prevTop, prevBot := bodyEdges(prev)
	if !(curTop > prevTop && curBot < prevBot) {
		return types.FactorSignal{}, false
	}
	ratio := cur.Body() / prev.Body()
	conf := clamp01(0.25 * ratio)
	if conf > 0.95 {
		conf = 0.95
	}
	if cur.Bullish() {
		return pattern(0.6, conf, fmt.Sprintf("bullish engulfing %.1fx prior body", ratio))
	}
	return pattern(-0.6, conf, fmt.Sprintf("bearish engulfing %.1fx prior body", ratio))
}

// darkCloudOrPiercing: a gap open against the prior bar that closes past the
// midpoint of its body. Deeper penetration means higher confidence.
func (c *Candlestick) darkCloudOrPiercing(prev, cur types.CandleBar) (types.FactorSignal, bool) {
	if prev.Body() <= 0 {
		return types.FactorSignal{}, false
	}
	mid := (prev.Open + prev.Close) / 2
	if prev.Bullish() && !cur.Bullish() &&
		cur.Open > prev.High && cur.Close < mid && cur.Close > prev.Open {
		pen := (mid - cur.Close) / (mid - prev.Open)
		return pattern(-0.6, 0.4+0.5*clamp01(pen), "dark cloud cover")
	}
	if !prev.Bullish() && cur.Bullish() &&
		cur.Open < prev.Low && cur.Close > mid && cur.Close < prev.Open {
		pen := (cur.Close - mid) / (prev.Open - mid)
		return pattern(0.6, 0.4+0.5*clamp01(pen), "piercing line")
	}
	return types.FactorSignal{}, false
}

// star: three-bar reversal. A long bar in trend direction, a small gapped
// middle bar, then a reversal bar closing past the first bar's midpoint.
func (c *Candlestick) star(b1, b2, b3 types.CandleBar, trend types.Trend) (types.FactorSignal, bool) {
	if b1.Body() <= 0 || b3.Body() <= 0 || b2.Body() > 0.3*b1.Body() {
		return types.FactorSignal{}, false
	}
	mid1 := (b1.Open + b1.Close) / 2
	b1Top, b1Bot := bodyEdges(b1)
	b2Top, b2Bot := bodyEdges(b2)

	// Morning star: decline, gap down, bullish recovery.
	if trend == types.TrendDown && !b1.Bullish() && b3.Bullish() &&
		b2Top < b1Bot && b3.Close > mid1 {
		recovery := clamp01((b3.Close - mid1) / (b1.Open - mid1))
		return pattern(0.8, 0.5+0.45*recovery, "morning star")
	}
	// Evening star: advance, gap up, bearish collapse.
	if trend == types.TrendUp && b1.Bullish() && !b3.Bullish() &&
		b2Bot > b1Top && b3.Close < mid1 {
		collapse := clamp01((mid1 - b3.Close) / (mid1 - b1.Open))
		return pattern(-0.8, 0.5+0.45*collapse, "evening star")
	}
	return types.FactorSignal{}, false
}

func bodyEdges(b types.CandleBar) (top, bot float64) {
	if b.Close > b.Open {
		return b.Close, b.Open
	}
	return b.Open, b.Close
}
