package factors

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"trade-advisor/internal/ta"
	"trade-advisor/internal/types"
)

// Technical blends RSI, moving-average posture, MACD and volume confirmation
// into one weighted sub-score. Pure computation, no I/O.
type Technical struct {
	rsiPeriod        int
	maFast           int
	maSlow           int
	macdFast         int
	macdSlow         int
	macdSignalPeriod int
	volumeWindow     int

	wRSI    float64
	wMA     float64
	wMACD   float64
	wVolume float64
}

// TechnicalParams carries the indicator periods and sub-signal weights.
type TechnicalParams struct {
	RSIPeriod    int
	MAFast       int
	MASlow       int
	MACDFast     int
	MACDSlow     int
	MACDSignal   int
	VolumeWindow int
	WeightRSI    float64
	WeightMA     float64
	WeightMACD   float64
	WeightVolume float64
}

func NewTechnical(p TechnicalParams) *Technical {
	return &Technical{
		rsiPeriod:        p.RSIPeriod,
		maFast:           p.MAFast,
		maSlow:           p.MASlow,
		macdFast:         p.MACDFast,
		macdSlow:         p.MACDSlow,
		macdSignalPeriod: p.MACDSignal,
		volumeWindow:     p.VolumeWindow,
		wRSI:             p.WeightRSI,
		wMA:              p.WeightMA,
		wMACD:            p.WeightMACD,
		wVolume:          p.WeightVolume,
	}
}

func (t *Technical) Name() string { return "technical" }

// minBars is the shortest series that lets every sub-indicator resolve.
func (t *Technical) minBars() int {
	need := t.maSlow + 1
	if m := t.macdSlow + t.macdSignalPeriod; m > need {
		need = m
	}
	if m := t.rsiPeriod + 1; m > need {
		need = m
	}
	if m := t.volumeWindow + 1; m > need {
		need = m
	}
	return need
}

func (t *Technical) Analyze(ctx context.Context, snap types.MarketSnapshot) ([]types.FactorSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(snap.Bars) < t.minBars() {
		return nil, fmt.Errorf("%w: technical needs %d bars, have %d", ErrInsufficientData, t.minBars(), len(snap.Bars))
	}
	closes := make([]float64, len(snap.Bars))
	vols := make([]float64, len(snap.Bars))
	for i, b := range snap.Bars {
		closes[i] = b.Close
		vols[i] = b.Volume
	}

	var notes []string
	rsiScore, rsiConf, rsiNote := t.rsiSignal(closes)
	maScore, maConf, maNote := t.maSignal(closes)
	macdScore, macdConf, macdNote := t.macdSignal(closes)

	base := t.wRSI*rsiScore + t.wMA*maScore + t.wMACD*macdScore
	volScore, volConf, dryUp, volNote := t.volumeSignal(closes, vols, sign(base))

	score := base + t.wVolume*volScore
	conf := t.wRSI*rsiConf + t.wMA*maConf + t.wMACD*macdConf + t.wVolume*volConf
	if dryUp {
		// Thin volume halves conviction rather than flipping direction.
		score *= 0.5
		conf *= 0.5
	}
	score = clamp(score, -1, 1)
	conf = clamp01(conf)

	notes = append(notes, rsiNote, maNote, macdNote, volNote)
	return []types.FactorSignal{{
		Factor:     t.Name(),
		Signal:     types.SignalFromScore(score),
		Score:      score,
		Confidence: conf,
		Rationale:  strings.Join(notes, "; "),
		Ts:         time.Now().UTC(),
	}}, nil
}

// rsiSignal treats >70 as overbought (sell-leaning) and <30 as oversold
// (buy-leaning), with conviction growing toward the extremes.
func (t *Technical) rsiSignal(closes []float64) (score, conf float64, note string) {
	rsi := ta.RSI(closes, t.rsiPeriod)
	if math.IsNaN(rsi) {
		return 0, 0, "rsi unavailable"
	}
	dist := math.Abs(rsi-50) / 30 // saturates at 20/80
	switch {
	case rsi > 70:
		conf = clamp01(dist)
		return -conf, conf, fmt.Sprintf("RSI %.1f overbought", rsi)
	case rsi < 30:
		conf = clamp01(dist)
		return conf, conf, fmt.Sprintf("RSI %.1f oversold", rsi)
	default:
		return 0, clamp01(dist) * 0.5, fmt.Sprintf("RSI %.1f neutral", rsi)
	}
}

// maSignal ranks the fast/slow average posture, with a fresh crossover as
// the strongest reading.
func (t *Technical) maSignal(closes []float64) (score, conf float64, note string) {
	fast := ta.SMA(closes, t.maFast)
	slow := ta.SMA(closes, t.maSlow)
	prevFast := ta.SMA(closes[:len(closes)-1], t.maFast)
	prevSlow := ta.SMA(closes[:len(closes)-1], t.maSlow)
	if math.IsNaN(fast) || math.IsNaN(slow) || math.IsNaN(prevFast) || math.IsNaN(prevSlow) {
		return 0, 0, "ma unavailable"
	}
	price := closes[len(closes)-1]
	switch {
	case prevFast <= prevSlow && fast > slow:
		return 1.0, 0.9, fmt.Sprintf("golden cross MA%d/MA%d", t.maFast, t.maSlow)
	case prevFast >= prevSlow && fast < slow:
		return -1.0, 0.9, fmt.Sprintf("death cross MA%d/MA%d", t.maFast, t.maSlow)
	case fast > slow && price > fast:
		return 0.8, 0.7, fmt.Sprintf("price above MA%d above MA%d", t.maFast, t.maSlow)
	case fast > slow:
		return 0.5, 0.5, fmt.Sprintf("MA%d above MA%d", t.maFast, t.maSlow)
	case fast < slow && price < fast:
		return -0.8, 0.7, fmt.Sprintf("price below MA%d below MA%d", t.maFast, t.maSlow)
	case fast < slow:
		return -0.5, 0.5, fmt.Sprintf("MA%d below MA%d", t.maFast, t.maSlow)
	default:
		return 0, 0.3, "moving averages flat"
	}
}

func (t *Technical) macdSignal(closes []float64) (score, conf float64, note string) {
	macd, sig := ta.MACDSeries(closes, t.macdFast, t.macdSlow, t.macdSignalPeriod)
	last := len(closes) - 1
	histNow := macd[last] - sig[last]
	histPrev := macd[last-1] - sig[last-1]
	if math.IsNaN(histNow) || math.IsNaN(histPrev) {
		return 0, 0, "macd unavailable"
	}
	dir := sign(histNow)
	crossed := histPrev != 0 && sign(histPrev) != dir && dir != 0
	widening := math.Abs(histNow) > math.Abs(histPrev)
	switch {
	case crossed:
		return dir * 0.9, 0.85, fmt.Sprintf("MACD signal cross, histogram %.4f", histNow)
	case dir != 0 && widening:
		return dir * 0.65, 0.7, fmt.Sprintf("MACD histogram widening %.4f", histNow)
	case dir != 0:
		return dir * 0.5, 0.55, fmt.Sprintf("MACD histogram %.4f", histNow)
	default:
		return 0, 0.3, "MACD flat"
	}
}

// volumeSignal confirms the blended direction on heavy volume (>1.5x the
// trailing average) and flags a dried-up tape (<0.5x) for dampening.
func (t *Technical) volumeSignal(closes, vols []float64, baseDir float64) (score, conf float64, dryUp bool, note string) {
	avg := ta.AvgVolume(vols, t.volumeWindow)
	cur := vols[len(vols)-1]
	if math.IsNaN(avg) || avg <= 0 {
		return 0, 0, false, "volume unavailable"
	}
	ratio := cur / avg
	priceDir := sign(closes[len(closes)-1] - closes[len(closes)-2])
	switch {
	case ratio > 1.5 && priceDir != 0 && priceDir == baseDir:
		return priceDir * clamp01(ratio-1), clamp01(ratio / 2), false, fmt.Sprintf("volume %.1fx confirms move", ratio)
	case ratio > 1.5:
		// Heavy volume against the blend: no directional credit.
		return 0, 0.4, false, fmt.Sprintf("volume %.1fx without confirmation", ratio)
	case ratio < 0.5:
		return 0, 0.4, true, fmt.Sprintf("volume dried up at %.1fx", ratio)
	default:
		return 0, 0.3, false, fmt.Sprintf("volume %.1fx normal", ratio)
	}
}
