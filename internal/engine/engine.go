// Package engine combines factor signals into one recommendation per
// symbol per cycle: collect, weigh, aggregate, score risk, size, emit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"trade-advisor/internal/factors"
	"trade-advisor/internal/interfaces"
	"trade-advisor/internal/logger"
	"trade-advisor/internal/metrics"
	"trade-advisor/internal/store"
	"trade-advisor/internal/ta"
	"trade-advisor/internal/types"
)

// ErrNoDecision means no factor produced a signal this cycle. The previous
// recommendation, if any, stays in effect; nothing is fabricated.
var ErrNoDecision = errors.New("no decision possible")

// MarketData is the slice of the data manager the engine depends on.
type MarketData interface {
	GetQuote(ctx context.Context, symbol string) (types.Quote, types.Freshness, error)
}

// Engine owns one advisory pipeline. Safe for concurrent Advise calls on
// different symbols.
type Engine struct {
	data      MarketData
	bars      interfaces.BarProvider
	analyzers []interfaces.FactorAnalyzer

	weights      map[string]float64
	stalePenalty float64
	needBars     int

	riskVolWeight    float64
	riskVolumeWeight float64
	riskDisagreement float64
	volWindow        int

	confidenceFactor float64
	maxPosition      float64
	multiplier       interfaces.RiskMultiplier

	mu   sync.Mutex
	prev map[string]types.Recommendation

	now func() time.Time
}

// Options carries the engine's optional collaborators.
type Options struct {
	Bars       interfaces.BarProvider
	Multiplier interfaces.RiskMultiplier
}

func New(cfg *store.Config, data MarketData, analyzers []interfaces.FactorAnalyzer, opts Options) *Engine {
	needBars := cfg.Indicators.MASlow + 1
	if n := cfg.Indicators.MACDSlow + cfg.Indicators.MACDSignal; n > needBars {
		needBars = n
	}
	return &Engine{
		data:             data,
		bars:             opts.Bars,
		analyzers:        analyzers,
		weights:          cfg.Factors.Weights,
		stalePenalty:     cfg.Factors.StaleConfidencePenalty,
		needBars:         needBars,
		riskVolWeight:    cfg.Risk.VolatilityWeight,
		riskVolumeWeight: cfg.Risk.VolumeWeight,
		riskDisagreement: cfg.Risk.DisagreementWeight,
		volWindow:        cfg.Risk.VolatilityWindow,
		confidenceFactor: cfg.Sizing.ConfidenceFactor,
		maxPosition:      cfg.Sizing.MaxPosition,
		multiplier:       opts.Multiplier,
		prev:             make(map[string]types.Recommendation),
		now:              time.Now,
	}
}

// Advise runs one full decision cycle for symbol. It returns ErrNoDecision
// when no factor can contribute, and propagates the data manager's error
// when no live quote exists: a recommendation is never built on nothing.
func (e *Engine) Advise(ctx context.Context, symbol string) (types.Recommendation, error) {
	timer := logger.StartOperation(ctx, "advise", "symbol", symbol)
	start := e.now()

	quote, freshness, err := e.data.GetQuote(ctx, symbol)
	if err != nil {
		timer.EndWithError(err)
		return types.Recommendation{}, err
	}

	snap := types.MarketSnapshot{Symbol: symbol, Quote: quote, Freshness: freshness}
	if e.bars != nil {
		bars, err := e.bars.RecentBars(ctx, symbol, e.needBars)
		if err != nil {
			logger.Warn(ctx, "Bar history unavailable, analyzers run quote-only", "symbol", symbol, "error", err.Error())
		} else {
			snap.Bars = bars
		}
	}

	signals, err := e.collect(ctx, snap)
	if err != nil {
		timer.EndWithError(err)
		return types.Recommendation{}, err
	}
	if freshness == types.Stale && e.stalePenalty < 1 {
		for i := range signals {
			signals[i].Confidence *= e.stalePenalty
		}
	}

	score, confidence, err := weigh(signals, e.weights)
	if err != nil {
		logger.NoDecision(ctx, symbol, "no factor produced a signal")
		metrics.NoDecisions.Inc()
		timer.EndWithError(err)
		return types.Recommendation{}, fmt.Errorf("%w: symbol %s", err, symbol)
	}

	risk := riskScore(riskInputs{
		bars:               snap.Bars,
		quote:              quote,
		signals:            signals,
		volWindow:          e.volWindow,
		volatilityWeight:   e.riskVolWeight,
		volumeWeight:       e.riskVolumeWeight,
		disagreementWeight: e.riskDisagreement,
	})

	mult := 1.0
	if e.multiplier != nil {
		mult = clamp01(e.multiplier.Multiplier(ctx, symbol))
	}
	signal := types.SignalFromScore(score)
	size := 0.0
	if signal != types.Hold {
		size = positionSize(confidence, risk, e.confidenceFactor, e.maxPosition, mult)
	}

	rec := types.Recommendation{
		Symbol:       symbol,
		Signal:       signal,
		Score:        score,
		Confidence:   confidence,
		Risk:         risk,
		PositionSize: size,
		Factors:      signals,
		GeneratedAt:  e.now().UTC(),
	}

	e.noteChange(ctx, rec)
	logger.Decision(ctx, symbol, string(rec.Signal), rec.Score, rec.Confidence, rec.Risk, rec.PositionSize,
		"factors", len(signals), "freshness", freshness.String())
	metrics.Recommendations.WithLabelValues(string(rec.Signal)).Inc()
	metrics.CycleDuration.WithLabelValues(symbol).Observe(e.now().Sub(start).Seconds())
	timer.End("signal", string(rec.Signal))
	return rec, nil
}

// collect fans the snapshot out to every analyzer and joins the results.
// Insufficient data and analyzer failures drop the factor; only context
// cancellation aborts the cycle.
func (e *Engine) collect(ctx context.Context, snap types.MarketSnapshot) ([]types.FactorSignal, error) {
	results := make([][]types.FactorSignal, len(e.analyzers))
	errs := make([]error, len(e.analyzers))

	var wg sync.WaitGroup
	for i, a := range e.analyzers {
		wg.Add(1)
		go func(i int, a interfaces.FactorAnalyzer) {
			defer wg.Done()
			results[i], errs[i] = a.Analyze(ctx, snap)
		}(i, a)
	}
	wg.Wait()

	var signals []types.FactorSignal
	for i, a := range e.analyzers {
		switch {
		case errs[i] == nil:
			signals = append(signals, results[i]...)
		case errors.Is(errs[i], context.Canceled) || errors.Is(errs[i], context.DeadlineExceeded):
			return nil, errs[i]
		case errors.Is(errs[i], factors.ErrInsufficientData):
			logger.Debug(ctx, "Factor sitting out", "factor", a.Name(), "symbol", snap.Symbol, "reason", errs[i].Error())
		default:
			logger.Warn(ctx, "Factor analyzer failed", "factor", a.Name(), "symbol", snap.Symbol, "error", errs[i].Error())
		}
	}
	return signals, nil
}

// noteChange logs signal flips against the previous cycle's recommendation.
func (e *Engine) noteChange(ctx context.Context, rec types.Recommendation) {
	e.mu.Lock()
	prev, had := e.prev[rec.Symbol]
	e.prev[rec.Symbol] = rec
	e.mu.Unlock()

	if had && prev.Signal != rec.Signal {
		logger.Info(ctx, "Recommendation changed", "symbol", rec.Symbol,
			"from", string(prev.Signal), "to", string(rec.Signal),
			"prev_score", prev.Score, "score", rec.Score)
	}
}

// weigh renormalizes the configured weights over the factors actually
// present and aggregates confidence-scaled scores. Deterministic for a
// given input set.
func weigh(signals []types.FactorSignal, weights map[string]float64) (score, confidence float64, err error) {
	if len(signals) == 0 {
		return 0, 0, ErrNoDecision
	}

	type bucket struct {
		scoreSum float64
		confSum  float64
		n        int
	}
	buckets := make(map[string]*bucket)
	for _, s := range signals {
		b, ok := buckets[s.Factor]
		if !ok {
			b = &bucket{}
			buckets[s.Factor] = b
		}
		b.scoreSum += s.Score * s.Confidence
		b.confSum += s.Confidence
		b.n++
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		if weights[name] > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return 0, 0, ErrNoDecision
	}
	sort.Strings(names)

	var weightSum, scoreSum, confSum float64
	for _, name := range names {
		b := buckets[name]
		w := weights[name]
		weightSum += w
		scoreSum += w * b.scoreSum / float64(b.n)
		confSum += w * b.confSum / float64(b.n)
	}
	return clamp(scoreSum/weightSum, -1, 1), clamp01(confSum / weightSum), nil
}

type riskInputs struct {
	bars               []types.CandleBar
	quote              types.Quote
	signals            []types.FactorSignal
	volWindow          int
	volatilityWeight   float64
	volumeWeight       float64
	disagreementWeight float64
}

// riskScore blends realized volatility, volume thinness and factor
// disagreement into [0,1]. Components without enough data sit at a neutral
// 0.5 rather than pretending calm.
func riskScore(in riskInputs) float64 {
	vol := 0.5
	thin := 0.5
	if len(in.bars) >= in.volWindow+1 {
		highs := make([]float64, len(in.bars))
		lows := make([]float64, len(in.bars))
		closes := make([]float64, len(in.bars))
		vols := make([]float64, len(in.bars))
		for i, b := range in.bars {
			highs[i] = b.High
			lows[i] = b.Low
			closes[i] = b.Close
			vols[i] = b.Volume
		}
		// 5% of price per bar saturates the volatility component.
		last := closes[len(closes)-1]
		if atr := ta.ATR(highs, lows, closes, in.volWindow); !math.IsNaN(atr) && last > 0 {
			vol = clamp01(atr / last / 0.05)
		} else if sd := ta.StdDev(ta.Returns(closes), in.volWindow); !math.IsNaN(sd) {
			vol = clamp01(sd / 0.05)
		}
		if avg := ta.AvgVolume(vols, in.volWindow); !math.IsNaN(avg) && avg > 0 {
			ratio := vols[len(vols)-1] / avg
			thin = clamp01(1 - ratio) // thin tape is hard to exit
		}
	}

	disagreement := 0.0
	if len(in.signals) > 1 {
		mean := 0.0
		for _, s := range in.signals {
			mean += s.Score
		}
		mean /= float64(len(in.signals))
		varSum := 0.0
		for _, s := range in.signals {
			d := s.Score - mean
			varSum += d * d
		}
		disagreement = clamp01(math.Sqrt(varSum / float64(len(in.signals))))
	}

	return clamp01(in.volatilityWeight*vol + in.volumeWeight*thin + in.disagreementWeight*disagreement)
}

// positionSize caps the confidence-scaled base at maxPosition, then scales
// it down by risk and by the external multiplier. Never negative, never
// above maxPosition.
func positionSize(confidence, risk, confidenceFactor, maxPosition, multiplier float64) float64 {
	base := confidence * confidenceFactor
	if base > maxPosition {
		base = maxPosition
	}
	size := base * (1 - clamp01(risk)) * clamp01(multiplier)
	if size < 0 {
		return 0
	}
	return size
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
