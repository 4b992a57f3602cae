package factors

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"trade-advisor/internal/types"
)

// MetricsSource supplies per-company fundamentals. Implementations may hit
// an external API or read an operator-maintained file.
type MetricsSource interface {
	CompanyMetrics(ctx context.Context, symbol string) (types.CompanyMetrics, error)
}

// Fundamental scores valuation, growth, profitability and leverage on
// piecewise curves and averages whichever components are present.
type Fundamental struct {
	src MetricsSource
}

func NewFundamental(src MetricsSource) *Fundamental {
	return &Fundamental{src: src}
}

func (f *Fundamental) Name() string { return "fundamental" }

func (f *Fundamental) Analyze(ctx context.Context, snap types.MarketSnapshot) ([]types.FactorSignal, error) {
	if f.src == nil {
		return nil, fmt.Errorf("%w: no fundamentals source configured", ErrInsufficientData)
	}
	m, err := f.src.CompanyMetrics(ctx, snap.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: fundamentals fetch: %v", ErrInsufficientData, err)
	}

	var sum float64
	var notes []string
	n := 0
	add := func(s float64, note string) {
		sum += s
		n++
		notes = append(notes, note)
	}

	if m.PERatio > 0 {
		add(scorePE(m.PERatio), fmt.Sprintf("P/E %.1f", m.PERatio))
	}
	if m.EPSGrowth != 0 {
		add(clamp(m.EPSGrowth/50, -1, 1), fmt.Sprintf("EPS growth %.1f%%", m.EPSGrowth))
	}
	if m.RevenueGrowth != 0 {
		add(clamp(m.RevenueGrowth/40, -1, 1), fmt.Sprintf("revenue growth %.1f%%", m.RevenueGrowth))
	}
	if m.ProfitMargin != 0 {
		add(scoreMargin(m.ProfitMargin), fmt.Sprintf("margin %.1f%%", m.ProfitMargin))
	}
	if m.DebtToEquity > 0 {
		add(scoreLeverage(m.DebtToEquity), fmt.Sprintf("D/E %.2f", m.DebtToEquity))
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no usable fundamental metrics for %s", ErrInsufficientData, snap.Symbol)
	}

	score := clamp(sum/float64(n), -1, 1)
	conf := clamp01(0.4 + 0.1*float64(n)) // more populated metrics, more trust
	return []types.FactorSignal{{
		Factor:     f.Name(),
		Signal:     types.SignalFromScore(score),
		Score:      score,
		Confidence: conf,
		Rationale:  strings.Join(notes, "; "),
		Ts:         time.Now().UTC(),
	}}, nil
}

// scorePE rewards cheap earnings and penalizes rich multiples, flattening
// between the bands.
func scorePE(pe float64) float64 {
	switch {
	case pe < 12:
		return 0.6
	case pe <= 25:
		return 0.2
	case pe <= 40:
		return -0.2
	default:
		return -0.6
	}
}

func scoreMargin(pct float64) float64 {
	switch {
	case pct < 0:
		return -0.7
	case pct < 5:
		return -0.2
	case pct < 15:
		return 0.2
	default:
		return 0.6
	}
}

func scoreLeverage(de float64) float64 {
	switch {
	case de < 0.5:
		return 0.3
	case de <= 2:
		return 0
	default:
		return -0.6
	}
}

// FileMetricsSource serves fundamentals from an operator-maintained YAML
// file keyed by symbol. Useful where no fundamentals API is wired.
type FileMetricsSource struct {
	metrics map[string]types.CompanyMetrics
}

func NewFileMetricsSource(path string) (*FileMetricsSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := map[string]types.CompanyMetrics{}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parsing fundamentals file %s: %w", path, err)
	}
	return &FileMetricsSource{metrics: m}, nil
}

func (s *FileMetricsSource) CompanyMetrics(_ context.Context, symbol string) (types.CompanyMetrics, error) {
	m, ok := s.metrics[symbol]
	if !ok {
		return types.CompanyMetrics{}, fmt.Errorf("no fundamentals on file for %s", symbol)
	}
	m.Symbol = symbol
	return m, nil
}
