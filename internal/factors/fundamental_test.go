package factors

import (
	"context"
	"errors"
	"testing"

	"trade-advisor/internal/types"
)

type stubMetrics struct {
	m   types.CompanyMetrics
	err error
}

func (s stubMetrics) CompanyMetrics(context.Context, string) (types.CompanyMetrics, error) {
	return s.m, s.err
}

func TestFundamentalStrongCompany(t *testing.T) {
	f := NewFundamental(stubMetrics{m: types.CompanyMetrics{
		PERatio: 10, EPSGrowth: 40, RevenueGrowth: 30, ProfitMargin: 20, DebtToEquity: 0.3,
	}})
	sigs, err := f.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	s := sigs[0]
	if s.Score <= 0.3 {
		t.Errorf("score = %.3f, want > 0.3 for cheap, growing, profitable, unlevered", s.Score)
	}
	if s.Confidence != 0.9 {
		t.Errorf("confidence = %.2f, want 0.9 with all five metrics present", s.Confidence)
	}
}

func TestFundamentalWeakCompany(t *testing.T) {
	f := NewFundamental(stubMetrics{m: types.CompanyMetrics{
		PERatio: 80, EPSGrowth: -30, RevenueGrowth: -20, ProfitMargin: -5, DebtToEquity: 3,
	}})
	sigs, err := f.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if sigs[0].Score >= -0.3 {
		t.Errorf("score = %.3f, want < -0.3 for expensive, shrinking, loss-making, levered", sigs[0].Score)
	}
}

func TestFundamentalPartialMetrics(t *testing.T) {
	f := NewFundamental(stubMetrics{m: types.CompanyMetrics{PERatio: 10, EPSGrowth: 40}})
	sigs, err := f.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	full := NewFundamental(stubMetrics{m: types.CompanyMetrics{
		PERatio: 10, EPSGrowth: 40, RevenueGrowth: 30, ProfitMargin: 20, DebtToEquity: 0.3,
	}})
	fullSigs, _ := full.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"})
	if sigs[0].Confidence >= fullSigs[0].Confidence {
		t.Errorf("partial metrics confidence %.2f not below full %.2f", sigs[0].Confidence, fullSigs[0].Confidence)
	}
}

func TestFundamentalNoMetrics(t *testing.T) {
	f := NewFundamental(stubMetrics{m: types.CompanyMetrics{}})
	if _, err := f.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestFundamentalSourceError(t *testing.T) {
	f := NewFundamental(stubMetrics{err: errors.New("upstream down")})
	if _, err := f.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData (factor sits out, cycle continues)", err)
	}
}

func TestFundamentalNilSource(t *testing.T) {
	f := NewFundamental(nil)
	if _, err := f.Analyze(context.Background(), types.MarketSnapshot{Symbol: "INFY"}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}
