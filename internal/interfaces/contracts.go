package interfaces

import (
	"context"

	"trade-advisor/internal/types"
)

// QuoteAdapter normalizes one provider's raw quote payload into the
// canonical Quote shape. Implementations must respect ctx deadlines; the
// data manager bounds every call with a timeout.
type QuoteAdapter interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (types.Quote, error)
}

// BarProvider supplies recent OHLC history for the analyzers.
type BarProvider interface {
	RecentBars(ctx context.Context, symbol string, n int) ([]types.CandleBar, error)
}

// FactorAnalyzer is one independent analytical dimension. An analyzer that
// cannot produce a signal this cycle (insufficient data) returns
// factors.ErrInsufficientData; the engine omits the factor rather than
// failing. An analyzer may return more than one signal (candlestick
// patterns); all signals share the factor's configured weight.
type FactorAnalyzer interface {
	Name() string
	Analyze(ctx context.Context, snap types.MarketSnapshot) ([]types.FactorSignal, error)
}

// RiskMultiplier is the optional inbound hook for external tail-risk or
// liquidity collaborators. The value must be in [0,1]; it is multiplied
// into the final position size. With no collaborator wired the engine
// defaults the multiplier to 1.0.
type RiskMultiplier interface {
	Multiplier(ctx context.Context, symbol string) float64
}
