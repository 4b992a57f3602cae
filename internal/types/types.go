package types

import (
	"fmt"
	"time"
)

// Quote is the canonical normalized quote shape shared by all provider
// adapters. Contents are never mutated after the data manager returns it.
type Quote struct {
	Symbol     string    `json:"symbol"`
	Bid        float64   `json:"bid"`
	Ask        float64   `json:"ask"`
	Last       float64   `json:"last"`
	Volume     float64   `json:"volume"`
	Provider   string    `json:"provider"`
	CapturedAt time.Time `json:"captured_at"`
}

// Valid reports whether the quote satisfies bid <= last <= ask. A missing
// side (zero) is tolerated; a crossed book is not.
func (q Quote) Valid() bool {
	if q.Last <= 0 {
		return false
	}
	if q.Bid > 0 && q.Last < q.Bid {
		return false
	}
	if q.Ask > 0 && q.Last > q.Ask {
		return false
	}
	if q.Bid > 0 && q.Ask > 0 && q.Bid > q.Ask {
		return false
	}
	return true
}

// Freshness classifies how old a quote is at read time. Derived from the
// capture timestamp, never stored.
type Freshness int

const (
	RealTime Freshness = iota
	Fresh
	Stale   // usable, but callers get a warning event
	Expired // rejected by the data manager
)

func (f Freshness) String() string {
	switch f {
	case RealTime:
		return "REAL_TIME"
	case Fresh:
		return "FRESH"
	case Stale:
		return "STALE"
	default:
		return "EXPIRED"
	}
}

// Usable reports whether a quote of this freshness may be served.
func (f Freshness) Usable() bool { return f != Expired }

// CandleBar is one closed OHLC period. Bar sequences are immutable once
// closed; only the most recent bar of a live series may still be forming.
type CandleBar struct {
	Ts     int64   `json:"ts"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Body returns the absolute candle body size.
func (c CandleBar) Body() float64 {
	b := c.Close - c.Open
	if b < 0 {
		return -b
	}
	return b
}

// Range returns the total high-low range.
func (c CandleBar) Range() float64 { return c.High - c.Low }

// Bullish reports whether the bar closed above its open.
func (c CandleBar) Bullish() bool { return c.Close > c.Open }

// UpperShadow returns the wick above the body.
func (c CandleBar) UpperShadow() float64 {
	top := c.Open
	if c.Close > top {
		top = c.Close
	}
	return c.High - top
}

// LowerShadow returns the wick below the body.
func (c CandleBar) LowerShadow() float64 {
	bot := c.Open
	if c.Close < bot {
		bot = c.Close
	}
	return bot - c.Low
}

// Trend is the explicit preceding-trend context handed to pattern detection.
type Trend int

const (
	TrendFlat Trend = iota
	TrendUp
	TrendDown
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "UP"
	case TrendDown:
		return "DOWN"
	default:
		return "FLAT"
	}
}

// Signal labels. Each label has a fixed scalar in [-1,1] so factor signals
// can be aggregated numerically and mapped back via thresholds.
type Signal string

const (
	StrongBuy  Signal = "STRONG_BUY"
	Buy        Signal = "BUY"
	Hold       Signal = "HOLD"
	Sell       Signal = "SELL"
	StrongSell Signal = "STRONG_SELL"
)

// Scalar maps a signal label onto [-1,1].
func (s Signal) Scalar() float64 {
	switch s {
	case StrongBuy:
		return 1.0
	case Buy:
		return 0.5
	case Sell:
		return -0.5
	case StrongSell:
		return -1.0
	default:
		return 0.0
	}
}

// SignalFromScore maps an aggregate score in [-1,1] back to a label:
// >0.7 STRONG_BUY, >0.3 BUY, <-0.7 STRONG_SELL, <-0.3 SELL, else HOLD.
func SignalFromScore(score float64) Signal {
	switch {
	case score > 0.7:
		return StrongBuy
	case score > 0.3:
		return Buy
	case score < -0.7:
		return StrongSell
	case score < -0.3:
		return Sell
	default:
		return Hold
	}
}

// FactorSignal is one analyzer's contribution to a decision cycle. Produced
// fresh every cycle and never mutated after creation.
type FactorSignal struct {
	Factor     string    `json:"factor"`
	Signal     Signal    `json:"signal"`
	Score      float64   `json:"score"`      // signed scalar in [-1,1]
	Confidence float64   `json:"confidence"` // [0,1]
	Rationale  string    `json:"rationale"`
	Ts         time.Time `json:"ts"`
}

// Recommendation is the engine's sole output contract. Immutable once
// emitted; a new cycle produces a new Recommendation.
type Recommendation struct {
	Symbol       string         `json:"symbol"`
	Signal       Signal         `json:"signal"`
	Score        float64        `json:"score"`
	Confidence   float64        `json:"confidence"`
	Risk         float64        `json:"risk"`
	PositionSize float64        `json:"position_size"` // fraction of portfolio
	Factors      []FactorSignal `json:"factors"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// CompanyMetrics is the fundamental analyzer's input contract. Zero-valued
// fields are treated as absent.
type CompanyMetrics struct {
	Symbol        string  `json:"symbol"`
	PERatio       float64 `json:"pe_ratio"`
	EPSGrowth     float64 `json:"eps_growth"`     // YoY, percent
	RevenueGrowth float64 `json:"revenue_growth"` // YoY, percent
	ProfitMargin  float64 `json:"profit_margin"`  // percent
	DebtToEquity  float64 `json:"debt_to_equity"`
}

// NewsArticle is a raw scraped article before sentiment scoring.
type NewsArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Content     string    `json:"content"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// ScoredArticle is an article with a lexicon sentiment score attached.
type ScoredArticle struct {
	Article NewsArticle `json:"article"`
	Score   float64     `json:"score"` // [-1,1]
}

// SocialMention is one social post with a pre-computed sentiment score.
type SocialMention struct {
	Author string    `json:"author"`
	Text   string    `json:"text"`
	Score  float64   `json:"score"` // [-1,1]
	Ts     time.Time `json:"ts"`
}

// MarketSnapshot is the per-cycle input handed to every factor analyzer.
type MarketSnapshot struct {
	Symbol    string
	Quote     Quote
	Freshness Freshness
	Bars      []CandleBar
}

func (m MarketSnapshot) String() string {
	return fmt.Sprintf("%s last=%.2f bars=%d freshness=%s", m.Symbol, m.Quote.Last, len(m.Bars), m.Freshness)
}
