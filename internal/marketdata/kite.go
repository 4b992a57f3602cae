package marketdata

import (
	"context"
	"fmt"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"trade-advisor/internal/types"
)

// KiteAdapter normalizes Zerodha Kite full quotes into the canonical shape.
type KiteAdapter struct {
	kc       *kiteconnect.Client
	exchange string
}

func NewKiteAdapter(apiKey, accessToken, exchange string) *KiteAdapter {
	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	if exchange == "" {
		exchange = "NSE"
	}
	return &KiteAdapter{kc: kc, exchange: exchange}
}

func (a *KiteAdapter) Name() string { return "kite" }

func (a *KiteAdapter) FetchQuote(ctx context.Context, symbol string) (types.Quote, error) {
	instrument := a.exchange + ":" + symbol

	// The Kite client has no context support; run the call on the side so
	// the manager's timeout still bounds it.
	type result struct {
		quotes kiteconnect.Quote
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		q, err := a.kc.GetQuote(instrument)
		ch <- result{quotes: q, err: err}
	}()

	select {
	case <-ctx.Done():
		return types.Quote{}, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return types.Quote{}, fmt.Errorf("kite quote %s: %w", instrument, res.err)
		}
		q, ok := res.quotes[instrument]
		if !ok {
			return types.Quote{}, fmt.Errorf("kite quote %s: instrument missing from response", instrument)
		}

		out := types.Quote{
			Symbol:     symbol,
			Last:       q.LastPrice,
			Volume:     float64(q.Volume),
			Provider:   a.Name(),
			CapturedAt: q.Timestamp.Time,
		}
		if len(q.Depth.Buy) > 0 {
			out.Bid = q.Depth.Buy[0].Price
		}
		if len(q.Depth.Sell) > 0 {
			out.Ask = q.Depth.Sell[0].Price
		}
		if out.CapturedAt.IsZero() {
			out.CapturedAt = q.LastTradeTime.Time
		}
		return out, nil
	}
}
