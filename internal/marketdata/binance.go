package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"trade-advisor/internal/types"
)

// BinanceAdapter normalizes Binance 24h ticker statistics into the
// canonical quote shape. One service call carries bid, ask, last and
// volume together.
type BinanceAdapter struct {
	client *binance.Client
}

func NewBinanceAdapter(apiKey, secretKey string) *BinanceAdapter {
	return &BinanceAdapter{client: binance.NewClient(apiKey, secretKey)}
}

func (a *BinanceAdapter) Name() string { return "binance" }

func (a *BinanceAdapter) FetchQuote(ctx context.Context, symbol string) (types.Quote, error) {
	stats, err := a.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return types.Quote{}, fmt.Errorf("binance ticker %s: %w", symbol, err)
	}
	if len(stats) == 0 {
		return types.Quote{}, fmt.Errorf("binance ticker %s: empty response", symbol)
	}
	s := stats[0]

	last, err := strconv.ParseFloat(s.LastPrice, 64)
	if err != nil {
		return types.Quote{}, fmt.Errorf("binance ticker %s: bad last price %q: %w", symbol, s.LastPrice, err)
	}
	bid, _ := strconv.ParseFloat(s.BidPrice, 64)
	ask, _ := strconv.ParseFloat(s.AskPrice, 64)
	vol, _ := strconv.ParseFloat(s.Volume, 64)

	capturedAt := time.Now()
	if s.CloseTime > 0 {
		capturedAt = time.UnixMilli(s.CloseTime)
	}

	return types.Quote{
		Symbol:     symbol,
		Bid:        bid,
		Ask:        ask,
		Last:       last,
		Volume:     vol,
		Provider:   a.Name(),
		CapturedAt: capturedAt,
	}, nil
}
