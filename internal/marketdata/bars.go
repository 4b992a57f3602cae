package marketdata

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adshao/go-binance/v2"

	"trade-advisor/internal/types"
)

// BinanceBars serves closed OHLC history from Binance klines.
type BinanceBars struct {
	client   *binance.Client
	interval string
}

// NewBinanceBars builds a bar provider. interval follows Binance notation
// ("1d", "1h", ...); empty defaults to daily.
func NewBinanceBars(apiKey, secret, interval string) *BinanceBars {
	if interval == "" {
		interval = "1d"
	}
	return &BinanceBars{client: binance.NewClient(apiKey, secret), interval: interval}
}

func (b *BinanceBars) RecentBars(ctx context.Context, symbol string, n int) ([]types.CandleBar, error) {
	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(b.interval).
		Limit(n + 1). // the newest kline may still be forming
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines for %s: %w", symbol, err)
	}

	bars := make([]types.CandleBar, 0, len(klines))
	for _, k := range klines {
		bar, err := barFromKline(k)
		if err != nil {
			return nil, fmt.Errorf("binance kline for %s: %w", symbol, err)
		}
		bars = append(bars, bar)
	}
	// Drop the still-forming bar so analyzers only see closed periods.
	if len(bars) > n {
		bars = bars[:n]
	}
	return bars, nil
}

func barFromKline(k *binance.Kline) (types.CandleBar, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return types.CandleBar{}, fmt.Errorf("bad open %q: %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return types.CandleBar{}, fmt.Errorf("bad high %q: %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return types.CandleBar{}, fmt.Errorf("bad low %q: %w", k.Low, err)
	}
	closeP, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return types.CandleBar{}, fmt.Errorf("bad close %q: %w", k.Close, err)
	}
	vol, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return types.CandleBar{}, fmt.Errorf("bad volume %q: %w", k.Volume, err)
	}
	return types.CandleBar{
		Ts: k.OpenTime, Open: open, High: high, Low: low, Close: closeP, Volume: vol,
	}, nil
}
