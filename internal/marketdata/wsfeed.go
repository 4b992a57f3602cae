package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trade-advisor/internal/logger"
	"trade-advisor/internal/types"
)

// wsTick is the wire format pushed by the in-house quote feed.
type wsTick struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Last   float64 `json:"last"`
	Volume float64 `json:"volume"`
	Ts     int64   `json:"ts"` // unix milliseconds
}

// WSFeed is a push-based provider adapter: a background reader keeps the
// most recent tick per symbol and FetchQuote serves from that snapshot.
// Freshness classification downstream handles a feed that has gone quiet.
type WSFeed struct {
	url string

	mu     sync.RWMutex
	latest map[string]types.Quote
}

func NewWSFeed(url string) *WSFeed {
	return &WSFeed{
		url:    url,
		latest: make(map[string]types.Quote),
	}
}

func (f *WSFeed) Name() string { return "wsfeed" }

// Run dials the feed and consumes ticks until ctx is cancelled,
// reconnecting with backoff after read failures.
func (f *WSFeed) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
		if err != nil {
			logger.Warn(ctx, "Feed dial failed", "url", f.url, "error", err, "retry_in", backoff.String())
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		logger.Info(ctx, "Feed connected", "url", f.url)

		f.readLoop(ctx, conn)
		_ = conn.Close()
	}
}

func (f *WSFeed) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			logger.Warn(ctx, "Feed read failed", "error", err)
			return
		}
		var tick wsTick
		if err := json.Unmarshal(data, &tick); err != nil {
			logger.Debug(ctx, "Feed message skipped", "error", err)
			continue
		}
		f.ingest(tick)
	}
}

// ingest stores a tick, enforcing monotonic capture timestamps per symbol:
// an out-of-order tick never replaces a newer one.
func (f *WSFeed) ingest(tick wsTick) {
	if tick.Symbol == "" || tick.Last <= 0 {
		return
	}
	capturedAt := time.UnixMilli(tick.Ts)

	f.mu.Lock()
	defer f.mu.Unlock()
	if prev, ok := f.latest[tick.Symbol]; ok && capturedAt.Before(prev.CapturedAt) {
		return
	}
	f.latest[tick.Symbol] = types.Quote{
		Symbol:     tick.Symbol,
		Bid:        tick.Bid,
		Ask:        tick.Ask,
		Last:       tick.Last,
		Volume:     tick.Volume,
		Provider:   f.Name(),
		CapturedAt: capturedAt,
	}
}

func (f *WSFeed) FetchQuote(ctx context.Context, symbol string) (types.Quote, error) {
	f.mu.RLock()
	q, ok := f.latest[symbol]
	f.mu.RUnlock()
	if !ok {
		return types.Quote{}, fmt.Errorf("wsfeed: no tick received for %s", symbol)
	}
	return q, nil
}
