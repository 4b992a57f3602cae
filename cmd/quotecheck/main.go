// quotecheck fetches one quote through the full failover chain and prints
// it as JSON. Handy for verifying provider credentials and ranking.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"trade-advisor/internal/interfaces"
	"trade-advisor/internal/logger"
	"trade-advisor/internal/marketdata"
	"trade-advisor/internal/store"
)

func main() {
	symbol := flag.String("symbol", "", "symbol to quote (required)")
	cfgPath := flag.String("config", "config.yaml", "config file path")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	if *symbol == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	cfg, err := store.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var adapters []interfaces.QuoteAdapter
	entries := make([]marketdata.ProviderEntry, 0, len(cfg.Providers.List))
	for _, p := range cfg.Providers.List {
		entries = append(entries, marketdata.ProviderEntry{Name: p.Name, Priority: p.Priority})
		switch p.Name {
		case "kite":
			adapters = append(adapters, marketdata.NewKiteAdapter(
				os.Getenv("KITE_API_KEY"), os.Getenv("KITE_ACCESS_TOKEN"), p.Exchange))
		case "binance":
			adapters = append(adapters, marketdata.NewBinanceAdapter(
				os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_SECRET_KEY")))
		case "wsfeed":
			feed := marketdata.NewWSFeed(p.URL)
			go feed.Run(ctx)
			adapters = append(adapters, feed)
		}
	}

	monitor := marketdata.NewMonitor(marketdata.MonitorConfigFrom(cfg), entries)
	manager := marketdata.NewManager(cfg, monitor, adapters)

	quote, freshness, err := manager.GetQuote(ctx, *symbol)
	if err != nil {
		log.Fatalf("quote for %s: %v", *symbol, err)
	}

	out := struct {
		Quote     any    `json:"quote"`
		Freshness string `json:"freshness"`
	}{Quote: quote, Freshness: freshness.String()}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(b))
}
