package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"trade-advisor/internal/engine"
	"trade-advisor/internal/factors"
	"trade-advisor/internal/interfaces"
	"trade-advisor/internal/logger"
	"trade-advisor/internal/marketdata"
	"trade-advisor/internal/metrics"
	"trade-advisor/internal/news"
	"trade-advisor/internal/store"
	"trade-advisor/internal/trace"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()
	must(logger.Init())
	if err := trace.Init(); err != nil {
		log.Printf("tracer init failed, continuing without spans: %v", err)
	}
	defer trace.Shutdown(context.Background())

	cfgPath := os.Getenv("ADVISOR_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := store.LoadConfig(cfgPath)
	must(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	adapters := buildAdapters(ctx, cfg)
	monitor := marketdata.NewMonitor(marketdata.MonitorConfigFrom(cfg), providerEntries(cfg))
	manager := marketdata.NewManager(cfg, monitor, adapters)

	eng := engine.New(cfg, manager, buildAnalyzers(ctx, cfg), engine.Options{
		Bars: marketdata.NewBinanceBars(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_SECRET_KEY"), os.Getenv("BINANCE_BAR_INTERVAL")),
	})

	metricsSrv := metrics.Serve(cfg.MetricsAddr)
	defer metricsSrv.Shutdown(context.Background())

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()

	logger.Info(ctx, "Advisor started", "universe", len(cfg.Universe), "providers", len(cfg.Providers.List))
	for {
		select {
		case <-tick.C:
			for _, sym := range cfg.Universe {
				rec, err := eng.Advise(ctx, sym)
				if err != nil {
					logger.Warn(ctx, "Cycle produced no recommendation", "symbol", sym, "error", err.Error())
					continue
				}
				b, _ := json.Marshal(rec)
				fmt.Println(string(b))
			}
		case <-sigc:
			logger.Info(ctx, "Shutting down")
			logger.Shutdown(context.Background())
			return
		case <-ctx.Done():
			return
		}
	}
}

func providerEntries(cfg *store.Config) []marketdata.ProviderEntry {
	entries := make([]marketdata.ProviderEntry, 0, len(cfg.Providers.List))
	for _, p := range cfg.Providers.List {
		entries = append(entries, marketdata.ProviderEntry{Name: p.Name, Priority: p.Priority})
	}
	return entries
}

func buildAdapters(ctx context.Context, cfg *store.Config) []interfaces.QuoteAdapter {
	var adapters []interfaces.QuoteAdapter
	for _, p := range cfg.Providers.List {
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
	return adapters
}

func buildAnalyzers(ctx context.Context, cfg *store.Config) []interfaces.FactorAnalyzer {
	ind := cfg.Indicators
	analyzers := []interfaces.FactorAnalyzer{
		factors.NewTechnical(factors.TechnicalParams{
			RSIPeriod: ind.RSIPeriod, MAFast: ind.MAFast, MASlow: ind.MASlow,
			MACDFast: ind.MACDFast, MACDSlow: ind.MACDSlow, MACDSignal: ind.MACDSignal,
			VolumeWindow: ind.VolumeWindow,
			WeightRSI:    ind.SubWeights.RSI, WeightMA: ind.SubWeights.MA,
			WeightMACD: ind.SubWeights.MACD, WeightVolume: ind.SubWeights.Volume,
		}),
		factors.NewCandlestick(factors.CandlestickParams{
			DojiBodyMax: cfg.Patterns.DojiBodyMax, PinBodyMax: cfg.Patterns.PinBodyMax,
			PinShadowMin: cfg.Patterns.PinShadowMin, PinOppShadowMax: cfg.Patterns.PinOppShadowMax,
			TrendLookback: cfg.Patterns.TrendLookback, TrendMinMovePct: cfg.Patterns.TrendMinMovePct,
		}),
	}

	if path := os.Getenv("FUNDAMENTALS_FILE"); path != "" {
		src, err := factors.NewFileMetricsSource(path)
		if err != nil {
			logger.ErrorWithErr(ctx, "Fundamentals file unusable, factor disabled", err, "path", path)
		} else {
			analyzers = append(analyzers, factors.NewFundamental(src))
		}
	}

	if cfg.News.Enabled {
		svc := news.NewService(&news.ServiceConfig{
			CacheDuration:  time.Hour,
			ScraperTimeout: time.Duration(cfg.News.TimeoutSeconds) * time.Second,
		})
		analyzers = append(analyzers, factors.NewNews(svc, cfg.News.MinArticles, cfg.News.MaxArticles))
	}

	// The social factor needs an external mention feed; without one wired
	// it would sit out every cycle, so it is only built when configured.
	return analyzers
}
