package store

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig describes one quote provider entry. Lower Priority ranks
// first. Credentials are read from the environment, never from YAML.
type ProviderConfig struct {
	Name       string  `yaml:"name"`     // kite | binance | wsfeed
	Priority   int     `yaml:"priority"` // 1 = preferred
	RatePerSec float64 `yaml:"rate_per_sec"`
	Exchange   string  `yaml:"exchange"` // kite only
	URL        string  `yaml:"url"`      // wsfeed only
}

type Config struct {
	PollSeconds int      `yaml:"poll_seconds"`
	Universe    []string `yaml:"universe"`
	MetricsAddr string   `yaml:"metrics_addr"`

	Providers struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
		Cooldown       struct {
			ErrorThreshold int `yaml:"error_threshold"`
			BaseSeconds    int `yaml:"base_seconds"`
			MaxSeconds     int `yaml:"max_seconds"`
		} `yaml:"cooldown"`
		List []ProviderConfig `yaml:"list"`
	} `yaml:"providers"`

	Freshness struct {
		RealTimeSeconds int `yaml:"real_time_seconds"`
		FreshSeconds    int `yaml:"fresh_seconds"`
		StaleSeconds    int `yaml:"stale_seconds"`
	} `yaml:"freshness"`

	Factors struct {
		Weights                map[string]float64 `yaml:"weights"`
		StaleConfidencePenalty float64            `yaml:"stale_confidence_penalty"`
	} `yaml:"factors"`

	Indicators struct {
		RSIPeriod    int `yaml:"rsi_period"`
		MAFast       int `yaml:"ma_fast"`
		MASlow       int `yaml:"ma_slow"`
		MACDFast     int `yaml:"macd_fast"`
		MACDSlow     int `yaml:"macd_slow"`
		MACDSignal   int `yaml:"macd_signal"`
		VolumeWindow int `yaml:"volume_window"`
		SubWeights   struct {
			RSI    float64 `yaml:"rsi"`
			MA     float64 `yaml:"ma"`
			MACD   float64 `yaml:"macd"`
			Volume float64 `yaml:"volume"`
		} `yaml:"sub_weights"`
	} `yaml:"indicators"`

	Patterns struct {
		DojiBodyMax     float64 `yaml:"doji_body_max"`
		PinBodyMax      float64 `yaml:"pin_body_max"`
		PinShadowMin    float64 `yaml:"pin_shadow_min"`
		PinOppShadowMax float64 `yaml:"pin_opp_shadow_max"`
		TrendLookback   int     `yaml:"trend_lookback"`
		TrendMinMovePct float64 `yaml:"trend_min_move_pct"`
	} `yaml:"patterns"`

	Risk struct {
		VolatilityWeight   float64 `yaml:"volatility_weight"`
		VolumeWeight       float64 `yaml:"volume_weight"`
		DisagreementWeight float64 `yaml:"disagreement_weight"`
		VolatilityWindow   int     `yaml:"volatility_window"`
	} `yaml:"risk"`

	Sizing struct {
		ConfidenceFactor float64 `yaml:"confidence_factor"`
		MaxPosition      float64 `yaml:"max_position"`
	} `yaml:"sizing"`

	News struct {
		Enabled        bool `yaml:"enabled"`
		MaxArticles    int  `yaml:"max_articles"`
		MinArticles    int  `yaml:"min_articles"`
		TimeoutSeconds int  `yaml:"timeout_seconds"`
	} `yaml:"news"`

	Social struct {
		Enabled     bool `yaml:"enabled"`
		MinMentions int  `yaml:"min_mentions"`
	} `yaml:"social"`
}

// AdapterTimeout returns the bounded per-adapter call timeout.
func (c *Config) AdapterTimeout() time.Duration {
	return time.Duration(c.Providers.TimeoutSeconds) * time.Second
}

func (c *Config) Validate() error {
	if len(c.Universe) == 0 {
		return errors.New("universe cannot be empty")
	}
	if len(c.Providers.List) == 0 {
		return errors.New("providers.list cannot be empty")
	}
	for _, p := range c.Providers.List {
		switch p.Name {
		case "kite", "binance", "wsfeed":
		default:
			return fmt.Errorf("unknown provider '%s': must be 'kite', 'binance' or 'wsfeed'", p.Name)
		}
	}
	if c.Providers.TimeoutSeconds <= 0 {
		return fmt.Errorf("providers.timeout_seconds must be positive, got %d", c.Providers.TimeoutSeconds)
	}
	if c.Providers.Cooldown.ErrorThreshold <= 0 {
		return fmt.Errorf("providers.cooldown.error_threshold must be positive, got %d", c.Providers.Cooldown.ErrorThreshold)
	}
	f := c.Freshness
	if !(f.RealTimeSeconds < f.FreshSeconds && f.FreshSeconds < f.StaleSeconds) {
		return fmt.Errorf("freshness boundaries must be strictly increasing, got %d/%d/%d",
			f.RealTimeSeconds, f.FreshSeconds, f.StaleSeconds)
	}
	sum := 0.0
	for name, w := range c.Factors.Weights {
		if w < 0 {
			return fmt.Errorf("factor weight for '%s' must be non-negative, got %.2f", name, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("factor weights must sum to 1.0, got %.4f", sum)
	}
	if p := c.Factors.StaleConfidencePenalty; p < 0 || p > 1 {
		return fmt.Errorf("factors.stale_confidence_penalty must be in [0,1], got %.2f", p)
	}
	if c.Sizing.MaxPosition <= 0 || c.Sizing.MaxPosition > 1 {
		return fmt.Errorf("sizing.max_position must be in (0,1], got %.2f", c.Sizing.MaxPosition)
	}
	rw := c.Risk.VolatilityWeight + c.Risk.VolumeWeight + c.Risk.DisagreementWeight
	if math.Abs(rw-1.0) > 1e-6 {
		return fmt.Errorf("risk blend weights must sum to 1.0, got %.4f", rw)
	}
	return nil
}

// Default returns a fully-populated configuration with the documented
// defaults. LoadConfig starts from this and overlays the YAML file.
func Default() *Config {
	c := &Config{}
	c.PollSeconds = 30
	c.MetricsAddr = ":9100"

	c.Providers.TimeoutSeconds = 5
	c.Providers.Cooldown.ErrorThreshold = 3
	c.Providers.Cooldown.BaseSeconds = 5
	c.Providers.Cooldown.MaxSeconds = 300

	c.Freshness.RealTimeSeconds = 60
	c.Freshness.FreshSeconds = 300
	c.Freshness.StaleSeconds = 900

	c.Factors.Weights = map[string]float64{
		"technical":   0.30,
		"candlestick": 0.20,
		"fundamental": 0.20,
		"news":        0.15,
		"social":      0.15,
	}
	c.Factors.StaleConfidencePenalty = 1.0 // warn only by default

	c.Indicators.RSIPeriod = 14
	c.Indicators.MAFast = 20
	c.Indicators.MASlow = 50
	c.Indicators.MACDFast = 12
	c.Indicators.MACDSlow = 26
	c.Indicators.MACDSignal = 9
	c.Indicators.VolumeWindow = 20
	c.Indicators.SubWeights.RSI = 0.20
	c.Indicators.SubWeights.MA = 0.35
	c.Indicators.SubWeights.MACD = 0.30
	c.Indicators.SubWeights.Volume = 0.15

	c.Patterns.DojiBodyMax = 0.10
	c.Patterns.PinBodyMax = 0.30
	c.Patterns.PinShadowMin = 0.60
	c.Patterns.PinOppShadowMax = 0.10
	c.Patterns.TrendLookback = 5
	c.Patterns.TrendMinMovePct = 1.0

	c.Risk.VolatilityWeight = 0.40
	c.Risk.VolumeWeight = 0.30
	c.Risk.DisagreementWeight = 0.30
	c.Risk.VolatilityWindow = 20

	c.Sizing.ConfidenceFactor = 0.5
	c.Sizing.MaxPosition = 0.25

	c.News.Enabled = true
	c.News.MaxArticles = 15
	c.News.MinArticles = 3
	c.News.TimeoutSeconds = 30

	c.Social.Enabled = true
	c.Social.MinMentions = 10
	return c
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}
