package marketdata

import (
	"time"

	"trade-advisor/internal/store"
	"trade-advisor/internal/types"
)

// FreshnessBounds holds the class boundaries. A quote younger than RealTime
// is REAL_TIME, younger than Fresh is FRESH, younger than Stale is STALE,
// anything at or past the Stale boundary is EXPIRED.
type FreshnessBounds struct {
	RealTime time.Duration
	Fresh    time.Duration
	Stale    time.Duration
}

// DefaultBounds are the documented 1/5/15 minute boundaries.
func DefaultBounds() FreshnessBounds {
	return FreshnessBounds{
		RealTime: time.Minute,
		Fresh:    5 * time.Minute,
		Stale:    15 * time.Minute,
	}
}

// BoundsFromConfig builds FreshnessBounds from the config surface.
func BoundsFromConfig(cfg *store.Config) FreshnessBounds {
	return FreshnessBounds{
		RealTime: time.Duration(cfg.Freshness.RealTimeSeconds) * time.Second,
		Fresh:    time.Duration(cfg.Freshness.FreshSeconds) * time.Second,
		Stale:    time.Duration(cfg.Freshness.StaleSeconds) * time.Second,
	}
}

// Classify derives the freshness class of a capture timestamp relative to
// now. Boundaries are half-open: age < bound. A capture timestamp in the
// future counts as REAL_TIME rather than going negative.
func Classify(capturedAt, now time.Time, b FreshnessBounds) types.Freshness {
	age := now.Sub(capturedAt)
	switch {
	case age < b.RealTime:
		return types.RealTime
	case age < b.Fresh:
		return types.Fresh
	case age < b.Stale:
		return types.Stale
	default:
		return types.Expired
	}
}
