// Package factors holds the analyzers that feed the decision engine. Each
// analyzer is one independent analytical dimension; an analyzer that cannot
// produce a signal this cycle reports ErrInsufficientData and the engine
// omits the factor instead of failing the cycle.
package factors

import "errors"

// ErrInsufficientData marks an analyzer-local shortage of input. It never
// escalates past the engine's collect step.
var ErrInsufficientData = errors.New("insufficient data for factor")

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
