package marketdata

import (
	"errors"
	"fmt"
)

// ErrNoLiveData is returned when every ranked provider failed or returned
// expired data. There is deliberately no synthetic fallback behind it.
var ErrNoLiveData = errors.New("no live data available")

// Provider error kinds, recorded against ProviderHealth and never surfaced
// per-call: failover handles them.
const (
	KindTimeout = "timeout"
	KindError   = "error"
	KindBadData = "bad_data"
)

// ProviderError wraps one adapter failure with its kind for diagnostics.
type ProviderError struct {
	Provider string
	Kind     string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
