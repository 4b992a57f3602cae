package ta

import "math"

func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100.0
	}
	rs := (gain / float64(period)) / (loss / float64(period))
	return 100.0 - (100.0 / (1.0 + rs))
}

func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

func ATR(highs, lows, closes []float64, period int) float64 {
	if len(highs) != len(lows) || len(lows) != len(closes) {
		return math.NaN()
	}
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		tr := highs[i] - lows[i]
		if v := math.Abs(highs[i] - closes[i-1]); v > tr {
			tr = v
		}
		if v := math.Abs(lows[i] - closes[i-1]); v > tr {
			tr = v
		}
		sum += tr
	}
	return sum / float64(period)
}

// EMASeries returns the exponential moving average for every index that has
// enough history. Entries before index n-1 are NaN; the seed at n-1 is the
// simple average of the first n values.
func EMASeries(vals []float64, n int) []float64 {
	out := make([]float64, len(vals))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(vals) < n || n <= 0 {
		return out
	}
	seed := 0.0
	for i := 0; i < n; i++ {
		seed += vals[i]
	}
	out[n-1] = seed / float64(n)
	k := 2.0 / float64(n+1)
	for i := n; i < len(vals); i++ {
		out[i] = vals[i]*k + out[i-1]*(1-k)
	}
	return out
}

// MACDSeries computes the MACD line (fast EMA - slow EMA) and its signal
// line (EMA of the MACD line). Indexes without enough history are NaN.
func MACDSeries(closes []float64, fast, slow, signal int) (macd, sig []float64) {
	fastE := EMASeries(closes, fast)
	slowE := EMASeries(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fastE[i] - slowE[i]
	}
	// Signal EMA runs over the defined stretch of the MACD line only.
	start := slow - 1
	if start >= len(macd) {
		sig = make([]float64, len(closes))
		for i := range sig {
			sig[i] = math.NaN()
		}
		return macd, sig
	}
	tail := EMASeries(macd[start:], signal)
	sig = make([]float64, len(closes))
	for i := range sig {
		sig[i] = math.NaN()
	}
	copy(sig[start:], tail)
	return macd, sig
}

// AvgVolume averages the trailing n volumes excluding the final entry, so
// the current bar's volume can be compared against its own history.
func AvgVolume(vols []float64, n int) float64 {
	if len(vols) < n+1 || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(vols) - 1 - n; i < len(vols)-1; i++ {
		sum += vols[i]
	}
	return sum / float64(n)
}

// Returns computes simple period-over-period returns.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}
