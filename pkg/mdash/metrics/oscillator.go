package metrics

import (
	"fmt"
	"strings"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

// DefaultWindow is the usual RSI period.
const DefaultWindow = 14

// Smoothing selects how average gains and losses are formed.
type Smoothing int

const (
	// Wilder seeds with the mean of the first window deltas and then applies
	// avg = (avg*(window-1) + x) / window across the rest of the history.
	Wilder Smoothing = iota
	// Simple takes the plain mean of exactly the trailing window deltas.
	Simple
)

func (s Smoothing) String() string {
	if s == Simple {
		return "simple"
	}
	return "wilder"
}

// ParseSmoothing accepts "wilder" (or "") and "simple".
func ParseSmoothing(s string) (Smoothing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wilder", "rma":
		return Wilder, nil
	case "simple", "sma":
		return Simple, nil
	default:
		return Wilder, fmt.Errorf("%w: unknown smoothing %q", types.ErrInvalidArgument, s)
	}
}

// Oscillator computes an RSI-style momentum value in [0,100].
type Oscillator struct {
	Window    int
	Smoothing Smoothing
}

// DefaultOscillator is a 14-period Wilder RSI.
var DefaultOscillator = Oscillator{Window: DefaultWindow, Smoothing: Wilder}

// ComputeOscillator computes a Wilder RSI over window periods.
func ComputeOscillator(series types.PriceSeries, window int) (float64, bool) {
	return Oscillator{Window: window, Smoothing: Wilder}.Compute(series)
}

// Compute returns the oscillator value. ok is false when the series holds
// fewer than Window+1 closes or Window < 1.
func (o Oscillator) Compute(series types.PriceSeries) (float64, bool) {
	return o.computeCloses(series.Closes())
}

func (o Oscillator) computeCloses(closes []float64) (float64, bool) {
	period := o.Window
	if period < 1 || len(closes) < period+1 {
		return 0, false
	}

	var avgGain, avgLoss float64
	switch o.Smoothing {
	case Simple:
		start := len(closes) - period
		for i := start; i < len(closes); i++ {
			g, l := split(closes[i] - closes[i-1])
			avgGain += g
			avgLoss += l
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)
	default:
		for i := 1; i <= period; i++ {
			g, l := split(closes[i] - closes[i-1])
			avgGain += g
			avgLoss += l
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)
		for i := period + 1; i < len(closes); i++ {
			g, l := split(closes[i] - closes[i-1])
			avgGain = (avgGain*float64(period-1) + g) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
		}
	}

	// A window with no down moves, flat ones included, reads as 100.
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	v := 100 - 100/(1+rs)
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v, true
}

func split(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}

// Zone is the qualitative reading of an oscillator value.
type Zone string

const (
	Overbought Zone = "Overbought"
	Oversold   Zone = "Oversold"
	Neutral    Zone = "Neutral"
)

// Classify maps v to a Zone using the 70/30 bands. Both bounds are
// exclusive: 70 and 30 themselves are Neutral.
func Classify(v float64) Zone {
	return DefaultZones.Classify(v)
}

// Zones holds configurable band edges.
type Zones struct {
	Overbought float64
	Oversold   float64
}

// DefaultZones are the conventional 70/30 bands.
var DefaultZones = Zones{Overbought: 70, Oversold: 30}

// Classify maps v to a Zone with exclusive bounds.
func (z Zones) Classify(v float64) Zone {
	switch {
	case v > z.Overbought:
		return Overbought
	case v < z.Oversold:
		return Oversold
	default:
		return Neutral
	}
}
