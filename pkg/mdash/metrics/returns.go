package metrics

import (
	"fmt"
	"math"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

// Lookback is a labelled number of trailing observations.
type Lookback struct {
	Label string `mapstructure:"label" yaml:"label" json:"label"`
	N     int    `mapstructure:"n" yaml:"n" json:"n"`
}

// LookbackSpec is an ordered set of lookbacks with unique labels.
type LookbackSpec []Lookback

// DefaultLookbacks are trading-day offsets for the usual report horizons.
var DefaultLookbacks = LookbackSpec{
	{Label: "1W", N: 5},
	{Label: "1M", N: 21},
	{Label: "6M", N: 126},
	{Label: "1Y", N: 252},
	{Label: "3Y", N: 756},
	{Label: "5Y", N: 1260},
}

// OneMonth is the fixed lookback used by the screener.
const OneMonth = 21

// Validate checks labels are unique and non-empty and every N is at least 1.
func (s LookbackSpec) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, lb := range s {
		if lb.Label == "" {
			return fmt.Errorf("%w: empty lookback label", types.ErrInvalidArgument)
		}
		if lb.N < 1 {
			return fmt.Errorf("%w: lookback %s: n must be >= 1, got %d", types.ErrInvalidArgument, lb.Label, lb.N)
		}
		if _, ok := seen[lb.Label]; ok {
			return fmt.Errorf("%w: duplicate lookback label %s", types.ErrInvalidArgument, lb.Label)
		}
		seen[lb.Label] = struct{}{}
	}
	return nil
}

// Return is the percentage change over one lookback.
// Available is false when the series is too short; Percent is then zero.
type Return struct {
	Label     string  `json:"label"`
	N         int     `json:"n"`
	Percent   float64 `json:"percent"`
	Available bool    `json:"available"`
}

// ReturnResult holds one Return per LookbackSpec entry, in spec order.
type ReturnResult []Return

// Get returns the entry for label.
func (r ReturnResult) Get(label string) (Return, bool) {
	for _, e := range r {
		if e.Label == label {
			return e, true
		}
	}
	return Return{}, false
}

// ComputeReturns computes the trailing return for every lookback.
//
// For a lookback n the reference price is the close n observations before the
// latest one, so a series of length L supports n only when L > n. Offsets are
// in observations, not calendar days.
func ComputeReturns(series types.PriceSeries, lookbacks LookbackSpec) (ReturnResult, error) {
	if err := lookbacks.Validate(); err != nil {
		return nil, err
	}
	out := make(ReturnResult, 0, len(lookbacks))
	for _, lb := range lookbacks {
		pct, ok, err := ReturnOver(series, lb.N)
		if err != nil {
			return nil, fmt.Errorf("return %s: %w", lb.Label, err)
		}
		out = append(out, Return{Label: lb.Label, N: lb.N, Percent: pct, Available: ok})
	}
	return out, nil
}

// ReturnOver computes the percentage change of the latest close against the
// close n observations earlier. ok is false when series.Len() <= n.
func ReturnOver(series types.PriceSeries, n int) (pct float64, ok bool, err error) {
	if n < 1 {
		return 0, false, fmt.Errorf("%w: lookback must be >= 1, got %d", types.ErrInvalidArgument, n)
	}
	l := series.Len()
	if l <= n {
		return 0, false, nil
	}
	base := series.Close(l - 1 - n)
	last := series.Close(l - 1)
	if base <= 0 || math.IsNaN(base) || math.IsInf(base, 0) {
		return 0, false, types.NewDataError(types.KindInvalidPrice, series.Symbol, "returns",
			"reference close %v at %s", base, series.At(l-1-n).Date.Format("2006-01-02"))
	}
	return (last - base) / base * 100, true, nil
}
