package types

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Universe is a named list of symbols, e.g. the constituents of an index.
type Universe struct {
	Name    string
	Symbols []string
}

// Point is a single daily close.
type Point struct {
	Date  time.Time
	Close float64
}

// PriceSeries is an ascending, duplicate-free sequence of daily closes.
// Build it with NewPriceSeries; it is never mutated afterwards.
type PriceSeries struct {
	Symbol string
	points []Point
}

// NewPriceSeries validates and copies points into a PriceSeries.
// Points are sorted by date. Duplicate dates and non-positive or
// non-finite closes are rejected as malformed data.
func NewPriceSeries(symbol string, points []Point) (PriceSeries, error) {
	ps := make([]Point, len(points))
	copy(ps, points)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Date.Before(ps[j].Date) })
	for i, p := range ps {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) || p.Close <= 0 {
			return PriceSeries{}, &DataError{
				Kind:   KindMalformedData,
				Symbol: symbol,
				Op:     "series",
				Err:    fmt.Errorf("invalid close %v on %s", p.Close, p.Date.Format("2006-01-02")),
			}
		}
		if i > 0 && ps[i-1].Date.Equal(p.Date) {
			return PriceSeries{}, &DataError{
				Kind:   KindMalformedData,
				Symbol: symbol,
				Op:     "series",
				Err:    fmt.Errorf("duplicate date %s", p.Date.Format("2006-01-02")),
			}
		}
	}
	return PriceSeries{Symbol: symbol, points: ps}, nil
}

// Len returns the number of observations.
func (s PriceSeries) Len() int { return len(s.points) }

// Close returns the i-th close, oldest first.
func (s PriceSeries) Close(i int) float64 { return s.points[i].Close }

// At returns the i-th point, oldest first.
func (s PriceSeries) At(i int) Point { return s.points[i] }

// Last returns the most recent point. It panics on an empty series.
func (s PriceSeries) Last() Point { return s.points[len(s.points)-1] }

// Closes returns a copy of all closes, oldest first.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Close
	}
	return out
}

// Quote is a point-in-time price for one symbol.
type Quote struct {
	Symbol        string
	Name          string
	Currency      string
	Price         *float64
	ChangePercent *float64 // percent value, e.g. 1.25 for 1.25%
}

// Shareholding is the latest ownership split, in percent.
type Shareholding struct {
	Promoters  *float64 `json:"promoters"`
	FIIs       *float64 `json:"fiis"`
	DIIs       *float64 `json:"diis"`
	Government *float64 `json:"government"`
	Public     *float64 `json:"public"`
	Pledged    *float64 `json:"pledged"` // percent of promoter holding pledged
	Period     string   `json:"period"`  // column heading the figures were taken from, e.g. "Sep 2025"
}

// Empty reports whether no figure is present.
func (s Shareholding) Empty() bool {
	return s.Promoters == nil && s.FIIs == nil && s.DIIs == nil &&
		s.Government == nil && s.Public == nil && s.Pledged == nil
}

// Fundamentals is a point-in-time snapshot of fundamental fields.
// Ratios are raw fractions (0.15 for 15%). A nil field is absent, not zero.
type Fundamentals struct {
	Symbol   string
	Name     string
	Currency string
	Exchange string

	CurrentPrice            *float64
	MarketCap               *float64
	ReturnOnEquity          *float64
	ReturnOnAssets          *float64
	RevenueGrowth           *float64
	EarningsGrowth          *float64
	HeldPercentInsiders     *float64
	HeldPercentInstitutions *float64
	TrailingPE              *float64
	PriceToBook             *float64
	DebtToEquity            *float64

	Shareholding Shareholding
}

// ScanCriterion holds the screener thresholds.
type ScanCriterion struct {
	MinGain1M     float64 // exclusive lower bound on the 1-month return, percent
	MaxOscillator float64 // exclusive upper bound on the oscillator
}

// ScanRow is one symbol that passed a ScanCriterion.
type ScanRow struct {
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	Oscillator float64 `json:"oscillator"`
	Return1M   float64 `json:"return_1m"`
}

// IndexRow is one line of the index watch panel.
type IndexRow struct {
	Symbol        string
	Name          string
	Price         *float64
	ChangePercent *float64
	Return1W      *float64
	Return1M      *float64
	Oscillator    *float64
	Zone          string
	Err           error
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
