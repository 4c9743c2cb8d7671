package types

import "time"

// ReturnLine is one trailing return as shown in a report. Percent is nil
// when the history is too short for the lookback.
type ReturnLine struct {
	Label    string   `json:"label"`
	Sessions int      `json:"sessions"`
	Percent  *float64 `json:"percent"`
}

// RatioLine is one labelled fundamental figure. Value is nil when absent.
type RatioLine struct {
	Section string   `json:"section"`
	Label   string   `json:"label"`
	Value   *float64 `json:"value"`
	Unit    string   `json:"unit"`
}

// Report is the single-symbol view. Sections that could not be built are
// left empty and explained in Notes.
type Report struct {
	Symbol        string        `json:"symbol"`
	Name          string        `json:"name,omitempty"`
	Currency      string        `json:"currency,omitempty"`
	Exchange      string        `json:"exchange,omitempty"`
	Price         *float64      `json:"price"`
	ChangePercent *float64      `json:"change_percent"`
	MarketCap     *float64      `json:"market_cap"`
	AsOf          time.Time     `json:"as_of"`
	Sessions      int           `json:"sessions"`
	Returns       []ReturnLine  `json:"returns"`
	Oscillator    *float64      `json:"rsi"`
	Zone          string        `json:"zone,omitempty"`
	Ratios        []RatioLine   `json:"ratios"`
	Shareholding  *Shareholding `json:"shareholding,omitempty"`
	Notes         []string      `json:"notes,omitempty"`
}
