package columns

import (
	"fmt"
	"math"
	"strings"

	"github.com/komsit37/mdash/pkg/mdash/metrics"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

// Env carries the presentation hooks resolvers need.
type Env struct {
	// Money formats a price in the symbol's trading currency.
	Money func(symbol string, v float64) string
	// Bare strips the exchange suffix from a symbol.
	Bare  func(symbol string) string
	Zones metrics.Zones
}

// Cell is a resolved value. Signed is set when the renderer should colour
// the cell by the sign of the value.
type Cell struct {
	Text   string
	Value  any // raw value for machine-readable output
	Signed *float64
}

// Column describes one scan table column.
type Column struct {
	Key     string
	Header  string
	Numeric bool
	Resolve func(r types.ScanRow, env Env) Cell
}

// Registry maps column keys to their definitions.
var Registry = map[string]Column{}

func register(c Column) { Registry[c.Key] = c }

func init() {
	register(Column{Key: "sym", Header: "Symbol", Resolve: func(r types.ScanRow, _ Env) Cell {
		return Cell{Text: r.Symbol, Value: r.Symbol}
	}})
	register(Column{Key: "ticker", Header: "Ticker", Resolve: func(r types.ScanRow, env Env) Cell {
		t := r.Symbol
		if env.Bare != nil {
			t = env.Bare(t)
		}
		return Cell{Text: t, Value: t}
	}})
	register(Column{Key: "price", Header: "Price", Numeric: true, Resolve: func(r types.ScanRow, env Env) Cell {
		txt := FormatFloat(r.Price, 2)
		if env.Money != nil {
			txt = env.Money(r.Symbol, r.Price)
		}
		return Cell{Text: txt, Value: round(r.Price, 2)}
	}})
	register(Column{Key: "rsi", Header: "RSI", Numeric: true, Resolve: func(r types.ScanRow, _ Env) Cell {
		return Cell{Text: FormatFloat(r.Oscillator, 2), Value: round(r.Oscillator, 2)}
	}})
	register(Column{Key: "1m%", Header: "1M Return %", Numeric: true, Resolve: func(r types.ScanRow, _ Env) Cell {
		v := r.Return1M
		return Cell{Text: FormatFloat(v, 2), Value: round(v, 2), Signed: &v}
	}})
	register(Column{Key: "zone", Header: "Zone", Resolve: func(r types.ScanRow, env Env) Cell {
		z := env.Zones
		if z == (metrics.Zones{}) {
			z = metrics.DefaultZones
		}
		s := string(z.Classify(r.Oscillator))
		return Cell{Text: s, Value: s}
	}})
}

// Compute expands set names and validates column keys. Explicit order is
// kept and duplicates dropped. An empty input yields the default set.
func Compute(explicit []string) ([]Column, error) {
	if len(explicit) == 0 {
		explicit = []string{"default"}
	}
	var keys []string
	for _, k := range explicit {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := Sets[k]; ok {
			cols, _ := ExpandSets([]string{k})
			keys = append(keys, cols...)
			continue
		}
		keys = append(keys, k)
	}

	seen := map[string]struct{}{}
	out := make([]Column, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		c, ok := Registry[k]
		if !ok {
			return nil, fmt.Errorf("%w: unknown column %q", types.ErrInvalidArgument, k)
		}
		out = append(out, c)
	}
	return out, nil
}

// Row resolves every column for r.
func Row(cols []Column, r types.ScanRow, env Env) []Cell {
	cells := make([]Cell, len(cols))
	for i, c := range cols {
		cells[i] = c.Resolve(r, env)
	}
	return cells
}

func round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

// FormatFloat formats v with a fixed number of decimals and comma separators.
func FormatFloat(v float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, v)
	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}
	n := len(intPart)
	if n <= 3 {
		return sign + intPart + fracPart
	}
	out := make([]byte, 0, n+n/3)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	out = append(out, intPart[:rem]...)
	for i := rem; i < n; i += 3 {
		out = append(out, ',')
		out = append(out, intPart[i:i+3]...)
	}
	return sign + string(out) + fracPart
}
