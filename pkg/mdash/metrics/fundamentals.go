package metrics

import "github.com/komsit37/mdash/pkg/mdash/types"

// Unit tells renderers how to print a Ratio value.
type Unit string

const (
	Percent  Unit = "%"
	Multiple Unit = "x"
	Billions Unit = "B"
)

// Ratio is one labelled line of the fundamentals panel.
// A nil Value means the figure was not reported.
type Ratio struct {
	Section string   `json:"section"`
	Label   string   `json:"label"`
	Value   *float64 `json:"value"`
	Unit    Unit     `json:"unit"`
}

// Ratios derives the display lines for a fundamentals snapshot.
func Ratios(f types.Fundamentals) []Ratio {
	out := []Ratio{
		{"Efficiency", "ROE", pct(f.ReturnOnEquity), Percent},
		{"Efficiency", "ROCE (approx)", pct(f.ReturnOnAssets), Percent},
		{"Growth", "Revenue YoY", pct(f.RevenueGrowth), Percent},
		{"Growth", "Earnings YoY", pct(f.EarningsGrowth), Percent},
		{"Valuation", "P/E", f.TrailingPE, Multiple},
		{"Valuation", "P/B", f.PriceToBook, Multiple},
		{"Valuation", "Market Cap", scale(f.MarketCap, 1e-9), Billions},
		{"Shareholding", "Promoter (insiders)", pct(f.HeldPercentInsiders), Percent},
		{"Shareholding", "Institutions", pct(f.HeldPercentInstitutions), Percent},
	}
	sh := f.Shareholding
	if sh.Empty() {
		return out
	}
	for _, r := range []struct {
		label string
		v     *float64
	}{
		{"Promoters", sh.Promoters},
		{"FIIs", sh.FIIs},
		{"DIIs", sh.DIIs},
		{"Government", sh.Government},
		{"Public", sh.Public},
		{"Pledged", sh.Pledged},
	} {
		if r.v == nil {
			continue
		}
		label := r.label
		if sh.Period != "" {
			label += " (" + sh.Period + ")"
		}
		// screener figures are already percentages
		out = append(out, Ratio{"Shareholding", label, r.v, Percent})
	}
	return out
}

func pct(v *float64) *float64 { return scale(v, 100) }

func scale(v *float64, k float64) *float64 {
	if v == nil {
		return nil
	}
	return types.Float(*v * k)
}
