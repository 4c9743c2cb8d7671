package market

import "strings"

// Symbols applies the exchange-suffix convention to bare tickers.
type Symbols struct {
	Suffix string // e.g. ".NS"; empty leaves symbols untouched
}

var currencyBySuffix = map[string]string{
	".NS": "INR",
	".BO": "INR",
	".T":  "JPY",
	".L":  "GBP",
	".HK": "HKD",
	".TO": "CAD",
	".AX": "AUD",
	".DE": "EUR",
	".PA": "EUR",
}

// Normalize upper-cases sym and appends Suffix unless sym is an index
// (leading ^) or already carries an exchange suffix.
func (s Symbols) Normalize(sym string) string {
	sym = strings.ToUpper(strings.TrimSpace(sym))
	if sym == "" || s.Suffix == "" || strings.HasPrefix(sym, "^") || strings.Contains(sym, ".") {
		return sym
	}
	return sym + strings.ToUpper(s.Suffix)
}

// NormalizeAll normalizes every symbol, dropping blanks.
func (s Symbols) NormalizeAll(syms []string) []string {
	out := make([]string, 0, len(syms))
	for _, sym := range syms {
		if n := s.Normalize(sym); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Bare strips a known exchange suffix.
func (s Symbols) Bare(sym string) string {
	sym = strings.ToUpper(strings.TrimSpace(sym))
	if s.Suffix != "" && strings.HasSuffix(sym, strings.ToUpper(s.Suffix)) {
		return strings.TrimSuffix(sym, strings.ToUpper(s.Suffix))
	}
	if i := strings.LastIndex(sym, "."); i > 0 {
		if _, ok := currencyBySuffix[sym[i:]]; ok {
			return sym[:i]
		}
	}
	return sym
}

// Currency infers the trading currency from the exchange suffix.
// Indices take the currency of the configured suffix; anything else
// without a known suffix is USD.
func (s Symbols) Currency(sym string) string {
	sym = strings.ToUpper(sym)
	if strings.HasPrefix(sym, "^") {
		if c, ok := currencyBySuffix[strings.ToUpper(s.Suffix)]; ok {
			return c
		}
		return "USD"
	}
	if i := strings.LastIndex(sym, "."); i > 0 {
		if c, ok := currencyBySuffix[sym[i:]]; ok {
			return c
		}
	}
	return "USD"
}
