package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

// YahooSummary fetches fundamentals from the v10 quoteSummary endpoint.
type YahooSummary struct {
	BaseURL string
	Client  *http.Client
	Symbols Symbols
}

func NewYahooSummary(baseURL string, timeout time.Duration, symbols Symbols) *YahooSummary {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooSummary{BaseURL: baseURL, Client: &http.Client{Timeout: timeout}, Symbols: symbols}
}

const summaryModules = "financialData,defaultKeyStatistics,summaryDetail,price"

const resultPath = "$.quoteSummary.result[0]."

// numberFields maps each numeric field to its path below the first result.
var numberFields = []struct {
	path string
	set  func(*types.Fundamentals, *float64)
}{
	{"financialData.currentPrice.raw", func(f *types.Fundamentals, v *float64) { f.CurrentPrice = v }},
	{"price.marketCap.raw", func(f *types.Fundamentals, v *float64) { f.MarketCap = v }},
	{"financialData.returnOnEquity.raw", func(f *types.Fundamentals, v *float64) { f.ReturnOnEquity = v }},
	{"financialData.returnOnAssets.raw", func(f *types.Fundamentals, v *float64) { f.ReturnOnAssets = v }},
	{"financialData.revenueGrowth.raw", func(f *types.Fundamentals, v *float64) { f.RevenueGrowth = v }},
	{"financialData.earningsGrowth.raw", func(f *types.Fundamentals, v *float64) { f.EarningsGrowth = v }},
	{"financialData.debtToEquity.raw", func(f *types.Fundamentals, v *float64) { f.DebtToEquity = v }},
	{"defaultKeyStatistics.heldPercentInsiders.raw", func(f *types.Fundamentals, v *float64) { f.HeldPercentInsiders = v }},
	{"defaultKeyStatistics.heldPercentInstitutions.raw", func(f *types.Fundamentals, v *float64) { f.HeldPercentInstitutions = v }},
	{"defaultKeyStatistics.priceToBook.raw", func(f *types.Fundamentals, v *float64) { f.PriceToBook = v }},
	{"summaryDetail.trailingPE.raw", func(f *types.Fundamentals, v *float64) { f.TrailingPE = v }},
}

var stringFields = []struct {
	paths []string // first non-empty wins
	set   func(*types.Fundamentals, string)
}{
	{[]string{"price.longName", "price.shortName"}, func(f *types.Fundamentals, s string) { f.Name = s }},
	{[]string{"price.currency", "financialData.financialCurrency"}, func(f *types.Fundamentals, s string) { f.Currency = s }},
	{[]string{"price.exchangeName", "price.exchange"}, func(f *types.Fundamentals, s string) { f.Exchange = s }},
}

// Fundamentals implements FundamentalsFetcher.
func (y *YahooSummary) Fundamentals(ctx context.Context, symbol string) (types.Fundamentals, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		y.BaseURL, url.PathEscape(symbol), url.QueryEscape(summaryModules))
	body, err := get(ctx, y.Client, u)
	if err != nil {
		return types.Fundamentals{}, &types.DataError{Kind: types.KindDataUnavailable, Symbol: symbol, Op: "fundamentals", Err: err}
	}
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return types.Fundamentals{}, &types.DataError{Kind: types.KindMalformedData, Symbol: symbol, Op: "fundamentals", Err: err}
	}
	return parseSummary(symbol, jobj, y.Symbols)
}

func parseSummary(symbol string, jobj any, symbols Symbols) (types.Fundamentals, error) {
	if desc, ok := lookupString(jobj, "$.quoteSummary.error.description"); ok {
		return types.Fundamentals{}, types.NewDataError(types.KindDataUnavailable, symbol, "fundamentals", "%s", desc)
	}
	if _, err := jsonpath.Get("$.quoteSummary.result[0]", jobj); err != nil {
		return types.Fundamentals{}, types.NewDataError(types.KindDataUnavailable, symbol, "fundamentals", "no result")
	}

	f := types.Fundamentals{Symbol: symbol}
	for _, fld := range numberFields {
		if v, ok := lookupFloat(jobj, resultPath+fld.path); ok {
			fld.set(&f, types.Float(v))
		}
	}
	for _, fld := range stringFields {
		for _, p := range fld.paths {
			if s, ok := lookupString(jobj, resultPath+p); ok && s != "" {
				fld.set(&f, s)
				break
			}
		}
	}
	if f.Currency == "" {
		f.Currency = symbols.Currency(symbol)
	}
	return f, nil
}

// lookup evaluates path and unwraps single-element results.
func lookup(jobj any, path string) (any, bool) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil || jval == nil {
		return nil, false
	}
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return nil, false
		}
		jval = jlist[0]
	}
	return jval, jval != nil
}

func lookupFloat(jobj any, path string) (float64, bool) {
	v, ok := lookup(jobj, path)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func lookupString(jobj any, path string) (string, bool) {
	v, ok := lookup(jobj, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
