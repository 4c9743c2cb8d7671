package market

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

// DefaultScreenerBaseURL is the screener.in host.
const DefaultScreenerBaseURL = "https://www.screener.in"

// Screener scrapes the shareholding pattern from a screener.in company page.
type Screener struct {
	BaseURL string
	Client  *http.Client
	Symbols Symbols
}

func NewScreener(baseURL string, timeout time.Duration, symbols Symbols) *Screener {
	if baseURL == "" {
		baseURL = DefaultScreenerBaseURL
	}
	return &Screener{BaseURL: baseURL, Client: &http.Client{Timeout: timeout}, Symbols: symbols}
}

// Shareholding implements ShareholdingFetcher.
func (s *Screener) Shareholding(ctx context.Context, symbol string) (types.Shareholding, error) {
	bare := s.Symbols.Bare(symbol)
	if bare == "" || strings.HasPrefix(bare, "^") {
		return types.Shareholding{}, types.NewDataError(types.KindDataUnavailable, symbol, "shareholding", "no company page for %q", symbol)
	}
	u := fmt.Sprintf("%s/company/%s/", s.BaseURL, url.PathEscape(strings.ToUpper(bare)))
	body, err := get(ctx, s.Client, u)
	if err != nil {
		return types.Shareholding{}, &types.DataError{Kind: types.KindDataUnavailable, Symbol: symbol, Op: "shareholding", Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return types.Shareholding{}, &types.DataError{Kind: types.KindMalformedData, Symbol: symbol, Op: "shareholding", Err: err}
	}
	sh := extractShareholding(doc)
	if sh.Empty() {
		return sh, types.NewDataError(types.KindDataUnavailable, symbol, "shareholding", "no shareholding table")
	}
	return sh, nil
}

// extractShareholding reads the most recent column of the first table in
// the #shareholding section.
func extractShareholding(doc *goquery.Document) types.Shareholding {
	var sh types.Shareholding
	table := doc.Find("#shareholding table").First()
	if table.Length() == 0 {
		return sh
	}
	sh.Period = strings.TrimSpace(table.Find("thead th").Last().Text())

	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := strings.ToLower(strings.TrimSpace(cells.First().Text()))
		label = strings.TrimSpace(strings.TrimRight(label, "+ \u00a0"))
		v, ok := parsePercent(cells.Last().Text())
		if !ok {
			return
		}
		switch {
		case strings.HasPrefix(label, "promoter"):
			sh.Promoters = types.Float(v)
		case strings.HasPrefix(label, "fii"):
			sh.FIIs = types.Float(v)
		case strings.HasPrefix(label, "dii"):
			sh.DIIs = types.Float(v)
		case strings.HasPrefix(label, "government"):
			sh.Government = types.Float(v)
		case strings.HasPrefix(label, "public"):
			sh.Public = types.Float(v)
		case strings.Contains(label, "pledged"):
			sh.Pledged = types.Float(v)
		}
	})
	return sh
}

func parsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
