package market

import (
	"context"
	"time"

	yfgo "github.com/komsit37/yf-go"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

// YFQuote implements QuoteFetcher using yf-go.
type YFQuote struct {
	client  *yfgo.Client
	timeout time.Duration
	symbols Symbols
}

func NewYFQuote(timeout time.Duration, symbols Symbols) *YFQuote {
	return &YFQuote{client: yfgo.NewClient(), timeout: timeout, symbols: symbols}
}

func (s *YFQuote) Quote(ctx context.Context, sym string) (types.Quote, error) {
	if sym == "" {
		return types.Quote{}, types.NewDataError(types.KindInvalidArgument, sym, "quote", "empty symbol")
	}
	mods := []yfgo.QuoteSummaryModule{yfgo.ModulePrice}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.client.QuoteSummaryTyped(cctx, sym, mods)
	if err != nil {
		return types.Quote{}, &types.DataError{Kind: types.KindDataUnavailable, Symbol: sym, Op: "quote", Err: err}
	}
	if res.Price == nil {
		return types.Quote{}, types.NewDataError(types.KindDataUnavailable, sym, "quote", "no price module")
	}

	q := types.Quote{Symbol: sym, Currency: s.symbols.Currency(sym)}
	if p := res.Price.RegularMarketPrice; p.Raw != nil {
		q.Price = types.Float(*p.Raw)
	}
	if cp := res.Price.RegularMarketChangePercent; cp.Raw != nil {
		// yf-go reports the raw change as a fraction
		q.ChangePercent = types.Float(*cp.Raw * 100)
	}
	if res.Price.ShortName != "" {
		q.Name = res.Price.ShortName
	} else if res.Price.LongName != "" {
		q.Name = res.Price.LongName
	}
	return q, nil
}
