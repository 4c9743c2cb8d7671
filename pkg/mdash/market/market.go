// Package market holds the data collaborators: price history, live quotes,
// fundamentals and shareholding, each behind a small interface so the
// scanner and pipeline can run against real endpoints or an in-memory fake.
package market

import (
	"context"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

// HistoryFetcher returns daily closes for a symbol over a Yahoo-style range
// such as "3mo", "1y" or "max".
type HistoryFetcher interface {
	History(ctx context.Context, symbol, period string) (types.PriceSeries, error)
}

// QuoteFetcher returns the latest quote for a symbol.
type QuoteFetcher interface {
	Quote(ctx context.Context, symbol string) (types.Quote, error)
}

// FundamentalsFetcher returns a fundamentals snapshot for a symbol.
type FundamentalsFetcher interface {
	Fundamentals(ctx context.Context, symbol string) (types.Fundamentals, error)
}

// ShareholdingFetcher returns the latest ownership split for a symbol.
type ShareholdingFetcher interface {
	Shareholding(ctx context.Context, symbol string) (types.Shareholding, error)
}

// Provider bundles every collaborator the pipeline needs.
// Shareholding may be nil when the source is disabled.
type Provider struct {
	History      HistoryFetcher
	Quote        QuoteFetcher
	Fundamentals FundamentalsFetcher
	Shareholding ShareholdingFetcher
}

const userAgent = "Mozilla/5.0 (compatible; mdash)"
