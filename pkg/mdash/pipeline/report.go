package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sourcegraph/conc"

	"github.com/komsit37/mdash/pkg/mdash/metrics"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

// Report builds the single-symbol view. The four collaborators are queried
// concurrently. A history failure fails the report; any other missing
// section is left empty and explained in Report.Notes.
func (r *Runner) Report(ctx context.Context, symbol string) (*types.Report, error) {
	s := r.settings()
	sym := s.Symbols.Normalize(symbol)
	if sym == "" {
		return nil, fmt.Errorf("%w: empty symbol", types.ErrInvalidArgument)
	}
	log := r.log().With(slog.String("symbol", sym))

	var (
		series            types.PriceSeries
		quote             types.Quote
		fund              types.Fundamentals
		holding           types.Shareholding
		histErr, quoteErr error
		fundErr, holdErr  error
		wg                conc.WaitGroup
	)
	call := func(fn func(context.Context)) {
		wg.Go(func() {
			cctx, cancel := context.WithTimeout(ctx, s.Timeout)
			defer cancel()
			fn(cctx)
		})
	}
	call(func(c context.Context) { series, histErr = r.Provider.History.History(c, sym, s.Period) })
	if r.Provider.Quote != nil {
		call(func(c context.Context) { quote, quoteErr = r.Provider.Quote.Quote(c, sym) })
	}
	if r.Provider.Fundamentals != nil {
		call(func(c context.Context) { fund, fundErr = r.Provider.Fundamentals.Fundamentals(c, sym) })
	}
	if r.Provider.Shareholding != nil {
		call(func(c context.Context) { holding, holdErr = r.Provider.Shareholding.Shareholding(c, sym) })
	}
	wg.Wait()

	if histErr != nil {
		return nil, fmt.Errorf("report %s: %w", sym, histErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("report %s: %w", sym,
			types.NewDataError(types.KindInsufficientHistory, sym, "history", "no closes"))
	}

	rep := &types.Report{
		Symbol:   sym,
		Currency: s.Symbols.Currency(sym),
		AsOf:     series.Last().Date,
		Sessions: series.Len(),
	}
	note := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		log.Debug("report section missing", slog.String("note", msg))
		rep.Notes = append(rep.Notes, msg)
	}

	returns, err := metrics.ComputeReturns(series, s.Lookbacks)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", sym, err)
	}
	var short []string
	for _, ret := range returns {
		line := types.ReturnLine{Label: ret.Label, Sessions: ret.N}
		if ret.Available {
			line.Percent = types.Float(ret.Percent)
		} else {
			short = append(short, ret.Label)
		}
		rep.Returns = append(rep.Returns, line)
	}
	if len(short) > 0 {
		note("insufficient history for %s returns (%d sessions)", strings.Join(short, ", "), series.Len())
	}

	if v, ok := s.Oscillator.Compute(series); ok {
		rep.Oscillator = types.Float(v)
		rep.Zone = string(s.Zones.Classify(v))
	} else {
		note("insufficient history for RSI (%d sessions, need %d)", series.Len(), s.Oscillator.Window+1)
	}

	// Price and day change come from the live quote when there is one,
	// otherwise from the last two closes.
	last := series.Last().Close
	rep.Price = types.Float(last)
	if n := series.Len(); n > 1 {
		prev := series.Close(n - 2)
		rep.ChangePercent = types.Float((last - prev) / prev * 100)
	}
	switch {
	case quoteErr != nil:
		note("live quote unavailable, using last close: %v", quoteErr)
	case r.Provider.Quote != nil:
		if quote.Price != nil {
			rep.Price = quote.Price
		}
		if quote.ChangePercent != nil {
			rep.ChangePercent = quote.ChangePercent
		}
		if quote.Currency != "" {
			rep.Currency = quote.Currency
		}
		rep.Name = quote.Name
	}

	if r.Provider.Shareholding != nil {
		if holdErr != nil {
			note("shareholding unavailable: %v", holdErr)
		} else if !holding.Empty() {
			rep.Shareholding = &holding
		}
	}

	switch {
	case r.Provider.Fundamentals == nil:
	case fundErr != nil:
		note("fundamentals unavailable: %v", fundErr)
	default:
		if rep.Shareholding != nil {
			fund.Shareholding = *rep.Shareholding
		}
		for _, ra := range metrics.Ratios(fund) {
			rep.Ratios = append(rep.Ratios, types.RatioLine{
				Section: ra.Section,
				Label:   ra.Label,
				Value:   ra.Value,
				Unit:    string(ra.Unit),
			})
		}
		rep.MarketCap = fund.MarketCap
		rep.Exchange = fund.Exchange
		if rep.Name == "" {
			rep.Name = fund.Name
		}
		if fund.Currency != "" {
			rep.Currency = fund.Currency
		}
	}
	return rep, nil
}
