package pipeline

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/komsit37/mdash/pkg/mdash/metrics"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

// Watch computes the index panel. Rows come back in input order; an index
// whose history cannot be fetched keeps its row with Err set.
func (r *Runner) Watch(ctx context.Context, indices []string) ([]types.IndexRow, error) {
	s := r.settings()
	if len(indices) == 0 {
		indices = DefaultIndices
	}
	rows := make([]types.IndexRow, len(indices))
	p := pool.New().WithMaxGoroutines(s.Workers)
	for i, sym := range indices {
		sym = s.Symbols.Normalize(sym)
		p.Go(func() {
			rows[i] = r.indexRow(ctx, sym, s)
		})
	}
	p.Wait()
	return rows, ctx.Err()
}

func (r *Runner) indexRow(ctx context.Context, sym string, s Settings) types.IndexRow {
	row := types.IndexRow{Symbol: sym}
	hctx, cancel := context.WithTimeout(ctx, s.Timeout)
	series, err := r.Provider.History.History(hctx, sym, s.WatchPeriod)
	cancel()
	if err != nil {
		r.log().Debug("watch index", slog.String("symbol", sym), slog.Any("err", err))
		row.Err = err
		return row
	}
	if series.Len() == 0 {
		row.Err = types.NewDataError(types.KindInsufficientHistory, sym, "watch", "no closes")
		return row
	}

	last := series.Last().Close
	row.Price = types.Float(last)
	if n := series.Len(); n > 1 {
		prev := series.Close(n - 2)
		row.ChangePercent = types.Float((last - prev) / prev * 100)
	}
	if pct, ok, err := metrics.ReturnOver(series, 5); err == nil && ok {
		row.Return1W = types.Float(pct)
	}
	if pct, ok, err := metrics.ReturnOver(series, metrics.OneMonth); err == nil && ok {
		row.Return1M = types.Float(pct)
	}
	if v, ok := s.Oscillator.Compute(series); ok {
		row.Oscillator = types.Float(v)
		row.Zone = string(s.Zones.Classify(v))
	}

	if r.Provider.Quote == nil {
		return row
	}
	qctx, cancel := context.WithTimeout(ctx, s.Timeout)
	q, err := r.Provider.Quote.Quote(qctx, sym)
	cancel()
	if err != nil {
		r.log().Debug("watch quote", slog.String("symbol", sym), slog.Any("err", err))
		return row
	}
	row.Name = q.Name
	if q.Price != nil {
		row.Price = q.Price
	}
	if q.ChangePercent != nil {
		row.ChangePercent = q.ChangePercent
	}
	return row
}
