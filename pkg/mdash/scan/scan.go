// Package scan evaluates a screening criterion across a universe of symbols.
package scan

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/komsit37/mdash/pkg/mdash/market"
	"github.com/komsit37/mdash/pkg/mdash/metrics"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

const (
	// MinHistory is the fewest closes a symbol needs to be evaluated.
	MinHistory = 25

	DefaultWorkers = 8
	DefaultTimeout = 10 * time.Second
	DefaultPeriod  = "3mo"
)

// Status is the final state of one symbol in a scan.
type Status int

const (
	Accepted Status = iota
	Rejected
	InsufficientHistory
	Malformed
	FetchFailed
)

func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case InsufficientHistory:
		return "insufficient history"
	case Malformed:
		return "malformed"
	case FetchFailed:
		return "fetch failed"
	default:
		return "unknown"
	}
}

// Outcome records what happened to one symbol. Row is filled whenever both
// metrics could be computed, including for rejected symbols.
type Outcome struct {
	Symbol string
	Status Status
	Row    types.ScanRow
	Err    error
}

// Result is the output of a scan. Rows and Outcomes are sorted by symbol.
type Result struct {
	Rows     []types.ScanRow
	Outcomes []Outcome
}

// Count returns how many outcomes ended in st.
func (r *Result) Count(st Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == st {
			n++
		}
	}
	return n
}

// Failed returns the outcomes that were not evaluated against the criterion.
func (r *Result) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status != Accepted && o.Status != Rejected {
			out = append(out, o)
		}
	}
	return out
}

// Accept reports whether a symbol with the given one-month return and
// oscillator value passes c. Both bounds are strict.
func Accept(c types.ScanCriterion, return1M, oscillator float64) bool {
	return return1M > c.MinGain1M && oscillator < c.MaxOscillator
}

// Scanner fans history fetches out over a bounded worker pool.
type Scanner struct {
	History   market.HistoryFetcher
	Workers   int               // <= 0 means DefaultWorkers
	Timeout   time.Duration     // per fetch; <= 0 means DefaultTimeout
	Period    string            // history range requested per symbol
	Smoothing metrics.Smoothing // the window is always metrics.DefaultWindow

	// Progress, if set, is called once per finished symbol with a strictly
	// increasing done count. Calls are serialized.
	Progress func(done, total int, symbol string)

	Logger *slog.Logger
}

// Scan evaluates c for every distinct symbol. Per-symbol failures never abort
// the batch; they are reported in Result.Outcomes. If ctx is cancelled the
// symbols not yet started are marked FetchFailed and ctx.Err() is returned
// with the partial result.
func (s *Scanner) Scan(ctx context.Context, symbols []string, c types.ScanCriterion) (*Result, error) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	syms := dedupe(symbols)
	res := &Result{}
	if len(syms) == 0 {
		return res, nil
	}

	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	osc := metrics.Oscillator{Window: metrics.DefaultWindow, Smoothing: s.Smoothing}

	var (
		mu   sync.Mutex
		done int
	)
	finished := func(sym string) {
		if s.Progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		s.Progress(done, len(syms), sym)
	}

	start := time.Now()
	p := pool.NewWithResults[Outcome]().WithMaxGoroutines(workers)
	var skipped []Outcome
	for _, sym := range syms {
		if err := ctx.Err(); err != nil {
			skipped = append(skipped, Outcome{Symbol: sym, Status: FetchFailed, Err: err})
			continue
		}
		p.Go(func() Outcome {
			o := s.evaluate(ctx, sym, c, osc)
			if o.Err != nil {
				log.Debug("scan symbol", slog.String("symbol", sym), slog.String("status", o.Status.String()), slog.Any("err", o.Err))
			}
			finished(sym)
			return o
		})
	}
	outcomes := append(p.Wait(), skipped...)

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Symbol < outcomes[j].Symbol })
	res.Outcomes = outcomes
	for _, o := range outcomes {
		if o.Status == Accepted {
			res.Rows = append(res.Rows, o.Row)
		}
	}

	log.Info("scan finished",
		slog.Int("symbols", len(syms)),
		slog.Int("accepted", len(res.Rows)),
		slog.Int("failed", len(res.Failed())),
		slog.Duration("took", time.Since(start)))
	return res, ctx.Err()
}

func (s *Scanner) evaluate(ctx context.Context, sym string, c types.ScanCriterion, osc metrics.Oscillator) Outcome {
	out := Outcome{Symbol: sym}
	if err := ctx.Err(); err != nil {
		out.Status, out.Err = FetchFailed, err
		return out
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	period := s.Period
	if period == "" {
		period = DefaultPeriod
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	series, err := s.History.History(fctx, sym, period)
	cancel()
	if err != nil {
		out.Err = err
		if types.Classify(err) == types.KindMalformedData {
			out.Status = Malformed
		} else {
			out.Status = FetchFailed
		}
		return out
	}

	if series.Len() < MinHistory {
		out.Status = InsufficientHistory
		out.Err = types.NewDataError(types.KindInsufficientHistory, sym, "scan", "%d closes, need %d", series.Len(), MinHistory)
		return out
	}
	ret, ok, err := metrics.ReturnOver(series, metrics.OneMonth)
	if err != nil {
		out.Status, out.Err = Malformed, err
		return out
	}
	v, vok := osc.Compute(series)
	if !ok || !vok {
		out.Status = InsufficientHistory
		out.Err = types.NewDataError(types.KindInsufficientHistory, sym, "scan", "%d closes", series.Len())
		return out
	}

	out.Row = types.ScanRow{Symbol: sym, Price: series.Last().Close, Oscillator: v, Return1M: ret}
	if Accept(c, ret, v) {
		out.Status = Accepted
	} else {
		out.Status = Rejected
	}
	return out
}

func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
