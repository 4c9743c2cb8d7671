package market

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

// Fake is an in-memory collaborator implementing every fetcher interface.
// It is safe for concurrent use.
type Fake struct {
	Delay time.Duration // applied before every call, honouring ctx

	mu           sync.Mutex
	series       map[string][]types.Point
	quotes       map[string]types.Quote
	fundamentals map[string]types.Fundamentals
	holdings     map[string]types.Shareholding
	errs         map[string]error
	calls        map[string]int
}

func NewFake() *Fake {
	return &Fake{
		series:       map[string][]types.Point{},
		quotes:       map[string]types.Quote{},
		fundamentals: map[string]types.Fundamentals{},
		holdings:     map[string]types.Shareholding{},
		errs:         map[string]error{},
		calls:        map[string]int{},
	}
}

// SetCloses stores daily closes for sym, one per calendar day ending at end.
func (f *Fake) SetCloses(sym string, end time.Time, closes ...float64) *Fake {
	pts := make([]types.Point, len(closes))
	start := end.AddDate(0, 0, -(len(closes) - 1))
	for i, c := range closes {
		pts[i] = types.Point{Date: start.AddDate(0, 0, i), Close: c}
	}
	return f.SetPoints(sym, pts)
}

// SetPoints stores raw points for sym; they are validated on every History call.
func (f *Fake) SetPoints(sym string, pts []types.Point) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.series[sym] = append([]types.Point(nil), pts...)
	return f
}

func (f *Fake) SetQuote(q types.Quote) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes[q.Symbol] = q
	return f
}

func (f *Fake) SetFundamentals(fu types.Fundamentals) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fundamentals[fu.Symbol] = fu
	return f
}

func (f *Fake) SetShareholding(sym string, sh types.Shareholding) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holdings[sym] = sh
	return f
}

// Fail makes every call for sym return err.
func (f *Fake) Fail(sym string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[sym] = err
	return f
}

// Calls returns how many calls were made for sym.
func (f *Fake) Calls(sym string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[sym]
}

// Symbols lists every symbol with stored history.
func (f *Fake) Symbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.series))
	for s := range f.series {
		out = append(out, s)
	}
	return out
}

func (f *Fake) enter(ctx context.Context, sym string) error {
	f.mu.Lock()
	f.calls[sym]++
	err := f.errs[sym]
	f.mu.Unlock()

	if f.Delay > 0 {
		t := time.NewTimer(f.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return err
}

func wrap(sym, op string, err error) error {
	var de *types.DataError
	if errors.As(err, &de) {
		return err
	}
	return &types.DataError{Kind: types.KindDataUnavailable, Symbol: sym, Op: op, Err: err}
}

func (f *Fake) History(ctx context.Context, sym, _ string) (types.PriceSeries, error) {
	if err := f.enter(ctx, sym); err != nil {
		return types.PriceSeries{}, wrap(sym, "history", err)
	}
	f.mu.Lock()
	pts, ok := f.series[sym]
	f.mu.Unlock()
	if !ok {
		return types.PriceSeries{}, types.NewDataError(types.KindDataUnavailable, sym, "history", "unknown symbol")
	}
	return types.NewPriceSeries(sym, pts)
}

func (f *Fake) Quote(ctx context.Context, sym string) (types.Quote, error) {
	if err := f.enter(ctx, sym); err != nil {
		return types.Quote{}, wrap(sym, "quote", err)
	}
	f.mu.Lock()
	q, ok := f.quotes[sym]
	pts := f.series[sym]
	f.mu.Unlock()
	if ok {
		return q, nil
	}
	if len(pts) == 0 {
		return types.Quote{}, types.NewDataError(types.KindDataUnavailable, sym, "quote", "unknown symbol")
	}
	// derive a quote from the last two stored closes
	s, err := types.NewPriceSeries(sym, pts)
	if err != nil {
		return types.Quote{}, err
	}
	q = types.Quote{Symbol: sym, Name: sym, Price: types.Float(s.Last().Close)}
	if s.Len() > 1 {
		prev := s.Close(s.Len() - 2)
		q.ChangePercent = types.Float((s.Last().Close - prev) / prev * 100)
	}
	return q, nil
}

func (f *Fake) Fundamentals(ctx context.Context, sym string) (types.Fundamentals, error) {
	if err := f.enter(ctx, sym); err != nil {
		return types.Fundamentals{}, wrap(sym, "fundamentals", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fu, ok := f.fundamentals[sym]
	if !ok {
		return types.Fundamentals{}, types.NewDataError(types.KindDataUnavailable, sym, "fundamentals", "unknown symbol")
	}
	return fu, nil
}

func (f *Fake) Shareholding(ctx context.Context, sym string) (types.Shareholding, error) {
	if err := f.enter(ctx, sym); err != nil {
		return types.Shareholding{}, wrap(sym, "shareholding", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	sh, ok := f.holdings[sym]
	if !ok {
		return types.Shareholding{}, types.NewDataError(types.KindDataUnavailable, sym, "shareholding", "unknown symbol")
	}
	return sh, nil
}

// Provider returns a Provider backed entirely by f.
func (f *Fake) Provider() Provider {
	return Provider{History: f, Quote: f, Fundamentals: f, Shareholding: f}
}

// NewDemo returns a Fake holding a deterministic synthetic history of n
// sessions for every symbol, ending at end. The walk is seeded from the
// symbol so reruns produce identical data.
func NewDemo(symbols []string, n int, end time.Time) *Fake {
	f := NewFake()
	for _, sym := range symbols {
		h := fnv.New64a()
		_, _ = h.Write([]byte(sym))
		seed := h.Sum64()

		closes := make([]float64, n)
		price := 50 + float64(seed%450)
		drift := (float64(seed>>8%21) - 10) / 10000
		for i := range closes {
			seed = seed*6364136223846793005 + 1442695040888963407
			shock := (float64(seed>>11)/float64(1<<53) - 0.5) * 0.04
			price = math.Max(0.01, price*(1+drift+shock))
			closes[i] = math.Round(price*100) / 100
		}
		f.SetCloses(sym, end, closes...)
	}
	return f
}
