package scan

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/mdash/pkg/mdash/market"
	"github.com/komsit37/mdash/pkg/mdash/metrics"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

var end = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

// oversoldBounce is 30 flat closes, a one-day dip to 50, a recovery to 100
// and twenty sessions falling by 2: the 1M return is +20% against the dip
// while the oscillator reads about 26.
func oversoldBounce() []float64 {
	var c []float64
	for i := 0; i < 30; i++ {
		c = append(c, 100)
	}
	c = append(c, 50, 100)
	for i := 1; i <= 20; i++ {
		c = append(c, 100-2*float64(i))
	}
	return c
}

func linear(n int, from, step float64) []float64 {
	c := make([]float64, n)
	for i := range c {
		c[i] = from + step*float64(i)
	}
	return c
}

func TestScan_AcceptsOnlyMatching(t *testing.T) {
	f := market.NewFake().
		SetCloses("A", end, oversoldBounce()...).
		SetCloses("B", end, linear(40, 200, -1)...)
	s := &Scanner{History: f}

	res, err := s.Scan(context.Background(), []string{"A", "B"}, types.ScanCriterion{MinGain1M: 0, MaxOscillator: 30})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	a := res.Rows[0]
	assert.Equal(t, "A", a.Symbol)
	assert.InDelta(t, 20.0, a.Return1M, 1e-9)
	assert.InDelta(t, 26.08, a.Oscillator, 0.05)
	assert.Equal(t, 60.0, a.Price)

	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, Rejected, res.Outcomes[1].Status)
	assert.Less(t, res.Outcomes[1].Row.Return1M, 0.0)
	assert.Empty(t, res.Failed())
}

func TestAccept(t *testing.T) {
	c := types.ScanCriterion{MinGain1M: 0, MaxOscillator: 30}
	assert.True(t, Accept(c, 5, 25))
	assert.False(t, Accept(c, -2, 25))
	assert.False(t, Accept(c, 0, 25)) // strict
	assert.False(t, Accept(c, 5, 30)) // strict
	assert.False(t, Accept(c, 5, 31))
}

func TestScan_SortedAndIdempotent(t *testing.T) {
	f := market.NewFake()
	syms := []string{"ZED", "MID", "ALF", "QQQ", "BBB"}
	for _, s := range syms {
		f.SetCloses(s, end, oversoldBounce()...)
	}
	s := &Scanner{History: f, Workers: 3}
	c := types.ScanCriterion{MinGain1M: 0, MaxOscillator: 30}

	r1, err := s.Scan(context.Background(), syms, c)
	require.NoError(t, err)
	r2, err := s.Scan(context.Background(), syms, c)
	require.NoError(t, err)

	assert.Equal(t, r1.Rows, r2.Rows)
	got := make([]string, len(r1.Rows))
	for i, r := range r1.Rows {
		got[i] = r.Symbol
	}
	assert.Equal(t, []string{"ALF", "BBB", "MID", "QQQ", "ZED"}, got)
}

func TestScan_ShortHistoryNeverIncluded(t *testing.T) {
	tail := oversoldBounce()
	f := market.NewFake().
		SetCloses("S24", end, tail[len(tail)-24:]...).
		SetCloses("S25", end, linear(25, 100, -1)...)
	s := &Scanner{History: f}

	// a criterion every computable symbol passes
	res, err := s.Scan(context.Background(), []string{"S24", "S25"}, types.ScanCriterion{MinGain1M: -1000, MaxOscillator: 1000})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "S25", res.Rows[0].Symbol)
	assert.Equal(t, InsufficientHistory, res.Outcomes[0].Status)
	assert.ErrorIs(t, res.Outcomes[0].Err, types.ErrInsufficientHistory)
}

func TestScan_FailuresAreClassified(t *testing.T) {
	f := market.NewFake().
		SetCloses("OK", end, oversoldBounce()...).
		Fail("DOWN", errors.New("connection reset")).
		SetPoints("BAD", []types.Point{{Date: end, Close: 10}, {Date: end, Close: 11}})
	s := &Scanner{History: f}

	res, err := s.Scan(context.Background(), []string{"OK", "DOWN", "BAD", "GONE"}, types.ScanCriterion{MaxOscillator: 30})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	status := map[string]Status{}
	for _, o := range res.Outcomes {
		status[o.Symbol] = o.Status
	}
	assert.Equal(t, map[string]Status{
		"OK":   Accepted,
		"DOWN": FetchFailed,
		"BAD":  Malformed,
		"GONE": FetchFailed,
	}, status)
	assert.Len(t, res.Failed(), 3)
	assert.Equal(t, 2, res.Count(FetchFailed))
}

func TestScan_Empty(t *testing.T) {
	s := &Scanner{History: market.NewFake()}
	res, err := s.Scan(context.Background(), nil, types.ScanCriterion{})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Empty(t, res.Outcomes)
}

func TestScan_Duplicates(t *testing.T) {
	f := market.NewFake().SetCloses("A", end, oversoldBounce()...)
	s := &Scanner{History: f}
	res, err := s.Scan(context.Background(), []string{"A", "A", "", "A"}, types.ScanCriterion{MaxOscillator: 30})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
	assert.Len(t, res.Outcomes, 1)
	assert.Equal(t, 1, f.Calls("A"))
}

func TestScan_Timeout(t *testing.T) {
	f := market.NewFake().SetCloses("SLOW", end, oversoldBounce()...)
	f.Delay = time.Second
	s := &Scanner{History: f, Timeout: 20 * time.Millisecond}

	res, err := s.Scan(context.Background(), []string{"SLOW"}, types.ScanCriterion{MaxOscillator: 30})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, FetchFailed, res.Outcomes[0].Status)
	assert.ErrorIs(t, res.Outcomes[0].Err, context.DeadlineExceeded)
}

func TestScan_CancelledContext(t *testing.T) {
	f := market.NewFake().SetCloses("A", end, oversoldBounce()...).SetCloses("B", end, oversoldBounce()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := (&Scanner{History: f}).Scan(ctx, []string{"B", "A"}, types.ScanCriterion{MaxOscillator: 30})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, "A", res.Outcomes[0].Symbol)
	for _, o := range res.Outcomes {
		assert.Equal(t, FetchFailed, o.Status)
	}
	assert.Empty(t, res.Rows)
}

func TestScan_Progress(t *testing.T) {
	f := market.NewFake()
	var syms []string
	for _, s := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"} {
		f.SetCloses(s, end, oversoldBounce()...)
		syms = append(syms, s)
	}
	var (
		mu    sync.Mutex
		dones []int
		seen  = map[string]bool{}
	)
	s := &Scanner{History: f, Workers: 4, Progress: func(done, total int, sym string) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, len(syms), total)
		dones = append(dones, done)
		seen[sym] = true
	}}
	_, err := s.Scan(context.Background(), syms, types.ScanCriterion{})
	require.NoError(t, err)

	require.Len(t, dones, len(syms))
	for i, d := range dones {
		assert.Equal(t, i+1, d)
	}
	assert.Len(t, seen, len(syms))
}

type gate struct {
	inner    market.HistoryFetcher
	inflight atomic.Int32
	peak     atomic.Int32
}

func (g *gate) History(ctx context.Context, sym, period string) (types.PriceSeries, error) {
	n := g.inflight.Add(1)
	defer g.inflight.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return g.inner.History(ctx, sym, period)
}

func TestScan_BoundedWorkers(t *testing.T) {
	f := market.NewFake()
	var syms []string
	for i := 0; i < 30; i++ {
		s := string(rune('A'+i%26)) + string(rune('a'+i/26))
		f.SetCloses(s, end, oversoldBounce()...)
		syms = append(syms, s)
	}
	g := &gate{inner: f}
	res, err := (&Scanner{History: g, Workers: 3}).Scan(context.Background(), syms, types.ScanCriterion{MaxOscillator: 30})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 30)
	assert.LessOrEqual(t, g.peak.Load(), int32(3))
	assert.GreaterOrEqual(t, g.peak.Load(), int32(1))
}

func TestScan_SimpleSmoothing(t *testing.T) {
	f := market.NewFake().SetCloses("A", end, oversoldBounce()...)
	s := &Scanner{History: f, Smoothing: metrics.Simple}
	res, err := s.Scan(context.Background(), []string{"A"}, types.ScanCriterion{MaxOscillator: 30})
	require.NoError(t, err)
	// the trailing window holds only losses
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 0.0, res.Rows[0].Oscillator)
}
