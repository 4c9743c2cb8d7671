package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

func series(t *testing.T, closes ...float64) types.PriceSeries {
	t.Helper()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]types.Point, len(closes))
	for i, c := range closes {
		pts[i] = types.Point{Date: start.AddDate(0, 0, i), Close: c}
	}
	s, err := types.NewPriceSeries("TEST", pts)
	require.NoError(t, err)
	return s
}

func TestComputeReturns_Example(t *testing.T) {
	s := series(t, 100, 105, 95, 90, 120)
	res, err := ComputeReturns(s, LookbackSpec{{"4", 4}, {"5", 5}})
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, "4", res[0].Label)
	assert.True(t, res[0].Available)
	assert.InDelta(t, 20.0, res[0].Percent, 1e-9)

	r5, ok := res.Get("5")
	require.True(t, ok)
	assert.False(t, r5.Available)
	assert.Zero(t, r5.Percent)

	_, ok = res.Get("nope")
	assert.False(t, ok)
}

func TestComputeReturns_AvailabilityBoundary(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(50 + i)
	}
	s := series(t, closes...)
	for n := 1; n <= 35; n++ {
		pct, ok, err := ReturnOver(s, n)
		require.NoError(t, err)
		assert.Equal(t, s.Len() > n, ok, "n=%d", n)
		if !ok {
			assert.Zero(t, pct)
		}
	}
}

func TestComputeReturns_OrderAndDefaults(t *testing.T) {
	s := series(t, 10, 11, 12, 13, 14, 15, 16)
	res, err := ComputeReturns(s, DefaultLookbacks)
	require.NoError(t, err)
	require.Len(t, res, len(DefaultLookbacks))
	for i, lb := range DefaultLookbacks {
		assert.Equal(t, lb.Label, res[i].Label)
		assert.Equal(t, lb.N, res[i].N)
	}
	assert.True(t, res[0].Available) // 1W = 5 < 7
	assert.InDelta(t, (16.0-11.0)/11.0*100, res[0].Percent, 1e-9)
	assert.False(t, res[1].Available)
}

func TestComputeReturns_InvalidSpec(t *testing.T) {
	s := series(t, 1, 2, 3)
	tests := []struct {
		name string
		spec LookbackSpec
	}{
		{"duplicate", LookbackSpec{{"1M", 21}, {"1M", 22}}},
		{"zero n", LookbackSpec{{"x", 0}}},
		{"empty label", LookbackSpec{{"", 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeReturns(s, tt.spec)
			assert.ErrorIs(t, err, types.ErrInvalidArgument)
		})
	}

	_, _, err := ReturnOver(s, 0)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestComputeReturns_EmptySpec(t *testing.T) {
	res, err := ComputeReturns(series(t, 1, 2), nil)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestOscillator_UndefinedBelowWindow(t *testing.T) {
	for _, sm := range []Smoothing{Wilder, Simple} {
		o := Oscillator{Window: 14, Smoothing: sm}
		closes := []float64{}
		for i := 0; i < 14; i++ {
			closes = append(closes, float64(100+(i%3)))
		}
		_, ok := o.Compute(series(t, closes...))
		assert.False(t, ok, "%s: 14 closes", sm)

		closes = append(closes, 99)
		v, ok := o.Compute(series(t, closes...))
		assert.True(t, ok, "%s: 15 closes", sm)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestOscillator_BadWindow(t *testing.T) {
	_, ok := Oscillator{Window: 0}.Compute(series(t, 1, 2, 3))
	assert.False(t, ok)
	_, ok = ComputeOscillator(series(t, 1, 2, 3), -1)
	assert.False(t, ok)
}

func TestOscillator_StrictlyIncreasing(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 10 + float64(i)*0.5
	}
	for _, sm := range []Smoothing{Wilder, Simple} {
		v, ok := Oscillator{Window: 14, Smoothing: sm}.Compute(series(t, closes...))
		require.True(t, ok)
		assert.Equal(t, 100.0, v, sm.String())
	}
}

func TestOscillator_StrictlyDecreasing(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	v, ok := ComputeOscillator(series(t, closes...), 14)
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestOscillator_Flat(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 42
	}
	v, ok := ComputeOscillator(series(t, closes...), 14)
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestOscillator_Balanced(t *testing.T) {
	// alternating +1/-1 over an even window gives equal averages
	closes := []float64{10}
	for i := 0; i < 14; i++ {
		if i%2 == 0 {
			closes = append(closes, closes[len(closes)-1]+1)
		} else {
			closes = append(closes, closes[len(closes)-1]-1)
		}
	}
	v, ok := Oscillator{Window: 14, Smoothing: Simple}.Compute(series(t, closes...))
	require.True(t, ok)
	assert.InDelta(t, 50.0, v, 1e-9)

	v, ok = Oscillator{Window: 14, Smoothing: Wilder}.Compute(series(t, closes...))
	require.True(t, ok)
	assert.InDelta(t, 50.0, v, 1e-9)
}

func TestOscillator_WilderDiffersFromSimple(t *testing.T) {
	// one large early drop then steady gains: Wilder keeps remembering
	// the drop, the simple trailing window does not
	closes := []float64{100, 80}
	for i := 0; i < 30; i++ {
		closes = append(closes, closes[len(closes)-1]+1)
	}
	s := series(t, closes...)
	w, ok := Oscillator{Window: 14, Smoothing: Wilder}.Compute(s)
	require.True(t, ok)
	sm, ok := Oscillator{Window: 14, Smoothing: Simple}.Compute(s)
	require.True(t, ok)
	assert.Equal(t, 100.0, sm)
	assert.Less(t, w, 100.0)
	assert.Greater(t, w, 50.0)
}

func TestOscillator_RangeRandomWalk(t *testing.T) {
	closes := []float64{100}
	x := 0.3
	for i := 0; i < 200; i++ {
		x = 3.9 * x * (1 - x) // deterministic chaos
		closes = append(closes, math.Max(1, closes[len(closes)-1]+(x-0.5)*4))
	}
	s := series(t, closes...)
	for w := 1; w < 60; w++ {
		for _, sm := range []Smoothing{Wilder, Simple} {
			v, ok := Oscillator{Window: w, Smoothing: sm}.Compute(s)
			require.True(t, ok)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestParseSmoothing(t *testing.T) {
	for in, want := range map[string]Smoothing{"": Wilder, "wilder": Wilder, "RMA": Wilder, "simple": Simple, " sma ": Simple} {
		got, err := ParseSmoothing(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSmoothing("ema")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		v    float64
		want Zone
	}{
		{70.0, Neutral},
		{70.01, Overbought},
		{30.0, Neutral},
		{29.99, Oversold},
		{50, Neutral},
		{100, Overbought},
		{0, Oversold},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.v), "v=%v", tt.v)
	}

	z := Zones{Overbought: 80, Oversold: 20}
	assert.Equal(t, Neutral, z.Classify(75))
	assert.Equal(t, Overbought, z.Classify(80.5))
	assert.Equal(t, Oversold, z.Classify(19))
}

func TestRatios(t *testing.T) {
	f := types.Fundamentals{
		ReturnOnEquity: types.Float(0.15),
		MarketCap:      types.Float(2.5e12),
		TrailingPE:     types.Float(22.1),
	}
	rs := Ratios(f)
	byLabel := map[string]Ratio{}
	for _, r := range rs {
		byLabel[r.Label] = r
	}

	require.NotNil(t, byLabel["ROE"].Value)
	assert.InDelta(t, 15.0, *byLabel["ROE"].Value, 1e-9)
	assert.Equal(t, Percent, byLabel["ROE"].Unit)
	assert.InDelta(t, 2500.0, *byLabel["Market Cap"].Value, 1e-9)
	assert.InDelta(t, 22.1, *byLabel["P/E"].Value, 1e-9)

	// absent stays absent
	assert.Nil(t, byLabel["ROCE (approx)"].Value)
	assert.Nil(t, byLabel["Revenue YoY"].Value)
	assert.Len(t, rs, 9)
}

func TestRatios_Shareholding(t *testing.T) {
	f := types.Fundamentals{Shareholding: types.Shareholding{
		Promoters: types.Float(50.3),
		FIIs:      types.Float(20),
		Period:    "Sep 2025",
	}}
	rs := Ratios(f)
	require.Len(t, rs, 11)
	assert.Equal(t, "Promoters (Sep 2025)", rs[9].Label)
	assert.InDelta(t, 50.3, *rs[9].Value, 1e-9)
	assert.Equal(t, "FIIs (Sep 2025)", rs[10].Label)
}
