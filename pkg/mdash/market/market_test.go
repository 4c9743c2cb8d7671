package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

func serve(t *testing.T, status int, body string, check func(*http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const chartBody = `{"chart":{"result":[{"meta":{"currency":"INR"},
 "timestamp":[1700265600,1700006400,1700092800,1700179200,1700179300],
 "indicators":{"quote":[{"close":[104.0,100.0,null,103.0,103.5]}]}}],"error":null}}`

func TestYahooChart_History(t *testing.T) {
	srv := serve(t, http.StatusOK, chartBody, func(r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/TCS.NS", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "3mo", r.URL.Query().Get("range"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
	})
	y := NewYahooChart(srv.URL, time.Second)

	s, err := y.History(context.Background(), "TCS.NS", "3mo")
	require.NoError(t, err)
	// null skipped, same-day bars collapsed, sorted ascending
	assert.Equal(t, []float64{100, 103.5, 104}, s.Closes())
	assert.Equal(t, "TCS.NS", s.Symbol)
}

func TestYahooChart_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"status", http.StatusNotFound, `nope`, types.ErrDataUnavailable},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, types.ErrDataUnavailable},
		{"empty", http.StatusOK, `{"chart":{"result":[],"error":null}}`, types.ErrDataUnavailable},
		{"garbage", http.StatusOK, `{"chart":`, types.ErrMalformedData},
		{"length mismatch", http.StatusOK, `{"chart":{"result":[{"timestamp":[1,2],"indicators":{"quote":[{"close":[1.0]}]}}]}}`, types.ErrMalformedData},
		{"all null closes", http.StatusOK, `{"chart":{"result":[{"timestamp":[1700006400,1700092800],"indicators":{"quote":[{"close":[null,null]}]}}]}}`, types.ErrDataUnavailable},
		{"zero close", http.StatusOK, `{"chart":{"result":[{"timestamp":[1700006400,1700092800],"indicators":{"quote":[{"close":[0,101.5]}]}}]}}`, types.ErrMalformedData},
		{"negative close", http.StatusOK, `{"chart":{"result":[{"timestamp":[1700006400],"indicators":{"quote":[{"close":[-3.0]}]}}]}}`, types.ErrMalformedData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body, nil)
			_, err := NewYahooChart(srv.URL, time.Second).History(context.Background(), "X", "1y")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "X")
		})
	}
}

func TestYahooChart_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewYahooChart(srv.URL, time.Minute).History(ctx, "SLOW", "1y")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDataUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

const summaryBody = `{"quoteSummary":{"result":[{
 "financialData":{"currentPrice":{"raw":3500.5,"fmt":"3,500.50"},"returnOnEquity":{"raw":0.45},"revenueGrowth":{"raw":0.08},"earningsGrowth":{},"debtToEquity":{"raw":9.1}},
 "defaultKeyStatistics":{"heldPercentInsiders":{"raw":0.72},"heldPercentInstitutions":{"raw":0.21},"priceToBook":{"raw":14.2}},
 "summaryDetail":{"trailingPE":{"raw":29.8}},
 "price":{"marketCap":{"raw":1.27e13},"longName":"Tata Consultancy Services Limited","shortName":"TCS","currency":"INR","exchangeName":"NSE"}
}],"error":null}}`

func TestYahooSummary_Fundamentals(t *testing.T) {
	srv := serve(t, http.StatusOK, summaryBody, func(r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/TCS.NS", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("modules"), "financialData")
	})
	y := NewYahooSummary(srv.URL, time.Second, Symbols{Suffix: ".NS"})
	f, err := y.Fundamentals(context.Background(), "TCS.NS")
	require.NoError(t, err)

	assert.Equal(t, "Tata Consultancy Services Limited", f.Name)
	assert.Equal(t, "INR", f.Currency)
	assert.Equal(t, "NSE", f.Exchange)
	require.NotNil(t, f.ReturnOnEquity)
	assert.InDelta(t, 0.45, *f.ReturnOnEquity, 1e-12)
	assert.InDelta(t, 1.27e13, *f.MarketCap, 1)
	assert.InDelta(t, 29.8, *f.TrailingPE, 1e-12)
	assert.InDelta(t, 14.2, *f.PriceToBook, 1e-12)
	assert.InDelta(t, 0.72, *f.HeldPercentInsiders, 1e-12)

	// empty object and missing key both stay absent
	assert.Nil(t, f.EarningsGrowth)
	assert.Nil(t, f.ReturnOnAssets)
}

func TestYahooSummary_Errors(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found for symbol: ZZZ"}}}`, nil)
	_, err := NewYahooSummary(srv.URL, time.Second, Symbols{}).Fundamentals(context.Background(), "ZZZ")
	assert.ErrorIs(t, err, types.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "Quote not found")

	srv = serve(t, http.StatusOK, `<html>`, nil)
	_, err = NewYahooSummary(srv.URL, time.Second, Symbols{}).Fundamentals(context.Background(), "ZZZ")
	assert.ErrorIs(t, err, types.ErrMalformedData)
}

func TestYahooSummary_CurrencyFallback(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"quoteSummary":{"result":[{"financialData":{}}],"error":null}}`, nil)
	f, err := NewYahooSummary(srv.URL, time.Second, Symbols{Suffix: ".NS"}).Fundamentals(context.Background(), "INFY.NS")
	require.NoError(t, err)
	assert.Equal(t, "INR", f.Currency)
	assert.Nil(t, f.CurrentPrice)
}

const screenerPage = `<html><body>
<section id="shareholding">
 <table class="data-table">
  <thead><tr><th></th><th>Jun 2025</th><th>Sep 2025</th></tr></thead>
  <tbody>
   <tr><td class="text"><button>Promoters&nbsp;+</button></td><td>72.38%</td><td>71.77%</td></tr>
   <tr><td class="text"><button>FIIs&nbsp;+</button></td><td>12.46%</td><td>11.48%</td></tr>
   <tr><td class="text"><button>DIIs&nbsp;+</button></td><td>10.73%</td><td>11.47%</td></tr>
   <tr><td class="text">Government&nbsp;+</td><td>0.04%</td><td>0.05%</td></tr>
   <tr><td class="text"><button>Public&nbsp;+</button></td><td>4.39%</td><td>5.23%</td></tr>
   <tr><td class="text">No. of Shareholders</td><td>2,210,000</td><td>2,340,000</td></tr>
  </tbody>
 </table>
</section></body></html>`

func TestScreener_Shareholding(t *testing.T) {
	srv := serve(t, http.StatusOK, screenerPage, func(r *http.Request) {
		assert.Equal(t, "/company/TCS/", r.URL.Path)
	})
	sh, err := NewScreener(srv.URL, time.Second, Symbols{Suffix: ".NS"}).Shareholding(context.Background(), "TCS.NS")
	require.NoError(t, err)

	assert.Equal(t, "Sep 2025", sh.Period)
	require.NotNil(t, sh.Promoters)
	assert.InDelta(t, 71.77, *sh.Promoters, 1e-9)
	assert.InDelta(t, 11.48, *sh.FIIs, 1e-9)
	assert.InDelta(t, 11.47, *sh.DIIs, 1e-9)
	assert.InDelta(t, 0.05, *sh.Government, 1e-9)
	assert.InDelta(t, 5.23, *sh.Public, 1e-9)
	assert.Nil(t, sh.Pledged)
}

func TestScreener_NoTable(t *testing.T) {
	srv := serve(t, http.StatusOK, `<html><body><p>Login</p></body></html>`, nil)
	_, err := NewScreener(srv.URL, time.Second, Symbols{Suffix: ".NS"}).Shareholding(context.Background(), "TCS.NS")
	assert.ErrorIs(t, err, types.ErrDataUnavailable)

	_, err = NewScreener(srv.URL, time.Second, Symbols{Suffix: ".NS"}).Shareholding(context.Background(), "^NSEI")
	assert.ErrorIs(t, err, types.ErrDataUnavailable)
}

func TestSymbols(t *testing.T) {
	s := Symbols{Suffix: ".NS"}
	tests := []struct {
		in, norm, bare, ccy string
	}{
		{"tcs", "TCS.NS", "TCS", "INR"},
		{" RELIANCE.BO ", "RELIANCE.BO", "RELIANCE", "INR"},
		{"^NSEI", "^NSEI", "^NSEI", "INR"},
		{"7203.T", "7203.T", "7203", "JPY"},
		{"BRK.B", "BRK.B", "BRK.B", "USD"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n := s.Normalize(tt.in)
			assert.Equal(t, tt.norm, n)
			assert.Equal(t, tt.bare, s.Bare(n))
			assert.Equal(t, tt.ccy, s.Currency(n))
		})
	}

	us := Symbols{}
	assert.Equal(t, "AAPL", us.Normalize("aapl"))
	assert.Equal(t, "USD", us.Currency("AAPL"))
	assert.Equal(t, "USD", us.Currency("^GSPC"))
	assert.Equal(t, []string{"A.NS", "B.NS"}, s.NormalizeAll([]string{"a", " ", "b"}))
}

func TestFake(t *testing.T) {
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake().SetCloses("A", end, 10, 11, 12).Fail("B", errors.New("boom"))

	s, err := f.History(context.Background(), "A", "max")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, end, s.Last().Date)

	_, err = f.History(context.Background(), "B", "max")
	assert.ErrorIs(t, err, types.ErrDataUnavailable)

	_, err = f.History(context.Background(), "C", "max")
	assert.ErrorIs(t, err, types.ErrDataUnavailable)

	f.Fail("M", fmt.Errorf("wrapped: %w", types.NewDataError(types.KindMalformedData, "M", "history", "bad")))
	_, err = f.History(context.Background(), "M", "max")
	assert.Equal(t, types.KindMalformedData, types.Classify(err))

	q, err := f.Quote(context.Background(), "A")
	require.NoError(t, err)
	assert.InDelta(t, 12.0, *q.Price, 1e-12)
	assert.InDelta(t, 100.0/11.0, *q.ChangePercent, 1e-9)

	assert.Equal(t, 1, f.Calls("B"))
	assert.Equal(t, 2, f.Calls("A"))
}

func TestFake_DelayHonoursContext(t *testing.T) {
	f := NewFake().SetCloses("A", time.Now(), 1, 2)
	f.Delay = time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.History(ctx, "A", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewDemo_Deterministic(t *testing.T) {
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	a := NewDemo([]string{"X", "Y"}, 60, end)
	b := NewDemo([]string{"X", "Y"}, 60, end)
	sa, err := a.History(context.Background(), "X", "")
	require.NoError(t, err)
	sb, err := b.History(context.Background(), "X", "")
	require.NoError(t, err)
	assert.Equal(t, sa.Closes(), sb.Closes())
	assert.Equal(t, 60, sa.Len())

	sy, err := a.History(context.Background(), "Y", "")
	require.NoError(t, err)
	assert.NotEqual(t, sa.Closes(), sy.Closes())
	assert.Equal(t, "X", sa.Symbol)
}
