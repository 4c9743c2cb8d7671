package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

// DefaultYahooBaseURL is the public Yahoo Finance API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooChart fetches daily history from the v8 chart endpoint.
type YahooChart struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooChart returns a YahooChart against baseURL (DefaultYahooBaseURL if empty).
func NewYahooChart(baseURL string, timeout time.Duration) *YahooChart {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooChart{BaseURL: baseURL, Client: &http.Client{Timeout: timeout}}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History implements HistoryFetcher.
func (y *YahooChart) History(ctx context.Context, symbol, period string) (types.PriceSeries, error) {
	if period == "" {
		period = "max"
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		y.BaseURL, url.PathEscape(symbol), url.QueryEscape(period))

	body, err := get(ctx, y.Client, u)
	if err != nil {
		return types.PriceSeries{}, &types.DataError{Kind: types.KindDataUnavailable, Symbol: symbol, Op: "history", Err: err}
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return types.PriceSeries{}, &types.DataError{Kind: types.KindMalformedData, Symbol: symbol, Op: "history", Err: err}
	}
	if e := chart.Chart.Error; e != nil {
		return types.PriceSeries{}, types.NewDataError(types.KindDataUnavailable, symbol, "history", "%s: %s", e.Code, e.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return types.PriceSeries{}, types.NewDataError(types.KindDataUnavailable, symbol, "history", "no data returned")
	}

	res := chart.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return types.PriceSeries{}, types.NewDataError(types.KindMalformedData, symbol, "history", "no quote indicators")
	}
	closes := res.Indicators.Quote[0].Close
	if len(closes) != len(res.Timestamp) {
		return types.PriceSeries{}, types.NewDataError(types.KindMalformedData, symbol, "history",
			"%d timestamps but %d closes", len(res.Timestamp), len(closes))
	}

	// collapse to one close per calendar day, later bars win
	byDay := make(map[time.Time]float64, len(closes))
	for i, ts := range res.Timestamp {
		c := closes[i]
		if c == nil {
			continue // holidays and halted sessions come back as null
		}
		t := time.Unix(ts, 0).UTC()
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		byDay[d] = *c
	}
	if len(byDay) == 0 {
		return types.PriceSeries{}, types.NewDataError(types.KindDataUnavailable, symbol, "history",
			"%d bars, no closes", len(res.Timestamp))
	}
	pts := make([]types.Point, 0, len(byDay))
	for d, c := range byDay {
		pts = append(pts, types.Point{Date: d, Close: c})
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	return types.NewPriceSeries(symbol, pts)
}

// get performs a GET and returns the body of a 200 response.
func get(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	if c == nil {
		c = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("%w: %v", ctxErr, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}
