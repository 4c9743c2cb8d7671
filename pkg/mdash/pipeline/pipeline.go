// Package pipeline wires universes, market data, metrics and renderers into
// the report, scan, watch and universes commands.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/komsit37/mdash/pkg/mdash/columns"
	"github.com/komsit37/mdash/pkg/mdash/filter"
	"github.com/komsit37/mdash/pkg/mdash/market"
	"github.com/komsit37/mdash/pkg/mdash/metrics"
	"github.com/komsit37/mdash/pkg/mdash/render"
	"github.com/komsit37/mdash/pkg/mdash/scan"
	"github.com/komsit37/mdash/pkg/mdash/source"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

// DefaultIndices are the benchmarks shown by the watch panel.
var DefaultIndices = []string{"^NSEI", "^BSESN", "^NSEBANK"}

type Runner struct {
	Provider market.Provider
	Source   source.Source
	Renderer render.Renderer
	Writer   io.Writer
	Logger   *slog.Logger
	Settings Settings
}

// Settings are the computation parameters shared by every command.
type Settings struct {
	Symbols     market.Symbols
	Lookbacks   metrics.LookbackSpec
	Oscillator  metrics.Oscillator
	Zones       metrics.Zones
	Period      string        // history range for reports
	WatchPeriod string        // history range for the watch panel
	Timeout     time.Duration // per collaborator call
	Workers     int
}

type ExecuteOptions struct {
	Columns     []string
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
	TermWidth   int
}

// ScanRequest selects the symbols to scan: explicit Symbols win, otherwise
// the universes loaded from Spec are narrowed by Filter.
type ScanRequest struct {
	Spec      any
	Filter    filter.Filter
	Symbols   []string
	Criterion types.ScanCriterion
	Period    string
	Progress  func(done, total int, symbol string)
	// Started, if set, is called with the resolved symbol count before the
	// first fetch.
	Started func(total int)
	// Finished, if set, is called once the scan returns, before rendering.
	Finished func()
}

func (r *Runner) log() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) settings() Settings {
	s := r.Settings
	if len(s.Lookbacks) == 0 {
		s.Lookbacks = metrics.DefaultLookbacks
	}
	if s.Oscillator.Window == 0 {
		s.Oscillator = metrics.DefaultOscillator
	}
	if s.Zones == (metrics.Zones{}) {
		s.Zones = metrics.DefaultZones
	}
	if s.Period == "" {
		s.Period = "max"
	}
	if s.WatchPeriod == "" {
		s.WatchPeriod = "6mo"
	}
	if s.Timeout <= 0 {
		s.Timeout = scan.DefaultTimeout
	}
	if s.Workers <= 0 {
		s.Workers = scan.DefaultWorkers
	}
	return s
}

func (r *Runner) renderOptions(opts ExecuteOptions) (render.Options, error) {
	cols, err := columns.Compute(opts.Columns)
	if err != nil {
		return render.Options{}, err
	}
	s := r.settings()
	return render.Options{
		Columns:     cols,
		Color:       opts.Color,
		PrettyJSON:  opts.PrettyJSON,
		MaxColWidth: opts.MaxColWidth,
		TermWidth:   opts.TermWidth,
		Symbols:     s.Symbols,
		Zones:       s.Zones,
	}, nil
}

// Universes loads the universes from spec and keeps those whose name matches f.
func (r *Runner) Universes(ctx context.Context, spec any, f filter.Filter) ([]types.Universe, error) {
	lists, err := r.Source.Load(ctx, spec)
	if err != nil {
		return nil, err
	}
	return filter.Select(lists, f), nil
}

func (r *Runner) RunUniverses(ctx context.Context, spec any, f filter.Filter, opts ExecuteOptions) error {
	lists, err := r.Universes(ctx, spec, f)
	if err != nil {
		return err
	}
	ro, err := r.renderOptions(opts)
	if err != nil {
		return err
	}
	return r.Renderer.RenderUniverses(r.Writer, lists, ro)
}

// Resolve returns the normalized, deduplicated symbols a scan request names.
func (r *Runner) Resolve(ctx context.Context, req ScanRequest) ([]string, error) {
	s := r.settings()
	if len(req.Symbols) > 0 {
		return source.Resolve([]types.Universe{{Symbols: s.Symbols.NormalizeAll(req.Symbols)}}, nil), nil
	}
	lists, err := r.Universes(ctx, req.Spec, req.Filter)
	if err != nil {
		return nil, err
	}
	if len(lists) == 0 {
		return nil, fmt.Errorf("%w: no universe matches %v", types.ErrInvalidArgument, req.Filter)
	}
	return source.Resolve(lists, nil), nil
}

// Scan screens the requested symbols.
func (r *Runner) Scan(ctx context.Context, req ScanRequest) (*scan.Result, error) {
	syms, err := r.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Started != nil {
		req.Started(len(syms))
	}
	s := r.settings()
	sc := &scan.Scanner{
		History:   r.Provider.History,
		Workers:   s.Workers,
		Timeout:   s.Timeout,
		Period:    req.Period,
		Smoothing: s.Oscillator.Smoothing,
		Progress:  req.Progress,
		Logger:    r.log(),
	}
	return sc.Scan(ctx, syms, req.Criterion)
}

// RunScan screens and renders. A cancelled scan still renders the partial
// result before returning the context error.
func (r *Runner) RunScan(ctx context.Context, req ScanRequest, opts ExecuteOptions) error {
	ro, err := r.renderOptions(opts)
	if err != nil {
		return err
	}
	res, scanErr := r.Scan(ctx, req)
	if req.Finished != nil {
		req.Finished()
	}
	if res == nil {
		return scanErr
	}
	if err := r.Renderer.RenderScan(r.Writer, res, ro); err != nil {
		return err
	}
	return scanErr
}

func (r *Runner) RunReport(ctx context.Context, symbol string, opts ExecuteOptions) error {
	ro, err := r.renderOptions(opts)
	if err != nil {
		return err
	}
	rep, err := r.Report(ctx, symbol)
	if err != nil {
		return err
	}
	return r.Renderer.RenderReport(r.Writer, rep, ro)
}

func (r *Runner) RunWatch(ctx context.Context, indices []string, opts ExecuteOptions) error {
	ro, err := r.renderOptions(opts)
	if err != nil {
		return err
	}
	rows, err := r.Watch(ctx, indices)
	if err != nil {
		return err
	}
	return r.Renderer.RenderWatch(r.Writer, rows, ro)
}
