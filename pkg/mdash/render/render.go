package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/komsit37/mdash/pkg/mdash/columns"
	"github.com/komsit37/mdash/pkg/mdash/market"
	"github.com/komsit37/mdash/pkg/mdash/metrics"
	"github.com/komsit37/mdash/pkg/mdash/scan"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

// Renderer renders dashboard views to an output writer.
type Renderer interface {
	RenderReport(w io.Writer, r *types.Report, opts Options) error
	RenderScan(w io.Writer, res *scan.Result, opts Options) error
	RenderWatch(w io.Writer, rows []types.IndexRow, opts Options) error
	RenderUniverses(w io.Writer, lists []types.Universe, opts Options) error
}

type Options struct {
	Columns     []columns.Column // scan table columns; empty means the default set
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
	TermWidth   int // 0 when not writing to a terminal
	Symbols     market.Symbols
	Zones       metrics.Zones
}

// Formats lists the accepted --format values.
var Formats = []string{"table", "json", "markdown", "syms"}

// New returns the renderer for a format name.
func New(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		return NewTableRenderer(), nil
	case "json":
		return NewJSONRenderer(), nil
	case "markdown", "md":
		return NewMarkdownRenderer(), nil
	case "syms":
		return NewSymsRenderer(), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", types.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

func (o Options) env() columns.Env {
	return columns.Env{
		Money: func(sym string, v float64) string { return Money(o.Symbols.Currency(sym), v) },
		Bare:  o.Symbols.Bare,
		Zones: o.zones(),
	}
}

func (o Options) zones() metrics.Zones {
	if o.Zones == (metrics.Zones{}) {
		return metrics.DefaultZones
	}
	return o.Zones
}

func (o Options) columns() []columns.Column {
	if len(o.Columns) > 0 {
		return o.Columns
	}
	cols, _ := columns.Compute(nil)
	return cols
}
