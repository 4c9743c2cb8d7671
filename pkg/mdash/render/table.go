package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/mdash/pkg/mdash/columns"
	"github.com/komsit37/mdash/pkg/mdash/metrics"
	"github.com/komsit37/mdash/pkg/mdash/scan"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

// TableRenderer draws borderless terminal tables. With markdown set it emits
// GitHub-flavoured markdown tables instead.
type TableRenderer struct{ markdown bool }

func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

func (r *TableRenderer) RenderReport(w io.Writer, rep *types.Report, opts Options) error {
	if rep == nil {
		return nil
	}
	title := rep.Symbol
	if rep.Name != "" {
		title = fmt.Sprintf("%s (%s)", rep.Name, rep.Symbol)
	}
	r.heading(w, title, 1, opts)

	ccy := rep.Currency
	if ccy == "" {
		ccy = opts.Symbols.Currency(rep.Symbol)
	}
	tw := r.newWriter(w, opts)
	tw.AppendHeader(table.Row{"PRICE", "CHANGE", "MARKET CAP", "EXCHANGE", "AS OF"})
	asOf := NA
	if !rep.AsOf.IsZero() {
		asOf = rep.AsOf.Format("2006-01-02")
	}
	mcap := NA
	if rep.MarketCap != nil {
		mcap = MoneyPtr(ccy, rep.MarketCap)
	}
	tw.AppendRow(table.Row{
		r.signed(MoneyPtr(ccy, rep.Price), rep.ChangePercent, opts),
		r.signed(Percent(rep.ChangePercent), rep.ChangePercent, opts),
		mcap,
		orNA(rep.Exchange),
		asOf,
	})
	r.flush(tw)

	if len(rep.Returns) > 0 {
		fmt.Fprintln(w)
		r.heading(w, "Returns", 2, opts)
		tw = r.newWriter(w, opts)
		hdr := make(table.Row, len(rep.Returns))
		row := make(table.Row, len(rep.Returns))
		cfgs := make([]table.ColumnConfig, len(rep.Returns))
		for i, ret := range rep.Returns {
			hdr[i] = strings.ToUpper(ret.Label)
			row[i] = r.signed(Percent(ret.Percent), ret.Percent, opts)
			cfgs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignRight, AlignHeader: text.AlignRight}
		}
		tw.AppendHeader(hdr)
		tw.AppendRow(row)
		tw.SetColumnConfigs(cfgs)
		r.flush(tw)
	}

	fmt.Fprintln(w)
	r.heading(w, "Momentum", 2, opts)
	tw = r.newWriter(w, opts)
	tw.AppendHeader(table.Row{"RSI (14)", "ZONE"})
	zone := orNA(rep.Zone)
	if rep.Oscillator != nil && r.colored(opts) {
		zone = zoneColor(rep.Zone).Sprint(rep.Zone)
	}
	tw.AppendRow(table.Row{Number(rep.Oscillator, 2), zone})
	r.flush(tw)

	if len(rep.Ratios) > 0 {
		fmt.Fprintln(w)
		r.heading(w, "Fundamentals", 2, opts)
		tw = r.newWriter(w, opts)
		tw.AppendHeader(table.Row{"SECTION", "METRIC", "VALUE"})
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignRight},
		})
		prev := ""
		for _, l := range rep.Ratios {
			section := l.Section
			if section == prev && !r.markdown {
				section = ""
			}
			prev = l.Section
			tw.AppendRow(table.Row{section, l.Label, Value(l.Value, l.Unit)})
		}
		r.flush(tw)
	}

	r.notes(w, rep.Notes, opts)
	return nil
}

func (r *TableRenderer) RenderScan(w io.Writer, res *scan.Result, opts Options) error {
	if res == nil {
		res = &scan.Result{}
	}
	cols := opts.columns()
	env := opts.env()

	if len(res.Rows) == 0 {
		fmt.Fprintln(w, "No symbols matched.")
	} else {
		tw := r.newWriter(w, opts)
		hdr := make(table.Row, len(cols))
		cfgs := make([]table.ColumnConfig, 0, len(cols))
		for i, c := range cols {
			hdr[i] = strings.ToUpper(c.Header)
			cfg := table.ColumnConfig{Number: i + 1, WidthMax: r.maxWidth(opts)}
			if c.Numeric {
				cfg.Align = text.AlignRight
				cfg.AlignHeader = text.AlignRight
			}
			cfgs = append(cfgs, cfg)
		}
		tw.AppendHeader(hdr)
		tw.SetColumnConfigs(cfgs)
		for _, sr := range res.Rows {
			cells := columns.Row(cols, sr, env)
			row := make(table.Row, len(cells))
			for i, c := range cells {
				row[i] = r.signed(c.Text, c.Signed, opts)
			}
			tw.AppendRow(row)
		}
		r.flush(tw)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, summary(res))
	return nil
}

func (r *TableRenderer) RenderWatch(w io.Writer, rows []types.IndexRow, opts Options) error {
	tw := r.newWriter(w, opts)
	tw.AppendHeader(table.Row{"INDEX", "NAME", "LAST", "CHG%", "1W%", "1M%", "RSI", "ZONE"})
	var cfgs []table.ColumnConfig
	for i := 3; i <= 7; i++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	cfgs = append(cfgs, table.ColumnConfig{Number: 2, WidthMax: r.maxWidth(opts)})
	tw.SetColumnConfigs(cfgs)

	var notes []string
	for _, ix := range rows {
		if ix.Err != nil {
			notes = append(notes, fmt.Sprintf("%s: %v", ix.Symbol, ix.Err))
		}
		zone := orNA(ix.Zone)
		if ix.Zone != "" && r.colored(opts) {
			zone = zoneColor(ix.Zone).Sprint(ix.Zone)
		}
		tw.AppendRow(table.Row{
			ix.Symbol,
			ix.Name,
			Number(ix.Price, 2),
			r.signed(Percent(ix.ChangePercent), ix.ChangePercent, opts),
			r.signed(Percent(ix.Return1W), ix.Return1W, opts),
			r.signed(Percent(ix.Return1M), ix.Return1M, opts),
			Number(ix.Oscillator, 2),
			zone,
		})
	}
	r.flush(tw)
	r.notes(w, notes, opts)
	return nil
}

func (r *TableRenderer) RenderUniverses(w io.Writer, lists []types.Universe, opts Options) error {
	tw := r.newWriter(w, opts)
	tw.AppendHeader(table.Row{"UNIVERSE", "SIZE", "SYMBOLS"})
	width := r.maxWidth(opts) * 2
	if opts.TermWidth > 0 && opts.TermWidth-30 > width {
		width = opts.TermWidth - 30
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight},
		{Number: 3, WidthMax: width},
	})
	for _, u := range lists {
		bare := make([]string, len(u.Symbols))
		for i, s := range u.Symbols {
			bare[i] = opts.Symbols.Bare(s)
		}
		tw.AppendRow(table.Row{u.Name, len(u.Symbols), strings.Join(bare, ", ")})
	}
	r.flush(tw)
	return nil
}

func (r *TableRenderer) newWriter(w io.Writer, opts Options) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if r.markdown {
		return tw
	}
	if opts.Color {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	if opts.TermWidth > 0 {
		tw.SetAllowedRowLength(opts.TermWidth)
	}
	return tw
}

func (r *TableRenderer) flush(tw table.Writer) {
	if r.markdown {
		tw.RenderMarkdown()
		return
	}
	tw.Render()
}

func (r *TableRenderer) heading(w io.Writer, s string, level int, opts Options) {
	switch {
	case r.markdown:
		fmt.Fprintf(w, "%s %s\n\n", strings.Repeat("#", level), s)
	case opts.Color:
		fmt.Fprintln(w, text.Bold.Sprint(strings.ToUpper(s)))
	default:
		fmt.Fprintln(w, strings.ToUpper(s))
	}
}

func (r *TableRenderer) notes(w io.Writer, notes []string, opts Options) {
	if len(notes) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, n := range notes {
		line := "note: " + n
		if r.markdown {
			line = "> " + line
		} else if opts.Color {
			line = text.Colors{text.FgHiBlack}.Sprint(line)
		}
		fmt.Fprintln(w, line)
	}
}

func (r *TableRenderer) colored(opts Options) bool { return opts.Color && !r.markdown }

// signed colours s green or red by the sign of v.
func (r *TableRenderer) signed(s string, v *float64, opts Options) string {
	if v == nil || !r.colored(opts) {
		return s
	}
	switch {
	case *v > 0:
		return text.Colors{text.FgGreen}.Sprint(s)
	case *v < 0:
		return text.Colors{text.FgRed}.Sprint(s)
	}
	return s
}

func (r *TableRenderer) maxWidth(opts Options) int {
	if opts.MaxColWidth <= 0 {
		return 40
	}
	return opts.MaxColWidth
}

func zoneColor(zone string) text.Colors {
	switch metrics.Zone(zone) {
	case metrics.Overbought:
		return text.Colors{text.FgRed}
	case metrics.Oversold:
		return text.Colors{text.FgGreen}
	}
	return text.Colors{text.FgYellow}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NA
	}
	return s
}

// summary is the one-line tally printed under a scan table.
func summary(res *scan.Result) string {
	parts := []string{fmt.Sprintf("%d matched of %d scanned", len(res.Rows), len(res.Outcomes))}
	for _, st := range []scan.Status{scan.InsufficientHistory, scan.Malformed, scan.FetchFailed} {
		if n := res.Count(st); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	return strings.Join(parts, ", ")
}
