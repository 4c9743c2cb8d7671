package render

import (
	"bytes"
	"io"

	"github.com/charmbracelet/glamour"

	"github.com/komsit37/mdash/pkg/mdash/scan"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

// MarkdownRenderer emits markdown tables. When writing to a terminal
// (Options.TermWidth > 0) the markdown is styled with glamour.
type MarkdownRenderer struct {
	tables *TableRenderer
	Style  string // glamour standard style; default "dark"
}

func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{tables: &TableRenderer{markdown: true}, Style: "dark"}
}

func (r *MarkdownRenderer) RenderReport(w io.Writer, rep *types.Report, opts Options) error {
	return r.pipe(w, opts, func(buf io.Writer) error { return r.tables.RenderReport(buf, rep, opts) })
}

func (r *MarkdownRenderer) RenderScan(w io.Writer, res *scan.Result, opts Options) error {
	return r.pipe(w, opts, func(buf io.Writer) error { return r.tables.RenderScan(buf, res, opts) })
}

func (r *MarkdownRenderer) RenderWatch(w io.Writer, rows []types.IndexRow, opts Options) error {
	return r.pipe(w, opts, func(buf io.Writer) error { return r.tables.RenderWatch(buf, rows, opts) })
}

func (r *MarkdownRenderer) RenderUniverses(w io.Writer, lists []types.Universe, opts Options) error {
	return r.pipe(w, opts, func(buf io.Writer) error { return r.tables.RenderUniverses(buf, lists, opts) })
}

func (r *MarkdownRenderer) pipe(w io.Writer, opts Options, fn func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	if opts.TermWidth <= 0 {
		_, err := w.Write(buf.Bytes())
		return err
	}
	style := r.Style
	if style == "" {
		style = "dark"
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(opts.TermWidth),
	)
	if err != nil {
		return err
	}
	out, err := tr.Render(buf.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
