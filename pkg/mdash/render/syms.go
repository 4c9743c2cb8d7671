package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/komsit37/mdash/pkg/mdash/scan"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

// symsRenderer prints symbols in a single comma-separated line with the
// exchange suffix trimmed, for piping into other tools.
type symsRenderer struct{}

func NewSymsRenderer() Renderer {
	return symsRenderer{}
}

func (symsRenderer) RenderReport(w io.Writer, rep *types.Report, opts Options) error {
	if rep == nil {
		return nil
	}
	return writeSyms(w, []string{rep.Symbol}, opts)
}

func (symsRenderer) RenderScan(w io.Writer, res *scan.Result, opts Options) error {
	var syms []string
	if res != nil {
		for _, r := range res.Rows {
			syms = append(syms, r.Symbol)
		}
	}
	return writeSyms(w, syms, opts)
}

func (symsRenderer) RenderWatch(w io.Writer, rows []types.IndexRow, opts Options) error {
	syms := make([]string, 0, len(rows))
	for _, r := range rows {
		syms = append(syms, r.Symbol)
	}
	return writeSyms(w, syms, opts)
}

func (symsRenderer) RenderUniverses(w io.Writer, lists []types.Universe, opts Options) error {
	var syms []string
	for _, u := range lists {
		syms = append(syms, u.Symbols...)
	}
	return writeSyms(w, syms, opts)
}

func writeSyms(w io.Writer, in []string, opts Options) error {
	seen := make(map[string]struct{}, len(in))
	symbols := make([]string, 0, len(in))
	for _, s := range in {
		sym := strings.TrimSpace(s)
		if sym == "" {
			continue
		}
		sym = opts.Symbols.Bare(sym)
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	_, err := fmt.Fprintln(w, strings.Join(symbols, ","))
	return err
}
