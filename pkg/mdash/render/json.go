package render

import (
	"encoding/json"
	"io"

	"github.com/komsit37/mdash/pkg/mdash/columns"
	"github.com/komsit37/mdash/pkg/mdash/scan"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

// scanModel is the output shape of a scan for JSONRenderer.
type scanModel struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Skipped []skippedModel   `json:"skipped"`
	Scanned int              `json:"scanned"`
}

type skippedModel struct {
	Symbol string `json:"symbol"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type indexModel struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Price         *float64 `json:"price"`
	ChangePercent *float64 `json:"change_percent"`
	Return1W      *float64 `json:"return_1w"`
	Return1M      *float64 `json:"return_1m"`
	Oscillator    *float64 `json:"rsi"`
	Zone          string   `json:"zone,omitempty"`
	Error         string   `json:"error,omitempty"`
}

type universeModel struct {
	Name    string   `json:"name"`
	Symbols []string `json:"symbols"`
}

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) RenderReport(w io.Writer, rep *types.Report, opts Options) error {
	return encode(w, rep, opts)
}

func (r *JSONRenderer) RenderScan(w io.Writer, res *scan.Result, opts Options) error {
	if res == nil {
		res = &scan.Result{}
	}
	cols := opts.columns()
	env := opts.env()
	out := scanModel{
		Rows:    make([]map[string]any, 0, len(res.Rows)),
		Skipped: []skippedModel{},
		Scanned: len(res.Outcomes),
	}
	for _, c := range cols {
		out.Columns = append(out.Columns, c.Key)
	}
	for _, row := range res.Rows {
		fields := make(map[string]any, len(cols))
		for i, cell := range columns.Row(cols, row, env) {
			fields[cols[i].Key] = cell.Value
		}
		out.Rows = append(out.Rows, fields)
	}
	for _, o := range res.Failed() {
		sk := skippedModel{Symbol: o.Symbol, Status: o.Status.String()}
		if o.Err != nil {
			sk.Error = o.Err.Error()
		}
		out.Skipped = append(out.Skipped, sk)
	}
	return encode(w, out, opts)
}

func (r *JSONRenderer) RenderWatch(w io.Writer, rows []types.IndexRow, opts Options) error {
	out := make([]indexModel, 0, len(rows))
	for _, ix := range rows {
		m := indexModel{
			Symbol:        ix.Symbol,
			Name:          ix.Name,
			Price:         ix.Price,
			ChangePercent: ix.ChangePercent,
			Return1W:      ix.Return1W,
			Return1M:      ix.Return1M,
			Oscillator:    ix.Oscillator,
			Zone:          ix.Zone,
		}
		if ix.Err != nil {
			m.Error = ix.Err.Error()
		}
		out = append(out, m)
	}
	return encode(w, out, opts)
}

func (r *JSONRenderer) RenderUniverses(w io.Writer, lists []types.Universe, opts Options) error {
	out := make([]universeModel, 0, len(lists))
	for _, u := range lists {
		out = append(out, universeModel{Name: u.Name, Symbols: u.Symbols})
	}
	return encode(w, out, opts)
}

func encode(w io.Writer, v any, opts Options) error {
	enc := json.NewEncoder(w)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
