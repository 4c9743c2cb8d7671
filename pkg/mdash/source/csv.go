package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

// CSVSource loads one universe from a CSV file: a header row, then one
// symbol per row in the first column. The universe is named after the file.
type CSVSource struct {
	Suffix string // appended to bare symbols, e.g. ".NS"
}

func (c CSVSource) Load(ctx context.Context, spec any) ([]types.Universe, error) {
	path, ok := spec.(string)
	if !ok {
		return nil, fmt.Errorf("%w: csv source expects filepath string spec", types.ErrInvalidArgument)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	syms, err := readCSV(ctx, f, c.Suffix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []types.Universe{{Name: name, Symbols: syms}}, nil
}

func readCSV(ctx context.Context, r io.Reader, suffix string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedData, err)
	}

	var syms []string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrMalformedData, err)
		}
		if len(record) == 0 {
			continue
		}
		s := strings.TrimSpace(record[0])
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		syms = append(syms, normalizeSuffix(s, suffix))
	}
	return syms, nil
}
