package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/mdash/pkg/mdash/market"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

// YAMLSource loads universes from a YAML file.
//
// The file holds a top-level "universe" key whose value is either a list of
// symbols or a list of named groups, nested to any depth:
//
//	universe:
//	  - name: banks
//	    universe: [HDFCBANK, ICICIBANK, {sym: SBIN}]
//	  - name: it
//	    universe:
//	      - name: large
//	        universe: [TCS, INFY]
//
// Group names join with "/" (e.g. "it/large"). A "suffix" key on the root or
// on a group (e.g. ".NS") is appended to the bare symbols below it. The older
// "watchlist" key is accepted in place of "universe".
type YAMLSource struct{}

// Load expects spec to be a string filepath.
func (YAMLSource) Load(ctx context.Context, spec any) ([]types.Universe, error) {
	path, ok := spec.(string)
	if !ok {
		return nil, fmt.Errorf("%w: yaml source expects filepath string spec", types.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lists, err := parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	// If a list has no name, use the file name as a fallback.
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i := range lists {
		if strings.TrimSpace(lists[i].Name) == "" {
			lists[i].Name = base
		}
	}
	return lists, nil
}

// dirSource recursively loads every YAML and CSV file below a directory.
// Universe names are prefixed with the file's relative path.
type dirSource struct{ suffix string }

func (d dirSource) Load(ctx context.Context, spec any) ([]types.Universe, error) {
	root, _ := spec.(string)
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".yaml", ".yml", ".csv":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var all []types.Universe
	for _, full := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var lists []types.Universe
		if strings.EqualFold(filepath.Ext(full), ".csv") {
			lists, err = CSVSource{Suffix: d.suffix}.Load(ctx, full)
		} else {
			lists, err = YAMLSource{}.Load(ctx, full)
		}
		if err != nil {
			return nil, err
		}
		// Compute prefix from relative path (without extension), using forward slashes.
		rel, err := filepath.Rel(root, full)
		if err != nil {
			rel = filepath.Base(full)
		}
		prefix := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		base := strings.TrimSuffix(filepath.Base(full), filepath.Ext(full))
		for i := range lists {
			switch lists[i].Name {
			case "", base:
				lists[i].Name = prefix
			default:
				lists[i].Name = prefix + "/" + lists[i].Name
			}
		}
		all = append(all, lists...)
	}
	return all, nil
}

// parseYAML parses the universe format into one or more universes.
func parseYAML(data []byte) ([]types.Universe, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedData, err)
	}
	root = norm(root)

	m, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected map with 'universe'", types.ErrMalformedData)
	}
	node := childKey(m)
	if node == "" || m[node] == nil {
		return nil, fmt.Errorf("%w: missing 'universe'", types.ErrMalformedData)
	}

	var lists []types.Universe
	var walk func(node any, path []string, sx market.Symbols)
	walk = func(node any, path []string, sx market.Symbols) {
		switch n := node.(type) {
		case []any:
			// Leaf symbols directly in this list form one universe;
			// nested groups are walked on their own.
			var syms []string
			for _, e := range n {
				if s, ok := toSymbol(e); ok {
					syms = append(syms, sx.Normalize(s))
				}
			}
			if len(syms) > 0 {
				lists = append(lists, types.Universe{Name: deriveName(path), Symbols: syms})
			}
			for _, e := range n {
				if g, ok := e.(map[string]any); ok {
					if k := childKey(g); k != "" {
						walk(g[k], groupPath(path, g), groupSuffix(g, sx))
					}
				}
			}
		case map[string]any:
			if k := childKey(n); k != "" {
				walk(n[k], groupPath(path, n), groupSuffix(n, sx))
				return
			}
			if s, ok := toSymbol(n); ok {
				lists = append(lists, types.Universe{Name: deriveName(path), Symbols: []string{sx.Normalize(s)}})
			}
		case string:
			if s := strings.TrimSpace(n); s != "" {
				lists = append(lists, types.Universe{Name: deriveName(path), Symbols: []string{sx.Normalize(s)}})
			}
		}
	}
	walk(m[node], nil, groupSuffix(m, market.Symbols{}))
	return lists, nil
}

// norm converts maps with non-string keys to map[string]any.
func norm(v any) any {
	switch m := v.(type) {
	case map[any]any:
		mm := make(map[string]any, len(m))
		for k, val := range m {
			mm[fmt.Sprint(k)] = norm(val)
		}
		return mm
	case map[string]any:
		for k, val := range m {
			m[k] = norm(val)
		}
		return m
	case []any:
		out := make([]any, 0, len(m))
		for _, e := range m {
			out = append(out, norm(e))
		}
		return out
	default:
		return v
	}
}

func childKey(m map[string]any) string {
	for _, k := range []string{"universe", "watchlist"} {
		if _, ok := m[k]; ok {
			return k
		}
	}
	return ""
}

func groupPath(path []string, g map[string]any) []string {
	next := append([]string(nil), path...)
	if name, ok := g["name"].(string); ok && strings.TrimSpace(name) != "" {
		next = append(next, strings.TrimSpace(name))
	}
	return next
}

// groupSuffix returns the exchange suffix declared on g, or the inherited one.
func groupSuffix(g map[string]any, inherited market.Symbols) market.Symbols {
	if sfx, ok := g["suffix"].(string); ok {
		return market.Symbols{Suffix: strings.TrimSpace(sfx)}
	}
	return inherited
}

// toSymbol accepts a bare scalar ("TCS", 7203) or a {sym: X} map.
func toSymbol(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case int, int64, uint64, float64:
		return fmt.Sprint(t), true
	case map[string]any:
		if childKey(t) != "" {
			return "", false
		}
		if sym, ok := t["sym"]; ok && sym != nil {
			s := strings.TrimSpace(fmt.Sprint(sym))
			return s, s != ""
		}
	}
	return "", false
}

func deriveName(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return strings.Join(path, "/")
}
