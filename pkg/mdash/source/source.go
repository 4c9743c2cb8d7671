package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/komsit37/mdash/pkg/mdash/filter"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

// Source loads universes from a specification (e.g., filepath).
type Source interface {
	Load(ctx context.Context, spec any) ([]types.Universe, error)
}

// FileSource picks a loader by path: .csv files go to CSVSource, anything
// else (YAML files and directories) to YAMLSource. An empty path loads the
// built-in universes. Suffix is applied to bare symbols read from CSV files;
// YAML files declare their own.
type FileSource struct {
	Suffix string
}

func (src FileSource) Load(ctx context.Context, spec any) ([]types.Universe, error) {
	path, ok := spec.(string)
	if !ok {
		return nil, fmt.Errorf("%w: file source expects filepath string spec", types.ErrInvalidArgument)
	}
	if strings.TrimSpace(path) == "" {
		return Builtin()
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return CSVSource{Suffix: src.Suffix}.Load(ctx, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return dirSource{suffix: src.Suffix}.Load(ctx, path)
	}
	return YAMLSource{}.Load(ctx, path)
}

// Resolve flattens the universes matching f into one symbol list,
// keeping first-seen order and dropping duplicates and blanks.
func Resolve(lists []types.Universe, f filter.Filter) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, u := range filter.Select(lists, f) {
		for _, s := range u.Symbols {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
