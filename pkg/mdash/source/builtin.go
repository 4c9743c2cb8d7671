package source

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/komsit37/mdash/pkg/mdash/market"
	"github.com/komsit37/mdash/pkg/mdash/types"
)

//go:embed universes.yaml
var builtinYAML []byte

// Builtin returns the universes compiled into the binary.
func Builtin() ([]types.Universe, error) {
	lists, err := parseYAML(builtinYAML)
	if err != nil {
		return nil, fmt.Errorf("builtin universes: %w", err)
	}
	return lists, nil
}

// Names returns the sorted universe names.
func Names(lists []types.Universe) []string {
	out := make([]string, 0, len(lists))
	for _, u := range lists {
		out = append(out, u.Name)
	}
	sort.Strings(out)
	return out
}

func normalizeSuffix(sym, suffix string) string {
	return market.Symbols{Suffix: suffix}.Normalize(sym)
}
