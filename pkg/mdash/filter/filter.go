package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

// Filter matches a universe name.
type Filter interface {
	Match(name string) bool
}

// Parse builds a filter from an expression:
// - Empty: everything
// - Comma-separated exact names: "nifty50,niftybank"
// - Glob: "nifty*"
// - Regex: "/^us-/"
// - Leading "!" negates any of the above: "!us-*"
// - Anything else: case-insensitive substring
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Always(true), nil
	}
	if strings.HasPrefix(expr, "!") {
		inner, err := Parse(expr[1:])
		if err != nil {
			return nil, err
		}
		return Not{inner: inner}, nil
	}
	if strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") && len(expr) > 2 {
		re, err := regexp.Compile(expr[1 : len(expr)-1])
		if err != nil {
			return nil, fmt.Errorf("%w: universe filter %q: %v", types.ErrInvalidArgument, expr, err)
		}
		return Regex{re: re}, nil
	}
	if strings.Contains(expr, ",") {
		set := map[string]struct{}{}
		for _, p := range strings.Split(expr, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			set[p] = struct{}{}
		}
		return ExactSet{set: set}, nil
	}
	if strings.ContainsAny(expr, "*?[") {
		if _, err := filepath.Match(expr, ""); err != nil {
			return nil, fmt.Errorf("%w: universe filter %q: %v", types.ErrInvalidArgument, expr, err)
		}
		return Glob{pattern: expr}, nil
	}
	return SubstrCI{needle: expr}, nil
}

// Select returns the universes whose name f matches, in input order.
func Select(lists []types.Universe, f Filter) []types.Universe {
	if f == nil {
		return lists
	}
	out := make([]types.Universe, 0, len(lists))
	for _, u := range lists {
		if f.Match(u.Name) {
			out = append(out, u)
		}
	}
	return out
}

type Always bool

func (a Always) Match(string) bool { return bool(a) }

type Not struct{ inner Filter }

func (n Not) Match(name string) bool { return !n.inner.Match(name) }

type ExactSet struct{ set map[string]struct{} }

func (e ExactSet) Match(name string) bool {
	_, ok := e.set[name]
	return ok
}

type Glob struct{ pattern string }

func (g Glob) Match(name string) bool {
	ok, _ := filepath.Match(g.pattern, name)
	return ok
}

type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(name string) bool { return r.re.MatchString(name) }

// SubstrCI matches if name contains needle, case-insensitively.
type SubstrCI struct{ needle string }

func (s SubstrCI) Match(name string) bool {
	if s.needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(s.needle))
}

func (g Glob) String() string     { return "glob:" + g.pattern }
func (r Regex) String() string    { return "regex:" + r.re.String() }
func (s SubstrCI) String() string { return "substr-ci:" + s.needle }
func (n Not) String() string      { return fmt.Sprintf("not:%v", n.inner) }
