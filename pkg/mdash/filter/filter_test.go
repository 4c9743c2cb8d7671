package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/mdash/pkg/mdash/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		expr  string
		match []string
		miss  []string
	}{
		{"", []string{"nifty50", "anything"}, nil},
		{"nifty50,us-megacap", []string{"nifty50", "us-megacap"}, []string{"niftybank", "nifty"}},
		{"nifty*", []string{"nifty50", "niftybank"}, []string{"us-megacap"}},
		{"/^us-/", []string{"us-megacap"}, []string{"nifty50"}},
		{"BANK", []string{"niftybank"}, []string{"nifty50"}},
		{"!nifty*", []string{"us-megacap"}, []string{"nifty50"}},
		{"watch/*", []string{"watch/core"}, []string{"watch/core/sub", "core"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Parse(tt.expr)
			require.NoError(t, err)
			for _, m := range tt.match {
				assert.True(t, f.Match(m), "%q should match %q", tt.expr, m)
			}
			for _, m := range tt.miss {
				assert.False(t, f.Match(m), "%q should not match %q", tt.expr, m)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, expr := range []string{"/(/", "[a-"} {
		_, err := Parse(expr)
		assert.ErrorIs(t, err, types.ErrInvalidArgument, expr)
	}
}

func TestSelect(t *testing.T) {
	lists := []types.Universe{{Name: "b"}, {Name: "a"}, {Name: "ab"}}
	f, err := Parse("a*")
	require.NoError(t, err)
	got := Select(lists, f)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "ab", got[1].Name)
	assert.Len(t, Select(lists, nil), 3)
}
