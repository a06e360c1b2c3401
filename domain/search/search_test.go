package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilter_Normalize(t *testing.T) {
	req := require.New(t)

	req.Equal(DefaultLimit, Filter{}.Normalize(50).Limit)
	req.Equal(50, Filter{Limit: 500}.Normalize(50).Limit)
	req.Equal(7, Filter{Limit: 7}.Normalize(50).Limit)
	req.Equal(DefaultCap, Filter{Limit: 500}.Normalize(0).Limit)

	f := Filter{State: " SP ", NameContains: " robo "}.Normalize(50)
	req.Equal("SP", f.State)
	req.Equal("robo", f.NameContains)
}

func TestFilter_MatchesName(t *testing.T) {
	req := require.New(t)
	f := Filter{NameContains: "ROBO"}

	req.True(f.MatchesName("Os Robonautas"))
	req.False(f.MatchesName("Lego Masters"))
	req.True(Filter{}.MatchesName("anything"))
}

func TestParseFilter(t *testing.T) {
	req := require.New(t)

	f := ParseFilter(`/search robo nautas --state SP --limit 5`)

	req.Equal("robo nautas", f.NameContains)
	req.Equal("SP", f.State)
	req.Equal(5, f.Limit)
}
