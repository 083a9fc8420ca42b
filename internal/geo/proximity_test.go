package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTier_Exact(t *testing.T) {
	tbl := NewStateTable()
	assert.Equal(t, TierExact, tbl.Tier("TX", []string{"OK", "TX"}))
}

func TestTier_Adjacent(t *testing.T) {
	tbl := NewStateTable()
	assert.Equal(t, TierAdjacent, tbl.Tier("TX", []string{"OK"}))
}

func TestTier_Regional(t *testing.T) {
	tbl := NewStateTable()
	// TX and FL are both "south" but not adjacent.
	assert.Equal(t, TierRegional, tbl.Tier("TX", []string{"FL"}))
}

func TestTier_Distant(t *testing.T) {
	tbl := NewStateTable()
	assert.Equal(t, TierDistant, tbl.Tier("TX", []string{"WA"}))
}

func TestTier_BestWins(t *testing.T) {
	tbl := NewStateTable()
	// Adjacent OK beats regional FL.
	assert.Equal(t, TierAdjacent, tbl.Tier("TX", []string{"FL", "OK"}))
}

func TestTier_EmptyInputs(t *testing.T) {
	tbl := NewStateTable()
	assert.Equal(t, TierDistant, tbl.Tier("", []string{"TX"}))
	assert.Equal(t, TierDistant, tbl.Tier("TX", nil))
}

func TestScore_TierValues(t *testing.T) {
	tbl := NewStateTable()
	assert.Equal(t, 100.0, tbl.Score("TX", []string{"TX"}).Score)
	assert.Equal(t, 75.0, tbl.Score("TX", []string{"OK"}).Score)
	assert.Equal(t, 55.0, tbl.Score("TX", []string{"FL"}).Score)
	assert.Equal(t, 25.0, tbl.Score("TX", []string{"WA"}).Score)
}

func TestScore_ReasoningMentionsState(t *testing.T) {
	tbl := NewStateTable()
	r := tbl.Score("GA", []string{"GA"})
	assert.Contains(t, r.Reasoning, "GA")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "TX", Normalize("tx"))
	assert.Equal(t, "TX", Normalize("Texas"))
	assert.Equal(t, "NC", Normalize("north carolina"))
	assert.Equal(t, "", Normalize("ZZ"))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("Ontario"))
}

func TestRegionStates(t *testing.T) {
	assert.Contains(t, RegionStates("Southeast"), "GA")
	assert.Contains(t, RegionStates("new england"), "MA")
	assert.Nil(t, RegionStates("atlantis"))
}

func TestAdjacencySymmetric(t *testing.T) {
	for state, neighbors := range stateAdjacency {
		for _, n := range neighbors {
			assert.Contains(t, stateAdjacency[n], state,
				"adjacency must be symmetric: %s->%s", state, n)
		}
	}
}
