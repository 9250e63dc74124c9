package sector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuzzyMatcher_Match(t *testing.T) {
	fm := NewFuzzyMatcher([]Rule{
		{Keyword: "MUSSARELA", Sector: "FRIOS", Priority: 10},
		{Keyword: "PRESUNTO", Sector: "FRIOS", Priority: 10},
		{Keyword: "CERVEJA", Sector: "BEBIDAS", Priority: 5},
	})

	// Common report misspelling: one letter short of MUSSARELA.
	m := fm.Match("MUSARELA FATIADA KG", 80)
	require.NotNil(t, m)
	assert.Equal(t, "FRIOS", m.Sector)
	assert.Equal(t, "MUSSARELA", m.Keyword)
	assert.GreaterOrEqual(t, m.Score, 80)
}

func TestFuzzyMatcher_ExactIsPerfectScore(t *testing.T) {
	fm := NewFuzzyMatcher([]Rule{{Keyword: "CERVEJA", Sector: "BEBIDAS", Priority: 5}})

	m := fm.Match("CERVEJA", 80)
	require.NotNil(t, m)
	assert.Equal(t, 100, m.Score)
}

func TestFuzzyMatcher_BelowThreshold(t *testing.T) {
	fm := NewFuzzyMatcher([]Rule{{Keyword: "MUSSARELA", Sector: "FRIOS", Priority: 10}})

	assert.Nil(t, fm.Match("DETERGENTE NEUTRO", 80))
}

func TestFuzzyMatcher_EmptyTable(t *testing.T) {
	fm := NewFuzzyMatcher(nil)
	assert.Nil(t, fm.Match("QUEIJO", 1))
}

func TestSimilarityScore(t *testing.T) {
	assert.Equal(t, 100, similarityScore("QUEIJO", "QUEIJO"))
	assert.GreaterOrEqual(t, similarityScore("QUEIJO MUSSARELA", "QUEIJO"), 75)

	// One edit away from an 9-letter keyword scores high.
	assert.GreaterOrEqual(t, similarityScore("MUSARELA", "MUSSARELA"), 85)

	assert.Less(t, similarityScore("DETERGENTE", "MUSSARELA"), 50)
}
