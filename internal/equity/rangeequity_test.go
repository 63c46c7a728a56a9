package equity

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railbird/solver-enrichment/internal/cards"
)

func mustRange(t *testing.T, s string) *cards.Range {
	t.Helper()
	r, err := cards.ParseRange(s)
	require.NoError(t, err)
	return r
}

func TestCalculateRangeEquityCompleteBoardSymmetry(t *testing.T) {
	oop := mustRange(t, "AhAd:1")
	ip := mustRange(t, "KhKd:1")
	board := mustBoard(t, "2h7s9cJdQc")

	eq, err := CalculateRangeEquity(oop, ip, board, nil)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, eq.HeroEquity+eq.VillainEquity, 0.5)
	assert.InDelta(t, 100.0, eq.HeroEquity, 0.01) // AA beats KK on this board
}

func TestCalculateRangeEquityTurnEnumeration(t *testing.T) {
	oop := mustRange(t, "AhAd:1")
	ip := mustRange(t, "KhKd:1")
	board := mustBoard(t, "2h7s9cJd") // one card to come

	eq, err := CalculateRangeEquity(oop, ip, board, nil)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, eq.HeroEquity+eq.VillainEquity, 0.5)
	assert.Greater(t, eq.HeroEquity, 80.0)
}

func TestCalculateRangeEquityFlopEnumerationIsDeterministic(t *testing.T) {
	oop := mustRange(t, "AhAd:1")
	ip := mustRange(t, "KhKd:1")
	board := mustBoard(t, "2h7s9c")

	eq1, err := CalculateRangeEquity(oop, ip, board, nil)
	require.NoError(t, err)
	eq2, err := CalculateRangeEquity(oop, ip, board, nil)
	require.NoError(t, err)
	assert.Equal(t, eq1, eq2)
}

func TestCalculateRangeEquityMonteCarloPreflop(t *testing.T) {
	oop := mustRange(t, "AhAd:1")
	ip := mustRange(t, "KhKd:1")
	board := cards.Hand(0)

	eq, err := CalculateRangeEquity(oop, ip, board, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, eq.HeroEquity+eq.VillainEquity, 1.0)
	assert.Greater(t, eq.HeroEquity, 70.0)
}

func TestCalculateRangeEquityRejectsEmptyRange(t *testing.T) {
	oop := cards.NewRange()
	ip := mustRange(t, "KhKd:1")
	_, err := CalculateRangeEquity(oop, ip, mustBoard(t, "2h7s9c"), nil)
	require.Error(t, err)
	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, EmptyRange, engineErr.Kind)
}
