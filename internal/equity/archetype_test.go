package equity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railbird/solver-enrichment/internal/cards"
)

func mustHole(t *testing.T, combo string) cards.Hand {
	t.Helper()
	c1, c2, err := cards.ParseHoleCards(combo)
	require.NoError(t, err)
	return cards.NewHand(c1, c2)
}

func mustBoard(t *testing.T, s string) cards.Hand {
	t.Helper()
	cs, err := cards.ParseBoard(s)
	require.NoError(t, err)
	return cards.NewHand(cs...)
}

func TestClassifyArchetypeOverPair(t *testing.T) {
	hole := mustHole(t, "QhQd")
	board := mustBoard(t, "7h4s2c")
	arch, err := ClassifyArchetype(hole, board)
	require.NoError(t, err)
	assert.Equal(t, Pair, arch.MadeTier)
	assert.Equal(t, OverPair, arch.PairSubtype)
}

func TestClassifyArchetypeTopPair(t *testing.T) {
	hole := mustHole(t, "AhTd")
	board := mustBoard(t, "Ac7h2s")
	arch, err := ClassifyArchetype(hole, board)
	require.NoError(t, err)
	assert.Equal(t, Pair, arch.MadeTier)
	assert.Equal(t, TopPair, arch.PairSubtype)
}

func TestClassifyArchetypeFlushDrawFlagged(t *testing.T) {
	hole := mustHole(t, "AhKh")
	board := mustBoard(t, "2h7hJc")
	arch, err := ClassifyArchetype(hole, board)
	require.NoError(t, err)
	assert.Contains(t, arch.DrawFlags, FlushDrawFlag)
}

func TestClassifyArchetypeRejectsNonTwoCardHole(t *testing.T) {
	hole := mustHole(t, "AhKh")
	hole = hole.AddCard(mustHole(t, "QhJh").Cards()[0])
	_, err := ClassifyArchetype(hole, mustBoard(t, "2h7hJc"))
	require.Error(t, err)
	var engineErr *EngineError
	assert.ErrorAs(t, err, &engineErr)
	assert.Equal(t, InvalidCard, engineErr.Kind)
}

func TestIsValueHand(t *testing.T) {
	assert.True(t, HandArchetype{MadeTier: TwoPair}.IsValueHand())
	assert.True(t, HandArchetype{MadeTier: Pair, PairSubtype: OverPair}.IsValueHand())
	assert.False(t, HandArchetype{MadeTier: Pair, PairSubtype: WeakPair}.IsValueHand())
	assert.False(t, HandArchetype{MadeTier: Pair, PairSubtype: TopPairGoodKicker}.IsValueHand())
	assert.False(t, HandArchetype{MadeTier: HighCard}.IsValueHand())
}
