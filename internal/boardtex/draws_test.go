package boardtex

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

func TestDetectDrawsFlushDraw(t *testing.T) {
	hole := mustHole(t, "AhKh")
	board := mustBoard(t, "2h7hJc")
	d := DetectDraws(hole, board)
	assert.True(t, d.FlushDraw)
	assert.True(t, d.NutFlushDraw)
}

func TestDetectDrawsOESD(t *testing.T) {
	hole := mustHole(t, "9h8s")
	board := mustBoard(t, "7h6sKc")
	d := DetectDraws(hole, board)
	assert.True(t, d.OESD)
}

func TestDetectDrawsGutshot(t *testing.T) {
	hole := mustHole(t, "9h7s")
	board := mustBoard(t, "8h5sKc")
	d := DetectDraws(hole, board)
	assert.True(t, d.Gutshot)
	assert.False(t, d.OESD)
}

func TestDetectDrawsComboDraw(t *testing.T) {
	hole := mustHole(t, "9h8h")
	board := mustBoard(t, "7h6hKc")
	d := DetectDraws(hole, board)
	assert.True(t, d.FlushDraw)
	assert.True(t, d.OESD)
	assert.True(t, d.ComboDraw)
}

func TestDetectDrawsOvercards(t *testing.T) {
	hole := mustHole(t, "AhKd")
	board := mustBoard(t, "2h7sJc")
	d := DetectDraws(hole, board)
	assert.Equal(t, 2, d.Overcards)
}

func TestDetectDrawsNoFlushDrawWithoutSuitedHero(t *testing.T) {
	hole := mustHole(t, "AsKd")
	board := mustBoard(t, "2h7hJh")
	d := DetectDraws(hole, board)
	assert.False(t, d.FlushDraw)
}
