package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCard(t *testing.T) {
	tests := []struct {
		input   string
		rank    Rank
		suit    Suit
		wantErr bool
	}{
		{"Ah", Ace, Hearts, false},
		{"2c", Two, Clubs, false},
		{"Td", Ten, Diamonds, false},
		{"1h", 0, 0, true},
		{"Ahh", 0, 0, true},
		{"Az", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := ParseCard(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.rank, c.Rank())
			assert.Equal(t, tt.suit, c.Suit())
		})
	}
}

func TestCardStringRoundTrip(t *testing.T) {
	for i := 0; i < 52; i++ {
		c := Card(i)
		parsed, err := ParseCard(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestParseHoleCards(t *testing.T) {
	c1, c2, err := ParseHoleCards("AhKh")
	require.NoError(t, err)
	assert.Equal(t, Ace, c1.Rank())
	assert.Equal(t, Hearts, c1.Suit())
	assert.Equal(t, King, c2.Rank())

	_, _, err = ParseHoleCards("Ah")
	assert.Error(t, err)
}

func TestHandBitOperations(t *testing.T) {
	h := NewHand(NewCard(Ace, Hearts), NewCard(King, Hearts), NewCard(Ace, Spades))
	assert.Equal(t, 3, h.CountCards())
	assert.True(t, h.HasCard(NewCard(Ace, Hearts)))
	assert.False(t, h.HasCard(NewCard(Queen, Clubs)))

	mask := h.GetSuitMask(Hearts)
	assert.Equal(t, uint16(1<<Ace|1<<King), mask)

	rankMask := h.GetRankMask()
	assert.Equal(t, uint16(1<<Ace|1<<King), rankMask)
}

func TestEvaluate7CardsOrdering(t *testing.T) {
	mustHand := func(cs ...string) Hand {
		var h Hand
		for _, s := range cs {
			c, err := ParseCard(s)
			require.NoError(t, err)
			h = h.AddCard(c)
		}
		return h
	}

	straightFlush := Evaluate7Cards(mustHand("9h", "Th", "Jh", "Qh", "Kh", "2c", "3d"))
	quads := Evaluate7Cards(mustHand("Ah", "Ac", "As", "Ad", "2c", "3d", "4h"))
	flush := Evaluate7Cards(mustHand("2h", "5h", "9h", "Jh", "Kh", "2c", "3d"))
	pair := Evaluate7Cards(mustHand("Ah", "Ac", "2s", "5d", "9h", "Jc", "Kd"))
	highCard := Evaluate7Cards(mustHand("2h", "5c", "9s", "Jd", "Kh", "3c", "7d"))

	assert.Equal(t, StraightFlush, straightFlush.Type())
	assert.Equal(t, FourOfAKind, quads.Type())
	assert.Equal(t, Flush, flush.Type())
	assert.Equal(t, Pair, pair.Type())
	assert.Equal(t, HighCard, highCard.Type())

	assert.Equal(t, 1, CompareHands(straightFlush, quads))
	assert.Equal(t, 1, CompareHands(quads, flush))
	assert.Equal(t, -1, CompareHands(highCard, pair))
	assert.Equal(t, 0, CompareHands(pair, pair))
}

func TestEvaluate7CardsWheel(t *testing.T) {
	mustHand := func(cs ...string) Hand {
		var h Hand
		for _, s := range cs {
			c, err := ParseCard(s)
			require.NoError(t, err)
			h = h.AddCard(c)
		}
		return h
	}
	wheel := Evaluate7Cards(mustHand("Ah", "2c", "3d", "4h", "5s", "9c", "Kd"))
	assert.Equal(t, Straight, wheel.Type())
}
