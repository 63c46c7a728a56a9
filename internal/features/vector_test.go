package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railbird/solver-enrichment/internal/actions"
	"github.com/railbird/solver-enrichment/internal/cards"
)

func TestBucketFor(t *testing.T) {
	assert.Equal(t, Early, BucketFor(EP))
	assert.Equal(t, Early, BucketFor(MP))
	assert.Equal(t, Late, BucketFor(CO))
	assert.Equal(t, Late, BucketFor(BTN))
	assert.Equal(t, Blind, BucketFor(SB))
	assert.Equal(t, Blind, BucketFor(BB))
}

func TestBuildIsDeterministic(t *testing.T) {
	board, err := cards.ParseBoard("AhKdQc")
	require.NoError(t, err)
	in := Input{
		OOPBucket: Early,
		IPBucket:  Late,
		Street:    Flop,
		PotType:   SinglyRaisedPot,
		StackBB:   100,
		PotBB:     10,
		Board:     cards.NewHand(board...),
		ActionHistory: []actions.Action{
			{Type: actions.Check},
			{Type: actions.Bet, Amount: 33},
		},
	}
	v1 := Build(in)
	v2 := Build(in)
	assert.Equal(t, v1, v2)
}

func TestBuildOneHotSlots(t *testing.T) {
	board, err := cards.ParseBoard("AhKdQc")
	require.NoError(t, err)
	in := Input{
		OOPBucket: Blind,
		IPBucket:  Late,
		Street:    Turn,
		PotType:   ThreeBetPot,
		StackBB:   400, // above the 200bb normalization ceiling, must clip to 1
		PotBB:     50,
		Board:     cards.NewHand(board...),
	}
	v := Build(in)
	assert.Equal(t, 1.0, v[idxOOPBucket+int(Blind)])
	assert.Equal(t, 1.0, v[idxIPBucket+int(Late)])
	assert.Equal(t, 1.0, v[idxStreet+int(Turn)])
	assert.Equal(t, 1.0, v[idxPotType+int(ThreeBetPot)])
	assert.Equal(t, 1.0, v[idxStackBB])
}

func TestActionHashStable(t *testing.T) {
	seq := actions.Sequence("X-B-C")
	h1 := ActionHash(seq, 10.5)
	h2 := ActionHash(seq, 10.5)
	assert.Equal(t, h1, h2)

	h3 := ActionHash(seq, 20.0)
	assert.NotEqual(t, h1, h3)
}

func TestActionHashBucketInRange(t *testing.T) {
	b := ActionHashBucket(actions.Sequence("X-B-R-C"), 15.25)
	assert.GreaterOrEqual(t, b, 0)
	assert.Less(t, b, actionHashBuckets)
}
