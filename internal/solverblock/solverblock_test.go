package solverblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railbird/solver-enrichment/internal/cards"
	"github.com/railbird/solver-enrichment/internal/equity"
	"github.com/railbird/solver-enrichment/internal/features"
	"github.com/railbird/solver-enrichment/internal/retriever"
	"github.com/railbird/solver-enrichment/internal/shardstore"
	"github.com/railbird/solver-enrichment/internal/snapshot"
)

func mustBoard(t *testing.T, s string) []cards.Card {
	t.Helper()
	cs, err := cards.ParseBoard(s)
	require.NoError(t, err)
	return cs
}

func mustHole(t *testing.T, combo string) cards.Hand {
	t.Helper()
	c1, c2, err := cards.ParseHoleCards(combo)
	require.NoError(t, err)
	return cards.NewHand(c1, c2)
}

func baseSnapshot(t *testing.T, street features.Street, board []cards.Card) snapshot.Snapshot {
	return snapshot.Snapshot{
		Street:    street,
		Board:     board,
		PotBB:     10,
		NextToAct: snapshot.OOP,
	}
}

func TestBuildUsesEmptyActionsDefault(t *testing.T) {
	board := mustBoard(t, "7h8s9c")
	node := shardstore.NodeAnalysis{NodeID: "n1", StackOOP: 95, StackIP: 95}

	block := Build(Input{
		Node:            node,
		Snapshot:        baseSnapshot(t, features.Flop, board),
		SimilarityScore: 0.9,
	})

	assert.Equal(t, "n1", block.NodeID)
	assert.Equal(t, "Check", block.OptimalStrategy.RecommendedAction.Action)
	assert.Equal(t, 1.0, block.OptimalStrategy.RecommendedAction.Frequency)
	assert.Equal(t, "check", block.OptimalStrategy.RecommendedAction.ActionType)
	assert.Equal(t, equity.DefaultRangeEquity(), block.RangeAdvantage, "no ranges parsed so default should be used")
}

func TestBuildParsesOptimalStrategyAndPicksArgmax(t *testing.T) {
	board := mustBoard(t, "7h8s9c")
	node := shardstore.NodeAnalysis{
		NodeID:    "n2",
		NextToAct: "oop",
		Pot:       10,
		ActionsOOP: []shardstore.ActionFrequency{
			{Action: "check", Frequency: 0.3, EV: 1.0},
			{Action: "bet 7.5", Frequency: 0.7, EV: 1.5},
		},
	}

	block := Build(Input{
		Node:            node,
		Snapshot:        baseSnapshot(t, features.Flop, board),
		SimilarityScore: 0.8,
	})

	require.Len(t, block.OptimalStrategy.ActionFrequencies, 2)
	assert.Equal(t, "bet 7.5", block.OptimalStrategy.RecommendedAction.Action)
	require.NotNil(t, block.OptimalStrategy.RecommendedAction.Sizing)
}

func TestBuildIncludesHeroDependentFields(t *testing.T) {
	board := mustBoard(t, "2h7s9c")
	hero := mustHole(t, "AhAd")
	villainRange, err := cards.ParseRange("KhKd:1,QsQd:1")
	require.NoError(t, err)

	node := shardstore.NodeAnalysis{NodeID: "n3"}
	block := Build(Input{
		Node:            node,
		Snapshot:        baseSnapshot(t, features.Flop, board),
		SimilarityScore: 0.75,
		HeroHand:        &hero,
		VillainRange:    villainRange,
	})

	require.NotNil(t, block.BlockerImpact)
	require.NotNil(t, block.HandFeatures)
	assert.Nil(t, block.HeroRange, "heroRange requires both heroRange and villainRange inputs")
}

func TestBuildTurnFallbackSubstitutesLeanMetaStrategy(t *testing.T) {
	board := mustBoard(t, "2h7s9cJd")
	node := shardstore.NodeAnalysis{NodeID: "n4", NextToAct: "oop"} // no ActionsOOP -> default single-action strategy

	leanMeta := &retriever.LeanNodeMeta{
		OptimalStrategy: &shardstore.OptimalStrategyBlob{
			RecommendedAction: shardstore.ActionFrequency{Action: "bet 14", Frequency: 0.6, EV: 2.1},
			ActionFrequencies: []shardstore.ActionFrequency{
				{Action: "bet 14", Frequency: 0.6, EV: 2.1},
				{Action: "check", Frequency: 0.4, EV: 1.8},
			},
		},
	}

	block := Build(Input{
		Node:            node,
		Snapshot:        baseSnapshot(t, features.Turn, board),
		SimilarityScore: 0.6,
		LeanMeta:        leanMeta,
	})

	assert.True(t, block.Unreliable)
	assert.Equal(t, "bet 14", block.OptimalStrategy.RecommendedAction.Action)
	require.Len(t, block.OptimalStrategy.ActionFrequencies, 2)
}

func TestBuildTurnFallbackSkippedWhenEnoughFrequencies(t *testing.T) {
	board := mustBoard(t, "2h7s9cJd")
	node := shardstore.NodeAnalysis{
		NodeID:    "n5",
		NextToAct: "oop",
		ActionsOOP: []shardstore.ActionFrequency{
			{Action: "check", Frequency: 0.5},
			{Action: "bet 14", Frequency: 0.5},
		},
	}
	leanMeta := &retriever.LeanNodeMeta{
		OptimalStrategy: &shardstore.OptimalStrategyBlob{
			RecommendedAction: shardstore.ActionFrequency{Action: "bet 99", Frequency: 1.0},
		},
	}

	block := Build(Input{
		Node:            node,
		Snapshot:        baseSnapshot(t, features.Turn, board),
		SimilarityScore: 0.6,
		LeanMeta:        leanMeta,
	})

	assert.False(t, block.Unreliable)
	assert.NotEqual(t, "bet 99", block.OptimalStrategy.RecommendedAction.Action)
}
