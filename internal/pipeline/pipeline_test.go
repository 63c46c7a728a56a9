package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railbird/solver-enrichment/internal/actions"
	"github.com/railbird/solver-enrichment/internal/cards"
	"github.com/railbird/solver-enrichment/internal/features"
	"github.com/railbird/solver-enrichment/internal/retriever"
	"github.com/railbird/solver-enrichment/internal/shardstore"
	"github.com/railbird/solver-enrichment/internal/snapshot"
	"github.com/railbird/solver-enrichment/internal/store"
)

func mustBoard(t *testing.T, s string) []cards.Card {
	t.Helper()
	cs, err := cards.ParseBoard(s)
	require.NoError(t, err)
	return cs
}

func mustHole(t *testing.T, combo string) [2]cards.Card {
	t.Helper()
	c1, c2, err := cards.ParseHoleCards(combo)
	require.NoError(t, err)
	return [2]cards.Card{c1, c2}
}

// handWithFlopOnly builds a hand where hero checks the flop and the hand
// never reaches turn/river action, so Generate emits exactly one Snapshot.
func handWithFlopOnly(t *testing.T) snapshot.HandRecord {
	board := mustBoard(t, "7h8s9c")
	return snapshot.HandRecord{
		GameType:   "NLHE",
		HeroSide:   snapshot.OOP,
		HeroCards:  mustHole(t, "AhAd"),
		Positions:  snapshot.Positions{OOP: features.BTN, IP: features.BB},
		StartStack: 100,
		PreflopPot: 6,
		Board:      board,
		PotType:    features.SinglyRaisedPot,
		StreetActions: map[features.Street][]snapshot.StreetAction{
			features.Flop: {
				{Side: snapshot.OOP, Action: actions.ParseActionToken("check")},
			},
		},
	}
}

func buildVector(t *testing.T, s snapshot.Snapshot) features.Vector {
	t.Helper()
	p := New(nil, nil, nil, DefaultConfig())
	v, _ := p.buildQuery(s)
	return v
}

func TestEnrichMatchesFlopNodeViaVectorIndexAndDocStore(t *testing.T) {
	hand := handWithFlopOnly(t)

	gen := snapshot.NewGenerator()
	snaps, err := gen.Generate(hand)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	flopSnap := snaps[0]

	vec := buildVector(t, flopSnap)

	idx := store.NewInMemoryVectorIndex()
	idx.Add("flop_nodes", "node-1", vec, retriever.Filter{
		Street:        "FLOP",
		PotType:       "SRP",
		FlopArchetype: "MMM",
		OOPBucket:     features.BucketFor(features.BTN).String(),
		IPBucket:      features.BucketFor(features.BB).String(),
	}, retriever.LeanNodeMeta{ID: "node-1"})

	docs := store.NewInMemoryDocStore()
	docs.Put(shardstore.NodeAnalysis{
		NodeID:    "node-1",
		Street:    shardstore.StreetFlop,
		NextToAct: "ip",
		Pot:       6,
		ActionsIP: []shardstore.ActionFrequency{
			{Action: "check", Frequency: 0.4, EV: 1.0},
			{Action: "bet 4", Frequency: 0.6, EV: 1.3},
		},
	})

	r := retriever.New(idx, retriever.DefaultConfig())
	p := New(nil, r, docs, DefaultConfig())

	results, err := p.Enrich(context.Background(), HandInput{Record: hand})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	require.NoError(t, res.Err)
	require.NotNil(t, res.Block)
	assert.Equal(t, "node-1", res.Block.NodeID)
	assert.Equal(t, "bet 4", res.Block.OptimalStrategy.RecommendedAction.Action)
	assert.NotEmpty(t, res.Tags)
}

func TestEnrichReturnsEmptySnapshotOnLookupMiss(t *testing.T) {
	hand := handWithFlopOnly(t)

	idx := store.NewInMemoryVectorIndex() // empty: nothing will match
	docs := store.NewInMemoryDocStore()
	r := retriever.New(idx, retriever.DefaultConfig())
	p := New(nil, r, docs, DefaultConfig())

	results, err := p.Enrich(context.Background(), HandInput{Record: hand})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Nil(t, results[0].Block)
	assert.Nil(t, results[0].Err)
}

func TestEnrichReturnsNilForHandThatNeverReachesFlop(t *testing.T) {
	hand := handWithFlopOnly(t)
	hand.Board = nil

	idx := store.NewInMemoryVectorIndex()
	docs := store.NewInMemoryDocStore()
	r := retriever.New(idx, retriever.DefaultConfig())
	p := New(nil, r, docs, DefaultConfig())

	results, err := p.Enrich(context.Background(), HandInput{Record: hand})
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestEnrichRiverReusesTurnShardAndNeverFallsBackToVectorIndex(t *testing.T) {
	board := mustBoard(t, "7h8s9cJd2c")
	hand := snapshot.HandRecord{
		GameType:   "NLHE",
		HeroSide:   snapshot.OOP,
		HeroCards:  mustHole(t, "AhAd"),
		Positions:  snapshot.Positions{OOP: features.BTN, IP: features.BB},
		StartStack: 100,
		PreflopPot: 6,
		Board:      board,
		PotType:    features.SinglyRaisedPot,
		StreetActions: map[features.Street][]snapshot.StreetAction{
			features.Flop: {
				{Side: snapshot.OOP, Action: actions.ParseActionToken("check")},
			},
			features.Turn: {
				{Side: snapshot.IP, Action: actions.ParseActionToken("check")},
				{Side: snapshot.OOP, Action: actions.ParseActionToken("check")},
			},
			features.River: {
				{Side: snapshot.IP, Action: actions.ParseActionToken("check")},
				{Side: snapshot.OOP, Action: actions.ParseActionToken("check")},
			},
		},
	}

	gen := snapshot.NewGenerator()
	snaps, err := gen.Generate(hand)
	require.NoError(t, err)
	require.Len(t, snaps, 3) // flop, turn, river

	turnSnap := snaps[1]
	turnVec := buildVector(t, turnSnap)

	idx := store.NewInMemoryVectorIndex()
	idx.Add("turn_nodes", "turn-1", turnVec, retriever.Filter{
		ActionSequence: "X",
		Street:         "TURN",
		PotType:        "SRP",
		FlopArchetype:  "MMM",
		OOPBucket:      features.BucketFor(features.BTN).String(),
		IPBucket:       features.BucketFor(features.BB).String(),
	}, retriever.LeanNodeMeta{
		ID:       "turn-1",
		S3Bucket: "gto-shards",
		S3Key:    "turn-shard-1.bin",
	})

	riverNode := shardstore.NodeAnalysis{
		NodeID:        "river-1",
		Street:        shardstore.StreetRiver,
		Board:         "7h8s9cJd2c",
		NextToAct:     "ip",
		Pot:           6,
		ActionHistory: []string{"X"}, // matches the river snapshot's encoded prefix sequence
		Positions:     shardstore.Positions{OOP: "BTN", IP: "BB"},
		ActionsIP:     []shardstore.ActionFrequency{{Action: "check", Frequency: 1.0}},
	}
	compressed, err := shardstore.EncodeShardCompressed([]shardstore.NodeAnalysis{riverNode})
	require.NoError(t, err)

	fetcher := fakeFetcher{"gto-shards/turn-shard-1.bin": compressed}
	shards, err := shardstore.New(fetcher, 8)
	require.NoError(t, err)
	// Prime the cache the way a preceding TURN task would.
	_, err = shards.Get(context.Background(), "gto-shards", "turn-shard-1.bin", shardstore.ByteRange{})
	require.NoError(t, err)

	docs := store.NewInMemoryDocStore()
	r := retriever.New(idx, retriever.DefaultConfig())
	p := New(shards, r, docs, DefaultConfig())

	turnMatch, err := r.FindSimilarNode(context.Background(), retriever.Query{
		Vector:  turnVec,
		Street:  "TURN",
		PotType: "SRP",
	})
	require.NoError(t, err)
	require.NotNil(t, turnMatch)

	res := p.enrichRiver(context.Background(), snaps[2], turnMatch, HandInput{Record: hand})
	require.NoError(t, res.Err)
	require.NotNil(t, res.Block)
	assert.Equal(t, "river-1", res.Block.NodeID)
}

type fakeFetcher map[string][]byte

func (f fakeFetcher) FetchRange(_ context.Context, bucket, key string, _ shardstore.ByteRange) ([]byte, error) {
	data, ok := f[bucket+"/"+key]
	if !ok {
		return nil, assertNotFoundErr(bucket, key)
	}
	return data, nil
}

func assertNotFoundErr(bucket, key string) error {
	return &shardstore.ShardFetchError{Bucket: bucket, Key: key, Err: errNotFound}
}

var errNotFound = errNotFoundType{}

type errNotFoundType struct{}

func (errNotFoundType) Error() string { return "not found" }
