// Package retriever implements nearest-node lookup: a vector-index query
// with exact categorical filters, a progressive parent-fallback loop when
// no hit is found, and a RIVER-specific in-shard local search that reuses
// the preceding TURN match's shard (spec C5). Grounded on the teacher's
// runtime.Policy (read access to a solved strategy by key, uniform
// fallback when the key is missing) generalized into "fall back to a
// looser key, then to none".
package retriever

import (
	"context"
	"fmt"
	"math"

	"github.com/railbird/solver-enrichment/internal/actions"
	"github.com/railbird/solver-enrichment/internal/features"
	"github.com/railbird/solver-enrichment/internal/shardstore"
)

// LeanNodeMeta is the vector-index payload (spec §3).
type LeanNodeMeta struct {
	ID              string
	OriginalID      string
	NodeIdentifier  string
	S3Bucket        string
	S3Key           string
	Offset          int64
	Length          int64
	HasByteRange    bool
	Street          string
	PotType         string
	FlopArchetype   string
	ActionSequence  string
	Positions       shardstore.Positions
	OptimalStrategy *shardstore.OptimalStrategyBlob
}

// Filter is the exact-match predicate set built for one query (spec §4.5
// step 2).
type Filter struct {
	ActionSequence string
	Street         string
	PotType        string
	FlopArchetype  string
	OOPBucket      string
	IPBucket       string
	HasOOPBucket   bool
	HasIPBucket    bool
}

// SearchResult is one row returned by the vector index.
type SearchResult struct {
	ID      string
	Score   float64
	Payload LeanNodeMeta
}

// VectorIndex is the external collaborator this package queries (spec §6
// "Vector index").
type VectorIndex interface {
	Search(ctx context.Context, collection string, vector features.Vector, filter Filter, limit int, scoreThreshold float64) ([]SearchResult, error)
}

// Config holds the tunables from spec §6's Configuration section.
type Config struct {
	MinScore       float64
	Limit          int
	MaxParentDepth int
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{MinScore: 0.55, Limit: 10, MaxParentDepth: 2}
}

// Match is the result of a successful retrieval.
type Match struct {
	Meta           LeanNodeMeta
	Score          float64
	Approx         bool
	ParentDepth    int
	RemovedActions []string
}

// Query bundles the snapshot-derived values needed to build a vector-index
// request.
type Query struct {
	Vector         features.Vector
	Street         string
	PotType        string
	FlopArchetype  string
	OOPBucket      string
	IPBucket       string
	HasOOPBucket   bool
	HasIPBucket    bool
	ActionHistory  []actions.Action
}

func collectionFor(street string) string {
	switch street {
	case "TURN":
		return "turn_nodes"
	case "RIVER":
		return "river_nodes"
	default:
		return "flop_nodes"
	}
}

// Retriever finds the closest solver node for a snapshot.
type Retriever struct {
	index VectorIndex
	cfg   Config
}

// New constructs a Retriever over a VectorIndex with the given config.
func New(index VectorIndex, cfg Config) *Retriever {
	return &Retriever{index: index, cfg: cfg}
}

// FindSimilarNode runs the vector-search-plus-parent-fallback algorithm of
// spec §4.5 steps 1-5. It returns (nil, nil) when no match is found at any
// fallback depth; an error return indicates the index call itself failed
// or the context was cancelled.
func (r *Retriever) FindSimilarNode(ctx context.Context, q Query) (*Match, error) {
	k := 3 * r.cfg.Limit
	if k <= 0 {
		k = 30
	}

	history := q.ActionHistory
	for depth := 0; depth <= r.cfg.MaxParentDepth; depth++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		seq := actions.EncodeSequence(history)
		filter := Filter{
			ActionSequence: string(seq),
			Street:         q.Street,
			PotType:        q.PotType,
			FlopArchetype:  q.FlopArchetype,
			OOPBucket:      q.OOPBucket,
			IPBucket:       q.IPBucket,
			HasOOPBucket:   q.HasOOPBucket,
			HasIPBucket:    q.HasIPBucket,
		}

		results, err := r.index.Search(ctx, collectionFor(q.Street), q.Vector, filter, k, r.cfg.MinScore)
		if err != nil {
			return nil, fmt.Errorf("retriever: search failed at depth %d: %w", depth, err)
		}

		if best, ok := pickBest(results); ok {
			removed := removedActionTokens(q.ActionHistory, history)
			return &Match{
				Meta:           best.Payload,
				Score:          best.Score,
				Approx:         depth > 0,
				ParentDepth:    depth,
				RemovedActions: removed,
			}, nil
		}

		// Spec §8: empty actionHistory bypasses parent fallback entirely.
		if len(history) == 0 {
			return nil, nil
		}
		history = history[:len(history)-1]
	}
	return nil, nil
}

func removedActionTokens(full []actions.Action, truncated []actions.Action) []string {
	if len(full) == len(truncated) {
		return nil
	}
	removed := full[len(truncated):]
	out := make([]string, len(removed))
	for i, a := range removed {
		out[i] = string(a.Letter())
	}
	return out
}

// pickBest returns the highest-scoring result, breaking ties by ascending
// id (spec §4.5 "Ordering, tie-breaks").
func pickBest(results []SearchResult) (SearchResult, bool) {
	if len(results) == 0 {
		return SearchResult{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Score > best.Score || (r.Score == best.Score && r.ID < best.ID) {
			best = r
		}
	}
	return best, true
}

// RiverMatch is the result of the in-shard RIVER local search.
type RiverMatch struct {
	Node shardstore.NodeAnalysis
}

// FindRiverNodeInShard implements spec §4.5 step 6: scan a cached TURN
// shard for RIVER entries whose action sequence matches exactly, then rank
// survivors by cosine similarity against the RIVER snapshot's own 71-dim
// vector. Returns nil when no entry matches -- RIVER never falls
// back to the vector index (spec §8 boundary behaviour).
func FindRiverNodeInShard(shard []shardstore.NodeAnalysis, actionSeq string, riverVector features.Vector, vectorFor func(shardstore.NodeAnalysis) features.Vector) *RiverMatch {
	var survivors []shardstore.NodeAnalysis
	for _, n := range shard {
		if n.Street != shardstore.StreetRiver {
			continue
		}
		if joinActionHistory(n.ActionHistory) != actionSeq {
			continue
		}
		survivors = append(survivors, n)
	}
	if len(survivors) == 0 {
		return nil
	}

	bestIdx := 0
	bestScore := math.Inf(-1)
	for i, n := range survivors {
		score := cosineSimilarity(riverVector, vectorFor(n))
		if score > bestScore || (score == bestScore && survivors[i].NodeID < survivors[bestIdx].NodeID) {
			bestScore = score
			bestIdx = i
		}
	}
	return &RiverMatch{Node: survivors[bestIdx]}
}

func joinActionHistory(tokens []string) string {
	out := ""
	for i, t := range tokens {
		if i > 0 {
			out += "-"
		}
		out += t
	}
	return out
}

func cosineSimilarity(a, b features.Vector) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
