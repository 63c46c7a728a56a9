// Package pipeline orchestrates one hand's enrichment: C3 generates
// snapshots, each FLOP/TURN snapshot runs C2+C5+C7+C8 as an independent
// task, RIVER is sequenced after its preceding TURN to reuse its shard,
// and results are assembled back into snapshot order (spec §5). Grounded
// on the teacher's sdk/solver/trainer.go singleIteration (errgroup-style
// bounded worker fan-out over independent units of work, later reduced
// into ordered aggregate stats) and internal/evaluator/equity.go's
// errgroup.WithContext usage for cancellation-aware worker pools.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/railbird/solver-enrichment/internal/actions"
	"github.com/railbird/solver-enrichment/internal/boardtex"
	"github.com/railbird/solver-enrichment/internal/cards"
	"github.com/railbird/solver-enrichment/internal/equity"
	"github.com/railbird/solver-enrichment/internal/features"
	"github.com/railbird/solver-enrichment/internal/retriever"
	"github.com/railbird/solver-enrichment/internal/retry"
	"github.com/railbird/solver-enrichment/internal/shardstore"
	"github.com/railbird/solver-enrichment/internal/snapshot"
	"github.com/railbird/solver-enrichment/internal/solverblock"
	"github.com/railbird/solver-enrichment/internal/store"
	"github.com/railbird/solver-enrichment/internal/tags"
)

// defaultMaxConcurrentQueries caps simultaneous vector-index queries per
// invocation, protecting the index (spec §5 "Backpressure").
const defaultMaxConcurrentQueries = 5

// transientMissTag marks a snapshot whose solver node lookup was dropped
// after exhausting retry, per spec §7's "treat as lookup miss and tag the
// output" clause for transient I/O failures.
const transientMissTag = "LOOKUP:TRANSIENT_MISS"

// Config tunes one Pipeline.
type Config struct {
	MaxConcurrentQueries int
	TagConfig            tags.Config
	Retry                retry.Config
	Clock                quartz.Clock
}

// DefaultConfig returns the spec-documented backpressure limit, a balanced
// tag configuration, the default retry bound, and a real clock.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentQueries: defaultMaxConcurrentQueries,
		TagConfig:            tags.DefaultConfig(),
		Retry:                retry.DefaultConfig(),
		Clock:                quartz.NewReal(),
	}
}

// HandInput bundles a played hand with the optional hero-dependent inputs
// C6/C7 need to compute blocker impact, hand features, and full range
// decompositions.
type HandInput struct {
	Record       snapshot.HandRecord
	HeroRange    *cards.Range
	VillainRange *cards.Range
	ComboData    equity.ComboStrategyData
}

// Result is one snapshot's enrichment outcome. Block is nil when no solver
// node was matched (spec §7 "lookup misses... solver=null"), and Tags is
// nil too, except when the lookup was dropped after exhausting retry: then
// Tags holds only LOOKUP:TRANSIENT_MISS and Err holds the last lookup
// error, without aborting the rest of the hand.
type Result struct {
	Snapshot snapshot.Snapshot
	Match    *retriever.Match
	Block    *solverblock.SolverBlock
	Tags     []string
	Err      error
}

// Pipeline is a stateless orchestrator over shared per-invocation
// collaborators. A fresh Store should be constructed per hand (spec §4.4
// "cache must be scoped to a single enrichment run").
type Pipeline struct {
	shards    *shardstore.Store
	retriever *retriever.Retriever
	docs      store.DocStore
	taggen    *tags.Generator
	cfg       Config
}

// New builds a Pipeline over this invocation's shard cache, retriever,
// and FLOP document store.
func New(shards *shardstore.Store, r *retriever.Retriever, docs store.DocStore, cfg Config) *Pipeline {
	if cfg.MaxConcurrentQueries <= 0 {
		cfg.MaxConcurrentQueries = defaultMaxConcurrentQueries
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	return &Pipeline{shards: shards, retriever: r, docs: docs, taggen: tags.NewGenerator(), cfg: cfg}
}

// Enrich runs the full per-hand pipeline. On context cancellation it
// discards any partial results and returns the cancellation error, since
// this pipeline produces per-hand output atomically (spec §5
// "Cancellation & timeouts").
func (p *Pipeline) Enrich(ctx context.Context, in HandInput) ([]Result, error) {
	gen := snapshot.NewGenerator()
	snaps, err := gen.Generate(in.Record)
	if err != nil {
		var noFlop *snapshot.NoFlopError
		if errors.As(err, &noFlop) {
			return nil, nil
		}
		return nil, fmt.Errorf("pipeline: generate snapshots: %w", err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}

	results := make([]Result, len(snaps))
	riverIdx, turnIdx := -1, -1
	for i, s := range snaps {
		switch s.Street {
		case features.River:
			riverIdx = i
		case features.Turn:
			turnIdx = i
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, p.cfg.MaxConcurrentQueries)

	for i, s := range snaps {
		if i == riverIdx {
			continue // sequenced after its TURN task below
		}
		i, s := i, s
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			results[i] = p.enrichViaRetriever(gctx, s, in)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pipeline: enrichment cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: enrichment cancelled: %w", err)
	}

	if riverIdx >= 0 {
		var turnMatch *retriever.Match
		if turnIdx >= 0 {
			turnMatch = results[turnIdx].Match
		}
		results[riverIdx] = p.enrichRiver(ctx, snaps[riverIdx], turnMatch, in)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: enrichment cancelled: %w", err)
	}

	return results, nil
}

// buildQuery derives the vector-index query fields from a snapshot (spec
// §4.5 step 2).
func (p *Pipeline) buildQuery(s snapshot.Snapshot) (features.Vector, retriever.Query) {
	board := s.BoardHand()
	vec := features.Build(features.Input{
		OOPBucket:     features.BucketFor(s.Positions.OOP),
		IPBucket:      features.BucketFor(s.Positions.IP),
		Street:        s.Street,
		PotType:       s.PotType,
		StackBB:       s.HeroStackBB,
		PotBB:         s.PotBB,
		Board:         board,
		ActionHistory: s.ActionHistory,
	})

	query := retriever.Query{
		Vector:        vec,
		Street:        s.Street.String(),
		PotType:       s.PotType.String(),
		FlopArchetype: flopArchetypeFor(board),
		OOPBucket:     features.BucketFor(s.Positions.OOP).String(),
		IPBucket:      features.BucketFor(s.Positions.IP).String(),
		HasOOPBucket:  true,
		HasIPBucket:   true,
		ActionHistory: s.ActionHistory,
	}
	return vec, query
}

func flopArchetypeFor(board cards.Hand) string {
	if board.CountCards() < 3 {
		return ""
	}
	return boardtex.FlopArchetype(board)
}

// enrichViaRetriever runs the vector-search path used by FLOP and TURN
// snapshots (spec §4.5 steps 1-5).
func (p *Pipeline) enrichViaRetriever(ctx context.Context, s snapshot.Snapshot, in HandInput) Result {
	_, query := p.buildQuery(s)

	var match *retriever.Match
	err := retry.Do(ctx, p.cfg.Clock, p.cfg.Retry, func() error {
		var searchErr error
		match, searchErr = p.retriever.FindSimilarNode(ctx, query)
		return searchErr
	})
	if err != nil {
		// Spec §7: transient I/O exhausts retry -> treat as lookup miss.
		return Result{Snapshot: s, Tags: []string{transientMissTag}, Err: err}
	}
	if match == nil {
		return Result{Snapshot: s}
	}

	node, ok, err := p.resolveNode(ctx, s.Street.String(), match.Meta)
	if err != nil {
		return Result{Snapshot: s, Match: match, Tags: []string{transientMissTag}, Err: err}
	}
	if !ok {
		return Result{Snapshot: s, Match: match}
	}

	return p.buildResult(s, node, match.Score, &match.Meta, in)
}

// enrichRiver implements spec §4.5 step 6: reuse the TURN match's shard,
// do a local in-shard search, and never fall back to the vector index.
func (p *Pipeline) enrichRiver(ctx context.Context, s snapshot.Snapshot, turnMatch *retriever.Match, in HandInput) Result {
	if turnMatch == nil || turnMatch.Meta.S3Bucket == "" || turnMatch.Meta.S3Key == "" {
		return Result{Snapshot: s}
	}

	shard, ok := p.shards.Peek(turnMatch.Meta.S3Bucket, turnMatch.Meta.S3Key)
	if !ok {
		return Result{Snapshot: s}
	}

	riverVector, _ := p.buildQuery(s)
	actionSeq := string(actions.EncodeSequence(s.ActionHistory))

	riverMatch := retriever.FindRiverNodeInShard(shard, actionSeq, riverVector, nodeVector)
	if riverMatch == nil {
		return Result{Snapshot: s}
	}

	score := cosineSimilarity(riverVector, nodeVector(riverMatch.Node))
	return p.buildResult(s, riverMatch.Node, score, nil, in)
}

// resolveNode fetches the full NodeAnalysis a match points at: FLOP nodes
// come from the document store, TURN/RIVER nodes from a shard blob (spec
// §6 "Document store (for FLOP nodes)" vs §4.4 shard fetch).
func (p *Pipeline) resolveNode(ctx context.Context, street string, meta retriever.LeanNodeMeta) (shardstore.NodeAnalysis, bool, error) {
	if street == "FLOP" {
		if p.docs == nil {
			return shardstore.NodeAnalysis{}, false, nil
		}
		var node *shardstore.NodeAnalysis
		err := retry.Do(ctx, p.cfg.Clock, p.cfg.Retry, func() error {
			var findErr error
			node, findErr = p.docs.FindOne(ctx, meta.ID, "FLOP")
			return findErr
		})
		if err != nil {
			return shardstore.NodeAnalysis{}, false, err
		}
		if node == nil {
			return shardstore.NodeAnalysis{}, false, nil
		}
		return *node, true, nil
	}

	if meta.S3Bucket == "" || meta.S3Key == "" {
		return shardstore.NodeAnalysis{}, false, nil
	}
	byteRange := shardstore.ByteRange{Offset: meta.Offset, Length: meta.Length, Present: meta.HasByteRange}
	var nodes []shardstore.NodeAnalysis
	err := retry.Do(ctx, p.cfg.Clock, p.cfg.Retry, func() error {
		var getErr error
		nodes, getErr = p.shards.Get(ctx, meta.S3Bucket, meta.S3Key, byteRange)
		return getErr
	})
	if err != nil {
		return shardstore.NodeAnalysis{}, false, err
	}
	for _, n := range nodes {
		if n.NodeID == meta.ID || (meta.OriginalID != "" && n.NodeID == meta.OriginalID) {
			return n, true, nil
		}
	}
	return shardstore.NodeAnalysis{}, false, nil
}

func (p *Pipeline) buildResult(s snapshot.Snapshot, node shardstore.NodeAnalysis, score float64, leanMeta *retriever.LeanNodeMeta, in HandInput) Result {
	var heroHand *cards.Hand
	if s.HeroCards[0] != s.HeroCards[1] {
		h := s.HeroHand()
		heroHand = &h
	}

	block := solverblock.Build(solverblock.Input{
		Node:            node,
		Snapshot:        s,
		SimilarityScore: score,
		HeroHand:        heroHand,
		HeroRange:       in.HeroRange,
		VillainRange:    in.VillainRange,
		ComboData:       in.ComboData,
		LeanMeta:        leanMeta,
	})

	tagCtx := tags.Context{Block: block, Snapshot: s}
	tagList := p.taggen.Generate(tagCtx, p.cfg.TagConfig)

	return Result{Snapshot: s, Block: &block, Tags: tagList}
}

// nodeVector reconstructs the 71-dim vector a decoded shard entry would
// have produced, so it can be compared against a live snapshot's vector
// (spec §4.5 step 6).
func nodeVector(n shardstore.NodeAnalysis) features.Vector {
	board, _ := cards.ParseBoard(n.Board)
	oopSeat, _ := features.ParseSeat(n.Positions.OOP)
	ipSeat, _ := features.ParseSeat(n.Positions.IP)

	history := make([]actions.Action, 0, len(n.ActionHistory))
	for _, tok := range n.ActionHistory {
		history = append(history, actions.ParseActionToken(tok))
	}

	return features.Build(features.Input{
		OOPBucket:     features.BucketFor(oopSeat),
		IPBucket:      features.BucketFor(ipSeat),
		Street:        features.ParseStreet(string(n.Street)),
		PotType:       features.ParsePotType(n.PotType),
		StackBB:       n.EffStack,
		PotBB:         n.Pot,
		Board:         cards.NewHand(board...),
		ActionHistory: history,
	})
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
	return dot / (sqrtApprox(na) * sqrtApprox(nb))
}

func sqrtApprox(v float64) float64 {
	if v <= 0 {
		return 0
	}
	x := v
	for i := 0; i < 40; i++ {
		x = 0.5 * (x + v/x)
	}
	return x
}
