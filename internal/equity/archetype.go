// Package equity implements the heavy compute block: board texture,
// range-vs-range equity, blocker impact, and hand archetype classification
// (spec C6). Grounded on the teacher's equity.go Monte-Carlo estimator
// (reused here as the incomplete-board fallback path) and the
// classification package's draw detectors, now layered on
// internal/cards/internal/boardtex instead of the teacher's unused
// bit-packed poker.Hand type.
package equity

import (
	"fmt"

	"github.com/railbird/solver-enrichment/internal/boardtex"
	"github.com/railbird/solver-enrichment/internal/cards"
)

// MadeTier is the made-hand strength category (spec §3 HandArchetype).
type MadeTier int

const (
	HighCard MadeTier = iota
	Pair
	TwoPair
	Trips
	Straight
	Flush
	FullHouse
	Quads
	StraightFlush
)

func (t MadeTier) String() string {
	switch t {
	case HighCard:
		return "HighCard"
	case Pair:
		return "Pair"
	case TwoPair:
		return "TwoPair"
	case Trips:
		return "Trips"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "FullHouse"
	case Quads:
		return "Quads"
	case StraightFlush:
		return "StraightFlush"
	default:
		return "Unknown"
	}
}

// PairSubtype further classifies a Pair-tier hand (spec §3).
type PairSubtype int

const (
	NoPairSubtype PairSubtype = iota
	OverPair
	TopPair
	TopPairGoodKicker
	MiddlePair
	WeakPair
	BottomPair
	Pocket
)

func (s PairSubtype) String() string {
	switch s {
	case OverPair:
		return "OverPair"
	case TopPair:
		return "TopPair"
	case TopPairGoodKicker:
		return "TopPairGoodKicker"
	case MiddlePair:
		return "MiddlePair"
	case WeakPair:
		return "WeakPair"
	case BottomPair:
		return "BottomPair"
	case Pocket:
		return "Pocket"
	default:
		return ""
	}
}

// DrawFlag names a drawing hand shape (spec §3).
type DrawFlag string

const (
	FlushDrawFlag     DrawFlag = "FLUSH_DRAW"
	BackdoorFDFlag    DrawFlag = "BACKDOOR_FD"
	OESDFlag          DrawFlag = "OESD"
	GutshotFlag       DrawFlag = "GUTSHOT"
	DoubleGutFlag     DrawFlag = "DOUBLE_GUT"
	ComboDrawFlag     DrawFlag = "COMBO_DRAW"
)

// HandArchetype is the tagged record spec §3 defines for a combo on a board.
type HandArchetype struct {
	MadeTier    MadeTier
	PairSubtype PairSubtype
	DrawFlags   []DrawFlag
	DisplayName string
}

// EngineError is the uniform failure type for C6 operations (spec §4.6).
type EngineError struct {
	Kind   string
	Detail string
}

const (
	InvalidCard    = "InvalidCard"
	EmptyRange     = "EmptyRange"
	InternalNumeric = "InternalNumeric"
)

func (e *EngineError) Error() string {
	return fmt.Sprintf("equity: %s: %s", e.Kind, e.Detail)
}

// ClassifyArchetype maps a two-card hole hand plus board into its
// HandArchetype: made-tier, optional pair subtype, and draw flags. Total
// over all legal (hole, board) combinations (spec §8 "range totality").
func ClassifyArchetype(hole cards.Hand, board cards.Hand) (HandArchetype, error) {
	if hole.CountCards() != 2 {
		return HandArchetype{}, &EngineError{Kind: InvalidCard, Detail: "hole hand must contain exactly two cards"}
	}

	combined := hole | board
	rank := cards.Evaluate7Cards(combined)
	tier := tierFromHandRank(rank)

	arch := HandArchetype{MadeTier: tier}
	if tier == Pair {
		arch.PairSubtype = classifyPairSubtype(hole, board)
	}

	if board.CountCards() > 0 && board.CountCards() < 5 {
		draws := boardtex.DetectDraws(hole, board)
		arch.DrawFlags = drawFlagsFrom(draws)
	}

	arch.DisplayName = displayName(arch)
	return arch, nil
}

func tierFromHandRank(hr cards.HandRank) MadeTier {
	switch hr.Type() {
	case cards.HighCard:
		return HighCard
	case cards.Pair:
		return Pair
	case cards.TwoPair:
		return TwoPair
	case cards.ThreeOfAKind:
		return Trips
	case cards.Straight:
		return Straight
	case cards.Flush:
		return Flush
	case cards.FullHouse:
		return FullHouse
	case cards.FourOfAKind:
		return Quads
	case cards.StraightFlush:
		return StraightFlush
	default:
		return HighCard
	}
}

// classifyPairSubtype assumes the combined hand's best five cards form
// exactly a pair (already verified by the caller via HandRank.Type()).
func classifyPairSubtype(hole cards.Hand, board cards.Hand) PairSubtype {
	holeCards := hole.Cards()
	if len(holeCards) != 2 {
		return NoPairSubtype
	}
	r1, r2 := holeCards[0].Rank(), holeCards[1].Rank()

	if r1 == r2 {
		// Pocket pair: either an overpair to the board, or unimproved pocket.
		topBoard := topBoardRank(board)
		if topBoard < 0 || int(r1) > topBoard {
			return OverPair
		}
		return Pocket
	}

	boardRankMask := board.GetRankMask()
	sortedBoardRanks := sortedRanksDescending(boardRankMask)
	if len(sortedBoardRanks) == 0 {
		return WeakPair
	}

	matched := -1
	for _, hr := range []cards.Rank{r1, r2} {
		for _, br := range sortedBoardRanks {
			if hr == br {
				matched = int(hr)
			}
		}
	}
	if matched < 0 {
		return WeakPair
	}

	switch {
	case matched == int(sortedBoardRanks[0]):
		kicker := otherHoleRank(r1, r2, cards.Rank(matched))
		if kicker >= cards.Queen {
			return TopPairGoodKicker
		}
		return TopPair
	case len(sortedBoardRanks) >= 3 && matched == int(sortedBoardRanks[len(sortedBoardRanks)-1]):
		return BottomPair
	case len(sortedBoardRanks) >= 2 && matched == int(sortedBoardRanks[1]):
		return MiddlePair
	default:
		return WeakPair
	}
}

func otherHoleRank(r1, r2, matched cards.Rank) cards.Rank {
	if r1 == matched {
		return r2
	}
	return r1
}

func topBoardRank(board cards.Hand) int {
	mask := board.GetRankMask()
	for r := 12; r >= 0; r-- {
		if mask&(1<<uint(r)) != 0 {
			return r
		}
	}
	return -1
}

func sortedRanksDescending(mask uint16) []cards.Rank {
	var out []cards.Rank
	for r := 12; r >= 0; r-- {
		if mask&(1<<uint(r)) != 0 {
			out = append(out, cards.Rank(r))
		}
	}
	return out
}

func drawFlagsFrom(d boardtex.Draws) []DrawFlag {
	var out []DrawFlag
	if d.FlushDraw {
		out = append(out, FlushDrawFlag)
	}
	if d.BackdoorFlushDraw {
		out = append(out, BackdoorFDFlag)
	}
	if d.OESD {
		out = append(out, OESDFlag)
	}
	if d.Gutshot {
		out = append(out, GutshotFlag)
	}
	if d.DoubleGutshot {
		out = append(out, DoubleGutFlag)
	}
	if d.ComboDraw {
		out = append(out, ComboDrawFlag)
	}
	return out
}

func displayName(a HandArchetype) string {
	if a.MadeTier == Pair && a.PairSubtype != NoPairSubtype {
		return a.PairSubtype.String()
	}
	return a.MadeTier.String()
}

// IsValueHand reports whether an archetype counts toward the "value"
// percentage in range-equity output (spec §4.6: "madeTier ≥ TwoPair or
// Pair with pairSubtype ∈ {OverPair, TopPair}").
func (a HandArchetype) IsValueHand() bool {
	if a.MadeTier >= TwoPair {
		return true
	}
	if a.MadeTier == Pair && (a.PairSubtype == OverPair || a.PairSubtype == TopPair) {
		return true
	}
	return false
}
