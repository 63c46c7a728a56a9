// Package boardtex analyzes board texture and draw potential, shared by the
// feature extractor's 8-bit texture bitfield (spec C2) and the equity
// engine's richer boardAnalysis (spec C6). Adapted from the bit-packed
// board/draw analysis of the teacher's classification package.
package boardtex

import (
	"math/bits"

	"github.com/railbird/solver-enrichment/internal/cards"
)

// Texture is the overall "wetness" of a board, dry to very wet.
type Texture int

const (
	Dry Texture = iota
	SemiWet
	Wet
	VeryWet
)

func (t Texture) String() string {
	switch t {
	case Dry:
		return "dry"
	case SemiWet:
		return "semi-wet"
	case Wet:
		return "wet"
	case VeryWet:
		return "very wet"
	default:
		return "unknown"
	}
}

// FlushInfo describes flush potential on a board.
type FlushInfo struct {
	MaxSuitCount int
	DominantSuit cards.Suit
	HasDominant  bool
	IsMonotone   bool
	IsRainbow    bool
}

// StraightInfo describes straight potential on a board.
type StraightInfo struct {
	ConnectedCards int
	Gaps           int
	HasAce         bool
	BroadwayCards  int
}

// Bits is the 8-bit board-texture bitfield from spec §3/§4.2:
// paired, trips, monotone, two-tone, connected, one-gapper,
// broadway-heavy, low-heavy.
type Bits uint8

const (
	BitPaired Bits = 1 << iota
	BitTrips
	BitMonotone
	BitTwoTone
	BitConnected
	BitOneGapper
	BitBroadwayHeavy
	BitLowHeavy
)

// AnalyzeFlushPotential inspects per-suit counts on the board.
func AnalyzeFlushPotential(board cards.Hand) FlushInfo {
	var suitCounts [4]int
	var suitMasks [4]uint16
	for s := cards.Clubs; s <= cards.Spades; s++ {
		suitMasks[s] = board.GetSuitMask(s)
		suitCounts[s] = bits.OnesCount16(suitMasks[s])
	}

	var maxCount int
	var dominant cards.Suit
	hasDominant := false
	bestHighRank := -1
	nonZeroSuits := 0

	for s := int(cards.Spades); s >= int(cards.Clubs); s-- {
		count := suitCounts[s]
		if count == 0 {
			continue
		}
		nonZeroSuits++
		highestRank := bits.Len16(suitMasks[s]) - 1
		if count > maxCount || (count == maxCount && highestRank > bestHighRank) {
			maxCount = count
			bestHighRank = highestRank
			dominant = cards.Suit(s)
			hasDominant = true
		}
	}

	cardCount := board.CountCards()
	return FlushInfo{
		MaxSuitCount: maxCount,
		DominantSuit: dominant,
		HasDominant:  hasDominant,
		IsMonotone:   nonZeroSuits == 1 && cardCount >= 3,
		IsRainbow:    nonZeroSuits == cardCount && cardCount >= 3,
	}
}

// AnalyzeStraightPotential inspects rank connectivity on the board.
func AnalyzeStraightPotential(board cards.Hand) StraightInfo {
	cardCount := board.CountCards()
	if cardCount == 0 {
		return StraightInfo{}
	}

	rankMask := board.GetRankMask()
	hasAce := rankMask&(1<<cards.Ace) != 0

	broadway := 0
	for r := cards.Ten; r <= cards.Ace; r++ {
		if rankMask&(1<<r) != 0 {
			broadway++
		}
	}

	if cardCount == 1 {
		bw := 0
		if hasAce {
			bw = 1
		}
		return StraightInfo{ConnectedCards: 1, HasAce: hasAce, BroadwayCards: bw}
	}

	var ranks []int
	for r := 0; r < 13; r++ {
		if rankMask&(1<<uint(r)) != 0 {
			ranks = append(ranks, r)
		}
	}

	maxConnected, current, totalGaps := 1, 1, 0
	for i := 1; i < len(ranks); i++ {
		gap := ranks[i] - ranks[i-1] - 1
		if gap == 0 {
			current++
			continue
		}
		if current > maxConnected {
			maxConnected = current
		}
		current = 1
		totalGaps += gap
	}
	if current > maxConnected {
		maxConnected = current
	}

	if hasAce {
		var low []int
		for _, r := range ranks {
			if r <= 3 {
				low = append(low, r)
			}
		}
		if len(low) >= 2 {
			wheelRanks := append([]int{-1}, low...)
			wheelConnected, wheelMax := 1, 1
			for i := 1; i < len(wheelRanks); i++ {
				if wheelRanks[i]-wheelRanks[i-1] == 1 {
					wheelConnected++
				} else {
					if wheelConnected > wheelMax {
						wheelMax = wheelConnected
					}
					wheelConnected = 1
				}
			}
			if wheelConnected > wheelMax {
				wheelMax = wheelConnected
			}
			if wheelMax > maxConnected {
				maxConnected = wheelMax
			}
		}
	}

	return StraightInfo{
		ConnectedCards: maxConnected,
		Gaps:           totalGaps,
		HasAce:         hasAce,
		BroadwayCards:  broadway,
	}
}

func countBoardPairs(board cards.Hand) int {
	var counts [13]int
	for s := cards.Clubs; s <= cards.Spades; s++ {
		mask := board.GetSuitMask(s)
		for r := 0; r < 13; r++ {
			if mask&(1<<uint(r)) != 0 {
				counts[r]++
			}
		}
	}
	pairs := 0
	for _, c := range counts {
		if c >= 2 {
			pairs++
		}
	}
	return pairs
}

func countTrips(board cards.Hand) bool {
	var counts [13]int
	for s := cards.Clubs; s <= cards.Spades; s++ {
		mask := board.GetSuitMask(s)
		for r := 0; r < 13; r++ {
			if mask&(1<<uint(r)) != 0 {
				counts[r]++
			}
		}
	}
	for _, c := range counts {
		if c >= 3 {
			return true
		}
	}
	return false
}

func countHighCards(board cards.Hand) int {
	n := 0
	for s := cards.Clubs; s <= cards.Spades; s++ {
		mask := board.GetSuitMask(s)
		n += bits.OnesCount16(mask & 0x1F00) // T,J,Q,K,A bits
	}
	return n
}

func countLowCards(board cards.Hand) int {
	n := 0
	for s := cards.Clubs; s <= cards.Spades; s++ {
		mask := board.GetSuitMask(s)
		n += bits.OnesCount16(mask & 0x000F) // 2,3,4,5 bits
	}
	return n
}

// Analyze classifies overall board wetness (spec §4.6 analyzeBoardTexture's
// coarse dimension).
func Analyze(board cards.Hand) Texture {
	if board.CountCards() < 3 {
		return Dry
	}

	var wetness int
	flush := AnalyzeFlushPotential(board)
	switch {
	case flush.IsMonotone:
		wetness += 4
	case flush.MaxSuitCount >= 4:
		wetness += 4
	case flush.MaxSuitCount == 3:
		wetness += 3
	case flush.MaxSuitCount == 2:
		wetness += 1
	}

	straight := AnalyzeStraightPotential(board)
	switch {
	case straight.ConnectedCards >= 4:
		wetness += 4
	case straight.ConnectedCards == 3:
		wetness += 3
	case straight.ConnectedCards == 2:
		wetness += 1
	}

	if countBoardPairs(board) >= 1 {
		wetness++
	}
	if countHighCards(board) >= 3 {
		wetness++
	}

	switch {
	case wetness <= 0:
		return Dry
	case wetness <= 3:
		return SemiWet
	case wetness <= 5:
		return Wet
	default:
		return VeryWet
	}
}

// AnalyzeBits computes the 8-bit board-texture bitfield (spec §4.2 item 2).
func AnalyzeBits(board cards.Hand) Bits {
	var b Bits
	flush := AnalyzeFlushPotential(board)
	straight := AnalyzeStraightPotential(board)

	if countBoardPairs(board) >= 1 {
		b |= BitPaired
	}
	if countTrips(board) {
		b |= BitTrips
	}
	if flush.IsMonotone {
		b |= BitMonotone
	}
	if flush.MaxSuitCount == 2 {
		b |= BitTwoTone
	}
	if straight.ConnectedCards >= 3 {
		b |= BitConnected
	}
	if straight.Gaps == 1 {
		b |= BitOneGapper
	}
	if straight.BroadwayCards >= 2 {
		b |= BitBroadwayHeavy
	}
	if countLowCards(board) >= 2 {
		b |= BitLowHeavy
	}
	return b
}

// TextureTags renders the wetness/flush/straight analysis into the short
// tag strings consumed by SolverBlock.boardAnalysis.textureTags (spec §3).
func TextureTags(board cards.Hand) []string {
	var tags []string
	flush := AnalyzeFlushPotential(board)
	straight := AnalyzeStraightPotential(board)

	switch {
	case flush.IsMonotone:
		tags = append(tags, "monotone")
	case flush.MaxSuitCount == 2:
		tags = append(tags, "two-tone")
	case flush.IsRainbow:
		tags = append(tags, "rainbow")
	}
	if straight.ConnectedCards >= 3 {
		tags = append(tags, "connected")
	}
	if countBoardPairs(board) >= 1 {
		tags = append(tags, "paired")
	}
	if straight.BroadwayCards >= 2 {
		tags = append(tags, "broadway-heavy")
	}
	if countLowCards(board) >= 2 {
		tags = append(tags, "low-heavy")
	}
	return tags
}

// FlopArchetype renders a three-letter {L,M,H} string, one letter per flop
// rank sorted lexicographically. L=2-5, M=6-9, H=T-A. Only the first three
// board cards (the flop) are considered, even if board holds turn/river
// cards too.
func FlopArchetype(board cards.Hand) string {
	cs := board.Cards()
	if len(cs) > 3 {
		cs = cs[:3]
	}
	letters := make([]byte, 0, 3)
	for _, c := range cs {
		letters = append(letters, rankClassLetter(c.Rank()))
	}
	// Sort lexicographically as required by spec.
	for i := 1; i < len(letters); i++ {
		for j := i; j > 0 && letters[j-1] > letters[j]; j-- {
			letters[j-1], letters[j] = letters[j], letters[j-1]
		}
	}
	return string(letters)
}

func rankClassLetter(r cards.Rank) byte {
	switch {
	case r <= cards.Five:
		return 'L'
	case r <= cards.Nine:
		return 'M'
	default:
		return 'H'
	}
}
