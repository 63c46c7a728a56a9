package boardtex

import (
	"math/bits"

	"github.com/railbird/solver-enrichment/internal/cards"
)

// Draws is the set of draws a two-card hand holds in combination with a
// board, adapted from the teacher's DetectDraws detector set.
type Draws struct {
	FlushDraw         bool
	NutFlushDraw      bool
	BackdoorFlushDraw bool
	OESD              bool // open-ended straight draw
	Gutshot           bool
	DoubleGutshot     bool
	BackdoorStraight  bool
	ComboDraw         bool // flush draw + (OESD or gutshot) together
	Overcards         int  // hero hole cards ranked above the board's top card
}

// DetectDraws classifies every draw a hero's two hole cards have given a
// board of 3, 4 or 5 cards (spec §4.6's drawFlags; §4.2's auxiliary draw
// detection for feature extraction).
func DetectDraws(hole cards.Hand, board cards.Hand) Draws {
	var d Draws

	combined := hole | board
	boardCount := board.CountCards()

	flushSuit, flushCount, hasFlushSuit := dominantHeroSuit(hole, board)
	if hasFlushSuit {
		switch {
		case flushCount == 4:
			d.FlushDraw = true
			d.NutFlushDraw = isNutFlushDraw(hole, board, flushSuit)
		case flushCount == 3 && boardCount == 3:
			d.BackdoorFlushDraw = true
		}
	}

	rankMask := combined.GetRankMask()
	oesd, gut, doubleGut := straightDrawKind(rankMask)
	d.OESD = oesd
	d.Gutshot = gut
	d.DoubleGutshot = doubleGut

	if boardCount == 3 && !oesd && !gut {
		d.BackdoorStraight = hasBackdoorStraightPotential(rankMask)
	}

	d.ComboDraw = d.FlushDraw && (d.OESD || d.Gutshot)

	d.Overcards = countOvercards(hole, board)

	return d
}

// dominantHeroSuit finds the suit in which hero holds at least one card and
// that suit's combined (hero+board) count, preferring the suit hero
// contributes to most.
func dominantHeroSuit(hole cards.Hand, board cards.Hand) (cards.Suit, int, bool) {
	best := cards.Suit(0)
	bestCount := 0
	found := false
	for s := cards.Clubs; s <= cards.Spades; s++ {
		heroMask := hole.GetSuitMask(s)
		if heroMask == 0 {
			continue
		}
		total := bits.OnesCount16(heroMask | board.GetSuitMask(s))
		if total > bestCount {
			bestCount = total
			best = s
			found = true
		}
	}
	return best, bestCount, found
}

func isNutFlushDraw(hole cards.Hand, board cards.Hand, suit cards.Suit) bool {
	heroMask := hole.GetSuitMask(suit)
	boardMask := board.GetSuitMask(suit)
	aceBit := uint16(1 << cards.Ace)
	if heroMask&aceBit != 0 {
		return true
	}
	// Hero doesn't hold the ace of the suit; a nut flush draw requires hero
	// to hold the highest remaining card of that suit not already on board.
	highestHeroRank := bits.Len16(heroMask) - 1
	if highestHeroRank < 0 {
		return false
	}
	for r := 12; r > highestHeroRank; r-- {
		if boardMask&(1<<uint(r)) == 0 {
			return false
		}
	}
	return true
}

// straightDrawKind classifies the best straight draw shape present in a
// 13-bit combined rank mask: open-ended, gutshot, or double-gutshot. A made
// straight or four-to-a-straight-with-both-ends-live takes priority as OESD
// regardless of how many individual gaps exist elsewhere.
func straightDrawKind(rankMask uint16) (oesd bool, gutshot bool, doubleGutshot bool) {
	// Shift ranks up one bit so bit 0 can hold a virtual ace-low for
	// wheel-draw windows: window 0 is A-2-3-4-5, window 9 is T-J-Q-K-A.
	extended := uint32(rankMask) << 1
	if rankMask&(1<<cards.Ace) != 0 {
		extended |= 1 // virtual "ace as 1"
	}

	gutCount := 0
	for low := 0; low <= 9; low++ {
		window := uint32(0)
		for i := 0; i < 5; i++ {
			window |= 1 << uint(low+i)
		}
		present := extended & window
		missing := 5 - bits.OnesCount32(present)
		if missing != 1 {
			continue
		}
		gap := window &^ present
		// open-ended: the single missing card is at either end of the window
		lowBit := uint32(1) << uint(low)
		highBit := uint32(1) << uint(low+4)
		if gap == lowBit || gap == highBit {
			oesd = true
		} else {
			gutCount++
		}
	}
	if gutCount >= 2 {
		doubleGutshot = true
	} else if gutCount == 1 && !oesd {
		gutshot = true
	}
	return
}

func hasBackdoorStraightPotential(rankMask uint16) bool {
	extended := uint32(rankMask)
	if rankMask&(1<<cards.Ace) != 0 {
		extended |= 1 << 13
	}
	for low := 0; low <= 9; low++ {
		window := uint32(0)
		for i := 0; i < 5; i++ {
			window |= 1 << uint(low+i)
		}
		present := bits.OnesCount32(extended & window)
		if present == 3 {
			return true
		}
	}
	return false
}

func countOvercards(hole cards.Hand, board cards.Hand) int {
	boardRankMask := board.GetRankMask()
	topBoardRank := -1
	for r := 12; r >= 0; r-- {
		if boardRankMask&(1<<uint(r)) != 0 {
			topBoardRank = r
			break
		}
	}
	if topBoardRank < 0 {
		return 0
	}
	n := 0
	for _, c := range hole.Cards() {
		if int(c.Rank()) > topBoardRank {
			n++
		}
	}
	return n
}
