package equity

import (
	"github.com/railbird/solver-enrichment/internal/boardtex"
	"github.com/railbird/solver-enrichment/internal/cards"
)

// BoardAnalysis is the SolverBlock.boardAnalysis structure (spec §3).
type BoardAnalysis struct {
	Texture           string
	IsPaired          bool
	TextureTags       []string
	FlushPossible     bool
	FlushSuit         string
	StraightPossible  bool
	BroadwayPotential bool
	WheelPotential    bool
}

// DefaultBoardAnalysis is the documented substitute used by the SolverBlock
// builder when AnalyzeBoardTexture fails (spec §4.7 step 2).
func DefaultBoardAnalysis() BoardAnalysis {
	return BoardAnalysis{Texture: "Unknown", IsPaired: false, TextureTags: []string{}}
}

// AnalyzeBoardTexture classifies overall board wetness, pairing, and
// flush/straight potential (spec §4.6).
func AnalyzeBoardTexture(board cards.Hand) (BoardAnalysis, error) {
	if board.CountCards() == 0 {
		return BoardAnalysis{}, &EngineError{Kind: InvalidCard, Detail: "board has no cards"}
	}

	flush := boardtex.AnalyzeFlushPotential(board)
	straight := boardtex.AnalyzeStraightPotential(board)

	analysis := BoardAnalysis{
		Texture:           boardtex.Analyze(board).String(),
		IsPaired:          boardPaired(board),
		TextureTags:       boardtex.TextureTags(board),
		FlushPossible:     flush.MaxSuitCount >= 3,
		StraightPossible:  straight.ConnectedCards >= 3 || straight.Gaps <= 1,
		BroadwayPotential: straight.BroadwayCards >= 2,
		WheelPotential:    straight.HasAce && hasLowCards(board),
	}
	if flush.HasDominant && flush.MaxSuitCount >= 3 {
		analysis.FlushSuit = flush.DominantSuit.String()
	}
	return analysis, nil
}

func boardPaired(board cards.Hand) bool {
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
		if c >= 2 {
			return true
		}
	}
	return false
}

func hasLowCards(board cards.Hand) bool {
	mask := board.GetRankMask()
	return mask&0x000F != 0 // ranks 2-5
}
