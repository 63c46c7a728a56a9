// Package solverblock assembles a SolverBlock from a matched NodeAnalysis
// plus hero cards and the actual hand state (spec C7). Grounded on the
// teacher's runtime.Policy/Blueprint consumption shape: read a solved
// strategy by key, fall back to a documented default when data is
// partial or missing.
package solverblock

import (
	"sort"

	"github.com/railbird/solver-enrichment/internal/actions"
	"github.com/railbird/solver-enrichment/internal/cards"
	"github.com/railbird/solver-enrichment/internal/equity"
	"github.com/railbird/solver-enrichment/internal/retriever"
	"github.com/railbird/solver-enrichment/internal/shardstore"
	"github.com/railbird/solver-enrichment/internal/snapshot"
)

// Stacks holds both sides' effective stacks in BB.
type Stacks struct {
	OOP, IP float64
}

// RecommendedAction is one parsed, sized action (spec §3 optimalStrategy).
type RecommendedAction struct {
	Action     string
	Frequency  float64
	EV         float64
	ActionType string
	Sizing     *actions.Sizing
}

// OptimalStrategy is the SolverBlock.optimalStrategy structure.
type OptimalStrategy struct {
	RecommendedAction RecommendedAction
	ActionFrequencies []RecommendedAction
}

// ComboStrategy is the SolverBlock.comboStrategy structure.
type ComboStrategy struct {
	HeroHand          string
	Archetype         string
	TopActions        []equity.StrategyAction
	RecommendedAction string
	Confidence        string
}

// SolverBlock is the assembly result consumed by the tag generator and any
// downstream LLM orchestrator (spec §3).
type SolverBlock struct {
	NodeID          string
	Street          string
	Board           []cards.Card
	Pot             float64
	Stacks          Stacks
	Positions       shardstore.Positions
	NextToAct       string
	Sim             float64
	BoardAnalysis   equity.BoardAnalysis
	RangeAdvantage  equity.RangeEquity
	HeroRange       *equity.RangeDecomposition
	VillainRange    *equity.RangeDecomposition
	BlockerImpact   *equity.BlockerImpact
	HandFeatures    *equity.HandFeatures
	ComboStrategy   *ComboStrategy
	OptimalStrategy OptimalStrategy
	Unreliable      bool // set when the TURN fallback substitution (step 7) fired
}

// Input bundles everything Build needs beyond the matched node.
type Input struct {
	Node            shardstore.NodeAnalysis
	Snapshot        snapshot.Snapshot
	SimilarityScore float64
	HeroHand        *cards.Hand // nil when hero cards aren't available/applicable
	HeroRange       *cards.Range
	VillainRange    *cards.Range
	ComboData       equity.ComboStrategyData
	LeanMeta        *retriever.LeanNodeMeta // carries a TURN fallback optimal_strategy blob
}

const minFrequencyCount = 2

// Build assembles a SolverBlock per spec §4.7's seven steps. It is a pure
// function of its inputs (spec §8 "buildSolverBlock is a pure function").
func Build(in Input) SolverBlock {
	snap := in.Snapshot
	board := snap.BoardHand()

	block := SolverBlock{
		NodeID:    in.Node.NodeID,
		Street:    snap.Street.String(),
		Board:     snap.Board,
		Pot:       snap.PotBB,
		Stacks:    Stacks{OOP: in.Node.StackOOP, IP: in.Node.StackIP},
		Positions: in.Node.Positions,
		NextToAct: in.Node.NextToAct,
		Sim:       in.SimilarityScore,
	}

	if ba, err := equity.AnalyzeBoardTexture(board); err == nil {
		block.BoardAnalysis = ba
	} else {
		block.BoardAnalysis = equity.DefaultBoardAnalysis()
	}

	oopRange, oopErr := cards.ParseRange(in.Node.RangeStatsOOP)
	ipRange, ipErr := cards.ParseRange(in.Node.RangeStatsIP)
	if oopErr == nil && ipErr == nil {
		if eq, err := equity.CalculateRangeEquity(oopRange, ipRange, board, nil); err == nil {
			block.RangeAdvantage = eq
		} else {
			block.RangeAdvantage = equity.DefaultRangeEquity()
		}
	} else {
		block.RangeAdvantage = equity.DefaultRangeEquity()
	}

	block.OptimalStrategy = buildOptimalStrategy(in.Node, in.Node.NextToAct, snap.PotBB)

	if in.HeroHand != nil {
		heroHand := *in.HeroHand

		if in.VillainRange != nil {
			if bi, err := equity.CalculateBlockerImpact(heroHand, in.VillainRange, board); err == nil {
				block.BlockerImpact = &bi
			}
			if hf, err := equity.AnalyzeHandFeatures(heroHand, board, in.VillainRange, nil); err == nil {
				block.HandFeatures = &hf
			}
		}
		if in.HeroRange != nil && in.VillainRange != nil {
			if heroDecomp, villainDecomp, err := equity.AnalyzeRangeComplete(in.HeroRange, in.VillainRange, board, in.ComboData); err == nil {
				block.HeroRange = &heroDecomp
				block.VillainRange = &villainDecomp
			}
		}

		if len(in.Node.ComboData) > 0 {
			block.ComboStrategy = buildComboStrategy(heroHand, board, in.Node.ComboData)
		}
	}

	applyTurnFallback(&block, in)

	return block
}

func buildOptimalStrategy(node shardstore.NodeAnalysis, nextToAct string, actualPot float64) OptimalStrategy {
	rawActions := node.ActionsFor(nextToAct)
	if len(rawActions) == 0 {
		return OptimalStrategy{
			RecommendedAction: RecommendedAction{Action: "Check", EV: 0, Frequency: 1.0, ActionType: "check"},
		}
	}

	parsed := make([]RecommendedAction, 0, len(rawActions))
	for _, a := range rawActions {
		parsedAction := actions.ParseActionToken(a.Action)
		ra := RecommendedAction{
			Action:     a.Action,
			Frequency:  a.Frequency,
			EV:         a.EV,
			ActionType: parsedAction.Type.String(),
		}
		if parsedAction.HasAmount && actualPot > 0 {
			if sizing, err := actions.ClassifySizing(parsedAction.Amount, actualPot); err == nil {
				ra.Sizing = &sizing
			}
		}
		parsed = append(parsed, ra)
	}

	best := parsed[0]
	for _, a := range parsed[1:] {
		if a.Frequency > best.Frequency {
			best = a
		}
	}

	return OptimalStrategy{RecommendedAction: best, ActionFrequencies: parsed}
}

func buildComboStrategy(heroHand cards.Hand, board cards.Hand, comboData []shardstore.ComboEntry) *ComboStrategy {
	heroCards := heroHand.Cards()
	if len(heroCards) != 2 {
		return nil
	}
	heroCombo := heroCards[0].String() + heroCards[1].String()

	for _, entry := range comboData {
		if entry.Combo != heroCombo {
			continue
		}
		arch, err := equity.ClassifyArchetype(heroHand, board)
		archName := ""
		if err == nil {
			archName = arch.DisplayName
		}

		sorted := make([]shardstore.ActionFrequency, len(entry.Actions))
		copy(sorted, entry.Actions)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Frequency > sorted[j].Frequency })

		top := sorted
		if len(top) > 2 {
			top = top[:2]
		}
		topActions := make([]equity.StrategyAction, len(top))
		for i, a := range top {
			topActions[i] = equity.StrategyAction{Action: a.Action, Frequency: a.Frequency, EV: a.EV}
		}

		recommended := ""
		confidence := "low"
		if len(sorted) > 0 {
			recommended = sorted[0].Action
			switch {
			case sorted[0].Frequency >= 0.8:
				confidence = "high"
			case sorted[0].Frequency >= 0.5:
				confidence = "med"
			}
		}

		return &ComboStrategy{
			HeroHand:          heroCombo,
			Archetype:         archName,
			TopActions:        topActions,
			RecommendedAction: recommended,
			Confidence:        confidence,
		}
	}
	return nil
}

// applyTurnFallback implements spec §4.7 step 7: if the matched node's
// optimalStrategy has fewer than two action frequencies and the
// LeanNodeMeta carried its own optimal_strategy blob, substitute it and
// mark the block unreliable, dropping rangeAdvantage.
func applyTurnFallback(block *SolverBlock, in Input) {
	if in.Snapshot.Street.String() != "TURN" {
		return
	}
	if len(block.OptimalStrategy.ActionFrequencies) >= minFrequencyCount {
		return
	}
	if in.LeanMeta == nil || in.LeanMeta.OptimalStrategy == nil {
		return
	}

	blob := in.LeanMeta.OptimalStrategy
	freqs := make([]RecommendedAction, 0, len(blob.ActionFrequencies))
	for _, a := range blob.ActionFrequencies {
		freqs = append(freqs, RecommendedAction{Action: a.Action, Frequency: a.Frequency, EV: a.EV})
	}
	block.OptimalStrategy = OptimalStrategy{
		RecommendedAction: RecommendedAction{
			Action:    blob.RecommendedAction.Action,
			Frequency: blob.RecommendedAction.Frequency,
			EV:        blob.RecommendedAction.EV,
		},
		ActionFrequencies: freqs,
	}
	block.RangeAdvantage = equity.RangeEquity{}
	block.Unreliable = true
}
