package equity

import (
	"math"
	"math/rand"

	"github.com/railbird/solver-enrichment/internal/cards"
)

// NextCardOutcome is one row of NextStreetAnalysis.ByCard.
type NextCardOutcome struct {
	Card    string
	Equity  float64
	Delta   float64 // vs current equity
}

// NextStreetAnalysis enumerates every possible next community card (spec
// §4.6 analyzeHandFeatures).
type NextStreetAnalysis struct {
	ByCard  []NextCardOutcome
	Best    string
	Worst   string
	Mean    float64
	StdDev  float64
	Gains   int
	Neutral int
	Losses  int
}

// HandFeatures is the SolverBlock.handFeatures structure (spec §3).
type HandFeatures struct {
	Archetype          HandArchetype
	EquityVsRange      float64
	NextStreetAnalysis *NextStreetAnalysis
}

// neutralBandPct is how close a next-card equity must be to the current
// equity to count as "neutral" rather than a gain or loss.
const neutralBandPct = 0.5

// AnalyzeHandFeatures classifies hero's hand and its equity against
// villain's range, optionally enumerating every possible next community
// card when the board is not yet complete (spec §4.6).
func AnalyzeHandFeatures(heroHand cards.Hand, board cards.Hand, villainRange *cards.Range, rng *rand.Rand) (HandFeatures, error) {
	archetype, err := ClassifyArchetype(heroHand, board)
	if err != nil {
		return HandFeatures{}, err
	}

	heroRange := singleComboRange(heroHand)
	eq, err := CalculateRangeEquity(heroRange, villainRange, board, rng)
	if err != nil {
		return HandFeatures{}, err
	}

	features := HandFeatures{Archetype: archetype, EquityVsRange: eq.HeroEquity}

	if board.CountCards() > 0 && board.CountCards() < 5 {
		next, err := analyzeNextStreet(heroHand, board, villainRange, eq.HeroEquity, rng)
		if err == nil {
			features.NextStreetAnalysis = next
		}
	}

	return features, nil
}

func singleComboRange(hand cards.Hand) *cards.Range {
	cs := hand.Cards()
	if len(cs) != 2 {
		return cards.NewRange()
	}
	r := cards.NewRange()
	r.Add(cs[0].String()+cs[1].String(), 1.0)
	return r
}

func analyzeNextStreet(heroHand cards.Hand, board cards.Hand, villainRange *cards.Range, currentEquity float64, rng *rand.Rand) (*NextStreetAnalysis, error) {
	dead := heroHand | board
	remaining := remainingCards(dead)

	var outcomes []NextCardOutcome
	var sum, sumSq float64
	gains, neutral, losses := 0, 0, 0

	heroRange := singleComboRange(heroHand)

	for _, c := range remaining {
		nextBoard := board.AddCard(c)
		eq, err := CalculateRangeEquity(heroRange, villainRange, nextBoard, rng)
		if err != nil {
			continue
		}
		delta := eq.HeroEquity - currentEquity
		outcomes = append(outcomes, NextCardOutcome{Card: c.String(), Equity: eq.HeroEquity, Delta: delta})
		sum += eq.HeroEquity
		sumSq += eq.HeroEquity * eq.HeroEquity

		switch {
		case delta > neutralBandPct:
			gains++
		case delta < -neutralBandPct:
			losses++
		default:
			neutral++
		}
	}

	if len(outcomes) == 0 {
		return nil, &EngineError{Kind: InternalNumeric, Detail: "no remaining cards to enumerate next street"}
	}

	n := float64(len(outcomes))
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	best, worst := outcomes[0], outcomes[0]
	for _, o := range outcomes {
		if o.Equity > best.Equity {
			best = o
		}
		if o.Equity < worst.Equity {
			worst = o
		}
	}

	return &NextStreetAnalysis{
		ByCard:  outcomes,
		Best:    best.Card,
		Worst:   worst.Card,
		Mean:    mean,
		StdDev:  math.Sqrt(variance),
		Gains:   gains,
		Neutral: neutral,
		Losses:  losses,
	}, nil
}
