package equity

import (
	"fmt"
	"math/rand"

	"github.com/railbird/solver-enrichment/internal/cards"
)

// RangeEquity is the output of CalculateRangeEquity (spec §4.6).
type RangeEquity struct {
	HeroEquity      float64
	VillainEquity   float64
	EquityDelta     float64
	HeroValuePct    float64
	VillainValuePct float64
	ValueDelta      float64
}

// DefaultRangeEquity is the documented substitute on failure (spec §4.7
// step 3): both equities set to 50, deltas to 0.
func DefaultRangeEquity() RangeEquity {
	return RangeEquity{HeroEquity: 50, VillainEquity: 50}
}

// monteCarloRunouts bounds the sample size used when more than two
// community cards remain to be dealt. Every real call site in this system
// reaches the flop (2 cards left), turn (1 left) or river (0 left); this
// path only exists to keep the function total rather than partial, per
// spec §9's open question about preserving pure-function semantics.
const monteCarloRunouts = 2000

// comboCard is a parsed combo with its source weight.
type comboCard struct {
	c1, c2 cards.Card
	weight float64
}

func parseCombos(r *cards.Range) ([]comboCard, error) {
	if r == nil || len(r.Combos()) == 0 {
		return nil, &EngineError{Kind: EmptyRange, Detail: "range has no combos"}
	}
	out := make([]comboCard, 0, len(r.Combos()))
	for _, combo := range r.Combos() {
		c1, c2, err := cards.ParseHoleCards(combo)
		if err != nil {
			return nil, &EngineError{Kind: InvalidCard, Detail: fmt.Sprintf("range combo %q: %v", combo, err)}
		}
		out = append(out, comboCard{c1: c1, c2: c2, weight: r.Weight(combo)})
	}
	return out, nil
}

func (c comboCard) hand() cards.Hand {
	return cards.NewHand(c.c1, c.c2)
}

func collides(a, b comboCard, board cards.Hand) bool {
	combined := a.hand() | b.hand()
	if combined&board != 0 {
		return true
	}
	return a.hand()&b.hand() != 0
}

// CalculateRangeEquity computes hero (oop) vs villain (ip) range equity on
// the given board (spec §4.6). When the board is incomplete, remaining
// community cards are dealt by exhaustive enumeration (≤2 missing, the
// only cases the pipeline ever produces) or Monte-Carlo sampling
// otherwise, weighted by combo weight on both sides.
func CalculateRangeEquity(oopRange, ipRange *cards.Range, board cards.Hand, rng *rand.Rand) (RangeEquity, error) {
	oopCombos, err := parseCombos(oopRange)
	if err != nil {
		return RangeEquity{}, err
	}
	ipCombos, err := parseCombos(ipRange)
	if err != nil {
		return RangeEquity{}, err
	}

	missing := 5 - board.CountCards()
	if missing < 0 {
		return RangeEquity{}, &EngineError{Kind: InvalidCard, Detail: "board has more than 5 cards"}
	}

	var oopWin, oopTie, totalWeight float64
	var oopValueWeight, ipValueWeight float64

	for _, oop := range oopCombos {
		for _, ip := range ipCombos {
			if collides(oop, ip, board) {
				continue
			}
			pairWeight := oop.weight * ip.weight
			if pairWeight <= 0 {
				continue
			}

			win, tie, err := showdownProbability(oop, ip, board, missing, rng)
			if err != nil {
				return RangeEquity{}, err
			}

			oopWin += win * pairWeight
			oopTie += tie * pairWeight
			totalWeight += pairWeight

			oopArch, err := ClassifyArchetype(oop.hand(), board)
			if err == nil && oopArch.IsValueHand() {
				oopValueWeight += pairWeight
			}
			ipArch, err := ClassifyArchetype(ip.hand(), board)
			if err == nil && ipArch.IsValueHand() {
				ipValueWeight += pairWeight
			}
		}
	}

	if totalWeight == 0 {
		return RangeEquity{}, &EngineError{Kind: InternalNumeric, Detail: "no non-colliding combo pairs between ranges"}
	}

	heroEquity := 100 * (oopWin + oopTie/2) / totalWeight
	villainEquity := 100 - heroEquity
	heroValuePct := 100 * oopValueWeight / totalWeight
	villainValuePct := 100 * ipValueWeight / totalWeight

	return RangeEquity{
		HeroEquity:      heroEquity,
		VillainEquity:   villainEquity,
		EquityDelta:     heroEquity - villainEquity,
		HeroValuePct:    heroValuePct,
		VillainValuePct: villainValuePct,
		ValueDelta:      heroValuePct - villainValuePct,
	}, nil
}

// showdownProbability returns (win, tie) probabilities for oop versus ip
// given the board-completion method appropriate to how many cards remain.
func showdownProbability(oop, ip comboCard, board cards.Hand, missing int, rng *rand.Rand) (win, tie float64, err error) {
	if missing == 0 {
		w, t := compareShowdown(oop, ip, board)
		return w, t, nil
	}

	dead := oop.hand() | ip.hand() | board
	if missing <= 2 {
		return enumerateRunouts(oop, ip, board, dead, missing)
	}
	return monteCarloRunoutsProb(oop, ip, board, dead, missing, rng)
}

func compareShowdown(oop, ip comboCard, board cards.Hand) (win, tie float64) {
	oopRank := cards.Evaluate7Cards(oop.hand() | board)
	ipRank := cards.Evaluate7Cards(ip.hand() | board)
	switch cards.CompareHands(oopRank, ipRank) {
	case 1:
		return 1, 0
	case -1:
		return 0, 0
	default:
		return 0, 1
	}
}

func enumerateRunouts(oop, ip comboCard, board cards.Hand, dead cards.Hand, missing int) (win, tie float64, err error) {
	remaining := remainingCards(dead)
	combos := kCombinations(remaining, missing)
	if len(combos) == 0 {
		return 0, 0, &EngineError{Kind: InternalNumeric, Detail: "no remaining cards to complete the board"}
	}

	var winSum, tieSum float64
	for _, runout := range combos {
		fullBoard := board
		for _, c := range runout {
			fullBoard = fullBoard.AddCard(c)
		}
		w, t := compareShowdown(oop, ip, fullBoard)
		winSum += w
		tieSum += t
	}
	n := float64(len(combos))
	return winSum / n, tieSum / n, nil
}

func monteCarloRunoutsProb(oop, ip comboCard, board cards.Hand, dead cards.Hand, missing int, rng *rand.Rand) (win, tie float64, err error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	remaining := remainingCards(dead)
	if len(remaining) < missing {
		return 0, 0, &EngineError{Kind: InternalNumeric, Detail: "not enough remaining cards for Monte Carlo runout"}
	}

	var winSum, tieSum float64
	for i := 0; i < monteCarloRunouts; i++ {
		perm := make([]cards.Card, len(remaining))
		copy(perm, remaining)
		rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })

		fullBoard := board
		for j := 0; j < missing; j++ {
			fullBoard = fullBoard.AddCard(perm[j])
		}
		w, t := compareShowdown(oop, ip, fullBoard)
		winSum += w
		tieSum += t
	}
	return winSum / monteCarloRunouts, tieSum / monteCarloRunouts, nil
}

func remainingCards(dead cards.Hand) []cards.Card {
	var out []cards.Card
	for i := 0; i < 52; i++ {
		c := cards.Card(i)
		if !dead.HasCard(c) {
			out = append(out, c)
		}
	}
	return out
}

// kCombinations returns all k-length combinations of cs. Bounded use: the
// pipeline only ever calls this with k ∈ {1, 2}.
func kCombinations(cs []cards.Card, k int) [][]cards.Card {
	if k == 0 {
		return [][]cards.Card{{}}
	}
	var out [][]cards.Card
	for i := 0; i <= len(cs)-k; i++ {
		rest := kCombinations(cs[i+1:], k-1)
		for _, r := range rest {
			combo := make([]cards.Card, 0, k)
			combo = append(combo, cs[i])
			combo = append(combo, r...)
			out = append(out, combo)
		}
	}
	return out
}
