package equity

import (
	"sort"

	"github.com/railbird/solver-enrichment/internal/cards"
)

// CardRemoval is one entry in BlockerImpact.CardRemoval: how much of
// villain's range a single hero card removes.
type CardRemoval struct {
	Card      string
	ImpactPct float64
}

// BlockedArchetype is one entry in BlockerImpact.TopBlocked.
type BlockedArchetype struct {
	Archetype  string
	ComboCount int
}

// BlockerImpact is the SolverBlock.blockerImpact structure (spec §3/§4.6).
type BlockerImpact struct {
	CombosBlockedPct   float64
	ValueBlockedPct    float64
	BluffsUnblockedPct float64
	CardRemoval        []CardRemoval
	TopBlocked         []BlockedArchetype
}

// topBlockedLimit caps BlockerImpact.TopBlocked, mirroring the tag
// generator's per-category cap philosophy (spec §4.8) applied to blocker
// reporting.
const topBlockedLimit = 5

// CalculateBlockerImpact computes the percentage of villain's range hero's
// two hole cards remove, split by value/bluff, plus per-card removal and
// the most commonly blocked archetypes (spec §4.6).
func CalculateBlockerImpact(heroHand cards.Hand, villainRange *cards.Range, board cards.Hand) (BlockerImpact, error) {
	villainCombos, err := parseCombos(villainRange)
	if err != nil {
		return BlockerImpact{}, err
	}
	if heroHand.CountCards() != 2 {
		return BlockerImpact{}, &EngineError{Kind: InvalidCard, Detail: "hero hand must contain exactly two cards"}
	}
	heroCards := heroHand.Cards()

	var totalWeight, blockedWeight, valueWeight, blockedValueWeight, bluffWeight, unblockedBluffWeight float64
	archetypeCounts := map[string]int{}
	cardImpactWeight := map[cards.Card]float64{heroCards[0]: 0, heroCards[1]: 0}

	for _, vc := range villainCombos {
		if vc.hand()&board != 0 {
			continue // dead combo, not part of a live range on this board
		}
		totalWeight += vc.weight

		arch, archErr := ClassifyArchetype(vc.hand(), board)
		isValue := archErr == nil && arch.IsValueHand()
		if isValue {
			valueWeight += vc.weight
		} else {
			bluffWeight += vc.weight
		}

		blocked := vc.hand()&heroHand != 0
		if blocked {
			blockedWeight += vc.weight
			if isValue {
				blockedValueWeight += vc.weight
			}
			if archErr == nil {
				archetypeCounts[arch.DisplayName]++
			}
			for _, hc := range heroCards {
				if vc.hand().HasCard(hc) {
					cardImpactWeight[hc] += vc.weight
				}
			}
		} else if !isValue {
			unblockedBluffWeight += vc.weight
		}
	}

	if totalWeight == 0 {
		return BlockerImpact{}, &EngineError{Kind: EmptyRange, Detail: "villain range has no live combos on this board"}
	}

	impact := BlockerImpact{
		CombosBlockedPct: 100 * blockedWeight / totalWeight,
	}
	if valueWeight > 0 {
		impact.ValueBlockedPct = 100 * blockedValueWeight / valueWeight
	}
	if bluffWeight > 0 {
		impact.BluffsUnblockedPct = 100 * unblockedBluffWeight / bluffWeight
	}

	for _, hc := range heroCards {
		impact.CardRemoval = append(impact.CardRemoval, CardRemoval{
			Card:      hc.String(),
			ImpactPct: 100 * cardImpactWeight[hc] / totalWeight,
		})
	}
	sort.Slice(impact.CardRemoval, func(i, j int) bool {
		return impact.CardRemoval[i].ImpactPct > impact.CardRemoval[j].ImpactPct
	})

	for name, count := range archetypeCounts {
		impact.TopBlocked = append(impact.TopBlocked, BlockedArchetype{Archetype: name, ComboCount: count})
	}
	sort.Slice(impact.TopBlocked, func(i, j int) bool {
		if impact.TopBlocked[i].ComboCount != impact.TopBlocked[j].ComboCount {
			return impact.TopBlocked[i].ComboCount > impact.TopBlocked[j].ComboCount
		}
		return impact.TopBlocked[i].Archetype < impact.TopBlocked[j].Archetype
	})
	if len(impact.TopBlocked) > topBlockedLimit {
		impact.TopBlocked = impact.TopBlocked[:topBlockedLimit]
	}

	return impact, nil
}
