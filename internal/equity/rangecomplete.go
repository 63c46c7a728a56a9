package equity

import (
	"sort"

	"github.com/railbird/solver-enrichment/internal/cards"
)

// StrategyAction is one per-combo frequency entry, supplied only when the
// caller has combo-level solver data (spec §4.6 analyzeRangeComplete).
type StrategyAction struct {
	Action    string
	Frequency float64
	EV        float64
}

// RangeCategory is one archetype bucket within a decomposed range.
type RangeCategory struct {
	Archetype       string
	ComboCount      int
	PercentOfRange  float64
	StrategyActions []StrategyAction
}

// RangeDecomposition groups a range's live combos by archetype.
type RangeDecomposition struct {
	TotalCombos float64
	Categories  []RangeCategory
}

// ComboStrategyData maps a 4-char combo string to its per-combo action
// frequencies, translated by the caller from whatever shard format carries
// it (spec's optional comboData).
type ComboStrategyData map[string][]StrategyAction

// AnalyzeRangeComplete decomposes both hero and villain ranges into
// archetype categories on the given board, attaching strategyActions only
// when comboData supplies per-combo frequencies (spec §4.6).
func AnalyzeRangeComplete(heroRange, villainRange *cards.Range, board cards.Hand, comboData ComboStrategyData) (hero RangeDecomposition, villain RangeDecomposition, err error) {
	hero, err = decomposeRange(heroRange, board, comboData)
	if err != nil {
		return RangeDecomposition{}, RangeDecomposition{}, err
	}
	villain, err = decomposeRange(villainRange, board, comboData)
	if err != nil {
		return RangeDecomposition{}, RangeDecomposition{}, err
	}
	return hero, villain, nil
}

func decomposeRange(r *cards.Range, board cards.Hand, comboData ComboStrategyData) (RangeDecomposition, error) {
	combos, err := parseCombos(r)
	if err != nil {
		return RangeDecomposition{}, err
	}

	type bucket struct {
		count   int
		actions map[string][]StrategyAction
	}
	buckets := map[string]*bucket{}
	var totalLive float64

	for i, cc := range combos {
		if cc.hand()&board != 0 {
			continue
		}
		arch, archErr := ClassifyArchetype(cc.hand(), board)
		if archErr != nil {
			continue
		}
		totalLive += cc.weight

		b, ok := buckets[arch.DisplayName]
		if !ok {
			b = &bucket{actions: map[string][]StrategyAction{}}
			buckets[arch.DisplayName] = b
		}
		b.count++

		comboStr := r.Combos()[i]
		if actions, ok := comboData[comboStr]; ok {
			b.actions[comboStr] = actions
		}
	}

	if totalLive == 0 {
		return RangeDecomposition{}, &EngineError{Kind: EmptyRange, Detail: "range has no live combos on this board"}
	}

	var categories []RangeCategory
	for archName, b := range buckets {
		cat := RangeCategory{
			Archetype:      archName,
			ComboCount:     b.count,
			PercentOfRange: 100 * float64(b.count) / float64(len(combos)),
		}
		if len(b.actions) > 0 {
			cat.StrategyActions = mergeStrategyActions(b.actions)
		}
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].ComboCount != categories[j].ComboCount {
			return categories[i].ComboCount > categories[j].ComboCount
		}
		return categories[i].Archetype < categories[j].Archetype
	})

	return RangeDecomposition{TotalCombos: totalLive, Categories: categories}, nil
}

// mergeStrategyActions averages frequency/EV across combos sharing an
// archetype, keyed by action label, sorted by descending frequency.
func mergeStrategyActions(byCombo map[string][]StrategyAction) []StrategyAction {
	sums := map[string]*StrategyAction{}
	counts := map[string]int{}
	for _, actions := range byCombo {
		for _, a := range actions {
			s, ok := sums[a.Action]
			if !ok {
				s = &StrategyAction{Action: a.Action}
				sums[a.Action] = s
			}
			s.Frequency += a.Frequency
			s.EV += a.EV
			counts[a.Action]++
		}
	}
	var out []StrategyAction
	for action, s := range sums {
		n := float64(counts[action])
		out = append(out, StrategyAction{Action: action, Frequency: s.Frequency / n, EV: s.EV / n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Action < out[j].Action
	})
	return out
}
