// Package tags emits prioritized, per-category strategic tags from a
// SolverBlock (spec C8). Grounded on the teacher's
// internal/bot/situation_recognition.go: a stateless, ordered rule list
// where each rule's Condition gates a contribution, evaluated
// highest-priority first.
package tags

import (
	"fmt"
	"sort"
	"strings"

	"github.com/railbird/solver-enrichment/internal/actions"
	"github.com/railbird/solver-enrichment/internal/equity"
	"github.com/railbird/solver-enrichment/internal/snapshot"
	"github.com/railbird/solver-enrichment/internal/solverblock"
)

// Category names the tag families a rule contributes to.
type Category string

const (
	CategoryAction         Category = "ACTION"
	CategoryPosition       Category = "POSITION"
	CategoryHandType       Category = "HAND:TYPE"
	CategoryHandDraw       Category = "HAND:DRAW"
	CategoryBoardTexture   Category = "BOARD:TEXTURE"
	CategoryRangeAdvantage Category = "RANGE:ADVANTAGE"
	CategoryStratGoal      Category = "STRAT:GOAL"
	CategoryMixedStrategy  Category = "MIXED:STRATEGY"
	CategoryBluffTurn      Category = "BLUFF:TURN"
)

// Priority selects how aggressively the category set is trimmed.
type Priority string

const (
	Concise  Priority = "concise"
	Balanced Priority = "balanced"
	Verbose  Priority = "verbose"
)

// conciseCategories is the fixed set kept under Priority=concise (spec §4.8).
var conciseCategories = map[Category]bool{
	CategoryAction:         true,
	CategoryHandType:       true,
	CategoryRangeAdvantage: true,
	CategoryStratGoal:      true,
}

// Config controls cap and priority mode (spec §6 tag.* configuration keys).
type Config struct {
	Priority            Priority
	MaxTagsPerCategory  int
}

// DefaultConfig mirrors the documented defaults: balanced priority, 5 tags
// per category.
func DefaultConfig() Config {
	return Config{Priority: Balanced, MaxTagsPerCategory: 5}
}

// Context is the SolverBlock plus the snapshot-level facts a rule may need
// that don't live on the block itself (pot odds when facing a bet).
type Context struct {
	Block       solverblock.SolverBlock
	Snapshot    snapshot.Snapshot
	FacingBet   bool
	PotOdds     float64 // amount to call / (pot after call); 0 when not FacingBet
}

// Rule is one fundamental tagging concept: a condition gate and an emit
// function producing zero or more fully-formed tag strings.
type Rule struct {
	Name      string
	Category  Category
	Priority  int
	Condition func(Context) bool
	Emit      func(Context) []string
}

// Generator evaluates an ordered rule list against a Context (spec §4.8).
type Generator struct {
	rules []Rule
}

// NewGenerator builds a Generator with the fundamental tagging rules.
func NewGenerator() *Generator {
	return &Generator{rules: defaultRules()}
}

// Generate produces the deduplicated, capped, priority-ordered tag list.
func (g *Generator) Generate(ctx Context, cfg Config) []string {
	ordered := make([]Rule, len(g.rules))
	copy(ordered, g.rules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })

	result := make([]string, 0, 16)
	seen := make(map[string]bool)
	counts := make(map[Category]int)

	for _, rule := range ordered {
		if cfg.Priority == Concise && !conciseCategories[rule.Category] {
			continue
		}
		if !rule.Condition(ctx) {
			continue
		}
		for _, tag := range rule.Emit(ctx) {
			if seen[tag] {
				continue
			}
			if cfg.Priority != Verbose && counts[rule.Category] >= cfg.MaxTagsPerCategory {
				break
			}
			seen[tag] = true
			counts[rule.Category]++
			result = append(result, tag)
		}
	}
	return result
}

func bracket(category Category, value string) string {
	return fmt.Sprintf("[%s:%s]", category, shout(value))
}

func shout(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ToUpper(s)
}

func hasHandFeatures(ctx Context) bool { return ctx.Block.HandFeatures != nil }

func countAboveThreshold(freqs []float64, threshold float64) int {
	n := 0
	for _, f := range freqs {
		if f > threshold {
			n++
		}
	}
	return n
}

func isValueHeavy(decomp *equity.RangeDecomposition) bool {
	if decomp == nil || decomp.TotalCombos == 0 {
		return false
	}
	var valuePct float64
	for _, cat := range decomp.Categories {
		lower := strings.ToLower(cat.Archetype)
		if strings.Contains(lower, "twopair") || strings.Contains(lower, "trips") ||
			strings.Contains(lower, "straight") || strings.Contains(lower, "flush") ||
			strings.Contains(lower, "fullhouse") || strings.Contains(lower, "quads") ||
			strings.Contains(lower, "overpair") || strings.Contains(lower, "toppair") {
			valuePct += cat.PercentOfRange
		}
	}
	return valuePct >= 50
}

func heroStrategyMixesFold(block solverblock.SolverBlock) bool {
	for _, a := range block.OptimalStrategy.ActionFrequencies {
		if a.ActionType == actions.Fold.String() && a.Frequency > 0 {
			return true
		}
	}
	return false
}

func defaultRules() []Rule {
	return []Rule{
		{
			Name:     "Recommended action",
			Category: CategoryAction,
			Priority: 100,
			Condition: func(ctx Context) bool {
				return ctx.Block.OptimalStrategy.RecommendedAction.ActionType != ""
			},
			Emit: func(ctx Context) []string {
				rec := ctx.Block.OptimalStrategy.RecommendedAction
				tags := []string{bracket(CategoryAction, rec.ActionType)}
				if rec.Sizing != nil {
					tags = append(tags, bracket(CategoryAction, "SIZE_"+string(rec.Sizing.Category)))
				}
				return tags
			},
		},
		{
			Name:     "Hero position",
			Category: CategoryPosition,
			Priority: 98,
			Condition: func(ctx Context) bool { return ctx.Snapshot.NextToAct != "" },
			Emit: func(ctx Context) []string {
				return []string{bracket(CategoryPosition, string(ctx.Snapshot.NextToAct))}
			},
		},
		{
			Name:      "Hand made tier",
			Category:  CategoryHandType,
			Priority:  95,
			Condition: hasHandFeatures,
			Emit: func(ctx Context) []string {
				arch := ctx.Block.HandFeatures.Archetype
				tags := []string{bracket(CategoryHandType, arch.MadeTier.String())}
				if arch.MadeTier == equity.Pair && arch.PairSubtype != 0 {
					tags = append(tags, bracket(CategoryHandType, arch.PairSubtype.String()))
				}
				return tags
			},
		},
		{
			Name:     "Draw flags",
			Category: CategoryHandDraw,
			Priority: 90,
			Condition: func(ctx Context) bool {
				return hasHandFeatures(ctx) && len(ctx.Block.HandFeatures.Archetype.DrawFlags) > 0
			},
			Emit: func(ctx Context) []string {
				flags := ctx.Block.HandFeatures.Archetype.DrawFlags
				tags := make([]string, 0, len(flags))
				for _, f := range flags {
					tags = append(tags, bracket(CategoryHandDraw, string(f)))
				}
				return tags
			},
		},
		{
			Name:     "Range equity advantage",
			Category: CategoryRangeAdvantage,
			Priority: 85,
			Condition: func(ctx Context) bool { return !ctx.Block.Unreliable },
			Emit: func(ctx Context) []string {
				delta := ctx.Block.RangeAdvantage.EquityDelta
				switch {
				case delta >= 5:
					return []string{bracket(CategoryRangeAdvantage, "hero")}
				case delta <= -5:
					return []string{bracket(CategoryRangeAdvantage, "villain")}
				default:
					return []string{bracket(CategoryRangeAdvantage, "neutral")}
				}
			},
		},
		{
			Name:     "Range value advantage",
			Category: CategoryRangeAdvantage,
			Priority: 80,
			Condition: func(ctx Context) bool {
				return !ctx.Block.Unreliable && (ctx.Block.RangeAdvantage.ValueDelta >= 10 || ctx.Block.RangeAdvantage.ValueDelta <= -10)
			},
			Emit: func(ctx Context) []string {
				if ctx.Block.RangeAdvantage.ValueDelta >= 10 {
					return []string{bracket(CategoryRangeAdvantage, "value_hero")}
				}
				return []string{bracket(CategoryRangeAdvantage, "value_villain")}
			},
		},
		{
			Name:      "Board texture",
			Category:  CategoryBoardTexture,
			Priority:  75,
			Condition: func(ctx Context) bool { return len(ctx.Block.BoardAnalysis.TextureTags) > 0 },
			Emit: func(ctx Context) []string {
				tags := make([]string, 0, len(ctx.Block.BoardAnalysis.TextureTags))
				for _, t := range ctx.Block.BoardAnalysis.TextureTags {
					tags = append(tags, bracket(CategoryBoardTexture, t))
				}
				return tags
			},
		},
		{
			Name:     "Value betting goal",
			Category: CategoryStratGoal,
			Priority: 70,
			Condition: func(ctx Context) bool {
				if !hasHandFeatures(ctx) {
					return false
				}
				actionType := ctx.Block.OptimalStrategy.RecommendedAction.ActionType
				return ctx.Block.HandFeatures.Archetype.IsValueHand() &&
					(actionType == actions.Bet.String() || actionType == actions.Raise.String())
			},
			Emit: func(ctx Context) []string { return []string{bracket(CategoryStratGoal, "value_bet")} },
		},
		{
			Name:     "Pot control goal",
			Category: CategoryStratGoal,
			Priority: 65,
			Condition: func(ctx Context) bool {
				return hasHandFeatures(ctx) &&
					ctx.Block.OptimalStrategy.RecommendedAction.ActionType == actions.Check.String() &&
					!ctx.Block.HandFeatures.Archetype.IsValueHand()
			},
			Emit: func(ctx Context) []string { return []string{bracket(CategoryStratGoal, "pot_control")} },
		},
		{
			Name:     "Semi-bluff goal",
			Category: CategoryStratGoal,
			Priority: 60,
			Condition: func(ctx Context) bool {
				if !hasHandFeatures(ctx) {
					return false
				}
				actionType := ctx.Block.OptimalStrategy.RecommendedAction.ActionType
				isAggro := actionType == actions.Bet.String() || actionType == actions.Raise.String()
				return isAggro && !ctx.Block.HandFeatures.Archetype.IsValueHand() &&
					len(ctx.Block.HandFeatures.Archetype.DrawFlags) > 0
			},
			Emit: func(ctx Context) []string { return []string{bracket(CategoryStratGoal, "semi_bluff")} },
		},
		{
			Name:     "Pure bluff goal",
			Category: CategoryStratGoal,
			Priority: 59,
			Condition: func(ctx Context) bool {
				if !hasHandFeatures(ctx) {
					return false
				}
				actionType := ctx.Block.OptimalStrategy.RecommendedAction.ActionType
				isAggro := actionType == actions.Bet.String() || actionType == actions.Raise.String()
				return isAggro && !ctx.Block.HandFeatures.Archetype.IsValueHand() &&
					len(ctx.Block.HandFeatures.Archetype.DrawFlags) == 0
			},
			Emit: func(ctx Context) []string { return []string{bracket(CategoryStratGoal, "bluff")} },
		},
		{
			Name:     "Mixed strategy",
			Category: CategoryMixedStrategy,
			Priority: 55,
			Condition: func(ctx Context) bool {
				nodeFreqs := make([]float64, 0, len(ctx.Block.OptimalStrategy.ActionFrequencies))
				for _, a := range ctx.Block.OptimalStrategy.ActionFrequencies {
					nodeFreqs = append(nodeFreqs, a.Frequency)
				}
				mixedNode := countAboveThreshold(nodeFreqs, 0.20) >= 2

				mixedCombo := false
				if ctx.Block.ComboStrategy != nil {
					comboFreqs := make([]float64, 0, len(ctx.Block.ComboStrategy.TopActions))
					for _, a := range ctx.Block.ComboStrategy.TopActions {
						comboFreqs = append(comboFreqs, a.Frequency)
					}
					mixedCombo = countAboveThreshold(comboFreqs, 0.10) >= 2
				}
				return mixedNode || mixedCombo
			},
			Emit: func(ctx Context) []string { return []string{"[MIXED:STRATEGY]"} },
		},
		{
			Name:     "Turning a hand into a bluff",
			Category: CategoryBluffTurn,
			Priority: 50,
			Condition: func(ctx Context) bool {
				if !hasHandFeatures(ctx) {
					return false
				}
				weak := !ctx.Block.HandFeatures.Archetype.IsValueHand()

				sizing := ctx.Block.OptimalStrategy.RecommendedAction.Sizing
				bigSizing := sizing != nil &&
					(sizing.Category == actions.Large || sizing.Category == actions.Overbet || sizing.Category == actions.MassiveOverbet)

				rangeDisadvantage := !ctx.Block.Unreliable && ctx.Block.RangeAdvantage.EquityDelta <= -5
				villainValueHeavy := isValueHeavy(ctx.Block.VillainRange)
				mixesFold := heroStrategyMixesFold(ctx.Block)

				return weak && bigSizing && (rangeDisadvantage || villainValueHeavy || mixesFold)
			},
			Emit: func(ctx Context) []string { return []string{"[BLUFF:TURN]"} },
		},
	}
}
