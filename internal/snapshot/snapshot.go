// Package snapshot replays a played hand into the ordered list of
// per-decision-point Snapshots that downstream enrichment consumes (spec
// C3). Grounded on the teacher's HandHistory/HandAction record shapes,
// generalized from a "log of everything" into "one record per hero
// decision that reached the flop or later".
package snapshot

import (
	"fmt"

	"github.com/railbird/solver-enrichment/internal/actions"
	"github.com/railbird/solver-enrichment/internal/cards"
	"github.com/railbird/solver-enrichment/internal/features"
)

// Side is which of the two postflop actors a decision belongs to.
type Side string

const (
	OOP Side = "oop"
	IP  Side = "ip"
)

// Positions names the seat occupying each postflop side.
type Positions struct {
	OOP features.Seat
	IP  features.Seat
}

// DecisionPoint captures the hero's chosen action at a snapshot.
type DecisionPoint struct {
	HeroAction actions.Action
}

// Snapshot is a single hero decision point, read-only once constructed
// (spec §3 Snapshot; Lifecycles).
type Snapshot struct {
	Street               features.Street
	Board                []cards.Card
	PotBB                float64
	HeroStackBB          float64
	Positions            Positions
	NextToAct            Side
	ActionHistory        []actions.Action
	StreetActionsHistory map[features.Street][]actions.Action
	HeroCards            [2]cards.Card
	DecisionPoint        DecisionPoint
	GameType             string
	PotType              features.PotType
}

// BoardHand returns the snapshot's board as a bitmask Hand for use by
// boardtex/equity analysis.
func (s Snapshot) BoardHand() cards.Hand {
	return cards.NewHand(s.Board...)
}

// HeroHand returns the snapshot's hero hole cards as a bitmask Hand.
func (s Snapshot) HeroHand() cards.Hand {
	return cards.NewHand(s.HeroCards[0], s.HeroCards[1])
}

// StreetAction is one recorded action on a street, tagged with who acted.
type StreetAction struct {
	Side   Side
	Action actions.Action
}

// HandRecord is the parsed-hand input to the generator (spec §4.3's
// "parsed hand with per-street action lists, hero seat, stacks, board,
// cards, blinds"). Upstream hand parsing is out of scope; this is the
// boundary contract the core requires.
type HandRecord struct {
	GameType    string
	Blinds      struct{ SmallBB, BigBB float64 }
	HeroSide    Side
	HeroCards   [2]cards.Card
	Positions   Positions
	StartStack  float64 // hero's stack in BB at hand start
	PreflopPot  float64 // pot in BB once preflop betting closes
	Board       []cards.Card
	PotType     features.PotType
	StreetActions map[features.Street][]StreetAction
}

// NoFlopError reports that a hand terminated before reaching the flop, per
// spec §4.3 ("the pipeline yields an empty snapshot list").
type NoFlopError struct {
	GameType string
}

func (e *NoFlopError) Error() string {
	return fmt.Sprintf("snapshot: hand of type %q terminated before flop, no snapshots produced", e.GameType)
}

// Generator replays a HandRecord into ordered Snapshots.
type Generator struct{}

// NewGenerator constructs a snapshot Generator. The generator is stateless;
// Generate is a pure function of its input.
func NewGenerator() *Generator {
	return &Generator{}
}

var postflopStreets = []features.Street{features.Flop, features.Turn, features.River}

// Generate replays the hand into the ordered list of Snapshots, one per
// hero decision point that reached flop or later (spec §4.3). PREFLOP
// decisions never produce a snapshot. When no board was dealt (the hand
// ended preflop), Generate returns a NoFlopError. When a flop was dealt
// but hero never acts postflop, the result is an empty slice and no error.
func (g *Generator) Generate(hand HandRecord) ([]Snapshot, error) {
	if len(hand.Board) == 0 {
		return nil, &NoFlopError{GameType: hand.GameType}
	}

	var out []Snapshot
	pot := hand.PreflopPot
	running := map[features.Street][]actions.Action{}

	for _, street := range postflopStreets {
		streetActs := hand.StreetActions[street]
		boardForStreet := boardThroughStreet(hand.Board, street)

		var prefix []actions.Action
		var heroDecision *actions.Action
		var heroSide Side
		for _, sa := range streetActs {
			if sa.Side == hand.HeroSide && heroDecision == nil {
				a := sa.Action
				heroDecision = &a
				heroSide = sa.Side
				break
			}
			prefix = append(prefix, sa.Action)
		}

		if heroDecision == nil {
			// Hero never acted on this street (folded earlier, or street
			// wasn't reached); still record the full street history for
			// the consolidator's sake, but emit no snapshot.
			running[street] = actionsOnly(streetActs)
			continue
		}

		history := make(map[features.Street][]actions.Action, len(running)+1)
		for k, v := range running {
			history[k] = v
		}
		history[street] = actionsOnly(streetActs)

		nextToAct := heroSide

		out = append(out, Snapshot{
			Street:               street,
			Board:                boardForStreet,
			PotBB:                pot,
			HeroStackBB:          hand.StartStack,
			Positions:            hand.Positions,
			NextToAct:            nextToAct,
			ActionHistory:        prefix,
			StreetActionsHistory: history,
			HeroCards:            hand.HeroCards,
			DecisionPoint:        DecisionPoint{HeroAction: *heroDecision},
			GameType:             hand.GameType,
			PotType:              hand.PotType,
		})

		running[street] = actionsOnly(streetActs)
	}

	return out, nil
}

func actionsOnly(sas []StreetAction) []actions.Action {
	out := make([]actions.Action, len(sas))
	for i, sa := range sas {
		out[i] = sa.Action
	}
	return out
}

// boardThroughStreet slices the final board down to the cards visible as
// of the given street (3 for FLOP, 4 for TURN, 5 for RIVER).
func boardThroughStreet(board []cards.Card, street features.Street) []cards.Card {
	var n int
	switch street {
	case features.Flop:
		n = 3
	case features.Turn:
		n = 4
	case features.River:
		n = 5
	default:
		n = 0
	}
	if n > len(board) {
		n = len(board)
	}
	out := make([]cards.Card, n)
	copy(out, board[:n])
	return out
}
