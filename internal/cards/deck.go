package cards

import "math/rand"

// Deck deals from a shuffled remaining-card order driven by an explicit RNG,
// so simulations stay reproducible across runs.
type Deck struct {
	cards []Card
	next  int
}

// NewDeck returns a freshly shuffled deck, excluding any cards in used.
func NewDeck(rng *rand.Rand, used Hand) *Deck {
	cards := make([]Card, 0, 52-used.CountCards())
	for i := 0; i < 52; i++ {
		c := Card(i)
		if !used.HasCard(c) {
			cards = append(cards, c)
		}
	}
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return &Deck{cards: cards}
}

// DealOne deals the next card. Callers must check CardsRemaining first.
func (d *Deck) DealOne() Card {
	c := d.cards[d.next]
	d.next++
	return c
}

// CardsRemaining returns how many undealt cards are left.
func (d *Deck) CardsRemaining() int {
	return len(d.cards) - d.next
}
