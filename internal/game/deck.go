package game

import "math/rand"

// Deck owns the draw and discard piles of one session. The top of the draw
// pile is the end of the slice.
type Deck struct {
	DrawPile    []Card
	DiscardPile []Card
}

func newDeck(cards []Card, rng *rand.Rand) Deck {
	pile := make([]Card, len(cards))
	copy(pile, cards)
	shuffleCards(pile, rng)
	return Deck{DrawPile: pile}
}

func shuffleCards(cards []Card, rng *rand.Rand) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// Empty reports whether neither pile has a card left.
func (d *Deck) Empty() bool {
	return len(d.DrawPile) == 0 && len(d.DiscardPile) == 0
}

// Draw pops the top card, first turning a shuffled discard pile into the
// draw pile when the draw pile is exhausted. ok is false only when both
// piles are empty.
func (d *Deck) Draw(rng *rand.Rand) (card Card, reshuffled bool, ok bool) {
	if len(d.DrawPile) == 0 {
		if len(d.DiscardPile) == 0 {
			return nil, false, false
		}
		d.DrawPile = d.DiscardPile
		d.DiscardPile = nil
		shuffleCards(d.DrawPile, rng)
		reshuffled = true
	}
	last := len(d.DrawPile) - 1
	card = d.DrawPile[last]
	d.DrawPile = d.DrawPile[:last]
	return card, reshuffled, true
}

// DrawN draws up to n cards and stops early when the deck runs dry.
func (d *Deck) DrawN(n int, rng *rand.Rand) []Card {
	out := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		c, _, ok := d.Draw(rng)
		if !ok {
			break
		}
		out = append(out, c)
	}
	return out
}

func (d *Deck) Discard(c Card) {
	d.DiscardPile = append(d.DiscardPile, c)
}

func (d *Deck) Size() int {
	return len(d.DrawPile) + len(d.DiscardPile)
}
