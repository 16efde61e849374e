package engine

import "math/rand"

// Deck is a draw-without-replacement pile with a discard pile. Drawing past
// the end reshuffles the discard back in; total card count is conserved
// across any sequence of draws, discards, and reshuffles.
type Deck struct {
	draw    []string
	discard []string
	rng     *rand.Rand
}

// NewDeck shuffles cards into a fresh draw pile.
func NewDeck(cards []string, rng *rand.Rand) *Deck {
	d := &Deck{draw: make([]string, len(cards)), rng: rng}
	copy(d.draw, cards)
	rng.Shuffle(len(d.draw), func(i, j int) {
		d.draw[i], d.draw[j] = d.draw[j], d.draw[i]
	})
	return d
}

// Draw removes and returns k cards, reshuffling the discard pile into the
// draw pile if it runs short. ErrDeckExhausted fires only when both piles
// together hold fewer than k cards.
func (d *Deck) Draw(k int) ([]string, error) {
	if len(d.draw)+len(d.discard) < k {
		return nil, ErrDeckExhausted
	}
	if len(d.draw) < k {
		d.draw = append(d.draw, d.discard...)
		d.discard = nil
		d.rng.Shuffle(len(d.draw), func(i, j int) {
			d.draw[i], d.draw[j] = d.draw[j], d.draw[i]
		})
	}
	out := make([]string, k)
	copy(out, d.draw[:k])
	d.draw = d.draw[k:]
	return out, nil
}

// Discard places cards on the discard pile.
func (d *Deck) Discard(cards ...string) {
	d.discard = append(d.discard, cards...)
}

// Counts reports the sizes of the draw and discard piles.
func (d *Deck) Counts() (draw, discard int) {
	return len(d.draw), len(d.discard)
}
