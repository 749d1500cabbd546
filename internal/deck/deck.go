package deck

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
)

// ErrDeckExhausted is returned when more cards are requested than remain.
var ErrDeckExhausted = errors.New("deck exhausted")

// Size is the number of cards in a standard deck
const Size = 52

// Deck is an ordered sequence of cards dealt from the front without replacement.
// A deck lives for exactly one round.
type Deck struct {
	cards []Card
}

// Standard returns the 52 cards in a fixed order
func Standard() []Card {
	cards := make([]Card, 0, Size)
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// NewShuffled returns a deck holding a uniformly random permutation of all 52 cards
func NewShuffled(rng *rand.Rand) *Deck {
	cards := Standard()
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// NewStacked returns a deck that deals the given cards in order. Used to set up
// known boards; duplicate or invalid cards are rejected.
func NewStacked(cards ...Card) (*Deck, error) {
	seen := make(map[Card]bool, len(cards))
	for _, c := range cards {
		if !c.Valid() {
			return nil, fmt.Errorf("invalid card %v", c)
		}
		if seen[c] {
			return nil, fmt.Errorf("duplicate card %s", c.Code())
		}
		seen[c] = true
	}
	return &Deck{cards: append([]Card(nil), cards...)}, nil
}

// Draw removes and returns the next n cards. The deck is left untouched when
// fewer than n cards remain.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("draw %d: negative count", n)
	}
	if n > len(d.cards) {
		return nil, fmt.Errorf("draw %d with %d remaining: %w", n, len(d.cards), ErrDeckExhausted)
	}

	drawn := make([]Card, n)
	copy(drawn, d.cards[:n])
	d.cards = d.cards[n:]
	return drawn, nil
}

// Remaining returns the number of undealt cards
func (d *Deck) Remaining() int {
	return len(d.cards)
}
