package deck

import "fmt"

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// String returns the symbol for a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// Letter returns the single ASCII letter used on the wire (s, h, d, c)
func (s Suit) Letter() byte {
	switch s {
	case Spades:
		return 's'
	case Hearts:
		return 'h'
	case Diamonds:
		return 'd'
	case Clubs:
		return 'c'
	default:
		return '?'
	}
}

// Name returns the long name of the suit, e.g. "Spades"
func (s Suit) Name() string {
	return [...]string{"Spades", "Hearts", "Diamonds", "Clubs"}[s]
}

// Rank represents a card rank. Aces are high.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the single character for a rank
func (r Rank) String() string {
	if r < Two || r > Ace {
		return "?"
	}
	return string("23456789TJQKA"[r-Two])
}

// Name returns the long name of the rank, e.g. "Queen" or "10"
func (r Rank) Name() string {
	switch r {
	case Ten:
		return "10"
	case Jack:
		return "Jack"
	case Queen:
		return "Queen"
	case King:
		return "King"
	case Ace:
		return "Ace"
	default:
		return r.String()
	}
}

// Card is an immutable playing card value
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the display form of a card (e.g., "A♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Code returns the ASCII notation of a card (e.g., "As")
func (c Card) Code() string {
	return c.Rank.String() + string(c.Suit.Letter())
}

// Name returns the long form, e.g. "Ace of Spades"
func (c Card) Name() string {
	return c.Rank.Name() + " of " + c.Suit.Name()
}

// Valid reports whether the card is one of the 52 standard cards
func (c Card) Valid() bool {
	return c.Rank >= Two && c.Rank <= Ace && c.Suit >= Spades && c.Suit <= Clubs
}

// MarshalText encodes the card in ASCII notation so it reads naturally in JSON
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card rank=%d suit=%d", c.Rank, c.Suit)
	}
	return []byte(c.Code()), nil
}

// UnmarshalText parses a single card in ASCII notation
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
