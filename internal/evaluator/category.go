package evaluator

import (
	"fmt"
	"strconv"
	"strings"
)

// Category is the primary ranking of a five-card hand. Higher is stronger.
// The numeric values double as the 0..9 score used by clients that assert
// their hand strength.
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var categoryNames = [...]string{
	"High Card",
	"One Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
	"Royal Flush",
}

// String returns the string representation of a hand category
func (c Category) String() string {
	if !c.Valid() {
		return "Unknown"
	}
	return categoryNames[c]
}

// Valid reports whether c is one of the ten categories
func (c Category) Valid() bool {
	return c >= HighCard && c <= RoyalFlush
}

// ParseCategory accepts a category name ("Full House", "full_house") or its
// numeric score ("6").
func ParseCategory(s string) (Category, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		c := Category(n)
		if !c.Valid() {
			return 0, fmt.Errorf("hand score %d out of range", n)
		}
		return c, nil
	}

	norm := normalize(s)
	for i, name := range categoryNames {
		if normalize(name) == norm {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown hand category %q", s)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}
