package evaluator

import (
	"fmt"
	"strings"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
)

// HandValue is the totally ordered strength of a best five-card hand
type HandValue struct {
	Category Category
	Tiebreak []deck.Rank // deciding ranks, most significant first
	Cards    []deck.Card // the five cards, grouped and ordered by significance
}

// Compare compares two hands and returns:
// -1 if h is weaker than other
//
//	0 if both are equal (split pot)
//	1 if h is stronger than other
func (h HandValue) Compare(other HandValue) int {
	if h.Category != other.Category {
		if h.Category < other.Category {
			return -1
		}
		return 1
	}

	for i := 0; i < len(h.Tiebreak) && i < len(other.Tiebreak); i++ {
		if h.Tiebreak[i] < other.Tiebreak[i] {
			return -1
		}
		if h.Tiebreak[i] > other.Tiebreak[i] {
			return 1
		}
	}
	return 0
}

// Beats returns true if h is strictly stronger than other
func (h HandValue) Beats(other HandValue) bool {
	return h.Compare(other) > 0
}

// String returns e.g. "Full House [K♠ K♥ K♦ 2♣ 2♠]"
func (h HandValue) String() string {
	cardStrs := make([]string, len(h.Cards))
	for i, card := range h.Cards {
		cardStrs[i] = card.String()
	}
	return fmt.Sprintf("%s [%s]", h.Category, strings.Join(cardStrs, " "))
}
