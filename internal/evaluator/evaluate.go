package evaluator

import (
	"fmt"
	"sort"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
)

// BestHand returns the strongest five-card hand that can be made from 5 to 7
// cards. Every five-card subset is scored, 21 of them for seven cards.
func BestHand(cards []deck.Card) (HandValue, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return HandValue{}, fmt.Errorf("best hand needs 5 to 7 cards, got %d", len(cards))
	}

	seen := make(map[deck.Card]bool, len(cards))
	for _, c := range cards {
		if !c.Valid() {
			return HandValue{}, fmt.Errorf("invalid card %v", c)
		}
		if seen[c] {
			return HandValue{}, fmt.Errorf("duplicate card %s", c.Code())
		}
		seen[c] = true
	}

	var best HandValue
	found := false
	n := len(cards)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						v := Evaluate5([5]deck.Card{cards[a], cards[b], cards[c], cards[d], cards[e]})
						if !found || v.Beats(best) {
							best, found = v, true
						}
					}
				}
			}
		}
	}
	return best, nil
}

// MustBestHand is like BestHand but panics on invalid input. Intended for tests.
func MustBestHand(cards []deck.Card) HandValue {
	v, err := BestHand(cards)
	if err != nil {
		panic(err)
	}
	return v
}

// rankGroup is a run of cards sharing one rank
type rankGroup struct {
	rank  deck.Rank
	cards []deck.Card
}

// Evaluate5 scores exactly five cards
func Evaluate5(hand [5]deck.Card) HandValue {
	sorted := make([]deck.Card, 5)
	copy(sorted, hand[:])
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank > sorted[j].Rank })

	flush := true
	for _, c := range sorted[1:] {
		if c.Suit != sorted[0].Suit {
			flush = false
			break
		}
	}

	groups := groupByRank(sorted)
	straightHigh, straight := straightHighCard(groups)

	switch {
	case straight && flush:
		ordered := straightOrder(sorted, straightHigh)
		if straightHigh == deck.Ace {
			return HandValue{Category: RoyalFlush, Tiebreak: []deck.Rank{deck.Ace}, Cards: ordered}
		}
		return HandValue{Category: StraightFlush, Tiebreak: []deck.Rank{straightHigh}, Cards: ordered}
	case len(groups[0].cards) == 4:
		return fromGroups(FourOfAKind, groups)
	case len(groups[0].cards) == 3 && len(groups[1].cards) == 2:
		return fromGroups(FullHouse, groups)
	case flush:
		return fromGroups(Flush, groups)
	case straight:
		return HandValue{Category: Straight, Tiebreak: []deck.Rank{straightHigh}, Cards: straightOrder(sorted, straightHigh)}
	case len(groups[0].cards) == 3:
		return fromGroups(ThreeOfAKind, groups)
	case len(groups[0].cards) == 2 && len(groups[1].cards) == 2:
		return fromGroups(TwoPair, groups)
	case len(groups[0].cards) == 2:
		return fromGroups(OnePair, groups)
	default:
		return fromGroups(HighCard, groups)
	}
}

// groupByRank groups rank-descending cards, largest group first and higher
// rank first within equal sizes.
func groupByRank(sorted []deck.Card) []rankGroup {
	var groups []rankGroup
	for _, c := range sorted {
		if n := len(groups); n > 0 && groups[n-1].rank == c.Rank {
			groups[n-1].cards = append(groups[n-1].cards, c)
			continue
		}
		groups = append(groups, rankGroup{rank: c.Rank, cards: []deck.Card{c}})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i].cards) != len(groups[j].cards) {
			return len(groups[i].cards) > len(groups[j].cards)
		}
		return groups[i].rank > groups[j].rank
	})
	return groups
}

// straightHighCard reports whether five distinct ranks form a straight and
// returns its high card. The wheel A-2-3-4-5 is five-high.
func straightHighCard(groups []rankGroup) (deck.Rank, bool) {
	if len(groups) != 5 {
		return 0, false
	}
	// all singletons, so already rank-descending
	high, low := groups[0].rank, groups[4].rank
	if high-low == 4 {
		return high, true
	}
	if high == deck.Ace && groups[1].rank == deck.Five && low == deck.Two {
		return deck.Five, true
	}
	return 0, false
}

// straightOrder orders a straight from its high card down, moving a wheel ace
// to the bottom.
func straightOrder(sorted []deck.Card, high deck.Rank) []deck.Card {
	ordered := make([]deck.Card, 0, 5)
	if high == deck.Five && sorted[0].Rank == deck.Ace {
		ordered = append(ordered, sorted[1:]...)
		return append(ordered, sorted[0])
	}
	return append(ordered, sorted...)
}

func fromGroups(category Category, groups []rankGroup) HandValue {
	v := HandValue{Category: category}
	for _, g := range groups {
		v.Tiebreak = append(v.Tiebreak, g.rank)
		v.Cards = append(v.Cards, g.cards...)
	}
	return v
}
