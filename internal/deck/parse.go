package deck

import (
	"fmt"
	"strings"
)

// ParseCard parses one card such as "As", "Td" or "10d".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}

	rankPart, suitChar := s[:len(s)-1], s[len(s)-1]
	suit, err := parseSuit(suitChar)
	if err != nil {
		return Card{}, err
	}

	var rank Rank
	if rankPart == "10" {
		rank = Ten
	} else if len(rankPart) == 1 {
		rank, err = parseRank(rankPart[0])
		if err != nil {
			return Card{}, err
		}
	} else {
		return Card{}, fmt.Errorf("invalid rank %q", rankPart)
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// ParseCards parses a string of card notation into a slice of cards.
// Format: "AsKsQsJsTs" where each card is [Rank][Suit]; spaces are ignored.
// Ranks: A, K, Q, J, T, 9, 8, 7, 6, 5, 4, 3, 2
// Suits: s (spades), h (hearts), d (diamonds), c (clubs)
func ParseCards(s string) ([]Card, error) {
	s = strings.ReplaceAll(s, " ", "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid card string length: %d (must be even)", len(s))
	}

	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		rank, err := parseRank(s[i])
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i/2, err)
		}
		suit, err := parseSuit(s[i+1])
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i/2, err)
		}
		cards = append(cards, Card{Rank: rank, Suit: suit})
	}
	return cards, nil
}

// MustParseCards is like ParseCards but panics on error. Intended for tests.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

func parseRank(c byte) (Rank, error) {
	switch c {
	case 'A', 'a':
		return Ace, nil
	case 'K', 'k':
		return King, nil
	case 'Q', 'q':
		return Queen, nil
	case 'J', 'j':
		return Jack, nil
	case 'T', 't':
		return Ten, nil
	}
	if c >= '2' && c <= '9' {
		return Rank(c - '0'), nil
	}
	return 0, fmt.Errorf("invalid rank: %c", c)
}

func parseSuit(c byte) (Suit, error) {
	switch c {
	case 's', 'S':
		return Spades, nil
	case 'h', 'H':
		return Hearts, nil
	case 'd', 'D':
		return Diamonds, nil
	case 'c', 'C':
		return Clubs, nil
	}
	return 0, fmt.Errorf("invalid suit: %c", c)
}
