package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/randutil"
)

func ranks(s string) []deck.Rank {
	out := make([]deck.Rank, 0, len(s))
	for _, c := range deck.MustParseCards(addSuits(s)) {
		out = append(out, c.Rank)
	}
	return out
}

// addSuits turns "AK5" into "AsKs5s" so rank lists can reuse the card parser
func addSuits(s string) string {
	out := make([]byte, 0, len(s)*2)
	for i := 0; i < len(s); i++ {
		out = append(out, s[i], 's')
	}
	return string(out)
}

func TestBestHand(t *testing.T) {
	tests := []struct {
		name     string
		cards    string
		category Category
		tiebreak string
	}{
		{"royal flush", "AsKsQsJsTs2h3d", RoyalFlush, "A"},
		{"straight flush", "9s8s7s6s5s4h3h", StraightFlush, "9"},
		{"steel wheel is a five-high straight flush", "Ah2h3h4h5hKdKc", StraightFlush, "5"},
		{"four of a kind", "AsAhAdAcKs2h3h", FourOfAKind, "AK"},
		{"full house", "KsKhKd2c2s9h3d", FullHouse, "K2"},
		{"two sets make a full house", "KsKhKd2c2s2h3d", FullHouse, "K2"},
		{"flush", "AhJh9h6h2hKsQd", Flush, "AJ962"},
		{"six card flush keeps top five", "AhJh9h6h3h2hKs", Flush, "AJ963"},
		{"flush beats straight", "2h3h4h5s6c9hKh", Flush, "K9432"},
		{"straight", "9s8h7d6c5sAhKd", Straight, "9"},
		{"broadway", "AcKdQhJsTc2d3h", Straight, "A"},
		{"wheel", "Ac2d3h4s5cKhQd", Straight, "5"},
		{"longest run wins", "2c3d4h5s6c7hAd", Straight, "7"},
		{"three of a kind", "7s7h7dAcKd2h4c", ThreeOfAKind, "7AK"},
		{"two pair uses best kicker", "AsAhKsKh5d5c2d", TwoPair, "AK5"},
		{"one pair", "QsQhAd9c7h4s2d", OnePair, "QA97"},
		{"high card", "AsJh9d7c5h4s2d", HighCard, "AJ975"},
		{"five cards", "AsJh9d7c5h", HighCard, "AJ975"},
		{"six cards", "AsJh9d7c5hJd", OnePair, "JA97"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := BestHand(deck.MustParseCards(tt.cards))
			require.NoError(t, err)
			assert.Equal(t, tt.category, v.Category, v.String())
			assert.Equal(t, ranks(tt.tiebreak), v.Tiebreak)
			assert.Len(t, v.Cards, 5)
		})
	}
}

func TestBestHandRejectsBadInput(t *testing.T) {
	for _, cards := range []string{"", "AsKsQsJs", "AsKsQsJsTs9s8s7s", "AsAsQsJsTs"} {
		_, err := BestHand(deck.MustParseCards(cards))
		assert.Error(t, err, cards)
	}
	_, err := BestHand([]deck.Card{{}, {}, {}, {}, {}})
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"wheel is the lowest straight", "Ac2d3h4s5c", "2c3d4h5s6c", -1},
		{"broadway beats king high straight", "AcKdQhJsTc", "KdQhJsTc9c", 1},
		{"flush beats straight", "2h5h7h9hJh", "AcKdQhJsTc", 1},
		{"full house beats flush", "2c2d2h3s3c", "AhKhQhJh9h", 1},
		{"quads beat full house", "2c2d2h2s3c", "AcAdAhKsKc", 1},
		{"royal beats straight flush", "AsKsQsJsTs", "KhQhJhTh9h", 1},
		{"straight flush beats quads", "5h4h3h2hAh", "AcAdAhAsKc", 1},
		{"pair kicker decides", "AsAhKd7c2h", "AcAdQh7s2d", 1},
		{"second kicker decides", "AsAhKd8c2h", "AcAdKh7s2d", -1},
		{"two pair low pair decides", "AsAh9d9c2h", "AcAd8h8s2d", 1},
		{"two pair kicker decides", "AsAh9d9c3h", "AcAd9h9s2d", 1},
		{"full house trips before pair", "3s3h3d2c2h", "2s2c2dAcAh", 1},
		{"flush compares every card", "AhJh9h6h3h", "AdJd9d6d2d", 1},
		{"identical ranks split", "AhKd9c7s2h", "AsKc9d7h2c", 0},
		{"same straight splits", "9s8h7d6c5s", "9h8d7c6s5h", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := MustBestHand(deck.MustParseCards(tt.a))
			b := MustBestHand(deck.MustParseCards(tt.b))
			assert.Equal(t, tt.want, a.Compare(b))
			assert.Equal(t, -tt.want, b.Compare(a))
		})
	}
}

func TestBestHandOrderInvariant(t *testing.T) {
	rng := randutil.New(99)
	for i := 0; i < 500; i++ {
		cards, err := deck.NewShuffled(rng).Draw(7)
		require.NoError(t, err)

		want := MustBestHand(cards)
		shuffled := append([]deck.Card(nil), cards...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := MustBestHand(shuffled)

		require.Equal(t, 0, want.Compare(got), "%v vs %v", cards, shuffled)
		require.Equal(t, want.Category, got.Category)
	}
}

func TestBestHandIsMaximumSubset(t *testing.T) {
	rng := randutil.New(5)
	for i := 0; i < 200; i++ {
		cards, err := deck.NewShuffled(rng).Draw(7)
		require.NoError(t, err)
		best := MustBestHand(cards)

		// dropping any two cards can never produce a stronger hand
		for skipA := 0; skipA < 7; skipA++ {
			for skipB := skipA + 1; skipB < 7; skipB++ {
				var five [5]deck.Card
				k := 0
				for j, c := range cards {
					if j != skipA && j != skipB {
						five[k] = c
						k++
					}
				}
				require.LessOrEqual(t, Evaluate5(five).Compare(best), 0)
			}
		}
	}
}

func TestWheelCardOrder(t *testing.T) {
	v := MustBestHand(deck.MustParseCards("Ac2d3h4s5c"))
	assert.Equal(t, deck.Five, v.Cards[0].Rank)
	assert.Equal(t, deck.Ace, v.Cards[4].Rank)
}
