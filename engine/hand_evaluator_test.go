package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem-room/models"
)

func TestEvaluate5_Categories(t *testing.T) {
	tests := []struct {
		name   string
		cards  []string
		rank   HandRank
		values []int
	}{
		{"royal flush", []string{"As", "Ks", "Qs", "Js", "Ts"}, RoyalFlush, []int{12}},
		{"straight flush", []string{"9h", "8h", "7h", "6h", "5h"}, StraightFlush, []int{7}},
		{"steel wheel", []string{"Ad", "2d", "3d", "4d", "5d"}, StraightFlush, []int{models.RankFive}},
		{"quads", []string{"9c", "9d", "9h", "9s", "Kd"}, FourOfAKind, []int{7, 11}},
		{"full house", []string{"3c", "3d", "3h", "Ks", "Kd"}, FullHouse, []int{1, 11}},
		{"flush", []string{"Ac", "Jc", "8c", "4c", "2c"}, Flush, []int{12, 9, 6, 2, 0}},
		{"straight", []string{"Tc", "9d", "8h", "7s", "6d"}, Straight, []int{8}},
		{"wheel", []string{"Ac", "2d", "3h", "4s", "5d"}, Straight, []int{models.RankFive}},
		{"trips", []string{"Qc", "Qd", "Qh", "7s", "2d"}, ThreeOfAKind, []int{10, 5, 0}},
		{"two pair", []string{"Jc", "Jd", "4h", "4s", "Ad"}, TwoPair, []int{9, 2, 12}},
		{"pair", []string{"8c", "8d", "Ah", "Ks", "2d"}, OnePair, []int{6, 12, 11, 0}},
		{"high card", []string{"Ac", "Jd", "8h", "4s", "2d"}, HighCard, []int{12, 9, 6, 2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval, err := Evaluate5(mustCards(t, tt.cards...))
			require.NoError(t, err)
			assert.Equal(t, tt.rank, eval.Rank)
			assert.Equal(t, tt.values, eval.Values)
			assert.Len(t, eval.Cards, 5)
		})
	}
}

func TestEvaluate5_RejectsWrongCount(t *testing.T) {
	_, err := Evaluate5(mustCards(t, "Ac", "Kd", "Qh", "Js"))
	assert.Error(t, err)
}

func TestEvaluate5_WheelIsLowestStraight(t *testing.T) {
	wheel, err := Evaluate5(mustCards(t, "Ac", "2d", "3h", "4s", "5d"))
	require.NoError(t, err)
	sixHigh, err := Evaluate5(mustCards(t, "2c", "3d", "4h", "5s", "6d"))
	require.NoError(t, err)

	assert.Equal(t, -1, CompareHands(wheel, sixHigh))
	// Ace plays low, so it is listed last.
	assert.Equal(t, "A", wheel.Cards[4].Rank)
}

func TestCompareHands_Kickers(t *testing.T) {
	a, _ := Evaluate5(mustCards(t, "Ac", "Ad", "Kh", "Qs", "2d"))
	b, _ := Evaluate5(mustCards(t, "As", "Ah", "Kd", "Jc", "3h"))
	assert.Equal(t, 1, CompareHands(a, b))
	assert.Equal(t, -1, CompareHands(b, a))

	c, _ := Evaluate5(mustCards(t, "As", "Ah", "Kd", "Qc", "2h"))
	assert.Equal(t, 0, CompareHands(a, c))
}

func randomHand(rng *rand.Rand, n int) []models.Card {
	return models.NewDeck(rng).Cards()[:n]
}

func TestCompareHands_TotalPreorder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	evals := make([]HandEvaluation, 60)
	for i := range evals {
		eval, err := Evaluate5(randomHand(rng, 5))
		require.NoError(t, err)
		evals[i] = eval
	}

	for _, a := range evals {
		assert.Equal(t, 0, CompareHands(a, a))
		for _, b := range evals {
			assert.Equal(t, -CompareHands(a, b), CompareHands(b, a))
			for _, c := range evals {
				if CompareHands(a, b) >= 0 && CompareHands(b, c) >= 0 {
					assert.GreaterOrEqual(t, CompareHands(a, c), 0)
				}
			}
		}
	}
}

func TestGetBestHand_BeatsEverySubset(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 200; round++ {
		seven := randomHand(rng, 7)
		best, err := GetBestHand(seven)
		require.NoError(t, err)

		for skipA := 0; skipA < 7; skipA++ {
			for skipB := skipA + 1; skipB < 7; skipB++ {
				subset := make([]models.Card, 0, 5)
				for i, c := range seven {
					if i != skipA && i != skipB {
						subset = append(subset, c)
					}
				}
				eval, err := Evaluate5(subset)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, CompareHands(best, eval), 0)
			}
		}
	}
}

func TestGetBestHand_FindsHiddenStraight(t *testing.T) {
	best, err := GetBestHand(mustCards(t, "Kd", "2c", "9h", "Tc", "Js", "Qd", "3s"))
	require.NoError(t, err)
	assert.Equal(t, Straight, best.Rank)
	assert.Equal(t, []int{11}, best.Values)
}

func TestGetBestHand_CardCount(t *testing.T) {
	_, err := GetBestHand(mustCards(t, "Kd", "2c", "9h", "Tc"))
	assert.Error(t, err)
}

func TestDeck_FreshDeckIsUnique(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	deck := models.NewDeck(rng)
	cards := deck.Cards()
	require.Len(t, cards, 52)

	seen := make(map[string]bool)
	for _, c := range cards {
		assert.False(t, seen[c.String()], "duplicate %s", c)
		seen[c.String()] = true
	}

	other := models.NewDeck(rng).Cards()
	assert.NotEqual(t, cards, other)
}
