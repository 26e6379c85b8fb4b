package engine

import (
	"fmt"
	"sort"

	"holdem-room/models"
)

type HandRank int

const (
	HighCard HandRank = iota + 1
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

func (hr HandRank) String() string {
	names := []string{"High Card", "One Pair", "Two Pair", "Three of a Kind", "Straight", "Flush", "Full House", "Four of a Kind", "Straight Flush", "Royal Flush"}
	if hr < HighCard || hr > RoyalFlush {
		return "Unknown"
	}
	return names[hr-1]
}

// HandEvaluation ranks exactly five cards. Values holds the tie-break
// vector, most significant first; Cards is ordered the same way.
type HandEvaluation struct {
	Rank   HandRank
	Values []int
	Cards  []models.Card
}

func (e HandEvaluation) String() string {
	return e.Rank.String()
}

type rankGroup struct {
	value int
	count int
}

// Evaluate5 ranks exactly five cards.
func Evaluate5(cards []models.Card) (HandEvaluation, error) {
	if len(cards) != 5 {
		return HandEvaluation{}, fmt.Errorf("evaluate5 needs exactly 5 cards, got %d", len(cards))
	}

	sorted := append([]models.Card{}, cards...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})

	flush := true
	for _, c := range sorted[1:] {
		if c.Suit != sorted[0].Suit {
			flush = false
			break
		}
	}

	groups := groupByRank(sorted)
	straightHigh := -1
	if len(groups) == 5 {
		straightHigh = findStraightHigh(sorted)
	}

	switch {
	case flush && straightHigh >= 0:
		rank := StraightFlush
		if straightHigh == models.RankAce {
			rank = RoyalFlush
		}
		return HandEvaluation{Rank: rank, Values: []int{straightHigh}, Cards: straightOrder(sorted, straightHigh)}, nil
	case groups[0].count == 4:
		return HandEvaluation{Rank: FourOfAKind, Values: groupValues(groups), Cards: groupOrder(sorted, groups)}, nil
	case groups[0].count == 3 && groups[1].count == 2:
		return HandEvaluation{Rank: FullHouse, Values: groupValues(groups), Cards: groupOrder(sorted, groups)}, nil
	case flush:
		return HandEvaluation{Rank: Flush, Values: cardValues(sorted), Cards: sorted}, nil
	case straightHigh >= 0:
		return HandEvaluation{Rank: Straight, Values: []int{straightHigh}, Cards: straightOrder(sorted, straightHigh)}, nil
	case groups[0].count == 3:
		return HandEvaluation{Rank: ThreeOfAKind, Values: groupValues(groups), Cards: groupOrder(sorted, groups)}, nil
	case groups[0].count == 2 && groups[1].count == 2:
		return HandEvaluation{Rank: TwoPair, Values: groupValues(groups), Cards: groupOrder(sorted, groups)}, nil
	case groups[0].count == 2:
		return HandEvaluation{Rank: OnePair, Values: groupValues(groups), Cards: groupOrder(sorted, groups)}, nil
	}
	return HandEvaluation{Rank: HighCard, Values: cardValues(sorted), Cards: sorted}, nil
}

// CompareHands orders by category, then by value vector. It returns 1 when
// a wins, -1 when b wins and 0 only for a true tie.
func CompareHands(a, b HandEvaluation) int {
	if a.Rank != b.Rank {
		if a.Rank > b.Rank {
			return 1
		}
		return -1
	}
	for i := 0; i < len(a.Values) && i < len(b.Values); i++ {
		if a.Values[i] > b.Values[i] {
			return 1
		}
		if a.Values[i] < b.Values[i] {
			return -1
		}
	}
	switch {
	case len(a.Values) > len(b.Values):
		return 1
	case len(a.Values) < len(b.Values):
		return -1
	}
	return 0
}

// GetBestHand returns the strongest five-card subset of 5 to 7 cards. The
// first maximal subset in enumeration order wins, so the result is
// deterministic for a given input order.
func GetBestHand(cards []models.Card) (HandEvaluation, error) {
	n := len(cards)
	if n < 5 || n > 7 {
		return HandEvaluation{}, fmt.Errorf("best hand needs 5 to 7 cards, got %d", n)
	}

	var best HandEvaluation
	found := false
	subset := make([]models.Card, 5)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						subset[0], subset[1], subset[2], subset[3], subset[4] = cards[a], cards[b], cards[c], cards[d], cards[e]
						eval, err := Evaluate5(subset)
						if err != nil {
							return HandEvaluation{}, err
						}
						if !found || CompareHands(eval, best) > 0 {
							best = eval
							found = true
						}
					}
				}
			}
		}
	}
	return best, nil
}

// groupByRank returns rank groups ordered by count, then value, descending.
func groupByRank(sorted []models.Card) []rankGroup {
	counts := make(map[int]int)
	for _, c := range sorted {
		counts[c.Value]++
	}
	groups := make([]rankGroup, 0, len(counts))
	for value, count := range counts {
		groups = append(groups, rankGroup{value: value, count: count})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].value > groups[j].value
	})
	return groups
}

// findStraightHigh expects five distinct values sorted descending. The
// wheel (A-2-3-4-5) reports the five as its high card.
func findStraightHigh(sorted []models.Card) int {
	if sorted[0].Value-sorted[4].Value == 4 {
		return sorted[0].Value
	}
	if sorted[0].Value == models.RankAce &&
		sorted[1].Value == models.RankFive &&
		sorted[4].Value == models.RankTwo {
		return models.RankFive
	}
	return -1
}

func straightOrder(sorted []models.Card, high int) []models.Card {
	if high == models.RankFive && sorted[0].Value == models.RankAce {
		return append(append([]models.Card{}, sorted[1:]...), sorted[0])
	}
	return sorted
}

func groupValues(groups []rankGroup) []int {
	values := make([]int, len(groups))
	for i, g := range groups {
		values[i] = g.value
	}
	return values
}

func groupOrder(sorted []models.Card, groups []rankGroup) []models.Card {
	out := make([]models.Card, 0, len(sorted))
	for _, g := range groups {
		for _, c := range sorted {
			if c.Value == g.value {
				out = append(out, c)
			}
		}
	}
	return out
}

func cardValues(cards []models.Card) []int {
	values := make([]int, len(cards))
	for i, c := range cards {
		values[i] = c.Value
	}
	return values
}
