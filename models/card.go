package models

import (
	"fmt"
	"math/rand"
	"time"
)

type Suit string

const (
	Hearts   Suit = "h"
	Diamonds Suit = "d"
	Clubs    Suit = "c"
	Spades   Suit = "s"
)

// Suits lists every suit in deck-construction order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// RankLabels maps a numeric rank value (0..12) to its label. Ace is 12.
var RankLabels = []string{"2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K", "A"}

const (
	RankTwo  = 0
	RankFive = 3
	RankAce  = 12
)

type Card struct {
	Suit  Suit   `json:"suit"`
	Rank  string `json:"rank"`
	Value int    `json:"value"`
}

// NewCard builds a card from a numeric rank value.
func NewCard(value int, suit Suit) Card {
	return Card{Suit: suit, Rank: RankLabels[value], Value: value}
}

// ParseCard parses two-character notation such as "Ah" or "Tc".
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	value := -1
	for i, label := range RankLabels {
		if label == s[:1] {
			value = i
			break
		}
	}
	if value < 0 {
		return Card{}, fmt.Errorf("invalid rank in card %q", s)
	}
	suit := Suit(s[1:])
	switch suit {
	case Hearts, Diamonds, Clubs, Spades:
	default:
		return Card{}, fmt.Errorf("invalid suit in card %q", s)
	}
	return NewCard(value, suit), nil
}

func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck returns a freshly shuffled 52-card deck. A nil rng seeds a new one
// from the clock.
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	deck := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	deck.Reset()
	return deck
}

func (d *Deck) Reset() {
	d.cards = make([]Card, 0, 52)
	for _, suit := range Suits {
		for value := range RankLabels {
			d.cards = append(d.cards, NewCard(value, suit))
		}
	}
	d.Shuffle()
}

// Shuffle is a Fisher-Yates permutation of the remaining cards.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

func (d *Deck) Deal() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, fmt.Errorf("deck is empty - no more cards to deal")
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, nil
}

func (d *Deck) CardsRemaining() int {
	return len(d.cards)
}

// Cards returns a copy of the undealt cards in deal order.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// NewStackedDeck returns a deck that deals the given cards in order without
// shuffling.
func NewStackedDeck(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}
