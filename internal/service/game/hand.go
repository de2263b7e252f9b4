package game

import (
	"fmt"
	"sort"
)

type HandKind int

const (
	NoPokerHand HandKind = iota
	InvalidPlay
	HighCard
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// Hand is a classified play together with its running chips and multiplier.
// Jokers receive and return Hand values; they never mutate them in place.
type Hand struct {
	Kind       HandKind
	Chips      int
	Multiplier int
}

type handSpec struct {
	kind       HandKind
	name       string
	ncards     int
	chips      int
	multiplier int
	check      func(cards []Card, suits []Suit) bool
}

// handPrecedence is tried in order; the first matching spec wins.
var handPrecedence = []handSpec{
	{StraightFlush, "Straight Flush", 5, 100, 8, func(c []Card, s []Suit) bool { return isStraight(c) && isFlush(c, s) }},
	{FourOfAKind, "Four of a Kind", 4, 60, 7, func(c []Card, _ []Suit) bool { return sameRank(c) }},
	{FullHouse, "Full House", 5, 40, 4, func(c []Card, _ []Suit) bool { return rankCountsEqual(c, 3, 2) }},
	{Flush, "Flush", 5, 35, 4, isFlush},
	{Straight, "Straight", 5, 30, 4, func(c []Card, _ []Suit) bool { return isStraight(c) }},
	{ThreeOfAKind, "Three of a Kind", 3, 30, 3, func(c []Card, _ []Suit) bool { return sameRank(c) }},
	{TwoPair, "Two Pair", 4, 20, 2, func(c []Card, _ []Suit) bool { return rankCountsEqual(c, 2, 2) }},
	{Pair, "Pair", 2, 10, 2, func(c []Card, _ []Suit) bool { return sameRank(c) }},
	{HighCard, "High Card", 1, 5, 1, func(c []Card, _ []Suit) bool { return !c[0].IsJoker() }},
}

var handSpecs = func() map[HandKind]handSpec {
	m := make(map[HandKind]handSpec, len(handPrecedence))
	for _, spec := range handPrecedence {
		m[spec.kind] = spec
	}
	return m
}()

// HandKinds lists the scoring kinds in precedence order.
func HandKinds() []HandKind {
	out := make([]HandKind, len(handPrecedence))
	for i, spec := range handPrecedence {
		out[i] = spec.kind
	}
	return out
}

func (k HandKind) String() string {
	switch k {
	case NoPokerHand:
		return "No Poker Hand"
	case InvalidPlay:
		return "Invalid Play"
	}
	if spec, ok := handSpecs[k]; ok {
		return spec.name
	}
	return fmt.Sprintf("HandKind(%d)", int(k))
}

func (k HandKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *HandKind) UnmarshalText(b []byte) error {
	kind, ok := ParseHandKind(string(b))
	if !ok {
		return fmt.Errorf("unknown hand kind %q", string(b))
	}
	*k = kind
	return nil
}

func ParseHandKind(name string) (HandKind, bool) {
	for _, k := range []HandKind{NoPokerHand, InvalidPlay} {
		if k.String() == name {
			return k, true
		}
	}
	for _, spec := range handPrecedence {
		if spec.name == name {
			return spec.kind, true
		}
	}
	return NoPokerHand, false
}

// Scoring reports whether the kind is one of the nine scoring archetypes.
func (k HandKind) Scoring() bool {
	_, ok := handSpecs[k]
	return ok
}

func (k HandKind) CardCount() int {
	return handSpecs[k].ncards
}

// Base returns the hand seeded with the kind's base chips and multiplier.
// Non-scoring kinds have zero base values.
func (k HandKind) Base() Hand {
	spec := handSpecs[k]
	return Hand{Kind: k, Chips: spec.chips, Multiplier: spec.multiplier}
}

// Classify returns the poker hand formed by the played cards.
func Classify(played []Card) HandKind {
	return ClassifyWithSuits(played, nil)
}

// ClassifyWithSuits classifies the played cards using suits[i] as the suit of
// played[i] when it is a wild card. A nil suits slice leaves wild cards free
// to match any suit.
func ClassifyWithSuits(played []Card, suits []Suit) HandKind {
	if len(played) == 0 {
		return NoPokerHand
	}
	for _, c := range played {
		if c.IsJoker() {
			return NoPokerHand
		}
	}
	for _, spec := range handPrecedence {
		if len(played) != spec.ncards {
			continue
		}
		if spec.check(played, suits) {
			return spec.kind
		}
	}
	return NoPokerHand
}

func sameRank(cards []Card) bool {
	first, ok := cards[0].Rank()
	if !ok {
		return false
	}
	for _, c := range cards[1:] {
		if r, ok := c.Rank(); !ok || r != first {
			return false
		}
	}
	return true
}

// rankCountsEqual compares the rank counts in first-seen order, so
// [3,3,3,A,A] is a full house but [A,A,3,3,3] is not.
func rankCountsEqual(cards []Card, want ...int) bool {
	var order []string
	counts := make(map[string]int)
	for _, c := range cards {
		r, ok := c.Rank()
		if !ok {
			return false
		}
		if _, seen := counts[r]; !seen {
			order = append(order, r)
		}
		counts[r]++
	}
	if len(order) != len(want) {
		return false
	}
	for i, r := range order {
		if counts[r] != want[i] {
			return false
		}
	}
	return true
}

func isStraight(cards []Card) bool {
	values := make([]int, 0, len(cards))
	for _, c := range cards {
		v, ok := c.RankValue()
		if !ok {
			return false
		}
		values = append(values, v)
	}
	sort.Ints(values)
	for i := 1; i < len(values); i++ {
		if values[i]-values[i-1] != 1 {
			return false
		}
	}
	return true
}

func isFlush(cards []Card, suits []Suit) bool {
	var target Suit
	have := false
	for i, c := range cards {
		s, free := effectiveSuit(c, i, suits)
		if free {
			continue
		}
		if !have {
			target, have = s, true
			continue
		}
		if s != target {
			return false
		}
	}
	return true
}

// effectiveSuit resolves the suit a card plays as. A wild card without an
// assignment matches any suit.
func effectiveSuit(c Card, i int, suits []Suit) (Suit, bool) {
	if c.Modifier() == Wild {
		if i < len(suits) && suits[i] != "" {
			return suits[i], false
		}
		return "", true
	}
	s, _ := c.Suit()
	return s, false
}
