package game

import (
	"encoding/json"
	"fmt"
	"strings"

	appErr "ballmatro-service/pkg/errors"
)

// Card is a single card identified by its text, e.g. "A♠x", "10♥+" or a
// joker "🂿 Pluto: ...".
// Format: Rank + Suit + optional Modifier
// Ranks: 2, 3, 4, 5, 6, 7, 8, 9, 10, J, Q, K, A
// Suits: ♣ ♦ ♠ ♥
// Modifiers: + (bonus, +30 chips), x (mult, +4 multiplier), * (wild, any suit)
type Card string

type Suit string

const (
	Clubs    Suit = "♣"
	Diamonds Suit = "♦"
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
)

// Suits is the suit table. Its order is also the order in which wild cards
// are assigned suits during optimisation.
var Suits = []Suit{Clubs, Diamonds, Spades, Hearts}

// Ranks in ascending order; the index of a rank is its RankValue.
var Ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

type Modifier string

const (
	NoModifier Modifier = ""
	Bonus      Modifier = "+"
	Mult       Modifier = "x"
	Wild       Modifier = "*"
)

var Modifiers = []Modifier{Bonus, Mult, Wild}

const (
	JokerGlyph       = "🂿"
	legacyJokerGlyph = "🃏"
)

func (c Card) String() string {
	return string(c)
}

// Suit returns the first suit of the suit table found in the card text.
// Jokers have no suit.
func (c Card) Suit() (Suit, bool) {
	if c.IsJoker() {
		return "", false
	}
	for _, s := range Suits {
		if strings.Contains(string(c), string(s)) {
			return s, true
		}
	}
	return "", false
}

// Rank returns the leading rank token of the card.
func (c Card) Rank() (string, bool) {
	txt := string(c)
	if strings.HasPrefix(txt, "10") {
		return "10", true
	}
	if txt == "" {
		return "", false
	}
	switch r := txt[0]; r {
	case '2', '3', '4', '5', '6', '7', '8', '9', 'J', 'Q', 'K', 'A':
		return string(r), true
	}
	return "", false
}

func (c Card) RankValue() (int, bool) {
	rank, ok := c.Rank()
	if !ok {
		return 0, false
	}
	for i, r := range Ranks {
		if r == rank {
			return i, true
		}
	}
	return 0, false
}

// Modifier looks only at the last character of the card text.
func (c Card) Modifier() Modifier {
	txt := string(c)
	if txt == "" {
		return NoModifier
	}
	last := Modifier(txt[len(txt)-1:])
	for _, m := range Modifiers {
		if m == last {
			return m
		}
	}
	return NoModifier
}

func (c Card) IsJoker() bool {
	return strings.HasPrefix(string(c), JokerGlyph) || strings.HasPrefix(string(c), legacyJokerGlyph)
}

// JokerPayload returns the text after the joker glyph, or "" for standard cards.
func (c Card) JokerPayload() string {
	txt := string(c)
	switch {
	case strings.HasPrefix(txt, JokerGlyph):
		return txt[len(JokerGlyph):]
	case strings.HasPrefix(txt, legacyJokerGlyph):
		return txt[len(legacyJokerGlyph):]
	}
	return ""
}

// ParseCardList parses the bracketed list notation "[2♥,3♦,A♠]".
func ParseCardList(s string) ([]Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("%w: %q", appErr.ErrInvalidCardList, truncate(s, 64))
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []Card{}, nil
	}
	parts := strings.Split(body, ",")
	cards := make([]Card, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("%w: empty card in %q", appErr.ErrInvalidCardList, truncate(s, 64))
		}
		// Joker descriptions may contain commas; a tail with neither rank
		// nor suit belongs to the joker before it.
		if n := len(cards); n > 0 && cards[n-1].IsJoker() && continuesJoker(Card(p)) {
			cards[n-1] = Card(string(cards[n-1]) + ", " + p)
			continue
		}
		cards = append(cards, Card(p))
	}
	return cards, nil
}

func continuesJoker(c Card) bool {
	if c.IsJoker() {
		return false
	}
	if _, ok := c.Rank(); ok {
		return false
	}
	_, ok := c.Suit()
	return !ok
}

func FormatCardList(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = string(c)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// CardList decodes from either the bracketed text form "[2♥,3♦]" or a JSON
// array of card strings. It encodes as an array. null decodes to a nil list.
type CardList []Card

func (l *CardList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = nil
		return nil
	}
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		cards, err := ParseCardList(text)
		if err != nil {
			return err
		}
		*l = cards
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("%w: expected a string or an array of strings", appErr.ErrInvalidCardList)
	}
	*l = CardsFromStrings(list)
	return nil
}

// CardStrings converts cards to plain strings, keeping nil as nil.
func CardStrings(cards []Card) []string {
	if cards == nil {
		return nil
	}
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = string(c)
	}
	return out
}

func CardsFromStrings(ss []string) []Card {
	if ss == nil {
		return nil
	}
	out := make([]Card, len(ss))
	for i, s := range ss {
		out[i] = Card(strings.TrimSpace(s))
	}
	return out
}

// Deck returns every standard card: suits, then ranks, then modifiers
// (none first).
func Deck() []Card {
	mods := append([]Modifier{NoModifier}, Modifiers...)
	deck := make([]Card, 0, len(Suits)*len(Ranks)*len(mods))
	for _, s := range Suits {
		for _, r := range Ranks {
			for _, m := range mods {
				deck = append(deck, Card(r+string(s)+string(m)))
			}
		}
	}
	return deck
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
