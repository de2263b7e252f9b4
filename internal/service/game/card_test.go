package game_test

import (
	"encoding/json"
	"errors"
	"testing"

	"ballmatro-service/internal/service/game"
	appErr "ballmatro-service/pkg/errors"
)

func TestCardAttributes(t *testing.T) {
	tests := []struct {
		card     game.Card
		suit     game.Suit
		hasSuit  bool
		rank     string
		hasRank  bool
		value    int
		modifier game.Modifier
		joker    bool
	}{
		{card: "10♠", suit: game.Spades, hasSuit: true, rank: "10", hasRank: true, value: 8},
		{card: "A♥x", suit: game.Hearts, hasSuit: true, rank: "A", hasRank: true, value: 12, modifier: game.Mult},
		{card: "2♣+", suit: game.Clubs, hasSuit: true, rank: "2", hasRank: true, value: 0, modifier: game.Bonus},
		{card: "K♦*", suit: game.Diamonds, hasSuit: true, rank: "K", hasRank: true, value: 11, modifier: game.Wild},
		{card: "10♥️", suit: game.Hearts, hasSuit: true, rank: "10", hasRank: true, value: 8},
		{card: "10♠️+", suit: game.Spades, hasSuit: true, rank: "10", hasRank: true, value: 8, modifier: game.Bonus},
		{card: "🂿 Pluto: multiplies by 2 the chips and multiplier of the High Card hand", joker: true},
		{card: "🃏Cards with rank 2 provide double chips", joker: true},
		{card: "Z♠", suit: game.Spades, hasSuit: true},
		{card: ""},
	}

	for _, tt := range tests {
		suit, ok := tt.card.Suit()
		if ok != tt.hasSuit || suit != tt.suit {
			t.Fatalf("%q: expected suit %q/%v, got %q/%v", tt.card, tt.suit, tt.hasSuit, suit, ok)
		}
		rank, ok := tt.card.Rank()
		if ok != tt.hasRank || rank != tt.rank {
			t.Fatalf("%q: expected rank %q/%v, got %q/%v", tt.card, tt.rank, tt.hasRank, rank, ok)
		}
		if tt.hasRank {
			value, _ := tt.card.RankValue()
			if value != tt.value {
				t.Fatalf("%q: expected rank value %d, got %d", tt.card, tt.value, value)
			}
		}
		if got := tt.card.Modifier(); got != tt.modifier {
			t.Fatalf("%q: expected modifier %q, got %q", tt.card, tt.modifier, got)
		}
		if got := tt.card.IsJoker(); got != tt.joker {
			t.Fatalf("%q: expected joker=%v, got %v", tt.card, tt.joker, got)
		}
	}
}

func TestCardAttributesAreStable(t *testing.T) {
	for _, c := range game.Deck() {
		again := game.Card(string(c))
		s1, _ := c.Suit()
		s2, _ := again.Suit()
		r1, _ := c.Rank()
		r2, _ := again.Rank()
		if s1 != s2 || r1 != r2 || c.Modifier() != again.Modifier() || c != again {
			t.Fatalf("re-parsing %q changed its attributes", c)
		}
	}
}

func TestJokerPayload(t *testing.T) {
	card := game.Card("🃏Straights cannot be played")
	if got := card.JokerPayload(); got != "Straights cannot be played" {
		t.Fatalf("unexpected payload %q", got)
	}
	if got := game.Card("10♠").JokerPayload(); got != "" {
		t.Fatalf("expected empty payload for a standard card, got %q", got)
	}
}

func TestParseCardList(t *testing.T) {
	cards, err := game.ParseCardList("[2♥, 3♦ ,A♠]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []game.Card{"2♥", "3♦", "A♠"}
	if len(cards) != len(want) {
		t.Fatalf("expected %d cards, got %d", len(want), len(cards))
	}
	for i := range want {
		if cards[i] != want[i] {
			t.Fatalf("card %d: expected %q, got %q", i, want[i], cards[i])
		}
	}
	if got := game.FormatCardList(cards); got != "[2♥,3♦,A♠]" {
		t.Fatalf("unexpected formatted list %q", got)
	}

	deranked, _ := game.DefaultJokerRegistry().ByName("Deranked Two")
	withJoker := []game.Card{"2♥", game.JokerCard(deranked), "3♦"}
	parsed, err := game.ParseCardList(game.FormatCardList(withJoker))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed) != 3 || parsed[1] != withJoker[1] || parsed[2] != "3♦" {
		t.Fatalf("joker description with a comma was split: %q", parsed)
	}

	blank, _ := game.DefaultJokerRegistry().ByName("Blank")
	split, err := game.ParseCardList("[" + string(game.JokerCard(blank)) + ",Z♥]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(split) != 2 || split[0] != game.JokerCard(blank) || split[1] != "Z♥" {
		t.Fatalf("a suited card after a joker must stay separate: %q", split)
	}

	empty, err := game.ParseCardList("[]")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty list, got %v (%v)", empty, err)
	}

	for _, bad := range []string{"2♥,3♦", "[2♥,,3♦]", "[", ""} {
		if _, err := game.ParseCardList(bad); !errors.Is(err, appErr.ErrInvalidCardList) {
			t.Fatalf("%q: expected invalid card list error, got %v", bad, err)
		}
	}
}

func TestDeck(t *testing.T) {
	deck := game.Deck()
	if len(deck) != 208 {
		t.Fatalf("expected 208 cards, got %d", len(deck))
	}
	seen := make(map[game.Card]bool, len(deck))
	for _, c := range deck {
		if seen[c] {
			t.Fatalf("duplicate card %q", c)
		}
		seen[c] = true
	}
	if deck[0] != "2♣" || deck[1] != "2♣+" || deck[len(deck)-1] != "A♥*" {
		t.Fatalf("unexpected deck order: %q %q ... %q", deck[0], deck[1], deck[len(deck)-1])
	}
}

func TestCardListJSON(t *testing.T) {
	var body struct {
		Text game.CardList `json:"text"`
		List game.CardList `json:"list"`
	}
	if err := json.Unmarshal([]byte(`{"text":"[2♥, 3♦]","list":[" 2♥","3♦"]}`), &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if game.FormatCardList(body.Text) != "[2♥,3♦]" || game.FormatCardList(body.List) != "[2♥,3♦]" {
		t.Fatalf("unexpected cards %v / %v", body.Text, body.List)
	}

	var nullable struct {
		Cards game.CardList `json:"cards"`
	}
	if err := json.Unmarshal([]byte(`{"cards":null}`), &nullable); err != nil {
		t.Fatalf("null must decode to an empty list, got %v", err)
	}
	if nullable.Cards != nil {
		t.Fatalf("expected nil cards, got %v", nullable.Cards)
	}

	var bad struct {
		Cards game.CardList `json:"cards"`
	}
	for _, raw := range []string{`{"cards":"2♥,3♦"}`, `{"cards":42}`} {
		if err := json.Unmarshal([]byte(raw), &bad); !errors.Is(err, appErr.ErrInvalidCardList) {
			t.Fatalf("%s: expected invalid card list, got %v", raw, err)
		}
	}
}
