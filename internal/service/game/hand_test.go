package game_test

import (
	"encoding/json"
	"testing"

	"ballmatro-service/internal/service/game"
)

func cards(ss ...string) []game.Card {
	return game.CardsFromStrings(ss)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		played []game.Card
		want   game.HandKind
	}{
		{"straight flush", cards("10♥️", "J♥️", "Q♥️", "K♥️", "A♥️"), game.StraightFlush},
		{"four of a kind", cards("10♥️", "10♦️", "10♠️", "10♣️"), game.FourOfAKind},
		{"full house", cards("10♥️", "10♦️", "10♠️", "K♣️", "K♦️"), game.FullHouse},
		{"flush", cards("2♥️", "4♥️", "6♥️", "8♥️", "10♥️"), game.Flush},
		{"straight", cards("10♥️", "J♦️", "Q♠️", "K♣️", "A♦️"), game.Straight},
		{"three of a kind", cards("10♥️", "10♦️", "10♠️"), game.ThreeOfAKind},
		{"two pair", cards("10♥️", "10♦️", "K♠️", "K♣️"), game.TwoPair},
		{"pair", cards("10♥️", "10♦️"), game.Pair},
		{"high card", cards("A♥️"), game.HighCard},
		{"empty", nil, game.NoPokerHand},
		{"joker only", cards("🃏"), game.NoPokerHand},
		{"joker in play", cards("2♥", "🂿 Blank: Does nothing at all."), game.NoPokerHand},
		{"unmatched pair shape", cards("2♥", "A♠"), game.NoPokerHand},
		{"six cards", cards("2♥", "3♥", "4♥", "5♥", "6♥", "7♥"), game.NoPokerHand},
		{"pair first is not a full house", cards("K♣", "K♦", "10♥", "10♦", "10♠"), game.NoPokerHand},
		{"two pair interleaved", cards("10♥", "K♠", "10♦", "K♣"), game.TwoPair},
		{"straight unordered", cards("6♠", "2♥", "4♠", "3♦", "5♦"), game.Straight},
		{"no wrap-around straight", cards("A♠", "2♥", "3♦", "4♠", "5♦"), game.NoPokerHand},
		{"wild completes flush", cards("2♥", "4♥", "6♥", "8♥", "10♠*"), game.Flush},
		{"wild completes straight flush", cards("2♥", "3♥", "4♥", "5♥", "6♣*"), game.StraightFlush},
		{"bonus keeps suit", cards("2♥", "4♥", "6♥", "8♥", "10♠+"), game.NoPokerHand},
		{"unranked cards", cards("Z♥", "Z♥"), game.NoPokerHand},
	}

	for _, tt := range tests {
		if got := game.Classify(tt.played); got != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestClassifyWithSuits(t *testing.T) {
	played := cards("2♥", "4♥", "6♥", "8♥", "10♠*")

	hearts := []game.Suit{"", "", "", "", game.Hearts}
	if got := game.ClassifyWithSuits(played, hearts); got != game.Flush {
		t.Fatalf("expected flush with hearts assigned, got %s", got)
	}
	clubs := []game.Suit{"", "", "", "", game.Clubs}
	if got := game.ClassifyWithSuits(played, clubs); got != game.NoPokerHand {
		t.Fatalf("expected no poker hand with clubs assigned, got %s", got)
	}
}

func TestHandKindConstants(t *testing.T) {
	tests := []struct {
		kind       game.HandKind
		name       string
		count      int
		chips      int
		multiplier int
	}{
		{game.StraightFlush, "Straight Flush", 5, 100, 8},
		{game.FourOfAKind, "Four of a Kind", 4, 60, 7},
		{game.FullHouse, "Full House", 5, 40, 4},
		{game.Flush, "Flush", 5, 35, 4},
		{game.Straight, "Straight", 5, 30, 4},
		{game.ThreeOfAKind, "Three of a Kind", 3, 30, 3},
		{game.TwoPair, "Two Pair", 4, 20, 2},
		{game.Pair, "Pair", 2, 10, 2},
		{game.HighCard, "High Card", 1, 5, 1},
	}
	kinds := game.HandKinds()
	if len(kinds) != len(tests) {
		t.Fatalf("expected %d scoring kinds, got %d", len(tests), len(kinds))
	}
	for i, tt := range tests {
		if kinds[i] != tt.kind {
			t.Fatalf("precedence %d: expected %s, got %s", i, tt.kind, kinds[i])
		}
		base := tt.kind.Base()
		if tt.kind.String() != tt.name || tt.kind.CardCount() != tt.count || base.Chips != tt.chips || base.Multiplier != tt.multiplier {
			t.Fatalf("%s: unexpected constants %q/%d/%d/%d", tt.name, tt.kind, tt.kind.CardCount(), base.Chips, base.Multiplier)
		}
	}
	if game.NoPokerHand.Scoring() || game.InvalidPlay.Scoring() {
		t.Fatalf("non-scoring kinds must not report as scoring")
	}
}

func TestHandKindJSON(t *testing.T) {
	raw, err := json.Marshal(map[string]game.HandKind{"hand": game.ThreeOfAKind})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(raw) != `{"hand":"Three of a Kind"}` {
		t.Fatalf("unexpected json %s", raw)
	}

	var decoded struct {
		Hand game.HandKind `json:"hand"`
	}
	if err := json.Unmarshal([]byte(`{"hand":"Invalid Play"}`), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Hand != game.InvalidPlay {
		t.Fatalf("expected Invalid Play, got %s", decoded.Hand)
	}
	if err := json.Unmarshal([]byte(`{"hand":"Royal Flush"}`), &decoded); err == nil {
		t.Fatalf("expected error for unknown hand kind")
	}
}
