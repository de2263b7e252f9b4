package game

import (
	"fmt"
)

const (
	bonusChips      = 30
	multMultiplier  = 4
	defaultShardLen = 64
	defaultMaxPool  = 16
)

// ScoreInfo is the outcome of scoring one play against a pool.
type ScoreInfo struct {
	Input      []Card   `json:"input"`
	Played     []Card   `json:"played"`
	Remaining  []Card   `json:"remaining"`
	Hand       HandKind `json:"hand"`
	Chips      int      `json:"chips"`
	Multiplier int      `json:"multiplier"`
	Score      int      `json:"score"`
}

// Engine scores plays and searches for the best one. It holds no mutable
// state and may be shared between goroutines.
type Engine struct {
	registry    *JokerRegistry
	workers     int
	shardSize   int
	maxPoolSize int
}

type EngineOption func(*Engine)

// WithShardSize sets how many candidate combinations a single optimizer task
// scores.
func WithShardSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.shardSize = n
		}
	}
}

// WithMaxPoolSize caps the number of cards, jokers included, Optimize
// accepts.
func WithMaxPoolSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxPoolSize = n
		}
	}
}

func NewEngine(registry *JokerRegistry, workers int, opts ...EngineOption) *Engine {
	if registry == nil {
		registry = DefaultJokerRegistry()
	}
	if workers < 1 {
		workers = 1
	}
	e := &Engine{registry: registry, workers: workers, shardSize: defaultShardLen, maxPoolSize: defaultMaxPool}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Registry() *JokerRegistry {
	return e.registry
}

// Score scores played against the available pool.
func (e *Engine) Score(available, played []Card) (ScoreInfo, error) {
	jokers, err := e.registry.ResolvePool(available)
	if err != nil {
		return ScoreInfo{}, err
	}
	return evaluate(available, jokers, played), nil
}

// ScoreText scores bracketed card lists such as "[2♥,3♦]".
func (e *Engine) ScoreText(available, played string) (ScoreInfo, error) {
	pool, err := ParseCardList(available)
	if err != nil {
		return ScoreInfo{}, fmt.Errorf("available: %w", err)
	}
	hand, err := ParseCardList(played)
	if err != nil {
		return ScoreInfo{}, fmt.Errorf("played: %w", err)
	}
	return e.Score(pool, hand)
}

// evaluate scores played against available. Wild cards are tried under
// every suit assignment and the best scoring one is kept, the first on ties.
func evaluate(available []Card, jokers []Joker, played []Card) ScoreInfo {
	info := ScoreInfo{Input: available, Played: played}

	remaining, ok := subtractCards(available, played)
	if !ok {
		info.Hand = InvalidPlay
		return info
	}
	info.Remaining = remaining

	var wilds []int
	for i, c := range played {
		if !c.IsJoker() && c.Modifier() == Wild {
			wilds = append(wilds, i)
		}
	}
	if len(wilds) == 0 {
		return scoreAs(info, jokers, nil)
	}

	var best ScoreInfo
	for i, suits := range wildAssignments(len(played), wilds) {
		candidate := scoreAs(info, jokers, suits)
		if i == 0 || candidate.Score > best.Score {
			best = candidate
		}
	}
	return best
}

// scoreAs classifies info.Played with the given wild suits and folds the
// jokers and per-card deltas into chips and multiplier.
func scoreAs(info ScoreInfo, jokers []Joker, suits []Suit) ScoreInfo {
	kind := ClassifyWithSuits(info.Played, suits)
	info.Hand = kind
	if !kind.Scoring() {
		return info
	}

	hand := kind.Base()
	for _, j := range jokers {
		hand = j.PlayedHand(hand)
	}
	for _, c := range info.Played {
		addChips, addMult := cardDelta(c)
		for _, j := range jokers {
			addChips, addMult = j.CardScore(c, hand.Chips, hand.Multiplier, addChips, addMult)
		}
		hand.Chips += addChips
		hand.Multiplier += addMult
	}

	info.Chips = hand.Chips
	info.Multiplier = hand.Multiplier
	info.Score = hand.Chips * hand.Multiplier
	return info
}

// subtractCards removes played from available as a multiset, keeping the
// available order. It fails if a played card is not in the pool.
func subtractCards(available, played []Card) ([]Card, bool) {
	want := make(map[Card]int, len(played))
	for _, c := range played {
		want[c]++
	}
	have := make(map[Card]int, len(available))
	for _, c := range available {
		have[c]++
	}
	for c, n := range want {
		if have[c] < n {
			return nil, false
		}
	}
	remaining := make([]Card, 0, len(available)-len(played))
	for _, c := range available {
		if want[c] > 0 {
			want[c]--
			continue
		}
		remaining = append(remaining, c)
	}
	return remaining, true
}

func cardDelta(c Card) (int, int) {
	chips, mult := rankChips(c), 0
	switch c.Modifier() {
	case Bonus:
		chips += bonusChips
	case Mult:
		mult += multMultiplier
	}
	return chips, mult
}

func rankChips(c Card) int {
	rank, ok := c.Rank()
	if !ok {
		return 0
	}
	switch rank {
	case "10", "J", "Q", "K":
		return 10
	case "A":
		return 11
	}
	return int(rank[0] - '0')
}
