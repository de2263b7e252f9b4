package dataset

import (
	"context"
	"iter"
	"math/rand/v2"

	"ballmatro-service/internal/service/game"

	"golang.org/x/sync/errgroup"
)

const (
	AlgorithmExhaustive = "exhaustive"
	AlgorithmRandom     = "random"
)

// Row is the flat form of a generated hand, as stored and exported.
type Row struct {
	Input      string `json:"input"`
	Output     string `json:"output"`
	Score      int    `json:"score"`
	Hand       string `json:"hand"`
	Chips      int    `json:"chips"`
	Multiplier int    `json:"multiplier"`
	Remaining  string `json:"remaining"`
}

// ToRow flattens an optimal play into a Row.
func ToRow(info game.ScoreInfo) Row {
	row := Row{
		Input:      game.FormatCardList(info.Input),
		Output:     game.FormatCardList(info.Played),
		Score:      info.Score,
		Hand:       info.Hand.String(),
		Chips:      info.Chips,
		Multiplier: info.Multiplier,
	}
	if info.Remaining != nil {
		row.Remaining = game.FormatCardList(info.Remaining)
	}
	return row
}

// Exhaustive yields every multiset of handSize cards drawn from the full
// deck, in deck order.
func Exhaustive(handSize int) iter.Seq[[]game.Card] {
	deck := game.Deck()
	return func(yield func([]game.Card) bool) {
		if handSize < 1 {
			return
		}
		idx := make([]int, handSize)
		for {
			hand := make([]game.Card, handSize)
			for i, j := range idx {
				hand[i] = deck[j]
			}
			if !yield(hand) {
				return
			}
			i := handSize - 1
			for i >= 0 && idx[i] == len(deck)-1 {
				i--
			}
			if i < 0 {
				return
			}
			idx[i]++
			for j := i + 1; j < handSize; j++ {
				idx[j] = idx[i]
			}
		}
	}
}

// ExhaustiveCount is the number of hands Exhaustive yields.
func ExhaustiveCount(handSize int) int {
	if handSize < 1 {
		return 0
	}
	n := len(game.Deck())
	count := 1
	for i := 1; i <= handSize; i++ {
		count = count * (n + i - 1) / i
	}
	return count
}

// Random draws n hands of 1..maxHandSize cards with replacement. With
// probability jokerRate a random catalog joker is added to a hand.
func Random(registry *game.JokerRegistry, maxHandSize, n int, seed int64, jokerRate float64) [][]game.Card {
	if registry == nil {
		registry = game.DefaultJokerRegistry()
	}
	deck := game.Deck()
	jokers := registry.Catalog()
	rng := newRand(seed)

	hands := make([][]game.Card, 0, n)
	for range n {
		size := 1 + rng.IntN(maxHandSize)
		hand := make([]game.Card, 0, size+1)
		for range size {
			hand = append(hand, deck[rng.IntN(len(deck))])
		}
		if jokerRate > 0 && len(jokers) > 0 && rng.Float64() < jokerRate {
			hand = append(hand, game.JokerCard(jokers[rng.IntN(len(jokers))]))
		}
		hands = append(hands, hand)
	}
	return hands
}

// Solve finds the optimal play of every hand, keeping the input order.
func Solve(ctx context.Context, engine *game.Engine, hands [][]game.Card, workers int) ([]game.ScoreInfo, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]game.ScoreInfo, len(hands))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, hand := range hands {
		g.Go(func() error {
			info, err := engine.Optimize(ctx, hand)
			if err != nil {
				return err
			}
			results[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SplitIndexes shuffles positions 0..n-1 with seed and assigns the first half
// to test and the rest to train. Test gets the extra item when n is odd.
func SplitIndexes(n int, seed int64) []string {
	perm := newRand(seed).Perm(n)
	testCount := (n + 1) / 2
	splits := make([]string, n)
	for rank, pos := range perm {
		if rank < testCount {
			splits[pos] = splitTest
		} else {
			splits[pos] = splitTrain
		}
	}
	return splits
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}
