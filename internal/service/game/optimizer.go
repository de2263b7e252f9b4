package game

import (
	"context"
	"fmt"
	"iter"

	appErr "ballmatro-service/pkg/errors"

	"github.com/sourcegraph/conc/pool"
)

const maxPlaySize = 5

type shardResult struct {
	info  ScoreInfo
	found bool
}

// Optimize returns the highest scoring play that can be made from available.
// Ties keep the candidate found first in enumeration order: by play size,
// then lexicographic card positions, then wild suit assignment.
func (e *Engine) Optimize(ctx context.Context, available []Card) (ScoreInfo, error) {
	if len(available) > e.maxPoolSize {
		return ScoreInfo{}, fmt.Errorf("%w: %d cards, limit is %d", appErr.ErrPoolTooLarge, len(available), e.maxPoolSize)
	}
	jokers, err := e.registry.ResolvePool(available)
	if err != nil {
		return ScoreInfo{}, err
	}

	var cards []Card
	for _, c := range available {
		if !c.IsJoker() {
			cards = append(cards, c)
		}
	}

	best := evaluate(available, jokers, []Card{})
	shards := combinationShards(len(cards), maxPlaySize, e.shardSize)
	var results []*shardResult

	if e.workers <= 1 {
		for shard := range shards {
			if err := ctx.Err(); err != nil {
				return ScoreInfo{}, err
			}
			r := bestOfShard(available, jokers, cards, shard)
			results = append(results, &r)
		}
	} else {
		p := pool.New().WithContext(ctx).WithMaxGoroutines(e.workers)
		for shard := range shards {
			if ctx.Err() != nil {
				break
			}
			r := &shardResult{}
			results = append(results, r)
			p.Go(func(ctx context.Context) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				*r = bestOfShard(available, jokers, cards, shard)
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return ScoreInfo{}, err
		}
		if err := ctx.Err(); err != nil {
			return ScoreInfo{}, err
		}
	}

	have := false
	for _, r := range results {
		if !r.found {
			continue
		}
		if !have || r.info.Score > best.Score {
			best, have = r.info, true
		}
	}
	return best, nil
}

func bestOfShard(available []Card, jokers []Joker, cards []Card, combos [][]int) shardResult {
	var best shardResult
	for _, idx := range combos {
		played := make([]Card, len(idx))
		for i, j := range idx {
			played[i] = cards[j]
		}
		info := evaluate(available, jokers, played)
		if !best.found || info.Score > best.info.Score {
			best = shardResult{info: info, found: true}
		}
	}
	return best
}

// combinationShards yields every k-subset of n positions for k = 1..maxK in
// chunks of at most size, smallest k first and lexicographic within each k.
// Only one chunk is built at a time.
func combinationShards(n, maxK, size int) iter.Seq[[][]int] {
	return func(yield func([][]int) bool) {
		if size < 1 {
			size = 1
		}
		maxK = min(maxK, n)
		shard := make([][]int, 0, size)
		for k := 1; k <= maxK; k++ {
			idx := make([]int, k)
			for i := range idx {
				idx[i] = i
			}
			for {
				shard = append(shard, append([]int(nil), idx...))
				if len(shard) == size {
					if !yield(shard) {
						return
					}
					shard = make([][]int, 0, size)
				}
				i := k - 1
				for i >= 0 && idx[i] == n-k+i {
					i--
				}
				if i < 0 {
					break
				}
				idx[i]++
				for j := i + 1; j < k; j++ {
					idx[j] = idx[j-1] + 1
				}
			}
		}
		if len(shard) > 0 {
			yield(shard)
		}
	}
}

// wildAssignments returns every suit assignment for the wild positions of a
// play of size n. The last wild card cycles fastest through the suit table.
func wildAssignments(n int, wilds []int) [][]Suit {
	total := 1
	for range wilds {
		total *= len(Suits)
	}
	out := make([][]Suit, 0, total)
	for a := 0; a < total; a++ {
		suits := make([]Suit, n)
		rem := a
		for w := len(wilds) - 1; w >= 0; w-- {
			suits[wilds[w]] = Suits[rem%len(Suits)]
			rem /= len(Suits)
		}
		out = append(out, suits)
	}
	return out
}
