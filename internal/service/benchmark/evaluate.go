package benchmark

import (
	"context"
	"fmt"
	"strings"

	"ballmatro-service/internal/service/game"
)

// Attempt is one proposed play for a pool. Optimal, when set, is the known
// best score of the pool; otherwise it is computed.
type Attempt struct {
	Input   string `json:"input"`
	Play    string `json:"play"`
	Optimal *int   `json:"optimal,omitempty"`
}

type ItemScore struct {
	Input      string         `json:"input"`
	Play       string         `json:"play"`
	Result     game.ScoreInfo `json:"result"`
	Optimal    int            `json:"optimal"`
	Normalized float64        `json:"normalized"`
}

type Summary struct {
	Items                  int     `json:"items"`
	TotalScore             int     `json:"totalScore"`
	TotalOptimal           int     `json:"totalOptimal"`
	NormalizedScore        float64 `json:"normalizedScore"`
	MeanNormalizedScore    float64 `json:"meanNormalizedScore"`
	InvalidHands           int     `json:"invalidHands"`
	NormalizedInvalidHands float64 `json:"normalizedInvalidHands"`
}

// ParsePlay reads a proposed play. Surrounding whitespace and code fences
// are ignored.
func ParsePlay(text string) ([]game.Card, error) {
	return game.ParseCardList(strings.Trim(text, " \t\r\n`"))
}

// Evaluate scores every attempt and aggregates the results. A play that
// cannot be parsed counts as an invalid play.
func Evaluate(ctx context.Context, engine *game.Engine, attempts []Attempt) ([]ItemScore, Summary, error) {
	scores := make([]ItemScore, len(attempts))

	for i, a := range attempts {
		pool, err := game.ParseCardList(a.Input)
		if err != nil {
			return nil, Summary{}, fmt.Errorf("item %d: %w", i, err)
		}

		info := game.ScoreInfo{Input: pool, Hand: game.InvalidPlay}
		if play, perr := ParsePlay(a.Play); perr == nil {
			info, err = engine.Score(pool, play)
			if err != nil {
				return nil, Summary{}, fmt.Errorf("item %d: %w", i, err)
			}
		}

		optimal := 0
		if a.Optimal != nil {
			optimal = *a.Optimal
		} else {
			best, err := engine.Optimize(ctx, pool)
			if err != nil {
				return nil, Summary{}, fmt.Errorf("item %d: %w", i, err)
			}
			optimal = best.Score
		}

		scores[i] = ItemScore{
			Input:      a.Input,
			Play:       a.Play,
			Result:     info,
			Optimal:    optimal,
			Normalized: ratio(info.Score, optimal),
		}
	}

	return scores, Summarize(scores), nil
}

// Summarize aggregates already scored items.
func Summarize(scores []ItemScore) Summary {
	s := Summary{Items: len(scores)}
	var normalizedSum float64
	for _, item := range scores {
		s.TotalScore += item.Result.Score
		s.TotalOptimal += item.Optimal
		normalizedSum += item.Normalized
		if !item.Result.Hand.Scoring() {
			s.InvalidHands++
		}
	}
	if s.TotalOptimal > 0 {
		s.NormalizedScore = float64(s.TotalScore) / float64(s.TotalOptimal)
	}
	if s.Items > 0 {
		s.MeanNormalizedScore = normalizedSum / float64(s.Items)
		s.NormalizedInvalidHands = float64(s.InvalidHands) / float64(s.Items)
	}
	return s
}

// ratio is the share of the optimum reached. A pool whose optimum is zero
// counts as solved.
func ratio(score, optimal int) float64 {
	if optimal <= 0 {
		return 1
	}
	return float64(score) / float64(optimal)
}
