package game

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"ballmatro-service/pkg/logger"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const optimalKeyPrefix = "ballmatro:optimal:"

// Service exposes the scoring engine to the transport layers and keeps
// optimal plays in redis when a client is configured.
type Service struct {
	engine   *Engine
	rdb      *redis.Client
	cacheTTL time.Duration
}

func NewService(engine *Engine, rdb *redis.Client, cacheTTL time.Duration) *Service {
	if engine == nil {
		engine = NewEngine(nil, 1)
	}
	return &Service{engine: engine, rdb: rdb, cacheTTL: cacheTTL}
}

func (s *Service) Engine() *Engine {
	return s.engine
}

type JokerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Card        Card   `json:"card"`
}

func (s *Service) Jokers() []JokerInfo {
	catalog := s.engine.Registry().Catalog()
	out := make([]JokerInfo, len(catalog))
	for i, j := range catalog {
		out[i] = JokerInfo{Name: j.Name(), Description: j.Description(), Card: JokerCard(j)}
	}
	return out
}

func (s *Service) Score(ctx context.Context, available, played []Card) (ScoreInfo, error) {
	return s.engine.Score(available, played)
}

type cachedPlay struct {
	Pool   string    `json:"pool"`
	Result ScoreInfo `json:"result"`
}

// Optimize returns the best play for available, reading and filling the
// cache around the engine search.
func (s *Service) Optimize(ctx context.Context, available []Card) (ScoreInfo, error) {
	pool := FormatCardList(available)
	key := optimalKey(pool)

	if info, ok := s.lookup(ctx, key, pool); ok {
		return info, nil
	}

	start := time.Now()
	info, err := s.engine.Optimize(ctx, available)
	if err != nil {
		return ScoreInfo{}, err
	}
	logger.L().Debug("optimal play computed",
		zap.String("pool", pool),
		zap.String("hand", info.Hand.String()),
		zap.Int("score", info.Score),
		zap.Duration("elapsed", time.Since(start)),
	)

	s.store(ctx, key, pool, info)
	return info, nil
}

func (s *Service) lookup(ctx context.Context, key, pool string) (ScoreInfo, bool) {
	if s.rdb == nil {
		return ScoreInfo{}, false
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Warn("optimal play cache read failed", zap.String("key", key), zap.Error(err))
		}
		return ScoreInfo{}, false
	}
	var entry cachedPlay
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Pool != pool {
		return ScoreInfo{}, false
	}
	return entry.Result, true
}

func (s *Service) store(ctx context.Context, key, pool string, info ScoreInfo) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(cachedPlay{Pool: pool, Result: info})
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		logger.L().Warn("optimal play cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func optimalKey(pool string) string {
	return optimalKeyPrefix + strconv.FormatUint(xxhash.Sum64String(pool), 16)
}
