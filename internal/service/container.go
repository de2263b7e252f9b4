package service

import (
	"context"
	"time"

	"ballmatro-service/internal/config"
	"ballmatro-service/internal/service/admin"
	"ballmatro-service/internal/service/benchmark"
	"ballmatro-service/internal/service/dataset"
	"ballmatro-service/internal/service/game"
	"ballmatro-service/internal/service/llm"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Admin     *admin.Service
	Game      *game.Service
	Dataset   *dataset.Service
	Benchmark *benchmark.Service
	LLM       *llm.Client
}

func NewContainer(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Container {
	engine := game.NewEngine(nil, cfg.Optimizer.Workers,
		game.WithShardSize(cfg.Optimizer.ShardSize),
		game.WithMaxPoolSize(cfg.Optimizer.MaxPoolSize),
	)
	client := llm.NewClient(cfg.LLM)
	datasets := dataset.NewService(db, engine, cfg.Dataset)

	completers := func(model string) llm.Completer {
		return client.WithModel(model)
	}

	return &Container{
		Admin:     admin.NewService(db),
		Game:      game.NewService(engine, rdb, time.Duration(cfg.Redis.CacheTTL)*time.Second),
		Dataset:   datasets,
		Benchmark: benchmark.NewService(db, engine, datasets, completers, cfg.LLM.RulesPath),
		LLM:       client,
	}
}

func (c *Container) Start(ctx context.Context) error {
	return c.Admin.EnsureDefaultAdmin(ctx)
}
