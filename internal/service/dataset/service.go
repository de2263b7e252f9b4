package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ballmatro-service/internal/config"
	"ballmatro-service/internal/model"
	"ballmatro-service/internal/service/game"
	appErr "ballmatro-service/pkg/errors"
	"ballmatro-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	splitTrain = model.SplitTrain
	splitTest  = model.SplitTest

	defaultItemPageSize = 50
	maxItemPageSize     = 500
	insertBatchSize     = 500
)

type Service struct {
	db     *gorm.DB
	engine *game.Engine
	cfg    config.DatasetConfig
}

type GenerateParams struct {
	Name      string  `json:"name"`
	Algorithm string  `json:"algorithm"`
	HandSize  int     `json:"handSize"`
	N         int     `json:"n"`
	Seed      int64   `json:"seed"`
	JokerRate float64 `json:"jokerRate"`
}

type ListItemsFilter struct {
	Split string
	Page  int
	Size  int
}

type ListItemsResult struct {
	Items []model.DatasetItem `json:"items"`
	Total int64               `json:"total"`
}

func NewService(db *gorm.DB, engine *game.Engine, cfg config.DatasetConfig) *Service {
	if engine == nil {
		engine = game.NewEngine(nil, 1)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Service{db: db, engine: engine, cfg: cfg}
}

func (p *GenerateParams) validate(cfg config.DatasetConfig) error {
	p.Algorithm = strings.ToLower(strings.TrimSpace(p.Algorithm))
	p.Name = strings.TrimSpace(p.Name)

	if p.HandSize < 1 || (cfg.MaxHandSize > 0 && p.HandSize > cfg.MaxHandSize) {
		return fmt.Errorf("%w: %d", appErr.ErrInvalidHandSize, p.HandSize)
	}
	switch p.Algorithm {
	case AlgorithmExhaustive:
		if cfg.MaxItems > 0 && ExhaustiveCount(p.HandSize) > cfg.MaxItems {
			return fmt.Errorf("%w: %d hands of size %d exceed the limit of %d",
				appErr.ErrInvalidHandSize, ExhaustiveCount(p.HandSize), p.HandSize, cfg.MaxItems)
		}
	case AlgorithmRandom:
		if p.N < 1 || (cfg.MaxItems > 0 && p.N > cfg.MaxItems) {
			return fmt.Errorf("%w: n must be between 1 and %d", appErr.ErrInvalidHandSize, cfg.MaxItems)
		}
		if p.JokerRate < 0 || p.JokerRate > 1 {
			return fmt.Errorf("%w: joker rate %.2f", appErr.ErrInvalidHandSize, p.JokerRate)
		}
	default:
		return fmt.Errorf("%w: %q", appErr.ErrUnknownAlgorithm, p.Algorithm)
	}
	if p.Name == "" {
		p.Name = fmt.Sprintf("%s-%d", p.Algorithm, p.HandSize)
	}
	return nil
}

func (s *Service) hands(p GenerateParams) [][]game.Card {
	if p.Algorithm == AlgorithmRandom {
		return Random(s.engine.Registry(), p.HandSize, p.N, p.Seed, p.JokerRate)
	}
	var hands [][]game.Card
	for hand := range Exhaustive(p.HandSize) {
		hands = append(hands, hand)
	}
	return hands
}

// Generate builds a dataset, solves every hand and stores it split into
// train and test halves.
func (s *Service) Generate(ctx context.Context, p GenerateParams) (*model.Dataset, error) {
	if err := p.validate(s.cfg); err != nil {
		return nil, err
	}

	start := time.Now()
	hands := s.hands(p)
	solved, err := Solve(ctx, s.engine, hands, s.cfg.Workers)
	if err != nil {
		return nil, err
	}

	params, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	ds := model.Dataset{
		ID:         uuid.NewString(),
		Name:       p.Name,
		Algorithm:  p.Algorithm,
		HandSize:   p.HandSize,
		Seed:       p.Seed,
		ParamsJSON: datatypes.JSON(params),
		ItemCount:  len(solved),
	}

	splits := SplitIndexes(len(solved), p.Seed)
	items := make([]model.DatasetItem, len(solved))
	for i, info := range solved {
		items[i] = itemFromRow(ds.ID, splits[i], i, ToRow(info))
		if splits[i] == splitTest {
			ds.TestCount++
		} else {
			ds.TrainCount++
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ds).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.CreateInBatches(items, insertBatchSize).Error
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("dataset generated",
		zap.String("datasetID", ds.ID),
		zap.String("algorithm", ds.Algorithm),
		zap.Int("handSize", ds.HandSize),
		zap.Int("items", ds.ItemCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &ds, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Dataset, error) {
	var ds model.Dataset
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&ds).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrDatasetNotFound
		}
		return nil, err
	}
	return &ds, nil
}

func (f *ListItemsFilter) sanitize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Size <= 0 {
		f.Size = defaultItemPageSize
	}
	if f.Size > maxItemPageSize {
		f.Size = maxItemPageSize
	}
	f.Split = strings.ToLower(strings.TrimSpace(f.Split))
}

func (s *Service) itemQuery(ctx context.Context, id, split string) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.DatasetItem{}).Where("dataset_id = ?", id)
	if split != "" {
		q = q.Where("split = ?", split)
	}
	return q
}

// ListItems pages through the items of a dataset in generation order.
func (s *Service) ListItems(ctx context.Context, id string, filter ListItemsFilter) (*ListItemsResult, error) {
	filter.sanitize()
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	var total int64
	if err := s.itemQuery(ctx, id, filter.Split).Count(&total).Error; err != nil {
		return nil, err
	}
	result := &ListItemsResult{Items: make([]model.DatasetItem, 0), Total: total}
	if total == 0 {
		return result, nil
	}
	if err := s.itemQuery(ctx, id, filter.Split).
		Order("position ASC").
		Offset((filter.Page - 1) * filter.Size).
		Limit(filter.Size).
		Find(&result.Items).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// Items returns every item of a split in generation order.
func (s *Service) Items(ctx context.Context, id, split string) ([]model.DatasetItem, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	var items []model.DatasetItem
	if err := s.itemQuery(ctx, id, split).Order("position ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Reoptimize recomputes the optimal play of every stored item and returns
// how many rows changed.
func (s *Service) Reoptimize(ctx context.Context, id string) (int, error) {
	items, err := s.Items(ctx, id, "")
	if err != nil {
		return 0, err
	}

	hands := make([][]game.Card, len(items))
	for i, item := range items {
		hand, err := game.ParseCardList(item.Input)
		if err != nil {
			return 0, fmt.Errorf("item %d: %w", item.ID, err)
		}
		hands[i] = hand
	}
	solved, err := Solve(ctx, s.engine, hands, s.cfg.Workers)
	if err != nil {
		return 0, err
	}

	changed := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, info := range solved {
			row := ToRow(info)
			if row == rowFromItem(items[i]) {
				continue
			}
			logger.L().Info("optimal play changed",
				zap.Int64("itemID", items[i].ID),
				zap.String("before", items[i].Output),
				zap.String("after", row.Output),
			)
			if err := tx.Model(&model.DatasetItem{}).
				Where("id = ?", items[i].ID).
				Updates(map[string]interface{}{
					"output":     row.Output,
					"score":      row.Score,
					"hand":       row.Hand,
					"chips":      row.Chips,
					"multiplier": row.Multiplier,
					"remaining":  row.Remaining,
				}).Error; err != nil {
				return err
			}
			changed++
		}
		return tx.Model(&model.Dataset{}).Where("id = ?", id).Update("reoptimized_at", time.Now()).Error
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func itemFromRow(datasetID, split string, position int, row Row) model.DatasetItem {
	return model.DatasetItem{
		DatasetID:  datasetID,
		Split:      split,
		Position:   position,
		Input:      row.Input,
		Output:     row.Output,
		Score:      row.Score,
		Hand:       row.Hand,
		Chips:      row.Chips,
		Multiplier: row.Multiplier,
		Remaining:  row.Remaining,
	}
}

func rowFromItem(item model.DatasetItem) Row {
	return Row{
		Input:      item.Input,
		Output:     item.Output,
		Score:      item.Score,
		Hand:       item.Hand,
		Chips:      item.Chips,
		Multiplier: item.Multiplier,
		Remaining:  item.Remaining,
	}
}
