package benchmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ballmatro-service/internal/model"
	"ballmatro-service/internal/service/dataset"
	"ballmatro-service/internal/service/game"
	"ballmatro-service/internal/service/llm"
	appErr "ballmatro-service/pkg/errors"
	"ballmatro-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CompleterFactory returns the chat backend that answers as model.
type CompleterFactory func(model string) llm.Completer

type Service struct {
	db        *gorm.DB
	engine    *game.Engine
	datasets  *dataset.Service
	completer CompleterFactory
	rulesPath string
}

type SubmitParams struct {
	DatasetID string   `json:"datasetId"`
	Split     string   `json:"split"`
	Model     string   `json:"model"`
	Plays     []string `json:"plays"`
}

type RunResult struct {
	Run     model.BenchmarkRun     `json:"run"`
	Summary Summary                `json:"summary"`
	Scores  []model.BenchmarkScore `json:"scores"`
}

func NewService(db *gorm.DB, engine *game.Engine, datasets *dataset.Service, completer CompleterFactory, rulesPath string) *Service {
	return &Service{db: db, engine: engine, datasets: datasets, completer: completer, rulesPath: rulesPath}
}

func normalizeSplit(split string) string {
	split = strings.ToLower(strings.TrimSpace(split))
	if split == "" {
		return model.SplitTest
	}
	return split
}

// Submit scores one play per item of a dataset split and stores the run.
func (s *Service) Submit(ctx context.Context, p SubmitParams) (*RunResult, error) {
	p.Split = normalizeSplit(p.Split)
	items, err := s.datasets.Items(ctx, p.DatasetID, p.Split)
	if err != nil {
		return nil, err
	}
	if len(items) != len(p.Plays) {
		return nil, fmt.Errorf("%w: %d plays for %d items", appErr.ErrPlayCountMismatch, len(p.Plays), len(items))
	}

	attempts := make([]Attempt, len(items))
	for i, item := range items {
		optimal := item.Score
		attempts[i] = Attempt{Input: item.Input, Play: p.Plays[i], Optimal: &optimal}
	}
	scored, summary, err := Evaluate(ctx, s.engine, attempts)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}
	run := model.BenchmarkRun{
		ID:          uuid.NewString(),
		DatasetID:   p.DatasetID,
		Split:       p.Split,
		Model:       strings.TrimSpace(p.Model),
		SummaryJSON: datatypes.JSON(raw),
	}
	rows := make([]model.BenchmarkScore, len(scored))
	for i, sc := range scored {
		rows[i] = model.BenchmarkScore{
			RunID:        run.ID,
			ItemID:       items[i].ID,
			Position:     items[i].Position,
			Play:         sc.Play,
			Hand:         sc.Result.Hand.String(),
			Score:        sc.Result.Score,
			OptimalScore: sc.Optimal,
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("benchmark run stored",
		zap.String("runID", run.ID),
		zap.String("datasetID", run.DatasetID),
		zap.String("model", run.Model),
		zap.Int("totalScore", summary.TotalScore),
		zap.Float64("normalizedScore", summary.NormalizedScore),
		zap.Int("invalidHands", summary.InvalidHands),
	)
	return &RunResult{Run: run, Summary: summary, Scores: rows}, nil
}

// Attempt asks a chat model to play every item of a split and submits its
// answers.
func (s *Service) Attempt(ctx context.Context, datasetID, split, modelName string) (*RunResult, error) {
	if s.completer == nil {
		return nil, appErr.ErrLLMUnavailable
	}
	split = normalizeSplit(split)
	items, err := s.datasets.Items(ctx, datasetID, split)
	if err != nil {
		return nil, err
	}
	system, err := llm.SystemPrompt(s.rulesPath)
	if err != nil {
		return nil, err
	}

	completer := s.completer(modelName)
	plays := make([]string, len(items))
	for i, item := range items {
		answer, err := completer.Complete(ctx, system, item.Input)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", item.Position, err)
		}
		logger.L().Info("llm attempt",
			zap.Int("item", i+1),
			zap.Int("of", len(items)),
			zap.String("input", item.Input),
			zap.String("answer", answer),
		)
		plays[i] = answer
	}

	return s.Submit(ctx, SubmitParams{DatasetID: datasetID, Split: split, Model: modelName, Plays: plays})
}

func (s *Service) Get(ctx context.Context, runID string) (*RunResult, error) {
	var run model.BenchmarkRun
	if err := s.db.WithContext(ctx).Where("id = ?", runID).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrBenchmarkNotFound
		}
		return nil, err
	}

	result := &RunResult{Run: run}
	if len(run.SummaryJSON) > 0 {
		if err := json.Unmarshal(run.SummaryJSON, &result.Summary); err != nil {
			return nil, err
		}
	}
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("position ASC").
		Find(&result.Scores).Error; err != nil {
		return nil, err
	}
	return result, nil
}
