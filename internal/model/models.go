package model

import (
	"time"

	"gorm.io/datatypes"
)

// Operators

type Admin struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string
	Status       string `gorm:"default:active;not null"` // active/disabled
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Datasets

const (
	SplitTrain = "train"
	SplitTest  = "test"
)

type Dataset struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	Name          string         `gorm:"size:128" json:"name"`
	Algorithm     string         `gorm:"size:32" json:"algorithm"` // exhaustive/random
	HandSize      int            `json:"handSize"`
	Seed          int64          `json:"seed"`
	ParamsJSON    datatypes.JSON `gorm:"type:jsonb" json:"params"`
	ItemCount     int            `json:"itemCount"`
	TrainCount    int            `json:"trainCount"`
	TestCount     int            `json:"testCount"`
	ReoptimizedAt *time.Time     `json:"reoptimizedAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// DatasetItem is one hand with its optimal play. Card lists are stored in
// bracketed list notation.
type DatasetItem struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DatasetID  string    `gorm:"size:36;index:idx_item_dataset_split" json:"datasetId"`
	Split      string    `gorm:"size:8;index:idx_item_dataset_split" json:"split"`
	Position   int       `json:"position"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	Score      int       `json:"score"`
	Hand       string    `gorm:"size:32" json:"hand"`
	Chips      int       `json:"chips"`
	Multiplier int       `json:"multiplier"`
	Remaining  string    `json:"remaining"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Benchmarks

type BenchmarkRun struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	DatasetID   string         `gorm:"size:36;index" json:"datasetId"`
	Split       string         `gorm:"size:8" json:"split"`
	Model       string         `gorm:"size:128" json:"model"`
	SummaryJSON datatypes.JSON `gorm:"type:jsonb" json:"-"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type BenchmarkScore struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID        string    `gorm:"size:36;index" json:"runId"`
	ItemID       int64     `json:"itemId"`
	Position     int       `json:"position"`
	Play         string    `json:"play"`
	Hand         string    `gorm:"size:32" json:"hand"`
	Score        int       `json:"score"`
	OptimalScore int       `json:"optimalScore"`
	CreatedAt    time.Time `json:"createdAt"`
}
