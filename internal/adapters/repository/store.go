// Package repository keeps the history of prediction runs.
package repository

import (
	"context"
	"time"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/training"
	"github.com/okian/gridcast/internal/domain/types"
)

// Run is the summary row of one prediction run.
type Run struct {
	RunID          string                `json:"run_id"`
	Target         model.EventKey        `json:"target"`
	Model          string                `json:"model"`
	TrainingEvents int                   `json:"training_events"`
	TrainingRows   int                   `json:"training_rows"`
	Features       int                   `json:"features"`
	Skipped        int                   `json:"skipped"`
	Winner         *model.DriverIdentity `json:"winner,omitempty"`
	MAE            *float64              `json:"mae,omitempty"`
	R2             *float64              `json:"r2,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// Store provides read/write access to the prediction history.
type Store interface {
	// Record persists a report and its ranked entries in one transaction.
	Record(ctx context.Context, r *training.Report) error

	// Recent returns up to limit runs, newest first.
	// Returns ErrInvalidLimit if limit is out of range.
	Recent(ctx context.Context, limit int) ([]Run, error)

	// Predictions returns the ranked entries of a run.
	// Returns ErrNotFound if the run is unknown.
	Predictions(ctx context.Context, runID string) ([]types.Entry, error)

	Close() error
}
