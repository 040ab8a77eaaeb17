// Package types contains common types used across the application
package types

import "github.com/okian/gridcast/internal/domain/model"

// Entry is one line of a predicted classification.
type Entry struct {
	Rank   int                  `json:"rank"`
	Driver model.DriverIdentity `json:"driver"`
	Score  float64              `json:"score"`
	// Actual is the recorded race position, when the race has been run.
	Actual *int `json:"actual_position,omitempty"`
}
