package training

import (
	"time"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/types"
)

// Report is the outcome of one prediction run.
type Report struct {
	RunID          string           `json:"run_id"`
	Target         model.EventKey   `json:"target"`
	Model          string           `json:"model"`
	TrainingEvents []model.EventKey `json:"training_events"`
	TrainingRows   int              `json:"training_rows"`
	Features       int              `json:"features"`
	Skipped        []model.Skip     `json:"skipped,omitempty"`
	Predictions    []types.Entry    `json:"predictions"`
	// Metrics is nil when the target race has no classification yet.
	Metrics   *Metrics  `json:"metrics,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Winner returns the top predicted driver, if any.
func (r *Report) Winner() (model.DriverIdentity, bool) {
	if len(r.Predictions) == 0 {
		return model.DriverIdentity{}, false
	}
	return r.Predictions[0].Driver, true
}
