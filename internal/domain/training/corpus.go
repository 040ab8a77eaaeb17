package training

import (
	"fmt"

	"github.com/okian/gridcast/internal/domain/features"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/schema"
	"github.com/okian/gridcast/internal/domain/table"
)

// EventMatrix is the derived matrix of one usable training event.
type EventMatrix struct {
	Event  model.EventKey
	Matrix features.Matrix
}

// Corpus is the stacked training data under one schema.
type Corpus struct {
	Schema schema.Schema
	X      *table.Table
	Y      []float64
	Events []model.EventKey
}

// BuildCorpus unions the feature columns of every event, fills columns an
// event lacks with missing values and stacks the rows. Column order is the
// order in which columns are first seen across events.
func BuildCorpus(matrices []EventMatrix) (*Corpus, error) {
	if len(matrices) == 0 {
		return nil, ErrNoTrainingData
	}
	parts := make([]*table.Table, len(matrices))
	c := &Corpus{}
	for i, m := range matrices {
		if len(m.Matrix.Label) != m.Matrix.Features.Len() {
			return nil, fmt.Errorf("%s: %d labels for %d rows", m.Event, len(m.Matrix.Label), m.Matrix.Features.Len())
		}
		parts[i] = m.Matrix.Features
		c.Y = append(c.Y, m.Matrix.Label...)
		c.Events = append(c.Events, m.Event)
	}
	x, err := table.Stack(parts...)
	if err != nil {
		return nil, fmt.Errorf("stack corpus: %w", err)
	}
	c.Schema = x.Schema()
	c.X = x
	return c, nil
}
