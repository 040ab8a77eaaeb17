// Package merge joins per-session tables of one grand prix into a single
// wide table keyed by driver identity.
package merge

import (
	"context"
	"fmt"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/schema"
	"github.com/okian/gridcast/internal/domain/table"
	"github.com/okian/gridcast/pkg/logger"
)

// Merger combines session tables in canonical session order.
type Merger struct {
	log logger.Logger
}

// Option configures a Merger.
type Option func(*Merger)

// WithLogger sets the logger used for skipped-session diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(m *Merger) {
		if l != nil {
			m.log = l
		}
	}
}

// New creates a Merger.
func New(opts ...Option) *Merger {
	m := &Merger{log: logger.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge outer-joins the sessions one-to-one on driver identity. The first
// session with rows seeds the table; drivers first seen in a later session
// are appended. A session that repeats an identity fails the merge. Sessions
// without rows are skipped. The result carries only canonical columns, in
// canonical order, and is empty when no session had data.
func (m *Merger) Merge(ctx context.Context, sessions map[model.Session]*table.Table) (*table.Table, error) {
	var (
		drivers []model.DriverIdentity
		rowOf   = make(map[model.DriverIdentity]int)
		cols    = make(map[string][]float64)
	)

	for _, s := range model.Sessions() {
		t := sessions[s]
		if t.Empty() {
			m.log.Info(ctx, "session has no data, skipping", logger.String("session", s.String()))
			continue
		}

		seen := make(map[model.DriverIdentity]bool, t.Len())
		for _, d := range t.Drivers() {
			if seen[d] {
				return nil, fmt.Errorf("%w: %s in %s", ErrDuplicateDriver, d, s)
			}
			seen[d] = true
			if _, ok := rowOf[d]; !ok {
				rowOf[d] = len(drivers)
				drivers = append(drivers, d)
				for name, col := range cols {
					cols[name] = append(col, table.Missing())
				}
			}
		}

		for _, name := range t.Schema().Names() {
			if _, ok := cols[name]; ok {
				// Another session already owns the column; the layout keeps names per session.
				return nil, fmt.Errorf("%w: %s", table.ErrDuplicateColumn, name)
			}
			col := make([]float64, len(drivers))
			for i := range col {
				col[i] = table.Missing()
			}
			src, _ := t.Column(name)
			for r, d := range t.Drivers() {
				col[rowOf[d]] = src[r]
			}
			cols[name] = col
		}
		m.log.Debug(ctx, "session merged",
			logger.String("session", s.String()),
			logger.Int("rows", t.Len()),
			logger.Int("drivers", len(drivers)),
		)
	}

	out := table.New(drivers)
	if len(drivers) == 0 {
		return out, nil
	}
	layout := schema.Project(func(name string) bool { _, ok := cols[name]; return ok })
	for _, name := range layout.Names() {
		if err := out.AddColumn(name, cols[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
