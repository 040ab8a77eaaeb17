// Package features turns a grand prix table into a model-ready feature
// matrix with an optional Race_position label.
package features

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/schema"
	"github.com/okian/gridcast/internal/domain/table"
)

// Matrix is the derived features of one event. Features rows line up with
// Label when a label is present.
type Matrix struct {
	Features *table.Table
	Label    []float64
}

// HasLabel reports whether the matrix carries a usable label.
func (m Matrix) HasLabel() bool {
	for _, v := range m.Label {
		if !table.IsMissing(v) {
			return true
		}
	}
	return false
}

// Identities returns the driver of every row.
func (m Matrix) Identities() []model.DriverIdentity {
	return m.Features.Drivers()
}

// Deriver computes engineered features.
type Deriver struct{}

// New creates a Deriver.
func New() *Deriver { return &Deriver{} }

// Derive builds the training view of a table: rows without a race
// classification are dropped when the classification column exists.
func (d *Deriver) Derive(t *table.Table) (Matrix, error) {
	return d.derive(t, true)
}

// DeriveTarget builds the prediction view of a table. When the race has no
// classification yet every row is kept and the label is nil.
func (d *Deriver) DeriveTarget(t *table.Table) (Matrix, error) {
	label, ok := t.Column(schema.Label)
	if !ok || !(Matrix{Label: label}).HasLabel() {
		return d.derive(t, false)
	}
	return d.derive(t, true)
}

func (d *Deriver) derive(t *table.Table, useLabel bool) (Matrix, error) {
	src := t
	var label []float64
	if useLabel && t.Has(schema.Label) {
		col, _ := t.Column(schema.Label)
		keep := make([]int, 0, len(col))
		for i, v := range col {
			if !table.IsMissing(v) {
				keep = append(keep, i)
			}
		}
		src = t.Select(keep)
		label, _ = src.Column(schema.Label)
	}

	b := &builder{src: src, out: table.New(src.Drivers())}
	for _, name := range sourceColumns(src) {
		if name == schema.Label {
			continue
		}
		col, _ := src.Column(name)
		b.add(name, col)
	}
	b.sessionFeatures()
	b.deltas()
	b.sectors()
	b.teamRelative()
	if b.err != nil {
		return Matrix{}, b.err
	}
	return Matrix{Features: b.out, Label: label}, nil
}

// sourceColumns lists the table's columns with the canonical ones first in
// canonical order, so the feature layout depends only on which columns exist.
func sourceColumns(t *table.Table) []string {
	names := schema.Project(t.Has).Names()
	canonical := schema.Canonical()
	for _, n := range t.Schema().Names() {
		if !canonical.Has(n) {
			names = append(names, n)
		}
	}
	return names
}

// builder accumulates feature columns and keeps the first error.
type builder struct {
	src *table.Table
	out *table.Table
	err error
}

func (b *builder) add(name string, values []float64) {
	if b.err != nil {
		return
	}
	if err := b.out.AddColumn(name, values); err != nil {
		b.err = fmt.Errorf("feature %s: %w", name, err)
	}
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *builder) col(s model.Session, m schema.Metric) ([]float64, bool) {
	return b.src.Column(schema.Column(s, m))
}

// combine applies fn row by row to two columns; missing propagates.
func combine(a, c []float64, fn func(x, y float64) float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = fn(a[i], c[i])
	}
	return out
}

func minus(x, y float64) float64 { return x - y }

func timedSessions() []model.Session {
	return []model.Session{model.Practice1, model.Practice2, model.Practice3, model.Qualifying, model.Sprint}
}

func practices() []model.Session {
	return []model.Session{model.Practice1, model.Practice2, model.Practice3}
}

// sessionFeatures adds participation flags, the ratio to the event's fastest
// lap and the average-to-best gap for every timed session.
func (b *builder) sessionFeatures() {
	n := b.src.Len()
	for _, s := range timedSessions() {
		best, hasBest := b.col(s, schema.BestLap)

		did := make([]float64, n)
		if hasBest {
			for i, v := range best {
				if !table.IsMissing(v) {
					did[i] = 1
				}
			}
		}
		b.add("did_"+schema.FlagPrefix(s), did)

		if hasBest {
			fastest := table.Min(best...)
			rel := make([]float64, n)
			for i, v := range best {
				rel[i] = v / fastest
			}
			b.add(s.String()+"_rel_to_fastest", rel)
		}

		if avg, ok := b.col(s, schema.AvgLap); ok && hasBest {
			b.add(s.String()+"_consistency", combine(avg, best, minus))
		}
	}
}

// deltas adds the session-to-session lap and position differences.
func (b *builder) deltas() {
	if q, ok := b.col(model.Qualifying, schema.Position); ok {
		if p3, ok := b.col(model.Practice3, schema.Position); ok {
			b.add("Quali_vs_P3_pos_delta", combine(q, p3, minus))
		}
	}

	qBest, hasQBest := b.col(model.Qualifying, schema.BestLap)
	qAvg, hasQAvg := b.col(model.Qualifying, schema.AvgLap)
	for _, p := range practices() {
		if best, ok := b.col(p, schema.BestLap); ok && hasQBest {
			b.add("Quali_minus_"+schema.FlagPrefix(p)+"_best", combine(qBest, best, minus))
		}
		if avg, ok := b.col(p, schema.AvgLap); ok && hasQAvg {
			b.add("Quali_minus_"+schema.FlagPrefix(p)+"_avg", combine(qAvg, avg, minus))
		}
	}

	if best, ok := b.col(model.Sprint, schema.BestLap); ok && hasQBest {
		b.add("Sprint_minus_Quali_best", combine(best, qBest, minus))
	}
	if avg, ok := b.col(model.Sprint, schema.AvgLap); ok && hasQAvg {
		b.add("Sprint_minus_Quali_avg", combine(avg, qAvg, minus))
	}

	for _, pair := range [][2]model.Session{{model.Practice1, model.Practice2}, {model.Practice2, model.Practice3}} {
		from, to := pair[0], pair[1]
		prefix := schema.FlagPrefix(to) + "_minus_" + schema.FlagPrefix(from)
		for _, m := range []schema.Metric{schema.BestLap, schema.AvgLap} {
			a, okA := b.col(from, m)
			c, okC := b.col(to, m)
			if !okA || !okC {
				continue
			}
			suffix := "_best"
			if m == schema.AvgLap {
				suffix = "_avg"
			}
			b.add(prefix+suffix, combine(c, a, minus))
		}
	}
}

// sectors adds the best and mean sector times across free practice.
func (b *builder) sectors() {
	n := b.src.Len()
	for i := 1; i <= 3; i++ {
		for _, agg := range []struct {
			metric schema.Metric
			name   string
			reduce func(...float64) float64
		}{
			{schema.BestSector(i), fmt.Sprintf("best_sector_%d", i), table.Min},
			{schema.AvgSector(i), fmt.Sprintf("avg_sector_%d", i), table.Mean},
		} {
			var cols [][]float64
			for _, p := range practices() {
				if c, ok := b.col(p, agg.metric); ok {
					cols = append(cols, c)
				}
			}
			if len(cols) == 0 {
				continue
			}
			out := make([]float64, n)
			row := make([]float64, len(cols))
			for r := 0; r < n; r++ {
				for c := range cols {
					row[c] = cols[c][r]
				}
				out[r] = agg.reduce(row...)
			}
			b.add(agg.name, out)
		}
	}
}

// teamRelative adds each best lap divided by the median best lap of the
// driver's team in the same session.
func (b *builder) teamRelative() {
	drivers := b.src.Drivers()
	for _, s := range []model.Session{model.Practice1, model.Practice2, model.Practice3, model.Qualifying} {
		best, ok := b.col(s, schema.BestLap)
		if !ok {
			continue
		}
		teams := make([]string, len(drivers))
		for i, d := range drivers {
			teams[i] = d.Team
		}
		medians, err := table.Aggregate(teams, best, dataframe.Aggregation_MEDIAN)
		if err != nil {
			b.fail(fmt.Errorf("team median %s: %w", s, err))
			return
		}
		out := make([]float64, len(best))
		for i, d := range drivers {
			out[i] = table.Missing()
			if m, ok := medians[d.Team]; ok {
				out[i] = best[i] / m[0]
			}
		}
		b.add(schema.Column(s, schema.BestLap)+"_vs_team", out)
	}
}
