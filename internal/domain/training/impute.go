package training

import (
	"github.com/okian/gridcast/internal/domain/schema"
	"github.com/okian/gridcast/internal/domain/table"
)

// Medians holds one fill value per training column.
type Medians struct {
	schema schema.Schema
	values []float64
}

// ComputeMedians takes the median of the present values of every column. A
// column without any present value gets 0.
func ComputeMedians(t *table.Table) Medians {
	s := t.Schema()
	m := Medians{schema: s, values: make([]float64, s.Len())}
	for i, name := range s.Names() {
		col, _ := t.Column(name)
		v := table.Median(col)
		if table.IsMissing(v) {
			v = 0
		}
		m.values[i] = v
	}
	return m
}

// Value returns the fill value of a column.
func (m Medians) Value(name string) (float64, bool) {
	i, ok := m.schema.Index(name)
	if !ok {
		return 0, false
	}
	return m.values[i], true
}

// Fill replaces missing cells of columns known to m with their median.
// Columns m does not know are left as they are.
func (m Medians) Fill(t *table.Table) *table.Table {
	return t.Map(func(column string, v float64) float64 {
		if !table.IsMissing(v) {
			return v
		}
		if fill, ok := m.Value(column); ok {
			return fill
		}
		return v
	})
}
