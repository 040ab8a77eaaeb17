// Package table holds the wide per-driver table used for grand prix results
// and feature matrices: identity rows plus named numeric columns, where a
// missing value is NaN and never zero.
package table

import (
	"fmt"
	"math"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/schema"
)

// Missing returns the missing-value marker.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing-value marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Table is a column-major wide table. The zero value is an empty table.
type Table struct {
	schema  schema.Schema
	drivers []model.DriverIdentity
	cols    [][]float64
}

// New creates a table with one row per driver and no columns.
func New(drivers []model.DriverIdentity) *Table {
	d := make([]model.DriverIdentity, len(drivers))
	copy(d, drivers)
	return &Table{schema: schema.New(), drivers: d}
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t == nil || len(t.drivers) == 0 }

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.drivers)
}

// Schema returns the ordered metric columns.
func (t *Table) Schema() schema.Schema { return t.schema }

// Drivers returns a copy of the row identities.
func (t *Table) Drivers() []model.DriverIdentity {
	out := make([]model.DriverIdentity, len(t.drivers))
	copy(out, t.drivers)
	return out
}

// Driver returns the identity of row i.
func (t *Table) Driver(i int) model.DriverIdentity { return t.drivers[i] }

// Has reports whether the table has the named column.
func (t *Table) Has(name string) bool { return t.schema.Has(name) }

// AddColumn appends a column. values must hold one entry per row.
func (t *Table) AddColumn(name string, values []float64) error {
	if t.schema.Has(name) {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
	}
	if len(values) != len(t.drivers) {
		return fmt.Errorf("%w: column %s has %d values for %d rows", ErrLengthMismatch, name, len(values), len(t.drivers))
	}
	col := make([]float64, len(values))
	copy(col, values)
	t.schema = t.schema.Append(name)
	t.cols = append(t.cols, col)
	return nil
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, bool) {
	i, ok := t.schema.Index(name)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(t.cols[i]))
	copy(out, t.cols[i])
	return out, true
}

// At returns the value of a cell, missing when the column is absent.
func (t *Table) At(row int, name string) float64 {
	i, ok := t.schema.Index(name)
	if !ok {
		return Missing()
	}
	return t.cols[i][row]
}

// Row returns the values of row i in schema order.
func (t *Table) Row(i int) []float64 {
	out := make([]float64, len(t.cols))
	for c, col := range t.cols {
		out[c] = col[i]
	}
	return out
}

// Matrix returns the rows as a dense [][]float64 in schema order.
func (t *Table) Matrix() [][]float64 {
	out := make([][]float64, len(t.drivers))
	for i := range t.drivers {
		out[i] = t.Row(i)
	}
	return out
}

// Select returns a new table with the given rows, in the given order.
func (t *Table) Select(rows []int) *Table {
	out := &Table{schema: t.schema, drivers: make([]model.DriverIdentity, len(rows)), cols: make([][]float64, len(t.cols))}
	for r, src := range rows {
		out.drivers[r] = t.drivers[src]
	}
	for c, col := range t.cols {
		dst := make([]float64, len(rows))
		for r, src := range rows {
			dst[r] = col[src]
		}
		out.cols[c] = dst
	}
	return out
}

// Map returns a copy with fn applied to every cell; fn receives the column name.
func (t *Table) Map(fn func(column string, v float64) float64) *Table {
	out := &Table{schema: t.schema, drivers: t.Drivers(), cols: make([][]float64, len(t.cols))}
	names := t.schema.Names()
	for c, col := range t.cols {
		dst := make([]float64, len(col))
		for r, v := range col {
			dst[r] = fn(names[c], v)
		}
		out.cols[c] = dst
	}
	return out
}
