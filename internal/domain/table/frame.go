package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/schema"
)

const (
	// rowColumn keys frame rows so a table without metric columns keeps its length.
	rowColumn = "_row"

	groupColumn = "group"
	valueColumn = "value"
	// groupPrefix keeps group keys clear of gota's NA spellings.
	groupPrefix = "g:"
)

// Frame returns the table as a gota DataFrame: a row key column followed by
// one float series per metric column. Missing cells are NaN.
func (t *Table) Frame() dataframe.DataFrame {
	keys := make([]string, len(t.drivers))
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}
	cols := make([]series.Series, 0, len(t.cols)+1)
	cols = append(cols, series.New(keys, series.String, rowColumn))
	for c, name := range t.schema.Names() {
		cols = append(cols, series.New(t.cols[c], series.Float, name))
	}
	return dataframe.New(cols...)
}

// fromFrame reads the metric columns of df, in frame order, into a table
// over drivers.
func fromFrame(drivers []model.DriverIdentity, df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	out := New(drivers)
	for _, name := range df.Names() {
		if name == rowColumn {
			continue
		}
		if err := out.AddColumn(name, df.Col(name).Float()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Stack concatenates tables row-wise over the union of their columns, in
// order of first appearance. Cells of a column a table lacks are missing.
func Stack(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return New(nil), nil
	}
	df := tables[0].Frame()
	drivers := tables[0].Drivers()
	for _, t := range tables[1:] {
		df = df.Concat(t.Frame())
		drivers = append(drivers, t.drivers...)
	}
	out, err := fromFrame(drivers, df)
	if err != nil {
		return nil, fmt.Errorf("stack: %w", err)
	}
	return out, nil
}

// Reconcile returns a copy laid out exactly as s: columns outside s are
// dropped and columns the table lacks are filled with missing values.
func (t *Table) Reconcile(s schema.Schema) (*Table, error) {
	// Concatenating an empty frame of the target layout adds the absent columns.
	layout := make([]series.Series, 0, s.Len()+1)
	layout = append(layout, series.New([]string{}, series.String, rowColumn))
	for _, name := range s.Names() {
		layout = append(layout, series.New([]float64{}, series.Float, name))
	}
	keep := append([]string{rowColumn}, s.Names()...)
	df := t.Frame().Concat(dataframe.New(layout...)).Select(keep)
	out, err := fromFrame(t.Drivers(), df)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	return out, nil
}

// Aggregate groups values by key and reduces each group with every kind,
// in order. Missing values are dropped before grouping, so a key whose
// values are all missing has no entry. keys and values line up by index.
func Aggregate(keys []string, values []float64, kinds ...dataframe.AggregationType) (map[string][]float64, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("%w: %d keys for %d values", ErrLengthMismatch, len(keys), len(values))
	}
	var (
		groups  []string
		present []float64
	)
	for i, v := range values {
		if IsMissing(v) {
			continue
		}
		groups = append(groups, groupPrefix+keys[i])
		present = append(present, v)
	}
	out := make(map[string][]float64)
	if len(present) == 0 || len(kinds) == 0 {
		return out, nil
	}

	cols := make([]string, len(kinds))
	for i := range cols {
		cols[i] = valueColumn
	}
	df := dataframe.New(
		series.New(groups, series.String, groupColumn),
		series.New(present, series.Float, valueColumn),
	)
	agg := df.GroupBy(groupColumn).Aggregation(kinds, cols)
	if agg.Err != nil {
		return nil, fmt.Errorf("aggregate: %w", agg.Err)
	}

	names := agg.Col(groupColumn).Records()
	for _, g := range names {
		out[strings.TrimPrefix(g, groupPrefix)] = make([]float64, len(kinds))
	}
	for k, kind := range kinds {
		col := agg.Col(fmt.Sprintf("%s_%s", valueColumn, kind))
		if col.Err != nil {
			return nil, fmt.Errorf("aggregate %s: %w", kind, col.Err)
		}
		reduced := col.Float()
		for i, g := range names {
			out[strings.TrimPrefix(g, groupPrefix)][k] = reduced[i]
		}
	}
	return out, nil
}
