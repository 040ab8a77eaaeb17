// Package schema declares the ordered column layout of grand prix tables and
// feature matrices.
package schema

import (
	"strings"

	"github.com/okian/gridcast/internal/domain/model"
)

// Identity column names, in file order.
const (
	DriverNumber = "driver_number"
	DriverName   = "driver_name"
	TeamName     = "team_name"
)

// IdentityColumns lists the identity columns in file order.
func IdentityColumns() []string {
	return []string{DriverNumber, DriverName, TeamName}
}

// Metric is the per-session suffix of a column name.
type Metric string

const (
	Position    Metric = "position"
	BestLap     Metric = "best_lap"
	AvgLap      Metric = "avg_lap"
	BestSector1 Metric = "best_sector_1"
	AvgSector1  Metric = "avg_sector_1"
	BestSector2 Metric = "best_sector_2"
	AvgSector2  Metric = "avg_sector_2"
	BestSector3 Metric = "best_sector_3"
	AvgSector3  Metric = "avg_sector_3"
)

// BestSector returns the best_sector_<i> metric for i in 1..3.
func BestSector(i int) Metric {
	return [...]Metric{BestSector1, BestSector2, BestSector3}[i-1]
}

// AvgSector returns the avg_sector_<i> metric for i in 1..3.
func AvgSector(i int) Metric {
	return [...]Metric{AvgSector1, AvgSector2, AvgSector3}[i-1]
}

// SessionMetrics lists the metrics a session contributes, in column order.
// The race only contributes its classification.
func SessionMetrics(s model.Session) []Metric {
	if s == model.Race {
		return []Metric{Position}
	}
	return []Metric{
		Position, BestLap, AvgLap,
		BestSector1, AvgSector1,
		BestSector2, AvgSector2,
		BestSector3, AvgSector3,
	}
}

// Column returns the column name of a session metric, e.g. "Practice 1_best_lap".
func Column(s model.Session, m Metric) string {
	return s.String() + "_" + string(m)
}

// Label is the column the model learns to predict.
var Label = Column(model.Race, Position) //nolint:gochecknoglobals // derived constant

// FlagPrefix returns the session name with spaces replaced by underscores,
// as used in derived feature names ("Practice_1").
func FlagPrefix(s model.Session) string {
	return strings.ReplaceAll(s.String(), " ", "_")
}

// Schema is an ordered set of unique column names.
type Schema struct {
	names []string
	index map[string]int
}

// New builds a schema; repeated names keep their first position.
func New(names ...string) Schema {
	s := Schema{index: make(map[string]int, len(names))}
	for _, n := range names {
		if _, ok := s.index[n]; ok {
			continue
		}
		s.index[n] = len(s.names)
		s.names = append(s.names, n)
	}
	return s
}

// Names returns a copy of the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.names) }

// Has reports whether the schema contains name.
func (s Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Index returns the position of name.
func (s Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Append returns a new schema with names added at the end.
func (s Schema) Append(names ...string) Schema {
	return New(append(s.Names(), names...)...)
}

// Canonical is the full metric layout of a grand prix table, identity
// columns excluded: every session in weekend order, each with its metrics.
func Canonical() Schema {
	var names []string
	for _, s := range model.Sessions() {
		for _, m := range SessionMetrics(s) {
			names = append(names, Column(s, m))
		}
	}
	return New(names...)
}

// Project keeps the canonical columns for which present reports true, in
// canonical order. Columns outside the canonical layout are never included.
func Project(present func(name string) bool) Schema {
	var names []string
	for _, n := range Canonical().names {
		if present(n) {
			names = append(names, n)
		}
	}
	return New(names...)
}
