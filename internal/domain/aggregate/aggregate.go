// Package aggregate reduces raw lap and position telemetry of one session to
// one summary row per driver.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/rank"
	"github.com/okian/gridcast/internal/domain/schema"
	"github.com/okian/gridcast/internal/domain/table"
)

// minMean reduces a lap or sector series to its best and average value.
var minMean = []dataframe.AggregationType{dataframe.Aggregation_MIN, dataframe.Aggregation_MEAN}

// Laps summarizes the timed laps of one session. Pit-out laps are dropped,
// lap and sector statistics are computed independently over the values that
// are present, and drivers without a single valid lap time are left out.
// Position is the dense rank of the best lap. Rows come back in position
// order, ties broken by driver identity.
func Laps(laps []model.LapRecord) ([]model.SessionMetricRow, error) {
	index := make(map[model.DriverIdentity]string)
	var (
		order   []model.DriverIdentity
		keys    []string
		lapTime []float64
		sectors [3][]float64
	)
	for _, lap := range laps {
		if lap.PitOutLap {
			continue
		}
		key, ok := index[lap.Driver]
		if !ok {
			key = strconv.Itoa(len(order))
			index[lap.Driver] = key
			order = append(order, lap.Driver)
		}
		keys = append(keys, key)
		lapTime = append(lapTime, lap.LapDuration)
		for i, v := range lap.Sectors {
			sectors[i] = append(sectors[i], v)
		}
	}

	lapStats, err := table.Aggregate(keys, lapTime, minMean...)
	if err != nil {
		return nil, fmt.Errorf("lap times: %w", err)
	}
	var sectorStats [3]map[string][]float64
	for i := range sectors {
		if sectorStats[i], err = table.Aggregate(keys, sectors[i], minMean...); err != nil {
			return nil, fmt.Errorf("sector %d: %w", i+1, err)
		}
	}

	rows := make([]model.SessionMetricRow, 0, len(order))
	for _, d := range order {
		key := index[d]
		st, ok := lapStats[key]
		if !ok {
			continue
		}
		row := model.SessionMetricRow{Driver: d, BestLap: st[0], AvgLap: st[1]}
		for i := range sectorStats {
			row.BestSector[i], row.AvgSector[i] = math.NaN(), math.NaN()
			if st, ok := sectorStats[i][key]; ok {
				row.BestSector[i], row.AvgSector[i] = st[0], st[1]
			}
		}
		rows = append(rows, row)
	}

	best := make([]float64, len(rows))
	for i, r := range rows {
		best[i] = r.BestLap
	}
	for i, p := range rank.Dense(best) {
		rows[i].Position = p
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Position != rows[j].Position {
			return rows[i].Position < rows[j].Position
		}
		return rows[i].Driver.Less(rows[j].Driver)
	})
	return rows, nil
}

// Race keeps the most recent classification sample of every driver and
// attaches name and team from the roster. Drivers missing from the roster
// are dropped. When two samples share a timestamp the earlier one in input
// order wins.
func Race(observations []model.PositionObservation, roster []model.DriverIdentity) []model.RaceResultRow {
	byNumber := make(map[int]model.DriverIdentity, len(roster))
	for _, d := range roster {
		byNumber[d.Number] = d
	}

	latest := make(map[int]model.PositionObservation)
	for _, o := range observations {
		cur, ok := latest[o.DriverNumber]
		if !ok || o.Date.After(cur.Date) {
			latest[o.DriverNumber] = o
		}
	}

	rows := make([]model.RaceResultRow, 0, len(latest))
	for number, o := range latest {
		d, ok := byNumber[number]
		if !ok {
			continue
		}
		rows = append(rows, model.RaceResultRow{Driver: d, Position: o.Position})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Position != rows[j].Position {
			return rows[i].Position < rows[j].Position
		}
		return rows[i].Driver.Less(rows[j].Driver)
	})
	return rows
}

// SessionTable lays out session rows under their canonical column names.
func SessionTable(s model.Session, rows []model.SessionMetricRow) *table.Table {
	drivers := make([]model.DriverIdentity, len(rows))
	for i, r := range rows {
		drivers[i] = r.Driver
	}
	t := table.New(drivers)
	for _, m := range schema.SessionMetrics(s) {
		col := make([]float64, len(rows))
		for i, r := range rows {
			col[i] = metricValue(r, m)
		}
		_ = t.AddColumn(schema.Column(s, m), col) // names are unique and lengths match
	}
	return t
}

// RaceTable lays out race rows as a single Race_position column.
func RaceTable(rows []model.RaceResultRow) *table.Table {
	drivers := make([]model.DriverIdentity, len(rows))
	col := make([]float64, len(rows))
	for i, r := range rows {
		drivers[i] = r.Driver
		col[i] = float64(r.Position)
	}
	t := table.New(drivers)
	_ = t.AddColumn(schema.Label, col)
	return t
}

func metricValue(r model.SessionMetricRow, m schema.Metric) float64 {
	switch m {
	case schema.Position:
		return float64(r.Position)
	case schema.BestLap:
		return r.BestLap
	case schema.AvgLap:
		return r.AvgLap
	}
	for i := 1; i <= 3; i++ {
		switch m {
		case schema.BestSector(i):
			return r.BestSector[i-1]
		case schema.AvgSector(i):
			return r.AvgSector[i-1]
		}
	}
	return math.NaN()
}
