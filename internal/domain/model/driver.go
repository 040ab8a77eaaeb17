package model

import (
	"fmt"
	"time"
)

// DriverIdentity is the join key across the sessions of one event.
type DriverIdentity struct {
	Number int    `json:"driver_number"`
	Name   string `json:"driver_name"`
	Team   string `json:"team_name"`
}

func (d DriverIdentity) String() string {
	return fmt.Sprintf("#%d %s (%s)", d.Number, d.Name, d.Team)
}

// Less orders identities by number, then name, then team.
func (d DriverIdentity) Less(o DriverIdentity) bool {
	if d.Number != o.Number {
		return d.Number < o.Number
	}
	if d.Name != o.Name {
		return d.Name < o.Name
	}
	return d.Team < o.Team
}

// LapRecord is one timed lap. Missing timings are NaN.
type LapRecord struct {
	Driver      DriverIdentity
	LapNumber   int
	LapDuration float64
	Sectors     [3]float64
	PitOutLap   bool
}

// PositionObservation is one classification sample of a race session.
type PositionObservation struct {
	DriverNumber int
	Date         time.Time
	Position     int
}

// SessionMetricRow is one driver's summary of a timed session.
type SessionMetricRow struct {
	Driver     DriverIdentity
	Position   int
	BestLap    float64
	AvgLap     float64
	BestSector [3]float64
	AvgSector  [3]float64
}

// RaceResultRow is one driver's final race classification.
type RaceResultRow struct {
	Driver   DriverIdentity
	Position int
}
