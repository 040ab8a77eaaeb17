package features_test

import (
	"math"
	"testing"

	"github.com/okian/gridcast/internal/domain/features"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	nan = math.NaN()

	rus = model.DriverIdentity{Number: 63, Name: "George Russell", Team: "Mercedes"}
	ant = model.DriverIdentity{Number: 12, Name: "Andrea Kimi Antonelli", Team: "Mercedes"}
	sai = model.DriverIdentity{Number: 55, Name: "Carlos Sainz", Team: "Williams"}
)

type column struct {
	name   string
	values []float64
}

func build(drivers []model.DriverIdentity, cols ...column) *table.Table {
	t := table.New(drivers)
	for _, c := range cols {
		if err := t.AddColumn(c.name, c.values); err != nil {
			panic(err)
		}
	}
	return t
}

func weekend() []column {
	return []column{
		{"Practice 3_position", []float64{2, 1, 3}},
		{"Practice 3_best_lap", []float64{81, 80, 82}},
		{"Practice 3_avg_lap", []float64{82, 81, nan}},
		{"Practice 3_best_sector_1", []float64{26, 25.5, nan}},
		{"Qualifying_position", []float64{1, 2, 3}},
		{"Qualifying_best_lap", []float64{79, 79.5, 80}},
		{"Qualifying_avg_lap", []float64{80, 80.5, 81}},
		{"Race_position", []float64{1, nan, 2}},
	}
}

func TestDerive(t *testing.T) {
	d := features.New()

	Convey("Given a weekend with a driver who did not finish the race", t, func() {
		tb := build([]model.DriverIdentity{rus, ant, sai}, weekend()...)

		Convey("When deriving training features", func() {
			m, err := d.Derive(tb)
			So(err, ShouldBeNil)
			f := m.Features

			Convey("Then the unclassified row is dropped and the label lines up", func() {
				So(m.Identities(), ShouldResemble, []model.DriverIdentity{rus, sai})
				So(m.Label, ShouldResemble, []float64{1, 2})
				So(m.HasLabel(), ShouldBeTrue)
			})

			Convey("Then participation flags are 0 for absent sessions", func() {
				So(f.At(0, "did_Practice_1"), ShouldEqual, 0)
				So(f.At(1, "did_Sprint"), ShouldEqual, 0)
				So(f.At(0, "did_Practice_3"), ShouldEqual, 1)
				So(f.At(1, "did_Qualifying"), ShouldEqual, 1)
			})

			Convey("Then ratios use the fastest remaining driver of this event", func() {
				So(f.At(0, "Practice 3_rel_to_fastest"), ShouldEqual, 1)
				So(f.At(1, "Practice 3_rel_to_fastest"), ShouldAlmostEqual, 82.0/81.0)
				So(f.Has("Practice 1_rel_to_fastest"), ShouldBeFalse)
			})

			Convey("Then consistency stays missing where the average is missing", func() {
				So(f.At(0, "Practice 3_consistency"), ShouldEqual, 1)
				So(math.IsNaN(f.At(1, "Practice 3_consistency")), ShouldBeTrue)
			})

			Convey("Then deltas compare qualifying with practice", func() {
				So(f.At(0, "Quali_vs_P3_pos_delta"), ShouldEqual, -1)
				So(f.At(1, "Quali_vs_P3_pos_delta"), ShouldEqual, 0)
				So(f.At(0, "Quali_minus_Practice_3_best"), ShouldEqual, -2)
				So(f.At(0, "Quali_minus_Practice_3_avg"), ShouldEqual, -2)
				So(f.Has("Quali_minus_Practice_1_best"), ShouldBeFalse)
				So(f.Has("Sprint_minus_Quali_best"), ShouldBeFalse)
			})

			Convey("Then sector aggregates skip missing operands", func() {
				So(f.At(0, "best_sector_1"), ShouldEqual, 26)
				So(math.IsNaN(f.At(1, "best_sector_1")), ShouldBeTrue)
				So(f.Has("avg_sector_1"), ShouldBeFalse)
				So(f.Has("best_sector_2"), ShouldBeFalse)
			})

			Convey("Then team-relative laps use the team median of the kept rows", func() {
				So(f.At(0, "Practice 3_best_lap_vs_team"), ShouldEqual, 1)
				So(f.At(1, "Qualifying_best_lap_vs_team"), ShouldEqual, 1)
			})

			Convey("Then source metrics are kept as features, the label and identity are not", func() {
				So(f.At(1, "Qualifying_best_lap"), ShouldEqual, 80)
				So(f.Has("Race_position"), ShouldBeFalse)
				So(f.Has("driver_name"), ShouldBeFalse)
			})
		})

		Convey("When the source columns arrive in another order", func() {
			cols := weekend()
			for i, j := 0, len(cols)-1; i < j; i, j = i+1, j-1 {
				cols[i], cols[j] = cols[j], cols[i]
			}
			a, errA := d.Derive(tb)
			b, errB := d.Derive(build([]model.DriverIdentity{rus, ant, sai}, cols...))

			Convey("Then the feature layout is the same", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(b.Features.Schema().Names(), ShouldResemble, a.Features.Schema().Names())
			})
		})
	})

	Convey("Given team mates with different pace", t, func() {
		tb := build([]model.DriverIdentity{rus, ant, sai},
			column{"Practice 1_best_lap", []float64{90, 92, 95}},
		)

		Convey("Then each lap is divided by the team median", func() {
			m, err := d.Derive(tb)
			So(err, ShouldBeNil)
			So(m.Features.At(0, "Practice 1_best_lap_vs_team"), ShouldAlmostEqual, 90.0/91.0)
			So(m.Features.At(1, "Practice 1_best_lap_vs_team"), ShouldAlmostEqual, 92.0/91.0)
			So(m.Features.At(2, "Practice 1_best_lap_vs_team"), ShouldEqual, 1)
			So(m.Label, ShouldBeNil)
		})
	})

	Convey("Given a team without a single timed lap", t, func() {
		tb := build([]model.DriverIdentity{rus, ant, sai},
			column{"Qualifying_best_lap", []float64{88, math.NaN(), math.NaN()}},
		)

		Convey("Then its ratio is missing and the timed team is unaffected", func() {
			m, err := d.Derive(tb)
			So(err, ShouldBeNil)
			So(m.Features.At(0, "Qualifying_best_lap_vs_team"), ShouldEqual, 1)
			So(math.IsNaN(m.Features.At(1, "Qualifying_best_lap_vs_team")), ShouldBeTrue)
			So(math.IsNaN(m.Features.At(2, "Qualifying_best_lap_vs_team")), ShouldBeTrue)
		})
	})

	Convey("Given practice sessions with sector times", t, func() {
		tb := build([]model.DriverIdentity{rus},
			column{"Practice 1_best_lap", []float64{90}},
			column{"Practice 1_avg_sector_2", []float64{30}},
			column{"Practice 2_best_lap", []float64{89}},
			column{"Practice 2_avg_sector_2", []float64{nan}},
			column{"Practice 3_avg_sector_2", []float64{31}},
		)

		Convey("Then practice deltas and mean sectors are derived", func() {
			m, err := d.Derive(tb)
			So(err, ShouldBeNil)
			So(m.Features.At(0, "Practice_2_minus_Practice_1_best"), ShouldEqual, -1)
			So(m.Features.Has("Practice_3_minus_Practice_2_best"), ShouldBeFalse)
			So(m.Features.At(0, "avg_sector_2"), ShouldEqual, 30.5)
		})
	})
}

func TestDeriveTarget(t *testing.T) {
	d := features.New()

	Convey("Given an upcoming race without a classification", t, func() {
		tb := build([]model.DriverIdentity{rus, sai},
			column{"Qualifying_best_lap", []float64{79, 80}},
		)

		Convey("When deriving the prediction view", func() {
			m, err := d.DeriveTarget(tb)

			Convey("Then every driver is kept and there is no label", func() {
				So(err, ShouldBeNil)
				So(m.Features.Len(), ShouldEqual, 2)
				So(m.HasLabel(), ShouldBeFalse)
			})
		})
	})

	Convey("Given a race column that is entirely missing", t, func() {
		tb := build([]model.DriverIdentity{rus, sai},
			column{"Qualifying_best_lap", []float64{79, 80}},
			column{"Race_position", []float64{nan, nan}},
		)

		Convey("Then the prediction view still keeps every driver", func() {
			m, err := d.DeriveTarget(tb)
			So(err, ShouldBeNil)
			So(m.Features.Len(), ShouldEqual, 2)
			So(m.HasLabel(), ShouldBeFalse)
		})

		Convey("Then the training view keeps nothing", func() {
			m, err := d.Derive(tb)
			So(err, ShouldBeNil)
			So(m.Features.Len(), ShouldEqual, 0)
			So(m.HasLabel(), ShouldBeFalse)
		})
	})
}
