package model_test

import (
	"testing"
	"time"

	model "github.com/okian/gridcast/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSession(t *testing.T) {
	convey.Convey("Given the canonical session list", t, func() {
		sessions := model.Sessions()

		convey.Convey("Then it follows the weekend order with provider names", func() {
			names := make([]string, len(sessions))
			for i, s := range sessions {
				names[i] = s.String()
			}
			convey.So(names, convey.ShouldResemble, []string{
				"Practice 1", "Practice 2", "Practice 3", "Qualifying", "Sprint", "Race",
			})
		})

		convey.Convey("Then provider names parse back", func() {
			s, ok := model.ParseSession("Qualifying")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(s, convey.ShouldEqual, model.Qualifying)

			_, ok = model.ParseSession("Sprint Qualifying")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then only free practice reports Practice", func() {
			convey.So(model.Practice3.Practice(), convey.ShouldBeTrue)
			convey.So(model.Qualifying.Practice(), convey.ShouldBeFalse)
		})
	})
}

func TestEventOrdering(t *testing.T) {
	convey.Convey("Given events of two seasons", t, func() {
		imola := model.Event{
			EventKey: model.EventKey{Country: "Italy", Location: "Imola", Year: 2025},
			Date:     time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC),
		}
		miami := model.Event{
			EventKey: model.EventKey{Country: "United States", Location: "Miami", Year: 2025},
			Date:     time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
		}
		monza := model.Event{EventKey: model.EventKey{Country: "Italy", Location: "Monza", Year: 2024}}
		bahrain := model.Event{EventKey: model.EventKey{Country: "Bahrain", Location: "Sakhir", Year: 2025}}

		convey.Convey("When sorting", func() {
			events := []model.Event{imola, bahrain, miami, monza}
			model.SortEvents(events)

			convey.Convey("Then earlier seasons come first and dates decide within a season", func() {
				convey.So(events[0], convey.ShouldResemble, monza)
				convey.So(miami.Before(imola), convey.ShouldBeTrue)
				convey.So(imola.Before(miami), convey.ShouldBeFalse)
			})

			convey.Convey("Then undated events fall back to country and location", func() {
				convey.So(bahrain.Before(imola), convey.ShouldBeTrue)
				convey.So(imola.Before(imola), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When matching free-text keys", func() {
			convey.So(imola.Matches(model.EventKey{Country: " italy", Location: "IMOLA", Year: 2025}), convey.ShouldBeTrue)
			convey.So(imola.Matches(model.EventKey{Country: "Italy", Location: "Imola", Year: 2024}), convey.ShouldBeFalse)
		})
	})
}

func TestCollapse(t *testing.T) {
	convey.Convey("Given a season where testing and the grand prix share a circuit", t, func() {
		key := model.EventKey{Country: "Bahrain", Location: "Sakhir", Year: 2025}
		preseason := model.Event{EventKey: key, Name: "Pre-Season Testing", Date: time.Date(2025, 2, 26, 0, 0, 0, 0, time.UTC)}
		suzuka := model.Event{
			EventKey: model.EventKey{Country: "Japan", Location: "Suzuka", Year: 2025},
			Name:     "Japanese Grand Prix",
			Date:     time.Date(2025, 4, 4, 0, 0, 0, 0, time.UTC),
		}
		gp := model.Event{EventKey: key, Name: "Bahrain Grand Prix", Date: time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC)}

		convey.Convey("When collapsing the calendar", func() {
			out := model.Collapse([]model.Event{preseason, suzuka, gp})

			convey.Convey("Then the later meeting keeps the key and the calendar stays ordered", func() {
				convey.So(out, convey.ShouldResemble, []model.Event{suzuka, gp})
			})
		})

		convey.Convey("When keys differ only in case", func() {
			lower := gp
			lower.EventKey = model.EventKey{Country: "bahrain", Location: "SAKHIR", Year: 2025}
			out := model.Collapse([]model.Event{lower, preseason})

			convey.Convey("Then they are one event", func() {
				convey.So(out, convey.ShouldResemble, []model.Event{lower})
			})
		})
	})
}

func TestDriverIdentity(t *testing.T) {
	convey.Convey("Given two drivers sharing a number", t, func() {
		a := model.DriverIdentity{Number: 1, Name: "Max Verstappen", Team: "Red Bull Racing"}
		b := model.DriverIdentity{Number: 1, Name: "Nico Hulkenberg", Team: "Haas F1 Team"}

		convey.Convey("Then the name breaks the tie", func() {
			convey.So(a.Less(b), convey.ShouldBeTrue)
			convey.So(b.Less(a), convey.ShouldBeFalse)
			convey.So(a.String(), convey.ShouldEqual, "#1 Max Verstappen (Red Bull Racing)")
		})
	})
}
