package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/gridcast/internal/domain/merge"
	"github.com/okian/gridcast/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildSkip(t *testing.T) {
	key := model.EventKey{Country: "Italy", Location: "Imola", Year: 2025}

	Convey("Given a failed event build", t, func() {
		Convey("When two sessions disagree on a driver", func() {
			err := fmt.Errorf("merge %s: %w", key, fmt.Errorf("%w: 1 in Qualifying", merge.ErrDuplicateDriver))

			Convey("Then the skip names the merge", func() {
				skip := buildSkip(key, err)
				So(skip.Kind, ShouldEqual, model.SkipMergeFailed)
				So(skip.Event, ShouldResemble, key)
				So(skip.Reason, ShouldContainSubstring, "duplicate")
			})
		})

		Convey("When the table cannot be written", func() {
			skip := buildSkip(key, fmt.Errorf("save %s: %w", key, errors.New("disk full")))

			Convey("Then the skip names the save", func() {
				So(skip.Kind, ShouldEqual, model.SkipSaveFailed)
			})
		})
	})
}
