package model_test

import (
	"encoding/json"
	"testing"

	model "github.com/okian/xfpl/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestPosition(t *testing.T) {
	convey.Convey("Given player positions", t, func() {
		convey.Convey("Then the four known positions are valid", func() {
			for _, p := range []model.Position{model.Goalkeeper, model.Defender, model.Midfielder, model.Forward} {
				convey.So(p.Valid(), convey.ShouldBeTrue)
			}
		})

		convey.Convey("Then anything else is invalid", func() {
			convey.So(model.Position("").Valid(), convey.ShouldBeFalse)
			convey.So(model.Position("gkp").Valid(), convey.ShouldBeFalse)
			convey.So(model.Position("COACH").Valid(), convey.ShouldBeFalse)
		})
	})
}

func TestPlayerStatRecordJSON(t *testing.T) {
	convey.Convey("Given a JSON player record", t, func() {
		raw := `{"player_id":7,"position":"DEF","minutes_played":900,"matches_played":10,
			"expected_goals":1.2,"expected_assists":0.8,"expected_goals_conceded_per_match":1.1,
			"bonus_point_system_score":210,"actual_points":48,"appearances":{"over_60":9,"under_60":1}}`

		var rec model.PlayerStatRecord
		err := json.Unmarshal([]byte(raw), &rec)

		convey.Convey("Then snake_case fields decode", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(rec.PlayerID, convey.ShouldEqual, 7)
			convey.So(rec.Position, convey.ShouldEqual, model.Defender)
			convey.So(rec.ExpectedGoalsConcededPerMatch, convey.ShouldEqual, 1.1)
			convey.So(rec.Appearances, convey.ShouldNotBeNil)
			convey.So(rec.Appearances.Over60, convey.ShouldEqual, 9)
		})

		convey.Convey("Then the appearance split is optional", func() {
			var bare model.PlayerStatRecord
			convey.So(json.Unmarshal([]byte(`{"player_id":1,"position":"FWD"}`), &bare), convey.ShouldBeNil)
			convey.So(bare.Appearances, convey.ShouldBeNil)
		})
	})
}
