package loadtest

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestVerifyPartition(t *testing.T) {
	convey.Convey("Given a formation response", t, func() {
		req := FormGroupsRequest{
			ActorIDs:  []string{"a", "b", "c", "d", "e"},
			GroupSize: 2,
		}

		convey.Convey("When the partition is valid", func() {
			res := &FormationResult{
				Groups: []ScoredGroup{
					{ActorIDs: []string{"a", "b"}, Score: 70},
					{ActorIDs: []string{"c", "d"}, Score: 60},
					{ActorIDs: []string{"e"}, Score: 50},
				},
				AverageScore: 60,
			}

			convey.So(verifyPartition(req, res), convey.ShouldBeNil)
		})

		convey.Convey("When an actor is duplicated", func() {
			res := &FormationResult{
				Groups: []ScoredGroup{
					{ActorIDs: []string{"a", "b"}, Score: 70},
					{ActorIDs: []string{"a", "d"}, Score: 60},
					{ActorIDs: []string{"e"}, Score: 50},
				},
				AverageScore: 60,
			}

			convey.So(verifyPartition(req, res), convey.ShouldNotBeNil)
		})

		convey.Convey("When an actor is missing", func() {
			res := &FormationResult{
				Groups: []ScoredGroup{
					{ActorIDs: []string{"a", "b"}, Score: 70},
					{ActorIDs: []string{"c", "d"}, Score: 50},
				},
				AverageScore: 60,
			}

			convey.So(verifyPartition(req, res), convey.ShouldNotBeNil)
		})

		convey.Convey("When an unrequested actor appears", func() {
			res := &FormationResult{
				Groups: []ScoredGroup{
					{ActorIDs: []string{"a", "b"}, Score: 70},
					{ActorIDs: []string{"c", "d"}, Score: 60},
					{ActorIDs: []string{"z"}, Score: 50},
				},
				AverageScore: 60,
			}

			convey.So(verifyPartition(req, res), convey.ShouldNotBeNil)
		})

		convey.Convey("When a group exceeds the requested size", func() {
			res := &FormationResult{
				Groups: []ScoredGroup{
					{ActorIDs: []string{"a", "b", "c"}, Score: 70},
					{ActorIDs: []string{"d", "e"}, Score: 50},
				},
				AverageScore: 60,
			}

			convey.So(verifyPartition(req, res), convey.ShouldNotBeNil)
		})

		convey.Convey("When an undersized group is not last", func() {
			res := &FormationResult{
				Groups: []ScoredGroup{
					{ActorIDs: []string{"a"}, Score: 70},
					{ActorIDs: []string{"b", "c"}, Score: 60},
					{ActorIDs: []string{"d", "e"}, Score: 50},
				},
				AverageScore: 60,
			}

			convey.So(verifyPartition(req, res), convey.ShouldNotBeNil)
		})

		convey.Convey("When a score is out of range", func() {
			res := &FormationResult{
				Groups: []ScoredGroup{
					{ActorIDs: []string{"a", "b"}, Score: 170},
					{ActorIDs: []string{"c", "d"}, Score: 60},
					{ActorIDs: []string{"e"}, Score: 50},
				},
				AverageScore: 93.33,
			}

			convey.So(verifyPartition(req, res), convey.ShouldNotBeNil)
		})

		convey.Convey("When the average does not match the group mean", func() {
			res := &FormationResult{
				Groups: []ScoredGroup{
					{ActorIDs: []string{"a", "b"}, Score: 70},
					{ActorIDs: []string{"c", "d"}, Score: 60},
					{ActorIDs: []string{"e"}, Score: 50},
				},
				AverageScore: 90,
			}

			convey.So(verifyPartition(req, res), convey.ShouldNotBeNil)
		})

		convey.Convey("When the result is empty", func() {
			convey.So(verifyPartition(req, &FormationResult{}), convey.ShouldNotBeNil)
			convey.So(verifyPartition(req, nil), convey.ShouldNotBeNil)
		})
	})
}
