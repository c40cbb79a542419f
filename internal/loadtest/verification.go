package loadtest

import (
	"fmt"
	"math"
)

// Score bounds and tolerance for average verification.
const (
	scoreMin         = 0.0
	scoreMax         = 100.0
	averageTolerance = 0.01
)

// verifyPartition checks the partition invariants of one formation
// response against the request that produced it:
//
//   - every requested actor appears in exactly one group,
//   - no group exceeds the requested size and only the last group may be
//     smaller,
//   - every score is within [0, 100],
//   - the reported average matches the mean of the group scores.
func verifyPartition(req FormGroupsRequest, res *FormationResult) error {
	if res == nil || len(res.Groups) == 0 {
		return fmt.Errorf("empty result for %d actors", len(req.ActorIDs))
	}

	seen := make(map[string]bool, len(req.ActorIDs))
	requested := make(map[string]bool, len(req.ActorIDs))
	for _, id := range req.ActorIDs {
		requested[id] = true
	}

	var sum float64
	for gi, g := range res.Groups {
		if len(g.ActorIDs) == 0 {
			return fmt.Errorf("group %d is empty", gi)
		}
		if len(g.ActorIDs) > req.GroupSize {
			return fmt.Errorf("group %d has %d members, requested size %d", gi, len(g.ActorIDs), req.GroupSize)
		}
		if len(g.ActorIDs) < req.GroupSize && gi != len(res.Groups)-1 {
			return fmt.Errorf("undersized group %d is not the last group", gi)
		}
		if g.Score < scoreMin || g.Score > scoreMax {
			return fmt.Errorf("group %d score %.2f out of range", gi, g.Score)
		}
		sum += g.Score

		for _, id := range g.ActorIDs {
			if !requested[id] {
				return fmt.Errorf("group %d contains unrequested actor %s", gi, id)
			}
			if seen[id] {
				return fmt.Errorf("actor %s appears in more than one group", id)
			}
			seen[id] = true
		}
	}

	if len(seen) != len(req.ActorIDs) {
		return fmt.Errorf("partition covers %d of %d requested actors", len(seen), len(req.ActorIDs))
	}

	mean := sum / float64(len(res.Groups))
	if math.Abs(mean-res.AverageScore) > averageTolerance {
		return fmt.Errorf("average score %.4f does not match group mean %.4f", res.AverageScore, mean)
	}

	return nil
}
