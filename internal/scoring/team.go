package scoring

import "sort"

// TeamPointsTable is the rank->points mapping from spec.md §4.9:
// 1st->TP1, 2nd->TP2, 3rd->TP3, 4th->TP3-1, ... floor 0.
type TeamPointsTable struct {
	TP1, TP2, TP3 int
}

// DefaultTeamPointsTable mirrors the common federation scale (top 3
// scored explicitly, then a -1 ramp to zero).
var DefaultTeamPointsTable = TeamPointsTable{TP1: 12, TP2: 9, TP3: 8}

// PointsForRank returns the team points for a 1-based placement rank.
// Zero-lift athletes (rank 0, no successful attempt) score zero.
func (t TeamPointsTable) PointsForRank(rank int) int {
	if rank <= 0 {
		return 0
	}
	switch rank {
	case 1:
		return t.TP1
	case 2:
		return t.TP2
	case 3:
		return t.TP3
	default:
		points := t.TP3 - (rank - 3)
		if points < 0 {
			return 0
		}
		return points
	}
}

// AthletePlacement is one scored athlete's contribution to team
// points.
type AthletePlacement struct {
	TeamName string
	Rank     int
}

// TeamScore is one team's aggregated result.
type TeamScore struct {
	TeamName string
	Points   int
	Counts   [5]int // count of 1st..5th place finishes, for tiebreakers
}

// TeamPointsOptions configures TeamPoints' truncation and table.
type TeamPointsOptions struct {
	Table    TeamPointsTable
	TopNPerTeam int // 0 means no truncation
}

// TeamPoints aggregates per-athlete placements into per-team scores,
// optionally truncating to the top N scorers per team, and orders the
// result by total points then by count of 1st, 2nd, 3rd, 4th, 5th
// places (spec.md §4.9).
func TeamPoints(placements []AthletePlacement, opts TeamPointsOptions) []TeamScore {
	table := opts.Table
	if table == (TeamPointsTable{}) {
		table = DefaultTeamPointsTable
	}

	byTeam := make(map[string][]AthletePlacement)
	for _, p := range placements {
		byTeam[p.TeamName] = append(byTeam[p.TeamName], p)
	}

	scores := make([]TeamScore, 0, len(byTeam))
	for team, list := range byTeam {
		sort.Slice(list, func(i, j int) bool { return list[i].Rank < list[j].Rank })
		if opts.TopNPerTeam > 0 && len(list) > opts.TopNPerTeam {
			list = list[:opts.TopNPerTeam]
		}

		ts := TeamScore{TeamName: team}
		for _, p := range list {
			ts.Points += table.PointsForRank(p.Rank)
			if p.Rank >= 1 && p.Rank <= 5 {
				ts.Counts[p.Rank-1]++
			}
		}
		scores = append(scores, ts)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Points != scores[j].Points {
			return scores[i].Points > scores[j].Points
		}
		for k := 0; k < 5; k++ {
			if scores[i].Counts[k] != scores[j].Counts[k] {
				return scores[i].Counts[k] > scores[j].Counts[k]
			}
		}
		return scores[i].TeamName < scores[j].TeamName
	})
	return scores
}
