package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSinclairZeroTotalScoresZero(t *testing.T) {
	require.Equal(t, 0.0, Sinclair(Sinclair2020, "M", 89, 0))
}

func TestSinclairAtOrAboveReferenceIsUnadjusted(t *testing.T) {
	got := Sinclair(Sinclair2020, "M", Sinclair2020.MaleB, 300)
	require.Equal(t, 300.0, got)
}

func TestSinclairBelowReferenceIsBoosted(t *testing.T) {
	got := Sinclair(Sinclair2020, "M", 73, 300)
	require.Greater(t, got, 300.0)
}

func TestGAMXNoAdjustmentUnderMastersAge(t *testing.T) {
	base := Sinclair(Sinclair2020, "F", 64, 200)
	got := GAMX(Sinclair2020, "F", 64, 200, 25)
	require.Equal(t, base, got)
}

func TestGAMXAppliesAgeFactor(t *testing.T) {
	base := Sinclair(Sinclair2020, "M", 89, 250)
	got := GAMX(Sinclair2020, "M", 89, 250, 62)
	require.Greater(t, got, base)
}

func TestTeamPointsRankMapping(t *testing.T) {
	table := DefaultTeamPointsTable
	require.Equal(t, table.TP1, table.PointsForRank(1))
	require.Equal(t, table.TP2, table.PointsForRank(2))
	require.Equal(t, table.TP3, table.PointsForRank(3))
	require.Equal(t, table.TP3-1, table.PointsForRank(4))
	require.Equal(t, 0, table.PointsForRank(0))
}

func TestTeamPointsAggregatesAndRanksTeams(t *testing.T) {
	placements := []AthletePlacement{
		{TeamName: "Red", Rank: 1},
		{TeamName: "Red", Rank: 5},
		{TeamName: "Blue", Rank: 2},
		{TeamName: "Blue", Rank: 3},
	}
	scores := TeamPoints(placements, TeamPointsOptions{})
	require.Len(t, scores, 2)
	require.Equal(t, "Red", scores[0].TeamName) // TP1+5th (12+6=18) beats TP2+TP3 (9+8=17)
}

func TestTeamPointsTopNTruncation(t *testing.T) {
	placements := []AthletePlacement{
		{TeamName: "Red", Rank: 1},
		{TeamName: "Red", Rank: 2},
		{TeamName: "Red", Rank: 3},
	}
	full := TeamPoints(placements, TeamPointsOptions{})[0].Points
	truncated := TeamPoints(placements, TeamPointsOptions{TopNPerTeam: 1})[0].Points
	require.Less(t, truncated, full)
	require.Equal(t, DefaultTeamPointsTable.TP1, truncated)
}
