package projection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jflamy/owlcms-tracker-sub001/internal/model"
)

func athleteWithSnatch2(declaration, change1, change2, actualLift string) *model.Athlete {
	return &model.Athlete{
		Key:       7,
		LastName:  "Doe",
		FirstName: "Jane",
		Snatch: [3]model.LiftAttempt{
			{},
			{Declaration: declaration, Change1: change1, Change2: change2, ActualLift: actualLift},
			{},
		},
	}
}

// TestDeriveSessionAthlete_FailedAttemptDisplaysParenthesized mirrors the
// scenario where snatch2ActualLift="-122" must render as a failed
// attempt with the weight shown in parentheses, unsigned.
func TestDeriveSessionAthlete_FailedAttemptDisplaysParenthesized(t *testing.T) {
	a := athleteWithSnatch2("120", "122", "", "-122")
	sa := deriveSessionAthlete(a)
	require.Equal(t, model.AttemptFail, sa.Snatch[1].Status)
	require.Equal(t, "(122)", sa.Snatch[1].DisplayValue)
}

func TestDeriveSessionAthlete_GoodLiftDisplaysUnsigned(t *testing.T) {
	a := athleteWithSnatch2("120", "", "", "122")
	sa := deriveSessionAthlete(a)
	require.Equal(t, model.AttemptGood, sa.Snatch[1].Status)
	require.Equal(t, "122", sa.Snatch[1].DisplayValue)
}

func TestDeriveSessionAthlete_PendingRequestFallsBackThroughChanges(t *testing.T) {
	a := athleteWithSnatch2("120", "125", "130", "")
	sa := deriveSessionAthlete(a)
	require.Equal(t, model.AttemptRequest, sa.Snatch[1].Status)
	require.Equal(t, "130", sa.Snatch[1].DisplayValue)
}

func TestDeriveSessionAthlete_NoDeclarationIsEmpty(t *testing.T) {
	a := athleteWithSnatch2("", "", "", "")
	sa := deriveSessionAthlete(a)
	require.Equal(t, model.AttemptEmpty, sa.Snatch[1].Status)
	require.Equal(t, "", sa.Snatch[1].DisplayValue)
}

// TestDeriveSessionAthlete_ZeroAndNegativeZeroAreNotAttempted covers
// the boundary where actualLift of "0" or "-0" must not be treated as
// a completed attempt.
func TestDeriveSessionAthlete_ZeroAndNegativeZeroAreNotAttempted(t *testing.T) {
	for _, raw := range []string{"0", "-0"} {
		a := athleteWithSnatch2("100", "", "", raw)
		sa := deriveSessionAthlete(a)
		require.NotEqual(t, model.AttemptGood, sa.Snatch[1].Status)
		require.NotEqual(t, model.AttemptFail, sa.Snatch[1].Status)
	}
}

func TestDeriveSessionAthlete_ExactlyOneStatusPerSlot(t *testing.T) {
	cases := [][4]string{
		{"100", "", "", "102"},
		{"100", "", "", "-102"},
		{"100", "105", "", ""},
		{"", "", "", ""},
	}
	for _, c := range cases {
		a := athleteWithSnatch2(c[0], c[1], c[2], c[3])
		sa := deriveSessionAthlete(a)
		status := sa.Snatch[1].Status
		require.Contains(t, []model.AttemptStatus{
			model.AttemptEmpty, model.AttemptRequest, model.AttemptGood, model.AttemptFail,
		}, status)
	}
}

func TestBuildSessionAthleteView_UsesCurrentSessionRecordVerbatim(t *testing.T) {
	fop := model.FopUpdate{
		SessionAthletes: []model.SessionAthlete{
			{AthleteKey: 7, ClassName: "current-blink"},
		},
	}
	a := &model.Athlete{Key: 7, LastName: "Doe", FirstName: "Jane"}

	view := BuildSessionAthleteView(fop, a)
	require.Equal(t, "current-blink", view.ClassName)
}

func TestBuildSessionAthleteView_DerivesForAthleteOutsideSession(t *testing.T) {
	fop := model.FopUpdate{}
	a := athleteWithSnatch2("120", "", "", "122")

	view := BuildSessionAthleteView(fop, a)
	require.Equal(t, "DOE, Jane", view.Name)
	require.Equal(t, model.AttemptGood, view.Snatch[1].Status)
}
