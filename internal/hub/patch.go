package hub

import "github.com/jflamy/owlcms-tracker-sub001/internal/model"

// patchScope documents the Open Question decision from SPEC_FULL.md
// §12: between full `database` dumps, only the fields a session-athlete
// snapshot actually carries are patched into databaseState.athletes --
// the three actualLift slots and the single overall rank shown in the
// lifting-order display, which corresponds to the session's current
// total rank, not a per-lift-type rank. SessionAthlete carries no
// change1/change2 or per-lift-type rank breakdown, so those fields are
// left untouched outside a full `database` frame. Identity fields
// (name, team, category, birth date, ...) are likewise never touched
// outside a full `database` frame.
//
// patchSessionAthleteIntoDatabase applies this scope for one athlete.
func patchSessionAthleteIntoDatabase(dbAthlete *model.Athlete, snap *model.SessionAthlete) {
	if dbAthlete == nil || snap == nil {
		return
	}
	for i := 0; i < 3; i++ {
		dbAthlete.Snatch[i].ActualLift = attemptToRaw(snap.Snatch[i])
		dbAthlete.CleanJerk[i].ActualLift = attemptToRaw(snap.CleanJerk[i])
	}
	dbAthlete.TotalRank = rankOrKeep(snap.Rank, dbAthlete.TotalRank)
}

// attemptToRaw renders a display-ready Attempt back into the raw
// actualLift string form it was computed from, so patched athletes
// remain consistent with projection's session-athlete contract
// (§4.4a). Only "good"/"fail" carry a settled actual lift; "empty" and
// "request" have none yet.
func attemptToRaw(a model.Attempt) string {
	switch a.Status {
	case model.AttemptGood:
		return a.DisplayValue
	case model.AttemptFail:
		// DisplayValue is rendered as "(weight)"; strip the parens for
		// the raw negative-weight form.
		v := a.DisplayValue
		if len(v) >= 2 && v[0] == '(' && v[len(v)-1] == ')' {
			return "-" + v[1:len(v)-1]
		}
		return v
	default:
		return ""
	}
}

func rankOrKeep(newRank, old int) int {
	if newRank != 0 {
		return newRank
	}
	return old
}
