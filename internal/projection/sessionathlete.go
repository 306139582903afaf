package projection

import (
	"strconv"
	"strings"

	"github.com/jflamy/owlcms-tracker-sub001/internal/model"
)

// BuildSessionAthleteView resolves the display-ready form of one
// athlete for a FOP: if the athlete is present in the current
// session's sessionAthletes, that upstream-computed record is used
// verbatim (highlightClass/classname have no other source, §3). If
// the athlete is present in databaseState but not in the current
// session, this function derives an equivalent record from raw
// fields, per the algorithm in §4.4a.
func BuildSessionAthleteView(fop model.FopUpdate, athlete *model.Athlete) model.SessionAthlete {
	if athlete == nil {
		return model.SessionAthlete{}
	}

	inSession := fop.AthleteIndex()
	if sa, ok := inSession[athlete.Key]; ok {
		return *sa
	}

	return deriveSessionAthlete(athlete)
}

// InCurrentSessionKeys returns the set of athlete keys present in
// fop.SessionAthletes. Membership is by AthleteKey only; lot numbers
// are not compared.
func InCurrentSessionKeys(fop model.FopUpdate) map[int64]struct{} {
	out := make(map[int64]struct{}, len(fop.SessionAthletes))
	for _, sa := range fop.SessionAthletes {
		out[sa.AthleteKey] = struct{}{}
	}
	return out
}

// deriveSessionAthlete builds a SessionAthlete from raw Athlete fields
// for an athlete not present in the current session, per §4.4a.
func deriveSessionAthlete(a *model.Athlete) model.SessionAthlete {
	sa := model.SessionAthlete{
		AthleteKey:  a.Key,
		Name:        a.DisplayName(),
		Team:        a.Team,
		Category:    a.Category,
		StartNumber: a.StartNumber,
		LotNumber:   a.LotNumber,
	}

	for i := 0; i < 3; i++ {
		sa.Snatch[i] = attemptFromRaw(a.Snatch[i], a.AutomaticSnatch)
		sa.CleanJerk[i] = attemptFromRaw(a.CleanJerk[i], a.AutomaticCJ)
	}

	sa.BestSnatch = bestOf(sa.Snatch[:])
	sa.BestCleanJerk = bestOf(sa.CleanJerk[:])
	if sa.BestSnatch > 0 && sa.BestCleanJerk > 0 {
		sa.Total = sa.BestSnatch + sa.BestCleanJerk
	}
	return sa
}

// attemptFromRaw implements the §4.4a per-slot algorithm:
//
//	let v = actualLift. If v is non-empty and not zero:
//	  negative -> {status: fail, displayValue: "(" + |v| + ")"}
//	  else     -> {status: good, displayValue: v}
//	else let w = change2 || change1 || declaration || automaticProgression.
//	  If present and non-zero -> {status: request, displayValue: w}
//	else -> {status: empty, displayValue: ""}
func attemptFromRaw(lift model.LiftAttempt, automaticProgression float64) model.Attempt {
	if v, ok := parseNonZero(lift.ActualLift); ok {
		if v < 0 {
			return model.Attempt{Status: model.AttemptFail, DisplayValue: "(" + strconv.Itoa(-v) + ")"}
		}
		return model.Attempt{Status: model.AttemptGood, DisplayValue: strconv.Itoa(v)}
	}

	w := firstNonEmpty(lift.Change2, lift.Change1, lift.Declaration)
	if w != "" {
		if v, ok := parseNonZero(w); ok {
			return model.Attempt{Status: model.AttemptRequest, DisplayValue: strconv.Itoa(v)}
		}
	} else if automaticProgression != 0 {
		return model.Attempt{Status: model.AttemptRequest, DisplayValue: strconv.Itoa(int(automaticProgression))}
	}

	return model.Attempt{Status: model.AttemptEmpty, DisplayValue: ""}
}

// parseNonZero parses a raw weight string, treating "", "0" and "-0"
// as not-present (§8 boundary property 12).
func parseNonZero(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	if v == 0 {
		return 0, false
	}
	return v, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func bestOf(attempts []model.Attempt) int {
	best := 0
	for _, a := range attempts {
		if a.Status != model.AttemptGood {
			continue
		}
		v, err := strconv.Atoi(a.DisplayValue)
		if err == nil && v > best {
			best = v
		}
	}
	return best
}
