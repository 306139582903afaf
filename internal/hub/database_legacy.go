package hub

import (
	"strconv"

	"github.com/jflamy/owlcms-tracker-sub001/internal/model"
)

// legacyDatabasePayload mirrors the pre-2.0 wire shape: every numeric
// value is carried as a string, and category is a numeric id rather
// than a code. Kept behind config.EnableLegacyDatabaseFormat per the
// Open Question decision in SPEC_FULL.md §12.
type legacyDatabasePayload struct {
	CompetitionName string   `json:"competitionName"`
	Fops            []string `json:"fops"`

	Athletes []legacyAthleteWire `json:"athletes"`

	Teams []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"teams"`

	Categories []struct {
		ID       string `json:"id"`
		AgeGroup string `json:"ageGroup"`
	} `json:"categories"`
}

type legacyAthleteWire struct {
	Key        string `json:"key"`
	LastName   string `json:"lastName"`
	FirstName  string `json:"firstName"`
	Gender     string `json:"gender"`
	BodyWeight string `json:"bodyWeight"`
	BirthYear  string `json:"birthYear"`
	TeamID     string `json:"teamId"`
	CategoryID string `json:"categoryId"`
	Session    string `json:"session"`
}

// parseLegacyDatabase converts a legacy-format payload into the native
// DatabaseState shape, translating string numerics and numeric
// category ids to their native/code equivalents.
func parseLegacyDatabase(p legacyDatabasePayload, categoryIDToCode map[string]string) *model.DatabaseState {
	state := model.NewDatabaseState()
	state.Competition.Name = p.CompetitionName
	state.Competition.Fops = p.Fops
	state.FormatVersion = "legacy"

	for _, t := range p.Teams {
		id, _ := strconv.ParseInt(t.ID, 10, 64)
		state.Teams[id] = model.Team{ID: id, Name: t.Name}
	}

	for _, c := range p.Categories {
		code := categoryIDToCode[c.ID]
		if code == "" {
			code = c.ID
		}
		state.Categories[code] = model.CategoryInfo{Code: code, AgeGroup: c.AgeGroup}
	}

	for _, a := range p.Athletes {
		key, _ := strconv.ParseInt(a.Key, 10, 64)
		teamID, _ := strconv.ParseInt(a.TeamID, 10, 64)
		weight, _ := strconv.ParseFloat(a.BodyWeight, 64)
		year, _ := strconv.Atoi(a.BirthYear)

		code := categoryIDToCode[a.CategoryID]
		if code == "" {
			code = a.CategoryID
		}

		state.Athletes[key] = &model.Athlete{
			Key:       key,
			LastName:  a.LastName,
			FirstName: a.FirstName,
			Gender:    a.Gender,
			BodyWeight: weight,
			BirthDate: model.BirthDate{Year: year},
			TeamID:    teamID,
			Team:      state.Teams[teamID].Name,
			Category:  code,
			Session:   a.Session,
		}
	}

	return state
}
