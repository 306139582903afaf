// Package model defines the data types shared by the hub, the broker and
// the projection layer: athletes, per-FOP updates, translations and
// records.
package model

import "strings"

// AttemptStatus is the closed set of display states for one lift attempt.
type AttemptStatus string

const (
	AttemptEmpty   AttemptStatus = "empty"
	AttemptRequest AttemptStatus = "request"
	AttemptGood    AttemptStatus = "good"
	AttemptFail    AttemptStatus = "fail"
)

// Attempt is one display-ready lift slot.
type Attempt struct {
	Status        AttemptStatus `json:"status"`
	DisplayValue  string        `json:"displayValue"`
	HighlightClass string       `json:"highlightClass,omitempty"`
}

// BirthDate captures the two shapes the upstream sends: year only,
// or a full year-month-day triple.
type BirthDate struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// Athlete is one competitor's registration and in-progress results.
//
// Key may be negative (the upstream uses negative keys for placeholder
// rows); it is unique across the athlete collection, never reused
// within a process lifetime.
type Athlete struct {
	Key              int64     `json:"key"`
	LastName         string    `json:"lastName"`
	FirstName        string    `json:"firstName"`
	Gender           string    `json:"gender"` // "M" | "F"
	BodyWeight       float64   `json:"bodyWeight"`
	BirthDate        BirthDate `json:"birthDate"`
	TeamID           int64     `json:"teamId"`
	Team             string    `json:"team"`
	Category         string    `json:"category"`
	Session          string    `json:"session"`
	StartNumber      int       `json:"startNumber"`
	LotNumber        string    `json:"lotNumber"`
	Snatch           [3]LiftAttempt `json:"snatch"`
	CleanJerk        [3]LiftAttempt `json:"cleanJerk"`
	AutomaticSnatch  float64   `json:"automaticSnatch,omitempty"`
	AutomaticCJ      float64   `json:"automaticCleanJerk,omitempty"`
	SnatchRank       int       `json:"snatchRank,omitempty"`
	CleanJerkRank    int       `json:"cleanJerkRank,omitempty"`
	TotalRank        int       `json:"totalRank,omitempty"`
	SinclairRank     int       `json:"sinclairRank,omitempty"`
}

// LiftAttempt is the raw, upstream-authoritative form of one attempt as
// carried in a database frame: declaration plus up to two changes plus
// the actual result. Positive ActualLift means a good lift; negative of
// the attempted weight means a failed lift; zero/empty means "not yet
// attempted".
type LiftAttempt struct {
	Declaration string `json:"declaration"`
	Change1     string `json:"change1"`
	Change2     string `json:"change2"`
	ActualLift  string `json:"actualLift"`
}

// DisplayName renders "LASTNAME, Firstname" per §4.4a.
func (a Athlete) DisplayName() string {
	return strings.ToUpper(a.LastName) + ", " + a.FirstName
}
