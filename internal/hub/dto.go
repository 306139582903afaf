package hub

// updatePayload is the wire shape of an `update` frame's payload.
// Keys are unconstrained upstream (§4.1); only fields this component
// cares about are declared, everything else round-trips ignored.
type updatePayload struct {
	FopName     string `json:"fopName"`
	SessionName string `json:"sessionName"`
	FopState    string `json:"fopState"`
	BreakType   string `json:"breakType"`
	UIEvent     string `json:"uiEvent"`

	CurrentAthleteKey  int64 `json:"currentAthleteKey"`
	NextAthleteKey     int64 `json:"nextAthleteKey"`
	PreviousAthleteKey int64 `json:"previousAthleteKey"`

	SessionAthletes      []sessionAthleteWire `json:"sessionAthletes"`
	StartOrderAthletes   []orderEntryWire     `json:"startOrderAthletes"`
	LiftingOrderAthletes []orderEntryWire     `json:"liftingOrderAthletes"`
}

type orderEntryWire struct {
	AthleteKey int64  `json:"athleteKey"`
	IsSpacer   bool   `json:"isSpacer"`
	SpacerKind string `json:"spacerKind"`
}

type attemptWire struct {
	Status         string `json:"status"`
	DisplayValue   string `json:"displayValue"`
	HighlightClass string `json:"highlightClass"`
}

type sessionAthleteWire struct {
	AthleteKey    int64         `json:"athleteKey"`
	Name          string        `json:"name"`
	Team          string        `json:"team"`
	Category      string        `json:"category"`
	StartNumber   int           `json:"startNumber"`
	LotNumber     string        `json:"lotNumber"`
	Snatch        [3]attemptWire `json:"snatch"`
	CleanJerk     [3]attemptWire `json:"cleanJerk"`
	BestSnatch    int           `json:"bestSnatch"`
	BestCleanJerk int           `json:"bestCleanJerk"`
	Total         int           `json:"total"`
	Sinclair      float64       `json:"sinclair"`
	Rank          int           `json:"rank"`
	ClassName     string        `json:"classname"`
}

// timerPayload is the wire shape of a `timer` frame's payload.
type timerPayload struct {
	FopName string `json:"fopName"`

	AthleteTimerEventType  string `json:"athleteTimerEventType"`
	AthleteMillisRemaining int64  `json:"athleteMillisRemaining"`
	TimeAllowed            int64  `json:"timeAllowed"`

	BreakTimerEventType  string `json:"breakTimerEventType"`
	BreakMillisRemaining int64  `json:"breakMillisRemaining"`
	BreakDuration        int64  `json:"breakDuration"`
}

// decisionPayload is the wire shape of a `decision` frame's payload.
type decisionPayload struct {
	FopName          string `json:"fopName"`
	DecisionEventType string `json:"decisionEventType"`
	RefereeDecisions [3]*bool `json:"refereeDecisions"`
	Visible          bool   `json:"visible"`
	Down             bool   `json:"down"`
}

// databasePayload is the wire shape of a `database` frame's payload,
// new format (native numbers, string category codes).
type databasePayload struct {
	FormatVersion string `json:"formatVersion"`

	Competition struct {
		Name string   `json:"name"`
		Fops []string `json:"fops"`
	} `json:"competition"`

	Athletes []athleteWire `json:"athletes"`

	Teams []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"teams"`

	Categories []struct {
		Code     string `json:"code"`
		AgeGroup string `json:"ageGroup"`
	} `json:"categories"`
}

type athleteWire struct {
	Key         int64  `json:"key"`
	LastName    string `json:"lastName"`
	FirstName   string `json:"firstName"`
	Gender      string `json:"gender"`
	BodyWeight  float64 `json:"bodyWeight"`
	BirthYear   int    `json:"birthYear"`
	BirthMonth  int    `json:"birthMonth"`
	BirthDay    int    `json:"birthDay"`
	TeamID      int64  `json:"teamId"`
	Team        string `json:"team"`
	Category    string `json:"category"`
	Session     string `json:"session"`
	StartNumber int    `json:"startNumber"`
	LotNumber   string `json:"lotNumber"`

	Snatch1Declaration string `json:"snatch1Declaration"`
	Snatch1Change1     string `json:"snatch1Change1"`
	Snatch1Change2     string `json:"snatch1Change2"`
	Snatch1ActualLift  string `json:"snatch1ActualLift"`
	Snatch2Declaration string `json:"snatch2Declaration"`
	Snatch2Change1     string `json:"snatch2Change1"`
	Snatch2Change2     string `json:"snatch2Change2"`
	Snatch2ActualLift  string `json:"snatch2ActualLift"`
	Snatch3Declaration string `json:"snatch3Declaration"`
	Snatch3Change1     string `json:"snatch3Change1"`
	Snatch3Change2     string `json:"snatch3Change2"`
	Snatch3ActualLift  string `json:"snatch3ActualLift"`

	CleanJerk1Declaration string `json:"cleanJerk1Declaration"`
	CleanJerk1Change1     string `json:"cleanJerk1Change1"`
	CleanJerk1Change2     string `json:"cleanJerk1Change2"`
	CleanJerk1ActualLift  string `json:"cleanJerk1ActualLift"`
	CleanJerk2Declaration string `json:"cleanJerk2Declaration"`
	CleanJerk2Change1     string `json:"cleanJerk2Change1"`
	CleanJerk2Change2     string `json:"cleanJerk2Change2"`
	CleanJerk2ActualLift  string `json:"cleanJerk2ActualLift"`
	CleanJerk3Declaration string `json:"cleanJerk3Declaration"`
	CleanJerk3Change1     string `json:"cleanJerk3Change1"`
	CleanJerk3Change2     string `json:"cleanJerk3Change2"`
	CleanJerk3ActualLift  string `json:"cleanJerk3ActualLift"`

	AutomaticProgressionSnatch    float64 `json:"automaticProgressionSnatch"`
	AutomaticProgressionCleanJerk float64 `json:"automaticProgressionCleanJerk"`
}
