package model

// SessionAthlete is the display-ready projection of an athlete scoped to
// one FOP and moment. For athletes inside the current session these
// fields are upstream-authoritative (highlightClass and classname have
// no other source); for athletes outside the current session the
// projection layer derives an equivalent record from raw Athlete fields
// (see internal/projection's session-athlete contract, §4.4a).
type SessionAthlete struct {
	AthleteKey    int64     `json:"athleteKey"`
	Name          string    `json:"name"`
	Team          string    `json:"team"`
	Category      string    `json:"category"`
	StartNumber   int       `json:"startNumber"`
	LotNumber     string    `json:"lotNumber"`
	Snatch        [3]Attempt `json:"snatch"`
	CleanJerk     [3]Attempt `json:"cleanJerk"`
	BestSnatch    int       `json:"bestSnatch"`
	BestCleanJerk int       `json:"bestCleanJerk"`
	Total         int       `json:"total"`
	Sinclair      float64   `json:"sinclair"`
	Rank          int       `json:"rank"`
	ClassName     string    `json:"classname,omitempty"` // current|current-blink|next|good-lift|no-lift|waiting|finished|""
}

// OrderEntry is one slot in startOrderKeys/liftingOrderKeys: either a
// reference to an athlete key or a spacer sentinel marking a category
// or lift-type divider.
type OrderEntry struct {
	AthleteKey int64  `json:"athleteKey,omitempty"`
	IsSpacer   bool   `json:"isSpacer,omitempty"`
	SpacerKind string `json:"spacerKind,omitempty"` // "category" | "liftType"
}

// TimerEventType is the closed set of timer transitions.
type TimerEventType string

const (
	TimerStart TimerEventType = "Start"
	TimerStop  TimerEventType = "Stop"
	TimerSet   TimerEventType = "Set"
)

// TimerState is the shape shared by the athlete clock and the break clock.
type TimerState struct {
	EventType      TimerEventType `json:"eventType"`
	MillisRemaining int64         `json:"millisRemaining"`
	StartMillis     int64         `json:"startMillis"`
	Duration        int64         `json:"duration"`
}

// DecisionEventType is the closed set of referee-decision events.
type DecisionEventType string

const (
	DecisionFull   DecisionEventType = "FullDecision"
	DecisionReset  DecisionEventType = "Reset"
	DecisionDown   DecisionEventType = "DownSignal"
)

// DecisionState is the referee-decision overlay. RefereeVotes holds
// exactly three entries; a nil entry means that referee has not voted.
type DecisionState struct {
	EventType    DecisionEventType `json:"eventType"`
	RefereeVotes [3]*bool          `json:"refereeVotes"`
	Visible      bool              `json:"visible"`
	Down         bool              `json:"down"`
}

// SessionState is the per-FOP lifecycle tag (§4.10).
type SessionState string

const (
	SessionActive SessionState = "ACTIVE"
	SessionDone   SessionState = "DONE"
)

// FopUpdate is the latest merged per-platform state for one Field of
// Play. It is mutated in place by the Hub State Store under its
// single-threaded serializer; readers must treat a returned value as a
// defensive copy (see internal/hub).
type FopUpdate struct {
	FopName string `json:"fopName"`

	CurrentAthleteKey  int64 `json:"currentAthleteKey"`
	NextAthleteKey     int64 `json:"nextAthleteKey"`
	PreviousAthleteKey int64 `json:"previousAthleteKey"`

	SessionAthletes   []SessionAthlete `json:"sessionAthletes"`
	StartOrderKeys    []OrderEntry     `json:"startOrderKeys"`
	LiftingOrderKeys  []OrderEntry     `json:"liftingOrderKeys"`

	AthleteTimer TimerState    `json:"athleteTimer"`
	BreakTimer   TimerState    `json:"breakTimer"`
	Decision     DecisionState `json:"decision"`

	SessionName     string       `json:"sessionName"`
	FopState        string       `json:"fopState"`
	BreakTag        string       `json:"breakTag,omitempty"`
	CompetitionName string       `json:"competitionName"`

	SessionLifecycle SessionState `json:"-"`
}

// AthleteIndex returns a key->*SessionAthlete lookup for O(1) access.
// Callers must not retain the map beyond the current read; it is built
// fresh from a snapshot.
func (f *FopUpdate) AthleteIndex() map[int64]*SessionAthlete {
	idx := make(map[int64]*SessionAthlete, len(f.SessionAthletes))
	for i := range f.SessionAthletes {
		idx[f.SessionAthletes[i].AthleteKey] = &f.SessionAthletes[i]
	}
	return idx
}
