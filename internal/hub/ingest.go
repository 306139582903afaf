package hub

import (
	"context"
	"encoding/json"
	"log"

	"github.com/jflamy/owlcms-tracker-sub001/internal/apperr"
	"github.com/jflamy/owlcms-tracker-sub001/internal/events"
	"github.com/jflamy/owlcms-tracker-sub001/internal/model"
)

// IngestDatabase routes to the legacy or new-format parser by the
// explicit formatVersion marker, replaces databaseState atomically,
// bumps every known FOP's version, and emits DATABASE then
// DATABASE_READY (and HUB_READY the first time translations are also
// present). allowLegacy gates the legacy path per SPEC_FULL.md §12.
func (h *Hub) IngestDatabase(ctx context.Context, raw json.RawMessage, allowLegacy bool) error {
	var probe struct {
		FormatVersion string `json:"formatVersion"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return apperr.Wrap(apperr.MalformedFrame, "database payload", err)
	}

	var state *model.DatabaseState

	if probe.FormatVersion == "2.0" {
		var p databasePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return apperr.Wrap(apperr.MalformedFrame, "database payload (v2)", err)
		}
		state = parseNewDatabase(p)
		log.Printf("[Hub] database frame parsed as v2 format")
	} else {
		if !allowLegacy {
			return apperr.New(apperr.MalformedFrame, "legacy database format received but legacy parsing is disabled")
		}
		var p legacyDatabasePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return apperr.Wrap(apperr.MalformedFrame, "database payload (legacy)", err)
		}
		state = parseLegacyDatabase(p, nil)
		log.Printf("[Hub] database frame parsed as legacy format")
	}

	h.mu.Lock()
	h.database = state
	h.hasDatabase = true
	for _, entry := range h.fops {
		h.bumpVersion(entry)
	}
	becameReady := h.maybeBecomeReady()
	h.mu.Unlock()

	h.emitter.Publish(ctx, events.Event{Kind: events.Database})
	h.emitter.Publish(ctx, events.Event{Kind: events.DatabaseReady})
	if becameReady {
		h.emitter.Publish(ctx, events.Event{Kind: events.HubReady})
	}
	return nil
}

func parseNewDatabase(p databasePayload) *model.DatabaseState {
	state := model.NewDatabaseState()
	state.Competition.Name = p.Competition.Name
	state.Competition.Fops = p.Competition.Fops
	state.FormatVersion = "v2"

	for _, t := range p.Teams {
		state.Teams[t.ID] = model.Team{ID: t.ID, Name: t.Name}
	}
	for _, c := range p.Categories {
		state.Categories[c.Code] = model.CategoryInfo{Code: c.Code, AgeGroup: c.AgeGroup}
	}
	for _, a := range p.Athletes {
		state.Athletes[a.Key] = athleteFromWire(a, state.Teams)
	}
	return state
}

func athleteFromWire(a athleteWire, teams map[int64]model.Team) *model.Athlete {
	mk := func(decl, c1, c2, actual string) model.LiftAttempt {
		return model.LiftAttempt{Declaration: decl, Change1: c1, Change2: c2, ActualLift: actual}
	}
	return &model.Athlete{
		Key:         a.Key,
		LastName:    a.LastName,
		FirstName:   a.FirstName,
		Gender:      a.Gender,
		BodyWeight:  a.BodyWeight,
		BirthDate:   model.BirthDate{Year: a.BirthYear, Month: a.BirthMonth, Day: a.BirthDay},
		TeamID:      a.TeamID,
		Team:        teams[a.TeamID].Name,
		Category:    a.Category,
		Session:     a.Session,
		StartNumber: a.StartNumber,
		LotNumber:   a.LotNumber,
		Snatch: [3]model.LiftAttempt{
			mk(a.Snatch1Declaration, a.Snatch1Change1, a.Snatch1Change2, a.Snatch1ActualLift),
			mk(a.Snatch2Declaration, a.Snatch2Change1, a.Snatch2Change2, a.Snatch2ActualLift),
			mk(a.Snatch3Declaration, a.Snatch3Change1, a.Snatch3Change2, a.Snatch3ActualLift),
		},
		CleanJerk: [3]model.LiftAttempt{
			mk(a.CleanJerk1Declaration, a.CleanJerk1Change1, a.CleanJerk1Change2, a.CleanJerk1ActualLift),
			mk(a.CleanJerk2Declaration, a.CleanJerk2Change1, a.CleanJerk2Change2, a.CleanJerk2ActualLift),
			mk(a.CleanJerk3Declaration, a.CleanJerk3Change1, a.CleanJerk3Change2, a.CleanJerk3ActualLift),
		},
		AutomaticSnatch: a.AutomaticProgressionSnatch,
		AutomaticCJ:     a.AutomaticProgressionCleanJerk,
	}
}

// IngestUpdate merges an `update` frame into fopUpdates[fopName] with
// field-wise last-write-wins (absent keys never clear existing keys),
// stores the order arrays and the current/next/previous athlete keys as
// the upstream sent them (they are neither resolved against
// sessionAthletes nor recomputed here), patches databaseState's
// attempt-result/rank fields, bumps the
// version, runs the session lifecycle transition, and emits UPDATE
// (plus SESSION_DONE/SESSION_REOPENED as applicable).
func (h *Hub) IngestUpdate(ctx context.Context, raw json.RawMessage) error {
	var p updatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return apperr.Wrap(apperr.MalformedFrame, "update payload", err)
	}
	if p.FopName == "" {
		return apperr.New(apperr.MalformedFrame, "update payload missing fopName")
	}

	h.mu.Lock()
	entry := h.ensureFop(p.FopName)
	mergeUpdate(&entry.update, p)

	for i := range entry.update.SessionAthletes {
		snap := &entry.update.SessionAthletes[i]
		if dbAthlete, ok := h.database.Athletes[snap.AthleteKey]; ok {
			patchSessionAthleteIntoDatabase(dbAthlete, snap)
		}
	}

	sessionEvent := applySessionTransition(entry, "update", p.UIEvent)
	sessionName := entry.update.SessionName
	h.bumpVersion(entry)
	h.mu.Unlock()

	h.emitter.Publish(ctx, events.Event{Kind: events.Update, FopName: p.FopName})
	switch sessionEvent {
	case "SESSION_DONE":
		h.emitter.Publish(ctx, events.Event{Kind: events.SessionDone, FopName: p.FopName, SessionName: sessionName})
	case "SESSION_REOPENED":
		h.emitter.Publish(ctx, events.Event{Kind: events.SessionReopened, FopName: p.FopName, SessionName: sessionName})
	}
	return nil
}

// mergeUpdate applies field-wise last-write-wins: only fields the
// upstream actually sent (non-zero-value in the wire payload) replace
// the stored field. This preserves e.g. a running timer across a pure
// lifting-order change, per §4.3.
func mergeUpdate(dst *model.FopUpdate, p updatePayload) {
	if p.SessionName != "" {
		dst.SessionName = p.SessionName
	}
	if p.FopState != "" {
		dst.FopState = p.FopState
	}
	if p.BreakType != "" {
		dst.BreakTag = p.BreakType
	}
	if p.CurrentAthleteKey != 0 {
		dst.CurrentAthleteKey = p.CurrentAthleteKey
	}
	if p.NextAthleteKey != 0 {
		dst.NextAthleteKey = p.NextAthleteKey
	}
	if p.PreviousAthleteKey != 0 {
		dst.PreviousAthleteKey = p.PreviousAthleteKey
	}
	if len(p.SessionAthletes) > 0 {
		dst.SessionAthletes = make([]model.SessionAthlete, len(p.SessionAthletes))
		for i, sa := range p.SessionAthletes {
			dst.SessionAthletes[i] = sessionAthleteFromWire(sa)
		}
	}
	if len(p.StartOrderAthletes) > 0 {
		dst.StartOrderKeys = orderEntriesFromWire(p.StartOrderAthletes)
	}
	if len(p.LiftingOrderAthletes) > 0 {
		dst.LiftingOrderKeys = orderEntriesFromWire(p.LiftingOrderAthletes)
	}
}

func sessionAthleteFromWire(w sessionAthleteWire) model.SessionAthlete {
	conv := func(a [3]attemptWire) [3]model.Attempt {
		var out [3]model.Attempt
		for i, x := range a {
			out[i] = model.Attempt{
				Status:         model.AttemptStatus(x.Status),
				DisplayValue:   x.DisplayValue,
				HighlightClass: x.HighlightClass,
			}
		}
		return out
	}
	return model.SessionAthlete{
		AthleteKey:    w.AthleteKey,
		Name:          w.Name,
		Team:          w.Team,
		Category:      w.Category,
		StartNumber:   w.StartNumber,
		LotNumber:     w.LotNumber,
		Snatch:        conv(w.Snatch),
		CleanJerk:     conv(w.CleanJerk),
		BestSnatch:    w.BestSnatch,
		BestCleanJerk: w.BestCleanJerk,
		Total:         w.Total,
		Sinclair:      w.Sinclair,
		Rank:          w.Rank,
		ClassName:     w.ClassName,
	}
}

func orderEntriesFromWire(entries []orderEntryWire) []model.OrderEntry {
	out := make([]model.OrderEntry, len(entries))
	for i, e := range entries {
		out[i] = model.OrderEntry{AthleteKey: e.AthleteKey, IsSpacer: e.IsSpacer, SpacerKind: e.SpacerKind}
	}
	return out
}

// IngestTimer merges the athlete/break timer substates only (ordering
// untouched), bumps the version, emits TIMER, and reopens a DONE
// session if applicable (§4.10).
func (h *Hub) IngestTimer(ctx context.Context, raw json.RawMessage) error {
	var p timerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return apperr.Wrap(apperr.MalformedFrame, "timer payload", err)
	}
	if p.FopName == "" {
		return apperr.New(apperr.MalformedFrame, "timer payload missing fopName")
	}

	h.mu.Lock()
	entry := h.ensureFop(p.FopName)
	if p.AthleteTimerEventType != "" {
		entry.update.AthleteTimer = model.TimerState{
			EventType:       model.TimerEventType(p.AthleteTimerEventType),
			MillisRemaining: p.AthleteMillisRemaining,
			Duration:        p.TimeAllowed,
		}
	}
	if p.BreakTimerEventType != "" {
		entry.update.BreakTimer = model.TimerState{
			EventType:       model.TimerEventType(p.BreakTimerEventType),
			MillisRemaining: p.BreakMillisRemaining,
			Duration:        p.BreakDuration,
		}
	}
	sessionEvent := applySessionTransition(entry, "timer", "")
	sessionName := entry.update.SessionName
	h.bumpVersion(entry)
	h.mu.Unlock()

	h.emitter.Publish(ctx, events.Event{Kind: events.Timer, FopName: p.FopName})
	if sessionEvent == "SESSION_REOPENED" {
		h.emitter.Publish(ctx, events.Event{Kind: events.SessionReopened, FopName: p.FopName, SessionName: sessionName})
	}
	return nil
}

// IngestDecision merges the decision substate only (ordering
// untouched), bumps the version, emits DECISION, and reopens a DONE
// session if applicable (§4.10). Per the Open Question decision in
// SPEC_FULL.md §12, a decision frame never mutates sessionAthletes or
// the order arrays — only the overlay consumed at read time.
func (h *Hub) IngestDecision(ctx context.Context, raw json.RawMessage) error {
	var p decisionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return apperr.Wrap(apperr.MalformedFrame, "decision payload", err)
	}
	if p.FopName == "" {
		return apperr.New(apperr.MalformedFrame, "decision payload missing fopName")
	}

	h.mu.Lock()
	entry := h.ensureFop(p.FopName)
	entry.update.Decision = model.DecisionState{
		EventType:    model.DecisionEventType(p.DecisionEventType),
		RefereeVotes: p.RefereeDecisions,
		Visible:      p.Visible,
		Down:         p.Down,
	}
	sessionEvent := applySessionTransition(entry, "decision", "")
	sessionName := entry.update.SessionName
	h.bumpVersion(entry)
	h.mu.Unlock()

	h.emitter.Publish(ctx, events.Event{Kind: events.Decision, FopName: p.FopName})
	if sessionEvent == "SESSION_REOPENED" {
		h.emitter.Publish(ctx, events.Event{Kind: events.SessionReopened, FopName: p.FopName, SessionName: sessionName})
	}
	return nil
}

// IngestTranslations feeds one locale through the Translation Merger
// and, if this is the first translation ever received, may flip the
// hub into ready state (HUB_READY, per §4.3). Emits TRANSLATIONS_LOADED.
func (h *Hub) IngestTranslations(ctx context.Context, locale string, table model.TranslationTable) {
	h.mu.Lock()
	h.translations.ingest(locale, table)
	becameReady := h.maybeBecomeReady()
	h.mu.Unlock()

	h.emitter.Publish(ctx, events.Event{Kind: events.TranslationsLoaded, EntryCount: len(table)})
	if becameReady {
		h.emitter.Publish(ctx, events.Event{Kind: events.HubReady})
	}
}

// ChecksumMatches reports whether a bulk translations delivery's
// checksum equals the currently stored one (§4.5 / §8 property 8).
func (h *Hub) ChecksumMatches(checksum string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.translations.checksumMatches(checksum)
}

// RecordTranslationsChecksum stores the checksum after a complete bulk
// delivery (§4.11: incomplete extraction must not update it).
func (h *Hub) RecordTranslationsChecksum(checksum string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.translations.recordChecksum(checksum)
}
