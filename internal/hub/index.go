package hub

// TeamName resolves a numeric team id to its display name via the
// current databaseState.teams index (§4.3 Indexes).
func (h *Hub) TeamName(teamID int64) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.database.Teams[teamID].Name
}

// AgeGroup resolves a category code to its containing age group via
// the current databaseState.categories index (§4.3 Indexes).
func (h *Hub) AgeGroup(categoryCode string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.database.Categories[categoryCode].AgeGroup
}

// SessionAthleteByKey looks up a session athlete by key within one
// FOP's current update (§4.3 Indexes: athleteKey -> session-athlete
// reference).
func (h *Hub) SessionAthleteByKey(fop string, key int64) (result struct {
	AthleteKey int64
	Name       string
	Found      bool
}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entry, ok := h.fops[fop]
	if !ok {
		return
	}
	for _, sa := range entry.update.SessionAthletes {
		if sa.AthleteKey == key {
			result.AthleteKey = sa.AthleteKey
			result.Name = sa.Name
			result.Found = true
			return
		}
	}
	return
}
