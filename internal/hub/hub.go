// Package hub is the Hub State Store: it ingests parsed update/timer/
// decision/database payloads, merges them into per-FOP state, maintains
// the monotonic per-FOP version counter, and serves read access to
// everything else in the process.
//
// All mutation is serialized by one sync.RWMutex, matching spec.md §5's
// single-threaded cooperative model: the Ingest* methods take the write
// lock and the exported readers take the read lock. FopUpdate returns a
// copy of the stored struct (its slices are shared with the store);
// DatabaseState returns the live snapshot pointer.
package hub

import (
	"log"
	"sync"

	"github.com/jflamy/owlcms-tracker-sub001/internal/events"
	"github.com/jflamy/owlcms-tracker-sub001/internal/model"
)

// Hub is the process-wide competition state store. It has a single
// lifecycle: constructed once at startup, run until shutdown. Callers
// obtain it through explicit dependency injection (never a package
// global) so tests stay hermetic, per spec.md §9 "Global state".
type Hub struct {
	emitter *events.Emitter

	mu sync.RWMutex

	database *model.DatabaseState
	hasDatabase bool

	fops map[string]*fopEntry

	translations *translationStore

	ready bool // true once both database and translations have arrived
}

// fopEntry bundles one FOP's mutable state: the merged update, its
// version counter, and its session lifecycle state.
type fopEntry struct {
	update  model.FopUpdate
	version uint64
	state   model.SessionState
}

// New constructs an empty, not-yet-ready Hub.
func New(emitter *events.Emitter) *Hub {
	return &Hub{
		emitter:      emitter,
		database:     model.NewDatabaseState(),
		fops:         make(map[string]*fopEntry),
		translations: newTranslationStore(),
	}
}

// IsReady reports whether HUB_READY has fired (both database and
// translations preconditions satisfied).
func (h *Hub) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// MissingPreconditions returns the subset of {"database","translations"}
// not yet satisfied, for the Protocol Handler's precondition handshake
// (§4.2).
func (h *Hub) MissingPreconditions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var missing []string
	if !h.hasDatabase {
		missing = append(missing, "database")
	}
	if !h.translations.hasAny() {
		missing = append(missing, "translations")
	}
	return missing
}

// FopStateVersion returns the current monotonic version counter for a
// FOP. Unknown FOPs read as version 0 (hub accessor called before any
// update for that FOP exists).
func (h *Hub) FopStateVersion(fop string) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	entry, ok := h.fops[fop]
	if !ok {
		return 0
	}
	return entry.version
}

// FopUpdate returns a copy of the current merged state for a FOP, or
// false if the FOP is unknown.
func (h *Hub) FopUpdate(fop string) (model.FopUpdate, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	entry, ok := h.fops[fop]
	if !ok {
		return model.FopUpdate{}, false
	}
	return entry.update, true
}

// Fops returns the union of databaseState.competition.fops and
// keys(fopUpdates), per §4.8 FOP discovery.
func (h *Hub) Fops() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, f := range h.database.Competition.Fops {
		if _, ok := seen[f]; !ok {
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	for f := range h.fops {
		if _, ok := seen[f]; !ok {
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// DatabaseState returns a pointer to the current snapshot. Callers must
// not mutate the returned value; it is replaced wholesale on the next
// `database` frame, never mutated field-by-field under a reader's feet
// except for the documented patch scope (patch.go), which goes through
// this same serializer.
func (h *Hub) DatabaseState() *model.DatabaseState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.database
}

// Translations returns the merged table for a locale, following the
// fallback chain from §4.5: exact locale, then base locale, then the
// configured default, then an empty map.
func (h *Hub) Translations(locale, defaultLocale string) model.TranslationTable {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.translations.lookup(locale, defaultLocale)
}

func (h *Hub) ensureFop(fop string) *fopEntry {
	entry, ok := h.fops[fop]
	if !ok {
		entry = &fopEntry{state: model.SessionActive}
		entry.update.FopName = fop
		h.fops[fop] = entry
		log.Printf("[Hub] created FOP entry %q (unknown FOP, not an error)", fop)
	}
	return entry
}

// maybeBecomeReady flips the hub into ready state once both
// preconditions are met. It must be called with h.mu held, and never
// publishes itself: HUB_READY must follow the triggering frame's own
// event(s) (DATABASE/DATABASE_READY or TRANSLATIONS_LOADED) per §4.3,
// so the caller publishes it after releasing the lock when this
// returns true.
func (h *Hub) maybeBecomeReady() bool {
	if h.ready || !h.hasDatabase || !h.translations.hasAny() {
		return false
	}
	h.ready = true
	return true
}

func (h *Hub) bumpVersion(entry *fopEntry) uint64 {
	entry.version++
	return entry.version
}
