package projection

import (
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/jflamy/owlcms-tracker-sub001/internal/model"
)

// HubView is the minimal read-only surface the View Function Host and
// projection functions need from the Hub State Store. It is satisfied
// by *hub.Hub; declared here (rather than imported) to keep this
// package free of a dependency on internal/hub's full API and to keep
// projection functions testable against a fake.
type HubView interface {
	IsReady() bool
	FopStateVersion(fop string) uint64
	FopUpdate(fop string) (model.FopUpdate, bool)
	DatabaseState() *model.DatabaseState
	Translations(locale, defaultLocale string) model.TranslationTable
}

// Func is a named projection: a pure function of
// (hub snapshot, fopName, options, locale) -> view object, per §4.4.
type Func func(h HubView, fop string, options map[string]any, locale string) (any, error)

// Definition registers one projection's name, schema and function, plus
// a human description for discovery (§4.8).
type Definition struct {
	Name        string
	Description string
	Schema      Schema
	Fn          Func
}

// Host wraps every registered projection in the memoization layer from
// §4.4: cache key resolution, FIFO-capped caches, singleflight
// stampede protection, and the timer/decision overlay.
type Host struct {
	hub          HubView
	defaultLocale string
	cacheCap     int

	defs   map[string]Definition
	caches map[string]*Cache
	flight map[string]*singleflight.Group
}

// NewHost constructs a Host bound to a HubView and a projection-cache
// capacity (spec.md §4.4: "~20 entries").
func NewHost(h HubView, defaultLocale string, cacheCap int) *Host {
	return &Host{
		hub:           h,
		defaultLocale: defaultLocale,
		cacheCap:      cacheCap,
		defs:          make(map[string]Definition),
		caches:        make(map[string]*Cache),
		flight:        make(map[string]*singleflight.Group),
	}
}

// Register adds a projection definition, allocating its dedicated
// cache and singleflight group.
func (h *Host) Register(def Definition) {
	h.defs[def.Name] = def
	h.caches[def.Name] = NewCache(h.cacheCap)
	h.flight[def.Name] = &singleflight.Group{}
}

// Definitions returns all registered projections, for §4.8 discovery.
func (h *Host) Definitions() []Definition {
	out := make([]Definition, 0, len(h.defs))
	for _, d := range h.defs {
		out = append(out, d)
	}
	return out
}

// Definition looks up one registered projection by name, so callers on
// the GET query-string path (§6) can coerce raw string values against
// its schema before calling Query.
func (h *Host) Definition(name string) (Definition, bool) {
	d, ok := h.defs[name]
	return d, ok
}

// ViewResult is the outcome of a projection query (§4.8).
type ViewResult struct {
	Success bool
	Data    any
	Waiting bool
	Error   string
}

// Query is the read path from §4.4: resolve version, build the cache
// key, hit-or-miss, overlay timer/decision state, return.
func (h *Host) Query(projectionName, fop string, rawOptions map[string]any, locale string) ViewResult {
	def, ok := h.defs[projectionName]
	if !ok {
		return ViewResult{Success: false, Error: "unknown_projection"}
	}

	if !h.hub.IsReady() {
		return ViewResult{Success: false, Waiting: true, Error: "waiting_for_data"}
	}

	options, err := def.Schema.Validate(rawOptions)
	if err != nil {
		return ViewResult{Success: false, Error: err.Error()}
	}

	if locale == "" {
		locale = h.defaultLocale
	}

	version := h.hub.FopStateVersion(fop)
	key := Key{
		Projection: projectionName,
		Fop:        fop,
		Version:    version,
		OptionsKey: CanonicalizeOptions(options),
		Locale:     locale,
	}

	cache := h.caches[projectionName]

	view, hit := cache.Get(key)
	if !hit {
		group := h.flight[projectionName]
		result, err, _ := group.Do(fmt.Sprintf("%+v", key), func() (any, error) {
			// Re-check after winning the singleflight race: another
			// caller may have populated the cache while we waited.
			if v, ok := cache.Get(key); ok {
				return v, nil
			}
			computed, err := def.Fn(h.hub, fop, options, locale)
			if err != nil {
				return nil, err
			}
			cache.Put(key, computed)
			return computed, nil
		})
		if err != nil {
			return ViewResult{Success: false, Error: err.Error()}
		}
		view = result
	}

	overlaid := h.overlayTimerAndDecision(fop, view)
	return ViewResult{Success: true, Data: overlaid}
}

// overlayView is the shape the host wraps every cached projection
// output in, so consumers always see the live timer/decision state
// alongside the (possibly cached) ordering/rank payload, per §4.4 cache
// discipline: cached payloads never embed running clock state.
type overlayView struct {
	View     any              `json:"view"`
	Timer    model.TimerState `json:"timer"`
	Decision model.DecisionState `json:"decision"`
}

func (h *Host) overlayTimerAndDecision(fop string, view any) overlayView {
	fopUpdate, ok := h.hub.FopUpdate(fop)
	if !ok {
		return overlayView{View: view}
	}
	return overlayView{View: view, Timer: fopUpdate.AthleteTimer, Decision: fopUpdate.Decision}
}
