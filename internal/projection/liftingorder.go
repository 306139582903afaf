package projection

import (
	"fmt"

	"github.com/jflamy/owlcms-tracker-sub001/internal/model"
)

// LiftingOrderView is the payload produced by the "liftingOrder"
// projection: the FOP's lifting order, each slot resolved to a
// display-ready SessionAthlete, with spacers preserved.
type LiftingOrderView struct {
	FopName string                `json:"fopName"`
	Entries []LiftingOrderEntry   `json:"entries"`
}

// LiftingOrderEntry is one slot: either a resolved athlete or a spacer.
type LiftingOrderEntry struct {
	IsSpacer   bool                  `json:"isSpacer,omitempty"`
	SpacerKind string                `json:"spacerKind,omitempty"`
	Athlete    *model.SessionAthlete `json:"athlete,omitempty"`
}

// LiftingOrderSchema declares the "includeSpacers" option: when false,
// spacer slots are omitted from the result.
var LiftingOrderSchema = Schema{
	{Key: "includeSpacers", Type: OptionBoolean, Default: true},
}

// LiftingOrder is the projection function for liftingOrderKeys: it
// resolves each OrderEntry against the current FOP's session athletes
// (falling back to the database-derived session-athlete contract for
// athletes the FOP hasn't indexed), per §4.4a.
func LiftingOrder(h HubView, fop string, options map[string]any, locale string) (any, error) {
	update, ok := h.FopUpdate(fop)
	if !ok {
		return nil, fmt.Errorf("unknown fop %q", fop)
	}

	includeSpacers, _ := options["includeSpacers"].(bool)

	db := h.DatabaseState()
	index := update.AthleteIndex()

	view := LiftingOrderView{FopName: fop}
	for _, oe := range update.LiftingOrderKeys {
		if oe.IsSpacer {
			if includeSpacers {
				view.Entries = append(view.Entries, LiftingOrderEntry{IsSpacer: true, SpacerKind: oe.SpacerKind})
			}
			continue
		}

		if sa, ok := index[oe.AthleteKey]; ok {
			copied := *sa
			view.Entries = append(view.Entries, LiftingOrderEntry{Athlete: &copied})
			continue
		}

		if db != nil {
			if athlete, ok := db.Athletes[oe.AthleteKey]; ok {
				derived := deriveSessionAthlete(athlete)
				view.Entries = append(view.Entries, LiftingOrderEntry{Athlete: &derived})
			}
		}
	}

	return view, nil
}
