package hub

import "github.com/jflamy/owlcms-tracker-sub001/internal/model"

// GroupDoneEvent is the distinguished uiEvent value that drives a FOP
// into the DONE state (§4.10).
const GroupDoneEvent = "GroupDone"

// applySessionTransition runs the per-FOP session lifecycle state
// machine from §4.10 given the frame kind that just arrived.
// uiEvent is only meaningful for update frames; pass "" for
// timer/decision frames. It returns the event to emit, if any.
func applySessionTransition(entry *fopEntry, frameKind string, uiEvent string) (emit string) {
	switch frameKind {
	case "update":
		if uiEvent == GroupDoneEvent {
			if entry.state != model.SessionDone {
				entry.state = model.SessionDone
				return "SESSION_DONE"
			}
			entry.state = model.SessionDone
			return ""
		}
		if entry.state == model.SessionDone {
			entry.state = model.SessionActive
			return "SESSION_REOPENED"
		}
	case "timer", "decision":
		if entry.state == model.SessionDone {
			entry.state = model.SessionActive
			return "SESSION_REOPENED"
		}
	}
	return ""
}
