// Package protocol is the Protocol Handler (spec.md §4.2): it
// validates the declared frame version, runs the precondition
// handshake, and routes text frames to the Hub State Store and binary
// frames to the Archive Extractor, replying with an HTTP-status-style
// envelope: 200, 428 or 500, or 400 for a frame below the minimum
// protocol version.
//
// Grounded on the teacher's core/proxy.go request-routing switch and
// core/server.go's early validation-then-dispatch shape, re-expressed
// around the ingress frame's declared type tag instead of an HTTP
// method+path pair.
package protocol

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jflamy/owlcms-tracker-sub001/internal/archive"
	"github.com/jflamy/owlcms-tracker-sub001/internal/codec"
	"github.com/jflamy/owlcms-tracker-sub001/internal/events"
	"github.com/jflamy/owlcms-tracker-sub001/internal/hub"
)

// Reply is the envelope the handler sends back over the ingress
// channel: success (200), missing preconditions (428), internal error
// (500), or version mismatch (400).
type Reply struct {
	Status  int      `json:"status"`
	Message string   `json:"message,omitempty"`
	Reason  string   `json:"reason,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

func ok(message string) Reply             { return Reply{Status: 200, Message: message} }
func missingPreconditions(missing []string) Reply {
	return Reply{Status: 428, Missing: missing, Reason: "missing_preconditions"}
}
func internalError(reason string) Reply { return Reply{Status: 500, Reason: reason} }
func versionMismatch(reason string) Reply { return Reply{Status: 400, Reason: reason} }

// Handler wires the Frame Codec, Hub State Store and Archive Extractor
// together behind the version/precondition handshake.
type Handler struct {
	hub                 *hub.Hub
	emitter             *events.Emitter
	extractor           *archive.Extractor
	minProtocolVersion  string
	maxBinaryFrameBytes int
	allowLegacyDatabase bool
}

// New constructs a Handler bound to a Hub, its Event Emitter, and an
// Archive Extractor. The emitter is the same instance passed to
// hub.New, so *_LOADED events interleave correctly with DATABASE/UPDATE
// events on one subscriber-visible stream.
func New(h *hub.Hub, emitter *events.Emitter, extractor *archive.Extractor, minProtocolVersion string, maxBinaryFrameBytes int, allowLegacyDatabase bool) *Handler {
	return &Handler{
		hub:                 h,
		emitter:             emitter,
		extractor:           extractor,
		minProtocolVersion:  minProtocolVersion,
		maxBinaryFrameBytes: maxBinaryFrameBytes,
		allowLegacyDatabase: allowLegacyDatabase,
	}
}

// HandleText decodes and routes one text frame, returning the reply
// envelope to send back over the same channel.
func (h *Handler) HandleText(ctx context.Context, data []byte) Reply {
	frame, err := codec.DecodeTextFrame(data)
	if err != nil {
		log.Printf("[Protocol] malformed text frame: %v", err)
		return internalError(err.Error())
	}

	if frame.Version != "" && versionBelow(frame.Version, h.minProtocolVersion) {
		return versionMismatch(fmt.Sprintf("protocol version %q below minimum %q", frame.Version, h.minProtocolVersion))
	}

	// database frames are themselves one of the preconditions; only
	// gate update/timer/decision frames on the handshake.
	if frame.Type != codec.FrameDatabase {
		if missing := h.hub.MissingPreconditions(); len(missing) > 0 {
			return missingPreconditions(missing)
		}
	}

	switch frame.Type {
	case codec.FrameDatabase:
		if err := h.hub.IngestDatabase(ctx, frame.Payload, h.allowLegacyDatabase); err != nil {
			return internalError(err.Error())
		}
		return ok("database ingested")
	case codec.FrameUpdate:
		if err := h.hub.IngestUpdate(ctx, frame.Payload); err != nil {
			return internalError(err.Error())
		}
		return ok("Update processed")
	case codec.FrameTimer:
		if err := h.hub.IngestTimer(ctx, frame.Payload); err != nil {
			return internalError(err.Error())
		}
		return ok("timer ingested")
	case codec.FrameDecision:
		if err := h.hub.IngestDecision(ctx, frame.Payload); err != nil {
			return internalError(err.Error())
		}
		return ok("decision ingested")
	default:
		return internalError(fmt.Sprintf("unrecognized frame type %q", frame.Type))
	}
}

// HandleBinary decodes and routes one binary frame to the Archive
// Extractor, then (for translations_zip) feeds every locale through
// the Translation Merger.
func (h *Handler) HandleBinary(ctx context.Context, data []byte) Reply {
	if len(data) > h.maxBinaryFrameBytes {
		return internalError(fmt.Sprintf("binary frame of %d bytes exceeds configured maximum %d", len(data), h.maxBinaryFrameBytes))
	}

	frame, err := codec.DecodeBinaryFrame(data)
	if err != nil {
		log.Printf("[Protocol] malformed binary frame: %v", err)
		return internalError(err.Error())
	}

	category := categoryFor(frame.Type)

	if frame.Type == codec.FrameTranslationsZip {
		return h.handleTranslationsZip(ctx, frame.Payload)
	}

	res, err := h.extractor.Extract(category, frame.Payload)
	if err != nil {
		return internalError(err.Error())
	}

	h.emitArchiveLoaded(ctx, frame.Type, res)
	return ok(fmt.Sprintf("extracted %d entries (%d skipped) into %s", res.EntriesWritten, res.SkippedUnsafe, category))
}

func (h *Handler) handleTranslationsZip(ctx context.Context, payload []byte) Reply {
	locales, checksum, err := archive.ExtractTranslations(payload)
	if err != nil {
		return internalError(err.Error())
	}

	if checksum != "" && h.hub.ChecksumMatches(checksum) {
		log.Printf("[Protocol] translations checksum unchanged, skipping reprocessing")
		return ok("translations unchanged")
	}

	for locale, table := range locales {
		h.hub.IngestTranslations(ctx, locale, table)
	}
	if checksum != "" {
		h.hub.RecordTranslationsChecksum(checksum)
	}
	return ok(fmt.Sprintf("ingested %d locales", len(locales)))
}

// emitArchiveLoaded turns an extraction result into the matching
// *_LOADED event (§4.6). The archive package itself has no Event
// Emitter dependency -- it is a pure filesystem component -- so the
// handler is the seam between extraction and notification.
func (h *Handler) emitArchiveLoaded(ctx context.Context, frameType codec.BinaryFrameType, res archive.Result) {
	var kind events.Kind
	switch frameType {
	case codec.FrameFlagsZip:
		kind = events.FlagsLoaded
	case codec.FrameLogosZip:
		kind = events.LogosLoaded
	case codec.FramePicturesZip:
		kind = events.PicturesLoaded
	case codec.FrameStyles:
		kind = events.StylesLoaded
	default:
		return
	}
	h.emitter.Publish(ctx, events.Event{Kind: kind, EntryCount: res.EntriesWritten})
}

func categoryFor(t codec.BinaryFrameType) archive.Category {
	switch t {
	case codec.FrameFlagsZip:
		return archive.CategoryFlags
	case codec.FrameLogosZip:
		return archive.CategoryLogos
	case codec.FramePicturesZip:
		return archive.CategoryPictures
	case codec.FrameStyles:
		return archive.CategoryStyles
	default:
		return archive.CategoryTranslations
	}
}

// versionBelow compares two dotted version strings lexicographically
// field-by-field, treating missing trailing fields as zero. Per
// spec.md §6, the protocol-version field is "compared lexicographically
// as semver".
func versionBelow(declared, minimum string) bool {
	d := splitVersion(declared)
	m := splitVersion(minimum)
	for i := 0; i < len(d) || i < len(m); i++ {
		var dv, mv int
		if i < len(d) {
			dv = d[i]
		}
		if i < len(m) {
			mv = m[i]
		}
		if dv != mv {
			return dv < mv
		}
	}
	return false
}

func splitVersion(v string) []int {
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		var n int
		_, err := fmt.Sscanf(p, "%d", &n)
		if err != nil {
			n = 0
		}
		out[i] = n
	}
	return out
}

