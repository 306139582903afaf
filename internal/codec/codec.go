// Package codec parses and emits the two frame shapes carried over the
// ingress channel: typed text (JSON envelope) frames and typed binary
// (length-prefixed tag) frames. See spec.md §4.1.
package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/jflamy/owlcms-tracker-sub001/internal/apperr"
)

// TextFrameType is the closed set of recognized text-frame tags.
type TextFrameType string

const (
	FrameUpdate   TextFrameType = "update"
	FrameTimer    TextFrameType = "timer"
	FrameDecision TextFrameType = "decision"
	FrameDatabase TextFrameType = "database"
)

// TextFrame is the decoded `{"type": ..., "payload": ...}` envelope.
// Payload is kept raw; downstream components unmarshal into their own
// DTOs, since payload keys are unconstrained per spec.md §4.1.
type TextFrame struct {
	Type    TextFrameType   `json:"type"`
	Version string          `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeTextFrame parses a JSON envelope. A missing/unparseable
// top-level envelope is fatal for that frame only.
func DecodeTextFrame(data []byte) (*TextFrame, error) {
	var f TextFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, apperr.Wrap(apperr.MalformedFrame, "invalid JSON envelope", err)
	}
	if f.Type == "" {
		return nil, apperr.New(apperr.MalformedFrame, "missing frame type")
	}
	return &f, nil
}

// BinaryFrameType is the closed set of recognized binary-frame tags.
type BinaryFrameType string

const (
	FrameFlagsZip       BinaryFrameType = "flags_zip"
	FrameLogosZip       BinaryFrameType = "logos_zip"
	FramePicturesZip    BinaryFrameType = "pictures_zip"
	FrameStyles         BinaryFrameType = "styles"
	FrameTranslationsZip BinaryFrameType = "translations_zip"

	// frameFlagsLegacy is the legacy alias for FrameFlagsZip.
	frameFlagsLegacy BinaryFrameType = "flags"
)

// zipMagic is the 4-byte ZIP local-file-header signature.
var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// BinaryFrame is the decoded `uint32 typeLength | type tag | payload`
// frame.
type BinaryFrame struct {
	Type    BinaryFrameType
	Payload []byte
}

// DecodeBinaryFrame parses the binary frame layout from §4.1, including
// the legacy ZIP-magic-prefix fallback and normalization of the
// `flags` alias to `flags_zip`.
func DecodeBinaryFrame(data []byte) (*BinaryFrame, error) {
	if len(data) < 5 {
		return nil, apperr.New(apperr.MalformedFrame, "binary frame shorter than 5 bytes")
	}

	typeLength := int(binary.BigEndian.Uint32(data[:4]))
	isZipPrefixed := len(data) >= 8 && bytes.HasPrefix(data[4:8], zipMagic)

	// Robustness: an implausible typeLength combined with a ZIP-magic
	// payload prefix means the whole frame is a raw ZIP — treat it as
	// flags_zip (legacy fallback), per spec.md §4.1 / S6.
	implausible := typeLength <= 0 || typeLength > len(data)-4
	if implausible {
		if isZipPrefixed {
			return &BinaryFrame{Type: FrameFlagsZip, Payload: data}, nil
		}
		return nil, apperr.New(apperr.MalformedFrame, fmt.Sprintf("implausible typeLength %d for frame of %d bytes", typeLength, len(data)))
	}

	tag := BinaryFrameType(data[4 : 4+typeLength])
	payload := data[4+typeLength:]

	if tag == frameFlagsLegacy {
		tag = FrameFlagsZip
	}

	switch tag {
	case FrameFlagsZip, FrameLogosZip, FramePicturesZip, FrameStyles, FrameTranslationsZip:
		return &BinaryFrame{Type: tag, Payload: payload}, nil
	default:
		// A plausible-looking typeLength can still decode to an
		// unrecognized tag when the four length bytes are actually
		// the start of ZIP content (e.g. typeLength=255 from a 100 KB
		// frame). Fall back to the same legacy-ZIP treatment rather
		// than rejecting a frame §4.1/S6 require be accepted.
		if isZipPrefixed {
			return &BinaryFrame{Type: FrameFlagsZip, Payload: data}, nil
		}
		return nil, apperr.New(apperr.MalformedFrame, fmt.Sprintf("unknown binary frame tag %q", tag))
	}
}

// EncodeBinaryFrame is the inverse of DecodeBinaryFrame, used by tests
// to verify the round-trip property (spec.md §8 property 9).
func EncodeBinaryFrame(tag BinaryFrameType, payload []byte) []byte {
	buf := make([]byte, 4+len(tag)+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(tag)))
	copy(buf[4:], tag)
	copy(buf[4+len(tag):], payload)
	return buf
}

// EncodeTextFrame is the inverse of DecodeTextFrame, used by tests and
// by components that need to construct synthetic frames.
func EncodeTextFrame(frameType TextFrameType, version string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(TextFrame{Type: frameType, Version: version, Payload: raw})
}
