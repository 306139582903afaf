package protocol

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jflamy/owlcms-tracker-sub001/internal/archive"
	"github.com/jflamy/owlcms-tracker-sub001/internal/codec"
	"github.com/jflamy/owlcms-tracker-sub001/internal/events"
	"github.com/jflamy/owlcms-tracker-sub001/internal/hub"
)

func buildTranslationsZip(t *testing.T, locales map[string]any) []byte {
	t.Helper()
	payload, err := json.Marshal(locales)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("translations.json")
	require.NoError(t, err)
	_, err = f.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func buildFlagsZip(t *testing.T, contentSize int) []byte {
	t.Helper()
	if contentSize < len("fake-png-bytes") {
		contentSize = len("fake-png-bytes")
	}
	content := make([]byte, contentSize)
	copy(content, "fake-png-bytes")

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("usa.png")
	require.NoError(t, err)
	_, err = f.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	emitter := events.New()
	h := hub.New(emitter)
	extractor := archive.New(t.TempDir())
	return New(h, emitter, extractor, "2.0.0", 10<<20, true)
}

// TestS1PreconditionHandshake mirrors the literal scenario: an update
// frame to a fresh hub is rejected with the missing-preconditions
// envelope; after a database frame and a translations_zip delivery,
// the same update succeeds.
func TestS1PreconditionHandshake(t *testing.T) {
	ctx := context.Background()
	h := newTestHandler(t)

	updateFrame, err := codec.EncodeTextFrame(codec.FrameUpdate, "2.0.0", map[string]any{
		"fopName": "A",
		"uiEvent": "LiftingOrderUpdated",
	})
	require.NoError(t, err)

	reply := h.HandleText(ctx, updateFrame)
	require.Equal(t, 428, reply.Status)
	require.Equal(t, "missing_preconditions", reply.Reason)
	require.ElementsMatch(t, []string{"database", "translations"}, reply.Missing)

	databaseFrame, err := codec.EncodeTextFrame(codec.FrameDatabase, "2.0.0", map[string]any{
		"formatVersion": "2.0",
		"competition":   map[string]any{"name": "Test Meet", "fops": []string{"A"}},
	})
	require.NoError(t, err)
	reply = h.HandleText(ctx, databaseFrame)
	require.Equal(t, 200, reply.Status)

	zipPayload := buildTranslationsZip(t, map[string]any{"en": map[string]string{"Start": "Start"}})
	binaryFrame := codec.EncodeBinaryFrame(codec.FrameTranslationsZip, zipPayload)
	reply = h.HandleBinary(ctx, binaryFrame)
	require.Equal(t, 200, reply.Status)

	reply = h.HandleText(ctx, updateFrame)
	require.Equal(t, 200, reply.Status)
	require.Equal(t, "Update processed", reply.Message)
}

// TestS6LegacyBinaryFallback mirrors the literal scenario: an
// implausible typeLength with a ZIP-magic payload is treated as
// flags_zip end-to-end through the protocol handler.
func TestS6LegacyBinaryFallback(t *testing.T) {
	ctx := context.Background()
	h := newTestHandler(t)

	// The archive's single entry holds 100 KB of content, grown inside
	// the zip rather than as raw trailing bytes so the archive stays
	// well-formed (trailing junk after the end-of-central-directory
	// record would break zip parsing). Deflate shrinks the zero padding,
	// so the frame itself is only a few hundred bytes; the codec's
	// ZIP-magic fallback yields flags_zip whichever typeLength branch
	// applies.
	zipPayload := buildFlagsZip(t, 100_000)

	frame := make([]byte, 4+len(zipPayload))
	frame[0], frame[1], frame[2], frame[3] = 0x00, 0x00, 0x00, 0xFF
	copy(frame[4:], zipPayload)

	reply := h.HandleBinary(ctx, frame)
	require.Equal(t, 200, reply.Status)
}

func TestVersionBelowMinimumIsRejected(t *testing.T) {
	ctx := context.Background()
	h := newTestHandler(t)

	frame, err := codec.EncodeTextFrame(codec.FrameUpdate, "1.9.0", map[string]any{"fopName": "A"})
	require.NoError(t, err)

	reply := h.HandleText(ctx, frame)
	require.Equal(t, 400, reply.Status)
}

func TestMalformedTextFrameRepliesInternalError(t *testing.T) {
	ctx := context.Background()
	h := newTestHandler(t)

	reply := h.HandleText(ctx, []byte("not json"))
	require.Equal(t, 500, reply.Status)
}

func TestOversizeBinaryFrameRejected(t *testing.T) {
	ctx := context.Background()
	emitter := events.New()
	hb := hub.New(emitter)
	extractor := archive.New(t.TempDir())
	h := New(hb, emitter, extractor, "2.0.0", 4, true)

	reply := h.HandleBinary(ctx, make([]byte, 100))
	require.Equal(t, 500, reply.Status)
}
