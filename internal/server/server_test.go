package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jflamy/owlcms-tracker-sub001/internal/archive"
	"github.com/jflamy/owlcms-tracker-sub001/internal/broker"
	"github.com/jflamy/owlcms-tracker-sub001/internal/events"
	"github.com/jflamy/owlcms-tracker-sub001/internal/hub"
	"github.com/jflamy/owlcms-tracker-sub001/internal/model"
	"github.com/jflamy/owlcms-tracker-sub001/internal/projection"
	"github.com/jflamy/owlcms-tracker-sub001/internal/protocol"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	emitter := events.New()
	h := hub.New(emitter)
	extractor := archive.New(t.TempDir())
	handler := protocol.New(h, emitter, extractor, "2.0.0", 10<<20, true)
	b := broker.New(8, time.Millisecond)
	b.Attach(emitter)
	host := projection.NewHost(h, "en", 20)
	host.Register(projection.Definition{
		Name:        "liftingOrder",
		Description: "current lifting order for a FOP",
		Schema:      projection.LiftingOrderSchema,
		Fn:          projection.LiftingOrder,
	})
	return New(h, handler, b, host, "/ws")
}

func TestHealthReportsNotReadyBeforeData(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.App.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, false, body["ready"])
	require.Equal(t, "waiting_for_data", body["status"])
}

func TestListScoreboardsReturnsRegisteredDefinitions(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/scoreboards", nil)
	resp, err := s.App.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body []map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body, 1)
	require.Equal(t, "liftingOrder", body[0]["name"])
}

func TestListFopsEmptyBeforeAnyData(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/fops", nil)
	resp, err := s.App.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	var body []string
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Empty(t, body)
}

func TestQueryProjectionWaitsForDataBeforeReady(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/projection/liftingOrder/A", nil)
	resp, err := s.App.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, false, body["success"])
	require.Equal(t, true, body["waiting"])
}

// TestQueryProjectionCoercesBooleanQueryOption covers the GET-style
// projection query from §6: ?includeSpacers=false must reach
// LiftingOrderSchema's OptionBoolean validation as an actual bool, not
// be rejected because c.Queries() only ever yields strings.
func TestQueryProjectionCoercesBooleanQueryOption(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, s.hub.IngestDatabase(ctx, []byte(`{"formatVersion":"2.0","competition":{"name":"Test","fops":["A"]}}`), true))
	s.hub.IngestTranslations(ctx, "en", model.TranslationTable{"Start": "Start"})
	require.NoError(t, s.hub.IngestUpdate(ctx, json.RawMessage(`{"fopName":"A","uiEvent":"LiftingOrderUpdated"}`)))

	req := httptest.NewRequest(http.MethodGet, "/projection/liftingOrder/A?includeSpacers=false", nil)
	resp, err := s.App.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, true, body["success"])
	options, ok := body["options"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, false, options["includeSpacers"])
}

func TestHandleActionUnknownActionIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/action", strings.NewReader(`{"action":"bogus"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 400, resp.StatusCode)
}

func TestIngressMountRejectsNonUpgradeRequest(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	resp, err := s.App.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
