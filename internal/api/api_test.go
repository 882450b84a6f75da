package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ausmo/scan-engine/db"
	"github.com/ausmo/scan-engine/internal/clock"
	"github.com/ausmo/scan-engine/internal/events"
	"github.com/ausmo/scan-engine/internal/model"
	"github.com/ausmo/scan-engine/internal/scanner"
	"github.com/ausmo/scan-engine/internal/settings"
	"github.com/ausmo/scan-engine/internal/suggestions"
	"github.com/ausmo/scan-engine/internal/tutorial"
)

func testSettings() model.ScanSettings {
	return model.ScanSettings{
		Enabled:         true,
		Speed:           time.Hour, // the clock must never fire mid-test
		Mode:            model.ModeStep,
		Direction:       model.DirectionRowColumn,
		SwitchType:      model.SwitchSingle,
		AutoSelect:      false,
		AutoSelectDelay: 3 * time.Second,
	}
}

func newTestServer(t *testing.T) (*Server, *scanner.Engine) {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(conn))
	require.NoError(t, db.Seed(conn, testSettings()))

	store := settings.NewStore(testSettings())
	engine := scanner.New(store, events.NewBus(), clock.New(), nil, nil)
	engine.Initialize()
	t.Cleanup(engine.StopScanning)

	sugg := suggestions.NewService(suggestions.DefaultRules)
	tut := tutorial.NewService(conn)

	return NewServer(conn, engine, sugg, tut), engine
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, "GET", "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestGetSettings(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, "GET", "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body SettingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Enabled)
	assert.Equal(t, "step", body.Mode)
	assert.Equal(t, "row-column", body.Direction)
}

func TestUpdateSettings(t *testing.T) {
	srv, engine := newTestServer(t)

	speed := int64(900)
	mode := "automatic"
	rec := doRequest(t, srv, "PUT", "/api/settings", SettingsRequest{
		SpeedMs: &speed,
		Mode:    &mode,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	got := engine.Settings()
	assert.Equal(t, 900*time.Millisecond, got.Speed)
	assert.Equal(t, model.ModeAutomatic, got.Mode)
	// Untouched fields keep their values.
	assert.Equal(t, model.DirectionRowColumn, got.Direction)
}

func TestUpdateSettingsRejectsBadMode(t *testing.T) {
	srv, engine := newTestServer(t)

	mode := "warp"
	rec := doRequest(t, srv, "PUT", "/api/settings", SettingsRequest{Mode: &mode})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.ModeStep, engine.Settings().Mode)
}

func TestScanLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, "POST", "/api/scan/start", StartScanRequest{Rows: 2, Columns: 3})
	require.Equal(t, http.StatusOK, rec.Code)

	var state model.ScanState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.True(t, state.IsScanning)
	assert.Equal(t, model.PhaseRow, state.Phase)
	assert.Equal(t, 0, state.CurrentRow)

	rec = doRequest(t, srv, "POST", "/api/scan/press", PressRequest{Kind: "next"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, 1, state.CurrentRow)

	rec = doRequest(t, srv, "POST", "/api/scan/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.False(t, state.IsScanning)
}

func TestStartScanRejectsZeroDimensions(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, "POST", "/api/scan/start", StartScanRequest{Rows: 0, Columns: 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPressRejectsUnknownKind(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, "POST", "/api/scan/press", PressRequest{Kind: "mash"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileLifecycle(t *testing.T) {
	srv, engine := newTestServer(t)

	speed := int64(2500)
	rec := doRequest(t, srv, "POST", "/api/profiles", ProfileRequest{
		Name:     "Morning",
		Settings: SettingsRequest{SpeedMs: &speed},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Morning", created.Name)
	require.NotEmpty(t, created.ID)

	rec = doRequest(t, srv, "GET", "/api/profiles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profiles []model.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profiles))
	assert.Len(t, profiles, 2) // seeded default plus the new one

	rec = doRequest(t, srv, "POST", "/api/profiles/"+created.ID+"/activate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2500*time.Millisecond, engine.Settings().Speed)
}

func TestActivateUnknownProfile(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, "POST", "/api/profiles/no-such/activate", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUnknownProfile(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, "GET", "/api/profiles/no-such", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectionsEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, "GET", "/api/selections", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var selections []model.Selection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &selections))
	assert.Empty(t, selections)
}

func TestSelectionsRejectsBadLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, raw := range []string{"0", "-3", "5xyz", "abc"} {
		rec := doRequest(t, srv, "GET", "/api/selections?limit="+raw, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", raw)
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx, 0) // ephemeral port
	})

	// Give the listener a moment to come up, then cancel the way a signal
	// would in the daemon.
	time.Sleep(200 * time.Millisecond)
	cancel()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server still running after context cancel")
	}
}

func TestSuggestionsFilteredByTime(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, "GET", "/api/suggestions?at=2026-08-27T08:00:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var matched []model.Suggestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matched))
	require.NotEmpty(t, matched)
	for _, s := range matched {
		hour := 8
		assert.GreaterOrEqual(t, hour, s.FromHour)
		assert.Less(t, hour, s.ToHour)
	}
}

func TestSuggestionsRejectsBadTimestamp(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, "GET", "/api/suggestions?at=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTutorialEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, "GET", "/api/tutorial/steps", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var steps []model.TutorialStep
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &steps))
	require.NotEmpty(t, steps)

	rec = doRequest(t, srv, "POST", "/api/tutorial/steps/"+steps[0].ID+"/complete", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, srv, "GET", "/api/tutorial/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var progress ProgressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.Equal(t, 1, progress.Completed)
	assert.Equal(t, len(steps), progress.Total)
}

func TestCompleteUnknownTutorialStep(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, "POST", "/api/tutorial/steps/no-such/complete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
