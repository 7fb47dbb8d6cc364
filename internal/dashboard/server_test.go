package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dstps/dstps/internal/alertlog"
	"github.com/dstps/dstps/internal/evidence"
)

func setupServer(t *testing.T) (*Server, alertlog.Store, *evidence.Store) {
	t.Helper()
	dir := t.TempDir()

	store, err := alertlog.OpenFileStore(
		filepath.Join(dir, "alerts.json"),
		filepath.Join(dir, "alerts.csv"),
		zap.NewNop(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ev, err := evidence.NewStore(filepath.Join(dir, "evidence"), zap.NewNop())
	require.NoError(t, err)

	return NewServer("127.0.0.1:0", store, ev, zap.NewNop()), store, ev
}

func appendAlert(t *testing.T, store alertlog.Store, camera, alertType string) string {
	t.Helper()
	id, err := store.Append(alertlog.Record{
		Timestamp:       time.Now().Format(alertlog.TimestampLayout),
		CameraName:      camera,
		Location:        "front door",
		AlertType:       alertType,
		ActionType:      "normal",
		Confidence:      0.85,
		ZoneCoordinates: "(100, 100, 400, 400)",
	})
	require.NoError(t, err)
	return id
}

func TestAlertsEndpointNewestFirst(t *testing.T) {
	s, store, _ := setupServer(t)
	first := appendAlert(t, store, "Main Entrance", alertlog.TypeZoneBreach)
	second := appendAlert(t, store, "Loading Dock", alertlog.TypeSuspiciousAction)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body struct {
		Alerts []alertlog.Record `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Alerts, 2)
	assert.Equal(t, second, body.Alerts[0].AlertID)
	assert.Equal(t, first, body.Alerts[1].AlertID)
}

func TestStatsEndpoint(t *testing.T) {
	s, store, _ := setupServer(t)
	appendAlert(t, store, "Main Entrance", alertlog.TypeZoneBreach)
	appendAlert(t, store, "Main Entrance", alertlog.TypeSuspiciousAction)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var stats alertlog.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalAlerts)
	assert.Equal(t, 1, stats.ZoneBreaches)
	assert.Equal(t, 1, stats.SuspiciousActions)
}

func TestEvidenceListingAndServing(t *testing.T) {
	s, _, ev := setupServer(t)
	ts := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	path := ev.Save(context.Background(), []byte("jpeg-bytes"), "Main Entrance", alertlog.TypeZoneBreach, ts)
	require.NotEmpty(t, path)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/evidence", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Images []evidence.Item `json:"images"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Images, 1)
	assert.Equal(t, "Main Entrance", body.Images[0].Camera)

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/evidence/"+url.PathEscape(body.Images[0].Filename), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "jpeg-bytes", rr.Body.String())
}

func TestEvidenceServingRejectsUnknownAndTraversal(t *testing.T) {
	s, _, _ := setupServer(t)

	for _, path := range []string{
		"/evidence/missing.jpg",
		"/evidence/alerts.json",
	} {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
	}
}

func TestHealthAndMethodGuards(t *testing.T) {
	s, _, _ := setupServer(t)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/alerts", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCORSAllowsKnownOrigin(t *testing.T) {
	s, _, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebsocketReceivesNewAlerts(t *testing.T) {
	s, store, _ := setupServer(t)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.Eventually(t, func() bool {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		return len(s.hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	id := appendAlert(t, store, "Main Entrance", alertlog.TypeZoneBreach)
	s.hub.broadcastNew()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var rec alertlog.Record
	require.NoError(t, conn.ReadJSON(&rec))
	assert.Equal(t, id, rec.AlertID)

	// Already broadcast: a second poll pushes nothing new.
	s.hub.broadcastNew()
	assert.Equal(t, id, s.hub.lastID)
}

func TestTailAfter(t *testing.T) {
	recs := make([]alertlog.Record, 3)
	for i := range recs {
		recs[i].AlertID = fmt.Sprintf("ALT%06d", i+1)
	}

	assert.Len(t, tailAfter(recs, ""), 3)
	assert.Len(t, tailAfter(recs, "ALT000001"), 2)
	assert.Empty(t, tailAfter(recs, "ALT000003"))
	assert.Len(t, tailAfter(recs, "ALT999999"), 3)
}
