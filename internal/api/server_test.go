package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gesturehook/internal/config"
	"gesturehook/internal/dispatch"
	"gesturehook/internal/gesture"
	"gesturehook/internal/protocol"
)

type fakeHook struct{ active bool }

func (f fakeHook) Active() bool { return f.active }

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	mgr := config.NewManagerAt(filepath.Join(t.TempDir(), "config.json"))
	rec := gesture.NewRecognizer(gesture.DefaultThresholds(), gesture.SinkFunc(func(gesture.Circle, gesture.Report) {}))
	mgr.RegisterChangeCallback(func(c config.Config) {
		rec.SetEnabled(c.Gesture.Enabled)
	})

	s := NewServer(mgr, rec, fakeHook{active: true}, "test")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Shutdown(context.Background())
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// The hello is only written once the client is registered
	msg := readMessage(t, conn)
	require.Equal(t, protocol.TypeHello, msg.Type)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg protocol.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatus(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "test", status.Version)
	assert.True(t, status.HookActive)
	assert.True(t, status.Enabled)
	assert.False(t, status.Recording)
	assert.Equal(t, gesture.DefaultThresholds(), status.Thresholds)
}

func TestStatusMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/status", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAuthToken(t *testing.T) {
	s, ts := newTestServer(t)
	s.configMgr.Update(func(c *config.Config) { c.General.APIToken = "secret" })

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/status?token=secret")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConfigUpdate(t *testing.T) {
	s, ts := newTestServer(t)

	cfg := s.configMgr.Get()
	cfg.Gesture.Thresholds.MinPoints = 20
	body, _ := json.Marshal(cfg)
	resp, err := http.Post(ts.URL+"/api/config", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 20, s.configMgr.Get().Gesture.Thresholds.MinPoints)

	resp, err = http.Get(ts.URL + "/api/config")
	require.NoError(t, err)
	defer resp.Body.Close()
	var got config.Config
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 20, got.Gesture.Thresholds.MinPoints)
}

func TestConfigRejectsInvalidThresholds(t *testing.T) {
	s, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/config", "application/json",
		strings.NewReader(`{"gesture":{"thresholds":{"sectors":0}}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, gesture.DefaultThresholds(), s.configMgr.Get().Gesture.Thresholds)
}

func TestEnabledToggle(t *testing.T) {
	s, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/enabled?enabled=false", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, s.configMgr.Get().Gesture.Enabled)
	assert.False(t, s.recognizer.Enabled())

	resp, err = http.Post(ts.URL+"/api/enabled?enabled=maybe", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGestureHistoryNewestFirst(t *testing.T) {
	s, ts := newTestServer(t)
	for i := 0; i < HistorySize+5; i++ {
		s.Record(dispatch.Payload{
			ID:     string(rune('a' + i%26)) + string(rune('A'+i/26)),
			Circle: gesture.Circle{Radius: float64(i)},
		})
	}

	resp, err := http.Get(ts.URL + "/api/gestures")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got []dispatch.Payload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, HistorySize)
	assert.Equal(t, float64(HistorySize+4), got[0].Radius)
	assert.Equal(t, float64(5), got[len(got)-1].Radius)
}

func TestAnalyzeEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	var pts []gesture.Point
	for i := 0; i < 40; i++ {
		a := 0.1 + 2*math.Pi*float64(i)/40
		pts = append(pts, gesture.Point{X: 200 + 50*math.Cos(a), Y: 200 + 50*math.Sin(a)})
	}
	body, _ := json.Marshal(AnalyzeRequest{Points: pts})
	resp, err := http.Post(ts.URL+"/api/analyze", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report gesture.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Empty(t, report.Rejected)
	assert.InDelta(t, 50, report.AvgRadius, 0.5)

	resp2, err := http.Post(ts.URL+"/api/analyze", "application/json",
		strings.NewReader(`{"points":[],"thresholds":{"min_points":0}}`))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestEmitWithoutListeners(t *testing.T) {
	s, _ := newTestServer(t)
	assert.ErrorIs(t, s.Emit(dispatch.EventCircle, nil), dispatch.ErrNoListeners)
}

func TestEmitBroadcastsToClient(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)
	assert.Equal(t, 1, s.Listeners())

	payload := dispatch.Payload{ID: "abc", Circle: gesture.Circle{CenterX: 10, CenterY: 20, Radius: 30}, Scale: 1}
	require.NoError(t, s.Emit(dispatch.EventCircle, payload))

	msg := readMessage(t, conn)
	assert.Equal(t, protocol.TypeGestureCircle, msg.Type)
	data, _ := json.Marshal(msg.Payload)
	var got dispatch.Payload
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, 30.0, got.Radius)
}

func TestPingPong(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(protocol.Message{Type: protocol.TypePing}))
	assert.Equal(t, protocol.TypePong, readMessage(t, conn).Type)
}

func TestSubscribeFiltersEvents(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(protocol.Message{
		Type:    protocol.TypeSubscribe,
		Payload: protocol.SubscribePayload{Events: []string{"something-else"}},
	}))
	// Round trip a ping so the subscribe is applied before emitting
	require.NoError(t, conn.WriteJSON(protocol.Message{Type: protocol.TypePing}))
	require.Equal(t, protocol.TypePong, readMessage(t, conn).Type)

	require.NoError(t, s.Emit(dispatch.EventCircle, dispatch.Payload{ID: "filtered"}))

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var msg protocol.Message
	assert.Error(t, conn.ReadJSON(&msg))
}

func TestShutdownClosesClients(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)

	require.NoError(t, s.Shutdown(context.Background()))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.ErrorIs(t, s.Emit(dispatch.EventCircle, nil), dispatch.ErrNoListeners)
}

func TestMonitorPageSkipsAuth(t *testing.T) {
	s, ts := newTestServer(t)
	s.configMgr.Update(func(c *config.Config) { c.General.APIToken = "secret" })

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConfigRejectsForeignOrigin(t *testing.T) {
	s, ts := newTestServer(t)

	body := `{"gesture":{"enabled":false},"general":{"api_token":"other"}}`
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/config", strings.NewReader(body))
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Content-Type", "text/plain")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/api/enabled?enabled=false", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	cfg := s.configMgr.Get()
	assert.True(t, cfg.Gesture.Enabled)
	assert.Empty(t, cfg.General.APIToken)
	assert.True(t, s.recognizer.Enabled())
}

func TestConfigRequiresJSONContentType(t *testing.T) {
	s, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/config", "text/plain",
		strings.NewReader(`{"gesture":{"enabled":false}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.True(t, s.configMgr.Get().Gesture.Enabled)
}

func TestSameOriginPostAllowed(t *testing.T) {
	s, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/enabled?enabled=false", nil)
	req.Header.Set("Origin", ts.URL)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, s.configMgr.Get().Gesture.Enabled)
}

func TestWebSocketRejectsForeignOriginByDefault(t *testing.T) {
	_, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": {"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
