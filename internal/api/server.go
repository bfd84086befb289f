// Package api provides the local HTTP API and WebSocket event stream that
// UI consumers attach to.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"gesturehook/internal/config"
	"gesturehook/internal/dispatch"
	"gesturehook/internal/gesture"
	"gesturehook/internal/input"
	"gesturehook/internal/ui"
)

// HistorySize is how many recognized gestures /api/gestures remembers
const HistorySize = 32

// maxAnalyzePoints bounds the body accepted by /api/analyze
const maxAnalyzePoints = 100000

var errServerClosed = errors.New("event server closed")

// HookStatus reports whether the pointer hook is live
type HookStatus interface {
	Active() bool
}

// Server provides the HTTP API and event stream
type Server struct {
	configMgr  *config.Manager
	recognizer *gesture.Recognizer
	hook       HookStatus
	version    string
	history    *lru.Cache[string, dispatch.Payload]
	wsMgr      *WSManager

	startOnce  sync.Once
	mu         sync.Mutex
	httpServer *http.Server
	log        *logrus.Entry
}

// NewServer creates a new API server. hook may be nil when no hook is running.
func NewServer(configMgr *config.Manager, recognizer *gesture.Recognizer, hook HookStatus, version string) *Server {
	history, _ := lru.New[string, dispatch.Payload](HistorySize)
	s := &Server{
		configMgr:  configMgr,
		recognizer: recognizer,
		hook:       hook,
		version:    version,
		history:    history,
		log:        logrus.WithField("component", "api"),
	}
	s.wsMgr = newWSManager(s)
	return s
}

// Emit implements dispatch.Emitter by broadcasting to WebSocket clients
func (s *Server) Emit(event string, payload any) error {
	return s.wsMgr.Emit(event, payload)
}

// Record implements dispatch.Recorder
func (s *Server) Record(p dispatch.Payload) {
	s.history.Add(p.ID, p)
}

// Handler returns the routed handler and starts the WebSocket hub
func (s *Server) Handler() http.Handler {
	s.startOnce.Do(func() {
		go s.wsMgr.start()
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/enabled", s.handleEnabled)
	mux.HandleFunc("/api/gestures", s.handleGestures)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/", ui.Handler(s.version))

	return s.originMiddleware(s.authMiddleware(s.recoverMiddleware(mux)))
}

// Start listens on addr and serves until Shutdown. Blocking.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.log.WithError(err).Errorf("API server failed to listen on %s", addr)
		return err
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener until Shutdown. Blocking.
func (s *Server) Serve(ln net.Listener) error {
	server := &http.Server{Handler: s.Handler()}
	s.mu.Lock()
	s.httpServer = server
	s.mu.Unlock()

	s.log.WithField("addr", ln.Addr().String()).Info("Event server listening")
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.WithError(err).Error("API server stopped")
		return err
	}
	return nil
}

// Shutdown closes the listener and every WebSocket client
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsMgr.stop()

	s.mu.Lock()
	server := s.httpServer
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Listeners returns the number of attached WebSocket clients
func (s *Server) Listeners() int {
	return s.wsMgr.Listeners()
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Errorf("PANIC RECOV: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// sameOrigin reports whether a browser caller's Origin matches the host it
// addressed. Requests without an Origin header come from non-browser clients.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return originURL.Host == r.Host
}

// originMiddleware rejects state-changing API calls made by foreign pages.
// Simple cross-origin POSTs skip the CORS preflight, so the browser will not
// stop them on its own.
func (s *Server) originMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead &&
			strings.HasPrefix(r.URL.Path, "/api/") && !sameOrigin(r) {
			s.log.WithFields(logrus.Fields{
				"origin": r.Header.Get("Origin"),
				"path":   r.URL.Path,
			}).Warn("API: Rejected cross-origin request")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks the API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debugf("API: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		// Skip auth for health check and the monitor page, which brings its own token
		if r.URL.Path == "/health" || r.URL.Path == "/" {
			next.ServeHTTP(w, r)
			return
		}

		if token := s.configMgr.Get().General.APIToken; token != "" {
			if r.Header.Get("Authorization") != "Bearer "+token && r.URL.Query().Get("token") != token {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// StatusResponse is returned by GET /api/status
type StatusResponse struct {
	Version    string             `json:"version"`
	HookActive bool               `json:"hook_active"`
	Enabled    bool               `json:"enabled"`
	Recording  bool               `json:"recording"`
	Points     int                `json:"points"`
	Listeners  int                `json:"listeners"`
	Stats      gesture.Stats      `json:"stats"`
	Thresholds gesture.Thresholds `json:"thresholds"`
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := s.recognizer.Session()
	writeJSON(w, http.StatusOK, StatusResponse{
		Version:    s.version,
		HookActive: s.hook != nil && s.hook.Active(),
		Enabled:    s.recognizer.Enabled(),
		Recording:  session.Recording(),
		Points:     session.Len(),
		Listeners:  s.wsMgr.Listeners(),
		Stats:      s.recognizer.Stats(),
		Thresholds: s.recognizer.Thresholds(),
	})
}

// handleConfig handles GET (read) and POST (update) for configuration
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.configMgr.Get())

	case http.MethodPost:
		if !isJSON(r) {
			http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}
		newCfg := s.configMgr.Get()
		if err := json.NewDecoder(r.Body).Decode(&newCfg); err != nil {
			http.Error(w, "Invalid configuration data", http.StatusBadRequest)
			return
		}
		if err := newCfg.Gesture.Thresholds.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s.log.WithField("remote", r.RemoteAddr).Info("API: Receiving configuration update")

		s.configMgr.Set(newCfg)
		if err := s.configMgr.Save(); err != nil {
			s.log.WithError(err).Error("API: Failed to save received config")
			http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleEnabled handles POST /api/enabled?enabled=<bool>
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var enabled bool
	switch r.URL.Query().Get("enabled") {
	case "true", "1", "on":
		enabled = true
	case "false", "0", "off":
		enabled = false
	default:
		http.Error(w, "Missing or invalid enabled parameter", http.StatusBadRequest)
		return
	}

	s.configMgr.Update(func(c *config.Config) { c.Gesture.Enabled = enabled })
	if err := s.configMgr.Save(); err != nil {
		s.log.WithError(err).Warn("API: Failed to persist enabled flag")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "enabled": enabled})
}

// handleGestures handles GET /api/gestures, newest first
func (s *Server) handleGestures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	keys := s.history.Keys()
	out := make([]dispatch.Payload, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if p, ok := s.history.Peek(keys[i]); ok {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Points     []gesture.Point     `json:"points"`
	Downsample bool                `json:"downsample"`
	Thresholds *gesture.Thresholds `json:"thresholds,omitempty"`
}

// handleAnalyze handles POST /api/analyze, an offline tuning aid
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid analyze request", http.StatusBadRequest)
		return
	}
	if len(req.Points) > maxAnalyzePoints {
		http.Error(w, "Too many points", http.StatusRequestEntityTooLarge)
		return
	}

	th := s.recognizer.Thresholds()
	if req.Thresholds != nil {
		if err := req.Thresholds.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		th = *req.Thresholds
	}

	points := req.Points
	if req.Downsample {
		points = gesture.Downsample(points, th.SampleDistance)
	}
	writeJSON(w, http.StatusOK, gesture.Inspect(points, th))
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var (
	_ dispatch.Emitter  = (*Server)(nil)
	_ dispatch.Recorder = (*Server)(nil)
	_ HookStatus        = (*input.Hook)(nil)
)
