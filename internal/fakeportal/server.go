// Package fakeportal is an in-process stand-in for the live portal backend.
// It serves the REST routes and the /ws push channel the dashboard consumes,
// and backs both the --demo mode and the integration tests.
package fakeportal

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/workmate-live/dashboard/internal/client"
)

// Server is a fake portal. The zero value is not usable; call New.
type Server struct {
	log      *zap.Logger
	hub      *hub
	router   chi.Router
	upgrader websocket.Upgrader

	mu       sync.Mutex
	token    string
	state    Snapshot
	failures map[string]int
	delays   map[string]time.Duration
	hits     map[string]int
	pings    int

	srv *http.Server
	ln  net.Listener
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *zap.Logger) Option { return func(s *Server) { s.log = l } }

// WithSnapshot replaces the initial portal state.
func WithSnapshot(snap Snapshot) Option { return func(s *Server) { s.state = snap } }

// New creates a portal accepting token. An empty token disables auth.
func New(token string, opts ...Option) *Server {
	s := &Server{
		log:      zap.NewNop(),
		token:    token,
		state:    DefaultSnapshot(),
		failures: make(map[string]int),
		delays:   make(map[string]time.Duration),
		hits:     make(map[string]int),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("fakeportal")
	s.hub = newHub(s.log)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "fakeportal"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/ws", s.handleWS)

		r.Route("/api/agent", func(r chi.Router) {
			r.Get("/status", s.handleAgentStatus)
		})
		r.Route("/api/obs", func(r chi.Router) {
			r.Get("/status", s.handleOBSStatus)
			r.Get("/scenes", s.handleScenes)
			r.Post("/scenes/switch", s.handleSwitchScene)
			r.Get("/sources", s.handleSources)
			r.Post("/sources/toggle", s.handleToggleSource)
			r.Post("/streaming/{action}", s.handleStreaming)
			r.Post("/recording/{action}", s.handleRecording)
		})
		r.Route("/api/twitch", func(r chi.Router) {
			r.Get("/status", s.handleTwitchStatus)
			r.Get("/stats", s.handleTwitchStats)
			r.Patch("/stream", s.handleUpdateTwitchStream)
		})
		r.Route("/api/youtube", func(r chi.Router) {
			r.Get("/status", s.handleYouTubeStatus)
			r.Get("/stats", s.handleYouTubeStats)
			r.Patch("/stream", s.handleUpdateYouTubeStream)
		})
	})
	return r
}

// ServeHTTP makes the portal usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on addr (e.g. "127.0.0.1:0") and serves in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.srv = &http.Server{Handler: s, ReadHeaderTimeout: 5 * time.Second}
	srv := s.srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve failed", zap.Error(err))
		}
	}()
	s.log.Info("fake portal listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// URL is the REST base URL. Only valid after Start.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}

// WSURL is the push channel URL. Only valid after Start.
func (s *Server) WSURL() string {
	return strings.Replace(s.URL(), "http://", "ws://", 1) + "/ws"
}

// Close drops every client and stops the listener.
func (s *Server) Close() {
	s.hub.dropAll()
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()
	if srv != nil {
		srv.Close()
	}
}

// SetToken rotates the accepted token; requests with the old one get 401.
func (s *Server) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Update mutates the portal state without pushing anything.
func (s *Server) Update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
}

// State returns a copy of the current portal state.
func (s *Server) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Fail makes every request to path answer with status until ClearFailures.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	s.failures[path] = status
	s.mu.Unlock()
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	s.failures = make(map[string]int)
	s.mu.Unlock()
}

// Delay holds responses for path by d.
func (s *Server) Delay(path string, d time.Duration) {
	s.mu.Lock()
	s.delays[path] = d
	s.mu.Unlock()
}

// Hits is the number of requests seen for path, failed ones included.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Pings is the number of application ping frames received on /ws.
func (s *Server) Pings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pings
}

// ClientCount is the number of open /ws connections.
func (s *Server) ClientCount() int { return s.hub.count() }

// DropClients closes every /ws connection from the server side.
func (s *Server) DropClients() { s.hub.dropAll() }

// Push broadcasts one {type, data} frame.
func (s *Server) Push(typ client.MessageType, data any) error {
	return s.hub.broadcast(typ, data)
}

// PushRaw broadcasts frame as-is, malformed or not.
func (s *Server) PushRaw(frame []byte) { s.hub.broadcastRaw(frame) }

// PushOBSEvent broadcasts an obs_event frame.
func (s *Server) PushOBSEvent(ev client.OBSEvent) error {
	return s.Push(client.MsgOBSEvent, ev)
}

// PushAlert broadcasts a twitch_event frame in the portal's nested layout.
func (s *Server) PushAlert(a client.TwitchAlert) error {
	wire := struct {
		Type      client.TwitchAlertType `json:"type"`
		Timestamp time.Time              `json:"timestamp"`
		Data      any                    `json:"data"`
	}{Type: a.Type, Timestamp: a.Timestamp}
	switch {
	case a.Follow != nil:
		wire.Data = a.Follow
	case a.Subscribe != nil:
		wire.Data = a.Subscribe
	case a.Raid != nil:
		wire.Data = a.Raid
	default:
		return errors.New("alert has no payload")
	}
	return s.Push(client.MsgTwitchEvent, wire)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		status := s.failures[r.URL.Path]
		delay := s.delays[r.URL.Path]
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		token := s.token
		s.mu.Unlock()
		if token != "" && !authorized(r, token) {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func authorized(r *http.Request, token string) bool {
	if r.URL.Query().Get("token") == token {
		return true
	}
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == token
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	s.log.Debug("ws client connected", zap.String("remote", r.RemoteAddr))
	c := s.hub.add(conn)

	go func() {
		defer func() {
			s.hub.remove(c)
			s.log.Debug("ws client disconnected", zap.String("remote", r.RemoteAddr))
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env client.Envelope
			if json.Unmarshal(data, &env) == nil && env.Type == client.MsgPing {
				s.mu.Lock()
				s.pings++
				s.mu.Unlock()
				if frame, err := encodeFrame(client.MsgPong, struct{}{}); err == nil {
					c.trySend(frame)
				}
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
