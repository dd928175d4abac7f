// Package transport maintains the single WebSocket channel to the portal:
// connect, deliver frames in order, reconnect after a fixed delay, tear
// down on demand.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/workmate-live/dashboard/internal/clock"
)

const (
	DefaultReconnectDelay = 3 * time.Second
	writeTimeout          = 10 * time.Second
	pongTimeout           = 60 * time.Second
	pingInterval          = 30 * time.Second
	handshakeTimeout      = 10 * time.Second

	// MaxFrameSize bounds one inbound frame. A larger frame closes the
	// connection and the session retries.
	MaxFrameSize = 1 << 20
)

// ErrNotConnected is returned by Send when the session is not Open.
var ErrNotConnected = errors.New("websocket not connected")

// State is the connection lifecycle state. Only the Session moves it.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateRetryPending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateRetryPending:
		return "retry-pending"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// FrameHandler receives every text frame in arrival order.
type FrameHandler func(frame []byte)

// Config describes the endpoint and timing of a Session.
type Config struct {
	URL            string
	Token          string
	ReconnectDelay time.Duration
}

// Session is the transport state machine. Inbound events (dial result,
// frame, read error, retry timer) and outbound commands (Connect,
// Disconnect) are the only transitions:
//
//	Idle -> Connecting           Connect
//	Connecting -> Open           handshake ok
//	Connecting -> RetryPending   dial error
//	Connecting -> Idle           handshake rejected with 401
//	Open -> RetryPending         read error / close
//	RetryPending -> Connecting   retry timer
//	any -> Idle                  Disconnect
type Session struct {
	cfg           Config
	handler       FrameHandler
	dialer        *websocket.Dialer
	clock         clock.Clock
	log           *zap.Logger
	onStatus      func(connected bool)
	onAuthFailure func()

	mu        sync.Mutex
	state     State
	connected bool
	gen       uint64 // bumped per attempt and on Disconnect
	conn      *websocket.Conn
	cancel    context.CancelFunc // aborts an in-flight dial
	stopPing  chan struct{}
	retry     *clock.Timer
	retryID   uint64

	writeMu sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

func WithClock(c clock.Clock) Option { return func(s *Session) { s.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(s *Session) { s.log = l } }

func WithDialer(d *websocket.Dialer) Option { return func(s *Session) { s.dialer = d } }

// WithStatusSink publishes the connected flag on every Open edge. fn runs
// with the session lock held and must not call back into the Session.
func WithStatusSink(fn func(connected bool)) Option {
	return func(s *Session) { s.onStatus = fn }
}

// WithAuthFailure is called, without the lock held, when the handshake is
// rejected with 401. The session is Idle by then and will not retry.
func WithAuthFailure(fn func()) Option {
	return func(s *Session) { s.onAuthFailure = fn }
}

// NewSession creates an Idle session. handler must not be nil.
func NewSession(cfg Config, handler FrameHandler, opts ...Option) *Session {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	s := &Session{
		cfg:     cfg,
		handler: handler,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		clock: clock.Real(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("transport")
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the session is Open.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Connect starts the first attempt. It is a no-op unless the session is
// Idle; callers gate it on being authenticated.
func (s *Session) Connect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return
	}
	s.beginAttemptLocked()
}

// Disconnect cancels any pending retry, aborts an in-flight dial, closes
// the socket and returns to Idle. Safe to call repeatedly.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.stopRetryLocked()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.dropConnLocked()
	if s.state != StateIdle {
		s.log.Info("disconnected", zap.Stringer("from", s.state))
	}
	s.state = StateIdle
	s.setConnectedLocked(false)
}

// Send writes v as a JSON text frame.
func (s *Session) Send(v any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

func (s *Session) beginAttemptLocked() {
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.state = StateConnecting
	go s.dial(ctx, gen)
}

func (s *Session) dial(ctx context.Context, gen uint64) {
	target, err := s.endpoint()
	if err != nil {
		s.onDialResult(gen, nil, nil, err)
		return
	}
	header := http.Header{}
	if s.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+s.cfg.Token)
	}
	conn, resp, err := s.dialer.DialContext(ctx, target, header)
	s.onDialResult(gen, conn, resp, err)
}

// endpoint adds the token query parameter; browsers cannot set headers on
// WebSocket upgrades so the portal authenticates via the query string.
func (s *Session) endpoint() (string, error) {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return "", err
	}
	if s.cfg.Token != "" {
		q := u.Query()
		q.Set("token", s.cfg.Token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (s *Session) onDialResult(gen uint64, conn *websocket.Conn, resp *http.Response, err error) {
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	s.cancel = nil

	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			s.log.Warn("websocket handshake rejected, token no longer valid")
			s.state = StateIdle
			s.setConnectedLocked(false)
			fn := s.onAuthFailure
			s.mu.Unlock()
			if fn != nil {
				fn()
			}
			return
		}
		s.log.Warn("websocket dial failed",
			zap.Error(err), zap.Duration("retry_in", s.cfg.ReconnectDelay))
		s.state = StateRetryPending
		s.scheduleRetryLocked()
		s.setConnectedLocked(false)
		s.mu.Unlock()
		return
	}

	s.stopRetryLocked()
	s.conn = conn
	s.state = StateOpen
	s.setConnectedLocked(true)
	s.stopPing = make(chan struct{})
	stop := s.stopPing
	s.mu.Unlock()

	s.log.Info("websocket connected", zap.String("url", s.cfg.URL))
	go s.pingLoop(conn, stop)
	go s.readLoop(gen, conn)
}

func (s *Session) readLoop(gen uint64, conn *websocket.Conn) {
	conn.SetReadLimit(MaxFrameSize)
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(pongTimeout))

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			s.onClosed(gen, err)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if !s.current(gen) {
			return
		}
		s.deliver(data)
	}
}

func (s *Session) deliver(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("frame handler panicked, frame dropped", zap.Any("panic", r))
		}
	}()
	s.handler(data)
}

// onClosed handles Open -> RetryPending. Repeated close events for the
// same attempt leave the single pending retry in place.
func (s *Session) onClosed(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	if s.state == StateOpen {
		s.log.Info("websocket disconnected",
			zap.Error(err), zap.Duration("retry_in", s.cfg.ReconnectDelay))
	}
	s.dropConnLocked()
	s.state = StateRetryPending
	s.scheduleRetryLocked()
	s.setConnectedLocked(false)
}

func (s *Session) scheduleRetryLocked() {
	if s.retry != nil {
		return
	}
	s.retryID++
	id := s.retryID
	s.retry = s.clock.AfterFunc(s.cfg.ReconnectDelay, func() { s.onRetry(id) })
}

func (s *Session) onRetry(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.retryID || s.retry == nil || s.state != StateRetryPending {
		return
	}
	s.retry = nil
	s.log.Debug("attempting to reconnect websocket")
	s.beginAttemptLocked()
}

func (s *Session) stopRetryLocked() {
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
}

func (s *Session) dropConnLocked() {
	if s.stopPing != nil {
		close(s.stopPing)
		s.stopPing = nil
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

func (s *Session) setConnectedLocked(v bool) {
	if s.connected == v {
		return
	}
	s.connected = v
	if s.onStatus != nil {
		s.onStatus(v)
	}
}

func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen
}

func (s *Session) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := s.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// PendingRetry reports whether a reconnect timer is armed.
func (s *Session) PendingRetry() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retry != nil
}
