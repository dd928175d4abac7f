package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/workmate-live/dashboard/internal/client"
	"github.com/workmate-live/dashboard/internal/clock"
	"github.com/workmate-live/dashboard/internal/config"
	"github.com/workmate-live/dashboard/internal/poller"
	"github.com/workmate-live/dashboard/internal/reconcile"
	"github.com/workmate-live/dashboard/internal/transport"
)

// ErrNotAuthenticated is returned by actions while logged out.
var ErrNotAuthenticated = errors.New("not logged in")

// DefaultHeartbeatInterval is how often an application ping is sent on
// the push channel.
const DefaultHeartbeatInterval = 30 * time.Second

// Poll task names. OBS tasks share their names with reconcile targets so
// invalidations trigger them directly.
const (
	TaskAgent         = "agent"
	TaskOBSStatus     = string(reconcile.TargetOBSStatus)
	TaskOBSScenes     = string(reconcile.TargetOBSScenes)
	TaskOBSSources    = string(reconcile.TargetOBSSources)
	TaskTwitchStatus  = "twitch.status"
	TaskTwitchStats   = "twitch.stats"
	TaskYouTubeStatus = "youtube.status"
	TaskYouTubeStats  = "youtube.stats"
)

// Options configures a Runtime.
type Options struct {
	BaseURL           string
	WSURL             string // derived from BaseURL when empty
	RequestTimeout    time.Duration
	ReconnectDelay    time.Duration
	PollInterval      time.Duration
	HeartbeatInterval time.Duration // application ping pacing
	Clock             clock.Clock
	Logger            *zap.Logger
	// OnAuthFailure runs once per login when the portal rejects the token.
	OnAuthFailure func()
}

// OptionsFromConfig maps the file configuration onto runtime options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:           cfg.Portal.BaseURL,
		WSURL:             cfg.Portal.WSURL,
		RequestTimeout:    cfg.Portal.RequestTimeout,
		ReconnectDelay:    cfg.Sync.ReconnectDelay,
		PollInterval:      cfg.Sync.PollInterval,
		HeartbeatInterval: cfg.Sync.HeartbeatInterval,
	}
}

// Runtime is the authenticated lifetime: REST client, push session and
// pollers exist only between Login and Logout.
type Runtime struct {
	opts  Options
	state *State
	log   *zap.Logger

	mu         sync.Mutex
	authed     bool
	api        *client.HTTPClient
	session    *transport.Session
	pollers    *poller.Controller
	dispatcher *Dispatcher
	authFailed *atomic.Bool // per login
	stopBeat   chan struct{}
}

// NewRuntime creates a logged-out runtime writing to state.
func NewRuntime(state *State, opts Options) *Runtime {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	}
	return &Runtime{opts: opts, state: state, log: opts.Logger.Named("live")}
}

func (r *Runtime) State() *State { return r.state }

func (r *Runtime) Authenticated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.authed
}

// Login starts the push session and the pollers with token. Logging in
// again first logs the previous token out; both happen under one lock so
// concurrent logins never leave an orphaned session behind.
func (r *Runtime) Login(token string) error {
	wsURL := r.opts.WSURL
	if wsURL == "" {
		var err error
		if wsURL, err = client.DeriveWSURL(r.opts.BaseURL); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.logoutLocked()

	failed := &atomic.Bool{}
	onUnauthorized := func() { r.authFailure(failed) }

	api := client.NewHTTPClient(r.opts.BaseURL, token,
		client.WithTimeout(r.opts.RequestTimeout),
		client.WithUnauthorizedHandler(onUnauthorized))

	pollers := poller.New(r.tasks(api),
		poller.WithClock(r.opts.Clock),
		poller.WithLogger(r.opts.Logger),
		poller.WithInterval(r.opts.PollInterval),
		poller.WithErrorHandler(func(_ string, err error) {
			if errors.Is(err, client.ErrUnauthorized) {
				onUnauthorized()
			}
		}))

	dispatcher := NewDispatcher(r.state, func(t reconcile.Target) {
		pollers.Trigger(string(t))
	}, r.opts.Logger)

	session := transport.NewSession(transport.Config{
		URL:            wsURL,
		Token:          token,
		ReconnectDelay: r.opts.ReconnectDelay,
	}, dispatcher.HandleFrame,
		transport.WithClock(r.opts.Clock),
		transport.WithLogger(r.opts.Logger),
		transport.WithStatusSink(r.state.SetLinked),
		transport.WithAuthFailure(onUnauthorized))

	r.api, r.pollers, r.dispatcher, r.session = api, pollers, dispatcher, session
	r.authFailed = failed
	r.authed = true

	beat := r.opts.Clock.NewTicker(r.opts.HeartbeatInterval)
	r.stopBeat = make(chan struct{})
	go r.heartbeat(session, beat, r.stopBeat)

	pollers.Activate(context.Background())
	session.Connect()
	r.log.Info("logged in", zap.String("portal", r.opts.BaseURL))
	return nil
}

// Logout closes the session, stops the pollers and empties every store.
// When it returns nothing from the old login can write to the stores.
func (r *Runtime) Logout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logoutLocked()
}

func (r *Runtime) logoutLocked() {
	if !r.authed {
		return
	}
	r.authed = false

	close(r.stopBeat)
	r.stopBeat = nil
	r.session.Disconnect()
	r.pollers.Deactivate()
	r.dispatcher.Close()
	r.state.Reset()

	r.api, r.pollers, r.dispatcher, r.session = nil, nil, nil, nil
	r.log.Info("logged out")
}

// authFailure runs the external callback and logs out, once per login.
// It never blocks its caller: pollers report from inside their own loops,
// which Logout waits for.
func (r *Runtime) authFailure(failed *atomic.Bool) {
	if !failed.CompareAndSwap(false, true) {
		return
	}
	r.log.Warn("portal rejected token, logging out")
	go func() {
		if r.opts.OnAuthFailure != nil {
			r.opts.OnAuthFailure()
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.authFailed == failed {
			r.logoutLocked()
		}
	}()
}

func (r *Runtime) tasks(api *client.HTTPClient) []poller.Task {
	s := r.state
	return []poller.Task{
		{Name: TaskAgent, Refresh: poller.Replace(s.Agent, api.GetAgentStatus)},
		{Name: TaskOBSStatus, Refresh: poller.Into(s.OBS, api.GetOBSStatus, reconcile.WithStatus)},
		{Name: TaskOBSScenes, Refresh: poller.Into(s.OBS, api.GetScenes, reconcile.WithScenes)},
		{Name: TaskOBSSources, Refresh: poller.Into(s.OBS, func(ctx context.Context) ([]client.Source, error) {
			return api.GetSources(ctx, "")
		}, reconcile.WithSources)},
		{Name: TaskTwitchStatus, Refresh: poller.Replace(s.TwitchStatus, api.GetTwitchStatus)},
		{Name: TaskTwitchStats, Refresh: poller.Replace(s.TwitchStats, api.GetTwitchStats)},
		{Name: TaskYouTubeStatus, Refresh: poller.Replace(s.YouTubeStatus, api.GetYouTubeStatus)},
		{Name: TaskYouTubeStats, Refresh: poller.Replace(s.YouTubeStats, api.GetYouTubeStats)},
	}
}

// RefreshAll fetches every snapshot concurrently and waits for all of
// them. The first error is returned; successful fetches are kept. The
// outcome is recorded in State.Actions like any user action.
func (r *Runtime) RefreshAll(ctx context.Context) error {
	r.mu.Lock()
	if !r.authed {
		r.mu.Unlock()
		return ErrNotAuthenticated
	}
	tasks := r.tasks(r.api)
	epoch := r.state.Actions.Epoch()
	r.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			if err := t.Refresh(gctx); err != nil && !errors.Is(err, poller.ErrStale) {
				return fmt.Errorf("%s: %w", t.Name, err)
			}
			return nil
		})
	}
	err := g.Wait()
	r.record(epoch, ActionRefresh, err)
	return err
}

// Linked reports whether the push channel is open.
func (r *Runtime) Linked() bool { return r.state.Linked() }

// heartbeat sends an application ping on every tick until stop closes.
// Ticks while the channel is down are skipped.
func (r *Runtime) heartbeat(session *transport.Session, beat *clock.Ticker, stop <-chan struct{}) {
	defer beat.Stop()
	for {
		select {
		case <-stop:
			return
		case <-beat.C:
			err := session.Send(client.Envelope{Type: client.MsgPing})
			if err != nil && !errors.Is(err, transport.ErrNotConnected) {
				r.log.Debug("heartbeat not sent", zap.Error(err))
			}
		}
	}
}
