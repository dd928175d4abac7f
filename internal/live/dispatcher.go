package live

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workmate-live/dashboard/internal/client"
	"github.com/workmate-live/dashboard/internal/reconcile"
)

// Dispatcher decodes frames and routes each event to its store. Bad frames
// are logged and dropped; nothing a frame contains can stop the stream.
type Dispatcher struct {
	state      *State
	invalidate func(reconcile.Target)
	log        *zap.Logger
	newID      func() string

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher writing to state. invalidate is
// called for OBS events that require a refetch; it may be nil.
func NewDispatcher(state *State, invalidate func(reconcile.Target), log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if invalidate == nil {
		invalidate = func(reconcile.Target) {}
	}
	return &Dispatcher{
		state:      state,
		invalidate: invalidate,
		log:        log.Named("dispatch"),
		newID:      uuid.NewString,
	}
}

// HandleFrame is the transport's FrameHandler.
func (d *Dispatcher) HandleFrame(frame []byte) {
	ev, err := client.Decode(frame)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrUnknownType), errors.Is(err, client.ErrUnknownSubType):
			d.log.Debug("ignoring frame", zap.Error(err))
		default:
			d.log.Warn("dropping malformed frame", zap.Error(err), zap.Int("bytes", len(frame)))
		}
		return
	}
	d.Apply(ev)
}

// Apply routes one decoded event. After Close it does nothing.
func (d *Dispatcher) Apply(ev client.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	switch e := ev.(type) {
	case client.AgentStatusEvent:
		d.state.Agent.Replace(e.Status)

	case client.SceneChangedEvent:
		d.state.OBS.Merge(func(cur reconcile.OBSState) reconcile.OBSState {
			return reconcile.SceneChanged(cur, e.SceneName)
		})
		// Sources are listed per scene; the held list belongs to the old one.
		d.invalidate(reconcile.TargetOBSSources)

	case client.OBSInvalidationEvent:
		for _, t := range reconcile.Invalidation(e.Event) {
			d.invalidate(t)
		}

	case client.TwitchChatEvent:
		msg := e.Message
		if msg.LocalID == "" {
			msg.LocalID = d.newID()
		}
		d.state.TwitchChat.Append(msg)

	case client.TwitchAlertEvent:
		a := e.Alert
		if a.LocalID == "" {
			a.LocalID = d.newID()
		}
		d.state.TwitchAlerts.Append(a)

	case client.YouTubeChatEvent:
		d.state.YouTubeChat.Append(e.Message)

	case client.PingEvent, client.PongEvent:

	default:
		d.log.Debug("no route for event", zap.String("kind", string(ev.Kind())))
	}
}

// Close stops all further writes. It waits for an Apply in progress.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}
