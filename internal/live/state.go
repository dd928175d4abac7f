// Package live wires the stores, the transport session and the pollers
// into one authenticated runtime the UI reads from.
package live

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/workmate-live/dashboard/internal/client"
	"github.com/workmate-live/dashboard/internal/connectivity"
	"github.com/workmate-live/dashboard/internal/reconcile"
	"github.com/workmate-live/dashboard/internal/store"
)

// Default feed capacities.
const (
	DefaultChatCapacity  = 100
	DefaultAlertCapacity = 50
)

// Domain names one store, for change notifications.
type Domain string

const (
	DomainLink          Domain = "link"
	DomainAgent         Domain = "agent"
	DomainOBS           Domain = "obs"
	DomainTwitchStatus  Domain = "twitch.status"
	DomainTwitchStats   Domain = "twitch.stats"
	DomainTwitchChat    Domain = "twitch.chat"
	DomainTwitchAlerts  Domain = "twitch.alerts"
	DomainYouTubeStatus Domain = "youtube.status"
	DomainYouTubeStats  Domain = "youtube.stats"
	DomainYouTubeChat   Domain = "youtube.chat"
	DomainActions       Domain = "actions"
)

// ActionResult is the outcome of the last user action.
type ActionResult struct {
	Action string
	Err    string // empty on success
	At     time.Time
}

func (a ActionResult) OK() bool { return a.Err == "" }

// State owns every store. It outlives logins; Reset empties it.
type State struct {
	Agent         *store.Snapshot[client.AgentStatus]
	OBS           *store.Snapshot[reconcile.OBSState]
	TwitchStatus  *store.Snapshot[client.TwitchStatus]
	TwitchStats   *store.Snapshot[client.TwitchStreamStats]
	TwitchChat    *store.Sequence[client.TwitchChatMessage]
	TwitchAlerts  *store.Sequence[client.TwitchAlert]
	YouTubeStatus *store.Snapshot[client.YouTubeStatus]
	YouTubeStats  *store.Snapshot[client.YouTubeStreamStats]
	YouTubeChat   *store.Sequence[client.YouTubeChatMessage]
	Actions       *store.Snapshot[ActionResult]

	link atomic.Bool
	agg  *connectivity.Aggregator

	mu      sync.Mutex
	dirty   map[Domain]bool
	changes chan struct{}
}

// NewState creates empty stores. Non-positive capacities fall back to the
// defaults.
func NewState(chatCapacity, alertCapacity int) *State {
	if chatCapacity <= 0 {
		chatCapacity = DefaultChatCapacity
	}
	if alertCapacity <= 0 {
		alertCapacity = DefaultAlertCapacity
	}
	s := &State{
		dirty:   make(map[Domain]bool),
		changes: make(chan struct{}, 1),
	}
	s.Agent = store.NewSnapshot[client.AgentStatus](s.notifier(DomainAgent))
	s.OBS = store.NewSnapshot[reconcile.OBSState](s.notifier(DomainOBS))
	s.TwitchStatus = store.NewSnapshot[client.TwitchStatus](s.notifier(DomainTwitchStatus))
	s.TwitchStats = store.NewSnapshot[client.TwitchStreamStats](s.notifier(DomainTwitchStats))
	s.TwitchChat = store.NewSequence[client.TwitchChatMessage](chatCapacity, store.PolicyAppend, s.notifier(DomainTwitchChat))
	s.TwitchAlerts = store.NewSequence[client.TwitchAlert](alertCapacity, store.PolicyPrepend, s.notifier(DomainTwitchAlerts))
	s.YouTubeStatus = store.NewSnapshot[client.YouTubeStatus](s.notifier(DomainYouTubeStatus))
	s.YouTubeStats = store.NewSnapshot[client.YouTubeStreamStats](s.notifier(DomainYouTubeStats))
	s.YouTubeChat = store.NewSequence[client.YouTubeChatMessage](chatCapacity, store.PolicyAppend, s.notifier(DomainYouTubeChat))
	s.Actions = store.NewSnapshot[ActionResult](s.notifier(DomainActions))

	s.agg = connectivity.New().
		Register(connectivity.Agent, connectivity.Flag(s.Linked)).
		Register(connectivity.OBS, connectivity.FromSnapshot(s.OBS, func(o reconcile.OBSState) (bool, string) {
			if o.Status == nil {
				return false, ""
			}
			return o.Status.Connected, o.Status.Version
		})).
		Register(connectivity.Twitch, connectivity.FromSnapshot(s.TwitchStatus, func(t client.TwitchStatus) (bool, string) {
			return t.Connected, t.Channel
		})).
		Register(connectivity.YouTube, connectivity.FromSnapshot(s.YouTubeStatus, func(y client.YouTubeStatus) (bool, string) {
			return y.Connected, y.ChannelID
		}))
	return s
}

// Linked reports whether the push channel is open.
func (s *State) Linked() bool { return s.link.Load() }

// SetLinked is the transport's status sink.
func (s *State) SetLinked(v bool) {
	if s.link.Swap(v) != v {
		s.markDirty(DomainLink)
	}
}

// Connectivity computes the current multi-service view.
func (s *State) Connectivity() connectivity.View { return s.agg.Compute() }

// Reset empties every store. Epochs advance, so fetches started before
// Reset cannot write afterwards.
func (s *State) Reset() {
	s.SetLinked(false)
	s.Agent.Clear()
	s.OBS.Clear()
	s.TwitchStatus.Clear()
	s.TwitchStats.Clear()
	s.TwitchChat.Clear()
	s.TwitchAlerts.Clear()
	s.YouTubeStatus.Clear()
	s.YouTubeStats.Clear()
	s.YouTubeChat.Clear()
	s.Actions.Clear()
}

// Changes receives a value after one or more stores changed. Signals
// coalesce; call Drain to learn which domains.
func (s *State) Changes() <-chan struct{} { return s.changes }

// Drain returns the domains changed since the last Drain, sorted.
func (s *State) Drain() []Domain {
	s.mu.Lock()
	out := make([]Domain, 0, len(s.dirty))
	for d := range s.dirty {
		out = append(out, d)
	}
	clear(s.dirty)
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *State) notifier(d Domain) func() {
	return func() { s.markDirty(d) }
}

func (s *State) markDirty(d Domain) {
	s.mu.Lock()
	s.dirty[d] = true
	s.mu.Unlock()
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
