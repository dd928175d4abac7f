// Package connectivity projects the per-service status snapshots and the
// transport's own flag into one view for the status bar.
package connectivity

import "github.com/workmate-live/dashboard/internal/store"

// Service names an upstream the dashboard depends on.
type Service string

const (
	Agent   Service = "Agent"
	OBS     Service = "OBS"
	Twitch  Service = "Twitch"
	YouTube Service = "YouTube"
)

// Status is one service's entry in a View.
type Status struct {
	Service   Service
	Connected bool
	Detail    string // version, channel or channel id; empty when unknown
}

// View is a point-in-time projection, in registration order.
type View struct {
	Services []Status
}

// Get returns the entry for svc, or a disconnected one if svc is not
// registered.
func (v View) Get(svc Service) Status {
	for _, s := range v.Services {
		if s.Service == svc {
			return s
		}
	}
	return Status{Service: svc}
}

func (v View) ConnectedCount() int {
	n := 0
	for _, s := range v.Services {
		if s.Connected {
			n++
		}
	}
	return n
}

func (v View) AllConnected() bool {
	return len(v.Services) > 0 && v.ConnectedCount() == len(v.Services)
}

// Probe reports whether a service is connected and a short detail.
type Probe func() (connected bool, detail string)

// Aggregator holds no state besides its probes; every Compute reads the
// sources afresh.
type Aggregator struct {
	services []Service
	probes   []Probe
}

func New() *Aggregator { return &Aggregator{} }

// Register adds svc. Registration is not safe concurrently with Compute;
// wire everything before sharing the Aggregator.
func (a *Aggregator) Register(svc Service, p Probe) *Aggregator {
	a.services = append(a.services, svc)
	a.probes = append(a.probes, p)
	return a
}

// Compute evaluates every probe.
func (a *Aggregator) Compute() View {
	v := View{Services: make([]Status, len(a.services))}
	for i, svc := range a.services {
		ok, detail := a.probes[i]()
		v.Services[i] = Status{Service: svc, Connected: ok, Detail: detail}
	}
	return v
}

// Flag adapts a boolean source such as the transport session.
func Flag(connected func() bool) Probe {
	return func() (bool, string) { return connected(), "" }
}

// FromSnapshot adapts a status snapshot. An absent snapshot is
// disconnected; presence alone never counts as connected.
func FromSnapshot[T any](snap *store.Snapshot[T], project func(T) (bool, string)) Probe {
	return func() (bool, string) {
		v, ok := snap.Get()
		if !ok {
			return false, ""
		}
		return project(v)
	}
}
