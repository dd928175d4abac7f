package reconcile

import "github.com/workmate-live/dashboard/internal/client"

// Target names an OBS snapshot part that must be refetched.
type Target string

const (
	TargetOBSStatus  Target = "obs.status"
	TargetOBSScenes  Target = "obs.scenes"
	TargetOBSSources Target = "obs.sources"
)

// Invalidation maps an OBS event whose payload is not trusted as a patch
// to the snapshot parts it makes stale.
func Invalidation(ev client.OBSEvent) []Target {
	switch ev.Type {
	case client.OBSStreamStateChanged, client.OBSRecordStateChanged:
		return []Target{TargetOBSStatus}
	case client.OBSSourceVisibilityChanged:
		return []Target{TargetOBSSources}
	}
	return nil
}
