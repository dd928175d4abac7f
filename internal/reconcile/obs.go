// Package reconcile holds the pure merge rules applied when a push event
// updates a snapshot in place instead of replacing it.
package reconcile

import "github.com/workmate-live/dashboard/internal/client"

// OBSState is the OBS snapshot. Status, scene list and source list live in
// one value so a scene switch updates current_scene and the active flags
// together.
type OBSState struct {
	Status  *client.OBSStatus
	Scenes  []client.Scene
	Sources []client.Source
}

// ActiveScene returns the scene flagged active. ok is false when no entry
// is active, which happens when a scene_changed named a scene missing from
// the list.
func (s OBSState) ActiveScene() (client.Scene, bool) {
	for _, sc := range s.Scenes {
		if sc.Active {
			return sc, true
		}
	}
	return client.Scene{}, false
}

// CurrentScene returns the current program scene name, or "".
func (s OBSState) CurrentScene() string {
	if s.Status == nil {
		return ""
	}
	return s.Status.CurrentScene
}

// SceneChanged sets the current scene to name and marks exactly the
// matching list entries active. A name with no match leaves every entry
// inactive; that divergence is left visible rather than guessed at.
func SceneChanged(state OBSState, name string) OBSState {
	next := state
	status := client.OBSStatus{}
	if state.Status != nil {
		status = *state.Status
	}
	status.CurrentScene = name
	next.Status = &status

	if state.Scenes != nil {
		scenes := make([]client.Scene, len(state.Scenes))
		for i, sc := range state.Scenes {
			sc.Active = sc.Name == name
			scenes[i] = sc
		}
		next.Scenes = scenes
	}
	return next
}

// WithStatus replaces the status part of the OBS snapshot.
func WithStatus(state OBSState, status client.OBSStatus) OBSState {
	state.Status = &status
	return state
}

// WithScenes replaces the scene list. Active flags are taken as delivered.
func WithScenes(state OBSState, scenes []client.Scene) OBSState {
	if scenes == nil {
		scenes = []client.Scene{}
	}
	state.Scenes = scenes
	return state
}

// WithSources replaces the source list.
func WithSources(state OBSState, sources []client.Source) OBSState {
	if sources == nil {
		sources = []client.Source{}
	}
	state.Sources = sources
	return state
}
