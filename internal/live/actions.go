package live

import (
	"context"

	"go.uber.org/zap"

	"github.com/workmate-live/dashboard/internal/client"
)

// Action names recorded in the actions snapshot.
const (
	ActionSwitchScene         = "switch scene"
	ActionToggleSource        = "toggle source"
	ActionStartStreaming      = "start streaming"
	ActionStopStreaming       = "stop streaming"
	ActionStartRecording      = "start recording"
	ActionStopRecording       = "stop recording"
	ActionPauseRecording      = "pause recording"
	ActionResumeRecording     = "resume recording"
	ActionUpdateTwitchStream  = "update twitch stream"
	ActionUpdateYouTubeStream = "update youtube stream"
	ActionRefresh             = "refresh"
)

// Actions are one-shot: no retry. The outcome is returned and also kept in
// State.Actions for display; success triggers a refresh of what changed.

func (r *Runtime) SwitchScene(ctx context.Context, scene string) error {
	return r.act(ActionSwitchScene, func(api *client.HTTPClient) error {
		return api.SwitchScene(ctx, scene)
	}, TaskOBSStatus, TaskOBSScenes, TaskOBSSources)
}

func (r *Runtime) ToggleSource(ctx context.Context, scene, source string, visible bool) error {
	return r.act(ActionToggleSource, func(api *client.HTTPClient) error {
		return api.ToggleSource(ctx, scene, source, visible)
	}, TaskOBSSources)
}

func (r *Runtime) StartStreaming(ctx context.Context) error {
	return r.act(ActionStartStreaming, func(api *client.HTTPClient) error { return api.StartStreaming(ctx) }, TaskOBSStatus)
}

func (r *Runtime) StopStreaming(ctx context.Context) error {
	return r.act(ActionStopStreaming, func(api *client.HTTPClient) error { return api.StopStreaming(ctx) }, TaskOBSStatus)
}

func (r *Runtime) StartRecording(ctx context.Context) error {
	return r.act(ActionStartRecording, func(api *client.HTTPClient) error { return api.StartRecording(ctx) }, TaskOBSStatus)
}

func (r *Runtime) StopRecording(ctx context.Context) error {
	return r.act(ActionStopRecording, func(api *client.HTTPClient) error { return api.StopRecording(ctx) }, TaskOBSStatus)
}

func (r *Runtime) PauseRecording(ctx context.Context) error {
	return r.act(ActionPauseRecording, func(api *client.HTTPClient) error { return api.PauseRecording(ctx) }, TaskOBSStatus)
}

func (r *Runtime) ResumeRecording(ctx context.Context) error {
	return r.act(ActionResumeRecording, func(api *client.HTTPClient) error { return api.ResumeRecording(ctx) }, TaskOBSStatus)
}

func (r *Runtime) UpdateTwitchStream(ctx context.Context, req client.UpdateTwitchStreamRequest) error {
	return r.act(ActionUpdateTwitchStream, func(api *client.HTTPClient) error {
		return api.UpdateTwitchStream(ctx, req)
	}, TaskTwitchStats)
}

func (r *Runtime) UpdateYouTubeStream(ctx context.Context, req client.UpdateYouTubeStreamRequest) error {
	return r.act(ActionUpdateYouTubeStream, func(api *client.HTTPClient) error {
		return api.UpdateYouTubeStream(ctx, req)
	}, TaskYouTubeStats)
}

// ClearTwitchChat, ClearTwitchAlerts and ClearYouTubeChat only empty the
// local feeds.
func (r *Runtime) ClearTwitchChat()   { r.state.TwitchChat.Clear() }
func (r *Runtime) ClearTwitchAlerts() { r.state.TwitchAlerts.Clear() }
func (r *Runtime) ClearYouTubeChat()  { r.state.YouTubeChat.Clear() }

func (r *Runtime) act(name string, call func(*client.HTTPClient) error, refresh ...string) error {
	r.mu.Lock()
	api, pollers := r.api, r.pollers
	epoch := r.state.Actions.Epoch()
	r.mu.Unlock()
	if api == nil {
		return ErrNotAuthenticated
	}

	err := call(api)
	if err == nil {
		for _, t := range refresh {
			pollers.Trigger(t)
		}
	}
	r.record(epoch, name, err)
	return err
}

// record keeps the outcome of name unless the stores were reset since
// epoch was taken.
func (r *Runtime) record(epoch uint64, name string, err error) {
	result := ActionResult{Action: name, At: r.opts.Clock.Now()}
	if err != nil {
		result.Err = err.Error()
		r.log.Warn("action failed", zap.String("action", name), zap.Error(err))
	} else {
		r.log.Info("action done", zap.String("action", name))
	}
	r.state.Actions.ReplaceAt(epoch, result)
}
