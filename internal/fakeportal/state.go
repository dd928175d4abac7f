package fakeportal

import (
	"time"

	"github.com/workmate-live/dashboard/internal/client"
)

// Snapshot is everything the fake portal reports over REST.
type Snapshot struct {
	Agent         client.AgentStatus
	OBS           client.OBSStatus
	Scenes        []client.Scene
	Sources       map[string][]client.Source // keyed by scene name
	TwitchStatus  client.TwitchStatus
	TwitchStats   client.TwitchStreamStats
	YouTubeStatus client.YouTubeStatus
	YouTubeStats  client.YouTubeStreamStats
}

// DefaultSnapshot is a connected setup with three scenes, "Starting Soon"
// on program.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Agent: client.AgentStatus{
			Timestamp: time.Now().UTC(),
			Hostname:  "stream-pc",
			Video:     client.AgentVideoStatus{DeviceCount: 1, Devices: []string{"/dev/video0"}},
			Audio:     client.AgentAudioStatus{Backend: "pipewire", Ready: true},
			OBS:       client.AgentOBSStatus{Running: true},
			GPU:       client.AgentGPUStatus{Present: true, Vendors: []string{"nvidia"}},
		},
		OBS: client.OBSStatus{
			Connected:    true,
			Version:      "30.2.0",
			CurrentScene: "Starting Soon",
			Streaming:    &client.StreamStatus{},
			Recording:    &client.RecordingStatus{},
		},
		Scenes: []client.Scene{
			{Name: "Starting Soon", Active: true, Index: 0},
			{Name: "Gameplay", Index: 1},
			{Name: "BRB", Index: 2},
		},
		Sources: map[string][]client.Source{
			"Starting Soon": {
				{Name: "Countdown", Type: "text_ft2_source_v2", Visible: true},
				{Name: "Music", Type: "ffmpeg_source", Visible: true},
			},
			"Gameplay": {
				{Name: "Game Capture", Type: "game_capture", Visible: true},
				{Name: "Webcam", Type: "v4l2_input", Visible: true},
				{Name: "Alerts Overlay", Type: "browser_source", Visible: true},
			},
			"BRB": {
				{Name: "BRB Loop", Type: "ffmpeg_source", Visible: true},
			},
		},
		TwitchStatus: client.TwitchStatus{
			Connected: true, ChatConnected: true, EventsConnected: true,
			Channel: "workmate_live", UserID: "123456",
		},
		TwitchStats: client.TwitchStreamStats{
			FollowerCount: 1280, Title: "Chill coding", GameName: "Software and Game Development",
		},
		YouTubeStatus: client.YouTubeStatus{
			Connected: true, LiveChatReady: true, ChannelID: "UCworkmate",
		},
		YouTubeStats: client.YouTubeStreamStats{
			SubscriberCount: 512, VideoCount: 48, Title: "Chill coding",
		},
	}
}

func (s *Snapshot) switchScene(name string) bool {
	found := false
	for i := range s.Scenes {
		s.Scenes[i].Active = s.Scenes[i].Name == name
		found = found || s.Scenes[i].Active
	}
	if found {
		s.OBS.CurrentScene = name
	}
	return found
}

func (s *Snapshot) setSourceVisible(scene, source string, visible bool) bool {
	list := s.Sources[scene]
	for i := range list {
		if list[i].Name == source {
			list[i].Visible = visible
			return true
		}
	}
	return false
}

func (s *Snapshot) clone() Snapshot {
	out := *s
	out.Scenes = append([]client.Scene(nil), s.Scenes...)
	out.Sources = make(map[string][]client.Source, len(s.Sources))
	for k, v := range s.Sources {
		out.Sources[k] = append([]client.Source(nil), v...)
	}
	if s.OBS.Streaming != nil {
		st := *s.OBS.Streaming
		out.OBS.Streaming = &st
	}
	if s.OBS.Recording != nil {
		rec := *s.OBS.Recording
		out.OBS.Recording = &rec
	}
	return out
}
