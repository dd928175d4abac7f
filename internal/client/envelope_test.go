package client

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		check func(t *testing.T, ev Event)
	}{
		{
			name:  "agent status",
			frame: `{"type":"agent_status","data":{"hostname":"rig-01","headless":true,"obs":{"running":true},"video":{"device_count":2,"devices":["/dev/video0","/dev/video1"]}}}`,
			check: func(t *testing.T, ev Event) {
				e := ev.(AgentStatusEvent)
				assert.Equal(t, "rig-01", e.Status.Hostname)
				assert.True(t, e.Status.OBS.Running)
				assert.Equal(t, 2, e.Status.Video.DeviceCount)
			},
		},
		{
			name:  "scene changed",
			frame: `{"type":"obs_event","data":{"type":"scene_changed","scene_name":"BRB"}}`,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, SceneChangedEvent{SceneName: "BRB"}, ev)
			},
		},
		{
			name:  "stream state changed is an invalidation",
			frame: `{"type":"obs_event","data":{"type":"stream_state_changed","active":true}}`,
			check: func(t *testing.T, ev Event) {
				e := ev.(OBSInvalidationEvent)
				assert.Equal(t, OBSStreamStateChanged, e.Event.Type)
				require.NotNil(t, e.Event.Active)
				assert.True(t, *e.Event.Active)
			},
		},
		{
			name:  "source visibility changed is an invalidation",
			frame: `{"type":"obs_event","data":{"type":"source_visibility_changed","source_name":"cam","visible":false}}`,
			check: func(t *testing.T, ev Event) {
				e := ev.(OBSInvalidationEvent)
				assert.Equal(t, "cam", e.Event.SourceName)
			},
		},
		{
			name:  "twitch chat",
			frame: `{"type":"twitch_chat","data":{"username":"viewer1","display_name":"Viewer1","message":"hi","timestamp":"2026-03-01T10:00:00Z","badges":["vip"]}}`,
			check: func(t *testing.T, ev Event) {
				e := ev.(TwitchChatEvent)
				assert.Equal(t, "hi", e.Message.Message)
				assert.Equal(t, []string{"vip"}, e.Message.Badges)
				assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), e.Message.Timestamp.UTC())
			},
		},
		{
			name:  "twitch chat with empty timestamp",
			frame: `{"type":"twitch_chat","data":{"username":"viewer2","message":"still here","timestamp":""}}`,
			check: func(t *testing.T, ev Event) {
				e := ev.(TwitchChatEvent)
				assert.Equal(t, "still here", e.Message.Message)
				assert.True(t, e.Message.Timestamp.IsZero())
			},
		},
		{
			name:  "twitch chat with unreadable timestamp",
			frame: `{"type":"twitch_chat","data":{"username":"viewer3","message":"ok","timestamp":"10:00 PM"}}`,
			check: func(t *testing.T, ev Event) {
				e := ev.(TwitchChatEvent)
				assert.Equal(t, "viewer3", e.Message.Username)
				assert.True(t, e.Message.Timestamp.IsZero())
			},
		},
		{
			name:  "twitch follow with unreadable timestamp",
			frame: `{"type":"twitch_event","data":{"type":"follow","timestamp":"yesterday","data":{"user_name":"late"}}}`,
			check: func(t *testing.T, ev Event) {
				e := ev.(TwitchAlertEvent)
				assert.Equal(t, "late", e.Alert.Who())
				assert.True(t, e.Alert.Timestamp.IsZero())
			},
		},
		{
			name:  "twitch raid",
			frame: `{"type":"twitch_event","data":{"type":"raid","timestamp":"2026-03-01T10:00:00Z","data":{"from_user_name":"Big","viewers":120}}}`,
			check: func(t *testing.T, ev Event) {
				e := ev.(TwitchAlertEvent)
				assert.Equal(t, AlertRaid, e.Alert.Type)
				require.NotNil(t, e.Alert.Raid)
				assert.Equal(t, 120, e.Alert.Raid.Viewers)
				assert.Equal(t, "Big", e.Alert.Who())
				assert.Nil(t, e.Alert.Follow)
			},
		},
		{
			name:  "twitch follow",
			frame: `{"type":"twitch_event","data":{"type":"follow","data":{"user_name":"newbie"}}}`,
			check: func(t *testing.T, ev Event) {
				e := ev.(TwitchAlertEvent)
				assert.Equal(t, "newbie", e.Alert.Who())
				assert.True(t, e.Alert.Timestamp.IsZero())
			},
		},
		{
			name:  "youtube chat",
			frame: `{"type":"youtube_chat","data":{"id":"m1","author_name":"yt","message":"hello","is_owner":true}}`,
			check: func(t *testing.T, ev Event) {
				e := ev.(YouTubeChatEvent)
				assert.Equal(t, "m1", e.Message.ID)
				assert.True(t, e.Message.IsOwner)
			},
		},
		{
			name:  "pong",
			frame: `{"type":"pong"}`,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, MsgPong, ev.Kind())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.frame))
			require.NoError(t, err)
			tt.check(t, ev)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  error
	}{
		{"not json", `{"type":`, ErrMalformed},
		{"array", `[1,2]`, ErrMalformed},
		{"missing type", `{"data":{}}`, ErrMalformed},
		{"numeric type", `{"type":5,"data":{}}`, ErrMalformed},
		{"unknown type", `{"type":"tiktok_gift","data":{}}`, ErrUnknownType},
		{"unknown obs sub-type", `{"type":"obs_event","data":{"type":"studio_mode_changed"}}`, ErrUnknownSubType},
		{"scene changed without name", `{"type":"obs_event","data":{"type":"scene_changed"}}`, ErrMalformed},
		{"agent status wrong shape", `{"type":"agent_status","data":"up"}`, ErrMalformed},
		{"agent status wrong field type", `{"type":"agent_status","data":{"hostname":42}}`, ErrMalformed},
		{"twitch alert unknown kind", `{"type":"twitch_event","data":{"type":"cheer","data":{}}}`, ErrMalformed},
		{"chat data missing", `{"type":"twitch_chat"}`, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.frame))
			assert.Nil(t, ev)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestDeriveWSURL(t *testing.T) {
	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{in: "http://127.0.0.1:8080", want: "ws://127.0.0.1:8080/ws"},
		{in: "https://portal.example.com", want: "wss://portal.example.com/ws"},
		{in: "http://portal.lan:8080/api", want: "ws://portal.lan:8080/ws"},
		{in: "ftp://portal", wantErr: true},
		{in: "http://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DeriveWSURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
