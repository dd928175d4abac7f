// Package client provides the WebSocket envelope decoder and the REST client
// for the workmate live portal. Types mirror the portal wire protocol.
package client

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"
)

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	MsgAgentStatus MessageType = "agent_status"
	MsgOBSEvent    MessageType = "obs_event"
	MsgTwitchChat  MessageType = "twitch_chat"
	MsgTwitchEvent MessageType = "twitch_event"
	MsgYouTubeChat MessageType = "youtube_chat"
	MsgPing        MessageType = "ping"
	MsgPong        MessageType = "pong"
)

// Envelope wraps every WebSocket frame.
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// OBSEventType is the nested type of an obs_event payload.
type OBSEventType string

const (
	OBSSceneChanged            OBSEventType = "scene_changed"
	OBSStreamStateChanged      OBSEventType = "stream_state_changed"
	OBSRecordStateChanged      OBSEventType = "record_state_changed"
	OBSSourceVisibilityChanged OBSEventType = "source_visibility_changed"
)

// --- Agent ---

// AgentStatus is the host agent health report.
type AgentStatus struct {
	Timestamp time.Time        `json:"timestamp"`
	Hostname  string           `json:"hostname"`
	Headless  bool             `json:"headless"`
	Video     AgentVideoStatus `json:"video"`
	Audio     AgentAudioStatus `json:"audio"`
	OBS       AgentOBSStatus   `json:"obs"`
	GPU       AgentGPUStatus   `json:"gpu"`
}

type AgentVideoStatus struct {
	DeviceCount int      `json:"device_count"`
	Devices     []string `json:"devices"`
}

type AgentAudioStatus struct {
	Backend string `json:"backend"`
	Ready   bool   `json:"ready"`
}

type AgentOBSStatus struct {
	Running bool `json:"running"`
}

type AgentGPUStatus struct {
	Present     bool     `json:"present"`
	Vendors     []string `json:"vendors,omitempty"`
	RenderNodes []string `json:"render_nodes,omitempty"`
}

// --- OBS ---

// Scene is one OBS scene as listed by /api/obs/scenes.
type Scene struct {
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	Index     int    `json:"index"`
	SceneUUID string `json:"scene_uuid,omitempty"`
}

// Source is one input of a scene.
type Source struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Visible   bool     `json:"visible"`
	Muted     *bool    `json:"muted,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
	InputUUID string   `json:"input_uuid,omitempty"`
}

type StreamStatus struct {
	Active        bool  `json:"active"`
	Reconnecting  bool  `json:"reconnecting"`
	Duration      int64 `json:"duration"`
	Bytes         int64 `json:"bytes"`
	Frames        int64 `json:"frames,omitempty"`
	DroppedFrames int64 `json:"dropped_frames,omitempty"`
}

type RecordingStatus struct {
	Active   bool   `json:"active"`
	Paused   bool   `json:"paused"`
	Duration int64  `json:"duration"`
	Bytes    int64  `json:"bytes"`
	Path     string `json:"path,omitempty"`
}

// OBSStatus is returned by /api/obs/status.
type OBSStatus struct {
	Connected    bool             `json:"connected"`
	Version      string           `json:"version,omitempty"`
	CurrentScene string           `json:"current_scene,omitempty"`
	Streaming    *StreamStatus    `json:"streaming,omitempty"`
	Recording    *RecordingStatus `json:"recording,omitempty"`
}

// OBSEvent is the payload of an obs_event frame.
type OBSEvent struct {
	Type       OBSEventType `json:"type"`
	SceneName  string       `json:"scene_name,omitempty"`
	SourceName string       `json:"source_name,omitempty"`
	Active     *bool        `json:"active,omitempty"`
	Visible    *bool        `json:"visible,omitempty"`
}

// --- Twitch ---

type TwitchStatus struct {
	Connected       bool   `json:"connected"`
	ChatConnected   bool   `json:"chat_connected"`
	EventsConnected bool   `json:"events_connected"`
	Channel         string `json:"channel"`
	UserID          string `json:"user_id,omitempty"`
}

type TwitchStreamStats struct {
	IsLive        bool       `json:"is_live"`
	ViewerCount   int        `json:"viewer_count"`
	FollowerCount int        `json:"follower_count"`
	Uptime        int64      `json:"uptime"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	Title         string     `json:"title"`
	GameName      string     `json:"game_name"`
	Language      string     `json:"language,omitempty"`
	ThumbnailURL  string     `json:"thumbnail_url,omitempty"`
	StreamID      string     `json:"stream_id,omitempty"`
}

// TwitchChatMessage is the payload of a twitch_chat frame. The portal does
// not send an id; LocalID is assigned on arrival.
type TwitchChatMessage struct {
	LocalID      string    `json:"-"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Message      string    `json:"message"`
	Color        string    `json:"color"`
	Timestamp    time.Time `json:"timestamp"`
	IsModerator  bool      `json:"is_moderator"`
	IsSubscriber bool      `json:"is_subscriber"`
	Badges       []string  `json:"badges"`
}

// UnmarshalJSON keeps the message when its timestamp is empty or not
// RFC 3339; Timestamp is then zero.
func (m *TwitchChatMessage) UnmarshalJSON(b []byte) error {
	type wire TwitchChatMessage
	aux := struct {
		*wire
		Timestamp json.RawMessage `json:"timestamp"`
	}{wire: (*wire)(m)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	m.Timestamp = parseTimestamp(gjson.ParseBytes(aux.Timestamp))
	return nil
}

// TwitchAlertType is the kind of a twitch_event frame.
type TwitchAlertType string

const (
	AlertFollow    TwitchAlertType = "follow"
	AlertSubscribe TwitchAlertType = "subscribe"
	AlertRaid      TwitchAlertType = "raid"
)

// TwitchAlert is the payload of a twitch_event frame. Exactly one of
// Follow, Subscribe or Raid is set, matching Type.
type TwitchAlert struct {
	LocalID   string
	Type      TwitchAlertType
	Timestamp time.Time
	Follow    *FollowEvent
	Subscribe *SubscribeEvent
	Raid      *RaidEvent
}

type FollowEvent struct {
	UserID     string    `json:"user_id"`
	UserLogin  string    `json:"user_login"`
	UserName   string    `json:"user_name"`
	FollowedAt time.Time `json:"followed_at"`
}

type SubscribeEvent struct {
	UserID    string `json:"user_id"`
	UserLogin string `json:"user_login"`
	UserName  string `json:"user_name"`
	Tier      string `json:"tier"`
	IsGift    bool   `json:"is_gift"`
}

type RaidEvent struct {
	FromUserID    string `json:"from_user_id"`
	FromUserLogin string `json:"from_user_login"`
	FromUserName  string `json:"from_user_name"`
	Viewers       int    `json:"viewers"`
}

// Who returns the display name of the user behind the alert.
func (a TwitchAlert) Who() string {
	switch {
	case a.Follow != nil:
		return a.Follow.UserName
	case a.Subscribe != nil:
		return a.Subscribe.UserName
	case a.Raid != nil:
		return a.Raid.FromUserName
	}
	return ""
}

// UpdateTwitchStreamRequest is the body of PATCH /api/twitch/stream.
type UpdateTwitchStreamRequest struct {
	Title    string `json:"title,omitempty"`
	GameID   string `json:"game_id,omitempty"`
	GameName string `json:"game_name,omitempty"`
}

// --- YouTube ---

type YouTubeStatus struct {
	Connected     bool   `json:"connected"`
	LiveChatReady bool   `json:"live_chat_ready"`
	ChannelID     string `json:"channel_id,omitempty"`
	BroadcastID   string `json:"broadcast_id,omitempty"`
}

type YouTubeStreamStats struct {
	IsLive             bool       `json:"is_live"`
	ViewerCount        int        `json:"viewer_count"`
	SubscriberCount    int        `json:"subscriber_count"`
	VideoCount         int        `json:"video_count"`
	Title              string     `json:"title,omitempty"`
	Description        string     `json:"description,omitempty"`
	ScheduledStartTime *time.Time `json:"scheduled_start_time,omitempty"`
	ActualStartTime    *time.Time `json:"actual_start_time,omitempty"`
}

type YouTubeChatMessage struct {
	ID              string    `json:"id"`
	AuthorName      string    `json:"author_name"`
	AuthorChannelID string    `json:"author_channel_id"`
	Message         string    `json:"message"`
	Timestamp       time.Time `json:"timestamp"`
	IsModerator     bool      `json:"is_moderator"`
	IsSponsor       bool      `json:"is_sponsor"`
	IsOwner         bool      `json:"is_owner"`
}

// UpdateYouTubeStreamRequest is the body of PATCH /api/youtube/stream.
type UpdateYouTubeStreamRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
}
