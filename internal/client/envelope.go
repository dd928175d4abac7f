package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

var (
	// ErrMalformed means a frame is not a {type, data} object or its data
	// does not match the shape declared by its type.
	ErrMalformed = errors.New("malformed frame")
	// ErrUnknownType means the envelope type is not one this client knows.
	ErrUnknownType = errors.New("unknown message type")
	// ErrUnknownSubType means an obs_event carried an unknown nested type.
	ErrUnknownSubType = errors.New("unknown obs event type")
)

// Event is a decoded WebSocket frame. The concrete type is selected by the
// envelope type and, for obs_event, by the nested type.
type Event interface {
	Kind() MessageType
}

// AgentStatusEvent replaces the agent snapshot.
type AgentStatusEvent struct{ Status AgentStatus }

// SceneChangedEvent reports the program scene switched to SceneName.
type SceneChangedEvent struct{ SceneName string }

// OBSInvalidationEvent reports an OBS change whose payload is not enough
// to patch local state; the affected snapshot must be refetched.
type OBSInvalidationEvent struct{ Event OBSEvent }

type TwitchChatEvent struct{ Message TwitchChatMessage }

type TwitchAlertEvent struct{ Alert TwitchAlert }

type YouTubeChatEvent struct{ Message YouTubeChatMessage }

// PingEvent and PongEvent are keepalive frames.
type PingEvent struct{}
type PongEvent struct{}

func (AgentStatusEvent) Kind() MessageType     { return MsgAgentStatus }
func (SceneChangedEvent) Kind() MessageType    { return MsgOBSEvent }
func (OBSInvalidationEvent) Kind() MessageType { return MsgOBSEvent }
func (TwitchChatEvent) Kind() MessageType      { return MsgTwitchChat }
func (TwitchAlertEvent) Kind() MessageType     { return MsgTwitchEvent }
func (YouTubeChatEvent) Kind() MessageType     { return MsgYouTubeChat }
func (PingEvent) Kind() MessageType            { return MsgPing }
func (PongEvent) Kind() MessageType            { return MsgPong }

// Decode parses one frame into an Event. Errors wrap ErrMalformed,
// ErrUnknownType or ErrUnknownSubType; none of them is fatal to the
// connection.
func Decode(frame []byte) (Event, error) {
	if !gjson.ValidBytes(frame) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	root := gjson.ParseBytes(frame)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}
	typ := root.Get("type")
	if typ.Type != gjson.String {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	data := root.Get("data")

	switch MessageType(typ.Str) {
	case MsgAgentStatus:
		var s AgentStatus
		if err := decodeObject(data, &s); err != nil {
			return nil, fmt.Errorf("agent_status: %w", err)
		}
		return AgentStatusEvent{Status: s}, nil

	case MsgOBSEvent:
		return decodeOBSEvent(data)

	case MsgTwitchChat:
		var m TwitchChatMessage
		if err := decodeObject(data, &m); err != nil {
			return nil, fmt.Errorf("twitch_chat: %w", err)
		}
		return TwitchChatEvent{Message: m}, nil

	case MsgTwitchEvent:
		a, err := decodeTwitchAlert(data)
		if err != nil {
			return nil, fmt.Errorf("twitch_event: %w", err)
		}
		return TwitchAlertEvent{Alert: a}, nil

	case MsgYouTubeChat:
		var m YouTubeChatMessage
		if err := decodeObject(data, &m); err != nil {
			return nil, fmt.Errorf("youtube_chat: %w", err)
		}
		return YouTubeChatEvent{Message: m}, nil

	case MsgPing:
		return PingEvent{}, nil

	case MsgPong:
		return PongEvent{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ.Str)
}

func decodeOBSEvent(data gjson.Result) (Event, error) {
	var ev OBSEvent
	if err := decodeObject(data, &ev); err != nil {
		return nil, fmt.Errorf("obs_event: %w", err)
	}
	switch ev.Type {
	case OBSSceneChanged:
		if ev.SceneName == "" {
			return nil, fmt.Errorf("obs_event: %w: scene_changed without scene_name", ErrMalformed)
		}
		return SceneChangedEvent{SceneName: ev.SceneName}, nil
	case OBSStreamStateChanged, OBSRecordStateChanged, OBSSourceVisibilityChanged:
		return OBSInvalidationEvent{Event: ev}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSubType, ev.Type)
}

func decodeTwitchAlert(data gjson.Result) (TwitchAlert, error) {
	if !data.IsObject() {
		return TwitchAlert{}, fmt.Errorf("%w: data is not an object", ErrMalformed)
	}
	a := TwitchAlert{
		Type:      TwitchAlertType(data.Get("type").String()),
		Timestamp: parseTimestamp(data.Get("timestamp")),
	}

	inner := data.Get("data")
	var target any
	switch a.Type {
	case AlertFollow:
		a.Follow = &FollowEvent{}
		target = a.Follow
	case AlertSubscribe:
		a.Subscribe = &SubscribeEvent{}
		target = a.Subscribe
	case AlertRaid:
		a.Raid = &RaidEvent{}
		target = a.Raid
	default:
		return TwitchAlert{}, fmt.Errorf("%w: alert type %q", ErrMalformed, a.Type)
	}
	if err := decodeObject(inner, target); err != nil {
		return TwitchAlert{}, err
	}
	return a, nil
}

func decodeObject(data gjson.Result, out any) error {
	if !data.IsObject() {
		return fmt.Errorf("%w: data is not an object", ErrMalformed)
	}
	if err := json.Unmarshal([]byte(data.Raw), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// parseTimestamp reads the portal's string timestamps. Empty, missing or
// unreadable values give the zero time.
func parseTimestamp(v gjson.Result) time.Time {
	if v.Type != gjson.String || v.Str == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, v.Str)
	if err != nil {
		return time.Time{}
	}
	return t
}
