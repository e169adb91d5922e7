package models

import "encoding/json"

// Client -> server intents.
const (
	JoinChannel  = "join_channel"
	LeaveChannel = "leave_channel"
	JoinDM       = "join_dm"
	TypingStart  = "typing_start"
	TypingStop   = "typing_stop"
	VoiceJoin    = "voice_join"
	VoiceLeave   = "voice_leave"
)

// Server -> client pushes.
const (
	NewMessage        = "new_message"
	NewDMMessage      = "new_dm_message"
	UserTyping        = "user_typing"
	UserStoppedTyping = "user_stopped_typing"
	VoiceUserJoined   = "voice_user_joined"
	VoiceUserLeft     = "voice_user_left"
)

// Event is the wire envelope for every realtime frame, in either direction.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Presence is the payload of typing and voice pushes.
type Presence struct {
	User      UserStub `json:"user"`
	ChannelID string   `json:"channel_id"`
}

// Intent is the payload of client intents. Only the id matching the intent
// kind is set; the user stub rides along on typing and voice intents.
type Intent struct {
	ChannelID string    `json:"channel_id,omitempty"`
	DMID      string    `json:"dm_id,omitempty"`
	User      *UserStub `json:"user,omitempty"`
}

func NewEvent(name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Event: name, Data: data}, nil
}
