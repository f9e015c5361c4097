package gamedto

import (
	"encoding/json"
	"errors"
)

// UpdateType tags the inbound update union.
type UpdateType string

const (
	TypeMessageNew   UpdateType = "message_new"
	TypeMessageEvent UpdateType = "message_event"
	TypeProfileReply UpdateType = "vk_user_request"
)

// ErrUnknownUpdate marks an inbound payload whose shape is not recognized.
// Such updates are discarded silently.
var ErrUnknownUpdate = errors.New("unknown update shape")

// Update is the typed inbound update. Exactly one of the payload fields is
// set, matching Type.
type Update struct {
	Type         UpdateType
	Message      *NewMessage
	Event        *ButtonEvent
	ProfileReply *ProfileReply
}

// NewMessage is a free-text chat message.
type NewMessage struct {
	ID     int64
	UserID int64
	PeerID int64
	Text   string
}

// ButtonEvent is a button press carrying a raw command string.
type ButtonEvent struct {
	EventID string
	UserID  int64
	PeerID  int64
	Command string
}

// ProfileReply is the echo of a requested user profile lookup, used to
// complete a two-phase registration.
type ProfileReply struct {
	VKID     int64
	Name     string
	LastName string
	PeerID   int64
	EventID  string
}

type rawUpdate struct {
	Type   string `json:"type"`
	Object struct {
		Message struct {
			ID     int64  `json:"id"`
			FromID int64  `json:"from_id"`
			PeerID int64  `json:"peer_id"`
			Text   string `json:"text"`
		} `json:"message"`
		EventID string `json:"event_id"`
		UserID  int64  `json:"user_id"`
		PeerID  int64  `json:"peer_id"`
		Payload struct {
			Command string `json:"command"`
		} `json:"payload"`
	} `json:"object"`
	VKUserRequest int64  `json:"vk_user_request"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	PeerID        int64  `json:"peer_id"`
	EventID       string `json:"event_id"`
}

// ParseUpdate deserializes a raw inbound payload into a typed Update.
// Returns ErrUnknownUpdate for shapes the engine does not handle.
func ParseUpdate(payload []byte) (Update, error) {
	var raw rawUpdate
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Update{}, err
	}
	switch UpdateType(raw.Type) {
	case TypeMessageNew:
		return Update{
			Type: TypeMessageNew,
			Message: &NewMessage{
				ID:     raw.Object.Message.ID,
				UserID: raw.Object.Message.FromID,
				PeerID: raw.Object.Message.PeerID,
				Text:   raw.Object.Message.Text,
			},
		}, nil
	case TypeMessageEvent:
		return Update{
			Type: TypeMessageEvent,
			Event: &ButtonEvent{
				EventID: raw.Object.EventID,
				UserID:  raw.Object.UserID,
				PeerID:  raw.Object.PeerID,
				Command: raw.Object.Payload.Command,
			},
		}, nil
	case TypeProfileReply:
		return Update{
			Type: TypeProfileReply,
			ProfileReply: &ProfileReply{
				VKID:     raw.VKUserRequest,
				Name:     raw.FirstName,
				LastName: raw.LastName,
				PeerID:   raw.PeerID,
				EventID:  raw.EventID,
			},
		}, nil
	}
	return Update{}, ErrUnknownUpdate
}
