package gamedto

import "encoding/json"

// Message is the outbound envelope consumed by the sender process. Only
// non-zero fields are serialized.
type Message struct {
	Text          string     `json:"text,omitempty"`
	PeerID        int64      `json:"peer_id,omitempty"`
	UserID        int64      `json:"user_id,omitempty"`
	Keyboard      string     `json:"keyboard,omitempty"`
	EventID       string     `json:"event_id,omitempty"`
	EventData     *EventData `json:"event_data,omitempty"`
	VKUserRequest int64      `json:"vk_user_request,omitempty"`
}

// EventData acknowledges a button press. Type "show_snackbar" renders the
// text as a transient popup for the pressing user only.
type EventData struct {
	Type string `json:"type"`
}

// Marshal serializes the envelope for the outbound queue.
func (m Message) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Button is one labeled callback button.
type Button struct {
	Command string
	Label   string
}

type keyboardAction struct {
	Type    string            `json:"type"`
	Payload map[string]string `json:"payload"`
	Label   string            `json:"label"`
}

type keyboardButton struct {
	Action keyboardAction `json:"action"`
	Color  string         `json:"color,omitempty"`
}

type keyboard struct {
	Buttons [][]keyboardButton `json:"buttons"`
	OneTime bool               `json:"one_time"`
	Inline  bool               `json:"inline"`
}

// BuildKeyboard serializes a one-column callback keyboard in the platform's
// wire format. An empty button list produces the empty keyboard, which
// clears any previously shown one.
func BuildKeyboard(buttons ...Button) string {
	kb := keyboard{Buttons: [][]keyboardButton{}}
	for _, b := range buttons {
		kb.Buttons = append(kb.Buttons, []keyboardButton{{
			Action: keyboardAction{
				Type:    "callback",
				Payload: map[string]string{"command": b.Command},
				Label:   b.Label,
			},
			Color: "primary",
		}})
	}
	data, _ := json.Marshal(kb)
	return string(data)
}
