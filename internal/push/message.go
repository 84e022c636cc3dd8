package push

import (
	"encoding/json"
	"fmt"
)

// Notification types carried in the payload "type" key.
const (
	TypeMessage      = "message"
	TypeNotification = "notification"
	TypeOfferAccept  = "offer_accept"
	TypeOfferReject  = "offer_reject"
)

// Notice is what the application wants delivered to a user.
type Notice struct {
	Text     string `json:"text"`
	Type     string `json:"type"`
	ObjectID string `json:"object_id,omitempty"`
	Badge    int    `json:"badge"`
}

// Message is a device-addressed push.
type Message struct {
	Token  string
	Alert  string
	Badge  *int
	Custom map[string]any
}

// conversationTypes reference a thread rather than a notification.
var conversationTypes = map[string]bool{
	TypeMessage:     true,
	TypeOfferAccept: true,
}

// badgeTypes carry the pending-offer count.
var badgeTypes = map[string]bool{
	TypeNotification: true,
	TypeOfferAccept:  true,
	TypeOfferReject:  true,
}

// BuildMessage turns a Notice into a Message for the given device token.
func BuildMessage(token string, n Notice) Message {
	custom := map[string]any{"type": n.Type}
	if n.ObjectID != "" {
		if conversationTypes[n.Type] {
			custom["thread_id"] = n.ObjectID
		} else {
			custom["notification_id"] = n.ObjectID
		}
	}

	msg := Message{Token: token, Alert: n.Text, Custom: custom}
	if badgeTypes[n.Type] {
		badge := n.Badge
		msg.Badge = &badge
	}
	return msg
}

// Encode renders the APNs-style payload and enforces MaxPayloadBytes.
func (m Message) Encode() ([]byte, error) {
	if m.Token == "" {
		return nil, fmt.Errorf("push message has no device token")
	}

	aps := map[string]any{"alert": m.Alert, "sound": "default"}
	if m.Badge != nil {
		aps["badge"] = *m.Badge
	}
	body := make(map[string]any, len(m.Custom)+1)
	for k, v := range m.Custom {
		body[k] = v
	}
	body["aps"] = aps

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding push payload: %w", err)
	}
	if len(b) > MaxPayloadBytes {
		return nil, ErrPayloadTooLarge
	}
	return b, nil
}
