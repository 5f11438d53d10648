package ws

import (
	"encoding/json"
	"errors"
)

// Wire events. A code_update is rebroadcast verbatim, so the broadcast
// payload has the exact shape the sender put on the wire.
const (
	EventJoinRoom   = "join_room"
	EventLeaveRoom  = "leave_room"
	EventCodeUpdate = "code_update"
)

// Event is the JSON frame exchanged over the /ws channel.
type Event struct {
	Event   string `json:"event"`
	Room    string `json:"room"`
	NewCode string `json:"newCode,omitempty"`
}

var (
	errMissingEvent = errors.New("missing event name")
	errMissingRoom  = errors.New("missing room id")
)

// ParseEvent decodes and validates an inbound frame.
func ParseEvent(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	if ev.Event == "" {
		return nil, errMissingEvent
	}
	if ev.Room == "" {
		return nil, errMissingRoom
	}
	return &ev, nil
}
