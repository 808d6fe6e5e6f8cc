package events

import (
	"encoding/json"
	"fmt"
)

// Event types published for a session.
const (
	TypeState         = "state"
	TypeRoundFinished = "round_finished"
	TypeSessionClosed = "session_closed"
)

// Event represents a message published via Pub/Sub for one session.
type Event struct {
	Type      string          `json:"event"`
	SessionID string          `json:"session_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// RoundFinishedPayload is the payload for the "round_finished" event.
type RoundFinishedPayload struct {
	Round  int    `json:"round"`
	Status string `json:"status"`
	Winner string `json:"winner,omitempty"`
	Line   []int  `json:"line,omitempty"`
}

// New builds an event, encoding payload as JSON. A nil payload is left empty.
func New(eventType, sessionID string, payload any) (Event, error) {
	ev := Event{Type: eventType, SessionID: sessionID}
	if payload == nil {
		return ev, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	ev.Payload = data
	return ev, nil
}

// ChannelName is the Pub/Sub channel carrying a session's events.
func ChannelName(sessionID string) string {
	return fmt.Sprintf("channel:session:%s", sessionID)
}
