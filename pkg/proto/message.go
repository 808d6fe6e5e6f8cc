package proto

import "encoding/json"

// Client message types.
const (
	TypeMove     = "move"
	TypeUndo     = "undo"
	TypeNewRound = "new_round"
	TypeReset    = "reset"
)

// TypeError is sent to a client whose message was refused.
const TypeError = "error"

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type string `json:"type" validate:"required,oneof=move undo new_round reset"`
	Cell *int   `json:"cell,omitempty" validate:"required_if=Type move"`
}

// ServerToClientMessage represents a message from the server to the client.
// Payload carries the session event as published on the bus.
type ServerToClientMessage struct {
	Type      string          `json:"type" validate:"required"`
	SessionID string          `json:"session_id,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}
