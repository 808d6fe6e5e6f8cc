package validator

import (
	"ctchen222/tictactoe-minimax/pkg/proto"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestStruct_ClientMessages(t *testing.T) {
	tests := []struct {
		name    string
		msg     proto.ClientToServerMessage
		wantErr string
	}{
		{name: "Move", msg: proto.ClientToServerMessage{Type: proto.TypeMove, Cell: intPtr(4)}},
		{name: "Move on cell zero", msg: proto.ClientToServerMessage{Type: proto.TypeMove, Cell: intPtr(0)}},
		{name: "Undo", msg: proto.ClientToServerMessage{Type: proto.TypeUndo}},
		{name: "New round", msg: proto.ClientToServerMessage{Type: proto.TypeNewRound}},
		{name: "Reset", msg: proto.ClientToServerMessage{Type: proto.TypeReset}},
		{name: "Move without cell", msg: proto.ClientToServerMessage{Type: proto.TypeMove}, wantErr: "cell failed required_if"},
		{name: "Missing type", msg: proto.ClientToServerMessage{}, wantErr: "type failed required"},
		{name: "Unknown type", msg: proto.ClientToServerMessage{Type: "resign"}, wantErr: "type failed oneof"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.msg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidMessage)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
