// internal/session/state.go
package session

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/termo/internal/protocol"
)

// Phase is where a connection is in its lifecycle:
// Unjoined -> InRoom -> Closed.
type Phase int

const (
	Unjoined Phase = iota
	InRoom
	Closed
)

func (p Phase) String() string {
	switch p {
	case Unjoined:
		return "unjoined"
	case InRoom:
		return "in_room"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// State is the per-connection session state. It is a value; the handler
// returns the next state instead of mutating it.
type State struct {
	ConnID     uuid.UUID
	Phase      Phase
	RoomCode   string
	PlayerName string
}

// NewState returns the initial state for a fresh connection.
func NewState(conn uuid.UUID) State {
	return State{ConnID: conn, Phase: Unjoined}
}

func (s State) unjoined() State {
	return State{ConnID: s.ConnID, Phase: Unjoined}
}

func (s State) inRoom(code, player string) State {
	return State{ConnID: s.ConnID, Phase: InRoom, RoomCode: code, PlayerName: player}
}

// Delivery addresses one outbound message to a set of connections.
type Delivery struct {
	To      []uuid.UUID
	Message protocol.Outbound
}

// Dispatcher hands deliveries to the transport. Deliver must not block.
type Dispatcher interface {
	Deliver(to []uuid.UUID, msg protocol.Outbound)
}
