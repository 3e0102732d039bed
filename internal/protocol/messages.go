// Package protocol defines the JSON records exchanged with game clients.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/termo/internal/game"
	"github.com/jason-s-yu/termo/internal/room"
)

// Kind is the value of a message's "type" field.
type Kind string

// Inbound kinds.
const (
	KindCreateRoom Kind = "CREATE_ROOM"
	KindJoinRoom   Kind = "JOIN_ROOM"
	KindGuess      Kind = "GUESS"
)

// Outbound kinds.
const (
	KindRoomCreated  Kind = "ROOM_CREATED"
	KindJoinedRoom   Kind = "JOINED_ROOM"
	KindPlayerJoined Kind = "PLAYER_JOINED"
	KindGuessResult  Kind = "GUESS_RESULT"
	KindError        Kind = "ERROR"
)

// Inbound is any client message. Fields a kind does not use are left zero;
// unknown fields are ignored.
type Inbound struct {
	Type          Kind   `json:"type"`
	PlayerName    string `json:"playerName,omitempty"`
	RoomCode      string `json:"roomCode,omitempty"`
	Guess         string `json:"guess,omitempty"`
	AttemptNumber int    `json:"attemptNumber,omitempty"`
}

// Decode parses a client frame.
func Decode(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("decode message: %w", err)
	}
	return in, nil
}

// Outbound is any server message.
type Outbound interface {
	MessageType() Kind
}

type RoomCreated struct {
	Type     Kind   `json:"type"`
	RoomCode string `json:"roomCode"`
}

func (RoomCreated) MessageType() Kind { return KindRoomCreated }

type JoinedRoom struct {
	Type     Kind   `json:"type"`
	RoomCode string `json:"roomCode"`
}

func (JoinedRoom) MessageType() Kind { return KindJoinedRoom }

type PlayerJoined struct {
	Type       Kind   `json:"type"`
	PlayerName string `json:"playerName"`
}

func (PlayerJoined) MessageType() Kind { return KindPlayerJoined }

// GuessResult is broadcast to the whole room after every scored guess.
// Leaderboard encodes as null unless the guess was correct.
type GuessResult struct {
	Type        Kind                    `json:"type"`
	PlayerName  string                  `json:"playerName"`
	Guess       string                  `json:"guess"`
	Result      []game.Color            `json:"result"`
	IsCorrect   bool                    `json:"isCorrect"`
	Leaderboard []room.LeaderboardEntry `json:"leaderboard"`
}

func (GuessResult) MessageType() Kind { return KindGuessResult }

type Error struct {
	Type    Kind   `json:"type"`
	Message string `json:"message"`
}

func (Error) MessageType() Kind { return KindError }

func NewRoomCreated(code string) RoomCreated {
	return RoomCreated{Type: KindRoomCreated, RoomCode: code}
}

func NewJoinedRoom(code string) JoinedRoom {
	return JoinedRoom{Type: KindJoinedRoom, RoomCode: code}
}

func NewPlayerJoined(name string) PlayerJoined {
	return PlayerJoined{Type: KindPlayerJoined, PlayerName: name}
}

func NewGuessResult(player, guess string, result []game.Color, correct bool, board []room.LeaderboardEntry) GuessResult {
	if !correct {
		board = nil
	}
	return GuessResult{
		Type:        KindGuessResult,
		PlayerName:  player,
		Guess:       guess,
		Result:      result,
		IsCorrect:   correct,
		Leaderboard: board,
	}
}

func NewError(msg string) Error {
	return Error{Type: KindError, Message: msg}
}

// Encode marshals an outbound message.
func Encode(msg Outbound) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.MessageType(), err)
	}
	return data, nil
}
