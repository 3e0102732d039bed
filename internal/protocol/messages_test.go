package protocol

import (
	"encoding/json"
	"testing"

	"github.com/jason-s-yu/termo/internal/game"
	"github.com/jason-s-yu/termo/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Guess(t *testing.T) {
	in, err := Decode([]byte(`{"type":"GUESS","playerName":"ana","roomCode":"AB12C","guess":"TERMO","attemptNumber":3,"extra":true}`))
	require.NoError(t, err)
	assert.Equal(t, Inbound{
		Type:          KindGuess,
		PlayerName:    "ana",
		RoomCode:      "AB12C",
		Guess:         "TERMO",
		AttemptNumber: 3,
	}, in)
}

func TestDecode_UnknownKindIsNotAnError(t *testing.T) {
	in, err := Decode([]byte(`{"type":"CHAT","msg":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, Kind("CHAT"), in.Type)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`{"type":`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"type":"GUESS","attemptNumber":"two"}`))
	assert.Error(t, err)
}

func TestEncode_IncorrectGuessHasNullLeaderboard(t *testing.T) {
	board := []room.LeaderboardEntry{{PlayerName: "ana", Attempts: 1, Time: 2}}
	msg := NewGuessResult("ana", "TEMPO", []game.Color{game.Green, game.Green, game.Yellow, game.Gray, game.Green}, false, board)

	data, err := Encode(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type":"GUESS_RESULT",
		"playerName":"ana",
		"guess":"TEMPO",
		"result":["green","green","yellow","gray","green"],
		"isCorrect":false,
		"leaderboard":null
	}`, string(data))
}

func TestEncode_CorrectGuessCarriesLeaderboard(t *testing.T) {
	board := []room.LeaderboardEntry{{PlayerName: "ana", Attempts: 1, Time: 2.5}}
	data, err := Encode(NewGuessResult("ana", "TERMO", []game.Color{game.Green}, true, board))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["isCorrect"])
	assert.Equal(t, []any{map[string]any{"playerName": "ana", "attempts": 1.0, "time": 2.5}}, decoded["leaderboard"])
}

func TestEncode_ControlMessages(t *testing.T) {
	cases := []struct {
		msg  Outbound
		want string
	}{
		{NewRoomCreated("AB12C"), `{"type":"ROOM_CREATED","roomCode":"AB12C"}`},
		{NewJoinedRoom("AB12C"), `{"type":"JOINED_ROOM","roomCode":"AB12C"}`},
		{NewPlayerJoined("bia"), `{"type":"PLAYER_JOINED","playerName":"bia"}`},
		{NewError("Room not found"), `{"type":"ERROR","message":"Room not found"}`},
	}
	for _, tc := range cases {
		data, err := Encode(tc.msg)
		require.NoError(t, err)
		assert.JSONEq(t, tc.want, string(data))
	}
}
